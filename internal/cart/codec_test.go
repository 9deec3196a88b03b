package cart

import "testing"

func TestDecodeNormalizes(t *testing.T) {
	lines := decode([]storedLine{
		{ID: "p1", Title: "Coaster", Price: 25, Qty: 1},
		{ID: "", Title: "anon", Price: 1, Qty: 1},
		{ID: "p2", Price: 3, Qty: 0},
		{ID: "p3", Price: 3, Qty: 1.5},
		{ID: "p4", Price: -2, Qty: 1},
		{ID: "p1", Title: "dup", Price: 25, Qty: 2},
	})
	if len(lines) != 1 {
		t.Fatalf("expected one surviving line, got %+v", lines)
	}
	if lines[0].Quantity != 3 || lines[0].Title != "Coaster" {
		t.Fatalf("expected merged duplicate keeping first title, got %+v", lines[0])
	}
}

func TestEncodeFieldNames(t *testing.T) {
	out := encode([]Line{{Item: Item{ID: "p1", Title: "Coaster", UnitPrice: 25, ImageRef: "x.png"}, Quantity: 2}})
	if out[0].Price != 25 || out[0].Qty != 2 || out[0].ImageURL != "x.png" {
		t.Fatalf("unexpected stored line %+v", out[0])
	}
}

func TestDecodeBoundsQuantity(t *testing.T) {
	lines := decode([]storedLine{
		{ID: "p1", Price: 25, Qty: MaxQuantity - 1},
		{ID: "p1", Price: 25, Qty: 5},
		{ID: "p2", Price: 3, Qty: MaxQuantity + 1},
	})
	if len(lines) != 1 || lines[0].Quantity != MaxQuantity-1 {
		t.Fatalf("expected merge past the bound dropped, got %+v", lines)
	}
}
