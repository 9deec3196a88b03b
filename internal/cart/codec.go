package cart

import (
	"math"
	"strings"
)

// storedLine is the persisted JSON shape of a Line.
type storedLine struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Price    float64  `json:"price"`
	Qty      float64  `json:"qty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func encode(lines []Line) []storedLine {
	out := make([]storedLine, len(lines))
	for i, l := range lines {
		out[i] = storedLine{
			ID:       l.ID,
			Title:    l.Title,
			Price:    l.UnitPrice,
			Qty:      float64(l.Quantity),
			ImageURL: l.ImageRef,
			Tags:     l.Tags,
		}
	}
	return out
}

// decode drops lines that break the cart invariants (empty id, quantity
// below 1, fractional or above MaxQuantity, negative price) and merges
// duplicate ids. A merged quantity above MaxQuantity drops the later line.
func decode(stored []storedLine) []Line {
	var lines []Line
	for _, sl := range stored {
		if strings.TrimSpace(sl.ID) == "" || sl.Qty < 1 || sl.Qty != math.Trunc(sl.Qty) || sl.Qty > MaxQuantity || sl.Price < 0 {
			continue
		}
		qty := int(sl.Qty)
		if i := indexOf(lines, sl.ID); i >= 0 {
			if lines[i].Quantity <= MaxQuantity-qty {
				lines[i].Quantity += qty
			}
			continue
		}
		lines = append(lines, Line{
			Item:     cloneItem(Item{ID: sl.ID, Title: sl.Title, UnitPrice: sl.Price, ImageRef: sl.ImageURL, Tags: sl.Tags}),
			Quantity: qty,
		})
	}
	return lines
}
