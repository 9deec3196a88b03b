package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"storefront/internal/kv"
	"storefront/internal/persist"
)

var coaster = Item{ID: "p1", Title: "Coaster", UnitPrice: 25}

type failingKV struct {
	kv.Store
	failPut bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("quota exceeded")
	}
	return f.Store.Put(ctx, key, value)
}

func TestAddItemIsAdditive(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	s.AddItem(ctx, coaster, 1)
	res := s.AddItem(ctx, coaster, 2)
	if !res.Changed || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	snap := s.Snapshot()
	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 3 {
		t.Fatalf("expected one line with qty 3, got %+v", snap.Lines)
	}
	if snap.TotalQuantity != 3 || snap.TotalPrice != 75 {
		t.Fatalf("expected totals 3/75, got %d/%v", snap.TotalQuantity, snap.TotalPrice)
	}
	if s.TotalQuantity() != 3 || s.TotalPrice() != 75 {
		t.Fatalf("derived reads disagree with snapshot")
	}
}

func TestSetQtyFloorRemovesLine(t *testing.T) {
	ctx := context.Background()
	for _, qty := range []int{0, -5} {
		s := New(ctx)
		s.AddOne(ctx, coaster)
		res := s.SetQty(ctx, "p1", qty)
		if !res.Changed || len(s.Lines()) != 0 {
			t.Fatalf("SetQty(%d): expected line removed, got %+v", qty, s.Lines())
		}
	}
}

func TestSetQtyIsExact(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	s.AddItem(ctx, coaster, 4)
	s.SetQty(ctx, "p1", 2)
	if got := s.Lines()[0].Quantity; got != 2 {
		t.Fatalf("expected qty 2, got %d", got)
	}
	if res := s.SetQty(ctx, "p1", 2); res.Changed {
		t.Fatalf("expected unchanged when qty already set")
	}
	if res := s.SetQty(ctx, "missing", 3); res.Changed || res.Err != nil {
		t.Fatalf("expected unknown id no-op, got %+v", res)
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	s.AddOne(ctx, coaster)
	s.AddItem(ctx, Item{ID: "p2", Title: "Mug", UnitPrice: 12.5}, 2)
	if res := s.RemoveItem(ctx, "nope"); res.Changed {
		t.Fatalf("expected no-op remove")
	}
	s.RemoveItem(ctx, "p1")
	lines := s.Lines()
	if len(lines) != 1 || lines[0].ID != "p2" {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if res := s.Clear(ctx); !res.Changed {
		t.Fatalf("expected clear to change state")
	}
	if res := s.Clear(ctx); res.Changed {
		t.Fatalf("expected clear of empty cart to be a no-op")
	}
	if snap := s.Snapshot(); snap.TotalQuantity != 0 || snap.TotalPrice != 0 || len(snap.Lines) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestInvalidInputRejected(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	notified := 0
	s.Subscribe(func() { notified++ })
	before := s.Snapshot()
	cases := []struct {
		item Item
		qty  int
	}{
		{coaster, 0},
		{coaster, -1},
		{Item{ID: " "}, 1},
		{Item{ID: "p3", UnitPrice: -1}, 1},
		{Item{ID: "p3", UnitPrice: math.NaN()}, 1},
		{Item{ID: "p3", UnitPrice: math.Inf(1)}, 1},
	}
	for _, tc := range cases {
		res := s.AddItem(ctx, tc.item, tc.qty)
		if !errors.Is(res.Err, persist.ErrInvalidInput) || res.Changed {
			t.Fatalf("AddItem(%+v, %d): expected rejection, got %+v", tc.item, tc.qty, res)
		}
	}
	if notified != 0 || s.Snapshot() != before {
		t.Fatalf("rejections must not notify or change the snapshot")
	}
}

func TestQuantityBound(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(ctx, WithKV(store))
	notified := 0
	s.Subscribe(func() { notified++ })

	s.AddOne(ctx, coaster)
	notified = 0
	for _, res := range []persist.Result{
		s.AddItem(ctx, coaster, math.MaxInt),
		s.AddItem(ctx, coaster, MaxQuantity),
		s.SetQty(ctx, "p1", 3_000_000_000),
	} {
		if !errors.Is(res.Err, persist.ErrInvalidInput) || res.Changed {
			t.Fatalf("expected rejection, got %+v", res)
		}
	}
	if notified != 0 || s.TotalQuantity() != 1 {
		t.Fatalf("rejections must leave qty 1 without notifying, got qty %d notified %d", s.TotalQuantity(), notified)
	}

	if res := s.AddItem(ctx, coaster, MaxQuantity-2); !res.OK() || !res.Changed {
		t.Fatalf("expected add up to the bound, got %+v", res)
	}
	if res := s.AddOne(ctx, coaster); !res.OK() || s.TotalQuantity() != MaxQuantity {
		t.Fatalf("expected qty at the bound, got %d (%+v)", s.TotalQuantity(), res)
	}
	if res := s.AddOne(ctx, coaster); !errors.Is(res.Err, persist.ErrInvalidInput) {
		t.Fatalf("expected add past the bound rejected, got %+v", res)
	}

	reloaded := New(ctx, WithKV(store))
	lines := reloaded.Lines()
	if len(lines) != 1 || lines[0].Quantity != MaxQuantity {
		t.Fatalf("expected the bounded line to survive a reload, got %+v", lines)
	}
}

func TestNilLoggerFallsBackToDiscard(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, WithLogger(nil))
	if res := s.AddItem(ctx, coaster, 0); res.Err == nil {
		t.Fatalf("expected rejection to be reported")
	}
}

func TestSnapshotIdentity(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	empty := s.Snapshot()
	if s.Snapshot() != empty {
		t.Fatalf("expected stable snapshot for repeated reads")
	}
	s.AddOne(ctx, coaster)
	first := s.Snapshot()
	if first == empty {
		t.Fatalf("expected new snapshot after add")
	}
	s.RemoveItem(ctx, "missing")
	s.SetQty(ctx, "missing", 2)
	if s.Snapshot() != first {
		t.Fatalf("no-op mutations must not re-identify the snapshot")
	}
	s.AddOne(ctx, coaster)
	if s.Snapshot() == first || first.Lines[0].Quantity != 1 {
		t.Fatalf("earlier snapshot must stay intact after later mutations")
	}
}

func TestListenersNotifiedEvenOnNoop(t *testing.T) {
	ctx := context.Background()
	s := New(ctx)
	var seen []*Snapshot
	unsubscribe := s.Subscribe(func() { seen = append(seen, s.Snapshot()) })
	s.AddOne(ctx, coaster)
	s.RemoveItem(ctx, "missing")
	if len(seen) != 2 || seen[0] != seen[1] {
		t.Fatalf("expected two notifications with the same snapshot, got %d", len(seen))
	}
	unsubscribe()
	s.Clear(ctx)
	if len(seen) != 2 {
		t.Fatalf("expected no notification after unsubscribe")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(ctx, WithKV(store))
	s.AddItem(ctx, Item{ID: "p1", Title: "Coaster", UnitPrice: 25, ImageRef: "/img/p1.png", Tags: []string{"oak"}}, 2)
	s.AddItem(ctx, Item{ID: "p2", Title: "Mug", UnitPrice: 9.99}, 1)

	reloaded := New(ctx, WithKV(store))
	if !slicesEqual(s.Lines(), reloaded.Lines()) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", s.Lines(), reloaded.Lines())
	}
	if reloaded.TotalPrice() != s.TotalPrice() {
		t.Fatalf("expected equal totals")
	}
}

func TestPersistFailureStillAppliesAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := &failingKV{Store: kv.NewMemory(), failPut: true}
	s := New(ctx, WithKV(store))
	notified := false
	s.Subscribe(func() { notified = true })
	res := s.AddOne(ctx, coaster)
	if !res.Changed || !errors.Is(res.Err, persist.ErrPersist) {
		t.Fatalf("expected changed with persist error, got %+v", res)
	}
	if !notified || s.TotalQuantity() != 1 {
		t.Fatalf("expected in-memory change and notification")
	}
}

func TestLoadFailOpen(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", `{"id":"p1"}`, `"cart"`, `[1,2]`} {
		store := kv.NewMemory()
		_ = store.Put(ctx, DefaultKey, []byte(raw))
		if lines := New(ctx, WithKV(store)).Lines(); len(lines) != 0 {
			t.Fatalf("content %q: expected empty cart, got %+v", raw, lines)
		}
	}
}

func TestCustomKeyAndReload(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	a := New(ctx, WithKV(store), WithKey("basket"))
	b := New(ctx, WithKV(store), WithKey("basket"))
	a.AddItem(ctx, coaster, 3)
	if _, err := store.Get(ctx, "basket"); err != nil {
		t.Fatalf("expected cart under custom key: %v", err)
	}
	before := b.Snapshot()
	if res := b.Reload(ctx); !res.Changed || res.Err != nil {
		t.Fatalf("expected reload to pick up writes, got %+v", res)
	}
	if b.TotalQuantity() != 3 || b.Snapshot() == before {
		t.Fatalf("expected reloaded state and new snapshot")
	}
	if res := b.Reload(ctx); res.Changed {
		t.Fatalf("expected second reload unchanged")
	}
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, WithKV(kv.NewMemory()))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddOne(ctx, coaster)
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	if got := s.TotalQuantity(); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func slicesEqual(a, b []Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalLine(a[i], b[i]) {
			return false
		}
	}
	return true
}
