package cart

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"storefront/internal/kv"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/observe"
	"storefront/internal/persist"
)

var _ observe.Observable[Snapshot] = (*Store)(nil)

type snapshotKey struct {
	version  uint64
	quantity int
	price    float64
}

// Store holds cart lines and notifies subscribers after every accepted
// mutation. Lines are replaced, never edited in place, so a Snapshot stays
// valid after later mutations.
type Store struct {
	mu      sync.RWMutex
	lines   []Line
	version uint64

	memoMu sync.Mutex
	memo   observe.Memo[snapshotKey, Snapshot]
	hub    observe.Hub

	kv      kv.Store
	key     string
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New builds a cart and loads any persisted lines. Unreadable persisted
// content yields an empty cart.
func New(ctx context.Context, opts ...Option) *Store {
	s := &Store{
		key:     DefaultKey,
		logger:  logging.Discard(),
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lines, _ = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) ([]Line, error) {
	var stored []storedLine
	if _, err := persist.LoadJSON(ctx, s.kv, s.key, &stored); err != nil {
		s.logger.Warn("cart load failed, starting empty", "store", storeName, "op", "load", "key", s.key, "err", err)
		return nil, err
	}
	return decode(stored), nil
}

// Subscribe registers l for change notification.
func (s *Store) Subscribe(l observe.Listener) func() { return s.hub.Subscribe(l) }

// Snapshot returns the memoized view of the cart. The snapshot shares its
// lines with the store and must be treated as read-only.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qty, price := totals(s.lines)
	lines := s.lines
	s.memoMu.Lock()
	defer s.memoMu.Unlock()
	return s.memo.Get(snapshotKey{version: s.version, quantity: qty, price: price}, func() *Snapshot {
		return &Snapshot{Lines: lines, TotalQuantity: qty, TotalPrice: price}
	})
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, len(s.lines))
	for i, l := range s.lines {
		out[i] = Line{Item: cloneItem(l.Item), Quantity: l.Quantity}
	}
	return out
}

func (s *Store) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qty, _ := totals(s.lines)
	return qty
}

func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, price := totals(s.lines)
	return price
}

// AddItem adds qty of item. An existing line for item.ID grows by qty; its
// descriptive fields are left as first added.
func (s *Store) AddItem(ctx context.Context, item Item, qty int) persist.Result {
	if res, ok := s.validate(ctx, "add_item", item, qty); !ok {
		return res
	}
	return s.mutate(ctx, "add_item", func(lines []Line) ([]Line, bool, error) {
		if i := indexOf(lines, item.ID); i >= 0 {
			if lines[i].Quantity > MaxQuantity-qty {
				return lines, false, persist.Invalid("quantity %d + %d for %s exceeds %d", lines[i].Quantity, qty, item.ID, MaxQuantity).Err
			}
			next := slices.Clone(lines)
			next[i].Quantity += qty
			return next, true, nil
		}
		next := make([]Line, len(lines), len(lines)+1)
		copy(next, lines)
		return append(next, Line{Item: cloneItem(item), Quantity: qty}), true, nil
	})
}

// AddOne adds a single unit of item.
func (s *Store) AddOne(ctx context.Context, item Item) persist.Result {
	return s.AddItem(ctx, item, 1)
}

// RemoveItem deletes the line for id. Unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) persist.Result {
	return s.mutate(ctx, "remove_item", func(lines []Line) ([]Line, bool, error) {
		next, changed := removeLine(lines, id)
		return next, changed, nil
	})
}

// SetQty sets the quantity of id exactly. qty < 1 removes the line; qty
// above MaxQuantity is rejected.
func (s *Store) SetQty(ctx context.Context, id string, qty int) persist.Result {
	if qty > MaxQuantity {
		return s.reject(ctx, "set_qty", persist.Invalid("quantity %d for %s exceeds %d", qty, id, MaxQuantity))
	}
	return s.mutate(ctx, "set_qty", func(lines []Line) ([]Line, bool, error) {
		if qty < 1 {
			next, changed := removeLine(lines, id)
			return next, changed, nil
		}
		i := indexOf(lines, id)
		if i < 0 || lines[i].Quantity == qty {
			return lines, false, nil
		}
		next := slices.Clone(lines)
		next[i].Quantity = qty
		return next, true, nil
	})
}

// Clear removes every line.
func (s *Store) Clear(ctx context.Context) persist.Result {
	return s.mutate(ctx, "clear", func(lines []Line) ([]Line, bool, error) {
		return nil, len(lines) > 0, nil
	})
}

// Reload replaces the in-memory lines with the persisted ones, picking up
// writes made by another process.
func (s *Store) Reload(ctx context.Context) persist.Result {
	start := time.Now()
	s.mu.Lock()
	lines, err := s.load(ctx)
	changed := !slices.EqualFunc(s.lines, lines, equalLine)
	if changed {
		s.lines = lines
		s.version++
	}
	s.mu.Unlock()
	s.metrics.Observe(ctx, storeName, "reload", err == nil, time.Since(start))
	s.hub.Notify()
	return persist.Result{Changed: changed, Err: err}
}

func (s *Store) validate(ctx context.Context, op string, item Item, qty int) (persist.Result, bool) {
	var res persist.Result
	switch {
	case strings.TrimSpace(item.ID) == "":
		res = persist.Invalid("item id is empty")
	case qty < 1:
		res = persist.Invalid("quantity %d for %s is below 1", qty, item.ID)
	case qty > MaxQuantity:
		res = persist.Invalid("quantity %d for %s exceeds %d", qty, item.ID, MaxQuantity)
	case item.UnitPrice < 0 || math.IsNaN(item.UnitPrice) || math.IsInf(item.UnitPrice, 0):
		res = persist.Invalid("unit price %v for %s", item.UnitPrice, item.ID)
	default:
		return res, true
	}
	return s.reject(ctx, op, res), false
}

func (s *Store) reject(ctx context.Context, op string, res persist.Result) persist.Result {
	s.logger.Warn("cart input rejected", "store", storeName, "op", op, "err", res.Err)
	s.metrics.Observe(ctx, storeName, op, false, 0)
	return res
}

// mutate applies fn under the write lock, persists the result and then
// notifies subscribers with the lock released. An error from fn rejects the
// mutation: nothing is persisted and nobody is notified.
func (s *Store) mutate(ctx context.Context, op string, fn func([]Line) ([]Line, bool, error)) persist.Result {
	start := time.Now()
	s.mu.Lock()
	next, changed, rejected := fn(s.lines)
	if rejected != nil {
		s.mu.Unlock()
		return s.reject(ctx, op, persist.Result{Err: rejected})
	}
	if changed {
		s.lines = next
		s.version++
	}
	err := persist.SaveJSON(ctx, s.kv, s.key, encode(s.lines))
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("cart persist failed", "store", storeName, "op", op, "key", s.key, "err", err)
		s.metrics.PersistFailed(storeName)
	}
	s.metrics.Observe(ctx, storeName, op, err == nil, time.Since(start))
	s.hub.Notify()
	return persist.Result{Changed: changed, Err: err}
}

func removeLine(lines []Line, id string) ([]Line, bool) {
	i := indexOf(lines, id)
	if i < 0 {
		return lines, false
	}
	next := make([]Line, 0, len(lines)-1)
	next = append(next, lines[:i]...)
	return append(next, lines[i+1:]...), true
}

func equalLine(a, b Line) bool {
	return a.ID == b.ID && a.Title == b.Title && a.UnitPrice == b.UnitPrice &&
		a.ImageRef == b.ImageRef && a.Quantity == b.Quantity && slices.Equal(a.Tags, b.Tags)
}
