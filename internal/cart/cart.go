// Package cart implements the observable shopping cart store.
package cart

import (
	"log/slog"
	"math"
	"slices"

	"storefront/internal/kv"
	"storefront/internal/logging"
	"storefront/internal/metrics"
)

// DefaultKey is the kv key the cart is persisted under.
const DefaultKey = "cart"

const storeName = "cart"

// MaxQuantity is the largest quantity a line may hold, in total.
const MaxQuantity = math.MaxInt32

// Item describes a product as offered to the cart.
type Item struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	UnitPrice float64  `json:"unitPrice"`
	ImageRef  string   `json:"imageRef,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	Item
	Quantity int `json:"quantity"`
}

// Subtotal returns Quantity × UnitPrice.
func (l Line) Subtotal() float64 { return float64(l.Quantity) * l.UnitPrice }

// Snapshot is an immutable-by-convention view of the cart. The same pointer
// is returned until the lines or a derived total change. Lines shares its
// backing array (and each Tags slice) with the store and must not be
// modified; use Store.Lines for a private copy.
type Snapshot struct {
	Lines         []Line  `json:"lines"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Option configures a Store.
type Option func(*Store)

// WithKV persists the cart in store. Without it the cart is in-memory only.
func WithKV(store kv.Store) Option {
	return func(s *Store) { s.kv = store }
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for rejected inputs and persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.OrDiscard(logger)
	}
}

// WithMetrics sets the operation recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Store) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

func cloneItem(it Item) Item {
	it.Tags = slices.Clone(it.Tags)
	return it
}

func totals(lines []Line) (qty int, price float64) {
	for _, l := range lines {
		qty += l.Quantity
		price += l.Subtotal()
	}
	return qty, price
}

func indexOf(lines []Line, id string) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ID == id })
}
