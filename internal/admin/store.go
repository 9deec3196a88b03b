package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/kv"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/observe"
	"storefront/internal/persist"
)

const storeName = "admin"

// DefaultKeyPrefix is prepended to the collection name to form kv keys.
const DefaultKeyPrefix = "admin"

var _ observe.Observable[Snapshot] = (*Store)(nil)

// ErrNotFound is returned by Find for an unknown record id.
var ErrNotFound = errors.New("admin: record not found")

// Option configures a Store.
type Option func(*Store)

// WithKV enables persistence of every collection under <prefix>/<collection>.
// Without it the store is in-memory only.
func WithKV(store kv.Store) Option {
	return func(s *Store) { s.kv = store }
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock sets the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.OrDiscard(logger)
	}
}

func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Store) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// Store holds the three request collections.
type Store struct {
	mu        sync.RWMutex
	interiors records[InteriorsRequest]
	stolar    records[PartnerProfile]
	web       records[WebProjectRequest]

	memoMu sync.Mutex
	memo   observe.Memo[[3]uint64, Snapshot]
	hub    observe.Hub

	kv      kv.Store
	prefix  string
	nowFn   func() time.Time
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New builds an admin store, loading persisted collections when WithKV is set.
func New(ctx context.Context, opts ...Option) *Store {
	s := &Store{
		prefix:  DefaultKeyPrefix,
		nowFn:   func() time.Time { return time.Now().UTC() },
		logger:  logging.Discard(),
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.kv != nil {
		for _, c := range Collections() {
			col, _ := s.collection(c)
			if err := col.load(ctx, s.kv, s.key(c)); err != nil {
				s.logger.Warn("admin load failed, starting empty", "store", storeName, "op", "load", "key", s.key(c), "err", err)
			}
		}
	}
	return s
}

func (s *Store) key(c Collection) string { return s.prefix + "/" + string(c) }

func (s *Store) collection(c Collection) (mutable, bool) {
	switch c {
	case CollectionInteriors:
		return &s.interiors, true
	case CollectionStolar:
		return &s.stolar, true
	case CollectionWeb:
		return &s.web, true
	}
	return nil, false
}

// Subscribe registers l for change notification.
func (s *Store) Subscribe(l observe.Listener) func() { return s.hub.Subscribe(l) }

// Snapshot returns the memoized view of all collections. The snapshot shares
// its slices with the store and must be treated as read-only.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := [3]uint64{s.interiors.version, s.stolar.version, s.web.version}
	interiors, stolar, web := s.interiors.items, s.stolar.items, s.web.items
	s.memoMu.Lock()
	defer s.memoMu.Unlock()
	return s.memo.Get(key, func() *Snapshot {
		return &Snapshot{Interiors: interiors, Stolar: stolar, Web: web}
	})
}

func newID(c Collection) string {
	return c.idPrefix() + "-" + uuid.Must(uuid.NewV7()).String()
}

func (s *Store) envelope(c Collection) Envelope {
	return Envelope{ID: newID(c), CreatedAt: s.nowFn(), Status: StatusNew}
}

// AddInteriorsRequest stores payload as a new record at the front of the
// interiors collection.
func (s *Store) AddInteriorsRequest(ctx context.Context, payload InteriorsRequest) (Record[InteriorsRequest], persist.Result) {
	rec := Record[InteriorsRequest]{Envelope: s.envelope(CollectionInteriors), Payload: payload}
	res := s.mutate(ctx, "add", CollectionInteriors, func() bool {
		s.interiors.prepend(rec)
		return true
	})
	return rec, res
}

// AddStolarProfile stores payload as a new record at the front of the
// stolar collection. Crafts is copied.
func (s *Store) AddStolarProfile(ctx context.Context, payload PartnerProfile) (Record[PartnerProfile], persist.Result) {
	payload.Crafts = slices.Clone(payload.Crafts)
	rec := Record[PartnerProfile]{Envelope: s.envelope(CollectionStolar), Payload: payload}
	res := s.mutate(ctx, "add", CollectionStolar, func() bool {
		s.stolar.prepend(rec)
		return true
	})
	return rec, res
}

// AddWebProjectRequest stores payload as a new record at the front of the
// web collection.
func (s *Store) AddWebProjectRequest(ctx context.Context, payload WebProjectRequest) (Record[WebProjectRequest], persist.Result) {
	rec := Record[WebProjectRequest]{Envelope: s.envelope(CollectionWeb), Payload: payload}
	res := s.mutate(ctx, "add", CollectionWeb, func() bool {
		s.web.prepend(rec)
		return true
	})
	return rec, res
}

// UpdateStatus sets the status of record id. Any status may follow any
// other; unknown ids are a no-op.
func (s *Store) UpdateStatus(ctx context.Context, c Collection, id string, status Status) persist.Result {
	col, ok := s.collection(c)
	if !ok {
		return s.reject(ctx, "update_status", persist.Invalid("unknown collection %q", c))
	}
	if !status.Valid() {
		return s.reject(ctx, "update_status", persist.Invalid("unknown status %q", status))
	}
	return s.mutate(ctx, "update_status", c, func() bool { return col.setStatus(id, status) })
}

// ToggleArchive flips the archive flag of record id, leaving status alone.
func (s *Store) ToggleArchive(ctx context.Context, c Collection, id string) persist.Result {
	col, ok := s.collection(c)
	if !ok {
		return s.reject(ctx, "toggle_archive", persist.Invalid("unknown collection %q", c))
	}
	return s.mutate(ctx, "toggle_archive", c, func() bool { return col.toggleArchive(id) })
}

// Delete permanently removes record id from c.
func (s *Store) Delete(ctx context.Context, c Collection, id string) persist.Result {
	col, ok := s.collection(c)
	if !ok {
		return s.reject(ctx, "delete", persist.Invalid("unknown collection %q", c))
	}
	return s.mutate(ctx, "delete", c, func() bool { return col.remove(id) })
}

// DeleteInteriorsRequest removes record id from the interiors collection.
func (s *Store) DeleteInteriorsRequest(ctx context.Context, id string) persist.Result {
	return s.Delete(ctx, CollectionInteriors, id)
}

func (s *Store) reject(ctx context.Context, op string, res persist.Result) persist.Result {
	s.logger.Warn("admin input rejected", "store", storeName, "op", op, "err", res.Err)
	s.metrics.Observe(ctx, storeName, op, false, 0)
	return res
}

// mutate runs fn under the write lock, persists collection c when
// persistence is enabled and notifies subscribers with the lock released.
func (s *Store) mutate(ctx context.Context, op string, c Collection, fn func() bool) persist.Result {
	start := time.Now()
	s.mu.Lock()
	changed := fn()
	var err error
	if s.kv != nil {
		col, _ := s.collection(c)
		err = col.save(ctx, s.kv, s.key(c))
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("admin persist failed", "store", storeName, "op", op, "key", s.key(c), "err", err)
		s.metrics.PersistFailed(storeName)
	}
	s.metrics.Observe(ctx, storeName, op, err == nil, time.Since(start))
	s.hub.Notify()
	return persist.Result{Changed: changed, Err: err}
}

// Find returns the envelope of record id in c.
func (s *Store) Find(c Collection, id string) (Envelope, error) {
	snap := s.Snapshot()
	var envs []Envelope
	switch c {
	case CollectionInteriors:
		envs = envelopes(snap.Interiors)
	case CollectionStolar:
		envs = envelopes(snap.Stolar)
	case CollectionWeb:
		envs = envelopes(snap.Web)
	default:
		return Envelope{}, fmt.Errorf("%w: unknown collection %q", persist.ErrInvalidInput, c)
	}
	for _, e := range envs {
		if e.ID == id {
			return e, nil
		}
	}
	return Envelope{}, fmt.Errorf("%s %s: %w", c, id, ErrNotFound)
}

func envelopes[P any](recs []Record[P]) []Envelope {
	out := make([]Envelope, len(recs))
	for i, r := range recs {
		out[i] = r.Envelope
	}
	return out
}
