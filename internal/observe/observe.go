// Package observe implements the subscription protocol shared by the stores:
// a listener hub, snapshot memoization keyed on derived state, and a channel
// based consumer.
package observe

import (
	"context"
	"sync"
)

// Listener is invoked with no arguments after every accepted mutation.
type Listener func()

// Observable is satisfied by any store that publishes memoized snapshots.
type Observable[S any] interface {
	Subscribe(Listener) (unsubscribe func())
	Snapshot() *S
}

// Hub is a set of listeners. The zero value is ready to use.
type Hub struct {
	mu        sync.Mutex
	next      uint64
	listeners map[uint64]Listener
}

// Subscribe registers l and returns an idempotent unsubscribe function.
func (h *Hub) Subscribe(l Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners == nil {
		h.listeners = make(map[uint64]Listener)
	}
	id := h.next
	h.next++
	h.listeners[id] = l
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Notify calls every listener registered at the time of the call, on the
// calling goroutine. Order is unspecified.
func (h *Hub) Notify() {
	h.mu.Lock()
	ls := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		ls = append(ls, l)
	}
	h.mu.Unlock()
	for _, l := range ls {
		l()
	}
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Memo caches the last snapshot built for a key. Callers must serialise
// access (the stores call it under their own lock).
type Memo[K comparable, S any] struct {
	valid bool
	key   K
	snap  *S
}

// Get returns the cached snapshot while key is unchanged and builds a new
// one otherwise.
func (m *Memo[K, S]) Get(key K, build func() *S) *S {
	if m.valid && m.key == key {
		return m.snap
	}
	m.key = key
	m.snap = build()
	m.valid = true
	return m.snap
}

// Watch sends the current snapshot and then every snapshot whose identity
// differs from the last one sent. Only the latest pending snapshot is kept
// for a slow reader. The channel is closed when ctx is done.
func Watch[S any](ctx context.Context, o Observable[S]) <-chan *S {
	out := make(chan *S)
	wake := make(chan struct{}, 1)
	unsubscribe := o.Subscribe(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	go func() {
		defer close(out)
		defer unsubscribe()
		var last *S
		for {
			if cur := o.Snapshot(); cur != last {
				select {
				case out <- cur:
					last = cur
				case <-ctx.Done():
					return
				case <-wake:
					continue
				}
			}
			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
