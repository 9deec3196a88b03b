package observe

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHubNotifiesAllAndUnsubscribes(t *testing.T) {
	var h Hub
	var a, b int
	unsubA := h.Subscribe(func() { a++ })
	h.Subscribe(func() { b++ })
	h.Notify()
	if a != 1 || b != 1 {
		t.Fatalf("expected both listeners once, got %d %d", a, b)
	}
	unsubA()
	unsubA()
	h.Notify()
	if a != 1 || b != 2 {
		t.Fatalf("expected only b after unsubscribe, got %d %d", a, b)
	}
	if h.Len() != 1 {
		t.Fatalf("expected one listener, got %d", h.Len())
	}
}

func TestHubListenerMayUnsubscribeItself(t *testing.T) {
	var h Hub
	calls := 0
	var unsub func()
	unsub = h.Subscribe(func() {
		calls++
		unsub()
	})
	h.Notify()
	h.Notify()
	if calls != 1 || h.Len() != 0 {
		t.Fatalf("expected single call then removal, got %d calls %d listeners", calls, h.Len())
	}
}

func TestMemoIdentity(t *testing.T) {
	type snap struct{ n int }
	var m Memo[[2]int, snap]
	builds := 0
	build := func(n int) func() *snap {
		return func() *snap { builds++; return &snap{n: n} }
	}
	s1 := m.Get([2]int{1, 0}, build(1))
	s2 := m.Get([2]int{1, 0}, build(1))
	if s1 != s2 || builds != 1 {
		t.Fatalf("expected cached pointer, builds=%d", builds)
	}
	s3 := m.Get([2]int{2, 0}, build(2))
	if s3 == s1 || s3.n != 2 {
		t.Fatalf("expected new snapshot on key change")
	}
}

type counter struct {
	mu   sync.Mutex
	hub  Hub
	memo Memo[int, int]
	n    int
}

func (c *counter) Subscribe(l Listener) func() { return c.hub.Subscribe(l) }

func (c *counter) Snapshot() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.n
	return c.memo.Get(n, func() *int { return &n })
}

func (c *counter) set(n int) {
	c.mu.Lock()
	c.n = n
	c.mu.Unlock()
	c.hub.Notify()
}

func receive(t *testing.T, ch <-chan *int) *int {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return nil
}

func TestWatchEmitsOnIdentityChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &counter{}
	ch := Watch[int](ctx, c)
	if v := receive(t, ch); *v != 0 {
		t.Fatalf("expected initial 0, got %d", *v)
	}
	c.set(0) // same derived key: no emission
	c.set(5)
	if v := receive(t, ch); *v != 5 {
		t.Fatalf("expected 5, got %d", *v)
	}
	cancel()
	for range ch {
	}
	deadline := time.Now().Add(2 * time.Second)
	for c.hub.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.hub.Len() != 0 {
		t.Fatalf("expected watcher to unsubscribe")
	}
}
