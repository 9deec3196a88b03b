package admin

import (
	"context"
	"slices"
	"strings"

	"storefront/internal/kv"
	"storefront/internal/persist"
)

// records is the copy-on-write slice behind one collection. version grows on
// every observable change.
type records[P any] struct {
	items   []Record[P]
	version uint64
}

// mutable is the payload-independent operation set shared by the three
// collections.
type mutable interface {
	setStatus(id string, st Status) bool
	toggleArchive(id string) bool
	remove(id string) bool
	save(ctx context.Context, store kv.Store, key string) error
	load(ctx context.Context, store kv.Store, key string) error
}

func (c *records[P]) index(id string) int {
	return slices.IndexFunc(c.items, func(r Record[P]) bool { return r.ID == id })
}

func (c *records[P]) prepend(r Record[P]) {
	next := make([]Record[P], 0, len(c.items)+1)
	next = append(next, r)
	c.items = append(next, c.items...)
	c.version++
}

func (c *records[P]) update(id string, fn func(*Envelope) bool) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	next := slices.Clone(c.items)
	if !fn(&next[i].Envelope) {
		return false
	}
	c.items = next
	c.version++
	return true
}

func (c *records[P]) setStatus(id string, st Status) bool {
	return c.update(id, func(e *Envelope) bool {
		if e.Status == st {
			return false
		}
		e.Status = st
		return true
	})
}

func (c *records[P]) toggleArchive(id string) bool {
	return c.update(id, func(e *Envelope) bool {
		e.IsArchived = !e.IsArchived
		return true
	})
}

func (c *records[P]) remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	next := make([]Record[P], 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	c.items = append(next, c.items[i+1:]...)
	c.version++
	return true
}

func (c *records[P]) save(ctx context.Context, store kv.Store, key string) error {
	items := c.items
	if items == nil {
		items = []Record[P]{}
	}
	return persist.SaveJSON(ctx, store, key, items)
}

// load replaces the collection with the persisted records, dropping entries
// with an empty or duplicate id or an unknown status. Unreadable content
// leaves the collection empty and returns the error.
func (c *records[P]) load(ctx context.Context, store kv.Store, key string) error {
	var stored []Record[P]
	_, err := persist.LoadJSON(ctx, store, key, &stored)
	if err != nil {
		stored = nil
	}
	var items []Record[P]
	seen := make(map[string]struct{}, len(stored))
	for _, r := range stored {
		if strings.TrimSpace(r.ID) == "" || !r.Status.Valid() {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		items = append(items, r)
	}
	c.items = items
	c.version++
	return err
}
