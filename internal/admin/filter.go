package admin

import "fmt"

// ArchiveFilter selects records by archive flag. The zero value matches all.
type ArchiveFilter string

const (
	ArchiveActive   ArchiveFilter = "active"
	ArchiveArchived ArchiveFilter = "archived"
	ArchiveAll      ArchiveFilter = "all"
)

// ParseArchiveFilter validates an archive filter name; empty means all.
func ParseArchiveFilter(name string) (ArchiveFilter, error) {
	switch f := ArchiveFilter(name); f {
	case "", ArchiveAll:
		return ArchiveAll, nil
	case ArchiveActive, ArchiveArchived:
		return f, nil
	}
	return "", fmt.Errorf("unknown archive filter %q", name)
}

// Filter narrows a collection for display. An empty Status matches any.
type Filter struct {
	Status   Status
	Archived ArchiveFilter
}

func (f Filter) match(e Envelope) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	switch f.Archived {
	case ArchiveActive:
		return !e.IsArchived
	case ArchiveArchived:
		return e.IsArchived
	}
	return true
}

// Apply returns the records matching f in their original order. records is
// never modified.
func Apply[P any](records []Record[P], f Filter) []Record[P] {
	out := make([]Record[P], 0, len(records))
	for _, r := range records {
		if f.match(r.Envelope) {
			out = append(out, r)
		}
	}
	return out
}
