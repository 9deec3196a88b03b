// Package admin implements the observable store for inbound business
// requests: interiors inquiries, craftsman (stolar) profiles and web-project
// inquiries, all sharing one status workflow and archive flag.
package admin

import (
	"fmt"
	"time"
)

// Status is the workflow state of a request. Transitions are not enforced;
// new -> queued -> in_progress -> done, with cancelled reachable from any
// state, is the conventional path.
type Status string

const (
	StatusNew        Status = "new"
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid Status in workflow order.
func Statuses() []Status {
	return []Status{StatusNew, StatusQueued, StatusInProgress, StatusDone, StatusCancelled}
}

// Valid reports whether s is one of the five workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusQueued, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus validates a status name.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", name)
	}
	return s, nil
}

// Collection names one of the three request collections.
type Collection string

const (
	CollectionInteriors Collection = "interiors"
	CollectionStolar    Collection = "stolar"
	CollectionWeb       Collection = "web"
)

// Collections lists every collection.
func Collections() []Collection {
	return []Collection{CollectionInteriors, CollectionStolar, CollectionWeb}
}

func (c Collection) Valid() bool {
	switch c {
	case CollectionInteriors, CollectionStolar, CollectionWeb:
		return true
	}
	return false
}

// ParseCollection validates a collection name.
func ParseCollection(name string) (Collection, error) {
	c := Collection(name)
	if !c.Valid() {
		return "", fmt.Errorf("unknown collection %q", name)
	}
	return c, nil
}

func (c Collection) idPrefix() string {
	switch c {
	case CollectionInteriors:
		return "INT"
	case CollectionStolar:
		return "STO"
	default:
		return "WEB"
	}
}

// Envelope is the store-owned part of every record.
type Envelope struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     Status    `json:"status"`
	IsArchived bool      `json:"isArchived"`
}

// Record pairs an Envelope with its pass-through payload.
type Record[P any] struct {
	Envelope
	Payload P `json:"payload"`
}

// InteriorsRequest is an interior-design inquiry.
type InteriorsRequest struct {
	ClientName  string `json:"clientName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	SpaceType   string `json:"spaceType,omitempty"`
	AreaM2      string `json:"areaM2,omitempty"`
	BudgetRange string `json:"budgetRange,omitempty"`
	Message     string `json:"message,omitempty"`
}

// PartnerProfile is a craftsman application.
type PartnerProfile struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Crafts    []string `json:"crafts,omitempty"`
	Region    string   `json:"region,omitempty"`
	Portfolio string   `json:"portfolio,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// WebProjectRequest is a web-project inquiry.
type WebProjectRequest struct {
	ClientName  string `json:"clientName"`
	Email       string `json:"email"`
	Company     string `json:"company,omitempty"`
	ProjectType string `json:"projectType,omitempty"`
	BudgetRange string `json:"budgetRange,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Snapshot is an immutable-by-convention view of all three collections,
// newest record first. The pointer is stable until a collection changes.
// The slices (and each Crafts) are shared with the store and must not be
// modified.
type Snapshot struct {
	Interiors []Record[InteriorsRequest]  `json:"interiors"`
	Stolar    []Record[PartnerProfile]    `json:"stolar"`
	Web       []Record[WebProjectRequest] `json:"web"`
}
