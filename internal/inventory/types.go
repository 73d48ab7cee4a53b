// internal/inventory/types.go
package inventory

import (
	"fmt"
	"time"

	"kitchenback/internal/errs"
)

// Kind says whether a counted position is a raw product or a semi-finished
// preparation. The distinction only matters for display, not for merging.
type Kind string

const (
	KindProduct Kind = "product"
	KindSemi    Kind = "semi"
)

// ParseKind validates a kind string. An empty kind defaults to product,
// matching what the count-creation form sends for plain positions.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindProduct, KindSemi:
		return Kind(s), nil
	case "":
		return KindProduct, nil
	default:
		return "", fmt.Errorf("unknown item kind %q: %w", s, errs.ErrValidation)
	}
}

// SessionStatus is the lifecycle state of an inventory count.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Entry is one staff member's quantity submission for one item. Entries are
// append-only: once recorded they are never edited or removed, so re-fetching
// and re-merging them is idempotent.
type Entry struct {
	User        string    `json:"user"`
	Quantity    float64   `json:"quantity"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Item is one counted position inside a session. Entries keep submission
// order as observed by the store.
type Item struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Kind    Kind    `json:"kind"`
	Entries []Entry `json:"entries"`
}

// TotalQuantity sums all submitted quantities. Zero when nobody has
// submitted yet.
func (it Item) TotalQuantity() float64 {
	var total float64
	for _, e := range it.Entries {
		total += e.Quantity
	}
	return total
}

// Contributors returns the distinct submitters in order of first appearance.
func (it Item) Contributors() []string {
	seen := make(map[string]struct{}, len(it.Entries))
	var users []string
	for _, e := range it.Entries {
		if _, ok := seen[e.User]; ok {
			continue
		}
		seen[e.User] = struct{}{}
		users = append(users, e.User)
	}
	return users
}

// HasEntryBy reports whether the user has already submitted for this item.
func (it Item) HasEntryBy(user string) bool {
	for _, e := range it.Entries {
		if e.User == user {
			return true
		}
	}
	return false
}

// Session is one inventory-counting event over a fixed item list. Immutable
// once completed.
type Session struct {
	ID           string        `json:"id"`
	RestaurantID string        `json:"restaurant_id"`
	Name         string        `json:"name"`
	Date         string        `json:"date"`
	Responsible  string        `json:"responsible"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Items        []Item        `json:"items"`
}

// ItemSpec is the manager's input for one position when opening a count.
type ItemSpec struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// CreateSessionInput carries everything needed to open a count.
type CreateSessionInput struct {
	Name        string     `json:"name"`
	Date        string     `json:"date"`
	Responsible string     `json:"responsible"`
	Items       []ItemSpec `json:"items"`
}

// clone deep-copies a session so callers never share entry slices with the
// live state the service keeps mutating.
func clone(s Session) Session {
	out := s
	out.Items = make([]Item, len(s.Items))
	for i, it := range s.Items {
		out.Items[i] = it
		out.Items[i].Entries = append([]Entry(nil), it.Entries...)
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
