// internal/checklist/types.go
package checklist

import (
	"fmt"
	"time"

	"kitchenback/internal/errs"
)

// Status is the explicit state of a checklist item. Every state is reachable
// from every other one; a stopped item can go straight to done.
type Status string

const (
	StatusPending       Status = "pending"
	StatusDone          Status = "done"
	StatusInRestriction Status = "in_restriction"
	StatusInStop        Status = "in_stop"
)

// ParseStatus validates a status string from the outside world.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusDone, StatusInRestriction, StatusInStop:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown checklist status %q: %w", s, errs.ErrValidation)
	}
}

// Critical reports whether the status should raise an alert.
func (s Status) Critical() bool {
	return s == StatusInRestriction || s == StatusInStop
}

// Label is the human-readable status text used in alerts.
func (s Status) Label() string {
	switch s {
	case StatusDone:
		return "Done"
	case StatusInRestriction:
		return "In restriction"
	case StatusInStop:
		return "In stop"
	default:
		return "Pending"
	}
}

// Item is a single line on a checklist. Timestamp records the last status
// change; a fresh item has none.
type Item struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Status    Status     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Checklist groups items under a workshop. CompletedDate is the date of the
// most recent item-status change, not the date everything reached done.
type Checklist struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Workshop      string `json:"workshop"`
	Responsible   string `json:"responsible,omitempty"`
	Items         []Item `json:"items"`
	CompletedDate string `json:"completed_date,omitempty"`
}

// cloneChecklist deep-copies so callers never alias the live item slice.
func cloneChecklist(cl Checklist) Checklist {
	out := cl
	out.Items = make([]Item, len(cl.Items))
	for i, it := range cl.Items {
		out.Items[i] = it
		if it.Timestamp != nil {
			t := *it.Timestamp
			out.Items[i].Timestamp = &t
		}
	}
	return out
}
