// internal/checklist/notify.go
package checklist

import (
	"fmt"
	"sync"
)

// Sink delivers one notification. Implementations live outside the core;
// delivery failures must not affect state.
type Sink interface {
	Deliver(n Notification) error
}

// Severity grades an alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Notification is the value object handed to delivery sinks. The core never
// plays sounds or shows toasts itself.
type Notification struct {
	Severity      Severity `json:"severity"`
	Text          string   `json:"text"`
	Workshop      string   `json:"workshop"`
	ChecklistName string   `json:"checklist_name"`
}

// Deduper remembers which (checklist, item) pairs already raised an alert
// for their current critical status. It is caller-scoped: create one per
// client session and drop it on logout, never share a process-wide instance
// across tenants.
//
// Re-arm on exit is the whole point: when an item leaves the critical
// states its key is removed, so a later regression alerts exactly once
// again instead of being silenced forever.
type Deduper struct {
	mu       sync.Mutex
	notified map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{notified: make(map[string]struct{})}
}

// Evaluate inspects an item's current status against the dedup set. It
// returns the notification to deliver and true exactly once per stay in a
// critical status. Pending and done remove the key.
func (d *Deduper) Evaluate(cl Checklist, item Item) (Notification, bool) {
	key := cl.ID + ":" + item.ID

	d.mu.Lock()
	defer d.mu.Unlock()

	if !item.Status.Critical() {
		delete(d.notified, key)
		return Notification{}, false
	}

	if _, seen := d.notified[key]; seen {
		return Notification{}, false
	}
	d.notified[key] = struct{}{}

	severity := SeverityWarning
	if item.Status == StatusInStop {
		severity = SeverityCritical
	}

	return Notification{
		Severity:      severity,
		Text:          fmt.Sprintf("%s: %s", item.Status.Label(), item.Text),
		Workshop:      cl.Workshop,
		ChecklistName: cl.Name,
	}, true
}

// Sweep runs Evaluate over a freshly reloaded list and returns every alert
// due, clearing keys for items that left their critical status meanwhile.
func (d *Deduper) Sweep(checklists []Checklist) []Notification {
	var due []Notification
	for _, cl := range checklists {
		for _, item := range cl.Items {
			if n, ok := d.Evaluate(cl, item); ok {
				due = append(due, n)
			}
		}
	}
	return due
}

// Reset forgets everything, as when the underlying list is reloaded from
// the source of truth.
func (d *Deduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notified = make(map[string]struct{})
}
