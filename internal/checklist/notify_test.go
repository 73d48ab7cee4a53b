package checklist

import (
	"strings"
	"testing"
)

func testChecklistWithStatus(status Status) (Checklist, Item) {
	item := Item{ID: "chk-1", Text: "Fridge temperatures logged", Status: status}
	cl := Checklist{ID: "cl-1", Name: "Opening checks", Workshop: "Hot Workshop", Items: []Item{item}}
	return cl, item
}

func TestEvaluateAlertsOncePerStay(t *testing.T) {
	d := NewDeduper()
	cl, item := testChecklistWithStatus(StatusInStop)

	n, due := d.Evaluate(cl, item)
	if !due {
		t.Fatal("first critical evaluation must alert")
	}
	if n.Severity != SeverityCritical {
		t.Errorf("in_stop should be critical, got %s", n.Severity)
	}
	if !strings.Contains(n.Text, "In stop") || !strings.Contains(n.Text, item.Text) {
		t.Errorf("unexpected alert text: %q", n.Text)
	}
	if n.Workshop != "Hot Workshop" || n.ChecklistName != "Opening checks" {
		t.Errorf("alert lost its context: %+v", n)
	}

	if _, due := d.Evaluate(cl, item); due {
		t.Error("second evaluation of the same status must not alert again")
	}
}

func TestEvaluateSeverity(t *testing.T) {
	d := NewDeduper()
	cl, item := testChecklistWithStatus(StatusInRestriction)

	n, due := d.Evaluate(cl, item)
	if !due {
		t.Fatal("in_restriction must alert")
	}
	if n.Severity != SeverityWarning {
		t.Errorf("in_restriction should be warning, got %s", n.Severity)
	}
}

func TestEvaluateNonCriticalSilent(t *testing.T) {
	d := NewDeduper()

	for _, status := range []Status{StatusPending, StatusDone} {
		cl, item := testChecklistWithStatus(status)
		if _, due := d.Evaluate(cl, item); due {
			t.Errorf("%s must never alert", status)
		}
	}
}

func TestEvaluateReArmsOnExit(t *testing.T) {
	d := NewDeduper()
	cl, item := testChecklistWithStatus(StatusInStop)

	alerts := 0
	// pending -> in_stop -> done -> in_stop: the two entries into a critical
	// status each alert, the recovery in between re-arms the key.
	for _, status := range []Status{StatusInStop, StatusDone, StatusInStop} {
		item.Status = status
		if _, due := d.Evaluate(cl, item); due {
			alerts++
		}
	}
	if alerts != 2 {
		t.Fatalf("expected 2 alerts across the regression sequence, got %d", alerts)
	}

	// Flapping between the two critical statuses without leaving them stays
	// silenced.
	item.Status = StatusInRestriction
	if _, due := d.Evaluate(cl, item); due {
		t.Error("critical-to-critical move must not re-alert")
	}
}

func TestSweep(t *testing.T) {
	d := NewDeduper()
	lists := []Checklist{
		{
			ID: "cl-1", Name: "Opening checks", Workshop: "Hot Workshop",
			Items: []Item{
				{ID: "chk-1", Text: "Fridges", Status: StatusInStop},
				{ID: "chk-2", Text: "Surfaces", Status: StatusDone},
			},
		},
		{
			ID: "cl-2", Name: "Sanitation round", Workshop: "Cold Workshop",
			Items: []Item{
				{ID: "chk-3", Text: "Boards", Status: StatusInRestriction},
			},
		},
	}

	due := d.Sweep(lists)
	if len(due) != 2 {
		t.Fatalf("expected 2 alerts from first sweep, got %d", len(due))
	}
	if again := d.Sweep(lists); len(again) != 0 {
		t.Errorf("repeat sweep must be silent, got %d alerts", len(again))
	}

	// Items with the same id on different checklists are tracked separately.
	lists[1].Items[0].ID = "chk-1"
	lists[1].Items[0].Status = StatusInStop
	if due := d.Sweep(lists); len(due) != 1 {
		t.Errorf("same item id on another checklist must alert, got %d", len(due))
	}
}

func TestReset(t *testing.T) {
	d := NewDeduper()
	cl, item := testChecklistWithStatus(StatusInStop)

	d.Evaluate(cl, item)
	d.Reset()

	if _, due := d.Evaluate(cl, item); !due {
		t.Error("reset must forget delivered alerts")
	}
}
