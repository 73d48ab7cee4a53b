package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"kitchenback/internal/checklist"
	"kitchenback/internal/collation"
	"kitchenback/internal/inventory"
)

func testChecklists() []checklist.Checklist {
	return []checklist.Checklist{
		{
			ID: "cl-1", Name: "Opening checks", Workshop: "Hot Workshop",
			Items: []checklist.Item{
				{ID: "chk-1", Text: "Fridges", Status: checklist.StatusDone},
				{ID: "chk-2", Text: "Surfaces", Status: checklist.StatusInStop},
				{ID: "chk-3", Text: "Labels", Status: checklist.StatusPending},
			},
		},
		{
			ID: "cl-2", Name: "Sanitation round", Workshop: "Cold Workshop",
			Items: []checklist.Item{
				{ID: "chk-4", Text: "Boards", Status: checklist.StatusInRestriction},
				{ID: "chk-5", Text: "Bins", Status: checklist.StatusDone},
			},
		},
	}
}

func TestByWorkshop(t *testing.T) {
	stats := ByWorkshop(testChecklists())

	hot, ok := stats["Hot Workshop"]
	if !ok {
		t.Fatal("Hot Workshop missing from stats")
	}
	if hot.Done != 1 || hot.InStop != 1 || hot.Pending != 1 || hot.InRestriction != 0 {
		t.Errorf("unexpected hot workshop tally: %+v", hot)
	}
	if hot.Total() != 3 {
		t.Errorf("expected total 3, got %d", hot.Total())
	}
	if len(hot.Items.InStop) != 1 || hot.Items.InStop[0].Text != "Surfaces" {
		t.Errorf("drill-down bucket wrong: %+v", hot.Items.InStop)
	}
	if hot.Items.InStop[0].ChecklistName != "Opening checks" {
		t.Errorf("bucket item lost checklist context: %+v", hot.Items.InStop[0])
	}

	cold := stats["Cold Workshop"]
	if cold.Done != 1 || cold.InRestriction != 1 {
		t.Errorf("unexpected cold workshop tally: %+v", cold)
	}
}

func TestCompletionRate(t *testing.T) {
	stats := ByWorkshop(testChecklists())

	// 1 done out of 3 rounds to 33.
	if rate := CompletionRate(stats["Hot Workshop"]); rate != 33 {
		t.Errorf("expected 33, got %d", rate)
	}
	// 1 of 2 is 50.
	if rate := CompletionRate(stats["Cold Workshop"]); rate != 50 {
		t.Errorf("expected 50, got %d", rate)
	}
	// Empty workshop never divides by zero.
	if rate := CompletionRate(&WorkshopStats{}); rate != 0 {
		t.Errorf("expected 0 for empty workshop, got %d", rate)
	}
	// 2 of 3 rounds up to 67.
	if rate := CompletionRate(&WorkshopStats{Done: 2, Pending: 1}); rate != 67 {
		t.Errorf("expected 67, got %d", rate)
	}
}

func TestTotalIssues(t *testing.T) {
	stats := ByWorkshop(testChecklists())
	if n := TotalIssues(stats); n != 2 {
		t.Errorf("expected 2 issues across workshops, got %d", n)
	}
}

func testSession() inventory.Session {
	now := time.Now()
	return inventory.Session{
		ID: "inv-1", RestaurantID: "r1", Status: inventory.SessionCompleted, CompletedAt: &now,
		Items: []inventory.Item{
			{
				ID: "itm-1", Name: "Tomatoes", Kind: inventory.KindProduct,
				Entries: []inventory.Entry{
					{User: "Alice", Quantity: 5},
					{User: "Bob", Quantity: 3},
					{User: "Bob", Quantity: 1},
				},
			},
			{ID: "itm-2", Name: "Basil", Kind: inventory.KindProduct},
		},
	}
}

func TestInventoryRows(t *testing.T) {
	rows := InventoryRows(testSession(), collation.New("ru"))

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "Basil" {
		t.Errorf("rows not locale-sorted: first is %q", rows[0].Name)
	}

	var tomatoes InventoryRow
	for _, row := range rows {
		if row.Name == "Tomatoes" {
			tomatoes = row
		}
	}
	if tomatoes.TotalQuantity != 9 || tomatoes.EntryCount != 3 {
		t.Errorf("unexpected merge: %+v", tomatoes)
	}
	if len(tomatoes.Contributors) != 2 || tomatoes.Contributors[0] != "Alice" {
		t.Errorf("unexpected contributors: %v", tomatoes.Contributors)
	}

	// Untouched item still shows with zero quantity.
	if rows[0].TotalQuantity != 0 || rows[0].EntryCount != 0 {
		t.Errorf("empty item should report zeros: %+v", rows[0])
	}
}

func TestWriteCSV(t *testing.T) {
	rows := InventoryRows(testSession(), collation.New("ru"))

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,kind,total_quantity,entry_count,contributors" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[2], "Tomatoes,product,9,3,Alice; Bob") {
		t.Errorf("unexpected tomato row: %q", lines[2])
	}
}
