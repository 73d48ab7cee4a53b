// internal/report/report.go
package report

import (
	"math"
	"sort"

	"kitchenback/internal/checklist"
	"kitchenback/internal/collation"
	"kitchenback/internal/inventory"
)

// BucketItem is one checklist item with enough context for drill-down
// ("show me the stopped items in the Cold Workshop").
type BucketItem struct {
	ItemID        string           `json:"item_id"`
	Text          string           `json:"text"`
	Status        checklist.Status `json:"status"`
	ChecklistName string           `json:"checklist_name"`
}

// Buckets holds the drill-down lists per status.
type Buckets struct {
	Done          []BucketItem `json:"done"`
	Pending       []BucketItem `json:"pending"`
	InRestriction []BucketItem `json:"in_restriction"`
	InStop        []BucketItem `json:"in_stop"`
}

// WorkshopStats is the per-workshop status tally.
type WorkshopStats struct {
	Done          int     `json:"done"`
	Pending       int     `json:"pending"`
	InRestriction int     `json:"in_restriction"`
	InStop        int     `json:"in_stop"`
	Items         Buckets `json:"items"`
}

// Total counts every item in the workshop.
func (ws *WorkshopStats) Total() int {
	return ws.Done + ws.Pending + ws.InRestriction + ws.InStop
}

// ByWorkshop buckets every checklist item by workshop and status in a
// single pass.
func ByWorkshop(checklists []checklist.Checklist) map[string]*WorkshopStats {
	stats := make(map[string]*WorkshopStats)
	for _, cl := range checklists {
		ws, ok := stats[cl.Workshop]
		if !ok {
			ws = &WorkshopStats{}
			stats[cl.Workshop] = ws
		}
		for _, item := range cl.Items {
			entry := BucketItem{
				ItemID:        item.ID,
				Text:          item.Text,
				Status:        item.Status,
				ChecklistName: cl.Name,
			}
			switch item.Status {
			case checklist.StatusDone:
				ws.Done++
				ws.Items.Done = append(ws.Items.Done, entry)
			case checklist.StatusInRestriction:
				ws.InRestriction++
				ws.Items.InRestriction = append(ws.Items.InRestriction, entry)
			case checklist.StatusInStop:
				ws.InStop++
				ws.Items.InStop = append(ws.Items.InStop, entry)
			default:
				ws.Pending++
				ws.Items.Pending = append(ws.Items.Pending, entry)
			}
		}
	}
	return stats
}

// CompletionRate is the done share in whole percent, 0 for an empty
// workshop so there is never a division by zero.
func CompletionRate(ws *WorkshopStats) int {
	total := ws.Total()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(ws.Done) / float64(total) * 100))
}

// TotalIssues counts items sitting in a critical status across workshops.
func TotalIssues(stats map[string]*WorkshopStats) int {
	var n int
	for _, ws := range stats {
		n += ws.InRestriction + ws.InStop
	}
	return n
}

// InventoryRow is one line of the count report: merged quantity plus who
// contributed.
type InventoryRow struct {
	Name          string         `json:"name"`
	Kind          inventory.Kind `json:"kind"`
	TotalQuantity float64        `json:"total_quantity"`
	EntryCount    int            `json:"entry_count"`
	Contributors  []string       `json:"contributors"`
}

// InventoryRows builds the per-item report for a session, sorted with the
// same locale comparator used at creation, independent of submission order.
func InventoryRows(s inventory.Session, cmp *collation.Comparator) []InventoryRow {
	rows := make([]InventoryRow, 0, len(s.Items))
	for _, it := range s.Items {
		rows = append(rows, InventoryRow{
			Name:          it.Name,
			Kind:          it.Kind,
			TotalQuantity: it.TotalQuantity(),
			EntryCount:    len(it.Entries),
			Contributors:  it.Contributors(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return cmp.Less(rows[i].Name, rows[j].Name)
	})
	return rows
}
