// internal/report/handlers.go
package report

import (
	"fmt"
	"net/http"
	"sort"

	"kitchenback/internal/checklist"
	"kitchenback/internal/errs"
	"kitchenback/internal/inventory"
	"kitchenback/internal/logger"
	"kitchenback/internal/middleware"
)

// Handlers serves read-only aggregations over both cores. It holds the
// services, not the stores: reports see the same snapshots clients do.
type Handlers struct {
	Inventory  *inventory.Service
	Checklists *checklist.Service
}

type workshopOverview struct {
	Workshop       string         `json:"workshop"`
	Stats          *WorkshopStats `json:"stats"`
	CompletionRate int            `json:"completion_rate"`
}

type overviewResponse struct {
	Workshops   []workshopOverview `json:"workshops"`
	TotalIssues int                `json:"total_issues"`
}

// OverviewHandler returns the per-workshop status tallies with completion
// rates, plus the issue count across the kitchen.
func (h *Handlers) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	stats := ByWorkshop(h.Checklists.List())

	resp := overviewResponse{TotalIssues: TotalIssues(stats)}
	for _, workshop := range sortedWorkshops(stats) {
		ws := stats[workshop]
		resp.Workshops = append(resp.Workshops, workshopOverview{
			Workshop:       workshop,
			Stats:          ws,
			CompletionRate: CompletionRate(ws),
		})
	}

	middleware.WriteAPISuccess(w, r, resp)
}

// InventoryHandler returns the merged count report for one session, active
// or completed.
func (h *Handlers) InventoryHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	sess, err := h.findSession(r)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, InventoryRows(sess, h.Inventory.Comparator()))
}

// InventoryCSVHandler streams the same report as a CSV download.
func (h *Handlers) InventoryCSVHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	sess, err := h.findSession(r)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	rows := InventoryRows(sess, h.Inventory.Comparator())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"inventory-%s.csv\"", sess.ID))
	if err := WriteCSV(w, rows); err != nil {
		logger.LogError("Failed to stream inventory csv for session %s: %v", sess.ID, err)
	}
}

// findSession resolves the session named by query parameters, looking at
// the active slot first and falling back to history.
func (h *Handlers) findSession(r *http.Request) (inventory.Session, error) {
	restaurantID := r.URL.Query().Get("restaurantId")
	sessionID := r.URL.Query().Get("sessionId")
	if restaurantID == "" || sessionID == "" {
		return inventory.Session{}, fmt.Errorf("restaurantId and sessionId query parameters are required: %w", errs.ErrValidation)
	}

	if sess, ok := h.Inventory.ActiveSession(restaurantID); ok && sess.ID == sessionID {
		return sess, nil
	}

	history, err := h.Inventory.History(r.Context(), restaurantID, 0)
	if err != nil {
		return inventory.Session{}, err
	}
	for _, sess := range history {
		if sess.ID == sessionID {
			return sess, nil
		}
	}
	return inventory.Session{}, fmt.Errorf("session %s: %w", sessionID, errs.ErrNotFound)
}

func sortedWorkshops(stats map[string]*WorkshopStats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
