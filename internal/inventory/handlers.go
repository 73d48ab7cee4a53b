// internal/inventory/handlers.go
package inventory

import (
	"net/http"

	"kitchenback/internal/logger"
	"kitchenback/internal/middleware"
	"kitchenback/internal/security"
)

// Handlers exposes the session lifecycle over HTTP. Role gating happens
// here: the core service trusts that the caller was pre-authorized.
type Handlers struct {
	Service *Service
}

type createRequest struct {
	RestaurantID string     `json:"restaurant_id"`
	Name         string     `json:"name"`
	Date         string     `json:"date"`
	Responsible  string     `json:"responsible"`
	Items        []ItemSpec `json:"items"`
}

type sessionRequest struct {
	RestaurantID string `json:"restaurant_id"`
	SessionID    string `json:"session_id"`
}

type entryRequest struct {
	RestaurantID string  `json:"restaurant_id"`
	SessionID    string  `json:"session_id"`
	ItemID       string  `json:"item_id"`
	Quantity     float64 `json:"quantity"`
}

// CreateHandler opens a new count. Managers only.
func (h *Handlers) CreateHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := middleware.GetIdentity(r.Context())
	if err := security.RequireManager(id); err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	var req createRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	sess, err := h.Service.CreateSession(r.Context(), req.RestaurantID, CreateSessionInput{
		Name:        req.Name,
		Date:        req.Date,
		Responsible: req.Responsible,
		Items:       req.Items,
	})
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, sess)
}

// ActiveHandler returns the restaurant's current count, or null.
func (h *Handlers) ActiveHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	restaurantID := r.URL.Query().Get("restaurantId")
	if restaurantID == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "restaurantId query parameter is required", "")
		return
	}

	sess, ok := h.Service.ActiveSession(restaurantID)
	if !ok {
		middleware.WriteAPISuccess(w, r, nil)
		return
	}
	middleware.WriteAPISuccess(w, r, sess)
}

// EntryHandler records the caller's quantity for one item.
func (h *Handlers) EntryHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req entryRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	id := middleware.GetIdentity(r.Context())
	entry, err := h.Service.SubmitEntry(r.Context(), req.RestaurantID, req.SessionID, req.ItemID, id.User, req.Quantity)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, entry)
}

// PendingHandler lists the items the caller still has to count.
func (h *Handlers) PendingHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	restaurantID := r.URL.Query().Get("restaurantId")
	sessionID := r.URL.Query().Get("sessionId")
	if restaurantID == "" || sessionID == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request",
			"restaurantId and sessionId query parameters are required", "")
		return
	}

	id := middleware.GetIdentity(r.Context())
	items, err := h.Service.PendingItemsFor(restaurantID, sessionID, id.User)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, items)
}

// CompleteHandler freezes the count into history. Managers only.
func (h *Handlers) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := middleware.GetIdentity(r.Context())
	if err := security.RequireManager(id); err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	var req sessionRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	sess, err := h.Service.CompleteSession(r.Context(), req.RestaurantID, req.SessionID)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, sess)
}

// DeleteHandler discards an active count. Managers only.
func (h *Handlers) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := middleware.GetIdentity(r.Context())
	if err := security.RequireManager(id); err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	var req sessionRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	if err := h.Service.DeleteSession(r.Context(), req.RestaurantID, req.SessionID); err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]bool{"deleted": true})
}

// HistoryHandler returns recent completed counts, newest first.
func (h *Handlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	restaurantID := r.URL.Query().Get("restaurantId")
	if restaurantID == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "restaurantId query parameter is required", "")
		return
	}

	sessions, err := h.Service.History(r.Context(), restaurantID, 20)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, sessions)
}
