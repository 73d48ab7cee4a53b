// internal/checklist/handlers.go
package checklist

import (
	"net/http"

	"kitchenback/internal/logger"
	"kitchenback/internal/middleware"
	"kitchenback/internal/security"
)

// Handlers wires the checklist core to HTTP and owns alert delivery: the
// service returns state, the deduper decides what is newsworthy, the sinks
// carry it out.
type Handlers struct {
	Service   *Service
	Deduper   *Deduper
	Sinks     []Sink
	Templates []Template
}

type createChecklistRequest struct {
	Name        string   `json:"name"`
	Workshop    string   `json:"workshop"`
	Responsible string   `json:"responsible"`
	Items       []string `json:"items"`
}

type fromTemplateRequest struct {
	Template    string `json:"template"`
	Responsible string `json:"responsible"`
}

type statusRequest struct {
	ChecklistID string `json:"checklist_id"`
	ItemID      string `json:"item_id"`
	Status      string `json:"status"`
}

type statusResponse struct {
	Checklist    Checklist     `json:"checklist"`
	Notification *Notification `json:"notification,omitempty"`
}

// deliver fans a notification out to every sink. Delivery failures are
// logged and swallowed; they must never fail the request that raised them.
func (h *Handlers) deliver(n Notification) {
	for _, sink := range h.Sinks {
		if err := sink.Deliver(n); err != nil {
			logger.LogError("Notification delivery failed: %v", err)
		}
	}
}

// ListHandler returns every checklist and sweeps the dedup set on the way
// out, so alerts raised by other clients still reach this one's sinks.
func (h *Handlers) ListHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	lists := h.Service.List()
	for _, n := range h.Deduper.Sweep(lists) {
		h.deliver(n)
	}

	middleware.WriteAPISuccess(w, r, lists)
}

// CreateHandler builds a checklist from free-form item lines. Managers only.
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

	var req createChecklistRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	cl, err := h.Service.Create(r.Context(), req.Name, req.Workshop, req.Responsible, req.Items)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, cl)
}

// FromTemplateHandler instantiates a predefined routine. Managers only.
func (h *Handlers) FromTemplateHandler(w http.ResponseWriter, r *http.Request) {
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

	var req fromTemplateRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	tmpl, err := FindTemplate(h.Templates, req.Template)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	responsible := req.Responsible
	if responsible == "" {
		responsible = tmpl.Responsible
	}

	cl, err := h.Service.Create(r.Context(), tmpl.Name, tmpl.Workshop, responsible, tmpl.Items)
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, cl)
}

// TemplatesHandler lists the available templates.
func (h *Handlers) TemplatesHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)
	middleware.WriteAPISuccess(w, r, h.Templates)
}

// StatusHandler moves one item through the status machine and reports the
// alert, if any, that the move raised.
func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	cl, item, err := h.Service.SetStatus(r.Context(), req.ChecklistID, req.ItemID, Status(req.Status))
	if err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	resp := statusResponse{Checklist: cl}
	if n, due := h.Deduper.Evaluate(cl, item); due {
		h.deliver(n)
		resp.Notification = &n
	}

	middleware.WriteAPISuccess(w, r, resp)
}

// DeleteHandler removes a checklist. Managers only.
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

	var req struct {
		ChecklistID string `json:"checklist_id"`
	}
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid JSON body", err.Error())
		return
	}

	if err := h.Service.Delete(r.Context(), req.ChecklistID); err != nil {
		middleware.WriteCoreError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]bool{"deleted": true})
}
