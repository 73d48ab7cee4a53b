// test_helpers.go - shared harness for end-to-end API tests
package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kitchenback/internal/checklist"
	"kitchenback/internal/collation"
	"kitchenback/internal/data"
	"kitchenback/internal/inventory"
	"kitchenback/internal/middleware"
	"kitchenback/internal/notify"
	"kitchenback/internal/report"
	"kitchenback/internal/security"
)

// TestSuite wires the real handler stack over the in-memory store, so tests
// cover routing, middleware and the cores without touching sqlite or disk.
type TestSuite struct {
	Server     *httptest.Server
	Client     *http.Client
	Store      *data.MemoryStore
	Inventory  *inventory.Service
	Checklists *checklist.Service
	Alerts     *recordingSink
}

// recordingSink captures delivered notifications for assertions.
type recordingSink struct {
	delivered []checklist.Notification
}

func (s *recordingSink) Deliver(n checklist.Notification) error {
	s.delivered = append(s.delivered, n)
	return nil
}

// NewTestSuite builds a suite with a running test server.
func NewTestSuite(t *testing.T) *TestSuite {
	store := data.NewMemoryStore()

	inventoryService := inventory.NewService(store, collation.New("ru"))
	checklistService := checklist.NewService(store)
	alerts := &recordingSink{}

	inventoryHandlers := &inventory.Handlers{Service: inventoryService}
	checklistHandlers := &checklist.Handlers{
		Service: checklistService,
		Deduper: checklist.NewDeduper(),
		Sinks:   []checklist.Sink{notify.LogSink{}, alerts},
	}
	reportHandlers := &report.Handlers{
		Inventory:  inventoryService,
		Checklists: checklistService,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", security.TokenHandler)
	mux.HandleFunc("/api/inventory/active", middleware.APIMiddleware(inventoryHandlers.ActiveHandler))
	mux.HandleFunc("/api/inventory/create", middleware.APIMiddleware(inventoryHandlers.CreateHandler))
	mux.HandleFunc("/api/inventory/entry", middleware.APIMiddleware(inventoryHandlers.EntryHandler))
	mux.HandleFunc("/api/inventory/pending", middleware.APIMiddleware(inventoryHandlers.PendingHandler))
	mux.HandleFunc("/api/inventory/complete", middleware.APIMiddleware(inventoryHandlers.CompleteHandler))
	mux.HandleFunc("/api/inventory/delete", middleware.APIMiddleware(inventoryHandlers.DeleteHandler))
	mux.HandleFunc("/api/inventory/history", middleware.APIMiddleware(inventoryHandlers.HistoryHandler))
	mux.HandleFunc("/api/checklists", middleware.APIMiddleware(checklistHandlers.ListHandler))
	mux.HandleFunc("/api/checklists/create", middleware.APIMiddleware(checklistHandlers.CreateHandler))
	mux.HandleFunc("/api/checklists/status", middleware.APIMiddleware(checklistHandlers.StatusHandler))
	mux.HandleFunc("/api/checklists/delete", middleware.APIMiddleware(checklistHandlers.DeleteHandler))
	mux.HandleFunc("/api/reports/overview", middleware.APIMiddleware(reportHandlers.OverviewHandler))
	mux.HandleFunc("/api/reports/inventory", middleware.APIMiddleware(reportHandlers.InventoryHandler))
	mux.HandleFunc("/api/reports/inventory.csv", middleware.APIMiddleware(reportHandlers.InventoryCSVHandler))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &TestSuite{
		Server:     server,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Store:      store,
		Inventory:  inventoryService,
		Checklists: checklistService,
		Alerts:     alerts,
	}
}

// APIResult is the decoded response envelope plus status code.
type APIResult struct {
	StatusCode int
	Success    bool
	Data       json.RawMessage
	Code       string
	Message    string
}

// Do sends a request with identity headers and decodes the envelope.
func (ts *TestSuite) Do(t *testing.T, method, path, user, role string, body interface{}) APIResult {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-Name", user)
		req.Header.Set("X-User-Role", role)
	}

	resp, err := ts.Client.Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("response from %s is not the standard envelope: %v\n%s", path, err, raw)
	}

	return APIResult{
		StatusCode: resp.StatusCode,
		Success:    envelope.Success,
		Data:       envelope.Data,
		Code:       envelope.Code,
		Message:    envelope.Message,
	}
}

// PostJSON is Do with method POST.
func (ts *TestSuite) PostJSON(t *testing.T, path, user, role string, body interface{}) APIResult {
	t.Helper()
	return ts.Do(t, http.MethodPost, path, user, role, body)
}

// Get is Do with method GET and no body.
func (ts *TestSuite) Get(t *testing.T, path, user, role string) APIResult {
	t.Helper()
	return ts.Do(t, http.MethodGet, path, user, role, nil)
}

// DecodeData unmarshals the envelope data into v.
func (r APIResult) DecodeData(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("failed to decode response data: %v\n%s", err, r.Data)
	}
}

// MustSucceed fails the test when the call did not return a success envelope.
func (r APIResult) MustSucceed(t *testing.T, what string) {
	t.Helper()
	if !r.Success {
		t.Fatalf("%s failed: status=%d code=%s message=%s", what, r.StatusCode, r.Code, r.Message)
	}
}

// CreateSession opens a count through the API and returns its decoded form.
func (ts *TestSuite) CreateSession(t *testing.T, restaurantID string) inventory.Session {
	t.Helper()
	result := ts.PostJSON(t, "/api/inventory/create", "Olga", security.RoleManager, map[string]interface{}{
		"restaurant_id": restaurantID,
		"name":          "Evening count",
		"date":          "2026-08-30",
		"responsible":   "Olga",
		"items": []map[string]string{
			{"name": "Tomatoes", "kind": "product"},
			{"name": "Basil", "kind": "product"},
		},
	})
	result.MustSucceed(t, "create session")

	var sess inventory.Session
	result.DecodeData(t, &sess)
	return sess
}

func itemID(t *testing.T, sess inventory.Session, name string) string {
	t.Helper()
	for _, it := range sess.Items {
		if it.Name == name {
			return it.ID
		}
	}
	t.Fatalf("item %q not in session %s", name, sess.ID)
	return ""
}
