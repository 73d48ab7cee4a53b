package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kitchenback/internal/collation"
	"kitchenback/internal/errs"
)

// fakeStore records sessions in memory so service tests need no database.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	failPut  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]Session)}
}

func (f *fakeStore) PutSession(ctx context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errors.New("store unavailable")
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) AppendEntry(ctx context.Context, restaurantID, sessionID, itemID string, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return errors.New("unknown session")
	}
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			s.Items[i].Entries = append(s.Items[i].Entries, e)
			f.sessions[sessionID] = s
			return nil
		}
	}
	return errors.New("unknown item")
}

func (f *fakeStore) DeleteSession(ctx context.Context, restaurantID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeStore) ActiveSessions(ctx context.Context) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Session
	for _, s := range f.sessions {
		if s.Status == SessionActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) History(ctx context.Context, restaurantID string, limit int) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Session
	for _, s := range f.sessions {
		if s.RestaurantID == restaurantID && s.Status == SessionCompleted {
			out = append(out, s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PruneHistory(ctx context.Context, olderThan time.Time, keep int) (int, error) {
	return 0, nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, collation.New("ru")), store
}

func createTestSession(t *testing.T, svc *Service, restaurantID string) Session {
	t.Helper()
	sess, err := svc.CreateSession(context.Background(), restaurantID, CreateSessionInput{
		Name:        "Evening count",
		Date:        "2026-08-30",
		Responsible: "Olga",
		Items: []ItemSpec{
			{Name: "Tomatoes", Kind: "product"},
			{Name: "Basil", Kind: "product"},
			{Name: "Pesto base", Kind: "semi"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return sess
}

func itemByName(t *testing.T, sess Session, name string) Item {
	t.Helper()
	for _, it := range sess.Items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("item %q not found in session %s", name, sess.ID)
	return Item{}
}

func TestCreateSessionSortsItems(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")

	if len(sess.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(sess.Items))
	}
	// Locale sort, ascending: Basil, Pesto base, Tomatoes.
	if sess.Items[0].Name != "Basil" || sess.Items[2].Name != "Tomatoes" {
		t.Errorf("items not sorted: %q, %q, %q",
			sess.Items[0].Name, sess.Items[1].Name, sess.Items[2].Name)
	}
	if sess.Status != SessionActive {
		t.Errorf("expected active status, got %s", sess.Status)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateSession(context.Background(), "r1", CreateSessionInput{
		Name: "", Responsible: "Olga",
		Items: []ItemSpec{{Name: "Salt"}},
	})
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank name: expected validation error, got %v", err)
	}

	_, err = svc.CreateSession(context.Background(), "r1", CreateSessionInput{
		Name: "Count", Responsible: "Olga",
		Items: []ItemSpec{{Name: "  "}, {Name: ""}},
	})
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("no usable items: expected validation error, got %v", err)
	}

	_, err = svc.CreateSession(context.Background(), "r1", CreateSessionInput{
		Name: "Count", Responsible: "Olga",
		Items: []ItemSpec{{Name: "Salt", Kind: "mystery"}},
	})
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("bad kind: expected validation error, got %v", err)
	}
}

func TestCreateSessionConflict(t *testing.T) {
	svc, _ := newTestService()
	createTestSession(t, svc, "r1")

	_, err := svc.CreateSession(context.Background(), "r1", CreateSessionInput{
		Name: "Second", Responsible: "Ivan",
		Items: []ItemSpec{{Name: "Salt"}},
	})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	// A different restaurant is unaffected.
	if _, err := svc.CreateSession(context.Background(), "r2", CreateSessionInput{
		Name: "Other", Responsible: "Ivan",
		Items: []ItemSpec{{Name: "Salt"}},
	}); err != nil {
		t.Fatalf("second restaurant should create fine: %v", err)
	}
}

func TestSubmitEntryMerge(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")
	tomatoes := itemByName(t, sess, "Tomatoes")

	ctx := context.Background()
	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "Alice", 5); err != nil {
		t.Fatalf("Alice submit failed: %v", err)
	}
	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "Bob", 3); err != nil {
		t.Fatalf("Bob submit failed: %v", err)
	}
	// Same user again: append-only, both kept.
	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "Bob", 1); err != nil {
		t.Fatalf("Bob second submit failed: %v", err)
	}

	got, ok := svc.ActiveSession("r1")
	if !ok {
		t.Fatal("active session missing")
	}
	merged := itemByName(t, got, "Tomatoes")

	if len(merged.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(merged.Entries))
	}
	if total := merged.TotalQuantity(); total != 9 {
		t.Errorf("expected total 9, got %v", total)
	}
	contributors := merged.Contributors()
	if len(contributors) != 2 || contributors[0] != "Alice" || contributors[1] != "Bob" {
		t.Errorf("unexpected contributors: %v", contributors)
	}
}

func TestSubmitEntryValidation(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")
	tomatoes := itemByName(t, sess, "Tomatoes")
	ctx := context.Background()

	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "", 5); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank user: expected validation error, got %v", err)
	}
	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "Alice", -1); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("negative quantity: expected validation error, got %v", err)
	}
	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, "itm-missing", "Alice", 1); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown item: expected not found, got %v", err)
	}
	// Zero is a legitimate count.
	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "Alice", 0); err != nil {
		t.Errorf("zero quantity should be accepted: %v", err)
	}
}

func TestSubmitToCompletedSession(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")
	tomatoes := itemByName(t, sess, "Tomatoes")
	ctx := context.Background()

	if _, err := svc.CompleteSession(ctx, "r1", sess.ID); err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}

	_, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "Alice", 5)
	if !errors.Is(err, errs.ErrInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}

	// A session that never existed is a lookup failure, not a state one.
	_, err = svc.SubmitEntry(ctx, "r1", "inv-missing", tomatoes.ID, "Alice", 5)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPendingItemsFor(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")
	tomatoes := itemByName(t, sess, "Tomatoes")
	ctx := context.Background()

	if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, tomatoes.ID, "Alice", 5); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	pending, err := svc.PendingItemsFor("r1", sess.ID, "Alice")
	if err != nil {
		t.Fatalf("PendingItemsFor failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Alice should have 2 pending items, got %d", len(pending))
	}
	for _, it := range pending {
		if it.Name == "Tomatoes" {
			t.Error("Tomatoes should no longer be pending for Alice")
		}
	}

	// Bob has not submitted anything, so everything is pending for him even
	// though Alice already counted tomatoes.
	pending, err = svc.PendingItemsFor("r1", sess.ID, "Bob")
	if err != nil {
		t.Fatalf("PendingItemsFor failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("Bob should have 3 pending items, got %d", len(pending))
	}
}

func TestCompleteSessionFreezesHistory(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")
	ctx := context.Background()

	frozen, err := svc.CompleteSession(ctx, "r1", sess.ID)
	if err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}
	if frozen.Status != SessionCompleted || frozen.CompletedAt == nil {
		t.Errorf("frozen session not marked completed: %+v", frozen.Status)
	}

	if _, ok := svc.ActiveSession("r1"); ok {
		t.Error("active slot should be empty after completion")
	}

	history, err := svc.History(ctx, "r1", 20)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != sess.ID {
		t.Fatalf("completed session missing from history: %v", history)
	}

	// Slot is free again.
	if _, err := createTestSessionErr(svc, "r1"); err != nil {
		t.Errorf("new session after completion should succeed: %v", err)
	}
}

func createTestSessionErr(svc *Service, restaurantID string) (Session, error) {
	return svc.CreateSession(context.Background(), restaurantID, CreateSessionInput{
		Name: "Next count", Responsible: "Olga",
		Items: []ItemSpec{{Name: "Salt"}},
	})
}

func TestCompleteSessionRollsBackOnStoreFailure(t *testing.T) {
	svc, store := newTestService()
	sess := createTestSession(t, svc, "r1")

	store.mu.Lock()
	store.failPut = true
	store.mu.Unlock()

	if _, err := svc.CompleteSession(context.Background(), "r1", sess.ID); err == nil {
		t.Fatal("expected completion to fail when the store does")
	}

	got, ok := svc.ActiveSession("r1")
	if !ok {
		t.Fatal("session should still be active after failed completion")
	}
	if got.Status != SessionActive || got.CompletedAt != nil {
		t.Errorf("session not rolled back: status=%s", got.Status)
	}
}

func TestDeleteSessionDiscards(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")
	ctx := context.Background()

	if err := svc.DeleteSession(ctx, "r1", sess.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, ok := svc.ActiveSession("r1"); ok {
		t.Error("active slot should be empty after delete")
	}

	history, err := svc.History(ctx, "r1", 20)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("deleted session must not appear in history, got %d", len(history))
	}

	if err := svc.DeleteSession(ctx, "r1", sess.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestConcurrentSubmissions(t *testing.T) {
	svc, _ := newTestService()
	sess := createTestSession(t, svc, "r1")
	tomatoes := itemByName(t, sess, "Tomatoes")
	basil := itemByName(t, sess, "Basil")
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			itemID := tomatoes.ID
			if i%2 == 1 {
				itemID = basil.ID
			}
			user := "user-" + string(rune('a'+i))
			if _, err := svc.SubmitEntry(ctx, "r1", sess.ID, itemID, user, 1); err != nil {
				t.Errorf("concurrent submit failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := svc.ActiveSession("r1")
	total := itemByName(t, got, "Tomatoes").TotalQuantity() + itemByName(t, got, "Basil").TotalQuantity()
	if total != workers {
		t.Errorf("expected %d total quantity across items, got %v", workers, total)
	}
}
