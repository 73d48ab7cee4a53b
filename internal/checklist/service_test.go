package checklist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kitchenback/internal/errs"
)

type fakeStore struct {
	mu    sync.Mutex
	lists map[string]Checklist
}

func newFakeStore() *fakeStore {
	return &fakeStore{lists: make(map[string]Checklist)}
}

func (f *fakeStore) PutChecklist(ctx context.Context, cl Checklist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[cl.ID] = cl
	return nil
}

func (f *fakeStore) DeleteChecklist(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lists, id)
	return nil
}

func (f *fakeStore) Checklists(ctx context.Context) ([]Checklist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Checklist, 0, len(f.lists))
	for _, cl := range f.lists {
		out = append(out, cl)
	}
	return out, nil
}

func createTestChecklist(t *testing.T, svc *Service) Checklist {
	t.Helper()
	cl, err := svc.Create(context.Background(), "Opening checks", "Hot Workshop", "Olga",
		[]string{"Fridge temperatures logged", "", "  ", "Surfaces sanitized"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return cl
}

func TestCreateDropsBlankLines(t *testing.T) {
	svc := NewService(newFakeStore())
	cl := createTestChecklist(t, svc)

	if len(cl.Items) != 2 {
		t.Fatalf("expected 2 items after dropping blanks, got %d", len(cl.Items))
	}
	for _, item := range cl.Items {
		if item.Status != StatusPending {
			t.Errorf("new item %q should be pending, got %s", item.Text, item.Status)
		}
		if item.Timestamp != nil {
			t.Errorf("new item %q should have no timestamp", item.Text)
		}
	}
	if cl.CompletedDate != "" {
		t.Errorf("fresh checklist should have no completed date, got %q", cl.CompletedDate)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", "Hot Workshop", "", []string{"x"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank name: expected validation error, got %v", err)
	}
	if _, err := svc.Create(ctx, "Checks", "", "", []string{"x"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank workshop: expected validation error, got %v", err)
	}
	if _, err := svc.Create(ctx, "Checks", "Hot Workshop", "", []string{"", "  "}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("no usable items: expected validation error, got %v", err)
	}
}

func TestSetStatusMachine(t *testing.T) {
	svc := NewService(newFakeStore())
	cl := createTestChecklist(t, svc)
	itemID := cl.Items[0].ID
	ctx := context.Background()

	// Every status is reachable from every other one.
	for _, status := range []Status{StatusInStop, StatusDone, StatusInRestriction, StatusPending, StatusDone} {
		updated, item, err := svc.SetStatus(ctx, cl.ID, itemID, status)
		if err != nil {
			t.Fatalf("SetStatus(%s) failed: %v", status, err)
		}
		if item.Status != status {
			t.Errorf("expected status %s, got %s", status, item.Status)
		}
		if item.Timestamp == nil {
			t.Error("status change must stamp the item")
		}
		if want := time.Now().Format("2006-01-02"); updated.CompletedDate != want {
			t.Errorf("completed date should track last activity: got %q, want %q", updated.CompletedDate, want)
		}
	}

	// The sibling item is untouched.
	got, err := svc.Get(cl.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Items[1].Status != StatusPending || got.Items[1].Timestamp != nil {
		t.Errorf("sibling item mutated: %+v", got.Items[1])
	}
}

func TestSetStatusErrors(t *testing.T) {
	svc := NewService(newFakeStore())
	cl := createTestChecklist(t, svc)
	ctx := context.Background()

	if _, _, err := svc.SetStatus(ctx, cl.ID, cl.Items[0].ID, "paused"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("unknown status: expected validation error, got %v", err)
	}
	if _, _, err := svc.SetStatus(ctx, "cl-missing", cl.Items[0].ID, StatusDone); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown checklist: expected not found, got %v", err)
	}
	if _, _, err := svc.SetStatus(ctx, cl.ID, "chk-missing", StatusDone); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown item: expected not found, got %v", err)
	}
}

func TestDeleteChecklist(t *testing.T) {
	svc := NewService(newFakeStore())
	cl := createTestChecklist(t, svc)
	ctx := context.Background()

	if err := svc.Delete(ctx, cl.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(cl.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(ctx, cl.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestLoadFromStore(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	cl := createTestChecklist(t, svc)

	// A fresh service sees what the first one persisted.
	reloaded := NewService(store)
	if err := reloaded.LoadFromStore(context.Background()); err != nil {
		t.Fatalf("LoadFromStore failed: %v", err)
	}
	got, err := reloaded.Get(cl.ID)
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	if got.Name != cl.Name || len(got.Items) != len(cl.Items) {
		t.Errorf("reloaded checklist differs: %+v", got)
	}
}
