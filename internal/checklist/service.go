// internal/checklist/service.go
package checklist

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"kitchenback/internal/errs"
	"kitchenback/internal/logger"
)

// Store is the persistence boundary for checklists: plain keyed put/delete,
// no query language.
type Store interface {
	PutChecklist(ctx context.Context, cl Checklist) error
	DeleteChecklist(ctx context.Context, id string) error
	Checklists(ctx context.Context) ([]Checklist, error)
}

// Service enforces the item status machine. Status changes are the only
// mutation after creation, so a single lock over the list is enough.
type Service struct {
	store Store

	mu         sync.RWMutex
	checklists []*Checklist
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// LoadFromStore rebuilds checklist state after a restart.
func (s *Service) LoadFromStore(ctx context.Context) error {
	lists, err := s.store.Checklists(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checklists: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.checklists = s.checklists[:0]
	for i := range lists {
		cl := lists[i]
		s.checklists = append(s.checklists, &cl)
	}

	logger.LogInfo("Loaded %d checklist(s) from store", len(lists))
	return nil
}

// Create builds a checklist from item texts; blank lines are dropped, every
// item starts pending with no timestamp.
func (s *Service) Create(ctx context.Context, name, workshop, responsible string, itemTexts []string) (Checklist, error) {
	if strings.TrimSpace(name) == "" {
		return Checklist{}, fmt.Errorf("checklist name is required: %w", errs.ErrValidation)
	}
	if strings.TrimSpace(workshop) == "" {
		return Checklist{}, fmt.Errorf("checklist workshop is required: %w", errs.ErrValidation)
	}

	var items []Item
	for _, text := range itemTexts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		items = append(items, Item{ID: newID("chk"), Text: text, Status: StatusPending})
	}
	if len(items) == 0 {
		return Checklist{}, fmt.Errorf("checklist needs at least one item: %w", errs.ErrValidation)
	}

	cl := Checklist{
		ID:          newID("cl"),
		Name:        strings.TrimSpace(name),
		Workshop:    strings.TrimSpace(workshop),
		Responsible: strings.TrimSpace(responsible),
		Items:       items,
	}

	if err := s.store.PutChecklist(ctx, cl); err != nil {
		return Checklist{}, fmt.Errorf("failed to persist checklist %s: %w", cl.ID, err)
	}

	s.mu.Lock()
	stored := cl
	s.checklists = append(s.checklists, &stored)
	s.mu.Unlock()

	logger.LogInfo("Checklist %s (%s / %s) created with %d items", cl.ID, cl.Workshop, cl.Name, len(items))
	return cloneChecklist(cl), nil
}

// SetStatus moves an item to the given status, stamps the change time and
// bumps the checklist's completed date to today. Last-activity semantics:
// the date moves on any change, not only when everything is done.
func (s *Service) SetStatus(ctx context.Context, checklistID, itemID string, status Status) (Checklist, Item, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Checklist{}, Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cl := s.findLocked(checklistID)
	if cl == nil {
		return Checklist{}, Item{}, fmt.Errorf("checklist %s: %w", checklistID, errs.ErrNotFound)
	}

	idx := -1
	for i := range cl.Items {
		if cl.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Checklist{}, Item{}, fmt.Errorf("item %s in checklist %s: %w", itemID, checklistID, errs.ErrNotFound)
	}

	now := time.Now()
	cl.Items[idx].Status = status
	cl.Items[idx].Timestamp = &now
	cl.CompletedDate = now.Format("2006-01-02")

	if err := s.store.PutChecklist(ctx, *cl); err != nil {
		return Checklist{}, Item{}, fmt.Errorf("failed to persist checklist %s: %w", checklistID, err)
	}

	return cloneChecklist(*cl), cl.Items[idx], nil
}

// List returns snapshots of every checklist.
func (s *Service) List() []Checklist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Checklist, 0, len(s.checklists))
	for _, cl := range s.checklists {
		out = append(out, cloneChecklist(*cl))
	}
	return out
}

// Get returns one checklist by id.
func (s *Service) Get(id string) (Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cl := s.findLocked(id)
	if cl == nil {
		return Checklist{}, fmt.Errorf("checklist %s: %w", id, errs.ErrNotFound)
	}
	return cloneChecklist(*cl), nil
}

// Delete removes a checklist entirely.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, cl := range s.checklists {
		if cl.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("checklist %s: %w", id, errs.ErrNotFound)
	}

	if err := s.store.DeleteChecklist(ctx, id); err != nil {
		return fmt.Errorf("failed to delete checklist %s: %w", id, err)
	}

	s.checklists = append(s.checklists[:idx], s.checklists[idx+1:]...)
	logger.LogInfo("Checklist %s deleted", id)
	return nil
}

func (s *Service) findLocked(id string) *Checklist {
	for _, cl := range s.checklists {
		if cl.ID == id {
			return cl
		}
	}
	return nil
}

// newID generates a short random identifier, same scheme as request IDs.
func newID(prefix string) string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return prefix + "-" + hex.EncodeToString(bytes)
}
