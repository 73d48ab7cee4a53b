// internal/data/memory_store.go
package data

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kitchenback/internal/checklist"
	"kitchenback/internal/inventory"
)

// MemoryStore is a sqlite-free implementation of both store boundaries,
// used by tests and storage-less dev runs. State lives only as long as the
// process.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]inventory.Session   // session id -> session
	checklists map[string]checklist.Checklist // checklist id -> checklist
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]inventory.Session),
		checklists: make(map[string]checklist.Checklist),
	}
}

// =============================================================================
// inventory.Store
// =============================================================================

func (m *MemoryStore) PutSession(ctx context.Context, s inventory.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) AppendEntry(ctx context.Context, restaurantID, sessionID, itemID string, e inventory.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("no stored session %s", sessionID)
	}
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			s.Items[i].Entries = append(s.Items[i].Entries, e)
			m.sessions[sessionID] = s
			return nil
		}
	}
	return fmt.Errorf("no stored item %s in session %s", itemID, sessionID)
}

func (m *MemoryStore) DeleteSession(ctx context.Context, restaurantID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) ActiveSessions(ctx context.Context) ([]inventory.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []inventory.Session
	for _, s := range m.sessions {
		if s.Status == inventory.SessionActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) History(ctx context.Context, restaurantID string, limit int) ([]inventory.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []inventory.Session
	for _, s := range m.sessions {
		if s.RestaurantID == restaurantID && s.Status == inventory.SessionCompleted {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := time.Time{}, time.Time{}
		if out[i].CompletedAt != nil {
			ti = *out[i].CompletedAt
		}
		if out[j].CompletedAt != nil {
			tj = *out[j].CompletedAt
		}
		return ti.After(tj)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) PruneHistory(ctx context.Context, olderThan time.Time, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byRestaurant := make(map[string][]inventory.Session)
	for _, s := range m.sessions {
		if s.Status == inventory.SessionCompleted {
			byRestaurant[s.RestaurantID] = append(byRestaurant[s.RestaurantID], s)
		}
	}

	pruned := 0
	for _, sessions := range byRestaurant {
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].CompletedAt.After(*sessions[j].CompletedAt)
		})
		for i, s := range sessions {
			if i >= keep && s.CompletedAt.Before(olderThan) {
				delete(m.sessions, s.ID)
				pruned++
			}
		}
	}
	return pruned, nil
}

// =============================================================================
// checklist.Store
// =============================================================================

func (m *MemoryStore) PutChecklist(ctx context.Context, cl checklist.Checklist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checklists[cl.ID] = cl
	return nil
}

func (m *MemoryStore) DeleteChecklist(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checklists, id)
	return nil
}

func (m *MemoryStore) Checklists(ctx context.Context) ([]checklist.Checklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]checklist.Checklist, 0, len(m.checklists))
	for _, cl := range m.checklists {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Workshop != out[j].Workshop {
			return out[i].Workshop < out[j].Workshop
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
