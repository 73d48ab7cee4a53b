// internal/inventory/service.go
package inventory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"kitchenback/internal/collation"
	"kitchenback/internal/errs"
	"kitchenback/internal/logger"
)

// Service owns the session lifecycle and the entry merge. One active session
// per restaurant; entries are append-only, so concurrent submissions only
// need per-item serialization to avoid lost writes. Cross-item calls never
// contend beyond the shared read lock.
type Service struct {
	store Store
	cmp   *collation.Comparator

	mu        sync.RWMutex
	active    map[string]*Session    // restaurant id -> active session
	itemLocks map[string]*sync.Mutex // item id -> append lock
}

func NewService(store Store, cmp *collation.Comparator) *Service {
	return &Service{
		store:     store,
		cmp:       cmp,
		active:    make(map[string]*Session),
		itemLocks: make(map[string]*sync.Mutex),
	}
}

// LoadFromStore rebuilds the active-session slots after a restart.
func (s *Service) LoadFromStore(ctx context.Context) error {
	sessions, err := s.store.ActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range sessions {
		sess := sessions[i]
		s.active[sess.RestaurantID] = &sess
		for _, it := range sess.Items {
			s.itemLocks[it.ID] = &sync.Mutex{}
		}
	}

	logger.LogInfo("Loaded %d active inventory session(s) from store", len(sessions))
	return nil
}

// CreateSession opens a new count. The active slot is use-or-lose: when two
// managers race, the loser gets a conflict error, never a silent overwrite.
// Items are sorted by the locale comparator, ascending.
func (s *Service) CreateSession(ctx context.Context, restaurantID string, in CreateSessionInput) (Session, error) {
	if restaurantID == "" {
		return Session{}, fmt.Errorf("restaurant id is required: %w", errs.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return Session{}, fmt.Errorf("session name is required: %w", errs.ErrValidation)
	}
	if strings.TrimSpace(in.Responsible) == "" {
		return Session{}, fmt.Errorf("responsible person is required: %w", errs.ErrValidation)
	}

	items := make([]Item, 0, len(in.Items))
	for _, spec := range in.Items {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		kind, err := ParseKind(spec.Kind)
		if err != nil {
			return Session{}, err
		}
		items = append(items, Item{ID: newID("itm"), Name: name, Kind: kind})
	}
	if len(items) == 0 {
		return Session{}, fmt.Errorf("session needs at least one item: %w", errs.ErrValidation)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return s.cmp.Less(items[i].Name, items[j].Name)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.active[restaurantID]; ok {
		return Session{}, fmt.Errorf("restaurant %s already has active session %s: %w",
			restaurantID, existing.ID, errs.ErrConflict)
	}

	sess := Session{
		ID:           newID("inv"),
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(in.Name),
		Date:         in.Date,
		Responsible:  strings.TrimSpace(in.Responsible),
		Status:       SessionActive,
		CreatedAt:    time.Now(),
		Items:        items,
	}

	if err := s.store.PutSession(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("failed to persist session %s: %w", sess.ID, err)
	}

	s.active[restaurantID] = &sess
	for _, it := range sess.Items {
		s.itemLocks[it.ID] = &sync.Mutex{}
	}

	logger.LogInfo("Inventory session %s created for restaurant %s with %d items by %s",
		sess.ID, restaurantID, len(sess.Items), sess.Responsible)
	return s.snapshotLocked(&sess), nil
}

// ActiveSession returns a snapshot of the restaurant's current count.
func (s *Service) ActiveSession(restaurantID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.active[restaurantID]
	if !ok {
		return Session{}, false
	}
	return s.snapshotRLocked(sess), true
}

// SubmitEntry appends one user's quantity for one item. Duplicate
// submissions by the same user are kept as separate entries; PendingItemsFor
// is the advisory way to avoid them, the store never rejects.
func (s *Service) SubmitEntry(ctx context.Context, restaurantID, sessionID, itemID, user string, quantity float64) (Entry, error) {
	if strings.TrimSpace(user) == "" {
		return Entry{}, fmt.Errorf("submitter name is required: %w", errs.ErrValidation)
	}
	if quantity < 0 {
		return Entry{}, fmt.Errorf("quantity %v is negative: %w", quantity, errs.ErrValidation)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.active[restaurantID]
	if !ok || sess.ID != sessionID {
		// A completed session is frozen history; submitting to it is a
		// state error, not a lookup error.
		if s.wasCompletedRLocked(ctx, restaurantID, sessionID) {
			return Entry{}, fmt.Errorf("session %s is completed, no further entries: %w",
				sessionID, errs.ErrInvalidState)
		}
		return Entry{}, fmt.Errorf("no active session %s for restaurant %s: %w",
			sessionID, restaurantID, errs.ErrNotFound)
	}

	idx := -1
	for i := range sess.Items {
		if sess.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Entry{}, fmt.Errorf("item %s not in session %s: %w", itemID, sessionID, errs.ErrNotFound)
	}

	entry := Entry{User: strings.TrimSpace(user), Quantity: quantity, SubmittedAt: time.Now()}

	lock := s.itemLocks[itemID]
	lock.Lock()
	sess.Items[idx].Entries = append(sess.Items[idx].Entries, entry)
	lock.Unlock()

	if err := s.store.AppendEntry(ctx, restaurantID, sessionID, itemID, entry); err != nil {
		// The in-memory merge already happened; surface the persistence
		// failure so the caller can retry at the transport layer.
		return Entry{}, fmt.Errorf("failed to persist entry for item %s: %w", itemID, err)
	}

	return entry, nil
}

// PendingItemsFor lists the items the given user has not submitted for yet.
// Items other users already counted still show up; items nobody touched
// always do. Order matches the creation sort.
func (s *Service) PendingItemsFor(restaurantID, sessionID, user string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.active[restaurantID]
	if !ok || sess.ID != sessionID {
		return nil, fmt.Errorf("no active session %s for restaurant %s: %w",
			sessionID, restaurantID, errs.ErrNotFound)
	}

	var pending []Item
	for i := range sess.Items {
		lock := s.itemLocks[sess.Items[i].ID]
		lock.Lock()
		if !sess.Items[i].HasEntryBy(user) {
			it := sess.Items[i]
			it.Entries = append([]Entry(nil), it.Entries...)
			pending = append(pending, it)
		}
		lock.Unlock()
	}
	return pending, nil
}

// CompleteSession freezes the count into history and clears the active slot.
func (s *Service) CompleteSession(ctx context.Context, restaurantID, sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active[restaurantID]
	if !ok || sess.ID != sessionID {
		return Session{}, fmt.Errorf("no active session %s for restaurant %s: %w",
			sessionID, restaurantID, errs.ErrNotFound)
	}

	now := time.Now()
	sess.Status = SessionCompleted
	sess.CompletedAt = &now

	frozen := s.snapshotLocked(sess)
	if err := s.store.PutSession(ctx, frozen); err != nil {
		// Roll back so the slot is not left half-closed.
		sess.Status = SessionActive
		sess.CompletedAt = nil
		return Session{}, fmt.Errorf("failed to record completed session %s: %w", sessionID, err)
	}

	delete(s.active, restaurantID)
	for _, it := range sess.Items {
		delete(s.itemLocks, it.ID)
	}

	logger.LogInfo("Inventory session %s completed for restaurant %s", sessionID, restaurantID)
	return frozen, nil
}

// DeleteSession discards an active count without recording history.
func (s *Service) DeleteSession(ctx context.Context, restaurantID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active[restaurantID]
	if !ok || sess.ID != sessionID {
		return fmt.Errorf("no active session %s for restaurant %s: %w",
			sessionID, restaurantID, errs.ErrNotFound)
	}

	if err := s.store.DeleteSession(ctx, restaurantID, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	delete(s.active, restaurantID)
	for _, it := range sess.Items {
		delete(s.itemLocks, it.ID)
	}

	logger.LogInfo("Inventory session %s deleted for restaurant %s", sessionID, restaurantID)
	return nil
}

// History returns the most recent completed sessions, newest first.
func (s *Service) History(ctx context.Context, restaurantID string, limit int) ([]Session, error) {
	sessions, err := s.store.History(ctx, restaurantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for restaurant %s: %w", restaurantID, err)
	}
	return sessions, nil
}

// Comparator exposes the locale comparator so reports sort the same way
// sessions were created.
func (s *Service) Comparator() *collation.Comparator {
	return s.cmp
}

// snapshotLocked deep-copies a session; caller holds the write lock so item
// locks are not needed.
func (s *Service) snapshotLocked(sess *Session) Session {
	return clone(*sess)
}

// snapshotRLocked deep-copies under the read lock, taking each item's append
// lock so a concurrent submit cannot tear the entries slice.
func (s *Service) snapshotRLocked(sess *Session) Session {
	out := *sess
	out.Items = make([]Item, len(sess.Items))
	for i := range sess.Items {
		lock := s.itemLocks[sess.Items[i].ID]
		lock.Lock()
		out.Items[i] = sess.Items[i]
		out.Items[i].Entries = append([]Entry(nil), sess.Items[i].Entries...)
		lock.Unlock()
	}
	if sess.CompletedAt != nil {
		t := *sess.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// wasCompletedRLocked checks history so a submit against a just-closed
// session reports the right failure.
func (s *Service) wasCompletedRLocked(ctx context.Context, restaurantID, sessionID string) bool {
	history, err := s.store.History(ctx, restaurantID, 0)
	if err != nil {
		return false
	}
	for _, h := range history {
		if h.ID == sessionID {
			return true
		}
	}
	return false
}

// newID generates a short random identifier, same scheme as request IDs.
func newID(prefix string) string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return prefix + "-" + hex.EncodeToString(bytes)
}
