// internal/data/session_store.go
package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kitchenback/internal/inventory"
)

// =============================================================================
// INVENTORY SESSION STORE
// =============================================================================

// SessionStore persists inventory sessions in sqlite. It implements
// inventory.Store; deleted sessions are kept as cancelled rows rather than
// removed, matching how the front office audits discarded counts.
type SessionStore struct{}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// PutSession upserts the session row and rewrites its item list. Entries
// are only rewritten when the session carries them (the completion freeze);
// the live append path goes through AppendEntry.
func (s *SessionStore) PutSession(ctx context.Context, sess inventory.Session) error {
	const stmt = `
		INSERT INTO inventory_sessions (id, restaurant_id, name, date, responsible, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			completed_at = excluded.completed_at`

	_, err := ExecDB(stmt,
		sess.ID, sess.RestaurantID, sess.Name, sess.Date, sess.Responsible,
		string(sess.Status), formatTime(sess.CreatedAt), formatNullableTime(sess.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", sess.ID, err)
	}

	for i, item := range sess.Items {
		const itemStmt = `
			INSERT INTO inventory_items (id, session_id, name, kind, item_order)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET item_order = excluded.item_order`
		if _, err := ExecDB(itemStmt, item.ID, sess.ID, item.Name, string(item.Kind), i); err != nil {
			return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
		}
	}

	return nil
}

// AppendEntry records one quantity submission.
func (s *SessionStore) AppendEntry(ctx context.Context, restaurantID, sessionID, itemID string, e inventory.Entry) error {
	const stmt = `
		INSERT INTO inventory_entries (item_id, user_name, quantity, submitted_at)
		VALUES (?, ?, ?, ?)`

	_, err := ExecDB(stmt, itemID, e.User, e.Quantity, formatTime(e.SubmittedAt))
	if err != nil {
		return fmt.Errorf("failed to insert entry for item %s: %w", itemID, err)
	}
	return nil
}

// DeleteSession marks an active session cancelled. Cancelled rows never
// show up in history.
func (s *SessionStore) DeleteSession(ctx context.Context, restaurantID, sessionID string) error {
	const stmt = `
		UPDATE inventory_sessions SET status = 'cancelled'
		WHERE id = ? AND restaurant_id = ? AND status = 'active'`

	res, err := ExecDB(stmt, sessionID, restaurantID)
	if err != nil {
		return fmt.Errorf("failed to cancel session %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no active session row %s to cancel", sessionID)
	}
	return nil
}

// ActiveSessions loads every restaurant's active session with items and
// entries, in stored item order and entry submission order.
func (s *SessionStore) ActiveSessions(ctx context.Context) ([]inventory.Session, error) {
	const stmt = `
		SELECT id, restaurant_id, name, date, responsible, status, created_at, completed_at
		FROM inventory_sessions
		WHERE status = 'active'
		ORDER BY created_at`

	rows, err := QueryDB(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := s.scanSessions(rows)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		if err := s.loadItems(&sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// History returns completed sessions newest first, up to limit (no limit
// when limit <= 0).
func (s *SessionStore) History(ctx context.Context, restaurantID string, limit int) ([]inventory.Session, error) {
	stmt := `
		SELECT id, restaurant_id, name, date, responsible, status, created_at, completed_at
		FROM inventory_sessions
		WHERE restaurant_id = ? AND status = 'completed'
		ORDER BY completed_at DESC`
	args := []interface{}{restaurantID}

	if limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := QueryDB(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session history: %w", err)
	}
	defer rows.Close()

	sessions, err := s.scanSessions(rows)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		if err := s.loadItems(&sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// PruneHistory drops completed sessions past the retention cutoff, always
// keeping the newest keep rows per restaurant.
func (s *SessionStore) PruneHistory(ctx context.Context, olderThan time.Time, keep int) (int, error) {
	const stmt = `
		DELETE FROM inventory_sessions
		WHERE status = 'completed'
		  AND completed_at < ?
		  AND id NOT IN (
			SELECT id FROM inventory_sessions AS recent
			WHERE recent.status = 'completed'
			  AND recent.restaurant_id = inventory_sessions.restaurant_id
			ORDER BY recent.completed_at DESC
			LIMIT ?
		  )`

	res, err := ExecDB(stmt, formatTime(olderThan), keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune session history: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	// Orphaned items and entries go with their sessions.
	if _, err := ExecDB(`DELETE FROM inventory_items WHERE session_id NOT IN (SELECT id FROM inventory_sessions)`); err != nil {
		return int(n), fmt.Errorf("failed to prune orphaned items: %w", err)
	}
	if _, err := ExecDB(`DELETE FROM inventory_entries WHERE item_id NOT IN (SELECT id FROM inventory_items)`); err != nil {
		return int(n), fmt.Errorf("failed to prune orphaned entries: %w", err)
	}

	return int(n), nil
}

// =============================================================================
// SCANNING AND POPULATION HELPERS
// =============================================================================

func (s *SessionStore) scanSessions(rows *sql.Rows) ([]inventory.Session, error) {
	var sessions []inventory.Session
	for rows.Next() {
		var sess inventory.Session
		var status, createdAt string
		var completedAt sql.NullString

		err := rows.Scan(&sess.ID, &sess.RestaurantID, &sess.Name, &sess.Date,
			&sess.Responsible, &status, &createdAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		sess.Status = inventory.SessionStatus(status)
		if t, err := parseTime(createdAt); err == nil {
			sess.CreatedAt = t
		}
		if completedAt.Valid {
			if t, err := parseTime(completedAt.String); err == nil {
				sess.CompletedAt = &t
			}
		}

		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

func (s *SessionStore) loadItems(sess *inventory.Session) error {
	const stmt = `
		SELECT id, name, kind FROM inventory_items
		WHERE session_id = ?
		ORDER BY item_order`

	rows, err := QueryDB(stmt, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to query items for session %s: %w", sess.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item inventory.Item
		var kind string
		if err := rows.Scan(&item.ID, &item.Name, &kind); err != nil {
			return fmt.Errorf("failed to scan item row: %w", err)
		}
		item.Kind = inventory.Kind(kind)
		sess.Items = append(sess.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating item rows: %w", err)
	}

	for i := range sess.Items {
		if err := s.loadEntries(&sess.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionStore) loadEntries(item *inventory.Item) error {
	const stmt = `
		SELECT user_name, quantity, submitted_at FROM inventory_entries
		WHERE item_id = ?
		ORDER BY id`

	rows, err := QueryDB(stmt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to query entries for item %s: %w", item.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e inventory.Entry
		var submittedAt string
		if err := rows.Scan(&e.User, &e.Quantity, &submittedAt); err != nil {
			return fmt.Errorf("failed to scan entry row: %w", err)
		}
		if t, err := parseTime(submittedAt); err == nil {
			e.SubmittedAt = t
		}
		item.Entries = append(item.Entries, e)
	}
	return rows.Err()
}
