// internal/inventory/store.go
package inventory

import (
	"context"
	"time"
)

// Store is the persistence boundary for inventory sessions. The service
// treats it as a keyed put/get/delete store; all merging and lifecycle rules
// live in the service, never in the store.
type Store interface {
	// PutSession upserts a full session, entries included. A session saved
	// with a completed status becomes a history record.
	PutSession(ctx context.Context, s Session) error

	// AppendEntry records a single quantity submission.
	AppendEntry(ctx context.Context, restaurantID, sessionID, itemID string, e Entry) error

	// DeleteSession discards an active session without leaving history.
	DeleteSession(ctx context.Context, restaurantID, sessionID string) error

	// ActiveSessions loads every restaurant's active session, if any.
	// Called once at startup to rebuild in-memory state.
	ActiveSessions(ctx context.Context) ([]Session, error)

	// History returns up to limit completed sessions, newest first.
	History(ctx context.Context, restaurantID string, limit int) ([]Session, error)

	// PruneHistory drops completed sessions older than the cutoff while
	// always keeping at least keep records per restaurant. Returns how many
	// rows were removed.
	PruneHistory(ctx context.Context, olderThan time.Time, keep int) (int, error)
}
