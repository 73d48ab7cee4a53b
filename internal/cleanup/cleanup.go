package cleanup

import (
	"context"
	"time"

	"kitchenback/internal/config"
	"kitchenback/internal/inventory"
	"kitchenback/internal/logger"
)

const (
	cleanupHour    = 2 // 2 AM
	cleanupTimeout = 30 * time.Second
)

// StartCleanupRoutine starts the daily history pruning job. Completed
// inventory sessions older than the retention window are removed, but the
// newest HistoryKeep per restaurant always survive so the history view
// never goes empty.
func StartCleanupRoutine(store inventory.Store) {
	go func() {
		logger.LogInfo("Cleanup routine started - will run daily at %d:00 AM", cleanupHour)

		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), cleanupHour, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}

			sleepDuration := next.Sub(now)
			logger.LogInfo("Next cleanup scheduled for %v (in %v)", next.Format("2006-01-02 15:04:05"), sleepDuration)

			time.Sleep(sleepDuration)

			runCleanup(store)
		}
	}()
}

func runCleanup(store inventory.Store) {
	cutoff := time.Now().Add(-config.HistoryRetention)
	logger.LogInfo("Pruning completed sessions older than %v (keeping newest %d per restaurant)",
		cutoff.Format("2006-01-02 15:04:05"), config.HistoryKeep)

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	pruned, err := store.PruneHistory(ctx, cutoff, config.HistoryKeep)
	if err != nil {
		logger.LogError("History pruning failed: %v", err)
		return
	}

	if pruned == 0 {
		logger.LogInfo("Cleanup completed - nothing to prune")
	} else {
		logger.LogInfo("Cleanup completed - %d old session(s) pruned", pruned)
	}
}
