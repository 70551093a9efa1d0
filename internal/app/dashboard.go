package app

import (
	"fmt"
	"time"

	"soloboss/pkg/domain"
)

// DashboardStats computes the five per-owner counts. Each count is its own
// query and no cross-count invariant holds: in_progress tasks raise the
// total without landing in either status bucket.
func (a *App) DashboardStats(ownerID string) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	var err error
	if stats.TotalTasks, err = a.store.CountTasks(ownerID); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count tasks: %w", err)
	}
	if stats.CompletedTasks, err = a.store.CountTasksByStatus(ownerID, domain.TaskCompleted); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count completed tasks: %w", err)
	}
	if stats.PendingTasks, err = a.store.CountTasksByStatus(ownerID, domain.TaskPending); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count pending tasks: %w", err)
	}
	if stats.TotalDocuments, err = a.store.CountDocuments(ownerID); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count documents: %w", err)
	}
	cutoff := time.Now().UTC().Add(-recentActivityWindow)
	if stats.RecentActivityCount, err = a.store.CountActivitySince(ownerID, cutoff); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count recent activity: %w", err)
	}
	return stats, nil
}
