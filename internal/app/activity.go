package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"soloboss/pkg/domain"
	"soloboss/pkg/store"
)

// ActivityInput carries a caller-supplied activity log entry. EntityType
// and EntityID are both optional; a null or absent entity reference is a
// free-form entry.
type ActivityInput struct {
	Action      string  `json:"action"`
	Description string  `json:"description"`
	EntityType  *string `json:"entityType"`
	EntityID    *string `json:"entityId"`
}

// LogActivity appends an activity row for the caller.
func (a *App) LogActivity(ownerID string, input ActivityInput) (domain.ActivityLog, error) {
	action := strings.TrimSpace(input.Action)
	if action == "" {
		return domain.ActivityLog{}, fmt.Errorf("%w: action is required", ErrInvalidInput)
	}
	var entityType *domain.ActivityEntity
	if input.EntityType != nil {
		parsed, ok := parseActivityEntity(*input.EntityType)
		if !ok {
			return domain.ActivityLog{}, fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, *input.EntityType)
		}
		entityType = &parsed
	}
	entry := domain.ActivityLog{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Action:      action,
		Description: strings.TrimSpace(input.Description),
		EntityType:  entityType,
		EntityID:    input.EntityID,
	}
	created, err := a.store.AppendActivity(entry)
	if err != nil {
		if errors.Is(err, store.ErrOwnerMissing) {
			return domain.ActivityLog{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
		}
		return domain.ActivityLog{}, fmt.Errorf("log activity: %w", err)
	}
	return created, nil
}

// RecentActivity returns the caller's latest activity rows, newest first.
// Limit defaults to 20.
func (a *App) RecentActivity(ownerID string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	entries, err := a.store.ListRecentActivity(ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	return entries, nil
}
