package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"soloboss/pkg/domain"
)

// Patch is a decoded JSON object where key presence is preserved: a key
// mapped to JSON null is distinct from an absent key. This is what gives
// update handlers their null-vs-omitted semantics.
type Patch map[string]json.RawMessage

// requiredString decodes a field that may be patched but never nulled.
func (p Patch) requiredString(key string) (string, error) {
	var value *string
	if err := json.Unmarshal(p[key], &value); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidInput, key)
	}
	if value == nil {
		return "", fmt.Errorf("%w: %s must not be null", ErrInvalidInput, key)
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s must not be empty", ErrInvalidInput, key)
	}
	return trimmed, nil
}

// nullableString decodes a field where null is a legal value. The returned
// any is either a string or nil, ready for a column-update map.
func (p Patch) nullableString(key string) (any, error) {
	var value *string
	if err := json.Unmarshal(p[key], &value); err != nil {
		return nil, fmt.Errorf("%w: %s must be a string or null", ErrInvalidInput, key)
	}
	if value == nil {
		return nil, nil
	}
	return *value, nil
}

// nullableTime decodes an RFC 3339 timestamp field where null is legal.
func (p Patch) nullableTime(key string) (any, error) {
	var value *time.Time
	if err := json.Unmarshal(p[key], &value); err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp or null", ErrInvalidInput, key)
	}
	if value == nil {
		return nil, nil
	}
	return value.UTC(), nil
}

func parseTaskStatus(value string) (domain.TaskStatus, bool) {
	switch domain.TaskStatus(strings.ToLower(strings.TrimSpace(value))) {
	case domain.TaskPending:
		return domain.TaskPending, true
	case domain.TaskInProgress:
		return domain.TaskInProgress, true
	case domain.TaskCompleted:
		return domain.TaskCompleted, true
	default:
		return "", false
	}
}

func parseTaskPriority(value string) (domain.TaskPriority, bool) {
	switch domain.TaskPriority(strings.ToLower(strings.TrimSpace(value))) {
	case domain.PriorityLow:
		return domain.PriorityLow, true
	case domain.PriorityMedium:
		return domain.PriorityMedium, true
	case domain.PriorityHigh:
		return domain.PriorityHigh, true
	default:
		return "", false
	}
}

func parseActivityEntity(value string) (domain.ActivityEntity, bool) {
	switch domain.ActivityEntity(strings.ToLower(strings.TrimSpace(value))) {
	case domain.EntityTask:
		return domain.EntityTask, true
	case domain.EntityDocument:
		return domain.EntityDocument, true
	case domain.EntityChat:
		return domain.EntityChat, true
	case domain.EntityProfile:
		return domain.EntityProfile, true
	default:
		return "", false
	}
}
