package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"soloboss/pkg/domain"
	"soloboss/pkg/store"
)

// TaskInput carries the creatable task fields. Status is not here on
// purpose: new tasks always start pending and only updates move them.
type TaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// CreateTask inserts a task owned by the caller.
func (a *App) CreateTask(ownerID string, input TaskInput) (domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	priority := domain.PriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		parsed, ok := parseTaskPriority(input.Priority)
		if !ok {
			return domain.Task{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, input.Priority)
		}
		priority = parsed
	}
	task := domain.Task{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       title,
		Description: input.Description,
		Status:      domain.TaskPending,
		Priority:    priority,
		DueDate:     input.DueDate,
	}
	created, err := a.store.CreateTask(task)
	if err != nil {
		if errors.Is(err, store.ErrOwnerMissing) {
			return domain.Task{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
		}
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	if err := a.recordActivity(ownerID, "task_created", "Created task: "+title, domain.EntityTask, created.ID); err != nil {
		return domain.Task{}, err
	}
	return created, nil
}

// ListTasks returns the caller's tasks, newest first.
func (a *App) ListTasks(ownerID string) ([]domain.Task, error) {
	tasks, err := a.store.ListTasks(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies the explicitly-present fields of the patch to the
// caller's task. A field set to null clears it; an absent field is left
// alone. updated_at always moves forward, even for an empty patch.
func (a *App) UpdateTask(ownerID, taskID string, patch Patch) (domain.Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return domain.Task{}, fmt.Errorf("%w: task id is required", ErrInvalidInput)
	}
	updates := make(map[string]any, len(patch))
	for key := range patch {
		switch key {
		case "title":
			value, err := patch.requiredString(key)
			if err != nil {
				return domain.Task{}, err
			}
			updates["title"] = value
		case "description":
			value, err := patch.nullableString(key)
			if err != nil {
				return domain.Task{}, err
			}
			updates["description"] = value
		case "status":
			value, err := patch.requiredString(key)
			if err != nil {
				return domain.Task{}, err
			}
			status, ok := parseTaskStatus(value)
			if !ok {
				return domain.Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, value)
			}
			updates["status"] = string(status)
		case "priority":
			value, err := patch.requiredString(key)
			if err != nil {
				return domain.Task{}, err
			}
			priority, ok := parseTaskPriority(value)
			if !ok {
				return domain.Task{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, value)
			}
			updates["priority"] = string(priority)
		case "dueDate":
			value, err := patch.nullableTime(key)
			if err != nil {
				return domain.Task{}, err
			}
			updates["due_date"] = value
		}
	}
	task, ok, err := a.store.UpdateTask(ownerID, taskID, updates)
	if err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	if !ok {
		return domain.Task{}, ErrNotFoundOrDenied
	}
	if err := a.recordActivity(ownerID, "task_updated", "Updated task: "+task.Title, domain.EntityTask, task.ID); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes the caller's task. False means no owned row matched;
// that is an answer, not an error.
func (a *App) DeleteTask(ownerID, taskID string) (bool, error) {
	deleted, err := a.store.DeleteTask(ownerID, taskID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	if !deleted {
		return false, nil
	}
	if err := a.recordActivity(ownerID, "task_deleted", "Deleted a task", domain.EntityTask, taskID); err != nil {
		return true, err
	}
	return true, nil
}
