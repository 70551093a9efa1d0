package store

import (
	"errors"
	"time"

	"soloboss/pkg/domain"
)

// ErrOwnerMissing is returned by create operations when the referenced owner
// user does not exist. Backed by the foreign-key constraint in Postgres.
var ErrOwnerMissing = errors.New("owner user does not exist")

// Store defines persistence operations for users, tasks, documents, agents,
// chat messages, and activity log rows.
//
// Mutating task/document operations take the owner id and the entity id as a
// combined predicate: a row owned by someone else behaves exactly like a row
// that does not exist. Update maps use column names as keys; a key present
// with a nil value writes NULL, an absent key leaves the column untouched.
type Store interface {
	// users
	SaveUser(domain.User) error
	GetUser(id string) (domain.User, bool, error)
	UpdateUser(id string, updates map[string]any) (domain.User, bool, error)
	DeleteUser(id string) error

	// tasks
	CreateTask(domain.Task) (domain.Task, error)
	ListTasks(ownerID string) ([]domain.Task, error)
	UpdateTask(ownerID, taskID string, updates map[string]any) (domain.Task, bool, error)
	DeleteTask(ownerID, taskID string) (bool, error)
	CountTasks(ownerID string) (int64, error)
	CountTasksByStatus(ownerID string, status domain.TaskStatus) (int64, error)

	// documents
	CreateDocument(domain.Document) (domain.Document, error)
	ListDocuments(ownerID string, folder domain.FolderFilter) ([]domain.Document, error)
	GetDocument(ownerID, documentID string) (domain.Document, bool, error)
	UpdateDocument(ownerID, documentID string, updates map[string]any) (domain.Document, bool, error)
	DeleteDocument(ownerID, documentID string) (bool, error)
	CountDocuments(ownerID string) (int64, error)

	// agents
	SaveAgent(domain.AIAgent) error
	GetAgent(id string) (domain.AIAgent, bool, error)
	ListActiveAgents() ([]domain.AIAgent, error)
	AgentCount() (int64, error)

	// chat
	AppendChatMessage(domain.ChatMessage) (domain.ChatMessage, error)
	ListChatMessages(ownerID, agentID string, limit int) ([]domain.ChatMessage, error)

	// activity
	AppendActivity(domain.ActivityLog) (domain.ActivityLog, error)
	ListRecentActivity(ownerID string, limit int) ([]domain.ActivityLog, error)
	CountActivitySince(ownerID string, cutoff time.Time) (int64, error)
}
