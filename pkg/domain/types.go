package domain

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

type ActivityEntity string

const (
	EntityTask     ActivityEntity = "task"
	EntityDocument ActivityEntity = "document"
	EntityChat     ActivityEntity = "chat"
	EntityProfile  ActivityEntity = "profile"
)

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	ProfilePictureURL *string   `json:"profilePictureUrl"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type Document struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	FileURL     string    `json:"fileUrl"`
	FileType    string    `json:"fileType"`
	FileSize    int64     `json:"fileSize"`
	FolderPath  *string   `json:"folderPath"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AIAgent struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	AvatarURL      *string   `json:"avatarUrl"`
	Specialization string    `json:"specialization"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ChatMessage struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	AgentID       string    `json:"agentId"`
	Message       string    `json:"message"`
	Response      *string   `json:"response"`
	IsUserMessage bool      `json:"isUserMessage"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ActivityLog struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	EntityType  *ActivityEntity `json:"entityType"`
	EntityID    *string         `json:"entityId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// DashboardStats aggregates per-owner counts. The task buckets are
// independent queries: in_progress tasks count toward TotalTasks only.
type DashboardStats struct {
	TotalTasks          int64 `json:"totalTasks"`
	CompletedTasks      int64 `json:"completedTasks"`
	PendingTasks        int64 `json:"pendingTasks"`
	TotalDocuments      int64 `json:"totalDocuments"`
	RecentActivityCount int64 `json:"recentActivityCount"`
}

// FolderFilter is the three-way documents filter: zero value matches every
// folder, Set with nil Path matches unfiled documents, Set with a Path
// matches that folder exactly.
type FolderFilter struct {
	Set  bool
	Path *string
}

// MatchAllFolders is the unconstrained filter.
func MatchAllFolders() FolderFilter { return FolderFilter{} }

// MatchUnfiled selects documents whose folder path is unset.
func MatchUnfiled() FolderFilter { return FolderFilter{Set: true} }

// MatchFolder selects documents in exactly the given folder.
func MatchFolder(path string) FolderFilter { return FolderFilter{Set: true, Path: &path} }
