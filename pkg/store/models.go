package store

import "time"

// GORM models used for persistence. Foreign keys from owned rows to
// user_models carry ON DELETE CASCADE so removing a user removes
// everything that references it.
type UserModel struct {
	ID                string `gorm:"primaryKey"`
	Email             string `gorm:"uniqueIndex;not null"`
	FirstName         string `gorm:"not null"`
	LastName          string `gorm:"not null"`
	ProfilePictureURL *string
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

type TaskModel struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"not null;index"`
	User        UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Title       string    `gorm:"not null"`
	Description *string
	Status      string `gorm:"not null"`
	Priority    string `gorm:"not null"`
	DueDate     *time.Time
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type DocumentModel struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"not null;index"`
	User        UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Name        string    `gorm:"not null"`
	Description *string
	FileURL     string `gorm:"not null"`
	FileType    string `gorm:"not null"`
	FileSize    int64  `gorm:"not null"`
	FolderPath  *string
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type AIAgentModel struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"not null"`
	Description    string `gorm:"not null"`
	AvatarURL      *string
	Specialization string    `gorm:"not null"`
	IsActive       bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

type ChatMessageModel struct {
	ID            string       `gorm:"primaryKey"`
	UserID        string       `gorm:"not null;index"`
	User          UserModel    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AgentID       string       `gorm:"not null;index"`
	Agent         AIAgentModel `gorm:"foreignKey:AgentID"`
	Message       string       `gorm:"not null"`
	Response      *string
	IsUserMessage bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

type ActivityLogModel struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"not null;index"`
	User        UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Action      string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	EntityType  *string
	EntityID    *string
	CreatedAt   time.Time `gorm:"not null;index"`
}
