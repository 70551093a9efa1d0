package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"soloboss/pkg/domain"
)

const migrateLockID int64 = 81928192

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent instances do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&UserModel{},
			&TaskModel{},
			&DocumentModel{},
			&AIAgentModel{},
			&ChatMessageModel{},
			&ActivityLogModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// SaveUser registers or updates a user row.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	stamp(&model.CreatedAt, &model.UpdatedAt)
	return s.db.Save(&model).Error
}

// GetUser returns a user by ID.
func (s *GormStore) GetUser(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UpdateUser applies a partial update to a user row.
func (s *GormStore) UpdateUser(id string, updates map[string]any) (domain.User, bool, error) {
	payload := withUpdatedAt(updates)
	res := s.db.Model(&UserModel{}).Where("id = ?", id).Updates(payload)
	if res.Error != nil {
		return domain.User{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.User{}, false, nil
	}
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// DeleteUser removes a user; owned rows go with it via FK cascade.
func (s *GormStore) DeleteUser(id string) error {
	return s.db.Delete(&UserModel{}, "id = ?", id).Error
}

// CreateTask inserts a task row for its owner and returns it with the
// store-assigned timestamps.
func (s *GormStore) CreateTask(t domain.Task) (domain.Task, error) {
	model := taskToModel(t)
	stamp(&model.CreatedAt, &model.UpdatedAt)
	if err := s.db.Create(&model).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domain.Task{}, ErrOwnerMissing
		}
		return domain.Task{}, err
	}
	return taskFromModel(model), nil
}

// ListTasks returns the owner's tasks, newest first.
func (s *GormStore) ListTasks(ownerID string) ([]domain.Task, error) {
	var models []TaskModel
	if err := s.db.Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Task, 0, len(models))
	for _, m := range models {
		res = append(res, taskFromModel(m))
	}
	return res, nil
}

// UpdateTask writes the given columns on the row matching both the task id
// and the owner id in a single statement. Zero rows affected means the task
// does not exist or belongs to someone else; the two are indistinguishable.
func (s *GormStore) UpdateTask(ownerID, taskID string, updates map[string]any) (domain.Task, bool, error) {
	payload := withUpdatedAt(updates)
	res := s.db.Model(&TaskModel{}).
		Where("id = ? AND user_id = ?", taskID, ownerID).
		Updates(payload)
	if res.Error != nil {
		return domain.Task{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Task{}, false, nil
	}
	var model TaskModel
	if err := s.db.First(&model, "id = ?", taskID).Error; err != nil {
		return domain.Task{}, false, err
	}
	return taskFromModel(model), true, nil
}

// DeleteTask removes the row matching both predicates. False means nothing
// matched; that is a normal outcome, not an error.
func (s *GormStore) DeleteTask(ownerID, taskID string) (bool, error) {
	res := s.db.Delete(&TaskModel{}, "id = ? AND user_id = ?", taskID, ownerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountTasks returns the owner's task count.
func (s *GormStore) CountTasks(ownerID string) (int64, error) {
	var count int64
	err := s.db.Model(&TaskModel{}).Where("user_id = ?", ownerID).Count(&count).Error
	return count, err
}

// CountTasksByStatus returns the owner's task count for one status bucket.
func (s *GormStore) CountTasksByStatus(ownerID string, status domain.TaskStatus) (int64, error) {
	var count int64
	err := s.db.Model(&TaskModel{}).
		Where("user_id = ? AND status = ?", ownerID, string(status)).
		Count(&count).Error
	return count, err
}

// CreateDocument inserts a document metadata row for its owner.
func (s *GormStore) CreateDocument(d domain.Document) (domain.Document, error) {
	model := documentToModel(d)
	stamp(&model.CreatedAt, &model.UpdatedAt)
	if err := s.db.Create(&model).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domain.Document{}, ErrOwnerMissing
		}
		return domain.Document{}, err
	}
	return documentFromModel(model), nil
}

// ListDocuments returns the owner's documents, newest first, with the
// three-way folder filter ANDed onto the owner predicate.
func (s *GormStore) ListDocuments(ownerID string, folder domain.FolderFilter) ([]domain.Document, error) {
	tx := s.db.Where("user_id = ?", ownerID)
	if folder.Set {
		if folder.Path == nil {
			tx = tx.Where("folder_path IS NULL")
		} else {
			tx = tx.Where("folder_path = ?", *folder.Path)
		}
	}
	var models []DocumentModel
	if err := tx.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		res = append(res, documentFromModel(m))
	}
	return res, nil
}

// GetDocument returns one of the owner's documents.
func (s *GormStore) GetDocument(ownerID, documentID string) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.First(&model, "id = ? AND user_id = ?", documentID, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// UpdateDocument mirrors UpdateTask for document rows.
func (s *GormStore) UpdateDocument(ownerID, documentID string, updates map[string]any) (domain.Document, bool, error) {
	payload := withUpdatedAt(updates)
	res := s.db.Model(&DocumentModel{}).
		Where("id = ? AND user_id = ?", documentID, ownerID).
		Updates(payload)
	if res.Error != nil {
		return domain.Document{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Document{}, false, nil
	}
	var model DocumentModel
	if err := s.db.First(&model, "id = ?", documentID).Error; err != nil {
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// DeleteDocument mirrors DeleteTask for document rows.
func (s *GormStore) DeleteDocument(ownerID, documentID string) (bool, error) {
	res := s.db.Delete(&DocumentModel{}, "id = ? AND user_id = ?", documentID, ownerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountDocuments returns the owner's document count.
func (s *GormStore) CountDocuments(ownerID string) (int64, error) {
	var count int64
	err := s.db.Model(&DocumentModel{}).Where("user_id = ?", ownerID).Count(&count).Error
	return count, err
}

// SaveAgent stores or updates a catalog agent.
func (s *GormStore) SaveAgent(a domain.AIAgent) error {
	model := agentToModel(a)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	return s.db.Save(&model).Error
}

// GetAgent returns a catalog agent by ID.
func (s *GormStore) GetAgent(id string) (domain.AIAgent, bool, error) {
	var model AIAgentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AIAgent{}, false, nil
		}
		return domain.AIAgent{}, false, err
	}
	return agentFromModel(model), true, nil
}

// ListActiveAgents returns active agents ordered by name.
func (s *GormStore) ListActiveAgents() ([]domain.AIAgent, error) {
	var models []AIAgentModel
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.AIAgent, 0, len(models))
	for _, m := range models {
		res = append(res, agentFromModel(m))
	}
	return res, nil
}

// AgentCount returns the catalog size, active or not.
func (s *GormStore) AgentCount() (int64, error) {
	var count int64
	err := s.db.Model(&AIAgentModel{}).Count(&count).Error
	return count, err
}

// AppendChatMessage records one side of a chat exchange.
func (s *GormStore) AppendChatMessage(msg domain.ChatMessage) (domain.ChatMessage, error) {
	model := chatMessageToModel(msg)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Create(&model).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domain.ChatMessage{}, ErrOwnerMissing
		}
		return domain.ChatMessage{}, err
	}
	return chatMessageFromModel(model), nil
}

// ListChatMessages returns recent messages for an (owner, agent) pair,
// newest first, capped at limit.
func (s *GormStore) ListChatMessages(ownerID, agentID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}
	var models []ChatMessageModel
	if err := s.db.Where("user_id = ? AND agent_id = ?", ownerID, agentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, chatMessageFromModel(m))
	}
	return msgs, nil
}

// AppendActivity records an activity log row.
func (s *GormStore) AppendActivity(entry domain.ActivityLog) (domain.ActivityLog, error) {
	model := activityToModel(entry)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Create(&model).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domain.ActivityLog{}, ErrOwnerMissing
		}
		return domain.ActivityLog{}, err
	}
	return activityFromModel(model), nil
}

// ListRecentActivity returns the owner's latest activity rows, newest first.
func (s *GormStore) ListRecentActivity(ownerID string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		return []domain.ActivityLog{}, nil
	}
	var models []ActivityLogModel
	if err := s.db.Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ActivityLog, 0, len(models))
	for _, m := range models {
		res = append(res, activityFromModel(m))
	}
	return res, nil
}

// CountActivitySince counts the owner's activity rows at or after cutoff.
func (s *GormStore) CountActivitySince(ownerID string, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&ActivityLogModel{}).
		Where("user_id = ? AND created_at >= ?", ownerID, cutoff).
		Count(&count).Error
	return count, err
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

func withUpdatedAt(updates map[string]any) map[string]any {
	payload := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		payload[k] = v
	}
	payload["updated_at"] = time.Now().UTC()
	return payload
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:                m.ID,
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		ProfilePictureURL: m.ProfilePictureURL,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func taskToModel(t domain.Task) TaskModel {
	return TaskModel{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func taskFromModel(m TaskModel) domain.Task {
	return domain.Task{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		Status:      domain.TaskStatus(m.Status),
		Priority:    domain.TaskPriority(m.Priority),
		DueDate:     m.DueDate,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Description: d.Description,
		FileURL:     d.FileURL,
		FileType:    d.FileType,
		FileSize:    d.FileSize,
		FolderPath:  d.FolderPath,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Description: m.Description,
		FileURL:     m.FileURL,
		FileType:    m.FileType,
		FileSize:    m.FileSize,
		FolderPath:  m.FolderPath,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func agentToModel(a domain.AIAgent) AIAgentModel {
	return AIAgentModel{
		ID:             a.ID,
		Name:           a.Name,
		Description:    a.Description,
		AvatarURL:      a.AvatarURL,
		Specialization: a.Specialization,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
	}
}

func agentFromModel(m AIAgentModel) domain.AIAgent {
	return domain.AIAgent{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		AvatarURL:      m.AvatarURL,
		Specialization: m.Specialization,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}
}

func chatMessageToModel(msg domain.ChatMessage) ChatMessageModel {
	return ChatMessageModel{
		ID:            msg.ID,
		UserID:        msg.UserID,
		AgentID:       msg.AgentID,
		Message:       msg.Message,
		Response:      msg.Response,
		IsUserMessage: msg.IsUserMessage,
		CreatedAt:     msg.CreatedAt,
	}
}

func chatMessageFromModel(m ChatMessageModel) domain.ChatMessage {
	return domain.ChatMessage{
		ID:            m.ID,
		UserID:        m.UserID,
		AgentID:       m.AgentID,
		Message:       m.Message,
		Response:      m.Response,
		IsUserMessage: m.IsUserMessage,
		CreatedAt:     m.CreatedAt,
	}
}

func activityToModel(entry domain.ActivityLog) ActivityLogModel {
	var entityType *string
	if entry.EntityType != nil {
		value := string(*entry.EntityType)
		entityType = &value
	}
	return ActivityLogModel{
		ID:          entry.ID,
		UserID:      entry.UserID,
		Action:      entry.Action,
		Description: entry.Description,
		EntityType:  entityType,
		EntityID:    entry.EntityID,
		CreatedAt:   entry.CreatedAt,
	}
}

func activityFromModel(m ActivityLogModel) domain.ActivityLog {
	var entityType *domain.ActivityEntity
	if m.EntityType != nil {
		value := domain.ActivityEntity(*m.EntityType)
		entityType = &value
	}
	return domain.ActivityLog{
		ID:          m.ID,
		UserID:      m.UserID,
		Action:      m.Action,
		Description: m.Description,
		EntityType:  entityType,
		EntityID:    m.EntityID,
		CreatedAt:   m.CreatedAt,
	}
}
