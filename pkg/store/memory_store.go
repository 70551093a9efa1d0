package store

import (
	"sort"
	"sync"
	"time"

	"soloboss/pkg/domain"
)

// MemoryStore keeps every table in-process behind one mutex. It mirrors the
// GormStore contract exactly (combined owner predicate, column-keyed partial
// updates, cascade on user delete) and backs tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	tasks    map[string]domain.Task
	docs     map[string]domain.Document
	agents   map[string]domain.AIAgent
	messages []domain.ChatMessage
	activity []domain.ActivityLog

	taskOrder  []string
	docOrder   []string
	agentOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]domain.User),
		tasks:  make(map[string]domain.Task),
		docs:   make(map[string]domain.Document),
		agents: make(map[string]domain.AIAgent),
	}
}

// SaveUser stores or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&u.CreatedAt, &u.UpdatedAt)
	m.users[u.ID] = u
	return nil
}

// GetUser returns a user by ID.
func (m *MemoryStore) GetUser(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// UpdateUser applies a partial update to a user.
func (m *MemoryStore) UpdateUser(id string, updates map[string]any) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, false, nil
	}
	for key, value := range updates {
		switch key {
		case "email":
			u.Email = value.(string)
		case "first_name":
			u.FirstName = value.(string)
		case "last_name":
			u.LastName = value.(string)
		case "profile_picture_url":
			u.ProfilePictureURL = optionalString(value)
		}
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u, true, nil
}

// DeleteUser removes a user and cascades over every owned row.
func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	for taskID, t := range m.tasks {
		if t.UserID == id {
			delete(m.tasks, taskID)
			m.taskOrder = removeID(m.taskOrder, taskID)
		}
	}
	for docID, d := range m.docs {
		if d.UserID == id {
			delete(m.docs, docID)
			m.docOrder = removeID(m.docOrder, docID)
		}
	}
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.UserID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	keptActivity := m.activity[:0]
	for _, entry := range m.activity {
		if entry.UserID != id {
			keptActivity = append(keptActivity, entry)
		}
	}
	m.activity = keptActivity
	return nil
}

// CreateTask inserts a task, enforcing the owner reference.
func (m *MemoryStore) CreateTask(t domain.Task) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[t.UserID]; !ok {
		return domain.Task{}, ErrOwnerMissing
	}
	stamp(&t.CreatedAt, &t.UpdatedAt)
	m.tasks[t.ID] = t
	m.taskOrder = append(m.taskOrder, t.ID)
	return t, nil
}

// ListTasks returns the owner's tasks, newest first.
func (m *MemoryStore) ListTasks(ownerID string) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Task, 0, len(m.taskOrder))
	for _, id := range m.taskOrder {
		if t, ok := m.tasks[id]; ok && t.UserID == ownerID {
			res = append(res, t)
		}
	}
	sortNewestFirst(res, func(t domain.Task) time.Time { return t.CreatedAt })
	return res, nil
}

// UpdateTask applies a partial update when both predicates match.
func (m *MemoryStore) UpdateTask(ownerID, taskID string, updates map[string]any) (domain.Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return domain.Task{}, false, nil
	}
	for key, value := range updates {
		switch key {
		case "title":
			t.Title = value.(string)
		case "description":
			t.Description = optionalString(value)
		case "status":
			t.Status = domain.TaskStatus(value.(string))
		case "priority":
			t.Priority = domain.TaskPriority(value.(string))
		case "due_date":
			t.DueDate = optionalTime(value)
		}
	}
	t.UpdatedAt = time.Now().UTC()
	m.tasks[taskID] = t
	return t, true, nil
}

// DeleteTask removes the task when both predicates match.
func (m *MemoryStore) DeleteTask(ownerID, taskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return false, nil
	}
	delete(m.tasks, taskID)
	m.taskOrder = removeID(m.taskOrder, taskID)
	return true, nil
}

// CountTasks returns the owner's task count.
func (m *MemoryStore) CountTasks(ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, t := range m.tasks {
		if t.UserID == ownerID {
			count++
		}
	}
	return count, nil
}

// CountTasksByStatus returns the owner's task count for one status bucket.
func (m *MemoryStore) CountTasksByStatus(ownerID string, status domain.TaskStatus) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, t := range m.tasks {
		if t.UserID == ownerID && t.Status == status {
			count++
		}
	}
	return count, nil
}

// CreateDocument inserts a document, enforcing the owner reference.
func (m *MemoryStore) CreateDocument(d domain.Document) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[d.UserID]; !ok {
		return domain.Document{}, ErrOwnerMissing
	}
	stamp(&d.CreatedAt, &d.UpdatedAt)
	m.docs[d.ID] = d
	m.docOrder = append(m.docOrder, d.ID)
	return d, nil
}

// ListDocuments returns the owner's documents honoring the folder filter.
func (m *MemoryStore) ListDocuments(ownerID string, folder domain.FolderFilter) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Document, 0, len(m.docOrder))
	for _, id := range m.docOrder {
		d, ok := m.docs[id]
		if !ok || d.UserID != ownerID {
			continue
		}
		if folder.Set {
			if folder.Path == nil {
				if d.FolderPath != nil {
					continue
				}
			} else if d.FolderPath == nil || *d.FolderPath != *folder.Path {
				continue
			}
		}
		res = append(res, d)
	}
	sortNewestFirst(res, func(d domain.Document) time.Time { return d.CreatedAt })
	return res, nil
}

// GetDocument returns one of the owner's documents.
func (m *MemoryStore) GetDocument(ownerID, documentID string) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[documentID]
	if !ok || d.UserID != ownerID {
		return domain.Document{}, false, nil
	}
	return d, true, nil
}

// UpdateDocument applies a partial update when both predicates match.
func (m *MemoryStore) UpdateDocument(ownerID, documentID string, updates map[string]any) (domain.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[documentID]
	if !ok || d.UserID != ownerID {
		return domain.Document{}, false, nil
	}
	for key, value := range updates {
		switch key {
		case "name":
			d.Name = value.(string)
		case "description":
			d.Description = optionalString(value)
		case "file_url":
			d.FileURL = value.(string)
		case "file_type":
			d.FileType = value.(string)
		case "file_size":
			d.FileSize = value.(int64)
		case "folder_path":
			d.FolderPath = optionalString(value)
		}
	}
	d.UpdatedAt = time.Now().UTC()
	m.docs[documentID] = d
	return d, true, nil
}

// DeleteDocument removes the document when both predicates match.
func (m *MemoryStore) DeleteDocument(ownerID, documentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[documentID]
	if !ok || d.UserID != ownerID {
		return false, nil
	}
	delete(m.docs, documentID)
	m.docOrder = removeID(m.docOrder, documentID)
	return true, nil
}

// CountDocuments returns the owner's document count.
func (m *MemoryStore) CountDocuments(ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, d := range m.docs {
		if d.UserID == ownerID {
			count++
		}
	}
	return count, nil
}

// SaveAgent stores or replaces a catalog agent.
func (m *MemoryStore) SaveAgent(a domain.AIAgent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, exists := m.agents[a.ID]; !exists {
		m.agentOrder = append(m.agentOrder, a.ID)
	}
	m.agents[a.ID] = a
	return nil
}

// GetAgent returns a catalog agent by ID.
func (m *MemoryStore) GetAgent(id string) (domain.AIAgent, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[id]
	return a, ok, nil
}

// ListActiveAgents returns active agents ordered by name.
func (m *MemoryStore) ListActiveAgents() ([]domain.AIAgent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.AIAgent, 0, len(m.agentOrder))
	for _, id := range m.agentOrder {
		if a, ok := m.agents[id]; ok && a.IsActive {
			res = append(res, a)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

// AgentCount returns the catalog size.
func (m *MemoryStore) AgentCount() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.agents)), nil
}

// AppendChatMessage records one side of a chat exchange.
func (m *MemoryStore) AppendChatMessage(msg domain.ChatMessage) (domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[msg.UserID]; !ok {
		return domain.ChatMessage{}, ErrOwnerMissing
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

// ListChatMessages returns recent messages for an (owner, agent) pair,
// newest first, capped at limit.
func (m *MemoryStore) ListChatMessages(ownerID, agentID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ChatMessage, 0, limit)
	for _, msg := range m.messages {
		if msg.UserID == ownerID && msg.AgentID == agentID {
			res = append(res, msg)
		}
	}
	sortNewestFirst(res, func(msg domain.ChatMessage) time.Time { return msg.CreatedAt })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// AppendActivity records an activity log row.
func (m *MemoryStore) AppendActivity(entry domain.ActivityLog) (domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[entry.UserID]; !ok {
		return domain.ActivityLog{}, ErrOwnerMissing
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.activity = append(m.activity, entry)
	return entry, nil
}

// ListRecentActivity returns the owner's latest rows, newest first.
func (m *MemoryStore) ListRecentActivity(ownerID string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		return []domain.ActivityLog{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ActivityLog, 0, limit)
	for _, entry := range m.activity {
		if entry.UserID == ownerID {
			res = append(res, entry)
		}
	}
	sortNewestFirst(res, func(entry domain.ActivityLog) time.Time { return entry.CreatedAt })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// CountActivitySince counts the owner's rows at or after cutoff.
func (m *MemoryStore) CountActivitySince(ownerID string, cutoff time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, entry := range m.activity {
		if entry.UserID == ownerID && !entry.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func sortNewestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

func removeID(ids []string, id string) []string {
	filtered := ids[:0]
	for _, item := range ids {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func optionalString(value any) *string {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case string:
		return &v
	case *string:
		return v
	}
	return nil
}

func optionalTime(value any) *time.Time {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	}
	return nil
}
