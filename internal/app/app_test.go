package app

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"soloboss/pkg/domain"
	"soloboss/pkg/store"
)

type fixedResponder struct {
	reply string
}

func (f fixedResponder) Respond(_, _ string) string { return f.reply }

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	if err := st.SaveUser(domain.User{ID: "owner", Email: "owner@example.com"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	a, err := New(Config{Store: st, Responder: fixedResponder{reply: "do the small thing first"}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, st
}

func mustPatch(t *testing.T, raw string) Patch {
	t.Helper()
	var p Patch
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("parse patch %s: %v", raw, err)
	}
	return p
}

func TestCreateTaskDefaults(t *testing.T) {
	a, _ := newTestApp(t)

	task, err := a.CreateTask("owner", TaskInput{Title: "  write proposal  "})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Title != "write proposal" {
		t.Fatalf("title = %q, want trimmed", task.Title)
	}
	if task.Status != domain.TaskPending {
		t.Fatalf("status = %q, want pending", task.Status)
	}
	if task.Priority != domain.PriorityMedium {
		t.Fatalf("priority = %q, want medium default", task.Priority)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := a.CreateTask("owner", TaskInput{Title: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank title: err = %v, want ErrInvalidInput", err)
	}
	if _, err := a.CreateTask("owner", TaskInput{Title: "x", Priority: "urgent"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad priority: err = %v, want ErrInvalidInput", err)
	}
	if _, err := a.CreateTask("ghost", TaskInput{Title: "x"}); !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("unknown owner: err = %v, want ErrOwnerNotFound", err)
	}
}

func TestUpdateTaskPatchSemantics(t *testing.T) {
	a, _ := newTestApp(t)
	created, err := a.CreateTask("owner", TaskInput{Title: "taxes", Priority: "high"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	task, err := a.UpdateTask("owner", created.ID, mustPatch(t, `{"description":"quarterly filing","status":"in_progress"}`))
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if task.Description == nil || *task.Description != "quarterly filing" {
		t.Fatalf("description = %v", task.Description)
	}
	if task.Status != domain.TaskInProgress {
		t.Fatalf("status = %q", task.Status)
	}
	if task.Priority != domain.PriorityHigh {
		t.Fatalf("priority changed by unrelated patch: %q", task.Priority)
	}

	task, err = a.UpdateTask("owner", created.ID, mustPatch(t, `{"description":null}`))
	if err != nil {
		t.Fatalf("null description: %v", err)
	}
	if task.Description != nil {
		t.Fatalf("description not cleared: %v", task.Description)
	}

	if _, err := a.UpdateTask("owner", created.ID, mustPatch(t, `{"title":null}`)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("null title: err = %v, want ErrInvalidInput", err)
	}
	if _, err := a.UpdateTask("owner", created.ID, mustPatch(t, `{"status":"done"}`)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status: err = %v, want ErrInvalidInput", err)
	}
	if _, err := a.UpdateTask("owner", "nope", mustPatch(t, `{}`)); !errors.Is(err, ErrNotFoundOrDenied) {
		t.Fatalf("missing task: err = %v, want ErrNotFoundOrDenied", err)
	}
}

func TestTaskMutationsRecordActivity(t *testing.T) {
	a, _ := newTestApp(t)
	task, err := a.CreateTask("owner", TaskInput{Title: "invoice"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := a.DeleteTask("owner", task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	entries, err := a.RecentActivity("owner", 10)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	actions := make(map[string]bool, len(entries))
	for _, entry := range entries {
		actions[entry.Action] = true
	}
	if !actions["task_created"] || !actions["task_deleted"] {
		t.Fatalf("activity actions = %v, want task_created and task_deleted", actions)
	}
}

func TestSendMessagePersistsBothSides(t *testing.T) {
	a, st := newTestApp(t)
	agents, err := a.ListAgents()
	if err != nil || len(agents) == 0 {
		t.Fatalf("list agents: %v (%d)", err, len(agents))
	}
	agentID := agents[0].ID

	reply, err := a.SendMessage("owner", agentID, "how do I price this?")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply.IsUserMessage {
		t.Fatal("reply flagged as user message")
	}
	if reply.Response == nil || *reply.Response != "do the small thing first" {
		t.Fatalf("response = %v", reply.Response)
	}

	msgs, err := st.ListChatMessages("owner", agentID, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want user + agent rows", len(msgs))
	}
}

func TestSendMessageInactiveAgentWritesNothing(t *testing.T) {
	a, st := newTestApp(t)
	if err := st.SaveAgent(domain.AIAgent{ID: "retired", Name: "Retired", Specialization: "finance", IsActive: false}); err != nil {
		t.Fatalf("save agent: %v", err)
	}

	if _, err := a.SendMessage("owner", "retired", "hello"); !errors.Is(err, ErrAgentInactive) {
		t.Fatalf("err = %v, want ErrAgentInactive", err)
	}
	msgs, err := st.ListChatMessages("owner", "retired", 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("persisted %d messages for rejected send, want 0", len(msgs))
	}
}

func TestSendMessageUnknownAgentAndOwner(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := a.SendMessage("owner", "nope", "hello"); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("unknown agent: err = %v, want ErrAgentNotFound", err)
	}
	if _, err := a.SendMessage("ghost", "whatever", "hello"); !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("unknown owner: err = %v, want ErrOwnerNotFound", err)
	}
}

func TestDashboardStatsBuckets(t *testing.T) {
	a, _ := newTestApp(t)

	first, err := a.CreateTask("owner", TaskInput{Title: "one"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	second, err := a.CreateTask("owner", TaskInput{Title: "two"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := a.CreateTask("owner", TaskInput{Title: "three"}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := a.UpdateTask("owner", first.ID, mustPatch(t, `{"status":"completed"}`)); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if _, err := a.UpdateTask("owner", second.ID, mustPatch(t, `{"status":"in_progress"}`)); err != nil {
		t.Fatalf("start task: %v", err)
	}
	if _, err := a.CreateDocument("owner", DocumentInput{Name: "deck.pdf", FileURL: "u", FileType: "pdf", FileSize: 10}); err != nil {
		t.Fatalf("create document: %v", err)
	}

	stats, err := a.DashboardStats("owner")
	if err != nil {
		t.Fatalf("dashboard stats: %v", err)
	}
	if stats.TotalTasks != 3 {
		t.Fatalf("totalTasks = %d, want 3", stats.TotalTasks)
	}
	// The in_progress task raises the total without landing in either bucket.
	if stats.CompletedTasks != 1 || stats.PendingTasks != 1 {
		t.Fatalf("buckets = completed %d pending %d, want 1/1", stats.CompletedTasks, stats.PendingTasks)
	}
	if stats.TotalDocuments != 1 {
		t.Fatalf("totalDocuments = %d, want 1", stats.TotalDocuments)
	}
	if stats.RecentActivityCount == 0 {
		t.Fatal("recentActivityCount = 0, want mutations counted")
	}
}

func TestLogActivityValidation(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := a.LogActivity("owner", ActivityInput{Action: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank action: err = %v, want ErrInvalidInput", err)
	}
	badType := "invoice"
	if _, err := a.LogActivity("owner", ActivityInput{Action: "custom", EntityType: &badType}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad entity type: err = %v, want ErrInvalidInput", err)
	}

	goodType := "task"
	entry, err := a.LogActivity("owner", ActivityInput{Action: "custom", Description: "manual note", EntityType: &goodType})
	if err != nil {
		t.Fatalf("log activity: %v", err)
	}
	if entry.EntityType == nil || *entry.EntityType != domain.EntityTask {
		t.Fatalf("entityType = %v, want task", entry.EntityType)
	}
}

func TestUpdateProfile(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := a.UpdateProfile("owner", mustPatch(t, `{"email":"plainaddress"}`)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad email: err = %v, want ErrInvalidInput", err)
	}

	user, err := a.UpdateProfile("owner", mustPatch(t, `{"firstName":"Ada","profilePictureUrl":null}`))
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if user.FirstName != "Ada" {
		t.Fatalf("firstName = %q", user.FirstName)
	}
	if user.ProfilePictureURL != nil {
		t.Fatalf("profilePictureUrl not cleared: %v", user.ProfilePictureURL)
	}

	if _, err := a.UpdateProfile("ghost", mustPatch(t, `{"firstName":"X"}`)); !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("unknown owner: err = %v, want ErrOwnerNotFound", err)
	}
}

func TestChatHistoryLimits(t *testing.T) {
	a, st := newTestApp(t)
	agents, _ := a.ListAgents()
	agentID := agents[0].ID
	for i := 0; i < 3; i++ {
		if _, err := st.AppendChatMessage(domain.ChatMessage{
			ID:            "m-" + string(rune('a'+i)),
			UserID:        "owner",
			AgentID:       agentID,
			Message:       "hi",
			IsUserMessage: true,
			CreatedAt:     time.Now().Add(time.Duration(i) * time.Millisecond),
		}); err != nil {
			t.Fatalf("append message: %v", err)
		}
	}

	msgs, err := a.ChatHistory("owner", agentID, 2)
	if err != nil {
		t.Fatalf("chat history: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want explicit limit honored", len(msgs))
	}

	msgs, err = a.ChatHistory("owner", agentID, 0)
	if err != nil {
		t.Fatalf("chat history default: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want all 3 under default limit", len(msgs))
	}
}
