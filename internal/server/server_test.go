package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"soloboss/internal/app"
	"soloboss/internal/identity"
	"soloboss/internal/ratelimit"
	"soloboss/pkg/domain"
	"soloboss/pkg/store"
)

type stubResponder struct{}

func (stubResponder) Respond(_, _ string) string { return "Noted. Start with the smallest step." }

const testUserID = "user-1"

func newTestApp(t *testing.T) (*app.App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	if err := st.SaveUser(domain.User{
		ID:        testUserID,
		Email:     "solo@example.com",
		FirstName: "Solo",
		LastName:  "Boss",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	appCore, err := app.New(app.Config{Store: st, Responder: stubResponder{}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return appCore, st
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.App == nil {
		cfg.App, _ = newTestApp(t)
	}
	if cfg.Identity == nil {
		cfg.Identity = identity.StaticResolver{UserID: testUserID}
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": "Send invoice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task expected 201, got %d", resp.StatusCode)
	}
	var task domain.Task
	decodeInto(t, resp, &task)
	if task.Status != domain.TaskPending {
		t.Fatalf("new task status = %q, want pending", task.Status)
	}
	if task.Priority != domain.PriorityMedium {
		t.Fatalf("new task priority = %q, want medium", task.Priority)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/"+task.ID, map[string]any{"status": "completed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update task expected 200, got %d", resp.StatusCode)
	}
	var updated domain.Task
	decodeInto(t, resp, &updated)
	if updated.Status != domain.TaskCompleted {
		t.Fatalf("updated status = %q, want completed", updated.Status)
	}

	var deleted map[string]bool
	decodeInto(t, doJSON(t, http.MethodDelete, ts.URL+"/api/tasks/"+task.ID, nil), &deleted)
	if !deleted["deleted"] {
		t.Fatal("first delete expected deleted=true")
	}

	decodeInto(t, doJSON(t, http.MethodDelete, ts.URL+"/api/tasks/"+task.ID, nil), &deleted)
	if deleted["deleted"] {
		t.Fatal("second delete expected deleted=false")
	}
}

func TestTaskPatchNullClearsDueDate(t *testing.T) {
	ts := newTestServer(t, Config{})

	due := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/tasks", map[string]any{
		"title":   "Quarterly taxes",
		"dueDate": due,
	})
	var task domain.Task
	decodeInto(t, resp, &task)
	if task.DueDate == nil {
		t.Fatal("expected due date on created task")
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/"+task.ID, map[string]any{"dueDate": nil})
	var cleared domain.Task
	decodeInto(t, resp, &cleared)
	if cleared.DueDate != nil {
		t.Fatalf("due date not cleared: %v", cleared.DueDate)
	}
	if cleared.Title != task.Title {
		t.Fatalf("title changed by unrelated patch: %q", cleared.Title)
	}
}

func TestDocumentsFolderFilter(t *testing.T) {
	ts := newTestServer(t, Config{})

	create := func(name string, folder any) {
		body := map[string]any{
			"name":     name,
			"fileUrl":  "uploads/" + name,
			"fileType": "application/pdf",
			"fileSize": 1024,
		}
		if folder != nil {
			body["folderPath"] = folder
		}
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/documents", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create document %q expected 201, got %d", name, resp.StatusCode)
		}
	}
	create("contract.pdf", "clients")
	create("notes.pdf", nil)

	var list struct {
		Items []domain.Document `json:"items"`
		Count int               `json:"count"`
	}

	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/documents", nil), &list)
	if list.Count != 2 {
		t.Fatalf("unfiltered list count = %d, want 2", list.Count)
	}

	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/documents?folder=", nil), &list)
	if list.Count != 1 || list.Items[0].Name != "notes.pdf" {
		t.Fatalf("unfiled filter returned %d items", list.Count)
	}

	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/documents?folder=clients", nil), &list)
	if list.Count != 1 || list.Items[0].Name != "contract.pdf" {
		t.Fatalf("folder filter returned %d items", list.Count)
	}
}

func TestDocumentDownloadWithoutObjectStore(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/documents", map[string]any{
		"name":     "deck.pdf",
		"fileUrl":  "https://files.example.com/deck.pdf",
		"fileType": "application/pdf",
		"fileSize": 2048,
	})
	var doc domain.Document
	decodeInto(t, resp, &doc)

	var download map[string]string
	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/documents/"+doc.ID+"/download", nil), &download)
	if download["url"] != "https://files.example.com/deck.pdf" {
		t.Fatalf("download url = %q, want stored file url", download["url"])
	}
}

func TestChatSendAndHistory(t *testing.T) {
	ts := newTestServer(t, Config{})

	var agents struct {
		Items []domain.AIAgent `json:"items"`
	}
	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/agents", nil), &agents)
	if len(agents.Items) == 0 {
		t.Fatal("expected seeded agents")
	}
	agentID := agents.Items[0].ID

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chat/messages", map[string]any{
		"agentId": agentID,
		"message": "How do I plan my week?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send message expected 201, got %d", resp.StatusCode)
	}
	var reply domain.ChatMessage
	decodeInto(t, resp, &reply)
	if reply.IsUserMessage {
		t.Fatal("reply should be agent-authored")
	}
	if reply.Response == nil || *reply.Response == "" {
		t.Fatal("reply missing response text")
	}

	var history struct {
		Items []domain.ChatMessage `json:"items"`
		Count int                  `json:"count"`
	}
	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/chat/messages?agentId="+agentID, nil), &history)
	if history.Count != 2 {
		t.Fatalf("history count = %d, want 2 (user + agent)", history.Count)
	}
}

func TestChatSendUnknownAgent(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chat/messages", map[string]any{
		"agentId": "no-such-agent",
		"message": "hello",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown agent expected 404, got %d", resp.StatusCode)
	}
}

func TestChatRateLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewLimiter(redis.Addr(), "", "", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	appCore, _ := newTestApp(t)
	ts := newTestServer(t, Config{App: appCore, ChatLimiter: limiter})

	var agents struct {
		Items []domain.AIAgent `json:"items"`
	}
	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/agents", nil), &agents)
	body := map[string]any{"agentId": agents.Items[0].ID, "message": "hi"}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chat/messages", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first send expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/chat/messages", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second send expected 429, got %d", resp.StatusCode)
	}
}

func TestDashboardStats(t *testing.T) {
	ts := newTestServer(t, Config{})

	for i := 0; i < 3; i++ {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": fmt.Sprintf("task %d", i)})
		var task domain.Task
		decodeInto(t, resp, &task)
		if i == 0 {
			resp = doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/"+task.ID, map[string]any{"status": "completed"})
			resp.Body.Close()
		}
		if i == 1 {
			resp = doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/"+task.ID, map[string]any{"status": "in_progress"})
			resp.Body.Close()
		}
	}

	var stats domain.DashboardStats
	decodeInto(t, doJSON(t, http.MethodGet, ts.URL+"/api/dashboard/stats", nil), &stats)
	if stats.TotalTasks != 3 {
		t.Fatalf("totalTasks = %d, want 3", stats.TotalTasks)
	}
	if stats.CompletedTasks != 1 {
		t.Fatalf("completedTasks = %d, want 1", stats.CompletedTasks)
	}
	if stats.PendingTasks != 1 {
		t.Fatalf("pendingTasks = %d, want 1", stats.PendingTasks)
	}
	if stats.RecentActivityCount == 0 {
		t.Fatal("expected recent activity from task mutations")
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/profile", map[string]any{"email": "not-an-email"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed email expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/profile", map[string]any{"firstName": "Sam"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile update expected 200, got %d", resp.StatusCode)
	}
	var user domain.User
	decodeInto(t, resp, &user)
	if user.FirstName != "Sam" {
		t.Fatalf("firstName = %q, want Sam", user.FirstName)
	}
}

func TestUnauthenticatedRequest(t *testing.T) {
	ts := newTestServer(t, Config{Identity: identity.StaticResolver{}})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/tasks", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
