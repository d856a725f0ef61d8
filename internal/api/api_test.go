package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/pit/internal/index"
	"github.com/starford/pit/internal/task"
	"github.com/starford/pit/internal/taskservice"
	"github.com/starford/pit/internal/testutil"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const homeList = "# Home\n- [ ] dishes %prio=1 %due=2024-05-03\n- [x] laundry %done=2024-05-01T09:00\n"

// testEnv sets up a temp vault holding home.md, a SQLite DB, the service and
// the router. A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string, opts ...taskservice.Option) (http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil, opts...)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler, opts ...taskservice.Option) (http.Handler, string) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t, map[string]string{"home.md": homeList})
	db := testutil.TestDB(t)
	logger := testutil.Discard()
	ex := testutil.Extractor(testNow)
	if err := index.Sync(db, store, ex, logger); err != nil {
		t.Fatal(err)
	}

	opts = append([]taskservice.Option{
		taskservice.WithLogger(logger),
		taskservice.WithClock(func() time.Time { return testNow }),
	}, opts...)
	svc := taskservice.NewService(store, db, ex, opts...)
	return NewRouter(svc, authEnabled, token, sseHandler), vaultDir
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListDocuments(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Documents) != 1 || resp.Documents[0].Title != "Home" || resp.Documents[0].TaskCount != 2 {
		t.Errorf("documents = %+v", resp.Documents)
	}
}

func TestListTasks(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/tasks?path=home.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc DocumentTasks
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if len(doc.Tasks) != 2 {
		t.Fatalf("tasks = %+v", doc.Tasks)
	}
	if got := doc.Tasks[0]; got.Line != 1 || got.DueRelative != "in 2 days" {
		t.Errorf("first task = %+v", got)
	}
	if !doc.Tasks[1].Completed {
		t.Errorf("second task should be completed")
	}
}

func TestListTasks_BadRequests(t *testing.T) {
	router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/tasks", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing path = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/tasks?path=nope.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing document = %d, want 404", w.Code)
	}
}

func TestSearchTasks(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/tasks/search?completed=false", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp TaskListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Tasks) != 1 || resp.Tasks[0].Line != 1 {
		t.Errorf("response = %+v", resp)
	}

	if w := do(t, router, http.MethodGet, "/tasks/search?completed=maybe", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad completed = %d, want 400", w.Code)
	}
}

func TestRollTask(t *testing.T) {
	router, vaultDir := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/tasks/roll?path=home.md&open=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var v TaskView
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.Line != 1 || v.Col != 0 {
		t.Errorf("rolled %+v, want line 1", v)
	}

	_ = os.WriteFile(filepath.Join(vaultDir, "flat.md"), []byte("- [ ] no priority\n"), 0o644)
	if w := do(t, router, http.MethodGet, "/tasks/roll?path=flat.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("no eligible task = %d, want 404", w.Code)
	}
}

func TestToggleTask(t *testing.T) {
	router, vaultDir := testEnv(t, "", taskservice.WithSettleOnWrite())

	w := do(t, router, http.MethodPost, "/tasks/toggle", map[string]any{"path": "home.md", "line": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res ToggleResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Queued || res.Task == nil || res.Task.Completed {
		t.Errorf("result = %+v", res)
	}

	data, _ := os.ReadFile(filepath.Join(vaultDir, "home.md"))
	if !strings.HasSuffix(string(data), "\n- [ ] laundry\n") {
		t.Errorf("file = %q", data)
	}
}

func TestToggleTask_Queued(t *testing.T) {
	router, _ := testEnv(t, "")

	body := map[string]any{"path": "home.md", "line": 1}
	if w := do(t, router, http.MethodPost, "/tasks/toggle", body); w.Code != http.StatusOK {
		t.Fatalf("first toggle = %d, body = %s", w.Code, w.Body.String())
	}
	w := do(t, router, http.MethodPost, "/tasks/toggle", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("second toggle = %d, want 202", w.Code)
	}
	var res ToggleResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Queued {
		t.Errorf("result = %+v, want queued", res)
	}
}

func TestToggleTask_Errors(t *testing.T) {
	router, _ := testEnv(t, "")

	cases := []struct {
		name string
		body any
		want int
	}{
		{"missing line", map[string]any{"path": "home.md"}, http.StatusBadRequest},
		{"negative line", map[string]any{"path": "home.md", "line": -1}, http.StatusBadRequest},
		{"missing path", map[string]any{"line": 1}, http.StatusBadRequest},
		{"no task", map[string]any{"path": "home.md", "line": 0}, http.StatusNotFound},
		{"no document", map[string]any{"path": "ghost.md", "line": 0}, http.StatusNotFound},
		{"stale checksum", map[string]any{"path": "home.md", "line": 1, "checksum": "stale"}, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := do(t, router, http.MethodPost, "/tasks/toggle", tc.body); w.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/tasks/toggle", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d, want 400", w.Code)
	}
}

func TestStats(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/stats?path=home.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var st StatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.History.Today != 1 || len(st.History.Days) != task.DefaultHistoryDays+1 {
		t.Errorf("history = %+v", st.History)
	}
	if st.Sparkline != "       █" {
		t.Errorf("sparkline = %q", st.Sparkline)
	}
}

func TestSettings(t *testing.T) {
	prio := 3
	router, _ := testEnv(t, "", taskservice.WithSettings(taskservice.Settings{DefaultPriority: &prio, MarkChildrenComplete: true}))

	w := do(t, router, http.MethodGet, "/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var s SettingsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s.DefaultPriority == nil || *s.DefaultPriority != 3 || !s.MarkChildrenComplete || s.HistoryDays != task.DefaultHistoryDays {
		t.Errorf("settings = %+v", s)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tasks?path=home.md", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/documents", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/documents", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "tok", sseStub())

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "tok", sseStub())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenForGet(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "tok", sseStub())

	if w := do(t, router, http.MethodGet, "/events?access_token=tok", nil); w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/tasks/toggle?access_token=tok", map[string]any{"path": "home.md", "line": 1}); w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
}
