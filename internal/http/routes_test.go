package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task_tracker/internal/http/middleware"
	"task_tracker/internal/store"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiError struct {
	Error struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
		Status  int             `json:"status"`
	} `json:"error"`
}

type taskBody struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

type statsBody struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Incomplete     int     `json:"incomplete"`
	CompletionRate float64 `json:"completionRate"`
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return NewRouter(Deps{
		Store:              store.NewMemory(),
		StoreDriver:        store.DriverMemory,
		Version:            "test",
		CORSAllowedOrigins: []string{"*"},
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body %s", w.Code, want, w.Body.String())
	}
}

func createTask(t *testing.T, r http.Handler, body string) taskBody {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/tasks", body)
	expectStatus(t, w, http.StatusCreated)
	return decode[taskBody](t, w)
}

func TestCreateTask_Defaults(t *testing.T) {
	r := newTestRouter(t)

	task := createTask(t, r, `{"title":"Write report","userId":"u1"}`)
	if task.ID == "" {
		t.Fatal("missing id")
	}
	if task.Title != "Write report" || task.UserID != "u1" {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Description != "" || task.Completed {
		t.Fatalf("defaults not applied: %+v", task)
	}
	if task.CreatedAt.IsZero() {
		t.Fatal("createdAt not stamped")
	}
	if task.UpdatedAt != nil {
		t.Fatal("updatedAt set on create")
	}
}

func TestCreateTask_Validation(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/tasks", `{"title":"","userId":"u1"}`)
	expectStatus(t, w, http.StatusBadRequest)

	env := decode[apiError](t, w)
	if env.Error.Message != "Validation failed" || env.Error.Status != 400 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	var details []struct{ Field, Message string }
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details) != 1 || details[0].Field != "title" || details[0].Message != "title is required" {
		t.Fatalf("details = %+v", details)
	}

	w = do(t, r, http.MethodPost, "/api/tasks", `{"title":"x","userId":"u1","completed":"yes"}`)
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodPost, "/api/tasks", `[1,2]`)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestListTasks_Filters(t *testing.T) {
	r := newTestRouter(t)
	createTask(t, r, `{"title":"a","userId":"u1"}`)
	createTask(t, r, `{"title":"b","userId":"u1","completed":true}`)
	createTask(t, r, `{"title":"c","userId":"u2"}`)

	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?userId=u1", 2},
		{"?userId=u1&completed=true", 1},
		{"?completed=false", 2},
		{"?completed=yes", 2},
		{"?userId=nobody", 0},
	}
	for _, tc := range cases {
		w := do(t, r, http.MethodGet, "/api/tasks"+tc.query, "")
		expectStatus(t, w, http.StatusOK)
		tasks := decode[[]taskBody](t, w)
		if len(tasks) != tc.want {
			t.Errorf("%q: got %d tasks, want %d", tc.query, len(tasks), tc.want)
		}
	}
}

func TestListTasks_EmptyIsArray(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/tasks", "")
	expectStatus(t, w, http.StatusOK)
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("body = %s, want []", got)
	}
}

func TestTaskStats(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/tasks/stats?userId=u1", "")
	expectStatus(t, w, http.StatusOK)
	if got := decode[statsBody](t, w); got != (statsBody{}) {
		t.Fatalf("empty stats = %+v", got)
	}

	createTask(t, r, `{"title":"a","userId":"u1","completed":true}`)
	createTask(t, r, `{"title":"b","userId":"u1","completed":true}`)
	createTask(t, r, `{"title":"c","userId":"u1"}`)
	createTask(t, r, `{"title":"d","userId":"u2"}`)

	w = do(t, r, http.MethodGet, "/api/tasks/stats?userId=u1", "")
	expectStatus(t, w, http.StatusOK)
	want := statsBody{Total: 3, Completed: 2, Incomplete: 1, CompletionRate: 66.67}
	if got := decode[statsBody](t, w); got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
}

func TestTaskStats_RequiresUserID(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/tasks/stats", "")
	expectStatus(t, w, http.StatusBadRequest)
	if env := decode[apiError](t, w); env.Error.Message != "userId is required in query parameters" {
		t.Fatalf("message = %q", env.Error.Message)
	}
}

func TestGetTask(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"a","userId":"u1"}`)

	w := do(t, r, http.MethodGet, "/api/tasks/"+created.ID, "")
	expectStatus(t, w, http.StatusOK)
	if got := decode[taskBody](t, w); got.ID != created.ID || got.Title != "a" {
		t.Fatalf("got %+v", got)
	}

	w = do(t, r, http.MethodGet, "/api/tasks/missing", "")
	expectStatus(t, w, http.StatusNotFound)
	if env := decode[apiError](t, w); env.Error.Message != "Task not found" {
		t.Fatalf("message = %q", env.Error.Message)
	}
}

func TestPutTask(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"a","description":"old","userId":"u1"}`)

	w := do(t, r, http.MethodPut, "/api/tasks/"+created.ID, `{"title":"b","extra":"ignored"}`)
	expectStatus(t, w, http.StatusOK)
	got := decode[taskBody](t, w)
	if got.Title != "b" || got.Description != "old" || got.UserID != "u1" {
		t.Fatalf("got %+v", got)
	}
	if got.UpdatedAt == nil {
		t.Fatal("updatedAt not stamped")
	}

	w = do(t, r, http.MethodPut, "/api/tasks/"+created.ID, `{"completed":"yes"}`)
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodPut, "/api/tasks/missing", `{"title":"b"}`)
	expectStatus(t, w, http.StatusNotFound)
}

func TestPatchTask_RejectsUnknownFields(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"a","userId":"u1"}`)

	w := do(t, r, http.MethodPatch, "/api/tasks/"+created.ID, `{"foo":1}`)
	expectStatus(t, w, http.StatusBadRequest)
	env := decode[apiError](t, w)
	var details struct {
		InvalidFields []string `json:"invalidFields"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details.InvalidFields) != 1 || details.InvalidFields[0] != "foo" {
		t.Fatalf("invalidFields = %v", details.InvalidFields)
	}

	w = do(t, r, http.MethodGet, "/api/tasks/"+created.ID, "")
	got := decode[taskBody](t, w)
	if got.Title != "a" || got.UpdatedAt != nil {
		t.Fatalf("task changed: %+v", got)
	}
}

func TestPatchTask(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"a","userId":"u1"}`)

	w := do(t, r, http.MethodPatch, "/api/tasks/"+created.ID, `{"description":"more","completed":null}`)
	expectStatus(t, w, http.StatusOK)
	got := decode[taskBody](t, w)
	if got.Description != "more" || got.Title != "a" || got.Completed {
		t.Fatalf("got %+v", got)
	}

	w = do(t, r, http.MethodPatch, "/api/tasks/"+created.ID, `{"title":7}`)
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodPatch, "/api/tasks/missing", `{"title":"b"}`)
	expectStatus(t, w, http.StatusNotFound)
}

func TestSetTaskCompletion(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"a","userId":"u1"}`)

	w := do(t, r, http.MethodPatch, "/api/tasks/"+created.ID+"/completion", `{}`)
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodPatch, "/api/tasks/"+created.ID+"/completion", `{"completed":true,"title":"ignored"}`)
	expectStatus(t, w, http.StatusOK)
	got := decode[taskBody](t, w)
	if !got.Completed || got.Title != "a" {
		t.Fatalf("got %+v", got)
	}

	w = do(t, r, http.MethodPatch, "/api/tasks/missing/completion", `{"completed":true}`)
	expectStatus(t, w, http.StatusNotFound)
}

func TestDeleteTask(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"a","userId":"u1"}`)

	w := do(t, r, http.MethodDelete, "/api/tasks/"+created.ID, "")
	expectStatus(t, w, http.StatusOK)
	if got := decode[map[string]string](t, w); got["message"] != "Task deleted successfully" {
		t.Fatalf("body = %v", got)
	}

	w = do(t, r, http.MethodDelete, "/api/tasks/"+created.ID, "")
	expectStatus(t, w, http.StatusNotFound)

	w = do(t, r, http.MethodGet, "/api/tasks/"+created.ID, "")
	expectStatus(t, w, http.StatusNotFound)
}

func TestUsers_CreateAndLookup(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/users", `{"email":"A@B.com"}`)
	expectStatus(t, w, http.StatusCreated)
	first := decode[userBody](t, w)
	if first.Email != "a@b.com" || first.ID == "" {
		t.Fatalf("got %+v", first)
	}

	w = do(t, r, http.MethodPost, "/api/users", `{"email":"a@b.com"}`)
	expectStatus(t, w, http.StatusOK)
	if second := decode[userBody](t, w); second != first {
		t.Fatalf("second create = %+v, want %+v", second, first)
	}

	w = do(t, r, http.MethodGet, "/api/users/A@B.COM", "")
	expectStatus(t, w, http.StatusOK)
	if got := decode[userBody](t, w); got != first {
		t.Fatalf("lookup = %+v", got)
	}

	w = do(t, r, http.MethodGet, "/api/users/nobody@example.com", "")
	expectStatus(t, w, http.StatusNotFound)
	if env := decode[apiError](t, w); env.Error.Message != "User not found" {
		t.Fatalf("message = %q", env.Error.Message)
	}
}

func TestUsers_CreateValidation(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{`{}`, `{"email":"not-an-email"}`, `{"email":"a@b"}`, `{"email":5}`} {
		w := do(t, r, http.MethodPost, "/api/users", body)
		expectStatus(t, w, http.StatusBadRequest)
	}
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/nothing", "")
	expectStatus(t, w, http.StatusNotFound)
	if env := decode[apiError](t, w); env.Error.Status != 404 {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestHealthRoutes(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/health", "/healthz", "/readyz", "/metrics"} {
		w := do(t, r, http.MethodGet, path, "")
		expectStatus(t, w, http.StatusOK)
	}
}

func TestRateLimit(t *testing.T) {
	r := NewRouter(Deps{
		Store:           store.NewMemory(),
		Limiter:         middleware.NewMemoryLimiter(),
		RateLimit:       2,
		RateLimitWindow: time.Minute,
	})

	for i := 0; i < 2; i++ {
		expectStatus(t, do(t, r, http.MethodGet, "/api/tasks", ""), http.StatusOK)
	}
	w := do(t, r, http.MethodGet, "/api/tasks", "")
	expectStatus(t, w, http.StatusTooManyRequests)
	if env := decode[apiError](t, w); env.Error.Status != 429 {
		t.Fatalf("envelope = %+v", env)
	}

	// health checks are not limited
	expectStatus(t, do(t, r, http.MethodGet, "/healthz", ""), http.StatusOK)
}
