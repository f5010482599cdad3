package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"task_tracker/internal/db"
	httpserver "task_tracker/internal/http"
	"task_tracker/internal/migrations"
	"task_tracker/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func postgresStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	err = migrations.Apply(ctx, func(ctx context.Context, sql string) error {
		_, err := pool.Exec(ctx, sql)
		return err
	})
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return store.NewPostgres(pool)
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func TestTaskLifecycle_Postgres(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := postgresStore(t)

	srv := httptest.NewServer(httpserver.NewRouter(httpserver.Deps{
		Store:       st,
		StoreDriver: store.DriverPostgres,
	}))
	defer srv.Close()

	// unique owner so reruns against the same database stay independent
	userID := "it-" + uuid.NewString()

	var created struct {
		ID        string `json:"id"`
		Completed bool   `json:"completed"`
	}
	if code := call(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "first", "userId": userID}, &created); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if code := call(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "second", "userId": userID, "completed": true}, nil); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}

	var patched struct {
		Completed bool `json:"completed"`
	}
	if code := call(t, srv, http.MethodPatch, "/api/tasks/"+created.ID+"/completion", map[string]any{"completed": true}, &patched); code != http.StatusOK || !patched.Completed {
		t.Fatalf("completion status = %d, completed = %v", code, patched.Completed)
	}

	var stats struct {
		Total          int     `json:"total"`
		Completed      int     `json:"completed"`
		CompletionRate float64 `json:"completionRate"`
	}
	if code := call(t, srv, http.MethodGet, "/api/tasks/stats?userId="+userID, nil, &stats); code != http.StatusOK {
		t.Fatalf("stats status = %d", code)
	}
	if stats.Total != 2 || stats.Completed != 2 || stats.CompletionRate != 100 {
		t.Fatalf("stats = %+v", stats)
	}

	if code := call(t, srv, http.MethodDelete, "/api/tasks/"+created.ID, nil, nil); code != http.StatusOK {
		t.Fatalf("delete status = %d", code)
	}
	if code := call(t, srv, http.MethodDelete, "/api/tasks/"+created.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", code)
	}
}

func TestUserCreate_Postgres(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := postgresStore(t)

	srv := httptest.NewServer(httpserver.NewRouter(httpserver.Deps{Store: st}))
	defer srv.Close()

	email := "It-" + uuid.NewString() + "@Example.com"

	var first, second struct {
		ID string `json:"id"`
	}
	if code := call(t, srv, http.MethodPost, "/api/users", map[string]any{"email": email}, &first); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if code := call(t, srv, http.MethodPost, "/api/users", map[string]any{"email": email}, &second); code != http.StatusOK {
		t.Fatalf("repeat create status = %d", code)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}
}
