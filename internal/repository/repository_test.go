package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"task_tracker/internal/db"
	"task_tracker/internal/domain"
	"task_tracker/internal/store"
)

func newSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := store.NewSQLite(ctx, conn)
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]store.Store {
	return map[string]store.Store{
		"memory": store.NewMemory(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestTaskRepository_Lifecycle(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewTaskRepository(s)

			task := &domain.Task{Title: "Write tests", UserID: "u1"}
			if err := repo.Create(ctx, task); err != nil {
				t.Fatalf("create: %v", err)
			}
			if task.ID == "" || task.CreatedAt.IsZero() || task.UpdatedAt != nil {
				t.Fatalf("unexpected created task %+v", task)
			}

			updated, err := repo.Update(ctx, task.ID, map[string]any{domain.FieldCompleted: true})
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if !updated.Completed || updated.UpdatedAt == nil || updated.Title != "Write tests" {
				t.Fatalf("unexpected updated task %+v", updated)
			}
			if !updated.CreatedAt.Equal(task.CreatedAt) {
				t.Fatalf("createdAt changed: %v -> %v", task.CreatedAt, updated.CreatedAt)
			}

			if err := repo.Delete(ctx, task.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := repo.GetByID(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("expected not found after delete, got %v", err)
			}
		})
	}
}

func TestTaskRepository_ListFilters(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewTaskRepository(s)
			for _, tk := range []*domain.Task{
				{Title: "a", UserID: "u1", Completed: true},
				{Title: "b", UserID: "u1"},
				{Title: "c", UserID: "u2", Completed: true},
			} {
				if err := repo.Create(ctx, tk); err != nil {
					t.Fatalf("create: %v", err)
				}
			}

			u1 := "u1"
			done := true
			cases := []struct {
				filter TaskFilter
				want   int
			}{
				{TaskFilter{}, 3},
				{TaskFilter{UserID: &u1}, 2},
				{TaskFilter{Completed: &done}, 2},
				{TaskFilter{UserID: &u1, Completed: &done}, 1},
			}
			for _, c := range cases {
				got, err := repo.List(ctx, c.filter)
				if err != nil {
					t.Fatalf("list: %v", err)
				}
				if len(got) != c.want {
					t.Errorf("filter %+v: expected %d got %d", c.filter, c.want, len(got))
				}
			}
		})
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewUserRepository(s)

			u := &domain.User{Email: "a@b.co"}
			if err := repo.Create(ctx, u); err != nil {
				t.Fatalf("create: %v", err)
			}
			if u.ID == "" {
				t.Fatal("expected id")
			}

			if err := repo.Create(ctx, &domain.User{Email: "a@b.co"}); !errors.Is(err, store.ErrConflict) {
				t.Fatalf("expected conflict, got %v", err)
			}

			got, err := repo.GetByEmail(ctx, "a@b.co")
			if err != nil || got.ID != u.ID {
				t.Fatalf("expected %s got %+v (%v)", u.ID, got, err)
			}

			if _, err := repo.GetByEmail(ctx, "nobody@b.co"); !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestTimeField(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC)
	data := map[string]any{
		"native": now,
		"text":   now.Format(time.RFC3339Nano),
		"bad":    "yesterday",
	}
	for _, key := range []string{"native", "text"} {
		got, ok := timeField(data, key)
		if !ok || !got.Equal(now) {
			t.Errorf("%s: expected %v got %v (%v)", key, now, got, ok)
		}
	}
	if _, ok := timeField(data, "bad"); ok {
		t.Error("expected unparsable string to be rejected")
	}
	if _, ok := timeField(data, "missing"); ok {
		t.Error("expected missing key to be rejected")
	}
}
