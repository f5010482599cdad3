package repository

import (
	"context"
	"fmt"

	"task_tracker/internal/domain"
	"task_tracker/internal/store"
)

// TaskFilter narrows List; nil fields are not filtered on.
type TaskFilter struct {
	UserID    *string
	Completed *bool
}

type TaskRepository struct {
	store store.Store
}

func NewTaskRepository(s store.Store) *TaskRepository {
	return &TaskRepository{store: s}
}

func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	q := store.Query{}
	if f.UserID != nil {
		q = q.Where(domain.FieldUserID, *f.UserID)
	}
	if f.Completed != nil {
		q = q.Where(domain.FieldCompleted, *f.Completed)
	}

	docs, err := r.store.Query(ctx, domain.CollectionTasks, q)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	res := make([]*domain.Task, 0, len(docs))
	for _, doc := range docs {
		res = append(res, taskFromDocument(doc))
	}
	return res, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	doc, err := r.store.Get(ctx, domain.CollectionTasks, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return taskFromDocument(doc), nil
}

// Create stores t and fills in its ID and CreatedAt.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	doc, err := r.store.Add(ctx, domain.CollectionTasks, map[string]any{
		domain.FieldTitle:       t.Title,
		domain.FieldDescription: t.Description,
		domain.FieldCompleted:   t.Completed,
		domain.FieldUserID:      t.UserID,
		domain.FieldCreatedAt:   store.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	*t = *taskFromDocument(doc)
	return nil
}

// Update merges fields into the task and stamps updatedAt.
func (r *TaskRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.Task, error) {
	data := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data[domain.FieldUpdatedAt] = store.ServerTimestamp

	doc, err := r.store.Update(ctx, domain.CollectionTasks, id, data)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return taskFromDocument(doc), nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, domain.CollectionTasks, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func taskFromDocument(doc store.Document) *domain.Task {
	t := &domain.Task{
		ID:          doc.ID,
		Title:       stringField(doc.Data, domain.FieldTitle),
		Description: stringField(doc.Data, domain.FieldDescription),
		UserID:      stringField(doc.Data, domain.FieldUserID),
	}
	t.Completed, _ = doc.Data[domain.FieldCompleted].(bool)
	if ts, ok := timeField(doc.Data, domain.FieldCreatedAt); ok {
		t.CreatedAt = ts
	}
	if ts, ok := timeField(doc.Data, domain.FieldUpdatedAt); ok {
		t.UpdatedAt = &ts
	}
	return t
}
