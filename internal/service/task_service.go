package service

import (
	"context"
	"errors"
	"math"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
	"task_tracker/internal/store"
)

var ErrTaskNotFound = errors.New("task not found")

// CreateTaskInput carries the fields accepted when creating a task. Nil
// optional fields take their defaults.
type CreateTaskInput struct {
	Title       string
	Description *string
	Completed   *bool
	UserID      string
}

type TaskService struct {
	repo *repository.TaskRepository
}

func NewTaskService(s store.Store) *TaskService {
	return &TaskService{repo: repository.NewTaskRepository(s)}
}

func (s *TaskService) List(ctx context.Context, f repository.TaskFilter) ([]*domain.Task, error) {
	return s.repo.List(ctx, f)
}

// Stats summarizes completion for userID's tasks.
func (s *TaskService) Stats(ctx context.Context, userID string) (domain.TaskStats, error) {
	tasks, err := s.repo.List(ctx, repository.TaskFilter{UserID: &userID})
	if err != nil {
		return domain.TaskStats{}, err
	}

	stats := domain.TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		}
	}
	stats.Incomplete = stats.Total - stats.Completed
	stats.CompletionRate = CompletionRate(stats.Completed, stats.Total)
	return stats, nil
}

// CompletionRate is completed/total as a percentage rounded to two decimals,
// half away from zero. It is 0 when total is 0.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}

func (s *TaskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	return t, taskErr(err)
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	t := &domain.Task{
		Title:  in.Title,
		UserID: in.UserID,
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update merges fields into an existing task. Callers are responsible for
// restricting fields to task attributes.
func (s *TaskService) Update(ctx context.Context, id string, fields map[string]any) (*domain.Task, error) {
	t, err := s.repo.Update(ctx, id, fields)
	return t, taskErr(err)
}

func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Task, error) {
	return s.Update(ctx, id, map[string]any{domain.FieldCompleted: completed})
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return taskErr(s.repo.Delete(ctx, id))
}

func taskErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}
