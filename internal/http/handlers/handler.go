package handlers

import (
	"task_tracker/internal/service"
	"task_tracker/internal/store"
)

type Handler struct {
	Tasks *service.TaskService
	Users *service.UserService
}

func NewHandler(s store.Store) *Handler {
	return &Handler{
		Tasks: service.NewTaskService(s),
		Users: service.NewUserService(s),
	}
}
