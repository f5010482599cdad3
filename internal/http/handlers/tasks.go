package handlers

import (
	"errors"
	"net/http"

	"task_tracker/internal/apierror"
	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
	"task_tracker/internal/service"
	"task_tracker/internal/validation"

	"github.com/gin-gonic/gin"
)

var (
	CreateTaskRules = []validation.Rule{
		{Field: domain.FieldTitle, Required: true, Type: validation.TypeString, MinLength: 1},
		{Field: domain.FieldUserID, Required: true, Type: validation.TypeString},
		{Field: domain.FieldDescription, Type: validation.TypeString},
		{Field: domain.FieldCompleted, Type: validation.TypeBoolean},
	}
	UpdateTaskRules = []validation.Rule{
		{Field: domain.FieldTitle, Type: validation.TypeString, MinLength: 1},
		{Field: domain.FieldDescription, Type: validation.TypeString},
		{Field: domain.FieldCompleted, Type: validation.TypeBoolean},
		{Field: domain.FieldUserID, Type: validation.TypeString},
	}
	CompletionRules = []validation.Rule{
		{Field: domain.FieldCompleted, Required: true, Type: validation.TypeBoolean},
	}
)

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	UserID      string  `json:"userId"`
}

type completionRequest struct {
	Completed bool `json:"completed"`
}

// ListTasks handles GET /tasks with optional userId and completed filters.
func (h *Handler) ListTasks(c *gin.Context) {
	var f repository.TaskFilter
	if v, ok := c.GetQuery("userId"); ok {
		f.UserID = &v
	}
	if v, ok := c.GetQuery("completed"); ok {
		completed := v == "true"
		f.Completed = &completed
	}

	tasks, err := h.Tasks.List(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(apierror.Internal(domain.MsgFailedGetTasks, err))
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) TaskStats(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		_ = c.Error(apierror.BadRequest(domain.MsgUserIDQueryRequired, nil))
		return
	}

	stats, err := h.Tasks.Stats(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(apierror.Internal(domain.MsgFailedGetTaskStats, err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetTask(c *gin.Context) {
	t, err := h.Tasks.Get(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		_ = c.Error(taskError(err, domain.MsgFailedGetTask))
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTask expects the body to have passed CreateTaskRules.
func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		_ = c.Error(apierror.BadRequest("Invalid request body", nil))
		return
	}

	t, err := h.Tasks.Create(c.Request.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		UserID:      req.UserID,
	})
	if err != nil {
		_ = c.Error(apierror.Internal(domain.MsgFailedCreateTask, err))
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UpdateTask handles PUT. Only task attributes are taken from the body, other
// keys are ignored.
func (h *Handler) UpdateTask(c *gin.Context) {
	body, err := validation.BodyMap(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	fields := make(map[string]any, len(domain.TaskUpdatableFields))
	for _, name := range domain.TaskUpdatableFields {
		if v, ok := body[name]; ok && v != nil {
			fields[name] = v
		}
	}

	t, err := h.Tasks.Update(c.Request.Context(), c.Param("taskId"), fields)
	if err != nil {
		_ = c.Error(taskError(err, domain.MsgFailedUpdateTask))
		return
	}
	c.JSON(http.StatusOK, t)
}

// PatchTask rejects the whole request when the body names anything that is
// not a task attribute, then validates the remaining fields.
func (h *Handler) PatchTask(c *gin.Context) {
	body, err := validation.BodyMap(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	fields, apiErr := validation.FilterFields(body, domain.TaskUpdatableFields)
	if apiErr != nil {
		_ = c.Error(apiErr)
		return
	}
	if errs := validation.Validate(UpdateTaskRules, fields); len(errs) > 0 {
		_ = c.Error(apierror.Validation(errs))
		return
	}

	t, err := h.Tasks.Update(c.Request.Context(), c.Param("taskId"), fields)
	if err != nil {
		_ = c.Error(taskError(err, domain.MsgFailedUpdateTask))
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) SetTaskCompletion(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		_ = c.Error(apierror.BadRequest("Invalid request body", nil))
		return
	}

	t, err := h.Tasks.SetCompleted(c.Request.Context(), c.Param("taskId"), req.Completed)
	if err != nil {
		_ = c.Error(taskError(err, domain.MsgFailedUpdateComplete))
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.Tasks.Delete(c.Request.Context(), c.Param("taskId")); err != nil {
		_ = c.Error(taskError(err, domain.MsgFailedDeleteTask))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": domain.MsgTaskDeleted})
}

func taskError(err error, failMsg string) *apierror.Error {
	if errors.Is(err, service.ErrTaskNotFound) {
		return apierror.NotFound(domain.MsgTaskNotFound)
	}
	return apierror.Internal(failMsg, err)
}
