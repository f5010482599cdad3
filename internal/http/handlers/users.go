package handlers

import (
	"errors"
	"net/http"

	"task_tracker/internal/apierror"
	"task_tracker/internal/domain"
	"task_tracker/internal/service"
	"task_tracker/internal/validation"

	"github.com/gin-gonic/gin"
)

var CreateUserRules = []validation.Rule{
	{Field: domain.FieldEmail, Required: true, Type: validation.TypeEmail},
}

type createUserRequest struct {
	Email string `json:"email"`
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.Users.GetByEmail(c.Request.Context(), c.Param("email"))
	if errors.Is(err, service.ErrUserNotFound) {
		_ = c.Error(apierror.NotFound(domain.MsgUserNotFound))
		return
	}
	if err != nil {
		_ = c.Error(apierror.Internal(domain.MsgFailedGetUser, err))
		return
	}
	c.JSON(http.StatusOK, u)
}

// CreateUser answers 201 for a new user and 200 when the email is already
// registered.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		_ = c.Error(apierror.BadRequest("Invalid request body", nil))
		return
	}

	u, created, err := h.Users.Create(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(apierror.Internal(domain.MsgFailedCreateUser, err))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, u)
}
