package handlers

import (
	"taskflow/internal/http/middleware"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	Auth  *service.AuthService
	Tasks *service.TaskService
	Audit *service.AuditService
}

func NewHandler(auth *service.AuthService, tasks *service.TaskService, audit *service.AuditService) *Handler {
	return &Handler{Auth: auth, Tasks: tasks, Audit: audit}
}

// getUserID returns the caller set by middleware.JWT.
func getUserID(c *gin.Context) (uuid.UUID, bool) {
	return middleware.UserID(c)
}
