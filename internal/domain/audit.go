package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a security relevant action.
type AuditLog struct {
	ID        int64          `json:"id"`
	UserID    uuid.UUID      `json:"userId"`
	Action    string         `json:"action"`
	Category  string         `json:"category"`
	Details   map[string]any `json:"details"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Audit action categories
const (
	AuditCategoryAuth = "auth"
	AuditCategoryTask = "task"
)

// Audit actions
const (
	AuditActionRegister      = "register"
	AuditActionLogin         = "login"
	AuditActionLoginFailed   = "login_failed"
	AuditActionProfileUpdate = "profile_update"
	AuditActionTaskDelete    = "task_delete"
)
