package service

import (
	"context"

	"taskflow/internal/clock"
	"taskflow/internal/domain"
	"taskflow/internal/logger"

	"github.com/google/uuid"
)

type requestInfoKey struct{}

type requestInfo struct {
	ip        string
	userAgent string
}

// WithRequestInfo attaches the caller's IP and User-Agent to ctx so audit
// entries can record them.
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, requestInfo{ip: ip, userAgent: userAgent})
}

// AuditService handles audit logging
type AuditService struct {
	repo  AuditStore
	clock clock.Clock
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditStore, c clock.Clock) *AuditService {
	return &AuditService{repo: repo, clock: c}
}

// Log creates a new audit log entry. Failures are logged, never returned.
func (s *AuditService) Log(ctx context.Context, userID uuid.UUID, action, category string, details map[string]any) {
	if s == nil {
		return
	}
	entry := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		CreatedAt: s.clock.Now(),
	}
	if info, ok := ctx.Value(requestInfoKey{}).(requestInfo); ok {
		entry.IP = info.ip
		entry.UserAgent = info.userAgent
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// Recent returns the newest audit entries of userID: 20 by default, at
// most 100.
func (s *AuditService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.AuditLog, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return s.repo.GetByUserID(ctx, userID, limit)
}
