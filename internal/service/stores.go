package service

import (
	"context"
	"time"

	"taskflow/internal/domain"

	"github.com/google/uuid"
)

// UserStore persists user records. Implemented by repository.UserRepository
// and memstore.Users.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// TaskStore persists tasks. Every method except Create takes the owner id
// and must not see tasks of other owners.
type TaskStore interface {
	Create(ctx context.Context, t *domain.Task) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	Search(ctx context.Context, ownerID uuid.UUID, f domain.TaskFilter) ([]*domain.Task, error)
	DueBefore(ctx context.Context, ownerID uuid.UUID, cutoff time.Time) ([]*domain.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, p domain.TaskPatch, now time.Time) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// AuditStore persists audit log entries.
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.AuditLog, error)
}
