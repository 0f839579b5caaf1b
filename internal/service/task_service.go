package service

import (
	"context"
	"strings"
	"time"

	"taskflow/internal/clock"
	"taskflow/internal/domain"

	"github.com/google/uuid"
)

// TaskService runs every task operation on behalf of an authenticated owner.
type TaskService struct {
	tasks TaskStore
	audit *AuditService
	clock clock.Clock
}

func NewTaskService(tasks TaskStore, audit *AuditService, c clock.Clock) *TaskService {
	return &TaskService{tasks: tasks, audit: audit, clock: c}
}

// Now is the instant used for reminders and status classification.
func (s *TaskService) Now() time.Time {
	return s.clock.Now()
}

type NewTask struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

type titleChange struct {
	Title string `json:"title" binding:"required"`
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, in NewTask) (*domain.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := domain.ValidateStruct(&in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := &domain.Task{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListAll returns every task of ownerID in creation order.
func (s *TaskService) ListAll(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return s.tasks.ListByOwner(ctx, ownerID)
}

// ListView returns the owner's tasks that fall into v right now.
func (s *TaskService) ListView(ctx context.Context, ownerID uuid.UUID, v domain.View) ([]*domain.Task, error) {
	all, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return domain.FilterView(all, v, s.clock.Now()), nil
}

// Search returns the owner's tasks matching f, due date ascending with
// undated tasks last.
func (s *TaskService) Search(ctx context.Context, ownerID uuid.UUID, f domain.TaskFilter) ([]*domain.Task, error) {
	f.Keyword = strings.TrimSpace(f.Keyword)
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return []*domain.Task{}, nil
	}
	return s.tasks.Search(ctx, ownerID, f)
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, p domain.TaskPatch) (*domain.Task, error) {
	if p.Title != nil {
		c := titleChange{Title: strings.TrimSpace(*p.Title)}
		if err := domain.ValidateStruct(&c); err != nil {
			return nil, err
		}
		p.Title = &c.Title
	}
	return s.tasks.Update(ctx, ownerID, taskID, p, s.clock.Now())
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if err := s.tasks.Delete(ctx, ownerID, taskID); err != nil {
		return err
	}
	s.audit.Log(ctx, ownerID, domain.AuditActionTaskDelete, domain.AuditCategoryTask, map[string]any{"task_id": taskID.String()})
	return nil
}

// DueReminders returns incomplete tasks due within domain.ReminderWindow of
// now, overdue ones included.
func (s *TaskService) DueReminders(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return s.tasks.DueBefore(ctx, ownerID, s.clock.Now().Add(domain.ReminderWindow))
}
