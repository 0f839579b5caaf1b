package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, due_date, completed, created_at, updated_at`

const (
	orderByCreated = ` ORDER BY created_at ASC, id ASC`
	orderByDue     = ` ORDER BY due_date ASC NULLS LAST, created_at ASC, id ASC`
)

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.Title, t.Description, t.DueDate, t.Completed, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	q := ownedBy(ownerID)
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks `+q.where()+orderByCreated, q.args...)
}

func (r *TaskRepository) Search(ctx context.Context, ownerID uuid.UUID, f domain.TaskFilter) ([]*domain.Task, error) {
	sql, args := searchQuery(ownerID, f)
	return r.query(ctx, sql, args...)
}

// searchQuery mirrors domain.TaskFilter.Match in SQL. Comparisons against a
// NULL due_date are never true, which drops undated tasks from bounded
// searches.
func searchQuery(ownerID uuid.UUID, f domain.TaskFilter) (string, []any) {
	q := ownedBy(ownerID)
	if f.Keyword != "" {
		q.and(`(strpos(lower(title), lower(?)) > 0 OR strpos(lower(description), lower(?)) > 0)`, f.Keyword, f.Keyword)
	}
	if f.Completed != nil {
		q.and(`completed = ?`, *f.Completed)
	}
	if f.From != nil {
		q.and(`due_date >= ?`, *f.From)
	}
	if f.To != nil {
		q.and(`due_date <= ?`, *f.To)
	}
	return `SELECT ` + taskColumns + ` FROM tasks ` + q.where() + orderByDue, q.args
}

// DueBefore returns incomplete tasks due at or before cutoff.
func (r *TaskRepository) DueBefore(ctx context.Context, ownerID uuid.UUID, cutoff time.Time) ([]*domain.Task, error) {
	q := ownedBy(ownerID).
		and(`completed = ?`, false).
		and(`due_date <= ?`, cutoff)
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks `+q.where()+orderByDue, q.args...)
}

func (r *TaskRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	q := ownedBy(ownerID).and(`id = ?`, id)
	return scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks `+q.where(), q.args...))
}

// Update applies p in a single statement and returns the stored row.
func (r *TaskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, p domain.TaskPatch, now time.Time) (*domain.Task, error) {
	sql, args := updateQuery(ownerID, id, p, now)
	return scanTask(r.db.QueryRow(ctx, sql, args...))
}

func updateQuery(ownerID, id uuid.UUID, p domain.TaskPatch, now time.Time) (string, []any) {
	q := ownedBy(ownerID).and(`id = ?`, id)
	set := `title = COALESCE(` + q.next(p.Title) + `::text, title), ` +
		`description = COALESCE(` + q.next(p.Description) + `::text, description), ` +
		`due_date = CASE WHEN ` + q.next(p.ClearDueDate) + `::boolean THEN NULL ELSE COALESCE(` + q.next(p.DueDate) + `::timestamptz, due_date) END, ` +
		`completed = COALESCE(` + q.next(p.Completed) + `::boolean, completed), ` +
		`updated_at = ` + q.next(now)
	return `UPDATE tasks SET ` + set + ` ` + q.where() + ` RETURNING ` + taskColumns, q.args
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	q := ownedBy(ownerID).and(`id = ?`, id)
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks `+q.where(), q.args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
