// Package memstore keeps users, tasks and audit logs in process memory. It
// backs DEV_MODE runs without a database and the service and HTTP tests.
// Semantics (ordering, owner scoping, not-found and duplicate errors) match
// the Postgres repositories.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskflow/internal/domain"

	"github.com/google/uuid"
)

// Store groups the three in-memory stores behind one lock.
type Store struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*domain.User
	tasks  map[uuid.UUID]*domain.Task
	audits []*domain.AuditLog

	Users *Users
	Tasks *Tasks
	Audit *AuditLogs
}

func New() *Store {
	s := &Store{
		users: make(map[uuid.UUID]*domain.User),
		tasks: make(map[uuid.UUID]*domain.Task),
	}
	s.Users = &Users{s: s}
	s.Tasks = &Tasks{s: s}
	s.Audit = &AuditLogs{s: s}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

type Users struct{ s *Store }

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func (r *Users) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range r.s.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (r *Users) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(u.Email, uuid.Nil) {
		return domain.ErrDuplicateEmail
	}
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Users) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return domain.ErrDuplicateEmail
	}
	r.s.users[u.ID] = copyUser(u)
	return nil
}

type Tasks struct{ s *Store }

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// owned returns copies of ownerID's tasks that pass keep. Every read path
// goes through here.
func (r *Tasks) owned(ownerID uuid.UUID, keep func(*domain.Task) bool) []*domain.Task {
	res := []*domain.Task{}
	for _, t := range r.s.tasks {
		if t.UserID == ownerID && keep(t) {
			res = append(res, copyTask(t))
		}
	}
	return res
}

// lookup is the scoped single-task form of owned.
func (r *Tasks) lookup(ownerID, id uuid.UUID) (*domain.Task, bool) {
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, false
	}
	return t, true
}

func (r *Tasks) Create(_ context.Context, t *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *Tasks) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := r.owned(ownerID, func(*domain.Task) bool { return true })
	domain.SortByCreated(res)
	return res, nil
}

func (r *Tasks) Search(_ context.Context, ownerID uuid.UUID, f domain.TaskFilter) ([]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := r.owned(ownerID, f.Match)
	domain.SortByDue(res)
	return res, nil
}

func (r *Tasks) DueBefore(_ context.Context, ownerID uuid.UUID, cutoff time.Time) ([]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := r.owned(ownerID, func(t *domain.Task) bool { return domain.DueBy(t, cutoff) })
	domain.SortByDue(res)
	return res, nil
}

func (r *Tasks) Get(_ context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.lookup(ownerID, id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyTask(t), nil
}

func (r *Tasks) Update(_ context.Context, ownerID, id uuid.UUID, p domain.TaskPatch, now time.Time) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.lookup(ownerID, id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Apply(t)
	t.UpdatedAt = now
	return copyTask(t), nil
}

func (r *Tasks) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.lookup(ownerID, id); !ok {
		return domain.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

type AuditLogs struct{ s *Store }

func (r *AuditLogs) Create(_ context.Context, log *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *log
	c.ID = int64(len(r.s.audits) + 1)
	log.ID = c.ID
	r.s.audits = append(r.s.audits, &c)
	return nil
}

// GetByUserID returns the newest entries first.
func (r *AuditLogs) GetByUserID(_ context.Context, userID uuid.UUID, limit int) ([]*domain.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := []*domain.AuditLog{}
	for _, l := range r.s.audits {
		if l.UserID == userID {
			c := *l
			res = append(res, &c)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
