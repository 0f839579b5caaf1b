package service

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/clock"
	"taskflow/internal/repository/memstore"

	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	clock *clock.FakeClock
	store *memstore.Store
	auth  *AuthService
	tasks *TaskService
	audit *AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := clock.Fake(t0)
	store := memstore.New()
	audit := NewAuditService(store.Audit, c)
	tokens := NewTokenManager("test-secret", time.Hour, c)
	return &fixture{
		clock: c,
		store: store,
		auth:  NewAuthService(store.Users, tokens, audit, c, bcrypt.MinCost),
		tasks: NewTaskService(store.Tasks, audit, c),
		audit: audit,
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

var ctx = context.Background()
