package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/clock"
	"taskflow/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users  UserStore
	tokens *TokenManager
	audit  *AuditService
	clock  clock.Clock
	cost   int

	// compared against on unknown emails so both failure paths cost a hash
	dummyHash []byte
}

func NewAuthService(users UserStore, tokens *TokenManager, audit *AuditService, c clock.Clock, bcryptCost int) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("taskflow-dummy-password"), bcryptCost)
	return &AuthService{
		users:     users,
		tokens:    tokens,
		audit:     audit,
		clock:     c,
		cost:      bcryptCost,
		dummyHash: dummy,
	}
}

// RegisterInput is bound straight from the register request body. The
// password limit is in bytes since bcrypt ignores input past 72 bytes.
type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,trimmed_email"`
	Password string `json:"password" binding:"required,maxbytes=72"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register stores a new user with a bcrypt hash of the password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := domain.ValidateStruct(&in); err != nil {
		return nil, err
	}
	name, email := in.Name, in.Email

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	u := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}

	s.audit.Log(ctx, u.ID, domain.AuditActionRegister, domain.AuditCategoryAuth, nil)
	return u, nil
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login verifies the credentials and issues a bearer token. Unknown email
// and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.audit.Log(ctx, uuid.Nil, domain.AuditActionLoginFailed, domain.AuditCategoryAuth, map[string]any{"email": email})
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		s.audit.Log(ctx, u.ID, domain.AuditActionLoginFailed, domain.AuditCategoryAuth, map[string]any{"email": email})
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, u.ID, domain.AuditActionLogin, domain.AuditCategoryAuth, nil)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Authenticate validates a bearer token and returns the caller's id.
func (s *AuthService) Authenticate(token string) (uuid.UUID, error) {
	return s.tokens.Parse(token)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ProfileUpdate carries the optional profile fields. Empty values are left
// unchanged.
type ProfileUpdate struct {
	Name     string `json:"name" binding:"omitempty,max=255"`
	Email    string `json:"email" binding:"omitempty,trimmed_email"`
	Password string `json:"password" binding:"omitempty,maxbytes=72"`
}

// UpdateProfile applies the supplied fields, re-hashing a new password and
// rejecting an email that belongs to another user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := domain.ValidateStruct(&in); err != nil {
		return nil, err
	}

	var patch domain.UserPatch
	changed := []string{}
	if in.Name != "" {
		patch.Name = &in.Name
		changed = append(changed, "name")
	}
	if in.Email != "" {
		patch.Email = &in.Email
		changed = append(changed, "email")
	}
	password := in.Password
	if password != "" {
		changed = append(changed, "password")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != u.Email {
		other, err := s.users.GetByEmail(ctx, *patch.Email)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, domain.ErrDuplicateEmail
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("lookup email: %w", err)
		}
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.PasswordHash = hash
	}

	patch.Apply(u)
	u.UpdatedAt = s.clock.Now()
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}

	if len(changed) > 0 {
		s.audit.Log(ctx, u.ID, domain.AuditActionProfileUpdate, domain.AuditCategoryAuth, map[string]any{"fields": changed})
	}
	return u, nil
}
