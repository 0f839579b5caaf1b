package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/clock"
	"taskflow/internal/config"
	"taskflow/internal/db"
	"taskflow/internal/domain"
	"taskflow/internal/logger"
	"taskflow/internal/repository"
	"taskflow/internal/service"

	flag "github.com/spf13/pflag"
)

// create_test_user registers a user (or reuses an existing one) and prints
// a bearer token for it.
func main() {
	name := flag.StringP("name", "n", "Test User", "display name")
	email := flag.StringP("email", "e", "test@example.com", "login email")
	password := flag.StringP("password", "p", "password123", "login password")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool := db.MustConnect(ctx, cfg.DatabaseURL)
	defer pool.Close()

	clk := clock.Real()
	audit := service.NewAuditService(repository.NewAuditRepository(pool), clk)
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, clk)
	auth := service.NewAuthService(repository.NewUserRepository(pool), tokens, audit, clk, cfg.BcryptCost)

	u, err := auth.Register(ctx, service.RegisterInput{Name: *name, Email: *email, Password: *password})
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		logger.Info("user already exists", "email", *email)
	case err != nil:
		logger.Fatal("create user failed", "error", err)
	default:
		logger.Info("user created", "id", u.ID, "email", u.Email)
	}

	res, err := auth.Login(ctx, *email, *password)
	if err != nil {
		logger.Fatal("login failed", "error", err)
	}
	fmt.Printf("user_id=%s\ntoken=%s\nexpires_at=%s\n", res.User.ID, res.Token, res.ExpiresAt.Format(time.RFC3339))
}
