package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/internal/clock"
	"taskflow/internal/config"
	"taskflow/internal/db"
	httpServer "taskflow/internal/http"
	"taskflow/internal/http/handlers"
	"taskflow/internal/http/middleware"
	"taskflow/internal/logger"
	"taskflow/internal/migrations"
	"taskflow/internal/repository"
	"taskflow/internal/repository/memstore"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
)

type stores struct {
	users  service.UserStore
	tasks  service.TaskStore
	audit  service.AuditStore
	health handlers.Pinger
	close  func()
}

func openStores(cfg *config.Config) stores {
	if cfg.DevMode && cfg.DatabaseURL == "" {
		logger.Warn("DEV_MODE without DATABASE_URL: using in-memory store, data is lost on exit")
		m := memstore.New()
		return stores{users: m.Users, tasks: m.Tasks, audit: m.Audit, health: m, close: func() {}}
	}

	ctx := context.Background()
	pool := db.MustConnect(ctx, cfg.DatabaseURL)
	if cfg.DevMode {
		if err := migrations.Apply(ctx, pool, func(name string) { logger.Debug("migration applied", "file", name) }); err != nil {
			logger.Fatal("failed to apply migrations", "error", err)
		}
	}
	return stores{
		users:  repository.NewUserRepository(pool),
		tasks:  repository.NewTaskRepository(pool),
		audit:  repository.NewAuditRepository(pool),
		health: pool,
		close:  pool.Close,
	}
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	st := openStores(cfg)
	defer st.close()

	clk := clock.Real()
	audit := service.NewAuditService(st.audit, clk)
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, clk)
	auth := service.NewAuthService(st.users, tokens, audit, clk, cfg.BcryptCost)
	tasks := service.NewTaskService(st.tasks, audit, clk)

	health := handlers.NewHealthHandler(st.health, cfg.AppVersion)
	if middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB) {
		logger.Info("redis rate limiter enabled", "addr", cfg.RedisAddr)
		health.AddCheck("redis", handlers.PingFunc(middleware.RedisPing))
	}
	defer middleware.CloseRedisRateLimiter()

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(cfg.CORSOrigins))

	httpServer.RegisterRoutes(r,
		handlers.NewHandler(auth, tasks, audit),
		health,
		cfg,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", cfg.AppVersion, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
