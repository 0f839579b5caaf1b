package http

import (
	"net/http"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/http/handlers"
	"taskflow/internal/http/middleware"
	"taskflow/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, cfg *config.Config) {
	// Health checks and metrics (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Browser client
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/app/") })
	r.StaticFS("/app", web.FS())

	api := r.Group("/api")
	api.Use(middleware.RateLimit("api", cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(api, h, cfg)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}
		c.Redirect(http.StatusFound, "/app/")
	})
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	authRL := middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
	jwt := middleware.JWT(h.Auth)

	auth := api.Group("/auth")
	auth.POST("/register", authRL, h.Register)
	auth.POST("/login", authRL, h.Login)
	auth.GET("/me", jwt, h.Me)
	auth.PUT("/me", jwt, h.UpdateMe)
	auth.GET("/activity", jwt, h.Activity)

	tasks := api.Group("/tasks", jwt)
	tasks.POST("", h.CreateTask)
	tasks.GET("", h.ListTasks)
	tasks.GET("/search", h.SearchTasks)
	tasks.GET("/due-reminders", h.DueReminders)
	tasks.PUT("/:id", h.UpdateTask)
	tasks.DELETE("/:id", h.DeleteTask)
}
