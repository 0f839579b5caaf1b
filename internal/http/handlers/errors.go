package handlers

import (
	"errors"
	"net/http"

	"taskflow/internal/domain"
	"taskflow/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// gin checks `binding` tags with the same engine the services use, so a
// rejected body yields the usual per-field response.
func init() {
	binding.Validator = domain.Binding()
}

// respondError is the single mapping from service errors to HTTP responses.
// what names the resource in not-found messages ("task", "user").
func respondError(c *gin.Context, err error, what string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrValidation.Error(), "fields": verr.Fields})
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	default:
		logger.WithContext(c.Request.Context()).Error("request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// bindJSON decodes and validates the body into obj. It writes the error
// response and returns false on failure.
func bindJSON(c *gin.Context, obj any, what string) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		respondError(c, err, what)
	} else {
		badRequest(c, "invalid request body")
	}
	return false
}
