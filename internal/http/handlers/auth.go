package handlers

import (
	"net/http"
	"strconv"

	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req, "user") {
		return
	}

	if _, err := h.Auth.Register(c.Request.Context(), req); err != nil {
		respondError(c, err, "user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user registered"})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "user") {
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "login successful",
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
		"user":      res.User,
	})
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req service.ProfileUpdate
	if !bindJSON(c, &req, "user") {
		return
	}

	user, err := h.Auth.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "user": user})
}

// Activity lists the caller's recent audit entries. ?limit=N, at most 100.
func (h *Handler) Activity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := h.Audit.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err, "activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": logs})
}
