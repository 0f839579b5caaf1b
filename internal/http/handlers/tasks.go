package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/domain"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// taskResponse adds the task's status at response time.
type taskResponse struct {
	*domain.Task
	Status domain.Status `json:"status"`
}

func taskJSON(t *domain.Task, now time.Time) taskResponse {
	return taskResponse{Task: t, Status: domain.Classify(t, now)}
}

func tasksJSON(tasks []*domain.Task, now time.Time) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskJSON(t, now))
	}
	return out
}

type createTaskRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	DueDate     json.RawMessage `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	DueDate     json.RawMessage `json:"dueDate"`
	Completed   *bool           `json:"completed"`
}

// taskID parses :id. Malformed ids are reported like missing tasks.
func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createTaskRequest
	if !bindJSON(c, &req, "task") {
		return
	}
	due, _, err := dueDateField(req.DueDate)
	if err != nil {
		respondError(c, err, "task")
		return
	}

	task, err := h.Tasks.Create(c.Request.Context(), userID, service.NewTask{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
	})
	if err != nil {
		respondError(c, err, "task")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "task created", "task": taskJSON(task, h.Tasks.Now())})
}

// ListTasks returns all tasks, or one view of them with ?view=.
func (h *Handler) ListTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var (
		tasks []*domain.Task
		err   error
	)
	if v := c.Query("view"); v != "" {
		view, ok := domain.ParseView(v)
		if !ok {
			badRequest(c, "unknown view "+strconv.Quote(v))
			return
		}
		tasks, err = h.Tasks.ListView(c.Request.Context(), userID, view)
	} else {
		tasks, err = h.Tasks.ListAll(c.Request.Context(), userID)
	}
	if err != nil {
		respondError(c, err, "task")
		return
	}

	c.JSON(http.StatusOK, tasksJSON(tasks, h.Tasks.Now()))
}

func (h *Handler) SearchTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	f := domain.TaskFilter{Keyword: c.Query("keyword")}

	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "completed must be true or false")
			return
		}
		f.Completed = &b
	}
	if v := c.Query("fromDate"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			badRequest(c, "fromDate: "+err.Error())
			return
		}
		f.From = &t
	}
	if v := c.Query("toDate"); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			badRequest(c, "toDate: "+err.Error())
			return
		}
		if dateOnly {
			t = endOfDay(t)
		}
		f.To = &t
	}

	tasks, err := h.Tasks.Search(c.Request.Context(), userID, f)
	if err != nil {
		respondError(c, err, "task")
		return
	}

	c.JSON(http.StatusOK, tasksJSON(tasks, h.Tasks.Now()))
}

func (h *Handler) DueReminders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tasks, err := h.Tasks.DueReminders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "task")
		return
	}

	msg := "no tasks due soon"
	if len(tasks) > 0 {
		msg = strconv.Itoa(len(tasks)) + " task(s) due soon"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "tasks": tasksJSON(tasks, h.Tasks.Now())})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !bindJSON(c, &req, "task") {
		return
	}
	due, set, err := dueDateField(req.DueDate)
	if err != nil {
		respondError(c, err, "task")
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if set {
		patch.DueDate = due
		patch.ClearDueDate = due == nil
	}

	task, err := h.Tasks.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, err, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task updated", "task": taskJSON(task, h.Tasks.Now())})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.Tasks.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
