package tasks

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"tasks-server/internal/logging"
	"tasks-server/internal/router"
	"tasks-server/internal/store"
)

const (
	msgCompleted     = "Task marked as completed"
	msgPending       = "Task marked as pending"
	errIDRequired    = "Task ID is required"
	errIDEmpty       = "Task ID cannot be empty"
	errNotFound      = "Task not found"
	errTitleRequired = "Title is required"
	errInvalidJSON   = "invalid JSON body"
	errInternal      = "internal server error"
)

// Store is the subset of the record store the handlers need.
type Store interface {
	Insert(table string, rec store.Record) (store.Record, error)
	Select(table string, filter map[string]string) []store.Record
	Get(table, id string) (store.Record, error)
	Update(table, id string, rec store.Record) (store.Record, error)
	Delete(table, id string) error
}

// Handler serves the /tasks routes.
type Handler struct {
	store Store
	now   func() time.Time
}

// NewHandler returns a Handler backed by s.
func NewHandler(s Store) *Handler {
	return &Handler{store: s, now: time.Now}
}

// SetClock replaces the time source, for tests.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// Register adds the task routes to r.
func (h *Handler) Register(r *router.Router) {
	r.GET("/tasks", h.list)
	r.POST("/tasks", h.create)
	r.PUT("/tasks/:id", h.update)
	r.DELETE("/tasks/:id", h.remove)
	r.PATCH("/tasks/:id/complete", h.toggle)
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type toggleResponse struct {
	Message string `json:"message"`
	Task    Task   `json:"task"`
}

func (h *Handler) list(w http.ResponseWriter, r *router.Request) {
	var filter map[string]string
	if search := r.Query["search"]; search != "" {
		filter = map[string]string{
			"title":       search,
			"description": search,
		}
	}

	rows := h.store.Select(Table, filter)
	out := make([]Task, 0, len(rows))
	for _, rec := range rows {
		t, err := FromRecord(rec)
		if err != nil {
			h.internalError(w, "failed to read task", err)
			return
		}
		out = append(out, t)
	}
	router.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *router.Request) {
	var body createRequest
	if err := r.Decode(&body); err != nil {
		router.WriteError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		router.WriteError(w, http.StatusBadRequest, errTitleRequired)
		return
	}

	task := New(body.Title, body.Description, h.now())
	if _, err := h.store.Insert(Table, task.Record()); err != nil {
		h.internalError(w, "failed to insert task", err)
		return
	}

	logging.DebugWith("Task created", map[string]interface{}{"id": task.ID})
	router.WriteJSON(w, http.StatusCreated, task)
}

func (h *Handler) update(w http.ResponseWriter, r *router.Request) {
	id := strings.TrimSpace(r.Param("id"))
	if id == "" {
		router.WriteError(w, http.StatusBadRequest, errIDRequired)
		return
	}

	task, ok := h.lookup(w, id)
	if !ok {
		return
	}

	var body updateRequest
	if err := r.Decode(&body); err != nil {
		router.WriteError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		router.WriteError(w, http.StatusBadRequest, errTitleRequired)
		return
	}

	// id, created_at and completed_at carry over from the stored task
	task.Title = title
	task.Description = strings.TrimSpace(body.Description)
	task.UpdatedAt = nextTimestamp(task.UpdatedAt, h.now())

	if !h.save(w, task) {
		return
	}
	router.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) remove(w http.ResponseWriter, r *router.Request) {
	id := strings.TrimSpace(r.Param("id"))
	if id == "" {
		router.WriteError(w, http.StatusBadRequest, errIDEmpty)
		return
	}

	if err := h.store.Delete(Table, id); err != nil {
		h.internalError(w, "failed to delete task", err)
		return
	}
	router.NoContent(w)
}

func (h *Handler) toggle(w http.ResponseWriter, r *router.Request) {
	id := strings.TrimSpace(r.Param("id"))
	if id == "" {
		router.WriteError(w, http.StatusBadRequest, errIDRequired)
		return
	}

	task, ok := h.lookup(w, id)
	if !ok {
		return
	}

	msg := msgPending
	if task.ToggleComplete(nextTimestamp(task.UpdatedAt, h.now())) {
		msg = msgCompleted
	}

	if !h.save(w, task) {
		return
	}
	router.WriteJSON(w, http.StatusOK, toggleResponse{Message: msg, Task: task})
}

// lookup loads a task, writing 404 or 500 when it cannot.
func (h *Handler) lookup(w http.ResponseWriter, id string) (Task, bool) {
	rec, err := h.store.Get(Table, id)
	if errors.Is(err, store.ErrNotFound) {
		router.WriteError(w, http.StatusNotFound, errNotFound)
		return Task{}, false
	}
	if err != nil {
		h.internalError(w, "failed to load task", err)
		return Task{}, false
	}

	task, err := FromRecord(rec)
	if err != nil {
		h.internalError(w, "failed to read task", err)
		return Task{}, false
	}
	return task, true
}

func (h *Handler) save(w http.ResponseWriter, task Task) bool {
	_, err := h.store.Update(Table, task.ID, task.Record())
	if errors.Is(err, store.ErrNotFound) {
		router.WriteError(w, http.StatusNotFound, errNotFound)
		return false
	}
	if err != nil {
		h.internalError(w, "failed to update task", err)
		return false
	}
	return true
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	logging.ErrorWith(msg, map[string]interface{}{"error": err})
	router.WriteError(w, http.StatusInternalServerError, errInternal)
}
