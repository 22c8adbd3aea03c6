// Package tasks implements the task list handlers on top of a record store.
package tasks

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tasks-server/internal/store"
)

// Table is the store table holding tasks.
const Table = "tasks"

// TimeLayout is the ISO-8601 layout used for every task timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Task is the typed view of a record in the tasks table.
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	CompletedAt *string `json:"completed_at"`
}

// New returns a pending task created at now.
func New(title, description string, now time.Time) Task {
	ts := FormatTime(now)
	return Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// Completed reports whether the task is in the COMPLETE state.
func (t Task) Completed() bool {
	return t.CompletedAt != nil
}

// ToggleComplete flips between pending and complete and refreshes
// UpdatedAt. It returns the new state.
func (t *Task) ToggleComplete(now string) bool {
	t.UpdatedAt = now
	if t.CompletedAt != nil {
		t.CompletedAt = nil
		return false
	}
	ts := now
	t.CompletedAt = &ts
	return true
}

// Record converts the task to its stored form.
func (t Task) Record() store.Record {
	rec := store.Record{
		"id":           t.ID,
		"title":        t.Title,
		"description":  t.Description,
		"created_at":   t.CreatedAt,
		"updated_at":   t.UpdatedAt,
		"completed_at": nil,
	}
	if t.CompletedAt != nil {
		rec["completed_at"] = *t.CompletedAt
	}
	return rec
}

// FromRecord converts a stored record back to a Task. Missing string fields
// read as "".
func FromRecord(rec store.Record) (Task, error) {
	var t Task
	fields := []struct {
		name string
		dst  *string
	}{
		{"id", &t.ID},
		{"title", &t.Title},
		{"description", &t.Description},
		{"created_at", &t.CreatedAt},
		{"updated_at", &t.UpdatedAt},
	}
	for _, f := range fields {
		switch v := rec[f.name].(type) {
		case nil:
		case string:
			*f.dst = v
		default:
			return Task{}, fmt.Errorf("%w: field %s has type %T", store.ErrInvalidRecord, f.name, v)
		}
	}

	switch v := rec["completed_at"].(type) {
	case nil:
	case string:
		t.CompletedAt = &v
	default:
		return Task{}, fmt.Errorf("%w: field completed_at has type %T", store.ErrInvalidRecord, v)
	}

	if t.ID == "" {
		return Task{}, fmt.Errorf("%w: task without id", store.ErrInvalidRecord)
	}
	return t, nil
}

// FormatTime renders t in UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// nextTimestamp returns now formatted, moved forward past prev when the
// clock has not advanced, so successive updates never share updated_at.
func nextTimestamp(prev string, now time.Time) string {
	now = now.UTC().Truncate(time.Millisecond)
	if p, err := time.Parse(TimeLayout, prev); err == nil && !now.After(p) {
		now = p.Add(time.Millisecond)
	}
	return FormatTime(now)
}
