package domain

import (
	"bytes"
	"sort"
	"strings"
	"time"
)

// ReminderWindow is how far ahead of now a task counts as due soon.
const ReminderWindow = 3 * 24 * time.Hour

// TaskFilter narrows an owner's tasks. Zero-valued fields are not applied;
// the supplied ones are ANDed.
type TaskFilter struct {
	Keyword   string
	Completed *bool
	From      *time.Time
	To        *time.Time
}

// HasDateBounds reports whether either due-date bound is set. Undated
// tasks never match a bounded filter.
func (f TaskFilter) HasDateBounds() bool {
	return f.From != nil || f.To != nil
}

// Match reports whether t satisfies every supplied filter dimension.
func (f TaskFilter) Match(t *Task) bool {
	if f.Keyword != "" && !containsFold(t.Title, f.Keyword) && !containsFold(t.Description, f.Keyword) {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.HasDateBounds() {
		if t.DueDate == nil {
			return false
		}
		if f.From != nil && t.DueDate.Before(*f.From) {
			return false
		}
		if f.To != nil && t.DueDate.After(*f.To) {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SortByDue orders tasks by due date ascending with undated tasks last.
// Ties fall back to creation time, then id.
func SortByDue(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return createdBefore(a, b)
	})
}

// SortByCreated orders tasks by creation time, then id.
func SortByCreated(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return createdBefore(tasks[i], tasks[j])
	})
}

func createdBefore(a, b *Task) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// DueBy reports whether t belongs in a reminder list with the given cutoff
// (now + ReminderWindow): not completed and due no later than cutoff.
// Overdue tasks are included.
func DueBy(t *Task, cutoff time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return !t.DueDate.After(cutoff)
}

// Status is the single category a task falls into at a given instant.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusUpcoming  Status = "upcoming"
	StatusUndated   Status = "undated"
)

// Classify returns the status of t at now.
func Classify(t *Task, now time.Time) Status {
	switch {
	case t.Completed:
		return StatusCompleted
	case t.DueDate == nil:
		return StatusUndated
	case t.DueDate.Before(now):
		return StatusOverdue
	default:
		return StatusUpcoming
	}
}

// View is a named union of statuses shown by the UI.
type View string

const (
	ViewPending   View = "pending"
	ViewCompleted View = "completed"
	ViewUpcoming  View = "upcoming"
	ViewOverdue   View = "overdue"
)

// ParseView validates a view name.
func ParseView(s string) (View, bool) {
	switch v := View(strings.ToLower(s)); v {
	case ViewPending, ViewCompleted, ViewUpcoming, ViewOverdue:
		return v, true
	}
	return "", false
}

// Includes reports whether tasks with status s are shown in v. Pending
// covers every incomplete task, dated or not.
func (v View) Includes(s Status) bool {
	switch v {
	case ViewPending:
		return s != StatusCompleted
	case ViewCompleted:
		return s == StatusCompleted
	case ViewUpcoming:
		return s == StatusUpcoming
	case ViewOverdue:
		return s == StatusOverdue
	}
	return false
}

// FilterView keeps the tasks of v at now, preserving order.
func FilterView(tasks []*Task, v View, now time.Time) []*Task {
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if v.Includes(Classify(t, now)) {
			out = append(out, t)
		}
	}
	return out
}
