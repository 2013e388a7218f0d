package model

import (
	"time"

	"github.com/lib/pq"
)

// Priority levels for todos and reminders
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank returns the sort weight of a priority. Higher means more urgent;
// an unknown or empty priority sorts below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Status values for todos and reminders. Done and archived are terminal
// for an individual instance.
type Status string

const (
	StatusPending  Status = "pending"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusArchived
}

// ItemKind discriminates the two calendar item sources.
type ItemKind string

const (
	KindUserTodo    ItemKind = "user_todo"
	KindPetReminder ItemKind = "pet_reminder"
)

// Valid reports whether k is one of the known item kinds.
func (k ItemKind) Valid() bool {
	return k == KindUserTodo || k == KindPetReminder
}

// Reminder is a pet-care reminder instance. A non-empty RepeatRule makes
// it recurring: completing the instance materializes the next one. An
// empty PetID means the reminder is not pet-scoped.
type Reminder struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"user_id"`
	PetID       string         `db:"pet_id" json:"pet_id,omitempty"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description,omitempty"`
	Priority    Priority       `db:"priority" json:"priority"`
	Status      Status         `db:"status" json:"status"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	ScheduledAt time.Time      `db:"scheduled_at" json:"scheduled_at"`
	DueAt       *time.Time     `db:"due_at" json:"due_at,omitempty"`
	SnoozeUntil *time.Time     `db:"snooze_until" json:"snooze_until,omitempty"`
	RepeatRule  string         `db:"repeat_rule" json:"repeat_rule,omitempty"`
	// Timezone is carried opaquely for clients; all scheduling math
	// operates on UTC instants.
	Timezone  string     `db:"timezone" json:"timezone,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// Recurring reports whether the reminder carries a repeat rule. The rule
// may still fail to parse; callers treat that as non-recurring.
func (r *Reminder) Recurring() bool {
	return r.RepeatRule != ""
}

// Todo is a personal to-do item. CompletedAt is set the instant the
// status becomes done.
type Todo struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"user_id"`
	PetID       string         `db:"pet_id" json:"pet_id,omitempty"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description,omitempty"`
	Priority    Priority       `db:"priority" json:"priority"`
	Status      Status         `db:"status" json:"status"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	ScheduledAt *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	DueAt       *time.Time     `db:"due_at" json:"due_at,omitempty"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time     `db:"deleted_at" json:"-"`
}

// CalendarItem is the uniform, computed projection of a todo or a
// reminder. It is never persisted; ItemKind is the union discriminant.
type CalendarItem struct {
	ItemID      string     `json:"item_id"`
	ItemKind    ItemKind   `json:"item_kind"`
	UserID      string     `json:"user_id"`
	PetID       string     `json:"pet_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Tags        []string   `json:"tags"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Reminder-only extras
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`
	RepeatRule  string     `json:"repeat_rule,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
}

// EffectiveTime is the timestamp used to tie-break calendar ordering:
// scheduledAt when present, else dueAt, else createdAt.
func (c *CalendarItem) EffectiveTime() time.Time {
	if c.ScheduledAt != nil {
		return *c.ScheduledAt
	}
	if c.DueAt != nil {
		return *c.DueAt
	}
	return c.CreatedAt
}

// CalendarItemFromTodo projects a todo into the uniform calendar shape.
func CalendarItemFromTodo(t *Todo) CalendarItem {
	return CalendarItem{
		ItemID:      t.ID,
		ItemKind:    KindUserTodo,
		UserID:      t.UserID,
		PetID:       t.PetID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Tags:        t.Tags,
		ScheduledAt: t.ScheduledAt,
		DueAt:       t.DueAt,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// CalendarItemFromReminder projects a reminder into the uniform calendar shape.
func CalendarItemFromReminder(r *Reminder) CalendarItem {
	scheduledAt := r.ScheduledAt
	return CalendarItem{
		ItemID:      r.ID,
		ItemKind:    KindPetReminder,
		UserID:      r.UserID,
		PetID:       r.PetID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		Tags:        r.Tags,
		ScheduledAt: &scheduledAt,
		DueAt:       r.DueAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		SnoozeUntil: r.SnoozeUntil,
		RepeatRule:  r.RepeatRule,
		Timezone:    r.Timezone,
	}
}
