// Package store defines the persistence contracts for the reminder and
// todo item stores plus the pet-access collaborator, along with a
// Postgres implementation (sqlx + squirrel) and an in-memory one.
package store

import (
	"context"
	"time"

	"github.com/eleven-am/pawtrack/internal/model"
)

// SuccessorKey identifies a recurring reminder's next instance. It is
// the idempotency-guard tuple: at most one pending instance may exist
// per key, which is what prevents retried completions from producing
// duplicate successor chains.
type SuccessorKey struct {
	UserID      string
	PetID       string
	Title       string
	RepeatRule  string
	ScheduledAt time.Time
}

// ReminderStore persists reminder instances. Implementations must hide
// soft-deleted rows from every read and must make InsertIfAbsent an
// atomic insert-if-absent keyed on SuccessorKey.
type ReminderStore interface {
	Insert(ctx context.Context, r *model.Reminder) error
	// InsertIfAbsent inserts r unless a live instance with the same
	// successor key already exists, whatever its status. It reports
	// whether a row was actually written.
	InsertIfAbsent(ctx context.Context, r *model.Reminder) (bool, error)
	Get(ctx context.Context, id string) (*model.Reminder, error)
	Update(ctx context.Context, r *model.Reminder) error
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	SoftDelete(ctx context.Context, id string) error
	// ListByUser returns the user's live reminders, optionally filtered
	// by status (empty status means all).
	ListByUser(ctx context.Context, userID string, status model.Status) ([]model.Reminder, error)
	// SuccessorExists reports whether a live instance with the given
	// successor key exists, pending or done.
	SuccessorExists(ctx context.Context, key SuccessorKey) (bool, error)
	Count(ctx context.Context, userID string) (int, error)
}

// TodoStore persists todo items with the same soft-delete semantics.
type TodoStore interface {
	Insert(ctx context.Context, t *model.Todo) error
	Get(ctx context.Context, id string) (*model.Todo, error)
	Update(ctx context.Context, t *model.Todo) error
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	SoftDelete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, status model.Status) ([]model.Todo, error)
	Count(ctx context.Context, userID string) (int, error)
}

// PetAccessGate is the external authorization collaborator. The core
// only consumes these answers; pet ownership itself lives elsewhere.
type PetAccessGate interface {
	// HasAccess reports whether the user may write data scoped to the pet.
	HasAccess(ctx context.Context, petID, userID string) (bool, error)
	// IsCoOwnerVisible reports whether the user is the primary owner or
	// a co-owner of the pet, which governs calendar visibility.
	IsCoOwnerVisible(ctx context.Context, petID, userID string) (bool, error)
}
