// Package todo manages personal to-do items. Todos share the reminder
// shape minus recurrence; completing one stamps CompletedAt the instant
// the status becomes done.
package todo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/logger"
	"github.com/eleven-am/pawtrack/internal/model"
	"github.com/eleven-am/pawtrack/internal/store"
)

type Service struct {
	todos store.TodoStore
	log   logger.Logger
	now   func() time.Time
}

func NewService(todos store.TodoStore) *Service {
	return &Service{
		todos: todos,
		log:   logger.Todo(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the fields a new todo is built from.
type CreateInput struct {
	PetID       string         `json:"pet_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	Tags        []string       `json:"tags"`
	ScheduledAt *time.Time     `json:"scheduled_at"`
	DueAt       *time.Time     `json:"due_at"`
}

// UpdatePatch carries optional field edits; nil pointers leave the
// field untouched.
type UpdatePatch struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *model.Priority `json:"priority"`
	Status      *model.Status   `json:"status"`
	Tags        []string        `json:"tags"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
	DueAt       *time.Time      `json:"due_at"`
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*model.Todo, error) {
	const op = "todo.create"

	if ownerID == "" {
		return nil, errs.Validation(op, "owner id is required")
	}
	if in.Title == "" {
		return nil, errs.Validation(op, "title is required")
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, errs.Validation(op, "unknown priority "+string(in.Priority))
	}

	now := s.now()
	t := &model.Todo{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		PetID:       in.PetID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      model.StatusPending,
		Tags:        pq.StringArray(in.Tags),
		ScheduledAt: in.ScheduledAt,
		DueAt:       in.DueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.todos.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.log.Debugf("created todo %s for user %s", t.ID, ownerID)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id, requesterID string) (*model.Todo, error) {
	t, err := s.todos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != requesterID {
		return nil, errs.Forbidden("todo.get", "not the owner")
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, requesterID string, status model.Status) ([]model.Todo, error) {
	if status != "" && !status.Valid() {
		return nil, errs.Validation("todo.list", "unknown status "+string(status))
	}
	return s.todos.ListByUser(ctx, requesterID, status)
}

func (s *Service) Update(ctx context.Context, id, requesterID string, patch UpdatePatch) (*model.Todo, error) {
	const op = "todo.update"

	t, err := s.todos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != requesterID {
		return nil, errs.Forbidden(op, "not the owner")
	}

	if patch.Status != nil {
		next := *patch.Status
		if !next.Valid() {
			return nil, errs.Validation(op, "unknown status "+string(next))
		}
		if next != t.Status {
			if t.Status.Terminal() {
				return nil, errs.Validation(op, string(t.Status)+" is terminal")
			}
			t.Status = next
			if next == model.StatusDone && t.CompletedAt == nil {
				now := s.now()
				t.CompletedAt = &now
			}
		}
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, errs.Validation(op, "title cannot be empty")
		}
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, errs.Validation(op, "unknown priority "+string(*patch.Priority))
		}
		t.Priority = *patch.Priority
	}
	if patch.Tags != nil {
		t.Tags = pq.StringArray(patch.Tags)
	}
	if patch.ScheduledAt != nil {
		t.ScheduledAt = patch.ScheduledAt
	}
	if patch.DueAt != nil {
		t.DueAt = patch.DueAt
	}

	t.UpdatedAt = s.now()
	if err := s.todos.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Complete marks the todo done. Completing an already-done todo is a
// safe no-op.
func (s *Service) Complete(ctx context.Context, id, requesterID string) (*model.Todo, error) {
	const op = "todo.complete"

	t, err := s.todos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != requesterID {
		return nil, errs.Forbidden(op, "not the owner")
	}
	if t.Status == model.StatusArchived {
		return nil, errs.Validation(op, "archived is terminal")
	}

	if t.Status != model.StatusDone {
		if err := s.todos.UpdateStatus(ctx, id, model.StatusDone); err != nil {
			return nil, err
		}
		return s.todos.Get(ctx, id)
	}
	return t, nil
}

// Dismiss archives the todo.
func (s *Service) Dismiss(ctx context.Context, id, requesterID string) (*model.Todo, error) {
	const op = "todo.dismiss"

	t, err := s.todos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != requesterID {
		return nil, errs.Forbidden(op, "not the owner")
	}
	if t.Status == model.StatusDone {
		return nil, errs.Validation(op, "done is terminal")
	}

	if t.Status != model.StatusArchived {
		if err := s.todos.UpdateStatus(ctx, id, model.StatusArchived); err != nil {
			return nil, err
		}
		t.Status = model.StatusArchived
		t.UpdatedAt = s.now()
	}
	return t, nil
}

// SoftDelete hides the todo from all future reads, keeping the row for
// audit.
func (s *Service) SoftDelete(ctx context.Context, id, requesterID string) error {
	t, err := s.todos.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.UserID != requesterID {
		return errs.Forbidden("todo.delete", "not the owner")
	}
	return s.todos.SoftDelete(ctx, id)
}
