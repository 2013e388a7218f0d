// Package reminder owns the reminder state machine: pending instances
// are completed or dismissed by their owner, and completing a recurring
// instance materializes the next one. There is no background clock;
// recurrence only advances when someone completes an instance.
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/logger"
	"github.com/eleven-am/pawtrack/internal/model"
	"github.com/eleven-am/pawtrack/internal/recurrence"
	"github.com/eleven-am/pawtrack/internal/store"
)

// Service implements the reminder lifecycle over a ReminderStore and
// the external pet-access gate.
type Service struct {
	reminders store.ReminderStore
	gate      store.PetAccessGate
	log       logger.Logger
	now       func() time.Time
}

func NewService(reminders store.ReminderStore, gate store.PetAccessGate) *Service {
	return &Service{
		reminders: reminders,
		gate:      gate,
		log:       logger.Reminder(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the fields a new reminder is built from.
type CreateInput struct {
	PetID       string         `json:"pet_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	Tags        []string       `json:"tags"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	DueAt       *time.Time     `json:"due_at"`
	RepeatRule  string         `json:"repeat_rule"`
	Timezone    string         `json:"timezone"`
}

// UpdatePatch carries optional field edits; nil pointers leave the
// field untouched. Tags replaces the whole list when non-nil.
type UpdatePatch struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *model.Priority `json:"priority"`
	Status      *model.Status   `json:"status"`
	Tags        []string        `json:"tags"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
	DueAt       *time.Time      `json:"due_at"`
	SnoozeUntil *time.Time      `json:"snooze_until"`
	RepeatRule  *string         `json:"repeat_rule"`
	Timezone    *string         `json:"timezone"`
}

// Create validates the input, runs the pet-access gate for pet-scoped
// reminders, and inserts a pending instance.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*model.Reminder, error) {
	const op = "reminder.create"

	if ownerID == "" {
		return nil, errs.Validation(op, "owner id is required")
	}
	if in.Title == "" {
		return nil, errs.Validation(op, "title is required")
	}
	if in.ScheduledAt.IsZero() {
		return nil, errs.Validation(op, "scheduled_at is required")
	}
	if in.ScheduledAt.Before(s.now()) {
		return nil, errs.Validation(op, "scheduled_at must not be in the past")
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, errs.Validation(op, "unknown priority "+string(in.Priority))
	}

	if in.PetID != "" {
		ok, err := s.gate.HasAccess(ctx, in.PetID, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.Forbidden(op, "no access to pet "+in.PetID)
		}
	}

	now := s.now()
	r := &model.Reminder{
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
		RepeatRule:  in.RepeatRule,
		Timezone:    in.Timezone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.reminders.Insert(ctx, r); err != nil {
		return nil, err
	}

	s.log.Debugf("created reminder %s for user %s", r.ID, ownerID)
	return r, nil
}

// Get returns a single reminder, owner-only.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*model.Reminder, error) {
	const op = "reminder.get"

	r, err := s.reminders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != requesterID {
		return nil, errs.Forbidden(op, "not the owner")
	}
	return r, nil
}

// List returns the requester's live reminders, optionally by status.
func (s *Service) List(ctx context.Context, requesterID string, status model.Status) ([]model.Reminder, error) {
	if status != "" && !status.Valid() {
		return nil, errs.Validation("reminder.list", "unknown status "+string(status))
	}
	return s.reminders.ListByUser(ctx, requesterID, status)
}

// Update applies field edits. Ownership is by user id: pet co-owners
// may not edit another user's reminder.
func (s *Service) Update(ctx context.Context, id, requesterID string, patch UpdatePatch) (*model.Reminder, error) {
	const op = "reminder.update"

	r, err := s.reminders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != requesterID {
		return nil, errs.Forbidden(op, "not the owner")
	}

	if patch.Status != nil {
		next := *patch.Status
		if !next.Valid() {
			return nil, errs.Validation(op, "unknown status "+string(next))
		}
		if next != r.Status {
			if r.Status.Terminal() {
				return nil, errs.Validation(op, string(r.Status)+" is terminal")
			}
			r.Status = next
		}
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, errs.Validation(op, "title cannot be empty")
		}
		r.Title = *patch.Title
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, errs.Validation(op, "unknown priority "+string(*patch.Priority))
		}
		r.Priority = *patch.Priority
	}
	if patch.Tags != nil {
		r.Tags = pq.StringArray(patch.Tags)
	}
	if patch.ScheduledAt != nil {
		r.ScheduledAt = *patch.ScheduledAt
	}
	if patch.DueAt != nil {
		r.DueAt = patch.DueAt
	}
	if patch.SnoozeUntil != nil {
		r.SnoozeUntil = patch.SnoozeUntil
	}
	if patch.RepeatRule != nil {
		r.RepeatRule = *patch.RepeatRule
	}
	if patch.Timezone != nil {
		r.Timezone = *patch.Timezone
	}

	r.UpdatedAt = s.now()
	if err := s.reminders.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Complete marks the instance done and, for recurring reminders,
// materializes the next instance. Completing an already-done instance
// is a no-op status-wise but never an error, and a rule that fails to
// parse never blocks completion; recurrence is best-effort.
func (s *Service) Complete(ctx context.Context, id, requesterID string) (*model.Reminder, error) {
	const op = "reminder.complete"

	r, err := s.reminders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != requesterID {
		return nil, errs.Forbidden(op, "not the owner")
	}
	if r.Status == model.StatusArchived {
		return nil, errs.Validation(op, "archived is terminal")
	}

	if r.Status != model.StatusDone {
		if err := s.reminders.UpdateStatus(ctx, id, model.StatusDone); err != nil {
			return nil, err
		}
		r.Status = model.StatusDone
		r.UpdatedAt = s.now()
	}

	if !r.Recurring() {
		return r, nil
	}

	nextAt, ok := recurrence.Next(r.ScheduledAt, r.RepeatRule)
	if !ok {
		// A malformed rule degrades to non-recurring.
		s.log.Debugf("reminder %s has unparseable repeat rule %q, no successor", r.ID, r.RepeatRule)
		return r, nil
	}

	successor := s.buildSuccessor(r, nextAt)

	// The existence check runs first so a retried completion usually
	// bails out here; the store's insert-if-absent closes the window
	// between the check and the insert.
	key := store.SuccessorKey{
		UserID:      r.UserID,
		PetID:       r.PetID,
		Title:       r.Title,
		RepeatRule:  r.RepeatRule,
		ScheduledAt: nextAt,
	}
	exists, err := s.reminders.SuccessorExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		s.log.Debugf("successor for reminder %s at %s already exists", r.ID, nextAt)
		return r, nil
	}

	inserted, err := s.reminders.InsertIfAbsent(ctx, successor)
	if err != nil {
		return nil, err
	}
	if inserted {
		s.log.Infof("reminder %s completed, next instance %s scheduled at %s", r.ID, successor.ID, nextAt)
	}

	return r, nil
}

func (s *Service) buildSuccessor(r *model.Reminder, nextAt time.Time) *model.Reminder {
	now := s.now()
	successor := &model.Reminder{
		ID:          uuid.NewString(),
		UserID:      r.UserID,
		PetID:       r.PetID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      model.StatusPending,
		Tags:        r.Tags,
		ScheduledAt: nextAt,
		RepeatRule:  r.RepeatRule,
		Timezone:    r.Timezone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.DueAt != nil {
		// Keep the same due offset relative to the schedule.
		due := nextAt.Add(r.DueAt.Sub(r.ScheduledAt))
		successor.DueAt = &due
	}
	return successor
}

// Dismiss archives the instance. Dismissal is not completion: it never
// generates a successor.
func (s *Service) Dismiss(ctx context.Context, id, requesterID string) (*model.Reminder, error) {
	const op = "reminder.dismiss"

	r, err := s.reminders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != requesterID {
		return nil, errs.Forbidden(op, "not the owner")
	}
	if r.Status == model.StatusDone {
		return nil, errs.Validation(op, "done is terminal")
	}

	if r.Status != model.StatusArchived {
		if err := s.reminders.UpdateStatus(ctx, id, model.StatusArchived); err != nil {
			return nil, err
		}
		r.Status = model.StatusArchived
		r.UpdatedAt = s.now()
	}
	return r, nil
}

// SoftDelete hides the reminder from all future reads while keeping the
// row for audit.
func (s *Service) SoftDelete(ctx context.Context, id, requesterID string) error {
	const op = "reminder.delete"

	r, err := s.reminders.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != requesterID {
		return errs.Forbidden(op, "not the owner")
	}
	return s.reminders.SoftDelete(ctx, id)
}

// BatchFailure records why one id in a batch completion failed.
type BatchFailure struct {
	ID  string `json:"id"`
	Err string `json:"error"`
}

// BatchResult is the outcome of a batch completion. The batch is not
// atomic: completed and failed entries can coexist.
type BatchResult struct {
	Completed []*model.Reminder `json:"completed"`
	Failed    []BatchFailure    `json:"failed"`
}

// BatchComplete de-duplicates ids and completes each sequentially. Each
// completion is independently authorized and independently idempotent.
func (s *Service) BatchComplete(ctx context.Context, ids []string, requesterID string) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, errs.Validation("reminder.batch_complete", "no ids given")
	}

	seen := make(map[string]struct{}, len(ids))
	result := &BatchResult{}

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		r, err := s.Complete(ctx, id, requesterID)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{ID: id, Err: err.Error()})
			continue
		}
		result.Completed = append(result.Completed, r)
	}

	return result, nil
}
