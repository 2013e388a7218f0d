package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/model"
)

// MemoryReminderStore is an in-memory ReminderStore. Soft-deleted rows
// stay in the map for audit, they are just invisible to reads.
type MemoryReminderStore struct {
	mu    sync.RWMutex
	items map[string]model.Reminder
}

func NewMemoryReminderStore() *MemoryReminderStore {
	return &MemoryReminderStore{items: make(map[string]model.Reminder)}
}

func (s *MemoryReminderStore) Insert(ctx context.Context, r *model.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.ID] = *r
	return nil
}

func (s *MemoryReminderStore) InsertIfAbsent(ctx context.Context, r *model.Reminder) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := SuccessorKey{
		UserID:      r.UserID,
		PetID:       r.PetID,
		Title:       r.Title,
		RepeatRule:  r.RepeatRule,
		ScheduledAt: r.ScheduledAt,
	}
	if s.matchLocked(key) {
		return false, nil
	}

	s.items[r.ID] = *r
	return true, nil
}

func (s *MemoryReminderStore) Get(ctx context.Context, id string) (*model.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.items[id]
	if !ok || r.DeletedAt != nil {
		return nil, errs.NotFound("get", "reminder")
	}
	out := r
	return &out, nil
}

func (s *MemoryReminderStore) Update(ctx context.Context, r *model.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[r.ID]
	if !ok || cur.DeletedAt != nil {
		return errs.NotFound("update", "reminder")
	}
	s.items[r.ID] = *r
	return nil
}

func (s *MemoryReminderStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[id]
	if !ok || r.DeletedAt != nil {
		return errs.NotFound("update_status", "reminder")
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	s.items[id] = r
	return nil
}

func (s *MemoryReminderStore) SoftDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[id]
	if !ok || r.DeletedAt != nil {
		return errs.NotFound("soft_delete", "reminder")
	}
	now := time.Now().UTC()
	r.DeletedAt = &now
	s.items[id] = r
	return nil
}

func (s *MemoryReminderStore) ListByUser(ctx context.Context, userID string, status model.Status) ([]model.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Reminder
	for _, r := range s.items {
		if r.DeletedAt != nil || r.UserID != userID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}

	// Map iteration is random; fix an order so reads are deterministic.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryReminderStore) SuccessorExists(ctx context.Context, key SuccessorKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matchLocked(key), nil
}

func (s *MemoryReminderStore) Count(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.items {
		if r.DeletedAt == nil && r.UserID == userID {
			n++
		}
	}
	return n, nil
}

// AuditSize reports every retained row, soft-deleted ones included.
func (s *MemoryReminderStore) AuditSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// matchLocked reports whether any live row occupies the successor key.
// Status is not part of the key: a done instance at the key still
// proves the successor was materialized once, so a late completion
// retry must not insert a second one.
func (s *MemoryReminderStore) matchLocked(key SuccessorKey) bool {
	for _, r := range s.items {
		if r.DeletedAt != nil {
			continue
		}
		if r.UserID == key.UserID && r.PetID == key.PetID &&
			r.Title == key.Title && r.RepeatRule == key.RepeatRule &&
			r.ScheduledAt.Equal(key.ScheduledAt) {
			return true
		}
	}
	return false
}

// MemoryTodoStore is an in-memory TodoStore with the same soft-delete
// semantics as the reminder store.
type MemoryTodoStore struct {
	mu    sync.RWMutex
	items map[string]model.Todo
}

func NewMemoryTodoStore() *MemoryTodoStore {
	return &MemoryTodoStore{items: make(map[string]model.Todo)}
}

func (s *MemoryTodoStore) Insert(ctx context.Context, t *model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[t.ID] = *t
	return nil
}

func (s *MemoryTodoStore) Get(ctx context.Context, id string) (*model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok || t.DeletedAt != nil {
		return nil, errs.NotFound("get", "todo")
	}
	out := t
	return &out, nil
}

func (s *MemoryTodoStore) Update(ctx context.Context, t *model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[t.ID]
	if !ok || cur.DeletedAt != nil {
		return errs.NotFound("update", "todo")
	}
	s.items[t.ID] = *t
	return nil
}

func (s *MemoryTodoStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.items[id]
	if !ok || t.DeletedAt != nil {
		return errs.NotFound("update_status", "todo")
	}
	t.Status = status
	now := time.Now().UTC()
	if status == model.StatusDone && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	t.UpdatedAt = now
	s.items[id] = t
	return nil
}

func (s *MemoryTodoStore) SoftDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.items[id]
	if !ok || t.DeletedAt != nil {
		return errs.NotFound("soft_delete", "todo")
	}
	now := time.Now().UTC()
	t.DeletedAt = &now
	s.items[id] = t
	return nil
}

func (s *MemoryTodoStore) ListByUser(ctx context.Context, userID string, status model.Status) ([]model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Todo
	for _, t := range s.items {
		if t.DeletedAt != nil || t.UserID != userID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryTodoStore) Count(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.items {
		if t.DeletedAt == nil && t.UserID == userID {
			n++
		}
	}
	return n, nil
}

// AuditSize reports every retained row, soft-deleted ones included.
func (s *MemoryTodoStore) AuditSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// StaticGate is a PetAccessGate backed by a fixed owner/co-owner map,
// used in tests and demo mode. Pets absent from the map have no owner
// restriction at all.
type StaticGate struct {
	// Owners maps petID to the user ids allowed to touch it. The first
	// entry is conventionally the primary owner.
	Owners map[string][]string
}

func (g *StaticGate) HasAccess(ctx context.Context, petID, userID string) (bool, error) {
	return g.allowed(petID, userID), nil
}

func (g *StaticGate) IsCoOwnerVisible(ctx context.Context, petID, userID string) (bool, error) {
	return g.allowed(petID, userID), nil
}

func (g *StaticGate) allowed(petID, userID string) bool {
	if g == nil || g.Owners == nil {
		return true
	}
	users, ok := g.Owners[petID]
	if !ok {
		return true
	}
	for _, u := range users {
		if u == userID {
			return true
		}
	}
	return false
}
