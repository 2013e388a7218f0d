package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/model"
)

const (
	reminderTable = "pet_reminders"
	todoTable     = "user_todos"
)

var reminderColumns = []string{
	"id", "user_id", "pet_id", "title", "description", "priority", "status",
	"tags", "scheduled_at", "due_at", "snooze_until", "repeat_rule", "timezone",
	"created_at", "updated_at", "deleted_at",
}

var todoColumns = []string{
	"id", "user_id", "pet_id", "title", "description", "priority", "status",
	"tags", "scheduled_at", "due_at", "completed_at",
	"created_at", "updated_at", "deleted_at",
}

// psql builds queries with Postgres dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresReminderStore is the sqlx-backed ReminderStore.
type PostgresReminderStore struct {
	db *sqlx.DB
}

func NewPostgresReminderStore(db *sqlx.DB) *PostgresReminderStore {
	return &PostgresReminderStore{db: db}
}

func reminderValues(r *model.Reminder) []interface{} {
	return []interface{}{
		r.ID, r.UserID, r.PetID, r.Title, r.Description, r.Priority, r.Status,
		r.Tags, r.ScheduledAt, r.DueAt, r.SnoozeUntil, r.RepeatRule, r.Timezone,
		r.CreatedAt, r.UpdatedAt, r.DeletedAt,
	}
}

func (s *PostgresReminderStore) Insert(ctx context.Context, r *model.Reminder) error {
	query, args, err := psql.Insert(reminderTable).
		Columns(reminderColumns...).
		Values(reminderValues(r)...).
		ToSql()
	if err != nil {
		return errs.FromPostgres(err, "insert", "reminder")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errs.FromPostgres(err, "insert", "reminder")
	}
	return nil
}

// InsertIfAbsent relies on the partial unique index over
// (user_id, pet_id, title, repeat_rule, scheduled_at) for live recurring
// rows of any status, so the check-and-insert is a single atomic
// statement.
func (s *PostgresReminderStore) InsertIfAbsent(ctx context.Context, r *model.Reminder) (bool, error) {
	query, args, err := psql.Insert(reminderTable).
		Columns(reminderColumns...).
		Values(reminderValues(r)...).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return false, errs.FromPostgres(err, "insert_if_absent", "reminder")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errs.FromPostgres(err, "insert_if_absent", "reminder")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.FromPostgres(err, "insert_if_absent", "reminder")
	}
	return n > 0, nil
}

func (s *PostgresReminderStore) Get(ctx context.Context, id string) (*model.Reminder, error) {
	query, args, err := psql.Select(reminderColumns...).
		From(reminderTable).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, errs.FromPostgres(err, "get", "reminder")
	}

	var r model.Reminder
	if err := s.db.GetContext(ctx, &r, query, args...); err != nil {
		return nil, errs.FromPostgres(err, "get", "reminder")
	}
	return &r, nil
}

func (s *PostgresReminderStore) Update(ctx context.Context, r *model.Reminder) error {
	query, args, err := psql.Update(reminderTable).
		Set("pet_id", r.PetID).
		Set("title", r.Title).
		Set("description", r.Description).
		Set("priority", r.Priority).
		Set("status", r.Status).
		Set("tags", r.Tags).
		Set("scheduled_at", r.ScheduledAt).
		Set("due_at", r.DueAt).
		Set("snooze_until", r.SnoozeUntil).
		Set("repeat_rule", r.RepeatRule).
		Set("timezone", r.Timezone).
		Set("updated_at", r.UpdatedAt).
		Where(sq.Eq{"id": r.ID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return errs.FromPostgres(err, "update", "reminder")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errs.FromPostgres(err, "update", "reminder")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("update", "reminder")
	}
	return nil
}

func (s *PostgresReminderStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	query, args, err := psql.Update(reminderTable).
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return errs.FromPostgres(err, "update_status", "reminder")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errs.FromPostgres(err, "update_status", "reminder")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("update_status", "reminder")
	}
	return nil
}

func (s *PostgresReminderStore) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query, args, err := psql.Update(reminderTable).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return errs.FromPostgres(err, "soft_delete", "reminder")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errs.FromPostgres(err, "soft_delete", "reminder")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("soft_delete", "reminder")
	}
	return nil
}

func (s *PostgresReminderStore) ListByUser(ctx context.Context, userID string, status model.Status) ([]model.Reminder, error) {
	builder := psql.Select(reminderColumns...).
		From(reminderTable).
		Where(sq.Eq{"user_id": userID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at ASC", "id ASC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errs.FromPostgres(err, "list", "reminder")
	}

	var out []model.Reminder
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errs.FromPostgres(err, "list", "reminder")
	}
	return out, nil
}

func (s *PostgresReminderStore) SuccessorExists(ctx context.Context, key SuccessorKey) (bool, error) {
	query, args, err := psql.Select("COUNT(*)").
		From(reminderTable).
		Where(sq.Eq{
			"user_id":      key.UserID,
			"pet_id":       key.PetID,
			"title":        key.Title,
			"repeat_rule":  key.RepeatRule,
			"scheduled_at": key.ScheduledAt,
		}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return false, errs.FromPostgres(err, "successor_exists", "reminder")
	}

	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, errs.FromPostgres(err, "successor_exists", "reminder")
	}
	return n > 0, nil
}

func (s *PostgresReminderStore) Count(ctx context.Context, userID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From(reminderTable).
		Where(sq.Eq{"user_id": userID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return 0, errs.FromPostgres(err, "count", "reminder")
	}

	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, errs.FromPostgres(err, "count", "reminder")
	}
	return n, nil
}

// PostgresTodoStore is the sqlx-backed TodoStore.
type PostgresTodoStore struct {
	db *sqlx.DB
}

func NewPostgresTodoStore(db *sqlx.DB) *PostgresTodoStore {
	return &PostgresTodoStore{db: db}
}

func (s *PostgresTodoStore) Insert(ctx context.Context, t *model.Todo) error {
	query, args, err := psql.Insert(todoTable).
		Columns(todoColumns...).
		Values(
			t.ID, t.UserID, t.PetID, t.Title, t.Description, t.Priority, t.Status,
			t.Tags, t.ScheduledAt, t.DueAt, t.CompletedAt,
			t.CreatedAt, t.UpdatedAt, t.DeletedAt,
		).
		ToSql()
	if err != nil {
		return errs.FromPostgres(err, "insert", "todo")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errs.FromPostgres(err, "insert", "todo")
	}
	return nil
}

func (s *PostgresTodoStore) Get(ctx context.Context, id string) (*model.Todo, error) {
	query, args, err := psql.Select(todoColumns...).
		From(todoTable).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, errs.FromPostgres(err, "get", "todo")
	}

	var t model.Todo
	if err := s.db.GetContext(ctx, &t, query, args...); err != nil {
		return nil, errs.FromPostgres(err, "get", "todo")
	}
	return &t, nil
}

func (s *PostgresTodoStore) Update(ctx context.Context, t *model.Todo) error {
	query, args, err := psql.Update(todoTable).
		Set("pet_id", t.PetID).
		Set("title", t.Title).
		Set("description", t.Description).
		Set("priority", t.Priority).
		Set("status", t.Status).
		Set("tags", t.Tags).
		Set("scheduled_at", t.ScheduledAt).
		Set("due_at", t.DueAt).
		Set("completed_at", t.CompletedAt).
		Set("updated_at", t.UpdatedAt).
		Where(sq.Eq{"id": t.ID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return errs.FromPostgres(err, "update", "todo")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errs.FromPostgres(err, "update", "todo")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("update", "todo")
	}
	return nil
}

// UpdateStatus also stamps completed_at when the todo transitions to
// done, so completion time is recorded the instant the status changes.
func (s *PostgresTodoStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	now := time.Now().UTC()
	builder := psql.Update(todoTable).
		Set("status", status).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL")
	if status == model.StatusDone {
		builder = builder.Set("completed_at", now)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return errs.FromPostgres(err, "update_status", "todo")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errs.FromPostgres(err, "update_status", "todo")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("update_status", "todo")
	}
	return nil
}

func (s *PostgresTodoStore) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query, args, err := psql.Update(todoTable).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return errs.FromPostgres(err, "soft_delete", "todo")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errs.FromPostgres(err, "soft_delete", "todo")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("soft_delete", "todo")
	}
	return nil
}

func (s *PostgresTodoStore) ListByUser(ctx context.Context, userID string, status model.Status) ([]model.Todo, error) {
	builder := psql.Select(todoColumns...).
		From(todoTable).
		Where(sq.Eq{"user_id": userID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at ASC", "id ASC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errs.FromPostgres(err, "list", "todo")
	}

	var out []model.Todo
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errs.FromPostgres(err, "list", "todo")
	}
	return out, nil
}

func (s *PostgresTodoStore) Count(ctx context.Context, userID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From(todoTable).
		Where(sq.Eq{"user_id": userID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return 0, errs.FromPostgres(err, "count", "todo")
	}

	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, errs.FromPostgres(err, "count", "todo")
	}
	return n, nil
}

// Compile-time interface checks
var (
	_ ReminderStore = (*PostgresReminderStore)(nil)
	_ ReminderStore = (*MemoryReminderStore)(nil)
	_ TodoStore     = (*PostgresTodoStore)(nil)
	_ TodoStore     = (*MemoryTodoStore)(nil)
	_ PetAccessGate = (*StaticGate)(nil)
)
