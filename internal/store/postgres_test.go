package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func sampleReminder() *model.Reminder {
	now := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	return &model.Reminder{
		ID:          "rem-1",
		UserID:      "alice",
		PetID:       "rex",
		Title:       "Heartworm pill",
		Priority:    model.PriorityHigh,
		Status:      model.StatusPending,
		Tags:        pq.StringArray{"meds"},
		ScheduledAt: now,
		RepeatRule:  "FREQ=MONTHLY",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPostgresReminderStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)

		mock.ExpectExec(`INSERT INTO pet_reminders`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Insert(ctx, sampleReminder()))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertIfAbsent reports conflict as not inserted", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)

		mock.ExpectExec(`INSERT INTO pet_reminders .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := s.InsertIfAbsent(ctx, sampleReminder())
		require.NoError(t, err)
		assert.False(t, inserted)

		mock.ExpectExec(`INSERT INTO pet_reminders .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err = s.InsertIfAbsent(ctx, sampleReminder())
		require.NoError(t, err)
		assert.True(t, inserted)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Get maps missing rows to not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)

		mock.ExpectQuery(`SELECT .* FROM pet_reminders WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Get scans a live row", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)
		r := sampleReminder()

		rows := sqlmock.NewRows(reminderColumns).
			AddRow(r.ID, r.UserID, r.PetID, r.Title, r.Description, r.Priority, r.Status,
				"{meds}", r.ScheduledAt, r.DueAt, r.SnoozeUntil, r.RepeatRule, r.Timezone,
				r.CreatedAt, r.UpdatedAt, nil)

		mock.ExpectQuery(`SELECT .* FROM pet_reminders WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs(r.ID).
			WillReturnRows(rows)

		got, err := s.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.Title, got.Title)
		assert.Equal(t, r.RepeatRule, got.RepeatRule)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateStatus on a soft-deleted row is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)

		mock.ExpectExec(`UPDATE pet_reminders SET status = \$1, updated_at = \$2 WHERE id = \$3 AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateStatus(ctx, "gone", model.StatusDone)
		assert.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SoftDelete stamps deleted_at", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)

		mock.ExpectExec(`UPDATE pet_reminders SET deleted_at = \$1, updated_at = \$2 WHERE id = \$3 AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.SoftDelete(ctx, "rem-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SuccessorExists counts live matches regardless of status", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pet_reminders`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := s.SuccessorExists(ctx, SuccessorKey{
			UserID:      "alice",
			PetID:       "rex",
			Title:       "Heartworm pill",
			RepeatRule:  "FREQ=MONTHLY",
			ScheduledAt: time.Now(),
		})
		require.NoError(t, err)
		assert.True(t, exists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListByUser applies the optional status filter", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReminderStore(db)

		mock.ExpectQuery(`SELECT .* FROM pet_reminders WHERE user_id = \$1 AND deleted_at IS NULL AND status = \$2`).
			WithArgs("alice", model.StatusPending).
			WillReturnRows(sqlmock.NewRows(reminderColumns))

		_, err := s.ListByUser(ctx, "alice", model.StatusPending)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTodoStore(t *testing.T) {
	ctx := context.Background()

	t.Run("UpdateStatus to done also sets completed_at", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresTodoStore(db)

		mock.ExpectExec(`UPDATE user_todos SET status = \$1, updated_at = \$2, completed_at = \$3 WHERE id = \$4 AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateStatus(ctx, "todo-1", model.StatusDone))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateStatus to archived leaves completed_at alone", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresTodoStore(db)

		mock.ExpectExec(`UPDATE user_todos SET status = \$1, updated_at = \$2 WHERE id = \$3 AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateStatus(ctx, "todo-1", model.StatusArchived))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Count", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresTodoStore(db)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_todos WHERE user_id = \$1 AND deleted_at IS NULL`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		n, err := s.Count(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresGate(t *testing.T) {
	ctx := context.Background()

	t.Run("unrestricted pet allows everyone", func(t *testing.T) {
		db, mock := newMockDB(t)
		g := NewPostgresGate(db)

		mock.ExpectQuery(`SELECT COALESCE\(bool_or\(user_id = \$1\), TRUE\) FROM pet_access WHERE pet_id = \$2`).
			WithArgs("anyone", "stray").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(true))

		ok, err := g.HasAccess(ctx, "stray", "anyone")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("restricted pet requires a matching row", func(t *testing.T) {
		db, mock := newMockDB(t)
		g := NewPostgresGate(db)

		mock.ExpectQuery(`SELECT COALESCE\(bool_or\(user_id = \$1\), TRUE\) FROM pet_access WHERE pet_id = \$2`).
			WithArgs("mallory", "rex").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(false))

		ok, err := g.IsCoOwnerVisible(ctx, "rex", "mallory")
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("answers in one round-trip", func(t *testing.T) {
		db, mock := newMockDB(t)
		g := NewPostgresGate(db)

		mock.ExpectQuery(`SELECT COALESCE\(bool_or\(user_id = \$1\), TRUE\) FROM pet_access WHERE pet_id = \$2`).
			WithArgs("bob", "rex").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(true))

		ok, err := g.HasAccess(ctx, "rex", "bob")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
