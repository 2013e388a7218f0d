package errs

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := &Error{Op: "reminder.create", Entity: "reminder", Err: ErrValidation, Reason: "title is required"}

	msg := err.Error()
	assert.Contains(t, msg, "pawtrack: reminder.create")
	assert.Contains(t, msg, "entity=reminder")
	assert.Contains(t, msg, "title is required")
}

func TestErrorMatching(t *testing.T) {
	t.Run("sentinels survive wrapping", func(t *testing.T) {
		err := Validation("calendar.list", "unknown status")
		assert.ErrorIs(t, err, ErrValidation)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("errors.As recovers the structured error", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", Forbidden("reminder.update", "not the owner"))

		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, "reminder.update", e.Op)
	})
}

func TestFromPostgres(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, FromPostgres(nil, "get", "todo"))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		err := FromPostgres(sql.ErrNoRows, "get", "todo")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unique violation becomes conflict", func(t *testing.T) {
		raw := errors.New(`pq: duplicate key value violates unique constraint "pet_reminders_successor_key"`)
		err := FromPostgres(raw, "insert", "reminder")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("constraint violations become validation", func(t *testing.T) {
		raw := errors.New(`pq: null value in column "title" violates not-null constraint`)
		err := FromPostgres(raw, "insert", "reminder")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Validation("op", "bad"), http.StatusBadRequest},
		{NotFound("op", "reminder"), http.StatusNotFound},
		{Forbidden("op", "nope"), http.StatusForbidden},
		{Conflict("op", "reminder", "dup"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err))
	}
}
