package errs

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	// ErrConflict is reserved for persistence collaborators (unique
	// violations outside the successor guard, which is silent).
	ErrConflict = errors.New("conflict")
)

// Error provides detailed error information
type Error struct {
	Op     string // Operation that failed
	Entity string // Entity involved (reminder, todo, calendar, ...)
	Reason string // Human-readable detail
	Err    error  // Underlying error kind
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("pawtrack: %s", e.Op))

	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for Error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return errors.Is(e.Err, target)
	}

	if t.Op != "" && e.Op == t.Op {
		return true
	}

	return errors.Is(e.Err, t.Err)
}

// Validation builds a validation error for the given operation.
func Validation(op, reason string) error {
	return &Error{Op: op, Err: ErrValidation, Reason: reason}
}

// NotFound builds a not-found error for the given entity.
func NotFound(op, entity string) error {
	return &Error{Op: op, Entity: entity, Err: ErrNotFound}
}

// Forbidden builds an authorization error.
func Forbidden(op, reason string) error {
	return &Error{Op: op, Err: ErrForbidden, Reason: reason}
}

// Conflict builds a conflict error for the given entity.
func Conflict(op, entity, reason string) error {
	return &Error{Op: op, Entity: entity, Err: ErrConflict, Reason: reason}
}

// FromPostgres converts database errors into the pawtrack taxonomy.
func FromPostgres(err error, op, entity string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Entity: entity, Err: ErrNotFound}
	}

	errStr := err.Error()

	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return &Error{Op: op, Entity: entity, Err: ErrConflict, Reason: errStr}
	}

	if strings.Contains(errStr, "violates not-null constraint") ||
		strings.Contains(errStr, "violates check constraint") {
		return &Error{Op: op, Entity: entity, Err: ErrValidation, Reason: errStr}
	}

	return &Error{Op: op, Entity: entity, Err: err}
}

// HTTPStatus maps an error to the client-facing status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
