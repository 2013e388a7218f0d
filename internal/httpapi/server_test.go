package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/pawtrack/internal/calendar"
	"github.com/eleven-am/pawtrack/internal/model"
	"github.com/eleven-am/pawtrack/internal/reminder"
	"github.com/eleven-am/pawtrack/internal/store"
	"github.com/eleven-am/pawtrack/internal/todo"
)

func newTestServer() *Server {
	reminders := store.NewMemoryReminderStore()
	todos := store.NewMemoryTodoStore()
	gate := &store.StaticGate{Owners: map[string][]string{}}

	return NewServer(
		reminder.NewService(reminders, gate),
		todo.NewService(todos),
		calendar.NewAggregator(todos, reminders, gate),
	)
}

func doJSON(t *testing.T, srv *Server, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer()

	t.Run("missing identity header is unauthorized", func(t *testing.T) {
		rec := doJSON(t, srv, "GET", "/api/v1/calendar", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("health needs no identity", func(t *testing.T) {
		rec := doJSON(t, srv, "GET", "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestReminderEndpoints(t *testing.T) {
	srv := newTestServer()
	scheduled := time.Now().UTC().Add(48 * time.Hour)

	create := func(t *testing.T, user string, in reminder.CreateInput) model.Reminder {
		t.Helper()
		rec := doJSON(t, srv, "POST", "/api/v1/reminders", user, in)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var rm model.Reminder
		decodeBody(t, rec, &rm)
		return rm
	}

	t.Run("create and fetch round-trip", func(t *testing.T) {
		rm := create(t, "alice", reminder.CreateInput{
			Title:       "vet visit",
			ScheduledAt: scheduled,
			Tags:        []string{"health"},
		})
		assert.Equal(t, model.PriorityMedium, rm.Priority)

		rec := doJSON(t, srv, "GET", "/api/v1/reminders/"+rm.ID, "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got model.Reminder
		decodeBody(t, rec, &got)
		assert.Equal(t, rm.ID, got.ID)
		assert.Equal(t, "vet visit", got.Title)
	})

	t.Run("invalid body is a 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/reminders", bytes.NewBufferString("{not json"))
		req.Header.Set(UserIDHeader, "alice")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failures map to 400", func(t *testing.T) {
		rec := doJSON(t, srv, "POST", "/api/v1/reminders", "alice", reminder.CreateInput{
			ScheduledAt: scheduled,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign reminders are forbidden", func(t *testing.T) {
		rm := create(t, "alice", reminder.CreateInput{Title: "walk", ScheduledAt: scheduled})

		rec := doJSON(t, srv, "GET", "/api/v1/reminders/"+rm.ID, "mallory", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		rec := doJSON(t, srv, "GET", "/api/v1/reminders/nope", "alice", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("complete advances a recurring reminder", func(t *testing.T) {
		rm := create(t, "carol", reminder.CreateInput{
			Title:       "flea meds",
			ScheduledAt: scheduled,
			RepeatRule:  "FREQ=MONTHLY;INTERVAL=1",
		})

		rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/reminders/%s/complete", rm.ID), "carol", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var done model.Reminder
		decodeBody(t, rec, &done)
		assert.Equal(t, model.StatusDone, done.Status)

		rec = doJSON(t, srv, "GET", "/api/v1/reminders?status=pending", "carol", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var listed struct {
			Reminders []model.Reminder `json:"reminders"`
		}
		decodeBody(t, rec, &listed)
		require.Len(t, listed.Reminders, 1)
		assert.Equal(t, scheduled.AddDate(0, 1, 0).Unix(), listed.Reminders[0].ScheduledAt.Unix())
	})

	t.Run("patch and delete", func(t *testing.T) {
		rm := create(t, "dave", reminder.CreateInput{Title: "groom", ScheduledAt: scheduled})

		newTitle := "groom and trim"
		rec := doJSON(t, srv, "PATCH", "/api/v1/reminders/"+rm.ID, "dave", reminder.UpdatePatch{Title: &newTitle})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated model.Reminder
		decodeBody(t, rec, &updated)
		assert.Equal(t, newTitle, updated.Title)

		rec = doJSON(t, srv, "DELETE", "/api/v1/reminders/"+rm.ID, "dave", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, srv, "GET", "/api/v1/reminders/"+rm.ID, "dave", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("batch complete reports per-id failures", func(t *testing.T) {
		a := create(t, "erin", reminder.CreateInput{Title: "feed", ScheduledAt: scheduled})
		b := create(t, "erin", reminder.CreateInput{Title: "water", ScheduledAt: scheduled})

		rec := doJSON(t, srv, "POST", "/api/v1/reminders/batch-complete", "erin", map[string][]string{
			"ids": {a.ID, b.ID, "missing"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result reminder.BatchResult
		decodeBody(t, rec, &result)
		assert.Len(t, result.Completed, 2)
		assert.Len(t, result.Failed, 1)
	})

	t.Run("empty batch is a 400", func(t *testing.T) {
		rec := doJSON(t, srv, "POST", "/api/v1/reminders/batch-complete", "erin", map[string][]string{"ids": {}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTodoEndpoints(t *testing.T) {
	srv := newTestServer()

	t.Run("lifecycle", func(t *testing.T) {
		rec := doJSON(t, srv, "POST", "/api/v1/todos", "alice", todo.CreateInput{Title: "buy litter"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var td model.Todo
		decodeBody(t, rec, &td)

		rec = doJSON(t, srv, "POST", "/api/v1/todos/"+td.ID+"/complete", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var done model.Todo
		decodeBody(t, rec, &done)
		assert.Equal(t, model.StatusDone, done.Status)
		require.NotNil(t, done.CompletedAt)

		rec = doJSON(t, srv, "DELETE", "/api/v1/todos/"+td.ID, "alice", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("title is required", func(t *testing.T) {
		rec := doJSON(t, srv, "POST", "/api/v1/todos", "alice", todo.CreateInput{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCalendarEndpoints(t *testing.T) {
	srv := newTestServer()
	scheduled := time.Now().UTC().Add(24 * time.Hour)

	rec := doJSON(t, srv, "POST", "/api/v1/todos", "alice", todo.CreateInput{Title: "order food", ScheduledAt: &scheduled})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, srv, "POST", "/api/v1/reminders", "alice", reminder.CreateInput{Title: "vaccine", ScheduledAt: scheduled})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("merged list", func(t *testing.T) {
		rec := doJSON(t, srv, "GET", "/api/v1/calendar", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result calendar.ListResult
		decodeBody(t, rec, &result)
		assert.Equal(t, 2, result.Total)
		assert.Len(t, result.Items, 2)
	})

	t.Run("kind filter", func(t *testing.T) {
		rec := doJSON(t, srv, "GET", "/api/v1/calendar?item_kind=user_todo", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result calendar.ListResult
		decodeBody(t, rec, &result)
		require.Len(t, result.Items, 1)
		assert.Equal(t, model.KindUserTodo, result.Items[0].ItemKind)
	})

	t.Run("bad filters are 400s", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, "GET", "/api/v1/calendar?item_kind=bogus", "alice", nil).Code)
		assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, "GET", "/api/v1/calendar?start_date=yesterday", "alice", nil).Code)
		assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, "GET", "/api/v1/calendar?limit=many", "alice", nil).Code)
	})

	t.Run("time window filter", func(t *testing.T) {
		start := scheduled.Add(-time.Hour).Format(time.RFC3339)
		end := scheduled.Add(time.Hour).Format(time.RFC3339)
		rec := doJSON(t, srv, "GET", "/api/v1/calendar?start_date="+start+"&end_date="+end, "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result calendar.ListResult
		decodeBody(t, rec, &result)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("stats", func(t *testing.T) {
		rec := doJSON(t, srv, "GET", "/api/v1/calendar/stats", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var stats calendar.Stats
		decodeBody(t, rec, &stats)
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Todos)
		assert.Equal(t, 1, stats.Reminders)
	})

	t.Run("today and overdue views respond", func(t *testing.T) {
		for _, path := range []string{"/api/v1/calendar/today", "/api/v1/calendar/week", "/api/v1/calendar/overdue"} {
			rec := doJSON(t, srv, "GET", path, "alice", nil)
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
	})
}
