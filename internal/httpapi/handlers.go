package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/eleven-am/pawtrack/internal/calendar"
	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/model"
	"github.com/eleven-am/pawtrack/internal/reminder"
	"github.com/eleven-am/pawtrack/internal/todo"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Errorf(err, "request failed")
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.Validation("http.decode", "invalid JSON body: "+err.Error())
	}
	return nil
}

// --- reminders ---

func (s *Server) handleReminderCreate(w http.ResponseWriter, r *http.Request) {
	var in reminder.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}

	rm, err := s.reminders.Create(r.Context(), userID(r), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rm)
}

func (s *Server) handleReminderList(w http.ResponseWriter, r *http.Request) {
	status := model.Status(r.URL.Query().Get("status"))

	items, err := s.reminders.List(r.Context(), userID(r), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reminders": items})
}

func (s *Server) handleReminderGet(w http.ResponseWriter, r *http.Request) {
	rm, err := s.reminders.Get(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleReminderUpdate(w http.ResponseWriter, r *http.Request) {
	var patch reminder.UpdatePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}

	rm, err := s.reminders.Update(r.Context(), mux.Vars(r)["id"], userID(r), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleReminderComplete(w http.ResponseWriter, r *http.Request) {
	rm, err := s.reminders.Complete(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleReminderDismiss(w http.ResponseWriter, r *http.Request) {
	rm, err := s.reminders.Dismiss(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleReminderDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.reminders.SoftDelete(r.Context(), mux.Vars(r)["id"], userID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReminderBatchComplete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.reminders.BatchComplete(r.Context(), body.IDs, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- todos ---

func (s *Server) handleTodoCreate(w http.ResponseWriter, r *http.Request) {
	var in todo.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}

	td, err := s.todos.Create(r.Context(), userID(r), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, td)
}

func (s *Server) handleTodoList(w http.ResponseWriter, r *http.Request) {
	status := model.Status(r.URL.Query().Get("status"))

	items, err := s.todos.List(r.Context(), userID(r), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"todos": items})
}

func (s *Server) handleTodoGet(w http.ResponseWriter, r *http.Request) {
	td, err := s.todos.Get(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

func (s *Server) handleTodoUpdate(w http.ResponseWriter, r *http.Request) {
	var patch todo.UpdatePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}

	td, err := s.todos.Update(r.Context(), mux.Vars(r)["id"], userID(r), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

func (s *Server) handleTodoComplete(w http.ResponseWriter, r *http.Request) {
	td, err := s.todos.Complete(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

func (s *Server) handleTodoDismiss(w http.ResponseWriter, r *http.Request) {
	td, err := s.todos.Dismiss(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

func (s *Server) handleTodoDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.todos.SoftDelete(r.Context(), mux.Vars(r)["id"], userID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- calendar ---

func (s *Server) handleCalendarList(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.calendar.List(r.Context(), userID(r), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCalendarToday(w http.ResponseWriter, r *http.Request) {
	result, err := s.calendar.Today(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCalendarWeek(w http.ResponseWriter, r *http.Request) {
	result, err := s.calendar.Week(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCalendarOverdue(w http.ResponseWriter, r *http.Request) {
	result, err := s.calendar.Overdue(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCalendarStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.calendar.ComputeStats(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseListOptions reads the calendar filters from the query string.
// Timestamps are RFC3339; malformed values are rejected rather than
// silently ignored.
func parseListOptions(r *http.Request) (calendar.ListOptions, error) {
	const op = "calendar.list"
	q := r.URL.Query()

	opts := calendar.ListOptions{
		ItemKind: model.ItemKind(q.Get("item_kind")),
		Status:   model.Status(q.Get("status")),
	}

	if raw := q.Get("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, errs.Validation(op, "start_date must be RFC3339")
		}
		opts.Start = &t
	}

	if raw := q.Get("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, errs.Validation(op, "end_date must be RFC3339")
		}
		opts.End = &t
	}

	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		return opts, errs.Validation(op, "limit must be an integer")
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		return opts, errs.Validation(op, "offset must be an integer")
	}

	return opts, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	return n, nil
}
