// Package httpapi exposes the pawtrack services over a JSON REST API.
// Identity comes from the X-User-ID header set by the fronting
// gateway; requests without it are rejected before any handler runs.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eleven-am/pawtrack/internal/calendar"
	"github.com/eleven-am/pawtrack/internal/logger"
	"github.com/eleven-am/pawtrack/internal/reminder"
	"github.com/eleven-am/pawtrack/internal/todo"
)

// Server routes API requests to the domain services.
type Server struct {
	router    *mux.Router
	reminders *reminder.Service
	todos     *todo.Service
	calendar  *calendar.Aggregator
	log       logger.Logger
}

func NewServer(reminders *reminder.Service, todos *todo.Service, cal *calendar.Aggregator) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		reminders: reminders,
		todos:     todos,
		calendar:  cal,
		log:       logger.HTTP(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(corsMiddleware)
	s.router.Use(s.requestLogger)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(requireUser)

	api.HandleFunc("/reminders", s.handleReminderCreate).Methods("POST")
	api.HandleFunc("/reminders", s.handleReminderList).Methods("GET")
	api.HandleFunc("/reminders/batch-complete", s.handleReminderBatchComplete).Methods("POST")
	api.HandleFunc("/reminders/{id}", s.handleReminderGet).Methods("GET")
	api.HandleFunc("/reminders/{id}", s.handleReminderUpdate).Methods("PATCH")
	api.HandleFunc("/reminders/{id}", s.handleReminderDelete).Methods("DELETE")
	api.HandleFunc("/reminders/{id}/complete", s.handleReminderComplete).Methods("POST")
	api.HandleFunc("/reminders/{id}/dismiss", s.handleReminderDismiss).Methods("POST")

	api.HandleFunc("/todos", s.handleTodoCreate).Methods("POST")
	api.HandleFunc("/todos", s.handleTodoList).Methods("GET")
	api.HandleFunc("/todos/{id}", s.handleTodoGet).Methods("GET")
	api.HandleFunc("/todos/{id}", s.handleTodoUpdate).Methods("PATCH")
	api.HandleFunc("/todos/{id}", s.handleTodoDelete).Methods("DELETE")
	api.HandleFunc("/todos/{id}/complete", s.handleTodoComplete).Methods("POST")
	api.HandleFunc("/todos/{id}/dismiss", s.handleTodoDismiss).Methods("POST")

	api.HandleFunc("/calendar", s.handleCalendarList).Methods("GET")
	api.HandleFunc("/calendar/today", s.handleCalendarToday).Methods("GET")
	api.HandleFunc("/calendar/week", s.handleCalendarWeek).Methods("GET")
	api.HandleFunc("/calendar/overdue", s.handleCalendarOverdue).Methods("GET")
	api.HandleFunc("/calendar/stats", s.handleCalendarStats).Methods("GET")
}

// ServeHTTP makes the server mountable as a plain http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
