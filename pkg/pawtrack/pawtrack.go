// Package pawtrack wires the stores, services, and HTTP surface into
// a single app handle. It is the entry point for embedding pawtrack
// as well as for the CLI.
package pawtrack

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/pawtrack/internal/calendar"
	"github.com/eleven-am/pawtrack/internal/httpapi"
	"github.com/eleven-am/pawtrack/internal/migrator"
	"github.com/eleven-am/pawtrack/internal/reminder"
	"github.com/eleven-am/pawtrack/internal/store"
	"github.com/eleven-am/pawtrack/internal/todo"
)

// App is a fully wired pawtrack instance.
type App struct {
	Reminders *reminder.Service
	Todos     *todo.Service
	Calendar  *calendar.Aggregator
	Server    *httpapi.Server

	db *sqlx.DB
}

// New connects to the database and wires the Postgres-backed services.
func New(ctx context.Context, databaseURL string) (*App, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := migrator.NewDBConfig(databaseURL).ConnectX(ctx)
	if err != nil {
		return nil, err
	}

	reminderStore := store.NewPostgresReminderStore(db)
	todoStore := store.NewPostgresTodoStore(db)
	gate := store.NewPostgresGate(db)

	app := wire(reminderStore, todoStore, gate)
	app.db = db
	return app, nil
}

// NewInMemory wires the services over volatile in-memory stores. Used
// for demos and tests; nothing survives a restart.
func NewInMemory() *App {
	return wire(
		store.NewMemoryReminderStore(),
		store.NewMemoryTodoStore(),
		&store.StaticGate{Owners: map[string][]string{}},
	)
}

func wire(reminders store.ReminderStore, todos store.TodoStore, gate store.PetAccessGate) *App {
	reminderSvc := reminder.NewService(reminders, gate)
	todoSvc := todo.NewService(todos)
	cal := calendar.NewAggregator(todos, reminders, gate)

	return &App{
		Reminders: reminderSvc,
		Todos:     todoSvc,
		Calendar:  cal,
		Server:    httpapi.NewServer(reminderSvc, todoSvc, cal),
	}
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
