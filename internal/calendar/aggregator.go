// Package calendar merges todos and reminders into one ordered,
// filterable, paginated view and computes roll-up statistics. It never
// mutates either source.
package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/logger"
	"github.com/eleven-am/pawtrack/internal/model"
	"github.com/eleven-am/pawtrack/internal/store"
)

const (
	// DefaultLimit applies when a caller does not ask for a page size.
	DefaultLimit = 100
	// DayViewLimit caps the today view.
	DayViewLimit = 1000
)

// Aggregator reads both item stores and the pet-access gate.
type Aggregator struct {
	todos     store.TodoStore
	reminders store.ReminderStore
	gate      store.PetAccessGate
	log       logger.Logger
	now       func() time.Time
}

func NewAggregator(todos store.TodoStore, reminders store.ReminderStore, gate store.PetAccessGate) *Aggregator {
	return &Aggregator{
		todos:     todos,
		reminders: reminders,
		gate:      gate,
		log:       logger.Calendar(),
		now:       time.Now,
	}
}

// ListOptions filter and paginate the merged view. Zero values mean
// "no constraint" (and Limit 0 means DefaultLimit).
type ListOptions struct {
	ItemKind model.ItemKind
	Status   model.Status
	Start    *time.Time
	End      *time.Time
	Limit    int
	Offset   int
}

// ListResult is one page of the merged view plus the pre-pagination
// total.
type ListResult struct {
	Items []model.CalendarItem `json:"items"`
	Total int                  `json:"total"`
}

// Stats are read-time roll-ups over both sources; nothing here is a
// running counter.
type Stats struct {
	Total     int                  `json:"total"`
	ByStatus  map[model.Status]int `json:"by_status"`
	Overdue   int                  `json:"overdue"`
	Todos     int                  `json:"todos"`
	Reminders int                  `json:"reminders"`
}

// List merges, filters, sorts, and paginates both sources. Filter
// validation happens before any store is queried.
func (a *Aggregator) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	const op = "calendar.list"

	if opts.ItemKind != "" && !opts.ItemKind.Valid() {
		return nil, errs.Validation(op, "unknown item kind "+string(opts.ItemKind))
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, errs.Validation(op, "unknown status "+string(opts.Status))
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, errs.Validation(op, "limit and offset must not be negative")
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}

	merged, err := a.collect(ctx, userID, opts.ItemKind, opts.Status)
	if err != nil {
		return nil, err
	}

	filtered := merged[:0]
	for _, item := range merged {
		if inRange(&item, opts.Start, opts.End) {
			filtered = append(filtered, item)
		}
	}

	sortItems(filtered)

	total := len(filtered)
	a.log.Debugf("merged %d item(s) for user %s", total, userID)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	page := make([]model.CalendarItem, end-start)
	copy(page, filtered[start:end])

	return &ListResult{Items: page, Total: total}, nil
}

// Today returns the pending items whose scheduled or due time falls
// within the server-local calendar day containing now.
func (a *Aggregator) Today(ctx context.Context, userID string) (*ListResult, error) {
	now := a.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// The range filter is inclusive on both ends; back off a tick so
	// the window stays [midnight, midnight+24h).
	dayEnd := midnight.Add(24*time.Hour - time.Nanosecond)

	return a.List(ctx, userID, ListOptions{
		Status: model.StatusPending,
		Start:  &midnight,
		End:    &dayEnd,
		Limit:  DayViewLimit,
	})
}

// Week returns items within the Monday-to-Sunday week containing now.
func (a *Aggregator) Week(ctx context.Context, userID string) (*ListResult, error) {
	now := a.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	daysSinceMonday := (int(midnight.Weekday()) + 6) % 7
	monday := midnight.AddDate(0, 0, -daysSinceMonday)
	weekEnd := monday.AddDate(0, 0, 7).Add(-time.Nanosecond)

	return a.List(ctx, userID, ListOptions{
		Start: &monday,
		End:   &weekEnd,
		Limit: DayViewLimit,
	})
}

// Overdue returns every pending item whose due time has passed, from
// both sources, unpaginated.
func (a *Aggregator) Overdue(ctx context.Context, userID string) (*ListResult, error) {
	merged, err := a.collect(ctx, userID, "", model.StatusPending)
	if err != nil {
		return nil, err
	}

	now := a.now()
	overdue := merged[:0]
	for _, item := range merged {
		if item.DueAt != nil && item.DueAt.Before(now) {
			overdue = append(overdue, item)
		}
	}

	sortItems(overdue)
	out := make([]model.CalendarItem, len(overdue))
	copy(out, overdue)
	return &ListResult{Items: out, Total: len(out)}, nil
}

// ComputeStats aggregates status counts, the overdue count, and the
// per-source breakdown. Counts are recomputed from current rows on
// every call.
func (a *Aggregator) ComputeStats(ctx context.Context, userID string) (*Stats, error) {
	merged, err := a.collect(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByStatus: make(map[model.Status]int)}
	now := a.now()
	for _, item := range merged {
		stats.Total++
		stats.ByStatus[item.Status]++
		if item.Status == model.StatusPending && item.DueAt != nil && item.DueAt.Before(now) {
			stats.Overdue++
		}
		switch item.ItemKind {
		case model.KindUserTodo:
			stats.Todos++
		case model.KindPetReminder:
			stats.Reminders++
		}
	}

	return stats, nil
}

// collect fetches and projects both sources, applying the status filter
// at the store and the pet-visibility gate on reminders.
func (a *Aggregator) collect(ctx context.Context, userID string, kind model.ItemKind, status model.Status) ([]model.CalendarItem, error) {
	var merged []model.CalendarItem

	if kind == "" || kind == model.KindUserTodo {
		todos, err := a.todos.ListByUser(ctx, userID, status)
		if err != nil {
			return nil, err
		}
		for i := range todos {
			merged = append(merged, model.CalendarItemFromTodo(&todos[i]))
		}
	}

	if kind == "" || kind == model.KindPetReminder {
		reminders, err := a.reminders.ListByUser(ctx, userID, status)
		if err != nil {
			return nil, err
		}
		for i := range reminders {
			r := &reminders[i]
			if r.PetID != "" {
				visible, err := a.gate.IsCoOwnerVisible(ctx, r.PetID, userID)
				if err != nil {
					return nil, err
				}
				if !visible {
					continue
				}
			}
			merged = append(merged, model.CalendarItemFromReminder(r))
		}
	}

	return merged, nil
}

// inRange matches when either the scheduled or the due timestamp falls
// inside [start, end], both inclusive. This is an OR over two fields,
// not a single-field range.
func inRange(item *model.CalendarItem, start, end *time.Time) bool {
	if start == nil && end == nil {
		return true
	}

	within := func(t *time.Time) bool {
		if t == nil {
			return false
		}
		if start != nil && t.Before(*start) {
			return false
		}
		if end != nil && t.After(*end) {
			return false
		}
		return true
	}

	return within(item.ScheduledAt) || within(item.DueAt)
}

// sortItems orders by priority descending, then effective time
// ascending, with created-at and id as final tie-breaks so the order is
// deterministic for a fixed snapshot.
func sortItems(items []model.CalendarItem) {
	sort.Slice(items, func(i, j int) bool {
		pi, pj := items[i].Priority.Rank(), items[j].Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		ti, tj := items[i].EffectiveTime(), items[j].EffectiveTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ItemID < items[j].ItemID
	})
}
