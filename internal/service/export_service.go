package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/log"
	"github.com/tazhate/workoutplanner/internal/observability"
)

// CalendarSession is the part of caldav.Session the exporter drives.
type CalendarSession interface {
	Connect(ctx context.Context) error
	ListCalendars(ctx context.Context) ([]caldav.CalendarInfo, error)
	SelectCalendar(ctx context.Context, name string) error
	DeleteEventsInRange(ctx context.Context, start, end caldav.Date) (int, error)
	ExportPlan(ctx context.Context, plan caldav.DailyWorkoutPlan) (*caldav.ExportResult, error)
	Disconnect()
}

// SessionFactory returns a fresh, disconnected session per export.
type SessionFactory func() CalendarSession

// PlanSource builds the plan for a date range.
type PlanSource interface {
	BuildPlan(from, to caldav.Date) (caldav.DailyWorkoutPlan, error)
}

type Notifier interface {
	Notify(text string) error
}

// NewSessionFactory returns a factory dialing the configured CalDAV account.
func NewSessionFactory(creds caldav.Credentials, opts ...caldav.Option) SessionFactory {
	return func() CalendarSession {
		return caldav.NewSession(creds, opts...)
	}
}

type ExportRequest struct {
	Start        caldav.Date
	End          caldav.Date
	CalendarName string
}

type DateRange struct {
	Start caldav.Date `json:"start"`
	End   caldav.Date `json:"end"`
}

// ExportSummary is what an export reports back to its caller.
type ExportSummary struct {
	Message       string              `json:"message"`
	EventsCreated int                 `json:"eventsCreated"`
	EventsDeleted int                 `json:"eventsDeleted"`
	DateRange     DateRange           `json:"dateRange"`
	Results       []caldav.DateResult `json:"results"`
}

// Exporter runs the full export: connect, select the calendar, delete the
// range's stale workout events, write the plan, disconnect.
type Exporter struct {
	sessions        SessionFactory
	plans           PlanSource
	notifier        Notifier
	defaultCalendar string
	now             func() time.Time
}

func NewExporter(sessions SessionFactory, plans PlanSource, defaultCalendar string) *Exporter {
	return &Exporter{
		sessions:        sessions,
		plans:           plans,
		defaultCalendar: defaultCalendar,
		now:             time.Now,
	}
}

// SetNotifier enables export summaries.
func (e *Exporter) SetNotifier(n Notifier) {
	e.notifier = n
}

// IsConfigured returns true if the exporter can reach a calendar
func (e *Exporter) IsConfigured() bool {
	return e != nil && e.sessions != nil
}

// ListCalendars connects just long enough to list calendars.
func (e *Exporter) ListCalendars(ctx context.Context) ([]caldav.CalendarInfo, error) {
	session := e.sessions()
	defer session.Disconnect()

	if err := session.Connect(ctx); err != nil {
		return nil, err
	}
	return session.ListCalendars(ctx)
}

// Export replaces the workout events of [req.Start, req.End] with the
// current plan. Stale events are always deleted before new ones are created,
// so days that lost all their workouts end up empty.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (*ExportSummary, error) {
	if req.Start.IsZero() || req.End.IsZero() || req.Start.After(req.End) {
		return nil, caldav.ErrInvalidRange
	}

	plan, err := e.plans.BuildPlan(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}

	name := req.CalendarName
	if name == "" {
		name = e.defaultCalendar
	}

	summary, err := e.run(ctx, req, name, plan)
	if err != nil {
		observability.RecordExport("error", 0, 0, e.now())
		log.Error("calendar export failed", err, "start", req.Start, "end", req.End, "calendar", name)
		e.notify(fmt.Sprintf("Workout export %s..%s failed: %v", req.Start, req.End, err))
		return nil, err
	}

	outcome := "success"
	var failed []string
	for _, r := range summary.Results {
		if !r.Success {
			failed = append(failed, r.Date.String())
		}
	}
	if len(failed) > 0 {
		outcome = "partial"
	}
	observability.RecordExport(outcome, summary.EventsCreated, summary.EventsDeleted, e.now())
	log.Info("calendar export finished",
		"start", req.Start, "end", req.End, "calendar", name,
		"created", summary.EventsCreated, "deleted", summary.EventsDeleted, "failed", len(failed))

	msg := summary.Message
	if len(failed) > 0 {
		msg += "\nFailed: " + strings.Join(failed, ", ")
	}
	e.notify(msg)

	return summary, nil
}

func (e *Exporter) run(ctx context.Context, req ExportRequest, calendarName string, plan caldav.DailyWorkoutPlan) (*ExportSummary, error) {
	session := e.sessions()
	defer session.Disconnect()

	if err := session.Connect(ctx); err != nil {
		return nil, err
	}
	if err := session.SelectCalendar(ctx, calendarName); err != nil {
		return nil, err
	}

	deleted, err := session.DeleteEventsInRange(ctx, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	result, err := session.ExportPlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	return &ExportSummary{
		Message: fmt.Sprintf("Exported %d workout days to calendar (deleted %d old events)",
			result.CreatedCount, deleted),
		EventsCreated: result.CreatedCount,
		EventsDeleted: deleted,
		DateRange:     DateRange{Start: req.Start, End: req.End},
		Results:       result.Results,
	}, nil
}

func (e *Exporter) notify(text string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(text); err != nil {
		log.Warn("export notification failed", "err", err)
	}
}
