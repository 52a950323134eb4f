package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/log"
	"github.com/tazhate/workoutplanner/internal/service"
)

// PlanExporter runs one calendar export.
type PlanExporter interface {
	Export(ctx context.Context, req service.ExportRequest) (*service.ExportSummary, error)
}

// Scheduler periodically exports the upcoming days to the calendar.
type Scheduler struct {
	cron     *cron.Cron
	exporter PlanExporter
	spec     string
	days     int
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
}

func New(exporter PlanExporter, spec string, days int, location *time.Location) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	if days <= 0 {
		days = 7
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		exporter: exporter,
		spec:     spec,
		days:     days,
		location: location,
		timeout:  5 * time.Minute,
		now:      time.Now,
	}
}

// Start registers the export job and blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runExport(ctx) }); err != nil {
		return fmt.Errorf("add auto export %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.Info("scheduler started", "tz", s.location, "spec", s.spec, "days", s.days)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("scheduler stopped")
}

// window is today through today+days-1 in the scheduler's timezone.
func (s *Scheduler) window() (caldav.Date, caldav.Date) {
	today := caldav.DateOf(s.now().In(s.location))
	return today, today.AddDays(s.days - 1)
}

func (s *Scheduler) runExport(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start, end := s.window()
	summary, err := s.exporter.Export(ctx, service.ExportRequest{Start: start, End: end})
	if err != nil {
		log.Error("auto export failed", err, "start", start, "end", end)
		return
	}
	log.Info("auto export done", "start", start, "end", end,
		"created", summary.EventsCreated, "deleted", summary.EventsDeleted)
}
