package caldav

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/tazhate/workoutplanner/internal/log"
)

// DeleteEventsInRange deletes workout events overlapping [start, end], both
// days inclusive, and returns how many were confirmed deleted.
func (s *Session) DeleteEventsInRange(ctx context.Context, start, end Date) (int, error) {
	res, err := s.ReconcileRange(ctx, start, end)
	if err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

// DeleteAllWorkoutEvents deletes every workout event on the calendar,
// regardless of date. Meant for cleanup, not the export path.
func (s *Session) DeleteAllWorkoutEvents(ctx context.Context) (int, error) {
	res, err := s.ReconcileAll(ctx)
	if err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

// ReconcileRange is DeleteEventsInRange with per-event detail. The time-range
// filter runs on the server: from start 00:00 up to, not including, the day
// after end.
func (s *Session) ReconcileRange(ctx context.Context, start, end Date) (*DeleteResult, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	res, err := s.reconcile(ctx, start.In(time.UTC), end.AddDays(1).In(time.UTC))
	if err != nil {
		return nil, err
	}
	log.Info("deleted workout events in range",
		"deleted", res.Deleted, "skipped", res.Skipped, "failed", len(res.Failed),
		"start", start, "end", end)
	return res, nil
}

// ReconcileAll is DeleteAllWorkoutEvents with per-event detail.
func (s *Session) ReconcileAll(ctx context.Context) (*DeleteResult, error) {
	res, err := s.reconcile(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	log.Info("deleted all workout events",
		"deleted", res.Deleted, "skipped", res.Skipped, "failed", len(res.Failed))
	return res, nil
}

func (s *Session) reconcile(ctx context.Context, from, to time.Time) (*DeleteResult, error) {
	remote, calendarPath, err := s.selected()
	if err != nil {
		return nil, err
	}

	objects, err := remote.QueryCalendar(ctx, calendarPath, eventQuery(from, to))
	if err != nil {
		return nil, remoteErr("query", calendarPath, err)
	}

	res := &DeleteResult{}
	for _, obj := range objects {
		if !IsWorkoutEvent(obj.Data) {
			res.Skipped++
			continue
		}
		if err := remote.RemoveAll(ctx, obj.Path); err != nil {
			log.Warn("failed to delete workout event", "path", obj.Path, "err", err)
			res.Failed = append(res.Failed, obj.Path)
			continue
		}
		if d, ok := eventDate(obj.Data); ok {
			log.Debug("deleted workout event", "path", obj.Path, "date", d)
		}
		res.Deleted++
	}
	return res, nil
}

// eventQuery asks for full VEVENT data. Zero bounds leave the range open.
func eventQuery(from, to time.Time) *caldav.CalendarQuery {
	return &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{
				{
					Name:  ical.CompEvent,
					Start: from,
					End:   to,
				},
			},
		},
	}
}
