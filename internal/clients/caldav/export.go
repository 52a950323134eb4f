package caldav

import (
	"context"

	"github.com/tazhate/workoutplanner/internal/log"
)

// SaveEvent writes one event into the selected calendar.
func (s *Session) SaveEvent(ctx context.Context, ev *WorkoutEvent) error {
	remote, calendarPath, err := s.selected()
	if err != nil {
		return err
	}

	path := objectPath(calendarPath, ev.UID)
	if _, err := remote.PutCalendarObject(ctx, path, ev.Calendar); err != nil {
		return remoteErr("put", path, err)
	}
	log.Info("created workout event", "date", ev.Date, "uid", ev.UID)
	return nil
}

// CreateWorkoutEvent formats and saves the event for a single day and
// returns its UID.
func (s *Session) CreateWorkoutEvent(ctx context.Context, date Date, workouts []WorkoutSummary) (string, error) {
	if _, _, err := s.selected(); err != nil {
		return "", err
	}
	ev, err := NewWorkoutEvent(date, workouts, s.now())
	if err != nil {
		return "", err
	}
	if err := s.SaveEvent(ctx, ev); err != nil {
		return "", err
	}
	return ev.UID, nil
}

// ExportPlan creates one event per day that has workouts. A failing day is
// recorded in the result and the export moves on to the next one.
func (s *Session) ExportPlan(ctx context.Context, plan DailyWorkoutPlan) (*ExportResult, error) {
	if _, _, err := s.selected(); err != nil {
		return nil, err
	}

	result := &ExportResult{Results: []DateResult{}}
	for _, date := range plan.Dates() {
		workouts := plan[date]
		if len(workouts) == 0 {
			continue
		}

		if _, err := s.CreateWorkoutEvent(ctx, date, workouts); err != nil {
			log.Error("failed to create workout event", err, "date", date)
			result.Results = append(result.Results, DateResult{Date: date, Error: err.Error()})
			continue
		}
		result.CreatedCount++
		result.Results = append(result.Results, DateResult{Date: date, Success: true})
	}

	log.Info("exported workout plan", "created", result.CreatedCount, "days", len(result.Results))
	return result, nil
}
