package domain

import (
	"time"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
)

// Workout is a planned session, either imported from the coach's CSV or
// created by the user (IsCustom).
type Workout struct {
	ID                    int64
	Title                 string
	WorkoutType           string
	Description           string
	PlannedDuration       *float64
	PlannedDistanceMeters *float64
	OriginallyPlannedDay  time.Time
	CoachComments         string
	TSS                   *float64
	IntensityFactor       *float64
	IsCustom              bool
	CreatedAt             time.Time
	Selection             *Selection
}

// Selection holds the user's choices for a workout.
type Selection struct {
	ID         int64
	WorkoutID  int64
	IsSelected bool
	ActualDate *time.Time
	TimeOfDay  *string
	Location   *string
	UserNotes  *string
	UpdatedAt  time.Time
}

// PlannedDay returns the day the coach put the workout on.
func (w *Workout) PlannedDay() caldav.Date {
	return caldav.DateOf(w.OriginallyPlannedDay)
}

// EffectiveDay is the moved date if the user set one, else the planned day.
func (w *Workout) EffectiveDay() caldav.Date {
	if w.Selection != nil && w.Selection.ActualDate != nil {
		return caldav.DateOf(*w.Selection.ActualDate)
	}
	return w.PlannedDay()
}

// IsSelected reports whether the workout is planned. Workouts without a
// selection row are selected by default.
func (w *Workout) IsSelected() bool {
	return w.Selection == nil || w.Selection.IsSelected
}

// Summary is the calendar view of the workout.
func (w *Workout) Summary() caldav.WorkoutSummary {
	s := caldav.WorkoutSummary{
		WorkoutType:          w.WorkoutType,
		PlannedDurationHours: w.PlannedDuration,
	}
	if w.Selection != nil {
		s.TimeOfDay = w.Selection.TimeOfDay
		s.Location = w.Selection.Location
	}
	return s
}

// WorkoutStats summarizes the stored plan.
type WorkoutStats struct {
	TotalWorkouts    int            `json:"totalWorkouts"`
	SelectedWorkouts int            `json:"selectedWorkouts"`
	SkippedWorkouts  int            `json:"skippedWorkouts"`
	MovedWorkouts    int            `json:"movedWorkouts"`
	CustomWorkouts   int            `json:"customWorkouts"`
	PlannedHours     float64        `json:"plannedHours"`
	ByType           map[string]int `json:"byType"`
}
