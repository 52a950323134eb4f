package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tazhate/workoutplanner/internal/domain"
)

// workoutRow is a workouts row joined with its optional selection.
type workoutRow struct {
	ID              int64           `db:"id"`
	Title           string          `db:"title"`
	WorkoutType     string          `db:"workout_type"`
	Description     string          `db:"workout_description"`
	PlannedDuration sql.NullFloat64 `db:"planned_duration"`
	PlannedDistance sql.NullFloat64 `db:"planned_distance_meters"`
	PlannedDay      string          `db:"originally_planned_day"`
	CoachComments   string          `db:"coach_comments"`
	TSS             sql.NullFloat64 `db:"tss"`
	IntensityFactor sql.NullFloat64 `db:"intensity_factor"`
	IsCustom        bool            `db:"is_custom"`
	CreatedAt       sql.NullTime    `db:"created_at"`

	SelectionID   sql.NullInt64  `db:"sel_id"`
	IsSelected    sql.NullBool   `db:"sel_is_selected"`
	ActualDate    sql.NullString `db:"sel_actual_date"`
	TimeOfDay     sql.NullString `db:"sel_time_of_day"`
	Location      sql.NullString `db:"sel_location"`
	UserNotes     sql.NullString `db:"sel_user_notes"`
	SelectionTime sql.NullTime   `db:"sel_updated_at"`
}

func (r workoutRow) toDomain() (*domain.Workout, error) {
	day, err := time.Parse(dateLayout, r.PlannedDay)
	if err != nil {
		return nil, fmt.Errorf("workout %d: bad planned day %q: %w", r.ID, r.PlannedDay, err)
	}

	w := &domain.Workout{
		ID:                    r.ID,
		Title:                 r.Title,
		WorkoutType:           r.WorkoutType,
		Description:           r.Description,
		PlannedDuration:       floatPtr(r.PlannedDuration),
		PlannedDistanceMeters: floatPtr(r.PlannedDistance),
		OriginallyPlannedDay:  day,
		CoachComments:         r.CoachComments,
		TSS:                   floatPtr(r.TSS),
		IntensityFactor:       floatPtr(r.IntensityFactor),
		IsCustom:              r.IsCustom,
		CreatedAt:             r.CreatedAt.Time,
	}

	if !r.SelectionID.Valid {
		return w, nil
	}

	sel := &domain.Selection{
		ID:         r.SelectionID.Int64,
		WorkoutID:  r.ID,
		IsSelected: !r.IsSelected.Valid || r.IsSelected.Bool,
		TimeOfDay:  stringPtr(r.TimeOfDay),
		Location:   stringPtr(r.Location),
		UserNotes:  stringPtr(r.UserNotes),
		UpdatedAt:  r.SelectionTime.Time,
	}
	if r.ActualDate.Valid && r.ActualDate.String != "" {
		actual, err := time.Parse(dateLayout, r.ActualDate.String)
		if err != nil {
			return nil, fmt.Errorf("workout %d: bad actual date %q: %w", r.ID, r.ActualDate.String, err)
		}
		sel.ActualDate = &actual
	}
	w.Selection = sel
	return w, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
