package api

import (
	"time"

	"github.com/tazhate/workoutplanner/internal/domain"
)

type SelectionResponse struct {
	ID         int64   `json:"id"`
	WorkoutID  int64   `json:"workoutId"`
	IsSelected bool    `json:"isSelected"`
	ActualDate *string `json:"actualDate"`
	TimeOfDay  *string `json:"timeOfDay"`
	Location   *string `json:"workoutLocation"`
	UserNotes  *string `json:"userNotes"`
	UpdatedAt  string  `json:"updatedAt,omitempty"`
}

type WorkoutResponse struct {
	ID                      int64              `json:"id"`
	Title                   string             `json:"title"`
	WorkoutType             string             `json:"workoutType"`
	WorkoutDescription      string             `json:"workoutDescription"`
	PlannedDuration         *float64           `json:"plannedDuration"`
	PlannedDistanceInMeters *float64           `json:"plannedDistanceInMeters"`
	OriginallyPlannedDay    string             `json:"originallyPlannedDay"`
	EffectiveDay            string             `json:"effectiveDay"`
	CoachComments           string             `json:"coachComments"`
	TSS                     *float64           `json:"tss"`
	IntensityFactor         *float64           `json:"intensityFactor"`
	IsCustom                bool               `json:"isCustom"`
	CreatedAt               string             `json:"createdAt,omitempty"`
	Selection               *SelectionResponse `json:"selection"`
}

func toSelectionResponse(sel *domain.Selection) *SelectionResponse {
	if sel == nil {
		return nil
	}
	resp := &SelectionResponse{
		ID:         sel.ID,
		WorkoutID:  sel.WorkoutID,
		IsSelected: sel.IsSelected,
		TimeOfDay:  sel.TimeOfDay,
		Location:   sel.Location,
		UserNotes:  sel.UserNotes,
		UpdatedAt:  formatTime(sel.UpdatedAt),
	}
	if sel.ActualDate != nil {
		d := sel.ActualDate.Format(dateLayout)
		resp.ActualDate = &d
	}
	return resp
}

func toWorkoutResponse(w *domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		ID:                      w.ID,
		Title:                   w.Title,
		WorkoutType:             w.WorkoutType,
		WorkoutDescription:      w.Description,
		PlannedDuration:         w.PlannedDuration,
		PlannedDistanceInMeters: w.PlannedDistanceMeters,
		OriginallyPlannedDay:    w.PlannedDay().String(),
		EffectiveDay:            w.EffectiveDay().String(),
		CoachComments:           w.CoachComments,
		TSS:                     w.TSS,
		IntensityFactor:         w.IntensityFactor,
		IsCustom:                w.IsCustom,
		CreatedAt:               formatTime(w.CreatedAt),
		Selection:               toSelectionResponse(w.Selection),
	}
}

func toWorkoutResponses(workouts []*domain.Workout) []WorkoutResponse {
	out := make([]WorkoutResponse, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, toWorkoutResponse(w))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
