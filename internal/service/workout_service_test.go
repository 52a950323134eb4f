package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/storage"
)

const sampleCSV = `Title,WorkoutType,WorkoutDescription,PlannedDuration,PlannedDistanceInMeters,WorkoutDay,CoachComments,TSS,IF
Endurance ride,Bike,Zone 2,1.5,,2026-01-05,Stay easy,60,0.7
Threshold run,Run,3x10',1.25,12000,2026-01-06,,85,0.91
Broken,Run,,1,,not-a-date,,,
Easy swim,Swim,,0.75,,2026-01-06,,,
`

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func importSample(t *testing.T, svc *WorkoutService) {
	t.Helper()
	res, err := svc.ImportCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 3, res.Imported)
}

func workoutByTitle(t *testing.T, svc *WorkoutService, title string) int64 {
	t.Helper()
	workouts, err := svc.List()
	require.NoError(t, err)
	for _, w := range workouts {
		if w.Title == title {
			return w.ID
		}
	}
	t.Fatalf("workout %q not found", title)
	return 0
}

func ptr[T any](v T) *T { return &v }

func TestImportCSV(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))

	res, err := svc.ImportCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Imported: 3, Invalid: 1}, res)

	again, err := svc.ImportCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 3, again.Duplicates)

	w, err := svc.Get(workoutByTitle(t, svc, "Threshold run"))
	require.NoError(t, err)
	assert.Equal(t, "Run", w.WorkoutType)
	assert.Equal(t, 12000.0, *w.PlannedDistanceMeters)
	assert.Equal(t, 0.91, *w.IntensityFactor)
	assert.Nil(t, w.Selection)
}

func TestImportCSV_Errors(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))

	_, err := svc.ImportCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyImport)

	_, err = svc.ImportCSV(strings.NewReader("Title,WorkoutType\nA,Run\n"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))
	_, err := svc.Get(42)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestUpdateSelection(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))
	importSample(t, svc)
	id := workoutByTitle(t, svc, "Endurance ride")

	sel, err := svc.UpdateSelection(id, SelectionInput{
		IsSelected: ptr(true),
		ActualDate: ptr("2026-01-07"),
		TimeOfDay:  ptr("Morning"),
		Location:   ptr("Outdoor"),
	})
	require.NoError(t, err)
	assert.True(t, sel.IsSelected)
	assert.Equal(t, "Morning", *sel.TimeOfDay)

	// partial update keeps the rest
	sel, err = svc.UpdateSelection(id, SelectionInput{UserNotes: ptr("windy")})
	require.NoError(t, err)
	assert.Equal(t, "Outdoor", *sel.Location)
	assert.Equal(t, "windy", *sel.UserNotes)
	require.NotNil(t, sel.ActualDate)

	_, err = svc.UpdateSelection(id, SelectionInput{ActualDate: ptr("07/01/2026")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateSelection(999, SelectionInput{IsSelected: ptr(false)})
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestUpdateSelection_DeselectClearsTimeOfDay(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))
	importSample(t, svc)
	id := workoutByTitle(t, svc, "Easy swim")

	_, err := svc.UpdateSelection(id, SelectionInput{IsSelected: ptr(true), TimeOfDay: ptr("morning")})
	require.NoError(t, err)

	sel, err := svc.UpdateSelection(id, SelectionInput{IsSelected: ptr(false)})
	require.NoError(t, err)
	assert.False(t, sel.IsSelected)
	assert.Nil(t, sel.TimeOfDay)
}

func TestResetSelection(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))
	importSample(t, svc)
	id := workoutByTitle(t, svc, "Easy swim")

	require.NoError(t, svc.ResetSelection(id), "resetting without a selection is fine")

	_, err := svc.UpdateSelection(id, SelectionInput{IsSelected: ptr(false)})
	require.NoError(t, err)
	require.NoError(t, svc.ResetSelection(id))

	w, err := svc.Get(id)
	require.NoError(t, err)
	assert.True(t, w.IsSelected())

	assert.ErrorIs(t, svc.ResetSelection(999), ErrWorkoutNotFound)
}

func TestCustomWorkouts(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))
	importSample(t, svc)

	_, err := svc.CreateCustom(CustomWorkoutInput{Title: ptr("Group ride")})
	assert.ErrorIs(t, err, ErrInvalidInput, "plannedDate is required")

	w, err := svc.CreateCustom(CustomWorkoutInput{
		Title:           ptr("Group ride"),
		WorkoutType:     ptr("Bike"),
		PlannedDate:     ptr("2026-01-10"),
		PlannedDuration: ptr(2.0),
		TimeOfDay:       ptr("Saturday 8am"),
	})
	require.NoError(t, err)
	assert.True(t, w.IsCustom)
	require.NotNil(t, w.Selection)
	assert.Equal(t, "Saturday 8am", *w.Selection.TimeOfDay)

	updated, err := svc.UpdateCustom(w.ID, CustomWorkoutInput{Title: ptr("Club ride"), Location: ptr("Lakefront")})
	require.NoError(t, err)
	assert.Equal(t, "Club ride", updated.Title)
	assert.Equal(t, "Bike", updated.WorkoutType)
	assert.Equal(t, "Lakefront", *updated.Selection.Location)
	assert.Equal(t, "Saturday 8am", *updated.Selection.TimeOfDay)

	custom, err := svc.ListCustom()
	require.NoError(t, err)
	assert.Len(t, custom, 1)

	imported := workoutByTitle(t, svc, "Endurance ride")
	_, err = svc.UpdateCustom(imported, CustomWorkoutInput{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrWorkoutNotFound, "imported workouts are not custom")
	assert.ErrorIs(t, svc.DeleteCustom(imported), ErrWorkoutNotFound)

	require.NoError(t, svc.DeleteCustom(w.ID))
	custom, err = svc.ListCustom()
	require.NoError(t, err)
	assert.Empty(t, custom)
}

func TestBuildPlan(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))
	importSample(t, svc)

	run := workoutByTitle(t, svc, "Threshold run")
	swim := workoutByTitle(t, svc, "Easy swim")
	ride := workoutByTitle(t, svc, "Endurance ride")

	// swim first on the 6th, ride skipped
	_, err := svc.UpdateSelection(swim, SelectionInput{TimeOfDay: ptr("morning")})
	require.NoError(t, err)
	_, err = svc.UpdateSelection(run, SelectionInput{TimeOfDay: ptr("evening"), Location: ptr("Track")})
	require.NoError(t, err)
	_, err = svc.UpdateSelection(ride, SelectionInput{IsSelected: ptr(false)})
	require.NoError(t, err)

	jan5 := caldav.NewDate(2026, time.January, 5)
	jan6 := caldav.NewDate(2026, time.January, 6)

	plan, err := svc.BuildPlan(jan5, jan6)
	require.NoError(t, err)
	assert.Equal(t, []caldav.Date{jan6}, plan.Dates())

	day := plan[jan6]
	require.Len(t, day, 2)
	assert.Equal(t, "Swim", day[0].WorkoutType)
	assert.Equal(t, "Run", day[1].WorkoutType)
	assert.Equal(t, "Track", *day[1].Location)
	assert.Equal(t, 1.25, *day[1].PlannedDurationHours)

	_, err = svc.BuildPlan(jan6, jan5)
	assert.ErrorIs(t, err, caldav.ErrInvalidRange)
}

func TestBuildPlan_MovedWorkout(t *testing.T) {
	svc := NewWorkoutService(newTestStorage(t))
	importSample(t, svc)
	ride := workoutByTitle(t, svc, "Endurance ride")

	_, err := svc.UpdateSelection(ride, SelectionInput{ActualDate: ptr("2026-01-09")})
	require.NoError(t, err)

	plan, err := svc.BuildPlan(caldav.NewDate(2026, time.January, 5), caldav.NewDate(2026, time.January, 10))
	require.NoError(t, err)

	assert.NotContains(t, plan, caldav.NewDate(2026, time.January, 5))
	require.Len(t, plan[caldav.NewDate(2026, time.January, 9)], 1)
	assert.Equal(t, "Bike", plan[caldav.NewDate(2026, time.January, 9)][0].WorkoutType)
}
