package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/domain"
	"github.com/tazhate/workoutplanner/internal/log"
	"github.com/tazhate/workoutplanner/internal/storage"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyImport     = errors.New("no CSV data provided")
)

const dateLayout = "2006-01-02"

// timeOfDayRank orders workouts within a day. Free-form values sort last.
var timeOfDayRank = map[string]int{
	"morning":   0,
	"afternoon": 1,
	"evening":   2,
}

type WorkoutService struct {
	storage *storage.Storage
}

func NewWorkoutService(s *storage.Storage) *WorkoutService {
	return &WorkoutService{storage: s}
}

func (s *WorkoutService) List() ([]*domain.Workout, error) {
	return s.storage.ListWorkouts()
}

func (s *WorkoutService) Get(id int64) (*domain.Workout, error) {
	w, err := s.storage.GetWorkout(id)
	if err != nil {
		return nil, fmt.Errorf("get workout: %w", err)
	}
	if w == nil {
		return nil, ErrWorkoutNotFound
	}
	return w, nil
}

// ImportResult reports what a CSV import did.
type ImportResult struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
}

// ImportCSV reads a coach export (header row first) and stores new workouts.
// Rows without a valid WorkoutDay are skipped, as are workouts already
// stored with the same title and day.
func (s *WorkoutService) ImportCSV(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyImport
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidInput, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}
	if _, ok := cols["WorkoutDay"]; !ok {
		return nil, fmt.Errorf("%w: missing WorkoutDay column", ErrInvalidInput)
	}

	result := &ImportResult{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		day, err := time.Parse(dateLayout, field("WorkoutDay"))
		if err != nil {
			result.Invalid++
			continue
		}

		title := field("Title")
		exists, err := s.storage.WorkoutExists(title, day)
		if err != nil {
			return result, fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			result.Duplicates++
			continue
		}

		workoutType := field("WorkoutType")
		if workoutType == "" {
			workoutType = "Other"
		}

		w := &domain.Workout{
			Title:                 title,
			WorkoutType:           workoutType,
			Description:           field("WorkoutDescription"),
			PlannedDuration:       parseOptionalFloat(field("PlannedDuration")),
			PlannedDistanceMeters: parseOptionalFloat(field("PlannedDistanceInMeters")),
			OriginallyPlannedDay:  day,
			CoachComments:         field("CoachComments"),
			TSS:                   parseOptionalFloat(field("TSS")),
			IntensityFactor:       parseOptionalFloat(field("IF")),
		}
		if err := s.storage.CreateWorkout(w); err != nil {
			return result, fmt.Errorf("create workout: %w", err)
		}
		result.Imported++
	}

	log.Info("csv import finished", "imported", result.Imported, "duplicates", result.Duplicates, "invalid", result.Invalid)
	return result, nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// SelectionInput is a partial update; nil fields are left unchanged and an
// empty string clears the field.
type SelectionInput struct {
	IsSelected *bool
	ActualDate *string
	TimeOfDay  *string
	Location   *string
	UserNotes  *string
}

// UpdateSelection applies in to the workout's selection, creating it if
// needed. Deselecting clears the time of day.
func (s *WorkoutService) UpdateSelection(workoutID int64, in SelectionInput) (*domain.Selection, error) {
	w, err := s.Get(workoutID)
	if err != nil {
		return nil, err
	}

	sel := w.Selection
	if sel == nil {
		sel = &domain.Selection{WorkoutID: workoutID, IsSelected: true}
	}

	if in.IsSelected != nil {
		sel.IsSelected = *in.IsSelected
	}
	if in.ActualDate != nil {
		if *in.ActualDate == "" {
			sel.ActualDate = nil
		} else {
			d, err := time.Parse(dateLayout, *in.ActualDate)
			if err != nil {
				return nil, fmt.Errorf("%w: actualDate must be YYYY-MM-DD", ErrInvalidInput)
			}
			sel.ActualDate = &d
		}
	}
	if in.TimeOfDay != nil {
		sel.TimeOfDay = emptyToNil(*in.TimeOfDay)
	}
	if in.Location != nil {
		sel.Location = emptyToNil(*in.Location)
	}
	if in.UserNotes != nil {
		sel.UserNotes = emptyToNil(*in.UserNotes)
	}
	if !sel.IsSelected {
		sel.TimeOfDay = nil
	}

	if err := s.storage.UpsertSelection(sel); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}
	return sel, nil
}

// ResetSelection drops the selection so the workout goes back to defaults.
func (s *WorkoutService) ResetSelection(workoutID int64) error {
	if _, err := s.Get(workoutID); err != nil {
		return err
	}
	err := s.storage.DeleteSelection(workoutID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// CustomWorkoutInput describes a user-created workout. On update nil fields
// are left unchanged.
type CustomWorkoutInput struct {
	Title           *string
	WorkoutType     *string
	Description     *string
	PlannedDate     *string
	PlannedDuration *float64
	TimeOfDay       *string
	Location        *string
}

func (s *WorkoutService) ListCustom() ([]*domain.Workout, error) {
	return s.storage.ListCustomWorkouts()
}

func (s *WorkoutService) CreateCustom(in CustomWorkoutInput) (*domain.Workout, error) {
	if in.PlannedDate == nil || *in.PlannedDate == "" {
		return nil, fmt.Errorf("%w: plannedDate is required", ErrInvalidInput)
	}

	w := &domain.Workout{WorkoutType: "Other", IsCustom: true}
	if err := applyCustom(w, in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(w.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	if err := s.storage.CreateWorkout(w); err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}
	if err := s.saveCustomSelection(w, in); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WorkoutService) UpdateCustom(id int64, in CustomWorkoutInput) (*domain.Workout, error) {
	w, err := s.getCustom(id)
	if err != nil {
		return nil, err
	}
	if err := applyCustom(w, in); err != nil {
		return nil, err
	}
	if err := s.storage.UpdateWorkout(w); err != nil {
		return nil, fmt.Errorf("update workout: %w", err)
	}
	if err := s.saveCustomSelection(w, in); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WorkoutService) DeleteCustom(id int64) error {
	if _, err := s.getCustom(id); err != nil {
		return err
	}
	return s.storage.DeleteWorkout(id)
}

func (s *WorkoutService) getCustom(id int64) (*domain.Workout, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !w.IsCustom {
		return nil, ErrWorkoutNotFound
	}
	return w, nil
}

func applyCustom(w *domain.Workout, in CustomWorkoutInput) error {
	if in.Title != nil {
		w.Title = strings.TrimSpace(*in.Title)
	}
	if in.WorkoutType != nil && *in.WorkoutType != "" {
		w.WorkoutType = *in.WorkoutType
	}
	if in.Description != nil {
		w.Description = *in.Description
	}
	if in.PlannedDate != nil {
		d, err := time.Parse(dateLayout, *in.PlannedDate)
		if err != nil {
			return fmt.Errorf("%w: plannedDate must be YYYY-MM-DD", ErrInvalidInput)
		}
		w.OriginallyPlannedDay = d
	}
	if in.PlannedDuration != nil {
		w.PlannedDuration = in.PlannedDuration
	}
	return nil
}

// saveCustomSelection keeps time of day and location of a custom workout on
// its selection row, like any other workout.
func (s *WorkoutService) saveCustomSelection(w *domain.Workout, in CustomWorkoutInput) error {
	if in.TimeOfDay == nil && in.Location == nil {
		return nil
	}
	sel := w.Selection
	if sel == nil {
		sel = &domain.Selection{WorkoutID: w.ID, IsSelected: true}
	}
	if in.TimeOfDay != nil {
		sel.TimeOfDay = emptyToNil(*in.TimeOfDay)
	}
	if in.Location != nil {
		sel.Location = emptyToNil(*in.Location)
	}
	if err := s.storage.UpsertSelection(sel); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	w.Selection = sel
	return nil
}

func (s *WorkoutService) Stats() (*domain.WorkoutStats, error) {
	return s.storage.Stats()
}

// BuildPlan groups the selected workouts whose effective day is within
// [from, to] into a daily plan. Within a day workouts are ordered by time
// of day, then by id.
func (s *WorkoutService) BuildPlan(from, to caldav.Date) (caldav.DailyWorkoutPlan, error) {
	if from.After(to) {
		return nil, caldav.ErrInvalidRange
	}

	workouts, err := s.storage.ListWorkoutsInRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	selected := make([]*domain.Workout, 0, len(workouts))
	for _, w := range workouts {
		if w.IsSelected() {
			selected = append(selected, w)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if c := a.EffectiveDay().Compare(b.EffectiveDay()); c != 0 {
			return c < 0
		}
		if ra, rb := rankTimeOfDay(a), rankTimeOfDay(b); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})

	plan := make(caldav.DailyWorkoutPlan)
	for _, w := range selected {
		plan.Add(w.EffectiveDay(), w.Summary())
	}
	return plan, nil
}

func rankTimeOfDay(w *domain.Workout) int {
	if w.Selection == nil || w.Selection.TimeOfDay == nil {
		return len(timeOfDayRank) + 1
	}
	if r, ok := timeOfDayRank[strings.ToLower(*w.Selection.TimeOfDay)]; ok {
		return r
	}
	return len(timeOfDayRank)
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
