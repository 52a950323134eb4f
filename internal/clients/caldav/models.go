package caldav

import "sort"

// WorkoutEventTitle is the SUMMARY every exported event carries. It is the
// only thing that tells our events apart from anything else on the calendar.
const WorkoutEventTitle = "Joe workout schedule"

const (
	// Apple iCloud CalDAV endpoint
	DefaultiCloudURL = "https://caldav.icloud.com"

	productID = "-//Workout Planner//EN"
	uidDomain = "workout-planner"

	defaultTimeOfDay   = "Not specified"
	defaultWorkoutType = "Unknown"
)

// Credentials identify the CalDAV account. They arrive fully resolved.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// IsConfigured returns true if the credentials carry a username and password
func (c Credentials) IsConfigured() bool {
	return c.Username != "" && c.Password != ""
}

// CalendarInfo describes a calendar on the remote server
type CalendarInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// WorkoutSummary holds the calendar-relevant facts of one workout.
type WorkoutSummary struct {
	WorkoutType          string
	Location             *string
	TimeOfDay            *string
	PlannedDurationHours *float64
}

// DailyWorkoutPlan maps each day to the workouts scheduled on it, in display order.
type DailyWorkoutPlan map[Date][]WorkoutSummary

// Dates returns the plan's days in ascending order.
func (p DailyWorkoutPlan) Dates() []Date {
	dates := make([]Date, 0, len(p))
	for d := range p {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Add appends a workout to the given day.
func (p DailyWorkoutPlan) Add(d Date, w WorkoutSummary) {
	p[d] = append(p[d], w)
}

// DateResult is the outcome of exporting a single day.
type DateResult struct {
	Date    Date   `json:"date"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ExportResult aggregates a plan export.
type ExportResult struct {
	CreatedCount int          `json:"createdCount"`
	Results      []DateResult `json:"results"`
}

// Failed returns the days that could not be exported.
func (r *ExportResult) Failed() []DateResult {
	var failed []DateResult
	for _, res := range r.Results {
		if !res.Success {
			failed = append(failed, res)
		}
	}
	return failed
}

// DeleteResult details a reconciliation pass.
type DeleteResult struct {
	Deleted int      `json:"deleted"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
}
