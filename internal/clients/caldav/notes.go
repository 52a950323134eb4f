package caldav

import (
	"fmt"
	"math"
	"strings"
)

var textEscaper = strings.NewReplacer(`\`, `\\`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// FormatDuration renders fractional hours, e.g. 1.5 -> "1 hour 30 minutes".
func FormatDuration(hours float64) string {
	whole := int(math.Floor(hours))
	minutes := int(math.Round((hours - float64(whole)) * 60))
	if minutes == 60 {
		whole++
		minutes = 0
	}

	switch {
	case minutes == 0:
		return formatHours(whole)
	case whole == 0:
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return fmt.Sprintf("%s %d minutes", formatHours(whole), minutes)
	}
}

func formatHours(n int) string {
	if n == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", n)
}

// NoteLine renders one workout as a single description line.
func NoteLine(w WorkoutSummary) string {
	workoutType := w.WorkoutType
	if workoutType == "" {
		workoutType = defaultWorkoutType
	}
	parts := []string{"Type: " + workoutType}

	if w.Location != nil && *w.Location != "" {
		parts = append(parts, "Location: "+*w.Location)
	}

	timeOfDay := defaultTimeOfDay
	if w.TimeOfDay != nil && *w.TimeOfDay != "" {
		timeOfDay = *w.TimeOfDay
	}
	parts = append(parts, "Time: "+timeOfDay)

	if hours := w.PlannedDurationHours; hours != nil && plannedDuration(*hours) {
		parts = append(parts, "Duration: "+FormatDuration(*hours))
	}

	return "- " + strings.Join(parts, ", ")
}

// plannedDuration reports whether hours can be rendered. Zero, negative,
// NaN and infinite values are treated as unplanned.
func plannedDuration(hours float64) bool {
	return hours > 0 && !math.IsInf(hours, 0) && !math.IsNaN(hours)
}

// Notes renders every workout, one line each, in input order.
func Notes(workouts []WorkoutSummary) string {
	lines := make([]string, 0, len(workouts))
	for _, w := range workouts {
		lines = append(lines, NoteLine(w))
	}
	return strings.Join(lines, "\n")
}

// EscapeText makes s safe for a single iCalendar TEXT value: backslashes
// first, then line breaks become a literal \n.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}
