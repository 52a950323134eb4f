package caldav

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// WorkoutEvent is the all-day event that carries one day's workouts.
type WorkoutEvent struct {
	UID         string
	Date        Date
	Description string
	Calendar    *ical.Calendar
}

// EventUID builds the identifier from the export time and the event's day.
func EventUID(date Date, now time.Time) string {
	return fmt.Sprintf("%s%06d-%s@%s",
		now.Format("20060102150405"), now.Nanosecond()/1000, date.Compact(), uidDomain)
}

// NewWorkoutEvent builds the event for date. workouts must not be empty.
func NewWorkoutEvent(date Date, workouts []WorkoutSummary, now time.Time) (*WorkoutEvent, error) {
	if len(workouts) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoWorkouts, date)
	}

	ev := &WorkoutEvent{
		UID:         EventUID(date, now),
		Date:        date,
		Description: Notes(workouts),
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, ev.UID)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	vevent.Props.SetDate(ical.PropDateTimeStart, date.In(time.UTC))
	vevent.Props.SetDate(ical.PropDateTimeEnd, date.AddDays(1).In(time.UTC))
	vevent.Props.SetText(ical.PropSummary, WorkoutEventTitle)

	// The value is escaped here rather than through SetText so the payload
	// keeps the exact escaping rule: backslash, then line breaks.
	desc := ical.NewProp(ical.PropDescription)
	desc.Value = EscapeText(ev.Description)
	vevent.Props.Set(desc)

	cal.Children = append(cal.Children, vevent.Component)
	ev.Calendar = cal
	return ev, nil
}

// Encode serializes the event as an iCalendar text block.
func (e *WorkoutEvent) Encode() (string, error) {
	return SerializeCalendar(e.Calendar)
}

// FormatEvent returns the iCalendar payload for one day of workouts.
func FormatEvent(date Date, workouts []WorkoutSummary, now time.Time) (string, error) {
	ev, err := NewWorkoutEvent(date, workouts, now)
	if err != nil {
		return "", err
	}
	return ev.Encode()
}

// SerializeCalendar converts calendar to string
func SerializeCalendar(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}
	return buf.String(), nil
}

// IsWorkoutEvent reports whether any VEVENT in cal carries the workout title.
func IsWorkoutEvent(cal *ical.Calendar) bool {
	if cal == nil {
		return false
	}
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		if prop := comp.Props.Get(ical.PropSummary); prop != nil && prop.Value == WorkoutEventTitle {
			return true
		}
	}
	return false
}

func eventDate(cal *ical.Calendar) (Date, bool) {
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		prop := comp.Props.Get(ical.PropDateTimeStart)
		if prop == nil {
			return Date{}, false
		}
		t, err := prop.DateTime(time.UTC)
		if err != nil {
			return Date{}, false
		}
		return DateOf(t), true
	}
	return Date{}, false
}
