package caldav

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected         = errors.New("caldav: not connected, call Connect first")
	ErrNoCalendarsAvailable = errors.New("caldav: no calendars found")
	ErrCalendarNotFound     = errors.New("caldav: calendar not found")
	ErrNoCalendarSelected   = errors.New("caldav: no calendar selected, call SelectCalendar first")
	ErrNoWorkouts           = errors.New("caldav: no workouts for date")
	ErrInvalidRange         = errors.New("caldav: start date is after end date")
)

// RemoteError wraps a failure talking to the CalDAV server.
type RemoteError struct {
	Op   string
	Path string
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("caldav %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("caldav %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func remoteErr(op, path string, err error) error {
	return &RemoteError{Op: op, Path: path, Err: err}
}
