package caldav

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-webdav/caldav"

	"github.com/tazhate/workoutplanner/internal/log"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateCalendarSelected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateCalendarSelected:
		return "calendar_selected"
	default:
		return "disconnected"
	}
}

// Session owns one connection to a CalDAV server and at most one selected
// calendar. It is not safe for concurrent use; run parallel exports on
// separate sessions.
type Session struct {
	creds    Credentials
	dial     Dialer
	now      func() time.Time
	remote   Remote
	calendar *caldav.Calendar
}

type Option func(*Session)

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		s.dial = d
	}
}

// WithClock overrides the clock used for event identifiers.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates a disconnected session
func NewSession(creds Credentials, opts ...Option) *Session {
	if creds.URL == "" {
		creds.URL = DefaultiCloudURL
	}
	s := &Session{
		creds: creds,
		dial:  DialRemote,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	switch {
	case s.remote == nil:
		return StateDisconnected
	case s.calendar == nil:
		return StateConnected
	default:
		return StateCalendarSelected
	}
}

// Connect authenticates against the server. Failures are returned as is,
// wrapped in a RemoteError; bad credentials are not retried.
func (s *Session) Connect(ctx context.Context) error {
	remote, err := s.dial(ctx, s.creds)
	if err != nil {
		log.Error("caldav connect failed", err, "url", s.creds.URL)
		return remoteErr("connect", s.creds.URL, err)
	}
	s.remote = remote
	s.calendar = nil
	log.Info("caldav connected", "url", s.creds.URL)
	return nil
}

// ListCalendars returns the calendars in the user's home set
func (s *Session) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	cals, err := s.findCalendars(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]CalendarInfo, 0, len(cals))
	for _, cal := range cals {
		result = append(result, calendarInfo(cal))
	}
	return result, nil
}

// SelectCalendar picks the calendar named name (exact, case-sensitive).
// An empty name selects the first calendar the server lists; that order is
// server-defined and may change between calls.
func (s *Session) SelectCalendar(ctx context.Context, name string) error {
	cals, err := s.findCalendars(ctx)
	if err != nil {
		return err
	}
	if len(cals) == 0 {
		return ErrNoCalendarsAvailable
	}

	if name == "" {
		s.calendar = &cals[0]
		log.Info("selected default calendar", "name", cals[0].Name)
		return nil
	}

	for i := range cals {
		if cals[i].Name == name {
			s.calendar = &cals[i]
			log.Info("selected calendar", "name", name)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
}

// SelectedCalendar returns the current calendar, if any.
func (s *Session) SelectedCalendar() (CalendarInfo, bool) {
	if s.calendar == nil {
		return CalendarInfo{}, false
	}
	return calendarInfo(*s.calendar), true
}

// Disconnect drops the connection and the selected calendar. It is safe to
// call in any state.
func (s *Session) Disconnect() {
	wasConnected := s.remote != nil
	s.remote = nil
	s.calendar = nil
	if wasConnected {
		log.Info("caldav disconnected", "url", s.creds.URL)
	}
}

func (s *Session) findCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	if s.remote == nil {
		return nil, ErrNotConnected
	}
	cals, err := s.remote.FindCalendars(ctx)
	if err != nil {
		return nil, remoteErr("find calendars", "", err)
	}
	return cals, nil
}

// selected returns the remote and calendar path for event operations.
func (s *Session) selected() (Remote, string, error) {
	if s.remote == nil || s.calendar == nil {
		return nil, "", ErrNoCalendarSelected
	}
	return s.remote, s.calendar.Path, nil
}

func calendarInfo(cal caldav.Calendar) CalendarInfo {
	return CalendarInfo{Name: cal.Name, URL: cal.Path}
}

func objectPath(calendarPath, uid string) string {
	if !strings.HasSuffix(calendarPath, "/") {
		calendarPath += "/"
	}
	return calendarPath + uid + ".ics"
}
