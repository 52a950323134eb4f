package caldav

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// fakeRemote is an in-memory calendar server. It applies VEVENT time-range
// filters the way a CalDAV server would.
type fakeRemote struct {
	calendars []caldav.Calendar
	objects   map[string]*ical.Calendar

	findErr   error
	queryErr  error
	putErr    func(path string) error
	removeErr func(path string) error

	calls   []string
	queries []*caldav.CalendarQuery
}

func newFakeRemote(names ...string) *fakeRemote {
	f := &fakeRemote{objects: make(map[string]*ical.Calendar)}
	for _, name := range names {
		f.calendars = append(f.calendars, caldav.Calendar{
			Path: "/123/calendars/" + strings.ToLower(name) + "/",
			Name: name,
		})
	}
	return f
}

func (f *fakeRemote) dialer() Dialer {
	return func(ctx context.Context, creds Credentials) (Remote, error) {
		f.calls = append(f.calls, "dial")
		return f, nil
	}
}

func (f *fakeRemote) FindCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	f.calls = append(f.calls, "find")
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]caldav.Calendar(nil), f.calendars...), nil
}

func (f *fakeRemote) QueryCalendar(ctx context.Context, calendarPath string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error) {
	f.calls = append(f.calls, "query")
	f.queries = append(f.queries, query)
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var from, to time.Time
	if len(query.CompFilter.Comps) > 0 {
		from, to = query.CompFilter.Comps[0].Start, query.CompFilter.Comps[0].End
	}

	var out []caldav.CalendarObject
	for _, path := range f.sortedPaths() {
		if !strings.HasPrefix(path, calendarPath) {
			continue
		}
		cal := f.objects[path]
		if !overlaps(cal, from, to) {
			continue
		}
		out = append(out, caldav.CalendarObject{Path: path, Data: cal})
	}
	return out, nil
}

func (f *fakeRemote) PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error) {
	f.calls = append(f.calls, "put")
	if f.putErr != nil {
		if err := f.putErr(path); err != nil {
			return nil, err
		}
	}
	f.objects[path] = cal
	return &caldav.CalendarObject{Path: path, Data: cal}, nil
}

func (f *fakeRemote) RemoveAll(ctx context.Context, path string) error {
	f.calls = append(f.calls, "remove")
	if f.removeErr != nil {
		if err := f.removeErr(path); err != nil {
			return err
		}
	}
	if _, ok := f.objects[path]; !ok {
		return errors.New("404 not found")
	}
	delete(f.objects, path)
	return nil
}

// addEvent stores an all-day event directly, bypassing the session.
func (f *fakeRemote) addEvent(calendarPath, uid, summary string, day Date) string {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Test//EN")
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid)
	ev.Props.SetText(ical.PropSummary, summary)
	ev.Props.SetDate(ical.PropDateTimeStart, day.In(time.UTC))
	ev.Props.SetDate(ical.PropDateTimeEnd, day.AddDays(1).In(time.UTC))
	cal.Children = append(cal.Children, ev.Component)

	path := objectPath(calendarPath, uid)
	f.objects[path] = cal
	return path
}

func (f *fakeRemote) workoutEvents() []*ical.Calendar {
	var out []*ical.Calendar
	for _, path := range f.sortedPaths() {
		if IsWorkoutEvent(f.objects[path]) {
			out = append(out, f.objects[path])
		}
	}
	return out
}

func (f *fakeRemote) workoutDates() []Date {
	var dates []Date
	for _, cal := range f.workoutEvents() {
		if d, ok := eventDate(cal); ok {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (f *fakeRemote) hasPath(path string) bool {
	_, ok := f.objects[path]
	return ok
}

func (f *fakeRemote) sortedPaths() []string {
	paths := make([]string, 0, len(f.objects))
	for p := range f.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (f *fakeRemote) remoteCalls() int {
	n := 0
	for _, c := range f.calls {
		if c != "dial" {
			n++
		}
	}
	return n
}

func overlaps(cal *ical.Calendar, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		start, err := comp.Props.Get(ical.PropDateTimeStart).DateTime(time.UTC)
		if err != nil {
			return false
		}
		end, err := comp.Props.Get(ical.PropDateTimeEnd).DateTime(time.UTC)
		if err != nil {
			return false
		}
		return (to.IsZero() || start.Before(to)) && (from.IsZero() || end.After(from))
	}
	return false
}
