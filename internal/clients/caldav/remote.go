package caldav

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// Remote is the slice of the CalDAV protocol a Session needs. Calendar
// discovery is already scoped to the authenticated user's home set.
type Remote interface {
	FindCalendars(ctx context.Context) ([]caldav.Calendar, error)
	QueryCalendar(ctx context.Context, calendarPath string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
	PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error)
	RemoveAll(ctx context.Context, path string) error
}

// Dialer opens an authenticated Remote.
type Dialer func(ctx context.Context, creds Credentials) (Remote, error)

// DialRemote connects to a CalDAV server with basic auth and resolves the
// user's calendar home set.
func DialRemote(ctx context.Context, creds Credentials) (Remote, error) {
	baseURL := creds.URL
	if baseURL == "" {
		baseURL = DefaultiCloudURL
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: creds.Username,
			password: creds.Password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	return &webdavRemote{client: client, homeSet: homeSet}, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

type webdavRemote struct {
	client  *caldav.Client
	homeSet string
}

func (r *webdavRemote) FindCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	return r.client.FindCalendars(ctx, r.homeSet)
}

func (r *webdavRemote) QueryCalendar(ctx context.Context, calendarPath string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error) {
	return r.client.QueryCalendar(ctx, calendarPath, query)
}

func (r *webdavRemote) PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error) {
	return r.client.PutCalendarObject(ctx, path, cal)
}

func (r *webdavRemote) RemoveAll(ctx context.Context, path string) error {
	return r.client.RemoveAll(ctx, path)
}
