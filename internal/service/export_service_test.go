package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
)

type fakeSession struct {
	calls      []string
	connectErr error
	selectErr  error
	deleteErr  error
	deleted    int
	failDates  map[caldav.Date]bool
	selected   string
	plan       caldav.DailyWorkoutPlan
	deletedFor [2]caldav.Date
}

func (f *fakeSession) Connect(ctx context.Context) error {
	f.calls = append(f.calls, "connect")
	return f.connectErr
}

func (f *fakeSession) ListCalendars(ctx context.Context) ([]caldav.CalendarInfo, error) {
	f.calls = append(f.calls, "list")
	return []caldav.CalendarInfo{{Name: "Workouts", URL: "/cal/workouts/"}}, nil
}

func (f *fakeSession) SelectCalendar(ctx context.Context, name string) error {
	f.calls = append(f.calls, "select")
	f.selected = name
	return f.selectErr
}

func (f *fakeSession) DeleteEventsInRange(ctx context.Context, start, end caldav.Date) (int, error) {
	f.calls = append(f.calls, "delete")
	f.deletedFor = [2]caldav.Date{start, end}
	return f.deleted, f.deleteErr
}

func (f *fakeSession) ExportPlan(ctx context.Context, plan caldav.DailyWorkoutPlan) (*caldav.ExportResult, error) {
	f.calls = append(f.calls, "export")
	f.plan = plan
	res := &caldav.ExportResult{Results: []caldav.DateResult{}}
	for _, d := range plan.Dates() {
		if f.failDates[d] {
			res.Results = append(res.Results, caldav.DateResult{Date: d, Error: "put failed"})
			continue
		}
		res.CreatedCount++
		res.Results = append(res.Results, caldav.DateResult{Date: d, Success: true})
	}
	return res, nil
}

func (f *fakeSession) Disconnect() {
	f.calls = append(f.calls, "disconnect")
}

type staticPlan struct {
	plan caldav.DailyWorkoutPlan
	err  error
}

func (p staticPlan) BuildPlan(from, to caldav.Date) (caldav.DailyWorkoutPlan, error) {
	return p.plan, p.err
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

var (
	jan5 = caldav.NewDate(2026, time.January, 5)
	jan6 = caldav.NewDate(2026, time.January, 6)
	jan7 = caldav.NewDate(2026, time.January, 7)
)

func twoDayPlan() caldav.DailyWorkoutPlan {
	plan := make(caldav.DailyWorkoutPlan)
	plan.Add(jan5, caldav.WorkoutSummary{WorkoutType: "Run"})
	plan.Add(jan7, caldav.WorkoutSummary{WorkoutType: "Bike"})
	return plan
}

func newTestExporter(session *fakeSession, plan caldav.DailyWorkoutPlan) *Exporter {
	return NewExporter(func() CalendarSession { return session }, staticPlan{plan: plan}, "Workouts")
}

func TestExport_DeletesBeforeCreating(t *testing.T) {
	session := &fakeSession{deleted: 3}
	notifier := &recordingNotifier{}
	exp := newTestExporter(session, twoDayPlan())
	exp.SetNotifier(notifier)

	summary, err := exp.Export(context.Background(), ExportRequest{Start: jan5, End: jan7})
	require.NoError(t, err)

	assert.Equal(t, []string{"connect", "select", "delete", "export", "disconnect"}, session.calls)
	assert.Equal(t, "Workouts", session.selected, "default calendar name")
	assert.Equal(t, [2]caldav.Date{jan5, jan7}, session.deletedFor)

	assert.Equal(t, 2, summary.EventsCreated)
	assert.Equal(t, 3, summary.EventsDeleted)
	assert.Equal(t, DateRange{Start: jan5, End: jan7}, summary.DateRange)
	assert.Len(t, summary.Results, 2)
	assert.Equal(t, "Exported 2 workout days to calendar (deleted 3 old events)", summary.Message)
	assert.Len(t, notifier.messages, 1)
}

func TestExport_EmptyPlanStillClearsRange(t *testing.T) {
	session := &fakeSession{deleted: 2}
	exp := newTestExporter(session, caldav.DailyWorkoutPlan{})

	summary, err := exp.Export(context.Background(), ExportRequest{Start: jan5, End: jan6, CalendarName: "Training"})
	require.NoError(t, err)

	assert.Contains(t, session.calls, "delete")
	assert.Equal(t, "Training", session.selected)
	assert.Equal(t, 0, summary.EventsCreated)
	assert.Equal(t, 2, summary.EventsDeleted)
	assert.NotNil(t, summary.Results)
}

func TestExport_DisconnectsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		session *fakeSession
		calls   []string
		wantErr error
	}{
		{
			name:    "connect",
			session: &fakeSession{connectErr: boom},
			calls:   []string{"connect", "disconnect"},
			wantErr: boom,
		},
		{
			name:    "select",
			session: &fakeSession{selectErr: caldav.ErrCalendarNotFound},
			calls:   []string{"connect", "select", "disconnect"},
			wantErr: caldav.ErrCalendarNotFound,
		},
		{
			name:    "delete",
			session: &fakeSession{deleteErr: boom},
			calls:   []string{"connect", "select", "delete", "disconnect"},
			wantErr: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			exp := newTestExporter(tt.session, twoDayPlan())
			exp.SetNotifier(notifier)

			_, err := exp.Export(context.Background(), ExportRequest{Start: jan5, End: jan7})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.calls, tt.session.calls)
			assert.Len(t, notifier.messages, 1)
		})
	}
}

func TestExport_PartialFailure(t *testing.T) {
	session := &fakeSession{failDates: map[caldav.Date]bool{jan7: true}}
	notifier := &recordingNotifier{}
	exp := newTestExporter(session, twoDayPlan())
	exp.SetNotifier(notifier)

	summary, err := exp.Export(context.Background(), ExportRequest{Start: jan5, End: jan7})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EventsCreated)
	assert.False(t, summary.Results[1].Success)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Failed: 2026-01-07")
}

func TestExport_InvalidRange(t *testing.T) {
	session := &fakeSession{}
	exp := newTestExporter(session, twoDayPlan())

	_, err := exp.Export(context.Background(), ExportRequest{Start: jan7, End: jan5})
	assert.ErrorIs(t, err, caldav.ErrInvalidRange)

	_, err = exp.Export(context.Background(), ExportRequest{Start: jan5})
	assert.ErrorIs(t, err, caldav.ErrInvalidRange)

	assert.Empty(t, session.calls, "nothing remote happens for a bad range")
}

func TestExport_PlanError(t *testing.T) {
	session := &fakeSession{}
	exp := NewExporter(func() CalendarSession { return session }, staticPlan{err: errors.New("db down")}, "")

	_, err := exp.Export(context.Background(), ExportRequest{Start: jan5, End: jan7})
	assert.Error(t, err)
	assert.Empty(t, session.calls)
}

func TestListCalendars(t *testing.T) {
	session := &fakeSession{}
	exp := newTestExporter(session, nil)

	cals, err := exp.ListCalendars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Workouts", cals[0].Name)
	assert.Equal(t, []string{"connect", "list", "disconnect"}, session.calls)
}
