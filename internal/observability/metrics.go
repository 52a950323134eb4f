package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	exportRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_planner",
		Subsystem: "calendar",
		Name:      "export_runs_total",
		Help:      "Calendar exports by outcome (success, partial, error).",
	}, []string{"outcome"})

	eventsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workout_planner",
		Subsystem: "calendar",
		Name:      "events_created_total",
		Help:      "Workout events written to the remote calendar.",
	})

	eventsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workout_planner",
		Subsystem: "calendar",
		Name:      "events_deleted_total",
		Help:      "Stale workout events removed from the remote calendar.",
	})

	lastExportGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workout_planner",
		Subsystem: "calendar",
		Name:      "last_export_timestamp_seconds",
		Help:      "Unix timestamp of the most recent export that reached the calendar.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_planner",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(exportRuns, eventsCreated, eventsDeleted, lastExportGauge, httpRequests)
}

// RecordExport accounts one export run. outcome is success, partial or error.
func RecordExport(outcome string, created, deleted int, ts time.Time) {
	exportRuns.WithLabelValues(outcome).Inc()
	eventsCreated.Add(float64(created))
	eventsDeleted.Add(float64(deleted))
	if !ts.IsZero() && outcome != "error" {
		lastExportGauge.Set(float64(ts.Unix()))
	}
}

func RecordHTTPRequest(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
