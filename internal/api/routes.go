package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/clients/weather"
	"github.com/tazhate/workoutplanner/internal/service"
)

const dateLayout = "2006-01-02"

// CalendarExporter is the calendar side of the API.
type CalendarExporter interface {
	ListCalendars(ctx context.Context) ([]caldav.CalendarInfo, error)
	Export(ctx context.Context, req service.ExportRequest) (*service.ExportSummary, error)
}

// Forecaster is the weather side of the API.
type Forecaster interface {
	Today() caldav.Date
	GetForecast(ctx context.Context, start, end caldav.Date) (*weather.Forecast, error)
	GetDailyForecast(ctx context.Context, day caldav.Date) (*weather.DailyForecast, error)
	GetWeatherByTimeOfDay(ctx context.Context, day caldav.Date) (*weather.TimeOfDayForecast, error)
}

// Deps wires the handlers. Exporter is nil when CalDAV is not configured.
type Deps struct {
	Workouts  *service.WorkoutService
	Auth      *service.AuthService
	Exporter  CalendarExporter
	Weather   Forecaster
	Resources *service.ResourceService
	// Ping reports database health
	Ping func() error
}

type Handler struct {
	deps Deps
}

// NewRouter builds the gin engine with every route.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())
	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	h := &Handler{deps: deps}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)

	protected := api.Group("")
	protected.Use(AuthMiddleware(deps.Auth))
	{
		protected.GET("/auth/me", h.Me)

		protected.GET("/workouts", h.ListWorkouts)
		protected.GET("/workouts/:id", h.GetWorkout)
		protected.POST("/workouts/import", h.ImportWorkouts)

		protected.PUT("/selections/:id", h.UpdateSelection)
		protected.POST("/selections/:id", h.UpdateSelection)
		protected.DELETE("/selections/:id", h.DeleteSelection)

		protected.GET("/custom-workouts", h.ListCustomWorkouts)
		protected.POST("/custom-workouts", h.CreateCustomWorkout)
		protected.PUT("/custom-workouts/:id", h.UpdateCustomWorkout)
		protected.DELETE("/custom-workouts/:id", h.DeleteCustomWorkout)

		protected.GET("/stats", h.Stats)

		protected.GET("/calendar/calendars", h.ListCalendars)
		protected.POST("/calendar/export", h.ExportCalendar)

		protected.GET("/weather", h.Weather)
		protected.GET("/weather/:date", h.DailyWeather)
		protected.GET("/weather/by-time-of-day/:date", h.WeatherByTimeOfDay)

		protected.GET("/club-schedule", h.ClubSchedule)
		protected.GET("/weekly-targets", h.WeeklyTargets)
	}
}

// respondError maps service errors to status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkoutNotFound), errors.Is(err, service.ErrResourceNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmptyImport),
		errors.Is(err, caldav.ErrInvalidRange):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}
