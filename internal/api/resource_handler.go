package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/clients/weather"
)

// Weather returns the daily forecast, by default for the next week.
func (h *Handler) Weather(c *gin.Context) {
	start := h.deps.Weather.Today()
	if s := c.Query("start_date"); s != "" {
		d, err := caldav.ParseDate(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD")
			return
		}
		start = d
	}
	end := start.AddDays(7)
	if s := c.Query("end_date"); s != "" {
		d, err := caldav.ParseDate(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD")
			return
		}
		end = d
	}

	forecast, err := h.deps.Weather.GetForecast(c.Request.Context(), start, end)
	if err != nil {
		respondWeatherError(c, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

func (h *Handler) DailyWeather(c *gin.Context) {
	day, err := caldav.ParseDate(c.Param("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD")
		return
	}
	forecast, err := h.deps.Weather.GetDailyForecast(c.Request.Context(), day)
	if err != nil {
		respondWeatherError(c, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// WeatherByTimeOfDay returns morning, afternoon and evening weather for a day.
func (h *Handler) WeatherByTimeOfDay(c *gin.Context) {
	day, err := caldav.ParseDate(c.Param("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD")
		return
	}
	forecast, err := h.deps.Weather.GetWeatherByTimeOfDay(c.Request.Context(), day)
	if err != nil {
		respondWeatherError(c, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

func respondWeatherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, weather.ErrBeyondForecastRange), errors.Is(err, caldav.ErrInvalidRange):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrNoData):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	}
}

// ClubSchedule returns the club sessions, plus their dates when
// start_date and end_date are given.
func (h *Handler) ClubSchedule(c *gin.Context) {
	sched, err := h.deps.Resources.ClubSchedule()
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"club": sched.Club, "sessions": sched.Sessions}

	from, to := c.Query("start_date"), c.Query("end_date")
	if from != "" && to != "" {
		start, err1 := caldav.ParseDate(from)
		end, err2 := caldav.ParseDate(to)
		if err1 != nil || err2 != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD")
			return
		}
		occ, err := h.deps.Resources.ClubOccurrences(start, end)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["occurrences"] = occ
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) WeeklyTargets(c *gin.Context) {
	targets, err := h.deps.Resources.WeeklyTargets()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, targets)
}
