package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
)

const forecastJSON = `{
  "latitude": 41.79,
  "longitude": -87.57,
  "timezone": "America/Chicago",
  "daily": {
    "time": ["2026-01-10", "2026-01-11"],
    "apparent_temperature_max": [28.4, 31.0],
    "precipitation_probability_max": [10, 80],
    "windspeed_10m_max": [12.5, 20.1],
    "weather_code": [2, 61]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(41.79, -87.57, time.UTC)
	c.SetBaseURL(srv.URL)
	c.now = func() time.Time { return time.Date(2026, time.January, 9, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestGetForecast(t *testing.T) {
	var query map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastJSON))
	})

	f, err := c.GetForecast(context.Background(), caldav.NewDate(2026, time.January, 10), caldav.NewDate(2026, time.January, 11))
	require.NoError(t, err)

	assert.Equal(t, []string{"2026-01-10", "2026-01-11"}, f.Dates)
	assert.Equal(t, []float64{28.4, 31.0}, f.Temperatures)
	assert.Equal(t, []int{2, 61}, f.WeatherCodes)

	assert.Equal(t, "2026-01-10", query["start_date"][0])
	assert.Equal(t, "2026-01-11", query["end_date"][0])
	assert.Equal(t, "fahrenheit", query["temperature_unit"][0])
	assert.Equal(t, "mph", query["wind_speed_unit"][0])
	assert.Equal(t, dailyFields, query["daily"][0])
}

func TestGetForecast_BeyondRange(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.GetForecast(context.Background(), caldav.NewDate(2026, time.January, 10), caldav.NewDate(2026, time.January, 26))
	assert.ErrorIs(t, err, ErrBeyondForecastRange)
	assert.False(t, called)

	// the 16th day out is still served
	_, err = c.GetForecast(context.Background(), caldav.NewDate(2026, time.January, 25), caldav.NewDate(2026, time.January, 25))
	assert.NotErrorIs(t, err, ErrBeyondForecastRange)
}

func TestGetForecast_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.GetForecast(context.Background(), caldav.NewDate(2026, time.January, 10), caldav.NewDate(2026, time.January, 10))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetDailyForecast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily": {"time": ["2026-01-10"], "apparent_temperature_max": [40],
			"precipitation_probability_max": [70], "windspeed_10m_max": [9], "weather_code": [61]}}`))
	})

	d, err := c.GetDailyForecast(context.Background(), caldav.NewDate(2026, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10", d.Date)
	assert.Equal(t, "Slight rain", d.Description)
	assert.Equal(t, 70.0, d.RainProbability)
}

func TestGetDailyForecast_NoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily": {}}`))
	})

	_, err := c.GetDailyForecast(context.Background(), caldav.NewDate(2026, time.January, 10))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Clear sky", Describe(0))
	assert.Equal(t, "Thunderstorm", Describe(95))
	assert.Equal(t, "Unknown", Describe(1234))
}

const hourlyJSON = `{
  "latitude": 41.79,
  "longitude": -87.57,
  "timezone": "America/Chicago",
  "hourly": {
    "time": ["2026-01-10T03:00", "2026-01-10T06:00", "2026-01-10T09:00", "2026-01-10T12:00",
             "2026-01-10T15:00", "2026-01-10T17:00", "2026-01-10T19:00", "2026-01-10T22:00"],
    "apparent_temperature": [20.0, 28.0, 32.0, 36.0, 35.0, 30.0, 25.0, 18.0],
    "precipitation_probability": [90, 10, 10, 20, 15, 30, 40, 90],
    "windspeed_10m": [30.0, 8.0, 10.0, 12.0, 13.0, 14.0, 10.0, 30.0],
    "weather_code": [95, 0, 0, 2, 3, 61, 61, 95]
  }
}`

func TestGetHourlyForecast(t *testing.T) {
	var query map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(hourlyJSON))
	})

	h, err := c.GetHourlyForecast(context.Background(), caldav.NewDate(2026, time.January, 10), caldav.NewDate(2026, time.January, 10))
	require.NoError(t, err)
	assert.Len(t, h.Times, 8)
	assert.Equal(t, "2026-01-10T06:00", h.Times[1])

	assert.Equal(t, hourlyFields, query["hourly"][0])
	assert.Empty(t, query["daily"])
}

func TestGetHourlyForecast_BeyondRange(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	// inside the daily window but past the hourly one
	_, err := c.GetHourlyForecast(context.Background(), caldav.NewDate(2026, time.January, 17), caldav.NewDate(2026, time.January, 17))
	assert.ErrorIs(t, err, ErrBeyondForecastRange)
	_, err = c.GetWeatherByTimeOfDay(context.Background(), caldav.NewDate(2026, time.January, 17))
	assert.ErrorIs(t, err, ErrBeyondForecastRange)
	assert.False(t, called)
}

func TestGetWeatherByTimeOfDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hourlyJSON))
	})

	f, err := c.GetWeatherByTimeOfDay(context.Background(), caldav.NewDate(2026, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10", f.Date)

	// 03:00 and 22:00 fall outside every period
	require.NotNil(t, f.Morning.Temperature)
	assert.Equal(t, 30.0, *f.Morning.Temperature)
	assert.Equal(t, 10.0, *f.Morning.RainProbability)
	assert.Equal(t, 9.0, *f.Morning.Windspeed)
	assert.Equal(t, 0, *f.Morning.WeatherCode)
	assert.Equal(t, "Clear sky", f.Morning.Description)

	assert.Equal(t, 35.5, *f.Afternoon.Temperature)
	assert.Equal(t, 20.0, *f.Afternoon.RainProbability)
	assert.Equal(t, 2, *f.Afternoon.WeatherCode, "ties go to the first code seen")

	assert.Equal(t, 12.0, *f.Evening.Windspeed)
	assert.Equal(t, 40.0, *f.Evening.RainProbability)
	assert.Equal(t, "Slight rain", f.Evening.Description)
}

func TestGetWeatherByTimeOfDay_EmptyPeriod(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": ["2026-01-10T08:00"], "apparent_temperature": [40],
			"precipitation_probability": [5], "windspeed_10m": [3], "weather_code": [1]}}`))
	})

	f, err := c.GetWeatherByTimeOfDay(context.Background(), caldav.NewDate(2026, time.January, 10))
	require.NoError(t, err)
	assert.NotNil(t, f.Morning.Temperature)
	assert.Nil(t, f.Evening.Temperature)
	assert.Nil(t, f.Evening.WeatherCode)
	assert.Equal(t, "No data", f.Evening.Description)
}

func TestGetWeatherByTimeOfDay_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {}}`))
	})
	_, err := c.GetWeatherByTimeOfDay(context.Background(), caldav.NewDate(2026, time.January, 10))
	assert.ErrorIs(t, err, ErrNoData)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err = c.GetWeatherByTimeOfDay(context.Background(), caldav.NewDate(2026, time.January, 10))
	assert.ErrorIs(t, err, ErrUnavailable)
}
