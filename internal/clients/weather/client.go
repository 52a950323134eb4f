package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
)

const (
	BaseURL = "https://api.open-meteo.com/v1/forecast"

	// Open-Meteo serves daily forecasts this many days ahead
	MaxForecastDays = 16
	// hourly data, needed for time-of-day grouping, is served for fewer days
	MaxHourlyForecastDays = 7

	dailyFields  = "apparent_temperature_max,precipitation_probability_max,windspeed_10m_max,weather_code"
	hourlyFields = "apparent_temperature,precipitation_probability,windspeed_10m,weather_code"

	hourLayout = "2006-01-02T15:04"
)

var (
	ErrBeyondForecastRange = errors.New("date is beyond the forecast range")
	ErrUnavailable         = errors.New("weather service unavailable")
	ErrNoData              = errors.New("no forecast data")
)

// Client is an Open-Meteo API client. No API key is needed.
type Client struct {
	baseURL    string
	lat, lon   float64
	location   *time.Location
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client for the given coordinates. Dates are
// interpreted in loc.
func NewClient(lat, lon float64, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		baseURL:  BaseURL,
		lat:      lat,
		lon:      lon,
		location: loc,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// SetBaseURL points the client at another server, used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Today returns the current date in the client's timezone.
func (c *Client) Today() caldav.Date {
	return caldav.DateOf(c.now().In(c.location))
}

// MaxDate is the last day a forecast is available for.
func (c *Client) MaxDate() caldav.Date {
	return c.Today().AddDays(MaxForecastDays)
}

// MaxHourlyDate is the last day an hourly forecast is available for.
func (c *Client) MaxHourlyDate() caldav.Date {
	return c.Today().AddDays(MaxHourlyForecastDays)
}

// GetForecast returns the daily forecast for [start, end].
func (c *Client) GetForecast(ctx context.Context, start, end caldav.Date) (*Forecast, error) {
	resp, err := c.fetch(ctx, start, end, c.MaxDate(), "daily", dailyFields)
	if err != nil {
		return nil, err
	}

	return &Forecast{
		Latitude:        resp.Latitude,
		Longitude:       resp.Longitude,
		Timezone:        resp.Timezone,
		Dates:           nonNil(resp.Daily.Time),
		Temperatures:    nonNil(resp.Daily.ApparentTemperatureMax),
		RainProbability: nonNil(resp.Daily.PrecipitationProbabilityMax),
		Windspeed:       nonNil(resp.Daily.Windspeed10mMax),
		WeatherCodes:    nonNil(resp.Daily.WeatherCode),
	}, nil
}

// GetDailyForecast returns the forecast for a single day.
func (c *Client) GetDailyForecast(ctx context.Context, day caldav.Date) (*DailyForecast, error) {
	f, err := c.GetForecast(ctx, day, day)
	if err != nil {
		return nil, err
	}
	if len(f.Dates) == 0 || len(f.Temperatures) == 0 || len(f.RainProbability) == 0 ||
		len(f.Windspeed) == 0 || len(f.WeatherCodes) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, day)
	}

	return &DailyForecast{
		Date:            f.Dates[0],
		Temperature:     f.Temperatures[0],
		RainProbability: f.RainProbability[0],
		Windspeed:       f.Windspeed[0],
		WeatherCode:     f.WeatherCodes[0],
		Description:     Describe(f.WeatherCodes[0]),
	}, nil
}

// GetHourlyForecast returns the hourly forecast for [start, end].
func (c *Client) GetHourlyForecast(ctx context.Context, start, end caldav.Date) (*HourlyForecast, error) {
	resp, err := c.fetch(ctx, start, end, c.MaxHourlyDate(), "hourly", hourlyFields)
	if err != nil {
		return nil, err
	}

	return &HourlyForecast{
		Latitude:        resp.Latitude,
		Longitude:       resp.Longitude,
		Timezone:        resp.Timezone,
		Times:           nonNil(resp.Hourly.Time),
		Temperatures:    nonNil(resp.Hourly.ApparentTemperature),
		RainProbability: nonNil(resp.Hourly.PrecipitationProbability),
		Windspeed:       nonNil(resp.Hourly.Windspeed10m),
		WeatherCodes:    nonNil(resp.Hourly.WeatherCode),
	}, nil
}

// GetWeatherByTimeOfDay groups one day's hourly forecast into morning,
// afternoon and evening. Hours outside those periods are ignored.
func (c *Client) GetWeatherByTimeOfDay(ctx context.Context, day caldav.Date) (*TimeOfDayForecast, error) {
	h, err := c.GetHourlyForecast(ctx, day, day)
	if err != nil {
		return nil, err
	}
	if len(h.Times) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, day)
	}

	buckets := make(map[string]*periodSamples, len(periods))
	for _, p := range periods {
		buckets[p.name] = &periodSamples{}
	}
	for i, ts := range h.Times {
		t, err := time.Parse(hourLayout, ts)
		if err != nil || i >= len(h.Temperatures) || i >= len(h.RainProbability) ||
			i >= len(h.Windspeed) || i >= len(h.WeatherCodes) {
			continue
		}
		name, ok := periodOf(t.Hour())
		if !ok {
			continue
		}
		buckets[name].add(h.Temperatures[i], h.RainProbability[i], h.Windspeed[i], h.WeatherCodes[i])
	}

	return &TimeOfDayForecast{
		Date:      day.String(),
		Morning:   buckets["morning"].summary(),
		Afternoon: buckets["afternoon"].summary(),
		Evening:   buckets["evening"].summary(),
	}, nil
}

// fetch queries one block ("daily" or "hourly") of the forecast for
// [start, end], refusing ranges that end after maxDate.
func (c *Client) fetch(ctx context.Context, start, end, maxDate caldav.Date, block, fields string) (*apiResponse, error) {
	if start.After(end) {
		return nil, caldav.ErrInvalidRange
	}
	if end.After(maxDate) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrBeyondForecastRange, end, maxDate)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.lon, 'f', -1, 64))
	params.Set("start_date", start.String())
	params.Set("end_date", end.String())
	params.Set(block, fields)
	params.Set("temperature_unit", "fahrenheit")
	params.Set("wind_speed_unit", "mph")
	params.Set("timezone", c.location.String())

	data, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal forecast: %v", ErrUnavailable, err)
	}
	return &resp, nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: API error %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}
	return body, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
