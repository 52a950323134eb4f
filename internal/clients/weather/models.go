package weather

// Forecast is a daily forecast over a date range. The slices are parallel,
// one entry per day.
type Forecast struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Timezone        string    `json:"timezone"`
	Dates           []string  `json:"dates"`
	Temperatures    []float64 `json:"temperatures"`
	RainProbability []float64 `json:"rain_probability"`
	Windspeed       []float64 `json:"windspeed"`
	WeatherCodes    []int     `json:"weather_codes"`
}

// DailyForecast is the weather for one day.
type DailyForecast struct {
	Date            string  `json:"date"`
	Temperature     float64 `json:"temperature"`
	RainProbability float64 `json:"rain_probability"`
	Windspeed       float64 `json:"windspeed"`
	WeatherCode     int     `json:"weather_code"`
	Description     string  `json:"description"`
}

// HourlyForecast is an hourly forecast. Times are local, "2006-01-02T15:04".
type HourlyForecast struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Timezone        string    `json:"timezone"`
	Times           []string  `json:"times"`
	Temperatures    []float64 `json:"temperatures"`
	RainProbability []float64 `json:"rain_probability"`
	Windspeed       []float64 `json:"windspeed"`
	WeatherCodes    []int     `json:"weather_codes"`
}

// PeriodForecast summarizes the hours of one part of the day. The numeric
// fields are nil when the period has no hourly data.
type PeriodForecast struct {
	Temperature     *float64 `json:"temperature"`
	RainProbability *float64 `json:"rain_probability"`
	Windspeed       *float64 `json:"windspeed"`
	WeatherCode     *int     `json:"weather_code"`
	Description     string   `json:"description"`
}

// TimeOfDayForecast is one day's weather split into workout time slots.
type TimeOfDayForecast struct {
	Date      string         `json:"date"`
	Morning   PeriodForecast `json:"morning"`
	Afternoon PeriodForecast `json:"afternoon"`
	Evening   PeriodForecast `json:"evening"`
}

// apiResponse is the Open-Meteo /v1/forecast payload.
type apiResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     struct {
		Time                        []string  `json:"time"`
		ApparentTemperatureMax      []float64 `json:"apparent_temperature_max"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
		Windspeed10mMax             []float64 `json:"windspeed_10m_max"`
		WeatherCode                 []int     `json:"weather_code"`
	} `json:"daily"`
	Hourly struct {
		Time                     []string  `json:"time"`
		ApparentTemperature      []float64 `json:"apparent_temperature"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
		Windspeed10m             []float64 `json:"windspeed_10m"`
		WeatherCode              []int     `json:"weather_code"`
	} `json:"hourly"`
}

// WMO weather codes
var descriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mostly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Describe returns a human-readable description of a WMO code.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Unknown"
}
