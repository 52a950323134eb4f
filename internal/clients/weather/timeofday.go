package weather

import "math"

type period struct {
	name       string
	start, end int // hours, end exclusive
}

var periods = []period{
	{"morning", 5, 12},
	{"afternoon", 12, 17},
	{"evening", 17, 21},
}

func periodOf(hour int) (string, bool) {
	for _, p := range periods {
		if hour >= p.start && hour < p.end {
			return p.name, true
		}
	}
	return "", false
}

type periodSamples struct {
	temps, rain, wind []float64
	codes             []int
}

func (s *periodSamples) add(temp, rain, wind float64, code int) {
	s.temps = append(s.temps, temp)
	s.rain = append(s.rain, rain)
	s.wind = append(s.wind, wind)
	s.codes = append(s.codes, code)
}

// summary averages temperature and wind, keeps the highest rain
// probability and the most frequent weather code.
func (s *periodSamples) summary() PeriodForecast {
	if len(s.temps) == 0 {
		return PeriodForecast{Description: "No data"}
	}

	temp := round1(mean(s.temps))
	wind := round1(mean(s.wind))
	rain := s.rain[0]
	for _, r := range s.rain[1:] {
		rain = math.Max(rain, r)
	}
	code := dominant(s.codes)

	return PeriodForecast{
		Temperature:     &temp,
		RainProbability: &rain,
		Windspeed:       &wind,
		WeatherCode:     &code,
		Description:     Describe(code),
	}
}

// dominant returns the most frequent code; ties go to the one seen first.
func dominant(codes []int) int {
	counts := make(map[int]int, len(codes))
	best, bestCount := codes[0], 0
	for _, c := range codes {
		counts[c]++
	}
	for _, c := range codes {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
