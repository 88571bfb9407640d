package generator

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// Wind direction labels in clockwise order.
var windDirs = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Pollen level chosen once per scenario, stable all day.
var pollenLevels = []string{"Low", "Medium", "High"}

// Diurnal temperature parameters (NYC mid-June).
const (
	tempBase     = 16.0 // pre-dawn baseline, Celsius
	tempPeak     = 25.0 // afternoon peak
	tempRiseHour = 5.5  // warming start
	tempPeakHour = 15.0 // hour of peak
)

// WeatherGenerator produces weather data for each heartbeat. Slowly
// drifting values (wind, pressure, cloud cover, AQI) carry across heartbeats
// via random walks; temperature and UV follow deterministic curves plus
// seeded noise. Weather continues evolving through the crisis — the
// environment does not know.
type WeatherGenerator struct {
	windSpeed     float64
	windDirIdx    int
	prevailingIdx int
	pressure      float64
	cloudCover    float64
	aqi           float64
	pollen        string
	initialized   bool
}

// NewWeatherGenerator returns an uninitialized generator; per-scenario state
// is seeded on the first heartbeat.
func NewWeatherGenerator() *WeatherGenerator { return &WeatherGenerator{} }

// Generate produces one heartbeat's weather, consuming exactly 8 draws (the
// first call also draws six more to seed the per-scenario state).
func (g *WeatherGenerator) Generate(s *PersonSchedule, heartbeatID int, timestamp string, rng *rand.Rand) (any, error) {
	if !g.initialized {
		g.initOnce(rng)
	}

	rTempNoise := rng.NormFloat64() * 0.5
	rWindStep := rng.NormFloat64() * 0.3
	rWindDir := rng.Float64()
	rHumidity := rng.NormFloat64() * 1.5
	rUV := rng.NormFloat64() * 0.9
	rAQIStep := rng.NormFloat64() * 1.0
	rPressureStep := rng.NormFloat64() * 0.01
	rCloudStep := rng.NormFloat64() * 2.0

	hour, err := fractionalHour(timestamp)
	if err != nil {
		return nil, err
	}

	// Temperature: flat pre-dawn, half-sine warming, exponential evening
	// cooling toward the baseline.
	amplitude := tempPeak - tempBase
	var temp float64
	switch {
	case hour <= tempRiseHour:
		temp = tempBase
	case hour <= tempPeakHour:
		progress := (hour - tempRiseHour) / (tempPeakHour - tempRiseHour)
		temp = tempBase + amplitude*math.Sin(progress*math.Pi/2)
	default:
		temp = tempBase + amplitude*math.Exp(-0.15*(hour-tempPeakHour))
	}
	temp = round1(temp + rTempNoise)

	windChill := -0.1 * g.windSpeed
	offset := -0.2
	if temp > 22 {
		offset = 0.3
	}
	feelsLike := round1(temp + windChill + offset)

	// Humidity inverse-correlated with temperature.
	humidity := int(math.Max(20, math.Min(98, 70.0-1.8*(temp-tempBase)+rHumidity)))

	g.windSpeed = softClamp(g.windSpeed+rWindStep, 0.5, 15.0)

	// Wind direction: sticky drift anchored to the day's prevailing
	// direction — no flips between samples.
	switch {
	case rWindDir < 0.04:
		g.windDirIdx = (g.windDirIdx + 1) % 8
	case rWindDir > 0.96:
		g.windDirIdx = (g.windDirIdx + 7) % 8
	case rWindDir < 0.10:
		delta := ((g.prevailingIdx - g.windDirIdx) % 8 + 8) % 8
		if delta != 0 {
			step := 1
			if delta > 4 {
				step = -1
			}
			g.windDirIdx = ((g.windDirIdx+step)%8 + 8) % 8
		}
	}

	// UV index tracks the sun arc: zero early, peak near 13:00, zero after
	// dark.
	uv := 0
	if hour >= 6.0 && hour <= 20.0 {
		var rawUV float64
		if hour <= 13.0 {
			rawUV = 8.0 * math.Sin((hour-6.0)/7.0*math.Pi/2)
		} else {
			rawUV = 8.0 * math.Cos((hour-13.0)/7.0*math.Pi/2)
		}
		uv = int(math.Max(0, rawUV+rUV))
	}

	g.aqi = softClamp(g.aqi+rAQIStep, 15.0, 80.0)
	g.pressure = softClamp(g.pressure+rPressureStep, 29.7, 30.3)
	g.cloudCover = softClamp(g.cloudCover+rCloudStep, 0.0, 100.0)

	// Dew point via the Magnus approximation.
	gamma := math.Log(float64(humidity)/100.0) + (17.67*temp)/(243.5+temp)
	dewPoint := round1(243.5 * gamma / (17.67 - gamma))

	return &scenario.WeatherData{
		Temp:        temp,
		FeelsLike:   feelsLike,
		Humidity:    humidity,
		WindSpeed:   round1(g.windSpeed),
		WindDir:     windDirs[g.windDirIdx],
		UVIndex:     uv,
		AQI:         int(g.aqi),
		PollenLevel: g.pollen,
		Pressure:    round2(g.pressure),
		DewPoint:    dewPoint,
		CloudCover:  int(g.cloudCover),
	}, nil
}

func (g *WeatherGenerator) initOnce(rng *rand.Rand) {
	g.windSpeed = 3.0 + rng.Float64()*4.0 // 3-7 mph
	g.windDirIdx = rng.Intn(8)
	g.prevailingIdx = g.windDirIdx
	g.pressure = 29.9 + rng.Float64()*0.2
	g.cloudCover = 20.0 + rng.Float64()*30.0
	g.aqi = 30.0 + rng.Float64()*20.0
	g.pollen = pollenLevels[rng.Intn(len(pollenLevels))]
	g.initialized = true
}

// fractionalHour extracts the hour-of-day as a float from an ISO timestamp.
func fractionalHour(timestamp string) (float64, error) {
	_, rest, ok := strings.Cut(timestamp, "T")
	if !ok {
		return 0, strconv.ErrSyntax
	}
	parts := strings.Split(strings.TrimSuffix(rest, "Z"), ":")
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return float64(h) + float64(m)/60.0, nil
}
