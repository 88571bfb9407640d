package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// Geofences are configured only for meaningful zones. No real user sets up
// an "at_restaurant" geofence.
var geofences = map[string]string{
	"home":   "at_home",
	"office": "at_office",
}

var movementByActivity = map[string]string{
	"waking_up":       "stationary",
	"breakfast":       "stationary",
	"commute":         "driving",
	"arriving_office": "walking",
	"working":         "stationary",
	"meeting":         "stationary",
	"lunch":           "stationary",
	"running":         "running",
	"home":            "stationary",
}

// Altitude ranges (meters) by location key.
var altitudeRanges = map[string][2]float64{
	"home":         {8.0, 15.0},
	"office":       {40.0, 80.0},
	LocationTransit: {8.0, 15.0},
	"restaurant":   {8.0, 15.0},
	"central_park": {10.0, 25.0},
}

// GPS jitter sigma in degrees: indoor ~8 m, outdoor ~3 m.
var jitterSigma = map[string]float64{
	"home":         0.00008,
	"office":       0.00008,
	"restaurant":   0.00008,
	"central_park": 0.00003,
}

const (
	runningStep   = 0.0015 // ~150-200 m per heartbeat in degrees
	parkProximity = 0.005  // ~550 m; continue the random walk inside this radius
)

// LocationGenerator produces GPS data for each heartbeat. It tracks the
// previous position for heading computation and locks a crisis base position
// on the first crisis heartbeat.
type LocationGenerator struct {
	prevLat     float64
	prevLon     float64
	hasPrev     bool
	prevHeading int

	crisisBaseLat float64
	crisisBaseLon float64
	inCrisis      bool
}

// NewLocationGenerator returns a generator with no position history.
func NewLocationGenerator() *LocationGenerator { return &LocationGenerator{} }

// Generate produces one heartbeat's location data, consuming exactly 6 draws
// regardless of code path.
func (g *LocationGenerator) Generate(s *PersonSchedule, heartbeatID int, timestamp string, rng *rand.Rand) (any, error) {
	rLat := rng.Float64()*2 - 1
	rLon := rng.Float64()*2 - 1
	rSpeed := rng.Float64()
	rHeading := rng.Float64()*2 - 1
	rAlt := rng.Float64()
	rAcc := rng.Float64()

	block, err := s.BlockAt(timestamp)
	if err != nil {
		return nil, err
	}

	switch {
	case block.Activity == CrisisActivity:
		return g.crisis(rLat, rLon, rAlt, rAcc), nil
	case block.LocationKey == LocationTransit:
		return g.transit(s, block, timestamp, rLat, rLon, rSpeed, rHeading, rAlt, rAcc)
	case block.Activity == "running":
		return g.running(rLat, rLon, rSpeed, rHeading, rAlt, rAcc), nil
	default:
		return g.stationary(block, rLat, rLon, rSpeed, rHeading, rAlt, rAcc), nil
	}
}

func (g *LocationGenerator) stationary(block ActivityBlock, rLat, rLon, rSpeed, rHeading, rAlt, rAcc float64) *scenario.LocationData {
	coords := Locations[block.LocationKey]
	sigma := jitterSigma[block.LocationKey]
	lat := coords[0] + rLat*sigma
	lon := coords[1] + rLon*sigma

	altRange := altitudeRanges[block.LocationKey]
	altitude := altRange[0] + rAlt*(altRange[1]-altRange[0])

	movement := movementByActivity[block.Activity]
	speed := rSpeed * 0.3
	if movement == "walking" {
		speed = 1.0 + rSpeed*0.8
	}

	heading := g.heading(lat, lon, rHeading)
	accuracy := 3.0 + rAcc*7.0 // 3-10 m

	g.prevLat, g.prevLon, g.hasPrev = lat, lon, true

	var geofence *string
	if name, ok := geofences[block.LocationKey]; ok {
		geofence = &name
	}
	return &scenario.LocationData{
		Lat:            round6(lat),
		Lon:            round6(lon),
		Altitude:       round1(altitude),
		Speed:          round2(speed),
		Heading:        heading,
		Accuracy:       round1(accuracy),
		GeofenceStatus: geofence,
		Movement:       movement,
	}
}

func (g *LocationGenerator) transit(s *PersonSchedule, block ActivityBlock, timestamp string, rLat, rLon, rSpeed, rHeading, rAlt, rAcc float64) (*scenario.LocationData, error) {
	origin, dest := g.resolveRoute(s, block)

	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, err
	}
	cur := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	progress := 0.5
	if block.End > block.Start {
		progress = float64(cur-block.Start) / float64(block.End-block.Start)
	}
	progress = math.Max(0.0, math.Min(1.0, progress))

	lat := origin[0] + (dest[0]-origin[0])*progress + rLat*0.0002
	lon := origin[1] + (dest[1]-origin[1])*progress + rLon*0.0002

	// Subway texture: ~25% of samples are station stops, the rest variable
	// inter-station speed.
	speed := rSpeed * 4.0
	if rSpeed >= 0.25 {
		speed = 3.0 + (rSpeed-0.25)/0.75*9.0
	}
	heading := g.heading(lat, lon, rHeading)

	altRange := altitudeRanges[LocationTransit]
	altitude := altRange[0] + rAlt*(altRange[1]-altRange[0])
	accuracy := 5.0 + rAcc*10.0 // 5-15 m

	g.prevLat, g.prevLon, g.hasPrev = lat, lon, true

	return &scenario.LocationData{
		Lat:            round6(lat),
		Lon:            round6(lon),
		Altitude:       round1(altitude),
		Speed:          round2(speed),
		Heading:        heading,
		Accuracy:       round1(accuracy),
		GeofenceStatus: nil,
		Movement:       "driving",
	}, nil
}

// resolveRoute finds the commute's origin and destination from the blocks
// surrounding it in the schedule.
func (g *LocationGenerator) resolveRoute(s *PersonSchedule, block ActivityBlock) (origin, dest [2]float64) {
	origin = Locations["home"]
	dest = Locations["home"]
	for i, b := range s.Blocks {
		if b.Start != block.Start || b.LocationKey != LocationTransit {
			continue
		}
		if i > 0 {
			if c, ok := Locations[s.Blocks[i-1].LocationKey]; ok {
				origin = c
			}
		}
		if i+1 < len(s.Blocks) {
			if c, ok := Locations[s.Blocks[i+1].LocationKey]; ok {
				dest = c
			}
		}
		return origin, dest
	}
	return origin, dest
}

func (g *LocationGenerator) running(rLat, rLon, rSpeed, rHeading, rAlt, rAcc float64) *scenario.LocationData {
	park := Locations["central_park"]

	// Continue the random walk while near the park; otherwise reset to the
	// park center (the jump from the home block to the park).
	baseLat, baseLon := park[0], park[1]
	if g.hasPrev &&
		math.Abs(g.prevLat-park[0]) < parkProximity &&
		math.Abs(g.prevLon-park[1]) < parkProximity {
		baseLat, baseLon = g.prevLat, g.prevLon
	}

	lat := baseLat + rLat*runningStep
	lon := baseLon + rLon*runningStep

	speed := 2.5 + rSpeed*1.0 // 2.5-3.5 m/s
	heading := g.heading(lat, lon, rHeading)

	altRange := altitudeRanges["central_park"]
	altitude := altRange[0] + rAlt*(altRange[1]-altRange[0])
	accuracy := 3.0 + rAcc*5.0 // 3-8 m

	g.prevLat, g.prevLon, g.hasPrev = lat, lon, true

	return &scenario.LocationData{
		Lat:            round6(lat),
		Lon:            round6(lon),
		Altitude:       round1(altitude),
		Speed:          round2(speed),
		Heading:        heading,
		Accuracy:       round1(accuracy),
		GeofenceStatus: nil,
		Movement:       "running",
	}
}

// crisis keeps the receiver honest: real GPS never freezes perfectly. The
// position drifts sub-meter around the locked base, altitude wobbles ±3 m,
// heading holds its last fix, and accuracy stays outdoor-normal.
func (g *LocationGenerator) crisis(rLat, rLon, rAlt, rAcc float64) *scenario.LocationData {
	if !g.inCrisis {
		g.crisisBaseLat, g.crisisBaseLon = g.prevLat, g.prevLon
		if !g.hasPrev {
			g.crisisBaseLat, g.crisisBaseLon = Locations["central_park"][0], Locations["central_park"][1]
		}
		g.inCrisis = true
	}

	const driftSigma = 0.000005 // ~0.5 m
	lat := g.crisisBaseLat + rLat*driftSigma
	lon := g.crisisBaseLon + rLon*driftSigma

	altitude := 15.0 + rAlt*6.0 - 3.0 // 12-18 m
	accuracy := 3.0 + rAcc*5.0        // 3-8 m

	return &scenario.LocationData{
		Lat:            round6(lat),
		Lon:            round6(lon),
		Altitude:       round1(altitude),
		Speed:          0.0,
		Heading:        g.prevHeading, // last fix; meaningless at zero speed
		Accuracy:       round1(accuracy),
		GeofenceStatus: nil,
		Movement:       "stationary",
	}
}

func (g *LocationGenerator) heading(lat, lon, rHeading float64) int {
	if g.hasPrev {
		dlat := lat - g.prevLat
		dlon := lon - g.prevLon
		if math.Abs(dlat) > 1e-8 || math.Abs(dlon) > 1e-8 {
			angle := math.Atan2(dlon, dlat) * 180 / math.Pi
			h := (int(angle) + 360) % 360
			h = (h + int(rHeading*10) + 360) % 360
			g.prevHeading = h
			return h
		}
	}
	h := (g.prevHeading + int(rHeading*30) + 360) % 360
	g.prevHeading = h
	return h
}

func round6(x float64) float64 { return math.Round(x*1e6) / 1e6 }
