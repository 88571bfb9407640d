package generator

import (
	"math"
	"math/rand"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// Steps added per heartbeat, by activity.
var stepsPerBeat = map[string][2]int{
	"waking_up":       {0, 15},
	"breakfast":       {0, 10},
	"commute":         {40, 120},
	"arriving_office": {20, 60},
	"working":         {0, 20},
	"meeting":         {0, 5},
	"lunch":           {10, 40},
	"running":         {150, 280},
	"home":            {0, 15},
}

// Calories added per heartbeat, by activity.
var caloriesPerBeat = map[string][2]int{
	"waking_up":       {1, 3},
	"breakfast":       {1, 2},
	"commute":         {3, 8},
	"arriving_office": {2, 5},
	"working":         {1, 3},
	"meeting":         {1, 2},
	"lunch":           {1, 3},
	"running":         {15, 30},
	"home":            {1, 3},
}

// Skin cooling parameters during the crisis. A clothed body outdoors settles
// toward an effective ambient near 28°C; the rate constant keeps early drops
// visibly larger than later ones even after one-decimal rounding.
const (
	coolingAmbient = 28.0
	coolingRate    = 0.13 // per heartbeat
)

// WearableGenerator produces biometric data for each heartbeat. It tracks
// cumulative metrics across the day and carries last-normal state into the
// crisis window so frozen fields stay physiologically consistent.
type WearableGenerator struct {
	steps        int
	calories     int
	battery      int
	batteryFloor int
	glucose      float64
	prevHR       int
	prevActivity string
	initialized  bool

	crisisBeats  int
	lastNormal   *scenario.WearableData
	coolingStart float64
}

// NewWearableGenerator returns a generator with no accumulated state.
func NewWearableGenerator() *WearableGenerator { return &WearableGenerator{} }

// Generate produces one heartbeat's wearable data. Exactly 13 draws are
// consumed from the shared random source per heartbeat regardless of code
// path; branches that skip a sample discard it instead.
func (g *WearableGenerator) Generate(s *PersonSchedule, heartbeatID int, timestamp string, rng *rand.Rand) (any, error) {
	rHR := rng.Float64()
	rWarm := rng.Float64()
	rSpO2Roll := rng.Float64()
	rSpO2 := rng.Float64()
	rSteps := rng.Float64()
	rCals := rng.Float64()
	rSkin := rng.Float64()
	rECG := rng.Float64()
	rGlucoseStep := rng.NormFloat64()
	rGlucoseDip := rng.Float64()
	rPrecision := rng.Float64()
	rResp := rng.Float64()
	rBattery := rng.Float64()

	if !g.initialized {
		g.battery = 85 + int(rBattery*10) // 85-94
		g.batteryFloor = 5 + int(rWarm*10)
		g.glucose = 88.0 + rGlucoseDip*20.0
		g.initialized = true
	}

	block, err := s.BlockAt(timestamp)
	if err != nil {
		return nil, err
	}

	if block.Activity == CrisisActivity {
		return g.crisis(), nil
	}

	// Heart rate from the block's range; the first heartbeat of a running
	// block gets a warm-up value between the previous sedentary reading and
	// the full running range so there is no instantaneous jump.
	hrMin, hrMax := block.HRRange[0], block.HRRange[1]
	hr := hrMin + int(rHR*float64(hrMax-hrMin+1))
	if hr > hrMax {
		hr = hrMax
	}
	if block.Activity == "running" && g.prevActivity != "running" && g.prevHR > 0 {
		blend := 0.40 + rWarm*0.20
		hr = g.prevHR + int(blend*float64(hr-g.prevHR))
	}

	// SpO2: 95-99 base with rare brief artifacts.
	var spo2 int
	switch {
	case rSpO2Roll < 0.03:
		spo2 = 100
	case rSpO2Roll < 0.06:
		spo2 = 93 + int(rSpO2*2) // 93-94
	default:
		spo2 = 95 + int(rSpO2*5) // 95-99
	}

	stepRange, ok := stepsPerBeat[block.Activity]
	if !ok {
		stepRange = [2]int{0, 10}
	}
	g.steps += stepRange[0] + int(rSteps*float64(stepRange[1]-stepRange[0]+1))

	calRange, ok := caloriesPerBeat[block.Activity]
	if !ok {
		calRange = [2]int{1, 3}
	}
	g.calories += calRange[0] + int(rCals*float64(calRange[1]-calRange[0]+1))

	skinTemp := round1(36.0 + rSkin*1.5)

	ecg := "normal sinus rhythm"
	switch {
	case rECG < 0.015:
		ecg = "signal quality low"
	case rECG < 0.03:
		ecg = "motion artifact detected"
	}

	// Glucose drifts through the day; running dips it 3-8 mg/dL as working
	// muscle draws it down. Precision varies — some samples report whole
	// numbers, most one decimal.
	g.glucose += rGlucoseStep * 1.5
	if block.Activity == "running" {
		g.glucose -= 3.0 + rGlucoseDip*5.0
	}
	g.glucose = softClamp(g.glucose, 72.0, 145.0)
	glucose := round1(g.glucose)
	if rPrecision < 0.15 {
		glucose = math.Round(glucose)
	}

	resp := 14 + int(rResp*7) // 14-20
	if block.Activity == "running" {
		resp = 28 + int(rResp*10) // 28-37
	}

	// Body battery depletes with effort; at its per-scenario floor it
	// wobbles instead of clamping flat.
	switch block.Activity {
	case "running":
		g.battery -= 3 + int(rBattery*4)
	case "commute", "arriving_office":
		g.battery -= 1 + int(rBattery*3)
	default:
		g.battery -= int(rBattery * 3)
	}
	if g.battery <= g.batteryFloor {
		g.battery = g.batteryFloor + int(rBattery*3) - 1
		if g.battery < 1 {
			g.battery = 1
		}
	}

	data := &scenario.WearableData{
		HeartRate:       hr,
		SpO2:            spo2,
		Steps:           g.steps,
		SkinTemp:        skinTemp,
		ECGSummary:      ecg,
		BloodGlucose:    glucose,
		CaloriesBurned:  g.calories,
		SleepStage:      "awake",
		RespiratoryRate: resp,
		BodyBattery:     g.battery,
	}
	g.prevHR = hr
	g.prevActivity = block.Activity
	snapshot := *data
	g.lastNormal = &snapshot
	return data, nil
}

// crisis returns a flat no-vitals snapshot. Values the wearable wouldn't
// re-measure persist from the last normal reading; skin temperature follows
// Newton's law of cooling toward the effective ambient.
func (g *WearableGenerator) crisis() *scenario.WearableData {
	g.crisisBeats++

	last := g.lastNormal
	if last == nil {
		last = &scenario.WearableData{SkinTemp: 36.5, BloodGlucose: 95.0, BodyBattery: 30}
	}
	if g.crisisBeats == 1 {
		g.coolingStart = last.SkinTemp
	}

	skin := coolingAmbient + (g.coolingStart-coolingAmbient)*math.Exp(-coolingRate*float64(g.crisisBeats))

	return &scenario.WearableData{
		HeartRate:       0,
		SpO2:            0,
		Steps:           last.Steps,
		SkinTemp:        round1(skin),
		ECGSummary:      "inconclusive",
		BloodGlucose:    last.BloodGlucose,
		CaloriesBurned:  last.CaloriesBurned,
		SleepStage:      "none",
		RespiratoryRate: 0,
		BodyBattery:     last.BodyBattery, // no HRV, no recomputation
	}
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// softClamp compresses values near the boundaries with a tanh S-curve
// instead of the flat lines hard min/max clamping produces.
func softClamp(value, low, high float64) float64 {
	mid := (low + high) / 2.0
	half := (high - low) / 2.0
	return mid + half*math.Tanh((value-mid)/half)
}
