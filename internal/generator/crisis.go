package generator

import (
	"fmt"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// crisisProfile pins the signals a crisis type must show. Enforcement runs
// after every module generator and before packaging — a defensive
// consistency pass over values the generators already produce. It
// deliberately leaves realism details (GPS drift, skin cooling) alone: an
// earlier data-driven injector that froze whole modules destroyed them.
type crisisProfile struct {
	enforceWearable func(pre, cur *scenario.WearableData)
	enforceLocation func(pre, cur *scenario.LocationData)
}

var crisisProfiles = map[string]crisisProfile{
	"cardiac_arrest": {
		enforceWearable: func(pre, cur *scenario.WearableData) {
			cur.HeartRate = 0
			cur.SpO2 = 0
			cur.RespiratoryRate = 0
			cur.ECGSummary = "inconclusive"
			if pre != nil {
				// The wearable can't re-measure these with no wearer motion
				// or HRV; they hold at the last pre-crisis reading.
				cur.Steps = pre.Steps
				cur.CaloriesBurned = pre.CaloriesBurned
				cur.BodyBattery = pre.BodyBattery
			}
		},
		enforceLocation: func(pre, cur *scenario.LocationData) {
			cur.Speed = 0
			cur.Movement = "stationary"
		},
	},
}

// EnforceCrisis overlays the crisis profile on every heartbeat at and after
// crisisID. It fails loudly when a module the profile needs is absent inside
// the crisis window — that indicates an upstream pipeline bug, not a tier
// artifact (tier filtering happens later). Applying it twice yields the same
// heartbeats: the pre-crisis snapshot it freezes from is never touched.
func EnforceCrisis(heartbeats []scenario.HeartbeatPayload, crisisID int, crisisType string) error {
	profile, ok := crisisProfiles[crisisType]
	if !ok {
		return fmt.Errorf("no crisis profile defined for %q", crisisType)
	}
	if crisisID < 0 || crisisID >= len(heartbeats) {
		return fmt.Errorf("crisis heartbeat %d out of range", crisisID)
	}

	var preWearable *scenario.WearableData
	var preLocation *scenario.LocationData
	if crisisID > 0 {
		pre := heartbeats[crisisID-1]
		preWearable = pre.Wearable
		preLocation = pre.Location
	}

	for i := crisisID; i < len(heartbeats); i++ {
		hb := &heartbeats[i]
		if hb.Wearable == nil {
			return fmt.Errorf("wearable module missing at heartbeat %d inside crisis window", hb.HeartbeatID)
		}
		if hb.Location == nil {
			return fmt.Errorf("location module missing at heartbeat %d inside crisis window", hb.HeartbeatID)
		}
		profile.enforceWearable(preWearable, hb.Wearable)
		profile.enforceLocation(preLocation, hb.Location)
	}
	return nil
}
