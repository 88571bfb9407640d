// Package generator synthesizes deterministic scenario packages: a full
// simulated day of sensor data with a precisely timed crisis injection.
package generator

import (
	"fmt"
	"math/rand"
	"time"
)

// HeartbeatInterval is the fixed cadence between heartbeats.
const HeartbeatInterval = 5 * time.Minute

// PostCrisisHeartbeats is the trailing window emitted after crisis onset.
const PostCrisisHeartbeats = 20

// MinScenarioYear keeps scenario dates outside any plausible LLM training
// window. Construction fails for earlier years.
const MinScenarioYear = 2027

// DefaultScenarioDate is used when no date is supplied.
var DefaultScenarioDate = time.Date(MinScenarioYear, time.June, 15, 0, 0, 0, 0, time.UTC)

// CrisisActivity marks the terminal block of the day.
const CrisisActivity = "CRISIS"

// ActivityBlock is a single block of the person's day. Mutable during
// generation; published records are only built at packaging time.
type ActivityBlock struct {
	Start       time.Duration // offset from midnight
	End         time.Duration // offset from midnight; negative for open-ended (crisis)
	Activity    string
	LocationKey string
	HRRange     [2]int // (min_bpm, max_bpm)
}

// OpenEnded reports whether the block has no end time (the crisis block).
func (b ActivityBlock) OpenEnded() bool { return b.End < 0 }

// Location coordinates (NYC).
var Locations = map[string][2]float64{
	"home":         {40.7851, -73.9754},
	"office":       {40.7484, -73.9857},
	"restaurant":   {40.7505, -73.9855},
	"central_park": {40.7812, -73.9665},
}

// LocationTransit marks blocks whose position interpolates between the
// surrounding blocks' coordinates.
const LocationTransit = "transit"

func hm(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

// CardiacArrestSchedule is the scripted day for the cardiac-arrest scenario:
// an ordinary workday ending with an evening run and a terminal crisis block.
var CardiacArrestSchedule = []ActivityBlock{
	{hm(6, 30), hm(6, 45), "waking_up", "home", [2]int{58, 65}},
	{hm(6, 45), hm(7, 0), "breakfast", "home", [2]int{62, 68}},
	{hm(7, 0), hm(7, 30), "commute", LocationTransit, [2]int{68, 75}},
	{hm(7, 30), hm(8, 0), "arriving_office", "office", [2]int{65, 72}},
	{hm(8, 0), hm(10, 0), "working", "office", [2]int{63, 70}},
	{hm(10, 0), hm(10, 45), "meeting", "office", [2]int{66, 74}},
	{hm(10, 45), hm(12, 30), "working", "office", [2]int{63, 70}},
	{hm(12, 30), hm(13, 15), "lunch", "restaurant", [2]int{70, 78}},
	{hm(13, 15), hm(17, 0), "working", "office", [2]int{63, 70}},
	{hm(17, 0), hm(17, 30), "commute", LocationTransit, [2]int{68, 75}},
	{hm(17, 30), hm(17, 45), "home", "home", [2]int{62, 68}},
	{hm(17, 45), hm(18, 5), "running", "central_park", [2]int{130, 160}},
	{hm(18, 5), -1, CrisisActivity, "central_park", [2]int{0, 0}},
}

// Schedules maps crisis types to their scripted day.
var Schedules = map[string][]ActivityBlock{
	"cardiac_arrest": CardiacArrestSchedule,
}

// PersonSchedule owns the ordered block list, the scenario date, and the
// single seeded random source threaded through every module generator.
type PersonSchedule struct {
	Blocks       []ActivityBlock
	Seed         int64
	ScenarioDate time.Time
	RNG          *rand.Rand

	crisisBlock   ActivityBlock
	postCrisisEnd time.Time
}

// NewPersonSchedule builds a schedule. The scenario date's year must be at
// or beyond MinScenarioYear and the block list must contain exactly one
// open-ended crisis block.
func NewPersonSchedule(blocks []ActivityBlock, seed int64, scenarioDate time.Time) (*PersonSchedule, error) {
	if scenarioDate.IsZero() {
		scenarioDate = DefaultScenarioDate
	}
	if scenarioDate.Year() < MinScenarioYear {
		return nil, fmt.Errorf("scenario date year must be >= %d, got %d", MinScenarioYear, scenarioDate.Year())
	}

	var crisis *ActivityBlock
	for i := range blocks {
		if blocks[i].OpenEnded() {
			if crisis != nil {
				return nil, fmt.Errorf("schedule has more than one open-ended block")
			}
			crisis = &blocks[i]
		}
	}
	if crisis == nil {
		return nil, fmt.Errorf("schedule must contain an open-ended crisis block")
	}

	s := &PersonSchedule{
		Blocks:       blocks,
		Seed:         seed,
		ScenarioDate: scenarioDate,
		RNG:          rand.New(rand.NewSource(seed)),
		crisisBlock:  *crisis,
	}
	s.postCrisisEnd = s.toTime(crisis.Start).Add(PostCrisisHeartbeats * HeartbeatInterval)
	return s, nil
}

// CrisisStart returns the UTC time the crisis begins.
func (s *PersonSchedule) CrisisStart() time.Time {
	return s.toTime(s.crisisBlock.Start)
}

// HeartbeatTimestamps returns ISO 8601 timestamps at ~5-minute intervals
// from the first block's start through the post-crisis window end. Each
// stamp carries 0-30 seconds of seeded jitter — real wearables don't report
// on perfect 5-minute marks. The internal cursor still advances by exactly
// the heartbeat interval.
func (s *PersonSchedule) HeartbeatTimestamps() []string {
	var stamps []string
	cur := s.toTime(s.Blocks[0].Start)
	for !cur.After(s.postCrisisEnd) {
		jitter := time.Duration(s.RNG.Intn(31)) * time.Second
		stamps = append(stamps, cur.Add(jitter).Format("2006-01-02T15:04:05Z"))
		cur = cur.Add(HeartbeatInterval)
	}
	return stamps
}

// BlockAt returns the activity block covering timestamp. Blocks are walked
// in reverse so exact boundaries resolve to the block that starts there.
func (s *PersonSchedule) BlockAt(timestamp string) (ActivityBlock, error) {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return ActivityBlock{}, fmt.Errorf("parse timestamp %q: %w", timestamp, err)
	}
	offset := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second

	for i := len(s.Blocks) - 1; i >= 0; i-- {
		b := s.Blocks[i]
		if b.OpenEnded() {
			if offset >= b.Start {
				return b, nil
			}
			continue
		}
		if offset >= b.Start && offset < b.End {
			return b, nil
		}
	}
	return ActivityBlock{}, fmt.Errorf("no block covers timestamp %q", timestamp)
}

func (s *PersonSchedule) toTime(offset time.Duration) time.Time {
	return time.Date(s.ScenarioDate.Year(), s.ScenarioDate.Month(), s.ScenarioDate.Day(),
		0, 0, 0, 0, time.UTC).Add(offset)
}
