package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// GeneratorVersion stamps the manifest of every package this code produces.
const GeneratorVersion = "1.0.0"

// ModuleGenerator is the contract every data-module generator satisfies:
// given the schedule, a heartbeat, and the shared random source, produce the
// module's payload. Each implementation consumes a fixed number of draws per
// heartbeat regardless of code path, so the downstream stream survives
// branches.
type ModuleGenerator interface {
	Generate(s *PersonSchedule, heartbeatID int, timestamp string, rng *rand.Rand) (any, error)
}

// Per-heartbeat chance that a non-wearable sensor fails to report. Never
// applied inside the protected zone around the crisis.
const moduleDropChance = 0.015

// protectedZone is the number of heartbeats before the crisis where module
// drops are suppressed.
const protectedZone = 10

// Options configure a generation run.
type Options struct {
	CrisisType   string
	Tier         scenario.NoiseTier
	Seed         int64
	ScenarioDate time.Time // zero value: DefaultScenarioDate
	GeneratedAt  time.Time // zero value: time.Now
}

// Default person, contacts, and agent identity (the David scenario).
var defaultPerson = scenario.PersonProfile{
	Name:          "David Mitchell",
	Age:           34,
	Birthday:      "March 12, 1993",
	Occupation:    "Software Engineering Manager",
	HomeAddress:   "425 W 82nd St, New York, NY 10024",
	OfficeAddress: "350 5th Ave, New York, NY 10118",
}

var defaultContacts = []scenario.Contact{
	{ID: "contact-001", Name: "Sarah Mitchell", Relationship: "wife", Phone: "+1-917-482-7391"},
	{ID: "contact-002", Name: "Mom (Linda Mitchell)", Relationship: "mother", Phone: "+1-212-738-4052"},
	{ID: "contact-003", Name: "Jake Mitchell", Relationship: "brother", Phone: "+1-347-261-8843"},
	{ID: "contact-004", Name: "Dad (Robert Mitchell)", Relationship: "father", Phone: "+1-212-738-4017"},
	{ID: "contact-005", Name: "Tony Russo", Relationship: "college friend", Phone: "+1-646-319-7724"},
	{ID: "contact-006", Name: "Amanda Liu", Relationship: "college friend", Phone: "+1-917-205-6138"},
	{ID: "contact-007", Name: "Priya Kapoor", Relationship: "coworker (engineering)", Phone: "+1-646-841-2290"},
	{ID: "contact-008", Name: "Mike Chang", Relationship: "coworker (engineering)", Phone: "+1-347-592-0461"},
	{ID: "contact-009", Name: "Rachel Torres", Relationship: "manager", Phone: "+1-212-904-3178"},
	{ID: "contact-010", Name: "Kira Nakamura", Relationship: "coworker (design)", Phone: "+1-646-773-5504"},
	{ID: "contact-011", Name: "Brian O'Connor", Relationship: "neighbor", Phone: "+1-212-367-1482"},
	{ID: "contact-012", Name: "Samantha Wells", Relationship: "personal trainer", Phone: "+1-718-430-8856"},
	{ID: "contact-013", Name: "Carlos Rivera", Relationship: "barber", Phone: "+1-347-685-2019"},
	{ID: "contact-014", Name: "Dr. James Chen", Relationship: "primary care physician", Phone: "+1-212-639-4700"},
	{ID: "contact-015", Name: "Landlord (Apex Property Mgmt)", Relationship: "building management", Phone: "+1-212-502-3341"},
	{ID: "contact-016", Name: "Dan Kowalski", Relationship: "fantasy football league", Phone: "+1-718-294-7763"},
	{ID: "contact-017", Name: "Lisa Park", Relationship: "dentist office", Phone: "+1-212-861-5092"},
	{ID: "contact-018", Name: "Aunt Diane", Relationship: "aunt", Phone: "+1-516-437-2618"},
	{ID: "contact-019", Name: "Tom Brennan", Relationship: "gym buddy", Phone: "+1-917-328-4175"},
	{ID: "contact-020", Name: "Deepak Mehta", Relationship: "accountant", Phone: "+1-646-902-3387"},
}

var defaultAgent = scenario.AgentIdentity{
	Name:        "Atlas",
	Personality: "Helpful personal AI assistant",
}

// Generate produces a complete, schema-valid scenario package. Same options
// (date aside, GeneratedAt is metadata only) produce byte-identical
// heartbeats and therefore an identical content hash.
func Generate(opts Options) (*scenario.Package, error) {
	blocks, ok := Schedules[opts.CrisisType]
	if !ok {
		return nil, fmt.Errorf("unknown crisis type %q", opts.CrisisType)
	}
	if !opts.Tier.Valid() {
		return nil, fmt.Errorf("unknown tier %q", opts.Tier)
	}

	schedule, err := NewPersonSchedule(blocks, opts.Seed, opts.ScenarioDate)
	if err != nil {
		return nil, err
	}
	rng := schedule.RNG

	timestamps := schedule.HeartbeatTimestamps()

	// The crisis heartbeat is the first whose timestamp falls in the CRISIS
	// block. Computed up front so the dropout pass knows the protected zone.
	crisisID := -1
	for i, ts := range timestamps {
		block, err := schedule.BlockAt(ts)
		if err != nil {
			return nil, err
		}
		if block.Activity == CrisisActivity {
			crisisID = i
			break
		}
	}
	if crisisID < 0 {
		return nil, fmt.Errorf("no heartbeat falls inside the crisis block")
	}

	// Every generator always runs, whatever the tier: tier filtering drops
	// results at packaging time so the shared random stream is identical
	// across tiers for a given seed.
	type namedGenerator struct {
		name string
		gen  ModuleGenerator
	}
	generators := []namedGenerator{
		{scenario.ModuleWearable, NewWearableGenerator()},
		{scenario.ModuleLocation, NewLocationGenerator()},
		{scenario.ModuleWeather, NewWeatherGenerator()},
		{scenario.ModuleCalendar, NewCalendarGenerator()},
		{scenario.ModuleComms, NewCommsGenerator()},
		{scenario.ModuleFinancial, NewFinancialGenerator()},
	}

	heartbeats := make([]scenario.HeartbeatPayload, 0, len(timestamps))
	for hbID, ts := range timestamps {
		hb := scenario.HeartbeatPayload{HeartbeatID: hbID, Timestamp: ts}
		for _, ng := range generators {
			result, err := ng.gen.Generate(schedule, hbID, ts, rng)
			if err != nil {
				return nil, fmt.Errorf("module %s at heartbeat %d: %w", ng.name, hbID, err)
			}
			// Sensor dropout roll. The draw is always consumed; the drop
			// only applies well before the crisis, and never to wearable or
			// comms — a dropped comms delta would vanish forever, and each
			// scripted item must surface exactly once.
			dropRoll := rng.Float64()
			dropped := ng.name != scenario.ModuleWearable &&
				ng.name != scenario.ModuleComms &&
				dropRoll < moduleDropChance &&
				hbID < crisisID-protectedZone
			if dropped {
				continue
			}
			switch ng.name {
			case scenario.ModuleWearable:
				hb.Wearable = result.(*scenario.WearableData)
			case scenario.ModuleLocation:
				hb.Location = result.(*scenario.LocationData)
			case scenario.ModuleWeather:
				hb.Weather = result.(*scenario.WeatherData)
			case scenario.ModuleCalendar:
				hb.Calendar = result.(*scenario.CalendarData)
			case scenario.ModuleComms:
				hb.Comms = result.(*scenario.CommsData)
			case scenario.ModuleFinancial:
				hb.Financial = result.(*scenario.FinancialData)
			}
		}
		heartbeats = append(heartbeats, hb)
	}

	// Defensive enforcement pass over the crisis window, before tier
	// filtering (every module is still present here).
	if err := EnforceCrisis(heartbeats, crisisID, opts.CrisisType); err != nil {
		return nil, fmt.Errorf("crisis enforcement: %w", err)
	}

	// Tier filtering: null out modules the tier doesn't publish.
	retained := map[string]bool{}
	for _, m := range scenario.TierModules[opts.Tier] {
		retained[m] = true
	}
	for i := range heartbeats {
		hb := &heartbeats[i]
		if !retained[scenario.ModuleLocation] {
			hb.Location = nil
		}
		if !retained[scenario.ModuleWeather] {
			hb.Weather = nil
		}
		if !retained[scenario.ModuleCalendar] {
			hb.Calendar = nil
		}
		if !retained[scenario.ModuleComms] {
			hb.Comms = nil
		}
		if !retained[scenario.ModuleFinancial] {
			hb.Financial = nil
		}
	}

	contentHash, err := scenario.HashHeartbeats(heartbeats)
	if err != nil {
		return nil, err
	}

	tools, err := CollectToolDefinitions(opts.Tier)
	if err != nil {
		return nil, err
	}

	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	manifest, err := scenario.NewScenarioManifest(
		contentHash, GeneratorVersion, generatedAt.Format("2006-01-02T15:04:05Z"))
	if err != nil {
		return nil, err
	}

	pkg := &scenario.Package{
		ScenarioID:        fmt.Sprintf("%s_%s_s%d", opts.CrisisType, opts.Tier, opts.Seed),
		Version:           "1.0.0",
		Seed:              opts.Seed,
		CrisisType:        opts.CrisisType,
		NoiseTier:         opts.Tier,
		CrisisHeartbeatID: crisisID,
		Person:            defaultPerson,
		Contacts:          append([]scenario.Contact{}, defaultContacts...),
		AgentIdentity:     defaultAgent,
		Heartbeats:        heartbeats,
		ToolDefinitions:   tools,
		MemoryFiles:       GenerateMemoryFiles(),
		PersonaDocument:   GeneratePersona(defaultPerson, defaultAgent, defaultContacts),
		Manifest:          manifest,
	}
	if err := pkg.Validate(); err != nil {
		return nil, fmt.Errorf("generated package invalid: %w", err)
	}

	log.Info().
		Str("scenario_id", pkg.ScenarioID).
		Int("heartbeats", len(heartbeats)).
		Int("crisis_heartbeat_id", crisisID).
		Str("content_hash", contentHash).
		Msg("scenario generated")

	return pkg, nil
}
