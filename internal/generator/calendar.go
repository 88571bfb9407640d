package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

type scriptedEvent struct {
	at        time.Duration
	title     string
	location  string
	attendees []string
}

type scriptedReminder struct {
	at   time.Duration
	text string
}

// The scripted day for an engineering manager.
var calendarEvents = []scriptedEvent{
	{hm(9, 0), "Daily Standup", "Zoom", []string{"Priya Kapoor", "Mike Chang", "Kira Nakamura"}},
	{hm(10, 0), "Sprint Planning", "Conf Room B", []string{"Priya Kapoor", "Mike Chang", "Rachel Torres"}},
	{hm(11, 30), "1:1 with Rachel", "Rachel's Office", []string{"Rachel Torres"}},
	{hm(12, 30), "Lunch with Tom", "Koreatown", []string{"Tom Brennan"}},
	{hm(14, 0), "Design Review", "Zoom", []string{"Kira Nakamura", "Priya Kapoor"}},
	{hm(15, 30), "Team Sync", "Conf Room A", []string{"Priya Kapoor", "Mike Chang"}},
	{hm(17, 30), "Gym", "Home", nil},
	{hm(19, 0), "Dinner with Sarah", "Home", []string{"Sarah Mitchell"}},
}

var calendarReminders = []scriptedReminder{
	{hm(8, 0), "Review PR from Priya"},
	{hm(12, 0), "Take vitamins"},
	{hm(17, 0), "Pick up dry cleaning"},
}

var socialKeywords = []string{"lunch", "dinner", "gym", "coffee", "drinks"}

// CalendarGenerator produces calendar data for each heartbeat: a sliding
// window of the next three upcoming events, still-pending reminders, and a
// static day summary built once. The calendar keeps sliding through the
// crisis — events still pass.
type CalendarGenerator struct {
	events     []scenario.CalendarEvent
	eventTimes []time.Time
	reminders  []scenario.Reminder
	remTimes   []time.Time
	summary    string
}

// NewCalendarGenerator returns a generator; event lists are anchored to the
// scenario date on the first heartbeat.
func NewCalendarGenerator() *CalendarGenerator { return &CalendarGenerator{} }

// Generate produces one heartbeat's calendar view, consuming exactly 1 draw
// (the calendar is scripted; the draw keeps the shared stream aligned).
func (g *CalendarGenerator) Generate(s *PersonSchedule, heartbeatID int, timestamp string, rng *rand.Rand) (any, error) {
	_ = rng.Float64()

	if g.events == nil {
		g.initOnce(s)
	}

	current, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, err
	}

	next3 := []scenario.CalendarEvent{}
	for i, ev := range g.events {
		if g.eventTimes[i].After(current) {
			next3 = append(next3, ev)
			if len(next3) == 3 {
				break
			}
		}
	}

	active := []scenario.Reminder{}
	for i, rem := range g.reminders {
		if g.remTimes[i].After(current) {
			active = append(active, rem)
		}
	}

	return &scenario.CalendarData{
		Next3Events:  next3,
		Reminders:    active,
		TodaySummary: g.summary,
	}, nil
}

func (g *CalendarGenerator) initOnce(s *PersonSchedule) {
	for _, ev := range calendarEvents {
		at := s.toTime(ev.at)
		attendees := ev.attendees
		if attendees == nil {
			attendees = []string{}
		}
		g.events = append(g.events, scenario.CalendarEvent{
			Title:     ev.title,
			Time:      at.Format("2006-01-02T15:04:05Z"),
			Location:  ev.location,
			Attendees: attendees,
		})
		g.eventTimes = append(g.eventTimes, at)
	}
	for _, rem := range calendarReminders {
		at := s.toTime(rem.at)
		g.reminders = append(g.reminders, scenario.Reminder{
			Text: rem.text,
			Time: at.Format("2006-01-02T15:04:05Z"),
		})
		g.remTimes = append(g.remTimes, at)
	}
	g.summary = buildTodaySummary(calendarEvents)
}

// buildTodaySummary renders a short natural-language digest of the day:
// meeting and solo-block counts plus any social items called out by time.
func buildTodaySummary(events []scriptedEvent) string {
	highlighted := map[int]bool{}
	var notable []string
	for i, ev := range events {
		lower := strings.ToLower(ev.title)
		for _, kw := range socialKeywords {
			if strings.Contains(lower, kw) {
				highlighted[i] = true
				notable = append(notable, fmt.Sprintf("%s at %s", lower, casualTime(ev.at)))
				break
			}
		}
	}

	meetings, solo := 0, 0
	for i, ev := range events {
		if highlighted[i] {
			continue
		}
		if len(ev.attendees) > 0 {
			meetings++
		} else {
			solo++
		}
	}

	var parts []string
	if meetings > 0 {
		parts = append(parts, fmt.Sprintf("%d meetings", meetings))
	}
	if solo == 1 {
		parts = append(parts, "1 block")
	} else if solo > 1 {
		parts = append(parts, fmt.Sprintf("%d blocks", solo))
	}
	parts = append(parts, notable...)
	return strings.Join(parts, ", ")
}

// casualTime renders "14:30" as "2:30pm" and noon as "noon".
func casualTime(at time.Duration) string {
	hour := int(at.Hours())
	minute := int(at.Minutes()) % 60
	if hour == 12 && minute == 0 {
		return "noon"
	}
	suffix := "pm"
	if hour < 12 {
		suffix = "am"
	}
	display := hour
	if display > 12 {
		display -= 12
	}
	if display == 0 {
		display = 12
	}
	if minute != 0 {
		return fmt.Sprintf("%d:%02d%s", display, minute, suffix)
	}
	return fmt.Sprintf("%d%s", display, suffix)
}
