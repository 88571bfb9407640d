package generator

import (
	"math/rand"
	"time"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// Scripted communications for the day. Timing is irregular with occasional
// clusters — real inboxes are bursty. Emails carry sender and subject only.
var emailEvents = []struct {
	at      time.Duration
	sender  string
	subject string
}{
	{hm(7, 3), "Priya Kapoor", "Re: PR #482 — small nit on the retry logic"},
	{hm(7, 11), "LinkedIn Notifications", "3 new connection requests this week"},
	{hm(8, 47), "Amazon Shipping", "Your order has shipped — arriving Thursday"},
	{hm(9, 14), "Mike Chang", "Re: Refactoring proposal for auth service"},
	{hm(9, 17), "HR Newsletter", "Q2 Benefits Enrollment Reminder"},
	{hm(11, 3), "Rachel Torres", "Fwd: Leadership offsite agenda — June 20"},
	{hm(12, 51), "GitHub", "[dependabot] Bump axios from 1.6.2 to 1.7.0"},
	{hm(14, 23), "Bank of America Alerts", "Your monthly statement is ready"},
	{hm(15, 8), "Kira Nakamura", "Design mockups v2 attached"},
	{hm(16, 37), "Priya Kapoor", "Re: Sprint retrospective action items"},
}

var chatEvents = []struct {
	at      time.Duration
	channel string
	sender  string
	message string
}{
	{hm(9, 2), "#engineering", "Priya Kapoor", "merged the PR from yday, will deploy after standup"},
	{hm(9, 3), "#general", "Mike Chang", "sry can't make standup today"},
	{hm(9, 5), "#engineering", "Kira Nakamura", "aight no worries"},
	{hm(11, 38), "#design-review", "Kira Nakamura", "updated mockups are in the drive, same folder as before"},
	{hm(13, 22), "#random", "Mike Chang", "https://www.youtube.com/watch?v=TiQm5Fh5NjE"},
	{hm(14, 41), "#engineering", "Priya Kapoor", "customer page on staging seems to be broken, mike can you check it out?"},
	{hm(14, 46), "#engineering", "Mike Chang", "yep on ti"},
	{hm(15, 53), "#general", "Rachel Torres", "reminder — happy hour friday at 5, no excuses🕺🕺🕺"},
	{hm(16, 28), "#engineering", "Mike Chang", "btw customer page issue is fixed! was just an issue with one of our dependencies which needed a quick version bump"},
}

var smsEvents = []struct {
	at      time.Duration
	sender  string
	message string
}{
	{hm(8, 6), "Sarah Mitchell", "dont forget i'm making slop@7 so don't be late :)"},
	{hm(12, 22), "Jake Mitchell", "new ps6 leak on beebom👀"},
	{hm(14, 58), "Tom Brennan", "https://www.youtube.com/watch?v=PrSzdTjSwIA"},
	{hm(14, 58), "Tom Brennan", "can't stop listening to this mix"},
	{hm(16, 44), "Sarah Mitchell", "i just realised"},
	{hm(16, 44), "Sarah Mitchell", "i NEED to find my nintendo ds again that shit was goated"},
}

// Missed call and voicemail times; a spam caller just after sprint planning
// leaves the one voicemail.
var missedCallTimes = []time.Duration{hm(10, 51), hm(14, 33)}
var voicemailTimes = []time.Duration{hm(10, 52)}

var notificationEvents = []struct {
	at       time.Duration
	platform string
	text     string
}{
	{hm(7, 22), "Instagram", "tom_brennan and 2 others liked your photo"},
	{hm(9, 38), "LinkedIn", "You have 3 new connection requests"},
	{hm(12, 4), "Reddit", `Trending in r/programming: "Rust vs Go — the debate that won't die"`},
	{hm(14, 16), "X", "5 new posts from people you follow"},
	{hm(16, 11), "Instagram", "sarahm_photos posted a story"},
}

// CommsGenerator produces per-heartbeat communication deltas: each scripted
// item appears in exactly the first heartbeat whose timestamp covers it and
// is absent from all others. Messages keep arriving through the crisis —
// the network has no idea.
type CommsGenerator struct {
	prev        time.Time
	hasPrev     bool
	initialized bool

	emailTimes []time.Time
	chatTimes  []time.Time
	smsTimes   []time.Time
	callTimes  []time.Time
	vmTimes    []time.Time
	notifTimes []time.Time
}

// NewCommsGenerator returns a generator; the event script is anchored to the
// scenario date on the first heartbeat.
func NewCommsGenerator() *CommsGenerator { return &CommsGenerator{} }

// Generate produces one heartbeat's deltas, consuming exactly 1 draw.
func (g *CommsGenerator) Generate(s *PersonSchedule, heartbeatID int, timestamp string, rng *rand.Rand) (any, error) {
	_ = rng.Float64()

	if !g.initialized {
		g.initOnce(s)
	}

	current, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, err
	}

	arrived := func(t time.Time) bool {
		if t.After(current) {
			return false
		}
		return !g.hasPrev || t.After(g.prev)
	}

	emails := []scenario.Email{}
	for i, t := range g.emailTimes {
		if arrived(t) {
			emails = append(emails, scenario.Email{Sender: emailEvents[i].sender, Subject: emailEvents[i].subject})
		}
	}
	chats := []scenario.ChatMessage{}
	for i, t := range g.chatTimes {
		if arrived(t) {
			chats = append(chats, scenario.ChatMessage{
				Channel: chatEvents[i].channel,
				Sender:  chatEvents[i].sender,
				Message: chatEvents[i].message,
			})
		}
	}
	texts := []scenario.SMS{}
	for i, t := range g.smsTimes {
		if arrived(t) {
			texts = append(texts, scenario.SMS{Sender: smsEvents[i].sender, Message: smsEvents[i].message})
		}
	}
	calls := 0
	for _, t := range g.callTimes {
		if arrived(t) {
			calls++
		}
	}
	voicemails := 0
	for _, t := range g.vmTimes {
		if arrived(t) {
			voicemails++
		}
	}
	notifs := []scenario.Notification{}
	for i, t := range g.notifTimes {
		if arrived(t) {
			notifs = append(notifs, scenario.Notification{
				Platform: notificationEvents[i].platform,
				Text:     notificationEvents[i].text,
			})
		}
	}

	g.prev, g.hasPrev = current, true

	return &scenario.CommsData{
		NewEmails:        emails,
		NewChatMessages:  chats,
		NewSMS:           texts,
		NewMissedCalls:   calls,
		NewVoicemails:    voicemails,
		NewNotifications: notifs,
	}, nil
}

func (g *CommsGenerator) initOnce(s *PersonSchedule) {
	for _, ev := range emailEvents {
		g.emailTimes = append(g.emailTimes, s.toTime(ev.at))
	}
	for _, ev := range chatEvents {
		g.chatTimes = append(g.chatTimes, s.toTime(ev.at))
	}
	for _, ev := range smsEvents {
		g.smsTimes = append(g.smsTimes, s.toTime(ev.at))
	}
	for _, at := range missedCallTimes {
		g.callTimes = append(g.callTimes, s.toTime(at))
	}
	for _, at := range voicemailTimes {
		g.vmTimes = append(g.vmTimes, s.toTime(at))
	}
	for _, ev := range notificationEvents {
		g.notifTimes = append(g.notifTimes, s.toTime(ev.at))
	}
	g.initialized = true
}
