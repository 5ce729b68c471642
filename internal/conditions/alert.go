// Package conditions classifies active hazard alerts into the overlay prompt
// and provides the alert feeds that supply them.
package conditions

import (
	"strings"
)

// Severity is the alert severity tier.
type Severity string

const (
	SeverityExtreme  Severity = "Extreme"
	SeveritySevere   Severity = "Severe"
	SeverityModerate Severity = "Moderate"
	SeverityMinor    Severity = "Minor"
	SeverityUnknown  Severity = "Unknown"
)

// Urgency is how soon an alert applies.
type Urgency string

const (
	UrgencyImmediate Urgency = "Immediate"
	UrgencyExpected  Urgency = "Expected"
	UrgencyFuture    Urgency = "Future"
	UrgencyUnknown   Urgency = "Unknown"
)

// severityRank and urgencyRank order alerts; unknown values rank 0.
var severityRank = map[Severity]int{
	SeverityExtreme:  4,
	SeveritySevere:   3,
	SeverityModerate: 2,
	SeverityMinor:    1,
}

var urgencyRank = map[Urgency]int{
	UrgencyImmediate: 3,
	UrgencyExpected:  2,
	UrgencyFuture:    1,
}

// Alert is one active hazard alert.
type Alert struct {
	Event    string   `json:"event"`
	Severity Severity `json:"severity"`
	Urgency  Urgency  `json:"urgency"`
	Headline string   `json:"headline,omitempty"`
}

// Summary is the short text shown under overlay prompts.
func (a Alert) Summary() string {
	if a.Headline != "" {
		return a.Headline
	}
	return a.Event
}

// Snapshot is the set of alerts active at a location. A nil *Snapshot means
// the feed was unavailable; an empty one means nothing is active.
type Snapshot struct {
	Alerts []Alert `json:"alerts"`
}

// MostSevere returns the highest ranked alert by severity, then urgency.
// Ties keep the earliest alert.
func MostSevere(alerts []Alert) (Alert, bool) {
	if len(alerts) == 0 {
		return Alert{}, false
	}
	best := alerts[0]
	for _, a := range alerts[1:] {
		if outranks(a, best) {
			best = a
		}
	}
	return best, true
}

func outranks(a, b Alert) bool {
	if sa, sb := severityRank[a.Severity], severityRank[b.Severity]; sa != sb {
		return sa > sb
	}
	return urgencyRank[a.Urgency] > urgencyRank[b.Urgency]
}

// emojiByKeyword is checked in order; the first keyword found in the event
// name wins.
var emojiByKeyword = []struct {
	keywords []string
	emoji    string
}{
	{[]string{"tornado"}, "🌪️"},
	{[]string{"thunder", "lightning"}, "⛈️"},
	{[]string{"snow", "blizzard"}, "❄️"},
	{[]string{"ice", "freezing"}, "🧊"},
	{[]string{"flood"}, "🌊"},
	{[]string{"wind"}, "💨"},
	{[]string{"heat"}, "🔥"},
	{[]string{"fog"}, "🌫️"},
	{[]string{"rain"}, "🌧️"},
	{[]string{"hurricane"}, "🌀"},
}

// Emoji picks an icon for an alert event name.
func Emoji(event string) string {
	lower := strings.ToLower(event)
	for _, e := range emojiByKeyword {
		for _, k := range e.keywords {
			if strings.Contains(lower, k) {
				return e.emoji
			}
		}
	}
	return "⚠️"
}
