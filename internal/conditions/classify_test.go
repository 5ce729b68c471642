package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/waypoint/internal/types"
)

func snapshot(alerts ...Alert) *Snapshot { return &Snapshot{Alerts: alerts} }

func TestClassify(t *testing.T) {
	tornado := Alert{Event: "Tornado Warning", Severity: SeverityExtreme, Urgency: UrgencyImmediate, Headline: "Tornado Warning until 5PM"}
	wind := Alert{Event: "Wind Advisory", Severity: SeverityModerate, Urgency: UrgencyExpected}
	frost := Alert{Event: "Frost Advisory", Severity: SeverityMinor, Urgency: UrgencyFuture}

	tests := []struct {
		name  string
		state types.State
		snap  *Snapshot
		want  types.Category
	}{
		{"unavailable moving", types.StateMoving, nil, ""},
		{"unavailable resting", types.StateResting, nil, ""},
		{"none moving", types.StateMoving, snapshot(), types.CategoryConditionsClear},
		{"none resting", types.StateResting, snapshot(), types.CategoryConditionsClear},
		{"extreme moving", types.StateMoving, snapshot(tornado), types.CategoryConditionsAlert},
		{"extreme waiting", types.StateWaiting, snapshot(tornado), types.CategoryConditionsRoadCheck},
		{"extreme resting", types.StateResting, snapshot(tornado), types.CategoryConditionsStaySafe},
		{"moderate moving", types.StateMoving, snapshot(wind), types.CategoryConditionsRoadCheck},
		{"moderate waiting", types.StateWaiting, snapshot(wind), types.CategoryConditionsRoadCheck},
		{"moderate resting", types.StateResting, snapshot(wind), ""},
		{"minor resting", types.StateResting, snapshot(frost), types.CategoryConditionsClear},
		{"unknown severity", types.StateWaiting, snapshot(Alert{Event: "Special Statement", Severity: SeverityUnknown}), types.CategoryConditionsClear},
		{"worst alert drives", types.StateMoving, snapshot(frost, wind, tornado), types.CategoryConditionsAlert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.state, tt.snap)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Category)
			assert.True(t, got.Category.IsOverlay())
		})
	}
}

func TestClassify_AlertWording(t *testing.T) {
	p := Classify(types.StateMoving, snapshot(Alert{Event: "Blizzard Warning", Severity: SeveritySevere, Headline: "Blizzard Warning for I-80"}))
	require.NotNil(t, p)
	assert.Equal(t, "❄️ Blizzard Warning", p.Text)
	require.NotNil(t, p.SubText)
	assert.Equal(t, "Blizzard Warning for I-80", *p.SubText)

	p = Classify(types.StateWaiting, snapshot(Alert{Event: "Dense Fog Advisory", Severity: SeverityModerate}))
	require.NotNil(t, p.SubText)
	assert.Equal(t, "Dense Fog Advisory", *p.SubText)
}

func TestMostSevere(t *testing.T) {
	_, ok := MostSevere(nil)
	assert.False(t, ok)

	a := Alert{Event: "a", Severity: SeveritySevere, Urgency: UrgencyFuture}
	b := Alert{Event: "b", Severity: SeveritySevere, Urgency: UrgencyImmediate}
	c := Alert{Event: "c", Severity: SeverityModerate, Urgency: UrgencyImmediate}
	got, ok := MostSevere([]Alert{a, c, b})
	require.True(t, ok)
	assert.Equal(t, "b", got.Event)

	d := Alert{Event: "d", Severity: SeveritySevere, Urgency: UrgencyImmediate}
	got, _ = MostSevere([]Alert{b, d})
	assert.Equal(t, "b", got.Event, "ties keep the first alert")
}

func TestEmoji(t *testing.T) {
	tests := map[string]string{
		"Tornado Warning":           "🌪️",
		"Severe Thunderstorm Watch": "⛈️",
		"Winter Storm Warning":      "⚠️",
		"Blizzard Warning":          "❄️",
		"Freezing Rain Advisory":    "🧊",
		"Flash Flood Warning":       "🌊",
		"High Wind Warning":         "💨",
		"Excessive Heat Warning":    "🔥",
		"Dense Fog Advisory":        "🌫️",
		"Hurricane Warning":         "🌀",
		"Air Quality Alert":         "⚠️",
	}
	for event, want := range tests {
		assert.Equal(t, want, Emoji(event), event)
	}
}
