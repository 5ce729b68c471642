package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/waypoint/internal/event"
	"github.com/matthewbaird/waypoint/internal/metrics"
	"github.com/matthewbaird/waypoint/internal/types"
)

type collector struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (c *collector) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.EventType
	}
	return out
}

var t0 = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

func record(state types.State, prev types.State) *types.StatusUpdate {
	rec := &types.StatusUpdate{
		ID:          "rec-00000001",
		ActorID:     "driver-1",
		State:       state,
		Coordinates: types.Coordinates{Latitude: 36.7378, Longitude: -119.7871},
		ReportedAt:  t0,
		Source:      types.SourceUser,
	}
	if prev != "" {
		rec.Previous = &types.Previous{RecordID: "rec-0", State: prev}
	}
	return rec
}

func TestBus_DeliversInOrderAndDrainsOnStop(t *testing.T) {
	bus := New(16, nil)
	c := &collector{}
	bus.Subscribe("collector", c)
	bus.Subscribe("failing", HandlerFunc(func(context.Context, event.DomainEvent) error {
		return errors.New("ignored")
	}))
	bus.Start(context.Background())

	rec := record(types.StateResting, types.StateWaiting)
	bus.Publish(context.Background(), event.NewStatusReported(rec, "calling_it_a_night", ""))
	bus.Publish(context.Background(), event.NewPromptAnswered(rec, types.SlotPrimary, types.CategoryCallingItANight, types.Answer{Value: "still_waiting", AnsweredAt: t0}))
	bus.Stop()

	assert.Equal(t, []string{event.TypeStatusReported, event.TypePromptAnswered}, c.types())
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := New(1, nil)
	c := &collector{}
	bus.Subscribe("collector", c)

	rec := record(types.StateMoving, "")
	bus.Publish(context.Background(), event.NewStatusReported(rec, "first_report", ""))
	bus.Publish(context.Background(), event.NewStatusReported(rec, "first_report", ""))

	bus.Start(context.Background())
	bus.Stop()
	assert.Len(t, c.types(), 1)
}

func TestMetricsConsumer(t *testing.T) {
	m := metrics.New()
	mc := NewMetricsConsumer(m)
	ctx := context.Background()

	rec := record(types.StateResting, types.StateWaiting)
	rec.Prompt = &types.Prompt{Category: types.CategoryCallingItANight}
	rec.Overlay = &types.Prompt{Category: types.CategoryConditionsStaySafe}
	require.NoError(t, mc.HandleEvent(ctx, event.NewStatusReported(rec, "calling_it_a_night", "")))
	require.NoError(t, mc.HandleEvent(ctx, event.NewPromptAnswered(rec, types.SlotPrimary, types.CategoryCallingItANight, types.Answer{Value: types.SkippedValue})))

	fix := record(types.StateWaiting, types.StateResting)
	corrects := rec.ID
	fix.CorrectsRecordID = &corrects
	fix.Source = types.SourceSystem
	require.NoError(t, mc.HandleEvent(ctx, event.NewStatusCorrected(fix)))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal.WithLabelValues("resting", "user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal.WithLabelValues("waiting", "system")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PromptsTotal.WithLabelValues("primary", string(types.CategoryCallingItANight))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PromptsTotal.WithLabelValues("overlay", string(types.CategoryConditionsStaySafe))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("primary", string(types.CategoryCallingItANight), "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CorrectionsTotal))
}

func TestLogConsumer(t *testing.T) {
	assert.NoError(t, NewLogConsumer(nil).HandleEvent(context.Background(), event.NewStatusReported(record(types.StateMoving, ""), "first_report", "")))
}
