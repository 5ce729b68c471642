package eventbus

import (
	"context"
	"strconv"

	"github.com/matthewbaird/waypoint/internal/event"
	"github.com/matthewbaird/waypoint/internal/metrics"
	"github.com/matthewbaird/waypoint/internal/types"
)

// MetricsConsumer turns domain events into Prometheus counters.
type MetricsConsumer struct {
	m *metrics.Metrics
}

func NewMetricsConsumer(m *metrics.Metrics) *MetricsConsumer {
	return &MetricsConsumer{m: m}
}

func (c *MetricsConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	switch evt.EventType {
	case event.TypeStatusReported:
		var p event.StatusReportedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		c.m.ReportsTotal.WithLabelValues(string(p.State), string(types.SourceUser)).Inc()
		if p.PromptCategory != "" {
			c.m.PromptsTotal.WithLabelValues(string(types.SlotPrimary), string(p.PromptCategory)).Inc()
		}
		if p.OverlayCategory != "" {
			c.m.PromptsTotal.WithLabelValues(string(types.SlotOverlay), string(p.OverlayCategory)).Inc()
		}

	case event.TypePromptAnswered:
		var p event.PromptAnsweredPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		c.m.AnswersTotal.WithLabelValues(string(p.Slot), string(p.Category), strconv.FormatBool(p.Skipped)).Inc()

	case event.TypeStatusCorrected:
		var p event.StatusCorrectedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		c.m.ReportsTotal.WithLabelValues(string(p.RestoredState), string(types.SourceSystem)).Inc()
		c.m.CorrectionsTotal.Inc()
	}
	return nil
}
