package eventbus

import (
	"context"
	"log/slog"

	"github.com/matthewbaird/waypoint/internal/event"
)

// LogConsumer logs all domain events for observability.
type LogConsumer struct {
	logger *slog.Logger
}

func NewLogConsumer(logger *slog.Logger) *LogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogConsumer{logger: logger}
}

func (c *LogConsumer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	c.logger.InfoContext(ctx, evt.Summary,
		"event_type", evt.EventType,
		"actor_id", evt.ActorID,
		"record_id", evt.RecordID,
		"occurred_at", evt.OccurredAt)
	return nil
}
