package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/stockalloc/engine/internal/domain/shared"
)

// LoggingHandler subscribes to all domain events and writes one
// structured log line per event. Useful as an operational trace of
// stock movements alongside the persisted audit trail.
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a handler logging to the given logger
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger.Named("events")}
}

// Handle logs the event
func (h *LoggingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.logger.Info("Domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty list so the handler receives all events
func (h *LoggingHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*LoggingHandler)(nil)
