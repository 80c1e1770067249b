package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/felixgeelhaar/reserva/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Invalidator drops cached availability verdicts for a resource whenever one
// of its commitments changes. Failures are logged and swallowed: a stale
// entry is bounded by its TTL and the cache is advisory only.
type Invalidator struct {
	cache  queries.AvailabilityCache
	logger *slog.Logger
}

// NewInvalidator creates a new Invalidator.
func NewInvalidator(cache queries.AvailabilityCache, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{cache: cache, logger: logger}
}

// EventTypes returns the routing keys this consumer handles.
func (i *Invalidator) EventTypes() []string {
	return []string{
		domain.RoutingKeyCommitmentCreated,
		domain.RoutingKeyCommitmentConfirmed,
		domain.RoutingKeyCommitmentRescheduled,
		domain.RoutingKeyCommitmentCancelled,
	}
}

// Handle invalidates the resource named in the event payload.
func (i *Invalidator) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload struct {
		ResourceID uuid.UUID `json:"resource_id"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		i.logger.Warn("cache invalidation payload unreadable",
			"routing_key", event.RoutingKey, "event_id", event.EventID, "error", err)
		return nil
	}
	if payload.ResourceID == uuid.Nil {
		return nil
	}

	if err := i.cache.Invalidate(ctx, payload.ResourceID); err != nil {
		i.logger.Warn("cache invalidation failed",
			"resource_id", payload.ResourceID, "error", err)
	}
	return nil
}
