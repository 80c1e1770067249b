package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	schedulingDomain "github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// CommitmentConsumer subscribes to commitment lifecycle events and hands
// them to the notifier. A delivery error is returned to the bus so the
// message is redelivered; the commitment mutation that produced the event is
// long since committed.
type CommitmentConsumer struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewCommitmentConsumer creates a new CommitmentConsumer.
func NewCommitmentConsumer(notifier Notifier, logger *slog.Logger) *CommitmentConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitmentConsumer{notifier: notifier, logger: logger}
}

// EventTypes returns the routing keys this consumer handles.
func (c *CommitmentConsumer) EventTypes() []string {
	return []string{
		schedulingDomain.RoutingKeyCommitmentCreated,
		schedulingDomain.RoutingKeyCommitmentConfirmed,
		schedulingDomain.RoutingKeyCommitmentRescheduled,
		schedulingDomain.RoutingKeyCommitmentCancelled,
	}
}

// Handle translates the event into a notification and delivers it.
func (c *CommitmentConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	notification := Notification{
		EventID:      event.EventID,
		Event:        event.RoutingKey,
		CommitmentID: event.AggregateID,
		OccurredAt:   event.OccurredAt,
	}

	var payload struct {
		ResourceID uuid.UUID `json:"resource_id"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		c.logger.Warn("notification payload unreadable",
			"routing_key", event.RoutingKey, "event_id", event.EventID, "error", err)
	} else {
		notification.ResourceID = payload.ResourceID
	}

	return c.notifier.Notify(ctx, notification)
}
