package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

type aggregate interface {
	DomainEvents() []sharedDomain.DomainEvent
	ClearDomainEvents()
}

// enqueueEvents stamps the aggregate's pending domain events with actor
// metadata and stages them in the outbox within the current transaction.
func enqueueEvents(ctx context.Context, outboxRepo outbox.Repository, agg aggregate, actorID uuid.UUID) error {
	events := agg.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(actorID))

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	agg.ClearDomainEvents()
	return nil
}
