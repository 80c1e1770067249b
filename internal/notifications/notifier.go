// Package notifications delivers commitment lifecycle notifications to the
// external collaborator service. Delivery is downstream of the transactional
// outbox: a failed delivery never touches the commitment itself, it only
// surfaces here for retry.
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is one outbound message about a commitment.
type Notification struct {
	EventID      uuid.UUID `json:"event_id"`
	Event        string    `json:"event"`
	CommitmentID uuid.UUID `json:"commitment_id"`
	ResourceID   uuid.UUID `json:"resource_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier delivers notifications to an external endpoint.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
