package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Commitment"

	RoutingKeyCommitmentCreated     = "scheduling.commitment.created"
	RoutingKeyCommitmentConfirmed   = "scheduling.commitment.confirmed"
	RoutingKeyCommitmentRescheduled = "scheduling.commitment.rescheduled"
	RoutingKeyCommitmentCancelled   = "scheduling.commitment.cancelled"
)

// CommitmentCreated is emitted when a window passes conflict resolution and
// is committed.
type CommitmentCreated struct {
	sharedDomain.BaseEvent
	CommitmentID uuid.UUID `json:"commitment_id"`
	ResourceID   uuid.UUID `json:"resource_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// NewCommitmentCreated creates a CommitmentCreated event.
func NewCommitmentCreated(c *Commitment) CommitmentCreated {
	return CommitmentCreated{
		BaseEvent:    sharedDomain.NewBaseEvent(c.ID(), AggregateType, RoutingKeyCommitmentCreated),
		CommitmentID: c.ID(),
		ResourceID:   c.ResourceID(),
		StartTime:    c.Window().Start,
		EndTime:      c.Window().End,
	}
}

// CommitmentConfirmed is emitted when both parties have confirmed.
type CommitmentConfirmed struct {
	sharedDomain.BaseEvent
	CommitmentID uuid.UUID `json:"commitment_id"`
	ResourceID   uuid.UUID `json:"resource_id"`
}

// NewCommitmentConfirmed creates a CommitmentConfirmed event.
func NewCommitmentConfirmed(c *Commitment) CommitmentConfirmed {
	return CommitmentConfirmed{
		BaseEvent:    sharedDomain.NewBaseEvent(c.ID(), AggregateType, RoutingKeyCommitmentConfirmed),
		CommitmentID: c.ID(),
		ResourceID:   c.ResourceID(),
	}
}

// CommitmentRescheduled is emitted when a commitment is moved to a new window.
type CommitmentRescheduled struct {
	sharedDomain.BaseEvent
	CommitmentID uuid.UUID `json:"commitment_id"`
	ResourceID   uuid.UUID `json:"resource_id"`
	OldStartTime time.Time `json:"old_start_time"`
	OldEndTime   time.Time `json:"old_end_time"`
	NewStartTime time.Time `json:"new_start_time"`
	NewEndTime   time.Time `json:"new_end_time"`
}

// NewCommitmentRescheduled creates a CommitmentRescheduled event.
func NewCommitmentRescheduled(c *Commitment, previous TimeRange) CommitmentRescheduled {
	return CommitmentRescheduled{
		BaseEvent:    sharedDomain.NewBaseEvent(c.ID(), AggregateType, RoutingKeyCommitmentRescheduled),
		CommitmentID: c.ID(),
		ResourceID:   c.ResourceID(),
		OldStartTime: previous.Start,
		OldEndTime:   previous.End,
		NewStartTime: c.Window().Start,
		NewEndTime:   c.Window().End,
	}
}

// CommitmentCancelled is emitted when a commitment reaches its terminal state.
type CommitmentCancelled struct {
	sharedDomain.BaseEvent
	CommitmentID uuid.UUID `json:"commitment_id"`
	ResourceID   uuid.UUID `json:"resource_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// NewCommitmentCancelled creates a CommitmentCancelled event.
func NewCommitmentCancelled(c *Commitment) CommitmentCancelled {
	return CommitmentCancelled{
		BaseEvent:    sharedDomain.NewBaseEvent(c.ID(), AggregateType, RoutingKeyCommitmentCancelled),
		CommitmentID: c.ID(),
		ResourceID:   c.ResourceID(),
		StartTime:    c.Window().Start,
		EndTime:      c.Window().End,
	}
}
