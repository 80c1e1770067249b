package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrCommitmentNotFound  = errors.New("commitment not found")
	ErrCommitmentCancelled = errors.New("commitment is cancelled")
	ErrUnknownParty        = errors.New("unknown confirming party")
)

// Status is the lifecycle state of a commitment.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	// StatusCancelled is terminal. Cancelled commitments are excluded from
	// conflict checks but never deleted.
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusRescheduled, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the status counts toward conflict checks.
func (s Status) IsActive() bool {
	return s != StatusCancelled
}

// ConfirmingParty identifies which side of a commitment is confirming.
type ConfirmingParty string

const (
	// PartyOwner is the resource side: the salesperson, or the space manager.
	PartyOwner ConfirmingParty = "owner"
	// PartyCounterpart is the other side: the client being met, or the
	// client reserving the space.
	PartyCounterpart ConfirmingParty = "counterpart"
)

// Commitment is a booked, resource-bound time window: a vendor meeting or an
// event-space reservation. Its window may only change through Reschedule,
// which records an immutable history entry.
type Commitment struct {
	sharedDomain.BaseAggregateRoot
	resourceID             uuid.UUID
	window                 TimeRange
	status                 Status
	confirmedByOwner       bool
	confirmedByCounterpart bool
	pendingHistory         []HistoryEntry
}

// NewCommitment creates a commitment in the scheduled state. Conflict
// resolution must have passed before this is called; the constructor does
// not re-check.
func NewCommitment(resourceID uuid.UUID, window TimeRange) *Commitment {
	c := &Commitment{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		resourceID:        resourceID,
		window:            window,
		status:            StatusScheduled,
	}
	c.AddDomainEvent(NewCommitmentCreated(c))
	return c
}

func (c *Commitment) ResourceID() uuid.UUID { return c.resourceID }
func (c *Commitment) Window() TimeRange     { return c.window }
func (c *Commitment) Status() Status        { return c.status }

// ConfirmedByOwner reports whether the resource side has confirmed.
func (c *Commitment) ConfirmedByOwner() bool { return c.confirmedByOwner }

// ConfirmedByCounterpart reports whether the counterpart has confirmed.
func (c *Commitment) ConfirmedByCounterpart() bool { return c.confirmedByCounterpart }

// PendingHistory returns history entries recorded since the last save.
func (c *Commitment) PendingHistory() []HistoryEntry { return c.pendingHistory }

// ClearPendingHistory is called by the repository after persisting entries.
func (c *Commitment) ClearPendingHistory() { c.pendingHistory = nil }

// Confirm records one party's confirmation. When both parties have
// confirmed, the commitment transitions to confirmed.
func (c *Commitment) Confirm(party ConfirmingParty) error {
	if c.status == StatusCancelled {
		return ErrCommitmentCancelled
	}

	switch party {
	case PartyOwner:
		c.confirmedByOwner = true
	case PartyCounterpart:
		c.confirmedByCounterpart = true
	default:
		return ErrUnknownParty
	}

	if c.confirmedByOwner && c.confirmedByCounterpart && c.status != StatusConfirmed {
		c.status = StatusConfirmed
		c.AddDomainEvent(NewCommitmentConfirmed(c))
	}
	c.Touch()
	return nil
}

// Cancel moves the commitment to its terminal state. Cancelling an already
// cancelled commitment is a no-op, not an error.
func (c *Commitment) Cancel() {
	if c.status == StatusCancelled {
		return
	}
	c.status = StatusCancelled
	c.Touch()
	c.AddDomainEvent(NewCommitmentCancelled(c))
}

// Reschedule moves the commitment to a new window, snapshots the previous
// window into history, and resets both confirmation flags. The caller is
// responsible for having run conflict resolution against the new window.
func (c *Commitment) Reschedule(newWindow TimeRange, reason string, changedBy uuid.UUID) error {
	if c.status == StatusCancelled {
		return ErrCommitmentCancelled
	}

	previous := c.window
	c.pendingHistory = append(c.pendingHistory, HistoryEntry{
		CommitmentID:   c.ID(),
		PreviousWindow: previous,
		NewWindow:      newWindow,
		Reason:         reason,
		ChangedBy:      changedBy,
		ChangedAt:      time.Now().UTC(),
	})

	c.window = newWindow
	c.status = StatusRescheduled
	c.confirmedByOwner = false
	c.confirmedByCounterpart = false
	c.Touch()
	c.AddDomainEvent(NewCommitmentRescheduled(c, previous))
	return nil
}

// RehydrateCommitment recreates a commitment from persisted state.
func RehydrateCommitment(
	id uuid.UUID,
	resourceID uuid.UUID,
	window TimeRange,
	status Status,
	confirmedByOwner, confirmedByCounterpart bool,
	createdAt, updatedAt time.Time,
) *Commitment {
	return &Commitment{
		BaseAggregateRoot:      sharedDomain.RehydrateBaseAggregateRoot(sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)),
		resourceID:             resourceID,
		window:                 window,
		status:                 status,
		confirmedByOwner:       confirmedByOwner,
		confirmedByCounterpart: confirmedByCounterpart,
	}
}
