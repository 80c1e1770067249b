package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommitment(t *testing.T) {
	resourceID := uuid.New()
	window := mustRange(t, 10, 0, 10, 30)

	c := domain.NewCommitment(resourceID, window)

	assert.NotEqual(t, uuid.Nil, c.ID())
	assert.Equal(t, resourceID, c.ResourceID())
	assert.Equal(t, window, c.Window())
	assert.Equal(t, domain.StatusScheduled, c.Status())
	assert.False(t, c.ConfirmedByOwner())
	assert.False(t, c.ConfirmedByCounterpart())

	events := c.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.RoutingKeyCommitmentCreated, events[0].RoutingKey())
}

func TestCommitment_Confirm(t *testing.T) {
	c := domain.NewCommitment(uuid.New(), mustRange(t, 10, 0, 11, 0))
	c.ClearDomainEvents()

	require.NoError(t, c.Confirm(domain.PartyOwner))
	assert.Equal(t, domain.StatusScheduled, c.Status(), "one confirmation is not enough")
	assert.Empty(t, c.DomainEvents())

	require.NoError(t, c.Confirm(domain.PartyCounterpart))
	assert.Equal(t, domain.StatusConfirmed, c.Status())

	events := c.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.RoutingKeyCommitmentConfirmed, events[0].RoutingKey())
}

func TestCommitment_Confirm_UnknownParty(t *testing.T) {
	c := domain.NewCommitment(uuid.New(), mustRange(t, 10, 0, 11, 0))

	err := c.Confirm(domain.ConfirmingParty("someone"))
	assert.ErrorIs(t, err, domain.ErrUnknownParty)
}

func TestCommitment_Cancel_Idempotent(t *testing.T) {
	c := domain.NewCommitment(uuid.New(), mustRange(t, 10, 0, 11, 0))
	c.ClearDomainEvents()

	c.Cancel()
	assert.Equal(t, domain.StatusCancelled, c.Status())
	require.Len(t, c.DomainEvents(), 1)

	// Second cancel is a no-op: same state, no new event.
	c.Cancel()
	assert.Equal(t, domain.StatusCancelled, c.Status())
	assert.Len(t, c.DomainEvents(), 1)
}

func TestCommitment_Cancel_IsTerminal(t *testing.T) {
	c := domain.NewCommitment(uuid.New(), mustRange(t, 10, 0, 11, 0))
	c.Cancel()

	assert.ErrorIs(t, c.Confirm(domain.PartyOwner), domain.ErrCommitmentCancelled)
	assert.ErrorIs(t, c.Reschedule(mustRange(t, 13, 0, 14, 0), "", uuid.New()), domain.ErrCommitmentCancelled)
}

func TestCommitment_Reschedule(t *testing.T) {
	original := mustRange(t, 10, 0, 10, 30)
	moved := mustRange(t, 13, 0, 13, 30)
	changedBy := uuid.New()

	c := domain.NewCommitment(uuid.New(), original)
	require.NoError(t, c.Confirm(domain.PartyOwner))
	require.NoError(t, c.Confirm(domain.PartyCounterpart))
	require.Equal(t, domain.StatusConfirmed, c.Status())
	c.ClearDomainEvents()

	require.NoError(t, c.Reschedule(moved, "client asked to move", changedBy))

	assert.Equal(t, moved, c.Window())
	assert.Equal(t, domain.StatusRescheduled, c.Status())
	assert.False(t, c.ConfirmedByOwner(), "confirmations reset on reschedule")
	assert.False(t, c.ConfirmedByCounterpart())

	history := c.PendingHistory()
	require.Len(t, history, 1)
	assert.Equal(t, c.ID(), history[0].CommitmentID)
	assert.Equal(t, original, history[0].PreviousWindow)
	assert.Equal(t, moved, history[0].NewWindow)
	assert.Equal(t, "client asked to move", history[0].Reason)
	assert.Equal(t, changedBy, history[0].ChangedBy)
	assert.WithinDuration(t, time.Now().UTC(), history[0].ChangedAt, time.Minute)

	events := c.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.RoutingKeyCommitmentRescheduled, events[0].RoutingKey())
}

func TestCommitment_Reschedule_ThenConfirmAgain(t *testing.T) {
	c := domain.NewCommitment(uuid.New(), mustRange(t, 10, 0, 10, 30))
	require.NoError(t, c.Reschedule(mustRange(t, 13, 0, 13, 30), "", uuid.New()))
	require.Equal(t, domain.StatusRescheduled, c.Status())

	require.NoError(t, c.Confirm(domain.PartyOwner))
	require.NoError(t, c.Confirm(domain.PartyCounterpart))
	assert.Equal(t, domain.StatusConfirmed, c.Status())
}

func TestCommitment_MultipleReschedules_AccumulateHistory(t *testing.T) {
	c := domain.NewCommitment(uuid.New(), mustRange(t, 9, 0, 9, 30))

	windows := []domain.TimeRange{
		mustRange(t, 10, 0, 10, 30),
		mustRange(t, 11, 0, 11, 30),
		mustRange(t, 12, 0, 12, 30),
	}
	for _, w := range windows {
		require.NoError(t, c.Reschedule(w, "", uuid.New()))
	}

	history := c.PendingHistory()
	require.Len(t, history, len(windows))
	for i, entry := range history {
		assert.Equal(t, windows[i], entry.NewWindow)
		if i > 0 {
			assert.Equal(t, windows[i-1], entry.PreviousWindow)
		}
	}
	assert.Equal(t, windows[len(windows)-1], c.Window())
}

func TestStatus_IsActive(t *testing.T) {
	assert.True(t, domain.StatusScheduled.IsActive())
	assert.True(t, domain.StatusConfirmed.IsActive())
	assert.True(t, domain.StatusRescheduled.IsActive())
	assert.False(t, domain.StatusCancelled.IsActive())
}
