package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	schedulingDomain "github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, notification Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func TestCommitmentConsumer_EventTypes(t *testing.T) {
	consumer := NewCommitmentConsumer(new(mockNotifier), nil)

	assert.ElementsMatch(t, []string{
		"scheduling.commitment.created",
		"scheduling.commitment.confirmed",
		"scheduling.commitment.rescheduled",
		"scheduling.commitment.cancelled",
	}, consumer.EventTypes())
}

func TestCommitmentConsumer_Handle(t *testing.T) {
	commitmentID := uuid.New()
	resourceID := uuid.New()
	occurredAt := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

	payload, err := json.Marshal(map[string]string{"resource_id": resourceID.String()})
	require.NoError(t, err)

	event := &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   commitmentID,
		AggregateType: schedulingDomain.AggregateType,
		RoutingKey:    schedulingDomain.RoutingKeyCommitmentRescheduled,
		OccurredAt:    occurredAt,
		Payload:       payload,
	}

	t.Run("delivers a notification built from the event", func(t *testing.T) {
		notifierMock := new(mockNotifier)
		notifierMock.On("Notify", mock.Anything, Notification{
			EventID:      event.EventID,
			Event:        schedulingDomain.RoutingKeyCommitmentRescheduled,
			CommitmentID: commitmentID,
			ResourceID:   resourceID,
			OccurredAt:   occurredAt,
		}).Return(nil)

		consumer := NewCommitmentConsumer(notifierMock, nil)
		require.NoError(t, consumer.Handle(context.Background(), event))
		notifierMock.AssertExpectations(t)
	})

	t.Run("returns delivery errors for redelivery", func(t *testing.T) {
		notifierMock := new(mockNotifier)
		notifierMock.On("Notify", mock.Anything, mock.Anything).Return(errors.New("endpoint down"))

		consumer := NewCommitmentConsumer(notifierMock, nil)
		assert.Error(t, consumer.Handle(context.Background(), event))
	})

	t.Run("delivers even when the payload is unreadable", func(t *testing.T) {
		notifierMock := new(mockNotifier)
		notifierMock.On("Notify", mock.Anything, mock.MatchedBy(func(n Notification) bool {
			return n.ResourceID == uuid.Nil && n.CommitmentID == commitmentID
		})).Return(nil)

		broken := *event
		broken.Payload = json.RawMessage(`{"resource_id": 42}`)

		consumer := NewCommitmentConsumer(notifierMock, nil)
		require.NoError(t, consumer.Handle(context.Background(), &broken))
		notifierMock.AssertExpectations(t)
	})
}
