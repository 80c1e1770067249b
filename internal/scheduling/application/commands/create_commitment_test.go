package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockResourceRepo is a mock implementation of domain.ResourceRepository.
type mockResourceRepo struct {
	mock.Mock
}

func (m *mockResourceRepo) Save(ctx context.Context, resource *domain.Resource) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *mockResourceRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

func (m *mockResourceRepo) ListActive(ctx context.Context) ([]*domain.Resource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Resource), args.Error(1)
}

// mockRuleRepo is a mock implementation of domain.AvailabilityRuleRepository.
type mockRuleRepo struct {
	mock.Mock
}

func (m *mockRuleRepo) Save(ctx context.Context, rule *domain.AvailabilityRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *mockRuleRepo) FindActiveByResourceAndWeekday(ctx context.Context, resourceID uuid.UUID, weekday time.Weekday) ([]*domain.AvailabilityRule, error) {
	args := m.Called(ctx, resourceID, weekday)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AvailabilityRule), args.Error(1)
}

// mockBlockRepo is a mock implementation of domain.BlockRepository.
type mockBlockRepo struct {
	mock.Mock
}

func (m *mockBlockRepo) Save(ctx context.Context, block *domain.Block) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *mockBlockRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Block, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Block), args.Error(1)
}

func (m *mockBlockRepo) FindActiveOverlapping(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange) ([]*domain.Block, error) {
	args := m.Called(ctx, resourceID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Block), args.Error(1)
}

func (m *mockBlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockCommitmentRepo is a mock implementation of domain.CommitmentRepository.
type mockCommitmentRepo struct {
	mock.Mock
}

func (m *mockCommitmentRepo) Save(ctx context.Context, commitment *domain.Commitment) error {
	args := m.Called(ctx, commitment)
	return args.Error(0)
}

func (m *mockCommitmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Commitment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Commitment), args.Error(1)
}

func (m *mockCommitmentRepo) FindOverlapping(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange, excludeID uuid.UUID) ([]*domain.Commitment, error) {
	args := m.Called(ctx, resourceID, window, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Commitment), args.Error(1)
}

func (m *mockCommitmentRepo) FindByResourceAndRange(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*domain.Commitment, error) {
	args := m.Called(ctx, resourceID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Commitment), args.Error(1)
}

func (m *mockCommitmentRepo) ListHistory(ctx context.Context, commitmentID uuid.UUID) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, commitmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, errMsg, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type txKey struct{}

// commandFixture bundles the mocks every commitment handler needs.
type commandFixture struct {
	resourceRepo   *mockResourceRepo
	ruleRepo       *mockRuleRepo
	blockRepo      *mockBlockRepo
	commitmentRepo *mockCommitmentRepo
	outboxRepo     *mockOutboxRepo
	uow            *mockUnitOfWork
	resolver       *services.ConflictResolver
	locker         *services.ResourceLocker
	policy         WindowPolicy
}

func newCommandFixture() *commandFixture {
	f := &commandFixture{
		resourceRepo:   new(mockResourceRepo),
		ruleRepo:       new(mockRuleRepo),
		blockRepo:      new(mockBlockRepo),
		commitmentRepo: new(mockCommitmentRepo),
		outboxRepo:     new(mockOutboxRepo),
		uow:            new(mockUnitOfWork),
		locker:         services.NewResourceLocker(),
	}
	f.resolver = services.NewConflictResolver(f.resourceRepo, f.ruleRepo, f.blockRepo, f.commitmentRepo, nil)
	f.policy = WindowPolicy{
		GracePeriod: DefaultGracePeriod,
		now:         func() time.Time { return time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *commandFixture) expectAvailable(txCtx context.Context, resource *domain.Resource, window domain.TimeRange, excludeID uuid.UUID) {
	allDay, _ := domain.NewClockRange(0, domain.MinutesPerDay)
	rule, _ := domain.NewAvailabilityRule(resource.ID(), window.Weekday(), allDay)

	f.resourceRepo.On("FindByID", txCtx, resource.ID()).Return(resource, nil)
	f.ruleRepo.On("FindActiveByResourceAndWeekday", txCtx, resource.ID(), window.Weekday()).
		Return([]*domain.AvailabilityRule{rule}, nil)
	f.blockRepo.On("FindActiveOverlapping", txCtx, resource.ID(), window).
		Return([]*domain.Block{}, nil)
	f.commitmentRepo.On("FindOverlapping", txCtx, resource.ID(), window, excludeID).
		Return([]*domain.Commitment{}, nil)
}

func newTestResource(t *testing.T, ownerID uuid.UUID) *domain.Resource {
	t.Helper()
	resource, err := domain.NewResource("Grand Hall", domain.KindSpace, ownerID)
	require.NoError(t, err)
	return resource
}

func TestCreateCommitmentHandler_Handle(t *testing.T) {
	ownerID := uuid.New()
	// Monday 2025-03-03, after the policy's fixed clock.
	start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("books a free window", func(t *testing.T) {
		f := newCommandFixture()
		resource := newTestResource(t, ownerID)
		handler := NewCreateCommitmentHandler(f.commitmentRepo, f.resolver, f.locker, f.policy, f.outboxRepo, f.uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")
		window, err := domain.NewTimeRange(start, end)
		require.NoError(t, err)

		f.uow.On("Begin", ctx).Return(txCtx, nil)
		f.uow.On("Commit", txCtx).Return(nil)
		f.expectAvailable(txCtx, resource, window, uuid.Nil)
		f.commitmentRepo.On("Save", txCtx, mock.AnythingOfType("*domain.Commitment")).Return(nil)
		f.outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		commitment, err := handler.Handle(ctx, CreateCommitmentCommand{
			ResourceID: resource.ID(),
			Start:      start,
			End:        end,
			ActorID:    ownerID,
		})

		require.NoError(t, err)
		require.NotNil(t, commitment)
		assert.Equal(t, domain.StatusScheduled, commitment.Status())
		assert.Equal(t, window, commitment.Window())
		assert.Empty(t, commitment.DomainEvents(), "events are drained into the outbox")

		f.commitmentRepo.AssertExpectations(t)
		f.outboxRepo.AssertExpectations(t)
		f.uow.AssertExpectations(t)
	})

	t.Run("rejects a conflicting window without writing", func(t *testing.T) {
		f := newCommandFixture()
		resource := newTestResource(t, ownerID)
		handler := NewCreateCommitmentHandler(f.commitmentRepo, f.resolver, f.locker, f.policy, f.outboxRepo, f.uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")
		window, err := domain.NewTimeRange(start, end)
		require.NoError(t, err)
		existing := domain.NewCommitment(resource.ID(), window)

		allDay, _ := domain.NewClockRange(0, domain.MinutesPerDay)
		rule, _ := domain.NewAvailabilityRule(resource.ID(), time.Monday, allDay)

		f.uow.On("Begin", ctx).Return(txCtx, nil)
		f.uow.On("Rollback", txCtx).Return(nil)
		f.resourceRepo.On("FindByID", txCtx, resource.ID()).Return(resource, nil)
		f.ruleRepo.On("FindActiveByResourceAndWeekday", txCtx, resource.ID(), time.Monday).
			Return([]*domain.AvailabilityRule{rule}, nil)
		f.blockRepo.On("FindActiveOverlapping", txCtx, resource.ID(), window).
			Return([]*domain.Block{}, nil)
		f.commitmentRepo.On("FindOverlapping", txCtx, resource.ID(), window, uuid.Nil).
			Return([]*domain.Commitment{existing}, nil)

		commitment, err := handler.Handle(ctx, CreateCommitmentCommand{
			ResourceID: resource.ID(),
			Start:      start,
			End:        end,
			ActorID:    ownerID,
		})

		assert.Nil(t, commitment)
		var conflictErr *domain.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		require.Len(t, conflictErr.Reasons, 1)
		assert.Equal(t, domain.ConflictOverlappingCommitment, conflictErr.Reasons[0].Code)
		require.NotNil(t, conflictErr.Reasons[0].CommitmentID)
		assert.Equal(t, existing.ID(), *conflictErr.Reasons[0].CommitmentID)

		f.commitmentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.uow.AssertExpectations(t)
	})

	t.Run("rejects an inverted window before touching storage", func(t *testing.T) {
		f := newCommandFixture()
		handler := NewCreateCommitmentHandler(f.commitmentRepo, f.resolver, f.locker, f.policy, f.outboxRepo, f.uow)

		_, err := handler.Handle(context.Background(), CreateCommitmentCommand{
			ResourceID: uuid.New(),
			Start:      end,
			End:        start,
			ActorID:    ownerID,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("rejects a window beyond the grace period", func(t *testing.T) {
		f := newCommandFixture()
		handler := NewCreateCommitmentHandler(f.commitmentRepo, f.resolver, f.locker, f.policy, f.outboxRepo, f.uow)

		stale := time.Date(2025, time.March, 3, 7, 0, 0, 0, time.UTC)

		_, err := handler.Handle(context.Background(), CreateCommitmentCommand{
			ResourceID: uuid.New(),
			Start:      stale,
			End:        stale.Add(time.Hour),
			ActorID:    ownerID,
		})

		assert.ErrorIs(t, err, ErrWindowInPast)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("window within grace period is accepted", func(t *testing.T) {
		f := newCommandFixture()
		resource := newTestResource(t, ownerID)
		handler := NewCreateCommitmentHandler(f.commitmentRepo, f.resolver, f.locker, f.policy, f.outboxRepo, f.uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")
		recent := time.Date(2025, time.March, 3, 7, 58, 0, 0, time.UTC)
		window, err := domain.NewTimeRange(recent, recent.Add(time.Hour))
		require.NoError(t, err)

		f.uow.On("Begin", ctx).Return(txCtx, nil)
		f.uow.On("Commit", txCtx).Return(nil)
		f.expectAvailable(txCtx, resource, window, uuid.Nil)
		f.commitmentRepo.On("Save", txCtx, mock.AnythingOfType("*domain.Commitment")).Return(nil)
		f.outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		_, err = handler.Handle(ctx, CreateCommitmentCommand{
			ResourceID: resource.ID(),
			Start:      recent,
			End:        recent.Add(time.Hour),
			ActorID:    ownerID,
		})

		require.NoError(t, err)
	})

	t.Run("storage failure aborts the whole operation", func(t *testing.T) {
		f := newCommandFixture()
		resource := newTestResource(t, ownerID)
		handler := NewCreateCommitmentHandler(f.commitmentRepo, f.resolver, f.locker, f.policy, f.outboxRepo, f.uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")
		window, err := domain.NewTimeRange(start, end)
		require.NoError(t, err)
		storageErr := errors.New("write failed")

		f.uow.On("Begin", ctx).Return(txCtx, nil)
		f.uow.On("Rollback", txCtx).Return(nil)
		f.expectAvailable(txCtx, resource, window, uuid.Nil)
		f.commitmentRepo.On("Save", txCtx, mock.AnythingOfType("*domain.Commitment")).Return(storageErr)

		commitment, err := handler.Handle(ctx, CreateCommitmentCommand{
			ResourceID: resource.ID(),
			Start:      start,
			End:        end,
			ActorID:    ownerID,
		})

		assert.Nil(t, commitment)
		assert.ErrorIs(t, err, storageErr)
		f.uow.AssertExpectations(t)
	})
}
