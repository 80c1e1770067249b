package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

type mockAvailabilityCache struct {
	mock.Mock
}

func (m *mockAvailabilityCache) Get(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange) (*domain.Verdict, error) {
	args := m.Called(ctx, resourceID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Verdict), args.Error(1)
}

func (m *mockAvailabilityCache) Set(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange, verdict domain.Verdict) error {
	args := m.Called(ctx, resourceID, window, verdict)
	return args.Error(0)
}

func (m *mockAvailabilityCache) Invalidate(ctx context.Context, resourceID uuid.UUID) error {
	args := m.Called(ctx, resourceID)
	return args.Error(0)
}

type queryFixture struct {
	resourceRepo   *mockResourceRepo
	ruleRepo       *mockRuleRepo
	blockRepo      *mockBlockRepo
	commitmentRepo *mockCommitmentRepo
	cache          *mockAvailabilityCache
	resolver       *services.ConflictResolver
}

func newQueryFixture() *queryFixture {
	f := &queryFixture{
		resourceRepo:   new(mockResourceRepo),
		ruleRepo:       new(mockRuleRepo),
		blockRepo:      new(mockBlockRepo),
		commitmentRepo: new(mockCommitmentRepo),
		cache:          new(mockAvailabilityCache),
	}
	f.resolver = services.NewConflictResolver(f.resourceRepo, f.ruleRepo, f.blockRepo, f.commitmentRepo, nil)
	return f
}

func (f *queryFixture) expectResolverAvailable(ctx context.Context, resource *domain.Resource, window domain.TimeRange) {
	allDay, _ := domain.NewClockRange(0, domain.MinutesPerDay)
	rule, _ := domain.NewAvailabilityRule(resource.ID(), window.Weekday(), allDay)

	f.resourceRepo.On("FindByID", ctx, resource.ID()).Return(resource, nil)
	f.ruleRepo.On("FindActiveByResourceAndWeekday", ctx, resource.ID(), window.Weekday()).
		Return([]*domain.AvailabilityRule{rule}, nil)
	f.blockRepo.On("FindActiveOverlapping", ctx, resource.ID(), window).
		Return([]*domain.Block{}, nil)
	f.commitmentRepo.On("FindOverlapping", ctx, resource.ID(), window, uuid.Nil).
		Return([]*domain.Commitment{}, nil)
}

func queryResource(t *testing.T) *domain.Resource {
	t.Helper()
	resource, err := domain.NewResource("Main Stage", domain.KindSpace, uuid.New())
	require.NoError(t, err)
	return resource
}

func queryWindow(t *testing.T) domain.TimeRange {
	t.Helper()
	start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	window, err := domain.NewTimeRange(start, start.Add(time.Hour))
	require.NoError(t, err)
	return window
}

func TestCheckAvailabilityHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit short-circuits the resolver", func(t *testing.T) {
		f := newQueryFixture()
		resource := queryResource(t)
		window := queryWindow(t)
		handler := NewCheckAvailabilityHandler(f.resolver, f.cache, nil)

		cached := domain.AvailableVerdict()
		f.cache.On("Get", ctx, resource.ID(), window).Return(&cached, nil)

		verdict, err := handler.Handle(ctx, CheckAvailabilityQuery{
			ResourceID: resource.ID(),
			Start:      window.Start,
			End:        window.End,
		})

		require.NoError(t, err)
		assert.True(t, verdict.Available)
		f.resourceRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("cache miss resolves and stores", func(t *testing.T) {
		f := newQueryFixture()
		resource := queryResource(t)
		window := queryWindow(t)
		handler := NewCheckAvailabilityHandler(f.resolver, f.cache, nil)

		f.cache.On("Get", ctx, resource.ID(), window).Return(nil, nil)
		f.expectResolverAvailable(ctx, resource, window)
		f.cache.On("Set", ctx, resource.ID(), window, mock.AnythingOfType("domain.Verdict")).Return(nil)

		verdict, err := handler.Handle(ctx, CheckAvailabilityQuery{
			ResourceID: resource.ID(),
			Start:      window.Start,
			End:        window.End,
		})

		require.NoError(t, err)
		assert.True(t, verdict.Available)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache failure falls through to the resolver", func(t *testing.T) {
		f := newQueryFixture()
		resource := queryResource(t)
		window := queryWindow(t)
		handler := NewCheckAvailabilityHandler(f.resolver, f.cache, nil)

		f.cache.On("Get", ctx, resource.ID(), window).Return(nil, errors.New("redis down"))
		f.expectResolverAvailable(ctx, resource, window)
		f.cache.On("Set", ctx, resource.ID(), window, mock.AnythingOfType("domain.Verdict")).
			Return(errors.New("redis down"))

		verdict, err := handler.Handle(ctx, CheckAvailabilityQuery{
			ResourceID: resource.ID(),
			Start:      window.Start,
			End:        window.End,
		})

		require.NoError(t, err)
		assert.True(t, verdict.Available)
	})

	t.Run("exclusion bypasses the cache", func(t *testing.T) {
		f := newQueryFixture()
		resource := queryResource(t)
		window := queryWindow(t)
		handler := NewCheckAvailabilityHandler(f.resolver, f.cache, nil)
		excludeID := uuid.New()

		allDay, _ := domain.NewClockRange(0, domain.MinutesPerDay)
		rule, _ := domain.NewAvailabilityRule(resource.ID(), window.Weekday(), allDay)
		f.resourceRepo.On("FindByID", ctx, resource.ID()).Return(resource, nil)
		f.ruleRepo.On("FindActiveByResourceAndWeekday", ctx, resource.ID(), window.Weekday()).
			Return([]*domain.AvailabilityRule{rule}, nil)
		f.blockRepo.On("FindActiveOverlapping", ctx, resource.ID(), window).
			Return([]*domain.Block{}, nil)
		f.commitmentRepo.On("FindOverlapping", ctx, resource.ID(), window, excludeID).
			Return([]*domain.Commitment{}, nil)

		_, err := handler.Handle(ctx, CheckAvailabilityQuery{
			ResourceID: resource.ID(),
			Start:      window.Start,
			End:        window.End,
			ExcludeID:  excludeID,
		})

		require.NoError(t, err)
		f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nil cache is allowed", func(t *testing.T) {
		f := newQueryFixture()
		resource := queryResource(t)
		window := queryWindow(t)
		handler := NewCheckAvailabilityHandler(f.resolver, nil, nil)

		f.expectResolverAvailable(ctx, resource, window)

		verdict, err := handler.Handle(ctx, CheckAvailabilityQuery{
			ResourceID: resource.ID(),
			Start:      window.Start,
			End:        window.End,
		})

		require.NoError(t, err)
		assert.True(t, verdict.Available)
	})
}

func TestGetCommitmentHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the commitment", func(t *testing.T) {
		f := newQueryFixture()
		window := queryWindow(t)
		commitment := domain.NewCommitment(uuid.New(), window)
		handler := NewGetCommitmentHandler(f.commitmentRepo)

		f.commitmentRepo.On("FindByID", ctx, commitment.ID()).Return(commitment, nil)

		dto, err := handler.Handle(ctx, GetCommitmentQuery{CommitmentID: commitment.ID()})

		require.NoError(t, err)
		assert.Equal(t, commitment.ID(), dto.ID)
		assert.Equal(t, window.Start, dto.Start)
		assert.Equal(t, string(domain.StatusScheduled), dto.Status)
	})

	t.Run("missing commitment", func(t *testing.T) {
		f := newQueryFixture()
		handler := NewGetCommitmentHandler(f.commitmentRepo)
		id := uuid.New()

		f.commitmentRepo.On("FindByID", ctx, id).Return(nil, nil)

		_, err := handler.Handle(ctx, GetCommitmentQuery{CommitmentID: id})

		assert.ErrorIs(t, err, domain.ErrCommitmentNotFound)
	})
}

func TestListCommitmentsHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("lists commitments in range", func(t *testing.T) {
		f := newQueryFixture()
		resource := queryResource(t)
		window := queryWindow(t)
		commitment := domain.NewCommitment(resource.ID(), window)
		handler := NewListCommitmentsHandler(f.commitmentRepo, f.resourceRepo)

		from := window.Start.AddDate(0, 0, -1)
		to := window.Start.AddDate(0, 0, 1)

		f.resourceRepo.On("FindByID", ctx, resource.ID()).Return(resource, nil)
		f.commitmentRepo.On("FindByResourceAndRange", ctx, resource.ID(), from, to).
			Return([]*domain.Commitment{commitment}, nil)

		dtos, err := handler.Handle(ctx, ListCommitmentsQuery{ResourceID: resource.ID(), From: from, To: to})

		require.NoError(t, err)
		require.Len(t, dtos, 1)
		assert.Equal(t, commitment.ID(), dtos[0].ID)
	})

	t.Run("unknown resource", func(t *testing.T) {
		f := newQueryFixture()
		handler := NewListCommitmentsHandler(f.commitmentRepo, f.resourceRepo)
		resourceID := uuid.New()
		window := queryWindow(t)

		f.resourceRepo.On("FindByID", ctx, resourceID).Return(nil, nil)

		_, err := handler.Handle(ctx, ListCommitmentsQuery{
			ResourceID: resourceID,
			From:       window.Start,
			To:         window.End,
		})

		assert.ErrorIs(t, err, domain.ErrResourceNotFound)
	})

	t.Run("inverted range", func(t *testing.T) {
		f := newQueryFixture()
		handler := NewListCommitmentsHandler(f.commitmentRepo, f.resourceRepo)
		window := queryWindow(t)

		_, err := handler.Handle(ctx, ListCommitmentsQuery{
			ResourceID: uuid.New(),
			From:       window.End,
			To:         window.Start,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	})
}

func TestListCommitmentHistoryHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("returns entries oldest first", func(t *testing.T) {
		f := newQueryFixture()
		window := queryWindow(t)
		commitment := domain.NewCommitment(uuid.New(), window)
		handler := NewListCommitmentHistoryHandler(f.commitmentRepo)

		actorID := uuid.New()
		second, err := domain.NewTimeRange(window.Start.Add(2*time.Hour), window.End.Add(2*time.Hour))
		require.NoError(t, err)
		entries := []domain.HistoryEntry{
			{
				ID:             1,
				CommitmentID:   commitment.ID(),
				PreviousWindow: window,
				NewWindow:      second,
				Reason:         "venue swap",
				ChangedBy:      actorID,
				ChangedAt:      time.Now().UTC(),
			},
		}

		f.commitmentRepo.On("FindByID", ctx, commitment.ID()).Return(commitment, nil)
		f.commitmentRepo.On("ListHistory", ctx, commitment.ID()).Return(entries, nil)

		dtos, err := handler.Handle(ctx, ListCommitmentHistoryQuery{CommitmentID: commitment.ID()})

		require.NoError(t, err)
		require.Len(t, dtos, 1)
		assert.Equal(t, window.Start, dtos[0].PreviousStart)
		assert.Equal(t, second.Start, dtos[0].NewStart)
		assert.Equal(t, "venue swap", dtos[0].Reason)
	})

	t.Run("missing commitment", func(t *testing.T) {
		f := newQueryFixture()
		handler := NewListCommitmentHistoryHandler(f.commitmentRepo)
		id := uuid.New()

		f.commitmentRepo.On("FindByID", ctx, id).Return(nil, nil)

		_, err := handler.Handle(ctx, ListCommitmentHistoryQuery{CommitmentID: id})

		assert.ErrorIs(t, err, domain.ErrCommitmentNotFound)
	})
}
