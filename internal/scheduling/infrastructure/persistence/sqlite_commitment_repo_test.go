package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitmentWindow builds an hour range on Monday 2025-03-03.
func commitmentWindow(t *testing.T, startHour, endHour int) domain.TimeRange {
	t.Helper()

	return mustTimeRange(t,
		time.Date(2025, time.March, 3, startHour, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 3, endHour, 0, 0, 0, time.UTC),
	)
}

func TestSQLiteCommitmentRepository_SaveAndFind(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	commitment := domain.NewCommitment(resource.ID(), commitmentWindow(t, 10, 11))
	require.NoError(t, repo.Save(ctx, commitment))

	found, err := repo.FindByID(ctx, commitment.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, commitment.ID(), found.ID())
	assert.Equal(t, resource.ID(), found.ResourceID())
	assert.Equal(t, domain.StatusScheduled, found.Status())
	assert.True(t, found.Window().Start.Equal(commitment.Window().Start))
	assert.True(t, found.Window().End.Equal(commitment.Window().End))
	assert.False(t, found.ConfirmedByOwner())
	assert.False(t, found.ConfirmedByCounterpart())
}

func TestSQLiteCommitmentRepository_Save_UpdatesStatus(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	commitment := domain.NewCommitment(resource.ID(), commitmentWindow(t, 10, 11))
	require.NoError(t, repo.Save(ctx, commitment))

	require.NoError(t, commitment.Confirm(domain.PartyOwner))
	require.NoError(t, commitment.Confirm(domain.PartyCounterpart))
	require.NoError(t, repo.Save(ctx, commitment))

	found, err := repo.FindByID(ctx, commitment.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.StatusConfirmed, found.Status())
	assert.True(t, found.ConfirmedByOwner())
	assert.True(t, found.ConfirmedByCounterpart())
}

func TestSQLiteCommitmentRepository_FindByID_NotFound(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLiteCommitmentRepository_FindOverlapping(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	overlapping := domain.NewCommitment(resource.ID(), commitmentWindow(t, 10, 11))
	backToBack := domain.NewCommitment(resource.ID(), commitmentWindow(t, 11, 12))
	cancelled := domain.NewCommitment(resource.ID(), commitmentWindow(t, 10, 11))
	cancelled.Cancel()

	for _, c := range []*domain.Commitment{overlapping, backToBack, cancelled} {
		require.NoError(t, repo.Save(ctx, c))
	}

	t.Run("overlap detected, cancelled ignored", func(t *testing.T) {
		found, err := repo.FindOverlapping(ctx, resource.ID(), commitmentWindow(t, 10, 11), uuid.Nil)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, overlapping.ID(), found[0].ID())
	})

	t.Run("shared boundary does not overlap", func(t *testing.T) {
		window := mustTimeRange(t,
			time.Date(2025, time.March, 3, 11, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 3, 11, 30, 0, 0, time.UTC),
		)
		found, err := repo.FindOverlapping(ctx, resource.ID(), window, uuid.Nil)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, backToBack.ID(), found[0].ID())
	})

	t.Run("exclusion omits the named commitment", func(t *testing.T) {
		found, err := repo.FindOverlapping(ctx, resource.ID(), commitmentWindow(t, 10, 11), overlapping.ID())
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestSQLiteCommitmentRepository_FindOverlapping_SubSecondBoundary(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	existing := domain.NewCommitment(resource.ID(), commitmentWindow(t, 10, 11))
	require.NoError(t, repo.Save(ctx, existing))

	// Candidate ends 500ms into the existing window. Whole-second and
	// sub-second timestamps must compare correctly in the stored form.
	window := mustTimeRange(t,
		time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC),
		time.Date(2025, time.March, 3, 10, 0, 0, 500_000_000, time.UTC),
	)
	require.True(t, window.Overlaps(existing.Window()))

	found, err := repo.FindOverlapping(ctx, resource.ID(), window, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, existing.ID(), found[0].ID())

	// The mirror case: a stored sub-second start queried with whole seconds.
	subSecond := domain.NewCommitment(resource.ID(), mustTimeRange(t,
		time.Date(2025, time.March, 3, 13, 0, 0, 250_000_000, time.UTC),
		time.Date(2025, time.March, 3, 14, 0, 0, 0, time.UTC),
	))
	require.NoError(t, repo.Save(ctx, subSecond))

	afternoon := mustTimeRange(t,
		time.Date(2025, time.March, 3, 13, 30, 0, 0, time.UTC),
		time.Date(2025, time.March, 3, 15, 0, 0, 0, time.UTC),
	)
	found, err = repo.FindOverlapping(ctx, resource.ID(), afternoon, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, subSecond.ID(), found[0].ID())
}

func TestSQLiteCommitmentRepository_FindByResourceAndRange(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	late := domain.NewCommitment(resource.ID(), commitmentWindow(t, 14, 15))
	early := domain.NewCommitment(resource.ID(), commitmentWindow(t, 9, 10))
	cancelled := domain.NewCommitment(resource.ID(), commitmentWindow(t, 11, 12))
	cancelled.Cancel()

	for _, c := range []*domain.Commitment{late, early, cancelled} {
		require.NoError(t, repo.Save(ctx, c))
	}

	from := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	found, err := repo.FindByResourceAndRange(ctx, resource.ID(), from, to)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, early.ID(), found[0].ID())
	assert.Equal(t, cancelled.ID(), found[1].ID())
	assert.Equal(t, late.ID(), found[2].ID())
}

func TestSQLiteCommitmentRepository_History(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)
	changedBy := uuid.New()

	commitment := domain.NewCommitment(resource.ID(), commitmentWindow(t, 10, 11))
	require.NoError(t, repo.Save(ctx, commitment))

	first := commitmentWindow(t, 13, 14)
	require.NoError(t, commitment.Reschedule(first, "client pushed back", changedBy))
	require.NoError(t, repo.Save(ctx, commitment))
	assert.Empty(t, commitment.PendingHistory(), "save drains pending history")

	second := commitmentWindow(t, 15, 16)
	require.NoError(t, commitment.Reschedule(second, "", changedBy))
	require.NoError(t, repo.Save(ctx, commitment))

	entries, err := repo.ListHistory(ctx, commitment.ID())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, commitment.ID(), entries[0].CommitmentID)
	assert.True(t, entries[0].PreviousWindow.Start.Equal(commitmentWindow(t, 10, 11).Start))
	assert.True(t, entries[0].NewWindow.Start.Equal(first.Start))
	assert.Equal(t, "client pushed back", entries[0].Reason)
	assert.Equal(t, changedBy, entries[0].ChangedBy)

	assert.True(t, entries[1].PreviousWindow.Start.Equal(first.Start))
	assert.True(t, entries[1].NewWindow.Start.Equal(second.Start))
	assert.Equal(t, "", entries[1].Reason)

	// Chain property: each entry's previous window is the prior entry's new
	// window.
	assert.True(t, entries[1].PreviousWindow.Start.Equal(entries[0].NewWindow.Start))
	assert.True(t, entries[1].PreviousWindow.End.Equal(entries[0].NewWindow.End))
}

func TestSQLiteCommitmentRepository_Save_IsIdempotentOnHistory(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteCommitmentRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	commitment := domain.NewCommitment(resource.ID(), commitmentWindow(t, 10, 11))
	require.NoError(t, repo.Save(ctx, commitment))

	require.NoError(t, commitment.Reschedule(commitmentWindow(t, 13, 14), "", uuid.New()))
	require.NoError(t, repo.Save(ctx, commitment))
	require.NoError(t, repo.Save(ctx, commitment))

	entries, err := repo.ListHistory(ctx, commitment.ID())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
