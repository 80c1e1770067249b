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

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func mustTimeRange(t *testing.T, start, end time.Time) domain.TimeRange {
	t.Helper()

	window, err := domain.NewTimeRange(start, end)
	require.NoError(t, err)
	return window
}

func TestSQLiteBlockRepository_SaveAndFind_WholeDay(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteBlockRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	block, err := domain.NewBlock(resource.ID(), day(2025, time.March, 3), day(2025, time.March, 5), nil, "vacation")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, block))

	found, err := repo.FindByID(ctx, block.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, block.ID(), found.ID())
	assert.Equal(t, "vacation", found.Reason())
	assert.Nil(t, found.Window())
	assert.True(t, found.StartDate().Equal(day(2025, time.March, 3)))
	assert.True(t, found.EndDate().Equal(day(2025, time.March, 5)))
}

func TestSQLiteBlockRepository_SaveAndFind_PartialDay(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteBlockRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	window := mustClockRange(t, 12*60, 13*60)
	block, err := domain.NewBlock(resource.ID(), day(2025, time.March, 3), day(2025, time.March, 4), &window, "lunch hold")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, block))

	found, err := repo.FindByID(ctx, block.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.Window())
	assert.Equal(t, 12*60, found.Window().StartMinute)
	assert.Equal(t, 13*60, found.Window().EndMinute)
}

func TestSQLiteBlockRepository_FindByID_NotFound(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteBlockRepository(sqlDB)

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLiteBlockRepository_FindActiveOverlapping(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteBlockRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	inRange, err := domain.NewBlock(resource.ID(), day(2025, time.March, 3), day(2025, time.March, 4), nil, "maintenance")
	require.NoError(t, err)
	earlier, err := domain.NewBlock(resource.ID(), day(2025, time.February, 1), day(2025, time.February, 2), nil, "")
	require.NoError(t, err)
	now := time.Now()
	retired := domain.RehydrateBlock(uuid.New(), resource.ID(),
		day(2025, time.March, 3), day(2025, time.March, 4), nil, "", false, now, now)

	for _, block := range []*domain.Block{inRange, earlier, retired} {
		require.NoError(t, repo.Save(ctx, block))
	}

	window := mustTimeRange(t,
		time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 3, 11, 0, 0, 0, time.UTC),
	)
	blocks, err := repo.FindActiveOverlapping(ctx, resource.ID(), window)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, inRange.ID(), blocks[0].ID())
}

func TestSQLiteBlockRepository_Delete(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteBlockRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	block, err := domain.NewBlock(resource.ID(), day(2025, time.March, 3), day(2025, time.March, 4), nil, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, block))

	require.NoError(t, repo.Delete(ctx, block.ID()))

	found, err := repo.FindByID(ctx, block.ID())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLiteBlockRepository_Delete_NotFound(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteBlockRepository(sqlDB)

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}
