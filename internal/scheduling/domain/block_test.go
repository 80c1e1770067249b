package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewBlock_InvalidDateRange(t *testing.T) {
	day := date(2025, time.March, 3)

	_, err := domain.NewBlock(uuid.New(), day, day, nil, "vacation")
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestBlock_Covers_WholeDay(t *testing.T) {
	resourceID := uuid.New()
	block, err := domain.NewBlock(resourceID, date(2025, time.March, 3), date(2025, time.March, 5), nil, "maintenance")
	require.NoError(t, err)

	inside := mustRange(t, 10, 0, 11, 0) // March 3rd
	assert.True(t, block.Covers(inside))

	after, err := domain.NewTimeRange(
		date(2025, time.March, 5).Add(9*time.Hour),
		date(2025, time.March, 5).Add(10*time.Hour),
	)
	require.NoError(t, err)
	assert.False(t, block.Covers(after), "end date is exclusive")
}

func TestBlock_Covers_TimeWindow(t *testing.T) {
	window, err := domain.NewClockRange(12*60, 14*60)
	require.NoError(t, err)

	block, err := domain.NewBlock(uuid.New(), date(2025, time.March, 3), date(2025, time.March, 4), &window, "lunch hold")
	require.NoError(t, err)

	assert.True(t, block.Covers(mustRange(t, 13, 0, 13, 30)))
	assert.False(t, block.Covers(mustRange(t, 10, 0, 11, 0)))
	assert.False(t, block.Covers(mustRange(t, 14, 0, 15, 0)), "window end is exclusive")
}

func TestBlock_Covers_InactiveBlock(t *testing.T) {
	now := time.Now()
	block := domain.RehydrateBlock(uuid.New(), uuid.New(),
		date(2025, time.March, 3), date(2025, time.March, 4), nil, "hold", false, now, now)

	assert.False(t, block.Covers(mustRange(t, 10, 0, 11, 0)))
}

func TestBlock_Window_ReturnsCopy(t *testing.T) {
	window, err := domain.NewClockRange(9*60, 10*60)
	require.NoError(t, err)

	block, err := domain.NewBlock(uuid.New(), date(2025, time.March, 3), date(2025, time.March, 4), &window, "")
	require.NoError(t, err)

	got := block.Window()
	require.NotNil(t, got)
	got.StartMinute = 0

	assert.Equal(t, 9*60, block.Window().StartMinute)
}
