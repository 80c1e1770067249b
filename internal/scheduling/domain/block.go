package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrBlockNotFound    = errors.New("block not found")
	ErrInvalidDateRange = errors.New("block end date must be after start date")
)

// Block is an exclusion window for a resource: vacations, maintenance,
// manual holds. An active block always pre-empts booking, regardless of
// nominal availability or existing commitments. Blocks are resource-local;
// a block on one resource never affects another.
type Block struct {
	sharedDomain.BaseEntity
	resourceID uuid.UUID
	startDate  time.Time
	endDate    time.Time
	window     *ClockRange
	reason     string
	active     bool
}

// NewBlock creates an active block covering the half-open date range
// [startDate, endDate), both normalized to midnight in their own location.
// A nil window means the whole day is blocked.
func NewBlock(resourceID uuid.UUID, startDate, endDate time.Time, window *ClockRange, reason string) (*Block, error) {
	startDate = truncateToDay(startDate)
	endDate = truncateToDay(endDate)
	if !endDate.After(startDate) {
		return nil, ErrInvalidDateRange
	}
	return &Block{
		BaseEntity: sharedDomain.NewBaseEntity(),
		resourceID: resourceID,
		startDate:  startDate,
		endDate:    endDate,
		window:     window,
		reason:     reason,
		active:     true,
	}, nil
}

func (b *Block) ResourceID() uuid.UUID { return b.resourceID }
func (b *Block) StartDate() time.Time  { return b.startDate }
func (b *Block) EndDate() time.Time    { return b.endDate }
func (b *Block) Reason() string        { return b.reason }
func (b *Block) IsActive() bool        { return b.active }

// Window returns the blocked time-of-day window, or nil when the block
// covers entire days.
func (b *Block) Window() *ClockRange {
	if b.window == nil {
		return nil
	}
	w := *b.window
	return &w
}

// Covers reports whether the candidate window intersects this block: the
// dates must overlap and, when the block carries a time-of-day window, that
// window must overlap the candidate's clock range too.
func (b *Block) Covers(candidate TimeRange) bool {
	if !b.active {
		return false
	}
	dates := TimeRange{Start: b.startDate, End: b.endDate}
	if !dates.Overlaps(candidate) {
		return false
	}
	if b.window == nil {
		return true
	}
	return b.window.Overlaps(candidate.ClockRange())
}

// RehydrateBlock recreates a block from persisted state.
func RehydrateBlock(
	id uuid.UUID,
	resourceID uuid.UUID,
	startDate, endDate time.Time,
	window *ClockRange,
	reason string,
	active bool,
	createdAt, updatedAt time.Time,
) *Block {
	return &Block{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		resourceID: resourceID,
		startDate:  startDate,
		endDate:    endDate,
		window:     window,
		reason:     reason,
		active:     active,
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
