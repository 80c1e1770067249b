package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ResourceRepository defines persistence for resources. Finders return
// (nil, nil) when no row matches.
type ResourceRepository interface {
	Save(ctx context.Context, resource *Resource) error
	FindByID(ctx context.Context, id uuid.UUID) (*Resource, error)

	// ListActive returns all active resources ordered by name.
	ListActive(ctx context.Context) ([]*Resource, error)
}

// AvailabilityRuleRepository defines persistence for recurring availability.
type AvailabilityRuleRepository interface {
	Save(ctx context.Context, rule *AvailabilityRule) error

	// FindActiveByResourceAndWeekday returns the active rules for one
	// resource on one weekday, ordered by start minute.
	FindActiveByResourceAndWeekday(ctx context.Context, resourceID uuid.UUID, weekday time.Weekday) ([]*AvailabilityRule, error)
}

// BlockRepository defines persistence for exclusion windows.
type BlockRepository interface {
	Save(ctx context.Context, block *Block) error
	FindByID(ctx context.Context, id uuid.UUID) (*Block, error)

	// FindActiveOverlapping returns the active blocks whose date range
	// overlaps the candidate window's dates. Time-of-day filtering is the
	// domain's job (Block.Covers).
	FindActiveOverlapping(ctx context.Context, resourceID uuid.UUID, window TimeRange) ([]*Block, error)

	// Delete permanently removes a block. Blocks carry no history
	// requirement.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CommitmentRepository defines persistence for commitments and their
// reschedule history.
type CommitmentRepository interface {
	// Save persists the commitment and appends any pending history entries
	// in the same operation.
	Save(ctx context.Context, commitment *Commitment) error

	FindByID(ctx context.Context, id uuid.UUID) (*Commitment, error)

	// FindOverlapping returns commitments for the resource in an active
	// status whose window overlaps the candidate. excludeID, when not
	// uuid.Nil, omits one commitment (a reschedule checked against itself).
	FindOverlapping(ctx context.Context, resourceID uuid.UUID, window TimeRange, excludeID uuid.UUID) ([]*Commitment, error)

	// FindByResourceAndRange returns commitments for a resource whose
	// window overlaps [from, to), all statuses included, ordered by start.
	FindByResourceAndRange(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*Commitment, error)

	// ListHistory returns a commitment's reschedule history, oldest first.
	ListHistory(ctx context.Context, commitmentID uuid.UUID) ([]HistoryEntry, error)
}
