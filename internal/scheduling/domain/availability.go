package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/google/uuid"
)

var ErrInvalidWeekday = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")

// AvailabilityRule declares a recurring weekday window during which a
// resource is nominally bookable. Multiple rules per weekday model split
// shifts; their windows are unioned when checking a candidate.
type AvailabilityRule struct {
	sharedDomain.BaseEntity
	resourceID uuid.UUID
	weekday    time.Weekday
	window     ClockRange
	active     bool
}

// NewAvailabilityRule creates an active recurring availability window.
func NewAvailabilityRule(resourceID uuid.UUID, weekday time.Weekday, window ClockRange) (*AvailabilityRule, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, ErrInvalidWeekday
	}
	return &AvailabilityRule{
		BaseEntity: sharedDomain.NewBaseEntity(),
		resourceID: resourceID,
		weekday:    weekday,
		window:     window,
		active:     true,
	}, nil
}

func (a *AvailabilityRule) ResourceID() uuid.UUID { return a.resourceID }
func (a *AvailabilityRule) Weekday() time.Weekday { return a.weekday }
func (a *AvailabilityRule) Window() ClockRange    { return a.window }
func (a *AvailabilityRule) IsActive() bool        { return a.active }

// Admits reports whether the candidate's time-of-day window fits entirely
// inside this rule's window. A candidate crossing midnight never fits a
// single-day rule.
func (a *AvailabilityRule) Admits(candidate ClockRange) bool {
	return a.window.Contains(candidate)
}

// RehydrateAvailabilityRule recreates a rule from persisted state.
func RehydrateAvailabilityRule(
	id uuid.UUID,
	resourceID uuid.UUID,
	weekday time.Weekday,
	window ClockRange,
	active bool,
	createdAt, updatedAt time.Time,
) *AvailabilityRule {
	return &AvailabilityRule{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		resourceID: resourceID,
		weekday:    weekday,
		window:     window,
		active:     active,
	}
}
