package queries

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
)

// AvailabilityCache stores recent advisory verdicts. A cache miss is
// (nil, nil); cache failures are never surfaced to the caller.
type AvailabilityCache interface {
	Get(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange) (*domain.Verdict, error)
	Set(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange, verdict domain.Verdict) error
	Invalidate(ctx context.Context, resourceID uuid.UUID) error
}

// CheckAvailabilityQuery asks whether a window could be booked right now.
type CheckAvailabilityQuery struct {
	ResourceID uuid.UUID
	Start      time.Time
	End        time.Time
	ExcludeID  uuid.UUID
}

// CheckAvailabilityHandler serves the advisory availability check used for
// UI display. It runs outside the booking critical section and may serve a
// slightly stale cached verdict; only the create and reschedule paths are
// authoritative.
type CheckAvailabilityHandler struct {
	resolver *services.ConflictResolver
	cache    AvailabilityCache
	logger   *slog.Logger
}

// NewCheckAvailabilityHandler creates a new CheckAvailabilityHandler. The
// cache may be nil.
func NewCheckAvailabilityHandler(resolver *services.ConflictResolver, cache AvailabilityCache, logger *slog.Logger) *CheckAvailabilityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckAvailabilityHandler{
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}
}

// Handle executes the CheckAvailabilityQuery.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, query CheckAvailabilityQuery) (domain.Verdict, error) {
	window, err := domain.NewTimeRange(query.Start, query.End)
	if err != nil {
		return domain.Verdict{}, err
	}

	// Cached verdicts are only valid for plain checks; an exclusion changes
	// the answer.
	cacheable := h.cache != nil && query.ExcludeID == uuid.Nil

	if cacheable {
		cached, err := h.cache.Get(ctx, query.ResourceID, window)
		if err != nil {
			h.logger.Warn("availability cache read failed", "resource_id", query.ResourceID, "error", err)
		} else if cached != nil {
			return *cached, nil
		}
	}

	verdict, err := h.resolver.CheckAvailability(ctx, query.ResourceID, window, query.ExcludeID)
	if err != nil {
		return domain.Verdict{}, err
	}

	if cacheable {
		if err := h.cache.Set(ctx, query.ResourceID, window, verdict); err != nil {
			h.logger.Warn("availability cache write failed", "resource_id", query.ResourceID, "error", err)
		}
	}

	return verdict, nil
}
