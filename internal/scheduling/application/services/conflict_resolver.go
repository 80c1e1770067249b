package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ConflictResolver is the single authority on whether a candidate window can
// be booked on a resource. Every booking and rescheduling path runs through
// CheckAvailability; nothing else in the system decides availability.
type ConflictResolver struct {
	resourceRepo   domain.ResourceRepository
	ruleRepo       domain.AvailabilityRuleRepository
	blockRepo      domain.BlockRepository
	commitmentRepo domain.CommitmentRepository
	logger         *slog.Logger
}

// NewConflictResolver creates a new conflict resolver.
func NewConflictResolver(
	resourceRepo domain.ResourceRepository,
	ruleRepo domain.AvailabilityRuleRepository,
	blockRepo domain.BlockRepository,
	commitmentRepo domain.CommitmentRepository,
	logger *slog.Logger,
) *ConflictResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictResolver{
		resourceRepo:   resourceRepo,
		ruleRepo:       ruleRepo,
		blockRepo:      blockRepo,
		commitmentRepo: commitmentRepo,
		logger:         logger,
	}
}

// CheckAvailability evaluates every conflict rule against the candidate
// window and returns a verdict carrying all applicable reasons. The checks
// never short-circuit: a window outside nominal hours is still tested
// against blocks and overlapping commitments so the caller sees the full
// picture in one pass.
//
// excludeID, when not uuid.Nil, omits one commitment from the overlap check;
// a reschedule must not conflict with the commitment being moved.
func (r *ConflictResolver) CheckAvailability(
	ctx context.Context,
	resourceID uuid.UUID,
	window domain.TimeRange,
	excludeID uuid.UUID,
) (domain.Verdict, error) {
	resource, err := r.resourceRepo.FindByID(ctx, resourceID)
	if err != nil {
		return domain.Verdict{}, err
	}
	if resource == nil || !resource.IsActive() {
		return domain.Verdict{}, domain.ErrResourceNotFound
	}

	var reasons []domain.ConflictReason

	withinHours, err := r.withinNominalHours(ctx, resourceID, window)
	if err != nil {
		return domain.Verdict{}, err
	}
	if !withinHours {
		reasons = append(reasons, domain.ConflictReason{Code: domain.ConflictOutsideNominalHours})
	}

	blocked, err := r.coveredByBlock(ctx, resourceID, window)
	if err != nil {
		return domain.Verdict{}, err
	}
	if blocked {
		reasons = append(reasons, domain.ConflictReason{Code: domain.ConflictBlocked})
	}

	overlapping, err := r.commitmentRepo.FindOverlapping(ctx, resourceID, window, excludeID)
	if err != nil {
		return domain.Verdict{}, err
	}
	for _, c := range overlapping {
		id := c.ID()
		reasons = append(reasons, domain.ConflictReason{
			Code:         domain.ConflictOverlappingCommitment,
			CommitmentID: &id,
		})
	}

	if len(reasons) > 0 {
		r.logger.Debug("window rejected",
			"resource_id", resourceID,
			"start", window.Start,
			"end", window.End,
			"reasons", len(reasons),
		)
		return domain.UnavailableVerdict(reasons), nil
	}

	return domain.AvailableVerdict(), nil
}

// withinNominalHours reports whether the candidate fits the resource's
// recurring availability for its weekday. Adjacent and overlapping rule
// windows are merged first so a candidate spanning two back-to-back shifts
// still fits.
func (r *ConflictResolver) withinNominalHours(
	ctx context.Context,
	resourceID uuid.UUID,
	window domain.TimeRange,
) (bool, error) {
	rules, err := r.ruleRepo.FindActiveByResourceAndWeekday(ctx, resourceID, window.Weekday())
	if err != nil {
		return false, err
	}
	if len(rules) == 0 {
		return false, nil
	}

	candidate := window.ClockRange()
	windows := make([]domain.ClockRange, 0, len(rules))
	for _, rule := range rules {
		if rule.Admits(candidate) {
			return true, nil
		}
		windows = append(windows, rule.Window())
	}

	// No single rule admits the candidate; it may still span back-to-back
	// shifts, so test it against the merged windows.
	for _, merged := range mergeWindows(windows) {
		if merged.Contains(candidate) {
			return true, nil
		}
	}
	return false, nil
}

// coveredByBlock reports whether any active block covers the candidate.
func (r *ConflictResolver) coveredByBlock(
	ctx context.Context,
	resourceID uuid.UUID,
	window domain.TimeRange,
) (bool, error) {
	blocks, err := r.blockRepo.FindActiveOverlapping(ctx, resourceID, window)
	if err != nil {
		return false, err
	}
	for _, block := range blocks {
		if block.Covers(window) {
			return true, nil
		}
	}
	return false, nil
}

// mergeWindows coalesces overlapping and back-to-back clock ranges into
// maximal windows.
func mergeWindows(windows []domain.ClockRange) []domain.ClockRange {
	if len(windows) <= 1 {
		return windows
	}

	sorted := make([]domain.ClockRange, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartMinute < sorted[j].StartMinute
	})

	merged := []domain.ClockRange{sorted[0]}
	for _, w := range sorted[1:] {
		last := &merged[len(merged)-1]
		if w.StartMinute <= last.EndMinute {
			if w.EndMinute > last.EndMinute {
				last.EndMinute = w.EndMinute
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}
