package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ConflictCode identifies why a candidate window cannot be booked.
type ConflictCode string

const (
	// ConflictOutsideNominalHours means no recurring availability window
	// admits the candidate for its weekday.
	ConflictOutsideNominalHours ConflictCode = "outside_nominal_hours"
	// ConflictBlocked means an active block covers the candidate.
	ConflictBlocked ConflictCode = "blocked"
	// ConflictOverlappingCommitment means an active commitment overlaps the
	// candidate window.
	ConflictOverlappingCommitment ConflictCode = "overlapping_commitment"
)

// ConflictReason is one diagnostic from a conflict check. CommitmentID is
// set only for ConflictOverlappingCommitment and nil otherwise, so the JSON
// field is absent when it does not apply.
type ConflictReason struct {
	Code         ConflictCode `json:"code"`
	CommitmentID *uuid.UUID   `json:"commitment_id,omitempty"`
}

// Verdict is the structured result of a conflict check, carrying every
// applicable reason so callers can present a complete diagnostic.
type Verdict struct {
	Available bool             `json:"available"`
	Reasons   []ConflictReason `json:"reasons"`
}

// AvailableVerdict is the verdict with no conflicts.
func AvailableVerdict() Verdict {
	return Verdict{Available: true, Reasons: []ConflictReason{}}
}

// UnavailableVerdict builds a verdict from the collected reasons.
func UnavailableVerdict(reasons []ConflictReason) Verdict {
	return Verdict{Available: false, Reasons: reasons}
}

// ConflictError reports that a window failed conflict resolution. It carries
// the full verdict so API callers can render every reason.
type ConflictError struct {
	Reasons []ConflictReason
}

func (e *ConflictError) Error() string {
	codes := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		codes[i] = string(r.Code)
	}
	return fmt.Sprintf("scheduling conflict: %s", strings.Join(codes, ", "))
}
