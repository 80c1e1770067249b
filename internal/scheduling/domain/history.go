package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry captures one reschedule of a commitment for auditing.
// Entries are append-only: they are never mutated or deleted.
type HistoryEntry struct {
	ID             int64
	CommitmentID   uuid.UUID
	PreviousWindow TimeRange
	NewWindow      TimeRange
	Reason         string
	ChangedBy      uuid.UUID
	ChangedAt      time.Time
}
