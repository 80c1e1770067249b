package queries

import (
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
)

// CommitmentDTO is a data transfer object for commitments.
type CommitmentDTO struct {
	ID                     uuid.UUID `json:"id"`
	ResourceID             uuid.UUID `json:"resource_id"`
	Start                  time.Time `json:"start"`
	End                    time.Time `json:"end"`
	Status                 string    `json:"status"`
	ConfirmedByOwner       bool      `json:"confirmed_by_owner"`
	ConfirmedByCounterpart bool      `json:"confirmed_by_counterpart"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// NewCommitmentDTO maps a commitment aggregate to its DTO.
func NewCommitmentDTO(c *domain.Commitment) CommitmentDTO {
	return CommitmentDTO{
		ID:                     c.ID(),
		ResourceID:             c.ResourceID(),
		Start:                  c.Window().Start,
		End:                    c.Window().End,
		Status:                 string(c.Status()),
		ConfirmedByOwner:       c.ConfirmedByOwner(),
		ConfirmedByCounterpart: c.ConfirmedByCounterpart(),
		CreatedAt:              c.CreatedAt(),
		UpdatedAt:              c.UpdatedAt(),
	}
}

// HistoryEntryDTO is a data transfer object for reschedule history entries.
type HistoryEntryDTO struct {
	CommitmentID  uuid.UUID `json:"commitment_id"`
	PreviousStart time.Time `json:"previous_start"`
	PreviousEnd   time.Time `json:"previous_end"`
	NewStart      time.Time `json:"new_start"`
	NewEnd        time.Time `json:"new_end"`
	Reason        string    `json:"reason,omitempty"`
	ChangedBy     uuid.UUID `json:"changed_by"`
	ChangedAt     time.Time `json:"changed_at"`
}

// NewHistoryEntryDTO maps a history entry to its DTO.
func NewHistoryEntryDTO(e domain.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		CommitmentID:  e.CommitmentID,
		PreviousStart: e.PreviousWindow.Start,
		PreviousEnd:   e.PreviousWindow.End,
		NewStart:      e.NewWindow.Start,
		NewEnd:        e.NewWindow.End,
		Reason:        e.Reason,
		ChangedBy:     e.ChangedBy,
		ChangedAt:     e.ChangedAt,
	}
}
