package queries

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ListCommitmentHistoryQuery contains the parameters for reading a
// commitment's reschedule history.
type ListCommitmentHistoryQuery struct {
	CommitmentID uuid.UUID
}

// ListCommitmentHistoryHandler handles the ListCommitmentHistoryQuery.
type ListCommitmentHistoryHandler struct {
	commitmentRepo domain.CommitmentRepository
}

// NewListCommitmentHistoryHandler creates a new ListCommitmentHistoryHandler.
func NewListCommitmentHistoryHandler(commitmentRepo domain.CommitmentRepository) *ListCommitmentHistoryHandler {
	return &ListCommitmentHistoryHandler{commitmentRepo: commitmentRepo}
}

// Handle executes the ListCommitmentHistoryQuery, returning entries oldest
// first.
func (h *ListCommitmentHistoryHandler) Handle(ctx context.Context, query ListCommitmentHistoryQuery) ([]HistoryEntryDTO, error) {
	commitment, err := h.commitmentRepo.FindByID(ctx, query.CommitmentID)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, domain.ErrCommitmentNotFound
	}

	entries, err := h.commitmentRepo.ListHistory(ctx, query.CommitmentID)
	if err != nil {
		return nil, err
	}

	dtos := make([]HistoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, NewHistoryEntryDTO(e))
	}
	return dtos, nil
}
