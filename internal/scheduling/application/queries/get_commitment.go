package queries

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
)

// GetCommitmentQuery contains the parameters for fetching one commitment.
type GetCommitmentQuery struct {
	CommitmentID uuid.UUID
}

// GetCommitmentHandler handles the GetCommitmentQuery.
type GetCommitmentHandler struct {
	commitmentRepo domain.CommitmentRepository
}

// NewGetCommitmentHandler creates a new GetCommitmentHandler.
func NewGetCommitmentHandler(commitmentRepo domain.CommitmentRepository) *GetCommitmentHandler {
	return &GetCommitmentHandler{commitmentRepo: commitmentRepo}
}

// Handle executes the GetCommitmentQuery.
func (h *GetCommitmentHandler) Handle(ctx context.Context, query GetCommitmentQuery) (*CommitmentDTO, error) {
	commitment, err := h.commitmentRepo.FindByID(ctx, query.CommitmentID)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, domain.ErrCommitmentNotFound
	}

	dto := NewCommitmentDTO(commitment)
	return &dto, nil
}
