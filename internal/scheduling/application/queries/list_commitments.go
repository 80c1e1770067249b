package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ListCommitmentsQuery contains the parameters for listing commitments on a
// resource within a date range. All statuses are included so cancelled
// commitments remain visible for audit.
type ListCommitmentsQuery struct {
	ResourceID uuid.UUID
	From       time.Time
	To         time.Time
}

// ListCommitmentsHandler handles the ListCommitmentsQuery.
type ListCommitmentsHandler struct {
	commitmentRepo domain.CommitmentRepository
	resourceRepo   domain.ResourceRepository
}

// NewListCommitmentsHandler creates a new ListCommitmentsHandler.
func NewListCommitmentsHandler(commitmentRepo domain.CommitmentRepository, resourceRepo domain.ResourceRepository) *ListCommitmentsHandler {
	return &ListCommitmentsHandler{
		commitmentRepo: commitmentRepo,
		resourceRepo:   resourceRepo,
	}
}

// Handle executes the ListCommitmentsQuery.
func (h *ListCommitmentsHandler) Handle(ctx context.Context, query ListCommitmentsQuery) ([]CommitmentDTO, error) {
	if _, err := domain.NewTimeRange(query.From, query.To); err != nil {
		return nil, err
	}

	resource, err := h.resourceRepo.FindByID(ctx, query.ResourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, domain.ErrResourceNotFound
	}

	commitments, err := h.commitmentRepo.FindByResourceAndRange(ctx, query.ResourceID, query.From, query.To)
	if err != nil {
		return nil, err
	}

	dtos := make([]CommitmentDTO, 0, len(commitments))
	for _, c := range commitments {
		dtos = append(dtos, NewCommitmentDTO(c))
	}
	return dtos, nil
}
