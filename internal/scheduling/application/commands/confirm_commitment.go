package commands

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ConfirmCommitmentCommand records one party's confirmation.
type ConfirmCommitmentCommand struct {
	CommitmentID uuid.UUID
	Party        domain.ConfirmingParty
	ActorID      uuid.UUID
}

// ConfirmCommitmentHandler handles the ConfirmCommitmentCommand. Either side
// of a commitment may confirm; the commitment becomes confirmed only once
// both have.
type ConfirmCommitmentHandler struct {
	commitmentRepo domain.CommitmentRepository
	outboxRepo     outbox.Repository
	uow            sharedApplication.UnitOfWork
}

// NewConfirmCommitmentHandler creates a new ConfirmCommitmentHandler.
func NewConfirmCommitmentHandler(
	commitmentRepo domain.CommitmentRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *ConfirmCommitmentHandler {
	return &ConfirmCommitmentHandler{
		commitmentRepo: commitmentRepo,
		outboxRepo:     outboxRepo,
		uow:            uow,
	}
}

// Handle executes the ConfirmCommitmentCommand.
func (h *ConfirmCommitmentHandler) Handle(ctx context.Context, cmd ConfirmCommitmentCommand) (*domain.Commitment, error) {
	var commitment *domain.Commitment

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		var err error
		commitment, err = h.commitmentRepo.FindByID(txCtx, cmd.CommitmentID)
		if err != nil {
			return err
		}
		if commitment == nil {
			return domain.ErrCommitmentNotFound
		}

		if err := commitment.Confirm(cmd.Party); err != nil {
			return err
		}
		if err := h.commitmentRepo.Save(txCtx, commitment); err != nil {
			return err
		}
		return enqueueEvents(txCtx, h.outboxRepo, commitment, cmd.ActorID)
	})
	if err != nil {
		return nil, err
	}

	return commitment, nil
}
