package commands

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/identity"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CancelCommitmentCommand moves a commitment to its terminal state.
type CancelCommitmentCommand struct {
	CommitmentID uuid.UUID
	Actor        identity.Actor
}

// CancelCommitmentHandler handles the CancelCommitmentCommand. Cancelling an
// already cancelled commitment is an idempotent no-op: no write, no event,
// no error.
type CancelCommitmentHandler struct {
	commitmentRepo domain.CommitmentRepository
	resourceRepo   domain.ResourceRepository
	outboxRepo     outbox.Repository
	uow            sharedApplication.UnitOfWork
}

// NewCancelCommitmentHandler creates a new CancelCommitmentHandler.
func NewCancelCommitmentHandler(
	commitmentRepo domain.CommitmentRepository,
	resourceRepo domain.ResourceRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CancelCommitmentHandler {
	return &CancelCommitmentHandler{
		commitmentRepo: commitmentRepo,
		resourceRepo:   resourceRepo,
		outboxRepo:     outboxRepo,
		uow:            uow,
	}
}

// Handle executes the CancelCommitmentCommand.
func (h *CancelCommitmentHandler) Handle(ctx context.Context, cmd CancelCommitmentCommand) (*domain.Commitment, error) {
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
		if err := h.authorize(txCtx, cmd.Actor, commitment.ResourceID()); err != nil {
			return err
		}
		if commitment.Status() == domain.StatusCancelled {
			return nil
		}

		commitment.Cancel()
		if err := h.commitmentRepo.Save(txCtx, commitment); err != nil {
			return err
		}
		return enqueueEvents(txCtx, h.outboxRepo, commitment, cmd.Actor.ID)
	})
	if err != nil {
		return nil, err
	}

	return commitment, nil
}

func (h *CancelCommitmentHandler) authorize(ctx context.Context, actor identity.Actor, resourceID uuid.UUID) error {
	resource, err := h.resourceRepo.FindByID(ctx, resourceID)
	if err != nil {
		return err
	}
	if resource == nil {
		return domain.ErrResourceNotFound
	}
	if !actor.CanManage(resource.OwnerID()) {
		return identity.ErrPermissionDenied
	}
	return nil
}
