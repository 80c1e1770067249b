package commands

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/identity"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/google/uuid"
)

// RemoveBlockCommand permanently deletes a block. Blocks carry no audit
// requirement, so removal is a hard delete rather than a status flip.
type RemoveBlockCommand struct {
	BlockID uuid.UUID
	Actor   identity.Actor
}

// RemoveBlockHandler handles the RemoveBlockCommand.
type RemoveBlockHandler struct {
	blockRepo    domain.BlockRepository
	resourceRepo domain.ResourceRepository
	uow          sharedApplication.UnitOfWork
}

// NewRemoveBlockHandler creates a new RemoveBlockHandler.
func NewRemoveBlockHandler(
	blockRepo domain.BlockRepository,
	resourceRepo domain.ResourceRepository,
	uow sharedApplication.UnitOfWork,
) *RemoveBlockHandler {
	return &RemoveBlockHandler{
		blockRepo:    blockRepo,
		resourceRepo: resourceRepo,
		uow:          uow,
	}
}

// Handle executes the RemoveBlockCommand.
func (h *RemoveBlockHandler) Handle(ctx context.Context, cmd RemoveBlockCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		block, err := h.blockRepo.FindByID(txCtx, cmd.BlockID)
		if err != nil {
			return err
		}
		if block == nil {
			return domain.ErrBlockNotFound
		}

		resource, err := h.resourceRepo.FindByID(txCtx, block.ResourceID())
		if err != nil {
			return err
		}
		if resource == nil {
			return domain.ErrResourceNotFound
		}
		if !cmd.Actor.CanManage(resource.OwnerID()) {
			return identity.ErrPermissionDenied
		}

		return h.blockRepo.Delete(txCtx, cmd.BlockID)
	})
}
