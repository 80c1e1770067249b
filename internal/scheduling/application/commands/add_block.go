package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/identity"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/google/uuid"
)

// AddBlockCommand creates an exclusion window on a resource. StartMinute and
// EndMinute are optional: both nil blocks the whole day.
type AddBlockCommand struct {
	ResourceID  uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	StartMinute *int
	EndMinute   *int
	Reason      string
	Actor       identity.Actor
}

// AddBlockHandler handles the AddBlockCommand.
type AddBlockHandler struct {
	blockRepo    domain.BlockRepository
	resourceRepo domain.ResourceRepository
	uow          sharedApplication.UnitOfWork
}

// NewAddBlockHandler creates a new AddBlockHandler.
func NewAddBlockHandler(
	blockRepo domain.BlockRepository,
	resourceRepo domain.ResourceRepository,
	uow sharedApplication.UnitOfWork,
) *AddBlockHandler {
	return &AddBlockHandler{
		blockRepo:    blockRepo,
		resourceRepo: resourceRepo,
		uow:          uow,
	}
}

// Handle executes the AddBlockCommand.
func (h *AddBlockHandler) Handle(ctx context.Context, cmd AddBlockCommand) (*domain.Block, error) {
	var window *domain.ClockRange
	if cmd.StartMinute != nil && cmd.EndMinute != nil {
		w, err := domain.NewClockRange(*cmd.StartMinute, *cmd.EndMinute)
		if err != nil {
			return nil, err
		}
		window = &w
	}

	var block *domain.Block
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		resource, err := h.resourceRepo.FindByID(txCtx, cmd.ResourceID)
		if err != nil {
			return err
		}
		if resource == nil || !resource.IsActive() {
			return domain.ErrResourceNotFound
		}
		if !cmd.Actor.CanManage(resource.OwnerID()) {
			return identity.ErrPermissionDenied
		}

		block, err = domain.NewBlock(cmd.ResourceID, cmd.StartDate, cmd.EndDate, window, cmd.Reason)
		if err != nil {
			return err
		}
		return h.blockRepo.Save(txCtx, block)
	})
	if err != nil {
		return nil, err
	}

	return block, nil
}
