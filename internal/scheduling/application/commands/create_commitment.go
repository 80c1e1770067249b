package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CreateCommitmentCommand books a new commitment on a resource.
type CreateCommitmentCommand struct {
	ResourceID uuid.UUID
	Start      time.Time
	End        time.Time
	ActorID    uuid.UUID
}

// CreateCommitmentHandler runs the authoritative booking path: conflict check
// and persist inside one resource-scoped critical section.
type CreateCommitmentHandler struct {
	commitmentRepo domain.CommitmentRepository
	resolver       *services.ConflictResolver
	locker         *services.ResourceLocker
	policy         WindowPolicy
	outboxRepo     outbox.Repository
	uow            sharedApplication.UnitOfWork
}

// NewCreateCommitmentHandler creates a new CreateCommitmentHandler.
func NewCreateCommitmentHandler(
	commitmentRepo domain.CommitmentRepository,
	resolver *services.ConflictResolver,
	locker *services.ResourceLocker,
	policy WindowPolicy,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateCommitmentHandler {
	return &CreateCommitmentHandler{
		commitmentRepo: commitmentRepo,
		resolver:       resolver,
		locker:         locker,
		policy:         policy,
		outboxRepo:     outboxRepo,
		uow:            uow,
	}
}

// Handle executes the CreateCommitmentCommand. The conflict check and the
// write happen under the same per-resource lock and transaction, so two
// concurrent overlapping requests cannot both commit.
func (h *CreateCommitmentHandler) Handle(ctx context.Context, cmd CreateCommitmentCommand) (*domain.Commitment, error) {
	window, err := domain.NewTimeRange(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}
	if err := h.policy.Validate(window); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.locker.Lock(cmd.ResourceID)
	defer h.locker.Unlock(cmd.ResourceID)

	var commitment *domain.Commitment
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		verdict, err := h.resolver.CheckAvailability(txCtx, cmd.ResourceID, window, uuid.Nil)
		if err != nil {
			return err
		}
		if !verdict.Available {
			return &domain.ConflictError{Reasons: verdict.Reasons}
		}

		commitment = domain.NewCommitment(cmd.ResourceID, window)
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
