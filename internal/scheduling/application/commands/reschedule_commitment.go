package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/identity"
	"github.com/felixgeelhaar/reserva/internal/scheduling/application/services"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// RescheduleCommitmentCommand moves a commitment to a new window.
type RescheduleCommitmentCommand struct {
	CommitmentID uuid.UUID
	NewStart     time.Time
	NewEnd       time.Time
	Reason       string
	Actor        identity.Actor
}

// RescheduleCommitmentHandler is the only path by which a commitment's
// window may change. It re-runs conflict resolution against the new window
// (excluding the commitment itself), snapshots the previous window into
// history, and commits all of it atomically; on conflict nothing is written.
type RescheduleCommitmentHandler struct {
	commitmentRepo domain.CommitmentRepository
	resourceRepo   domain.ResourceRepository
	resolver       *services.ConflictResolver
	locker         *services.ResourceLocker
	policy         WindowPolicy
	outboxRepo     outbox.Repository
	uow            sharedApplication.UnitOfWork
}

// NewRescheduleCommitmentHandler creates a new RescheduleCommitmentHandler.
func NewRescheduleCommitmentHandler(
	commitmentRepo domain.CommitmentRepository,
	resourceRepo domain.ResourceRepository,
	resolver *services.ConflictResolver,
	locker *services.ResourceLocker,
	policy WindowPolicy,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *RescheduleCommitmentHandler {
	return &RescheduleCommitmentHandler{
		commitmentRepo: commitmentRepo,
		resourceRepo:   resourceRepo,
		resolver:       resolver,
		locker:         locker,
		policy:         policy,
		outboxRepo:     outboxRepo,
		uow:            uow,
	}
}

// Handle executes the RescheduleCommitmentCommand. A missing or cancelled
// commitment reports domain.ErrCommitmentNotFound.
func (h *RescheduleCommitmentHandler) Handle(ctx context.Context, cmd RescheduleCommitmentCommand) (*domain.Commitment, error) {
	newWindow, err := domain.NewTimeRange(cmd.NewStart, cmd.NewEnd)
	if err != nil {
		return nil, err
	}
	if err := h.policy.Validate(newWindow); err != nil {
		return nil, err
	}

	// Initial read outside the critical section, only to learn the resource
	// for locking and the permission check. The authoritative read happens
	// again inside the transaction.
	existing, err := h.commitmentRepo.FindByID(ctx, cmd.CommitmentID)
	if err != nil {
		return nil, err
	}
	if existing == nil || !existing.Status().IsActive() {
		return nil, domain.ErrCommitmentNotFound
	}
	resourceID := existing.ResourceID()

	if err := h.authorize(ctx, cmd.Actor, resourceID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.locker.Lock(resourceID)
	defer h.locker.Unlock(resourceID)

	var commitment *domain.Commitment
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		commitment, err = h.commitmentRepo.FindByID(txCtx, cmd.CommitmentID)
		if err != nil {
			return err
		}
		if commitment == nil || !commitment.Status().IsActive() {
			return domain.ErrCommitmentNotFound
		}

		verdict, err := h.resolver.CheckAvailability(txCtx, resourceID, newWindow, cmd.CommitmentID)
		if err != nil {
			return err
		}
		if !verdict.Available {
			return &domain.ConflictError{Reasons: verdict.Reasons}
		}

		if err := commitment.Reschedule(newWindow, cmd.Reason, cmd.Actor.ID); err != nil {
			return err
		}
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

func (h *RescheduleCommitmentHandler) authorize(ctx context.Context, actor identity.Actor, resourceID uuid.UUID) error {
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
