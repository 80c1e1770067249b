// Package identity is the contract with the identity collaborator. The
// scheduling core only needs to know who is acting and whether that actor is
// an administrator; authentication itself happens upstream.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrPermissionDenied is returned when an actor may not manage a resource.
var ErrPermissionDenied = errors.New("actor may not manage this resource")

// Role is the coarse permission level of an actor.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Actor identifies who is performing an operation. The zero value is an
// anonymous member.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManage reports whether the actor may reschedule, cancel, or block on a
// resource owned by ownerID. Admins manage everything; members only their
// own resources.
func (a Actor) CanManage(ownerID uuid.UUID) bool {
	return a.IsAdmin() || a.ID == ownerID
}

type actorContextKey struct{}

// WithActor stores the current actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the current actor, or a zero-value anonymous
// member when none is set.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
