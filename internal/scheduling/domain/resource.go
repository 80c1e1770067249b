package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	// ErrResourceNotFound covers both a missing and a deactivated resource:
	// callers cannot book against either.
	ErrResourceNotFound = errors.New("resource not found or inactive")
	ErrInvalidKind      = errors.New("resource kind must be person or space")
)

// ResourceKind distinguishes schedulable entity types.
type ResourceKind string

const (
	// KindPerson is a salesperson available for vendor meetings.
	KindPerson ResourceKind = "person"
	// KindSpace is an event space available for reservations.
	KindSpace ResourceKind = "space"
)

// Valid reports whether the kind is one of the known values.
func (k ResourceKind) Valid() bool {
	return k == KindPerson || k == KindSpace
}

// Resource is a schedulable entity. Resources are administered externally;
// the scheduling engine only reads them.
type Resource struct {
	sharedDomain.BaseEntity
	name    string
	kind    ResourceKind
	ownerID uuid.UUID
	active  bool
}

// NewResource creates an active resource.
func NewResource(name string, kind ResourceKind, ownerID uuid.UUID) (*Resource, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return &Resource{
		BaseEntity: sharedDomain.NewBaseEntity(),
		name:       name,
		kind:       kind,
		ownerID:    ownerID,
		active:     true,
	}, nil
}

func (r *Resource) Name() string       { return r.name }
func (r *Resource) Kind() ResourceKind { return r.kind }
func (r *Resource) OwnerID() uuid.UUID { return r.ownerID }
func (r *Resource) IsActive() bool     { return r.active }

// Deactivate removes the resource from scheduling without deleting it.
func (r *Resource) Deactivate() {
	r.active = false
	r.Touch()
}

// Activate returns the resource to scheduling.
func (r *Resource) Activate() {
	r.active = true
	r.Touch()
}

// RehydrateResource recreates a resource from persisted state.
func RehydrateResource(
	id uuid.UUID,
	name string,
	kind ResourceKind,
	ownerID uuid.UUID,
	active bool,
	createdAt, updatedAt time.Time,
) *Resource {
	return &Resource{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:       name,
		kind:       kind,
		ownerID:    ownerID,
		active:     active,
	}
}
