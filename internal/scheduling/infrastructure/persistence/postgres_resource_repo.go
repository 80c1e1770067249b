package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresResourceRepository implements domain.ResourceRepository using PostgreSQL.
type PostgresResourceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresResourceRepository creates a new PostgreSQL resource repository.
func NewPostgresResourceRepository(pool *pgxpool.Pool) *PostgresResourceRepository {
	return &PostgresResourceRepository{pool: pool}
}

// resourceRow represents a database row for resources.
type resourceRow struct {
	ID        uuid.UUID
	Name      string
	Kind      string
	OwnerID   uuid.UUID
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Save upserts a resource.
func (r *PostgresResourceRepository) Save(ctx context.Context, resource *domain.Resource) error {
	query := `
		INSERT INTO resources (id, name, kind, owner_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			owner_id = EXCLUDED.owner_id,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		resource.ID(),
		resource.Name(),
		string(resource.Kind()),
		resource.OwnerID(),
		resource.IsActive(),
		resource.CreatedAt(),
		resource.UpdatedAt(),
	)
	return err
}

// FindByID retrieves a resource by its ID.
func (r *PostgresResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	query := `
		SELECT id, name, kind, owner_id, active, created_at, updated_at
		FROM resources
		WHERE id = $1
	`

	var row resourceRow
	err := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.Name,
		&row.Kind,
		&row.OwnerID,
		&row.Active,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return domain.RehydrateResource(
		row.ID,
		row.Name,
		domain.ResourceKind(row.Kind),
		row.OwnerID,
		row.Active,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

// ListActive retrieves all active resources ordered by name.
func (r *PostgresResourceRepository) ListActive(ctx context.Context) ([]*domain.Resource, error) {
	query := `
		SELECT id, name, kind, owner_id, active, created_at, updated_at
		FROM resources
		WHERE active = TRUE
		ORDER BY name
	`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []*domain.Resource
	for rows.Next() {
		var row resourceRow
		if err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.Kind,
			&row.OwnerID,
			&row.Active,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		resources = append(resources, domain.RehydrateResource(
			row.ID,
			row.Name,
			domain.ResourceKind(row.Kind),
			row.OwnerID,
			row.Active,
			row.CreatedAt,
			row.UpdatedAt,
		))
	}
	return resources, rows.Err()
}
