package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteResourceRepository implements domain.ResourceRepository using SQLite.
type SQLiteResourceRepository struct {
	db *sql.DB
}

// NewSQLiteResourceRepository creates a new SQLite resource repository.
func NewSQLiteResourceRepository(db *sql.DB) *SQLiteResourceRepository {
	return &SQLiteResourceRepository{db: db}
}

// Save upserts a resource.
func (r *SQLiteResourceRepository) Save(ctx context.Context, resource *domain.Resource) error {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	_, err := execer.ExecContext(ctx, `
		INSERT INTO resources (id, name, kind, owner_id, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			owner_id = excluded.owner_id,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		resource.ID().String(),
		resource.Name(),
		string(resource.Kind()),
		resource.OwnerID().String(),
		resource.IsActive(),
		formatTime(resource.CreatedAt()),
		formatTime(resource.UpdatedAt()),
	)
	return err
}

// FindByID retrieves a resource by its ID.
func (r *SQLiteResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	row := execer.QueryRowContext(ctx, `
		SELECT id, name, kind, owner_id, active, created_at, updated_at
		FROM resources
		WHERE id = ?`,
		id.String(),
	)

	var (
		idStr, name, kind, ownerStr string
		active                      bool
		createdAtStr, updatedAtStr  string
	)
	err := row.Scan(&idStr, &name, &kind, &ownerStr, &active, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	resourceID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	ownerID, err := uuid.Parse(ownerStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(updatedAtStr)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateResource(
		resourceID,
		name,
		domain.ResourceKind(kind),
		ownerID,
		active,
		createdAt,
		updatedAt,
	), nil
}

// ListActive retrieves all active resources ordered by name.
func (r *SQLiteResourceRepository) ListActive(ctx context.Context) ([]*domain.Resource, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := execer.QueryContext(ctx, `
		SELECT id, name, kind, owner_id, active, created_at, updated_at
		FROM resources
		WHERE active = 1
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []*domain.Resource
	for rows.Next() {
		var (
			idStr, name, kind, ownerStr string
			active                      bool
			createdAtStr, updatedAtStr  string
		)
		if err := rows.Scan(&idStr, &name, &kind, &ownerStr, &active, &createdAtStr, &updatedAtStr); err != nil {
			return nil, err
		}

		resourceID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		ownerID, err := uuid.Parse(ownerStr)
		if err != nil {
			return nil, err
		}
		createdAt, err := parseTime(createdAtStr)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(updatedAtStr)
		if err != nil {
			return nil, err
		}

		resources = append(resources, domain.RehydrateResource(
			resourceID,
			name,
			domain.ResourceKind(kind),
			ownerID,
			active,
			createdAt,
			updatedAt,
		))
	}
	return resources, rows.Err()
}
