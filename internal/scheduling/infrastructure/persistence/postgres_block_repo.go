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

// PostgresBlockRepository implements domain.BlockRepository using PostgreSQL.
type PostgresBlockRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBlockRepository creates a new PostgreSQL block repository.
func NewPostgresBlockRepository(pool *pgxpool.Pool) *PostgresBlockRepository {
	return &PostgresBlockRepository{pool: pool}
}

// blockRow represents a database row for blocks.
type blockRow struct {
	ID          uuid.UUID
	ResourceID  uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	StartMinute *int
	EndMinute   *int
	Reason      string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (row blockRow) toDomain() *domain.Block {
	var window *domain.ClockRange
	if row.StartMinute != nil && row.EndMinute != nil {
		window = &domain.ClockRange{StartMinute: *row.StartMinute, EndMinute: *row.EndMinute}
	}
	return domain.RehydrateBlock(
		row.ID,
		row.ResourceID,
		row.StartDate,
		row.EndDate,
		window,
		row.Reason,
		row.Active,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

// Save upserts a block.
func (r *PostgresBlockRepository) Save(ctx context.Context, block *domain.Block) error {
	var startMinute, endMinute *int
	if w := block.Window(); w != nil {
		startMinute = &w.StartMinute
		endMinute = &w.EndMinute
	}

	query := `
		INSERT INTO blocks (id, resource_id, start_date, end_date, start_minute, end_minute, reason, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			reason = EXCLUDED.reason,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		block.ID(),
		block.ResourceID(),
		block.StartDate(),
		block.EndDate(),
		startMinute,
		endMinute,
		block.Reason(),
		block.IsActive(),
		block.CreatedAt(),
		block.UpdatedAt(),
	)
	return err
}

// FindByID retrieves a block by its ID.
func (r *PostgresBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Block, error) {
	query := `
		SELECT id, resource_id, start_date, end_date, start_minute, end_minute, reason, active, created_at, updated_at
		FROM blocks
		WHERE id = $1
	`

	var row blockRow
	err := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.ResourceID,
		&row.StartDate,
		&row.EndDate,
		&row.StartMinute,
		&row.EndMinute,
		&row.Reason,
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

	return row.toDomain(), nil
}

// FindActiveOverlapping returns the active blocks whose date range overlaps
// the candidate window's dates.
func (r *PostgresBlockRepository) FindActiveOverlapping(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange) ([]*domain.Block, error) {
	query := `
		SELECT id, resource_id, start_date, end_date, start_minute, end_minute, reason, active, created_at, updated_at
		FROM blocks
		WHERE resource_id = $1 AND active AND start_date < $3 AND $2 < end_date
		ORDER BY start_date
	`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, resourceID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.Block, 0)
	for rows.Next() {
		var row blockRow
		if err := rows.Scan(
			&row.ID,
			&row.ResourceID,
			&row.StartDate,
			&row.EndDate,
			&row.StartMinute,
			&row.EndMinute,
			&row.Reason,
			&row.Active,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		blocks = append(blocks, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// Delete permanently removes a block.
func (r *PostgresBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, "DELETE FROM blocks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrBlockNotFound
	}
	return nil
}
