package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteBlockRepository implements domain.BlockRepository using SQLite.
type SQLiteBlockRepository struct {
	db *sql.DB
}

// NewSQLiteBlockRepository creates a new SQLite block repository.
func NewSQLiteBlockRepository(db *sql.DB) *SQLiteBlockRepository {
	return &SQLiteBlockRepository{db: db}
}

// Save upserts a block.
func (r *SQLiteBlockRepository) Save(ctx context.Context, block *domain.Block) error {
	var startMinute, endMinute any
	if w := block.Window(); w != nil {
		startMinute = w.StartMinute
		endMinute = w.EndMinute
	}

	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	_, err := execer.ExecContext(ctx, `
		INSERT INTO blocks (id, resource_id, start_date, end_date, start_minute, end_minute, reason, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			start_minute = excluded.start_minute,
			end_minute = excluded.end_minute,
			reason = excluded.reason,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		block.ID().String(),
		block.ResourceID().String(),
		formatTime(block.StartDate()),
		formatTime(block.EndDate()),
		startMinute,
		endMinute,
		block.Reason(),
		block.IsActive(),
		formatTime(block.CreatedAt()),
		formatTime(block.UpdatedAt()),
	)
	return err
}

func scanSQLiteBlock(scan func(dest ...any) error) (*domain.Block, error) {
	var (
		idStr, resStr              string
		startDateStr, endDateStr   string
		startMinute, endMinute     sql.NullInt64
		reason                     string
		active                     bool
		createdAtStr, updatedAtStr string
	)
	if err := scan(&idStr, &resStr, &startDateStr, &endDateStr, &startMinute, &endMinute, &reason, &active, &createdAtStr, &updatedAtStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	resID, err := uuid.Parse(resStr)
	if err != nil {
		return nil, err
	}
	startDate, err := parseTime(startDateStr)
	if err != nil {
		return nil, err
	}
	endDate, err := parseTime(endDateStr)
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

	var window *domain.ClockRange
	if startMinute.Valid && endMinute.Valid {
		window = &domain.ClockRange{StartMinute: int(startMinute.Int64), EndMinute: int(endMinute.Int64)}
	}

	return domain.RehydrateBlock(id, resID, startDate, endDate, window, reason, active, createdAt, updatedAt), nil
}

// FindByID retrieves a block by its ID.
func (r *SQLiteBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Block, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	row := execer.QueryRowContext(ctx, `
		SELECT id, resource_id, start_date, end_date, start_minute, end_minute, reason, active, created_at, updated_at
		FROM blocks
		WHERE id = ?`,
		id.String(),
	)

	block, err := scanSQLiteBlock(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return block, nil
}

// FindActiveOverlapping returns the active blocks whose date range overlaps
// the candidate window's dates. Stored timestamps use a fixed-width layout
// that compares in time order, so the overlap predicate works directly on
// the stored text.
func (r *SQLiteBlockRepository) FindActiveOverlapping(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange) ([]*domain.Block, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := execer.QueryContext(ctx, `
		SELECT id, resource_id, start_date, end_date, start_minute, end_minute, reason, active, created_at, updated_at
		FROM blocks
		WHERE resource_id = ? AND active = 1 AND start_date < ? AND ? < end_date
		ORDER BY start_date`,
		resourceID.String(), formatTime(window.End), formatTime(window.Start),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.Block, 0)
	for rows.Next() {
		block, err := scanSQLiteBlock(rows.Scan)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// Delete permanently removes a block.
func (r *SQLiteBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	result, err := execer.ExecContext(ctx, "DELETE FROM blocks WHERE id = ?", id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrBlockNotFound
	}
	return nil
}
