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

// PostgresCommitmentRepository implements domain.CommitmentRepository using
// PostgreSQL. History entries are written in the same statement batch as the
// commitment itself, so a commitment row and its history can never diverge.
type PostgresCommitmentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCommitmentRepository creates a new PostgreSQL commitment repository.
func NewPostgresCommitmentRepository(pool *pgxpool.Pool) *PostgresCommitmentRepository {
	return &PostgresCommitmentRepository{pool: pool}
}

// commitmentRow represents a database row for commitments.
type commitmentRow struct {
	ID                     uuid.UUID
	ResourceID             uuid.UUID
	StartsAt               time.Time
	EndsAt                 time.Time
	Status                 string
	ConfirmedByOwner       bool
	ConfirmedByCounterpart bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (row commitmentRow) toDomain() *domain.Commitment {
	return domain.RehydrateCommitment(
		row.ID,
		row.ResourceID,
		domain.TimeRange{Start: row.StartsAt, End: row.EndsAt},
		domain.Status(row.Status),
		row.ConfirmedByOwner,
		row.ConfirmedByCounterpart,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

const commitmentColumns = `id, resource_id, starts_at, ends_at, status, confirmed_by_owner, confirmed_by_counterpart, created_at, updated_at`

// Save upserts the commitment and appends its pending history entries.
func (r *PostgresCommitmentRepository) Save(ctx context.Context, commitment *domain.Commitment) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		INSERT INTO commitments (` + commitmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			status = EXCLUDED.status,
			confirmed_by_owner = EXCLUDED.confirmed_by_owner,
			confirmed_by_counterpart = EXCLUDED.confirmed_by_counterpart,
			updated_at = EXCLUDED.updated_at
	`

	_, err := exec.Exec(ctx, query,
		commitment.ID(),
		commitment.ResourceID(),
		commitment.Window().Start,
		commitment.Window().End,
		string(commitment.Status()),
		commitment.ConfirmedByOwner(),
		commitment.ConfirmedByCounterpart(),
		commitment.CreatedAt(),
		commitment.UpdatedAt(),
	)
	if err != nil {
		return err
	}

	historyQuery := `
		INSERT INTO commitment_history (
			commitment_id, previous_starts_at, previous_ends_at,
			new_starts_at, new_ends_at, reason, changed_by, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, entry := range commitment.PendingHistory() {
		_, err := exec.Exec(ctx, historyQuery,
			entry.CommitmentID,
			entry.PreviousWindow.Start,
			entry.PreviousWindow.End,
			entry.NewWindow.Start,
			entry.NewWindow.End,
			entry.Reason,
			entry.ChangedBy,
			entry.ChangedAt,
		)
		if err != nil {
			return err
		}
	}
	commitment.ClearPendingHistory()

	return nil
}

// FindByID retrieves a commitment by its ID.
func (r *PostgresCommitmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE id = $1`

	var row commitmentRow
	err := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.ResourceID,
		&row.StartsAt,
		&row.EndsAt,
		&row.Status,
		&row.ConfirmedByOwner,
		&row.ConfirmedByCounterpart,
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

// FindOverlapping returns active-status commitments for the resource whose
// window overlaps the candidate. Inside a transaction it first takes a
// resource-scoped advisory lock held until commit, which serializes
// concurrent conflict checks on the same resource across processes.
func (r *PostgresCommitmentRepository) FindOverlapping(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange, excludeID uuid.UUID) ([]*domain.Commitment, error) {
	if info, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		if _, err := info.Tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", resourceID.String()); err != nil {
			return nil, err
		}
	}

	query := `
		SELECT ` + commitmentColumns + `
		FROM commitments
		WHERE resource_id = $1
		  AND status IN ('scheduled', 'confirmed', 'rescheduled')
		  AND starts_at < $3 AND $2 < ends_at
		  AND id <> $4
		ORDER BY starts_at
	`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, resourceID, window.Start, window.End, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommitments(rows)
}

// FindByResourceAndRange returns commitments for a resource whose window
// overlaps [from, to), all statuses included, ordered by start.
func (r *PostgresCommitmentRepository) FindByResourceAndRange(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*domain.Commitment, error) {
	query := `
		SELECT ` + commitmentColumns + `
		FROM commitments
		WHERE resource_id = $1 AND starts_at < $3 AND $2 < ends_at
		ORDER BY starts_at
	`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommitments(rows)
}

// ListHistory returns a commitment's reschedule history, oldest first.
func (r *PostgresCommitmentRepository) ListHistory(ctx context.Context, commitmentID uuid.UUID) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, commitment_id, previous_starts_at, previous_ends_at,
		       new_starts_at, new_ends_at, COALESCE(reason, ''), changed_by, changed_at
		FROM commitment_history
		WHERE commitment_id = $1
		ORDER BY id
	`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, commitmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.CommitmentID,
			&entry.PreviousWindow.Start,
			&entry.PreviousWindow.End,
			&entry.NewWindow.Start,
			&entry.NewWindow.End,
			&entry.Reason,
			&entry.ChangedBy,
			&entry.ChangedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func scanCommitments(rows pgx.Rows) ([]*domain.Commitment, error) {
	commitments := make([]*domain.Commitment, 0)
	for rows.Next() {
		var row commitmentRow
		if err := rows.Scan(
			&row.ID,
			&row.ResourceID,
			&row.StartsAt,
			&row.EndsAt,
			&row.Status,
			&row.ConfirmedByOwner,
			&row.ConfirmedByCounterpart,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		commitments = append(commitments, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return commitments, nil
}
