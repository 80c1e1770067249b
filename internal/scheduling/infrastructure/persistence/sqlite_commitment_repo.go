package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteCommitmentRepository implements domain.CommitmentRepository using
// SQLite. Cross-request serialization is the ResourceLocker's job; this
// repository only guarantees that a commitment and its history land in the
// same transaction.
type SQLiteCommitmentRepository struct {
	db *sql.DB
}

// NewSQLiteCommitmentRepository creates a new SQLite commitment repository.
func NewSQLiteCommitmentRepository(db *sql.DB) *SQLiteCommitmentRepository {
	return &SQLiteCommitmentRepository{db: db}
}

// Save upserts the commitment and appends its pending history entries.
func (r *SQLiteCommitmentRepository) Save(ctx context.Context, commitment *domain.Commitment) error {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	_, err := execer.ExecContext(ctx, `
		INSERT INTO commitments (id, resource_id, starts_at, ends_at, status, confirmed_by_owner, confirmed_by_counterpart, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at,
			status = excluded.status,
			confirmed_by_owner = excluded.confirmed_by_owner,
			confirmed_by_counterpart = excluded.confirmed_by_counterpart,
			updated_at = excluded.updated_at`,
		commitment.ID().String(),
		commitment.ResourceID().String(),
		formatTime(commitment.Window().Start),
		formatTime(commitment.Window().End),
		string(commitment.Status()),
		commitment.ConfirmedByOwner(),
		commitment.ConfirmedByCounterpart(),
		formatTime(commitment.CreatedAt()),
		formatTime(commitment.UpdatedAt()),
	)
	if err != nil {
		return err
	}

	for _, entry := range commitment.PendingHistory() {
		_, err := execer.ExecContext(ctx, `
			INSERT INTO commitment_history (
				commitment_id, previous_starts_at, previous_ends_at,
				new_starts_at, new_ends_at, reason, changed_by, changed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.CommitmentID.String(),
			formatTime(entry.PreviousWindow.Start),
			formatTime(entry.PreviousWindow.End),
			formatTime(entry.NewWindow.Start),
			formatTime(entry.NewWindow.End),
			entry.Reason,
			entry.ChangedBy.String(),
			formatTime(entry.ChangedAt),
		)
		if err != nil {
			return err
		}
	}
	commitment.ClearPendingHistory()

	return nil
}

func scanSQLiteCommitment(scan func(dest ...any) error) (*domain.Commitment, error) {
	var (
		idStr, resStr              string
		startsAtStr, endsAtStr     string
		status                     string
		byOwner, byCounterpart     bool
		createdAtStr, updatedAtStr string
	)
	if err := scan(&idStr, &resStr, &startsAtStr, &endsAtStr, &status, &byOwner, &byCounterpart, &createdAtStr, &updatedAtStr); err != nil {
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
	startsAt, err := parseTime(startsAtStr)
	if err != nil {
		return nil, err
	}
	endsAt, err := parseTime(endsAtStr)
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

	return domain.RehydrateCommitment(
		id,
		resID,
		domain.TimeRange{Start: startsAt, End: endsAt},
		domain.Status(status),
		byOwner,
		byCounterpart,
		createdAt,
		updatedAt,
	), nil
}

// FindByID retrieves a commitment by its ID.
func (r *SQLiteCommitmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Commitment, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	row := execer.QueryRowContext(ctx, `
		SELECT id, resource_id, starts_at, ends_at, status, confirmed_by_owner, confirmed_by_counterpart, created_at, updated_at
		FROM commitments
		WHERE id = ?`,
		id.String(),
	)

	commitment, err := scanSQLiteCommitment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return commitment, nil
}

// FindOverlapping returns active-status commitments for the resource whose
// window overlaps the candidate, optionally excluding one id.
func (r *SQLiteCommitmentRepository) FindOverlapping(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange, excludeID uuid.UUID) ([]*domain.Commitment, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := execer.QueryContext(ctx, `
		SELECT id, resource_id, starts_at, ends_at, status, confirmed_by_owner, confirmed_by_counterpart, created_at, updated_at
		FROM commitments
		WHERE resource_id = ?
		  AND status IN ('scheduled', 'confirmed', 'rescheduled')
		  AND starts_at < ? AND ? < ends_at
		  AND id <> ?
		ORDER BY starts_at`,
		resourceID.String(), formatTime(window.End), formatTime(window.Start), excludeID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSQLiteCommitments(rows)
}

// FindByResourceAndRange returns commitments for a resource whose window
// overlaps [from, to), all statuses included, ordered by start.
func (r *SQLiteCommitmentRepository) FindByResourceAndRange(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*domain.Commitment, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := execer.QueryContext(ctx, `
		SELECT id, resource_id, starts_at, ends_at, status, confirmed_by_owner, confirmed_by_counterpart, created_at, updated_at
		FROM commitments
		WHERE resource_id = ? AND starts_at < ? AND ? < ends_at
		ORDER BY starts_at`,
		resourceID.String(), formatTime(to), formatTime(from),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSQLiteCommitments(rows)
}

// ListHistory returns a commitment's reschedule history, oldest first.
func (r *SQLiteCommitmentRepository) ListHistory(ctx context.Context, commitmentID uuid.UUID) ([]domain.HistoryEntry, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := execer.QueryContext(ctx, `
		SELECT id, commitment_id, previous_starts_at, previous_ends_at,
		       new_starts_at, new_ends_at, COALESCE(reason, ''), changed_by, changed_at
		FROM commitment_history
		WHERE commitment_id = ?
		ORDER BY id`,
		commitmentID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry                    domain.HistoryEntry
			commitmentStr, byStr     string
			prevStartStr, prevEndStr string
			newStartStr, newEndStr   string
			changedAtStr             string
		)
		if err := rows.Scan(&entry.ID, &commitmentStr, &prevStartStr, &prevEndStr, &newStartStr, &newEndStr, &entry.Reason, &byStr, &changedAtStr); err != nil {
			return nil, err
		}

		if entry.CommitmentID, err = uuid.Parse(commitmentStr); err != nil {
			return nil, err
		}
		if entry.ChangedBy, err = uuid.Parse(byStr); err != nil {
			return nil, err
		}
		if entry.PreviousWindow.Start, err = parseTime(prevStartStr); err != nil {
			return nil, err
		}
		if entry.PreviousWindow.End, err = parseTime(prevEndStr); err != nil {
			return nil, err
		}
		if entry.NewWindow.Start, err = parseTime(newStartStr); err != nil {
			return nil, err
		}
		if entry.NewWindow.End, err = parseTime(newEndStr); err != nil {
			return nil, err
		}
		if entry.ChangedAt, err = parseTime(changedAtStr); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func collectSQLiteCommitments(rows *sql.Rows) ([]*domain.Commitment, error) {
	commitments := make([]*domain.Commitment, 0)
	for rows.Next() {
		commitment, err := scanSQLiteCommitment(rows.Scan)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, commitment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return commitments, nil
}
