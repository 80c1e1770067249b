package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteAvailabilityRuleRepository implements domain.AvailabilityRuleRepository using SQLite.
type SQLiteAvailabilityRuleRepository struct {
	db *sql.DB
}

// NewSQLiteAvailabilityRuleRepository creates a new SQLite availability rule repository.
func NewSQLiteAvailabilityRuleRepository(db *sql.DB) *SQLiteAvailabilityRuleRepository {
	return &SQLiteAvailabilityRuleRepository{db: db}
}

// Save upserts an availability rule.
func (r *SQLiteAvailabilityRuleRepository) Save(ctx context.Context, rule *domain.AvailabilityRule) error {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	_, err := execer.ExecContext(ctx, `
		INSERT INTO availability_rules (id, resource_id, weekday, start_minute, end_minute, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			weekday = excluded.weekday,
			start_minute = excluded.start_minute,
			end_minute = excluded.end_minute,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		rule.ID().String(),
		rule.ResourceID().String(),
		int(rule.Weekday()),
		rule.Window().StartMinute,
		rule.Window().EndMinute,
		rule.IsActive(),
		formatTime(rule.CreatedAt()),
		formatTime(rule.UpdatedAt()),
	)
	return err
}

// FindActiveByResourceAndWeekday returns the active rules for one resource on
// one weekday, ordered by start minute.
func (r *SQLiteAvailabilityRuleRepository) FindActiveByResourceAndWeekday(ctx context.Context, resourceID uuid.UUID, weekday time.Weekday) ([]*domain.AvailabilityRule, error) {
	execer := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := execer.QueryContext(ctx, `
		SELECT id, resource_id, weekday, start_minute, end_minute, active, created_at, updated_at
		FROM availability_rules
		WHERE resource_id = ? AND weekday = ? AND active = 1
		ORDER BY start_minute`,
		resourceID.String(), int(weekday),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]*domain.AvailabilityRule, 0)
	for rows.Next() {
		var (
			idStr, resStr              string
			wd, startMin, endMin       int
			active                     bool
			createdAtStr, updatedAtStr string
		)
		if err := rows.Scan(&idStr, &resStr, &wd, &startMin, &endMin, &active, &createdAtStr, &updatedAtStr); err != nil {
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
		createdAt, err := parseTime(createdAtStr)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(updatedAtStr)
		if err != nil {
			return nil, err
		}

		rules = append(rules, domain.RehydrateAvailabilityRule(
			id,
			resID,
			time.Weekday(wd),
			domain.ClockRange{StartMinute: startMin, EndMinute: endMin},
			active,
			createdAt,
			updatedAt,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}
