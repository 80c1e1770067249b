package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAvailabilityRuleRepository implements domain.AvailabilityRuleRepository using PostgreSQL.
type PostgresAvailabilityRuleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAvailabilityRuleRepository creates a new PostgreSQL availability rule repository.
func NewPostgresAvailabilityRuleRepository(pool *pgxpool.Pool) *PostgresAvailabilityRuleRepository {
	return &PostgresAvailabilityRuleRepository{pool: pool}
}

// Save upserts an availability rule.
func (r *PostgresAvailabilityRuleRepository) Save(ctx context.Context, rule *domain.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (id, resource_id, weekday, start_minute, end_minute, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			weekday = EXCLUDED.weekday,
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		rule.ID(),
		rule.ResourceID(),
		int(rule.Weekday()),
		rule.Window().StartMinute,
		rule.Window().EndMinute,
		rule.IsActive(),
		rule.CreatedAt(),
		rule.UpdatedAt(),
	)
	return err
}

// FindActiveByResourceAndWeekday returns the active rules for one resource on
// one weekday, ordered by start minute.
func (r *PostgresAvailabilityRuleRepository) FindActiveByResourceAndWeekday(ctx context.Context, resourceID uuid.UUID, weekday time.Weekday) ([]*domain.AvailabilityRule, error) {
	query := `
		SELECT id, resource_id, weekday, start_minute, end_minute, active, created_at, updated_at
		FROM availability_rules
		WHERE resource_id = $1 AND weekday = $2 AND active
		ORDER BY start_minute
	`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, resourceID, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]*domain.AvailabilityRule, 0)
	for rows.Next() {
		var (
			id, resID            uuid.UUID
			wd, startMin, endMin int
			active               bool
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &resID, &wd, &startMin, &endMin, &active, &createdAt, &updatedAt); err != nil {
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
