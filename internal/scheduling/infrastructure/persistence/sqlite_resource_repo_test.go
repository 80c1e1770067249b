package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// setupSchedulingDB creates an in-memory SQLite database with the schema
// applied. Shared by every repository test in this package.
func setupSchedulingDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), sqlDB))

	return sqlDB
}

// seedResource saves a fresh active resource and returns it.
func seedResource(t *testing.T, sqlDB *sql.DB) *domain.Resource {
	t.Helper()

	resource, err := domain.NewResource("Salesperson Ada", domain.KindPerson, uuid.New())
	require.NoError(t, err)
	require.NoError(t, NewSQLiteResourceRepository(sqlDB).Save(context.Background(), resource))

	return resource
}

func TestSQLiteResourceRepository_SaveAndFind(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteResourceRepository(sqlDB)
	ctx := context.Background()

	ownerID := uuid.New()
	resource, err := domain.NewResource("Hall B", domain.KindSpace, ownerID)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, resource))

	found, err := repo.FindByID(ctx, resource.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, resource.ID(), found.ID())
	assert.Equal(t, "Hall B", found.Name())
	assert.Equal(t, domain.KindSpace, found.Kind())
	assert.Equal(t, ownerID, found.OwnerID())
	assert.True(t, found.IsActive())
	assert.WithinDuration(t, resource.CreatedAt(), found.CreatedAt(), time.Second)
}

func TestSQLiteResourceRepository_FindByID_NotFound(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteResourceRepository(sqlDB)

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLiteResourceRepository_ListActive(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteResourceRepository(sqlDB)
	ctx := context.Background()

	hall, err := domain.NewResource("Hall B", domain.KindSpace, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, hall))

	ada, err := domain.NewResource("Salesperson Ada", domain.KindPerson, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, ada))

	retired, err := domain.NewResource("Annex", domain.KindSpace, uuid.New())
	require.NoError(t, err)
	retired.Deactivate()
	require.NoError(t, repo.Save(ctx, retired))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Hall B", active[0].Name())
	assert.Equal(t, "Salesperson Ada", active[1].Name())
}

func TestSQLiteResourceRepository_Save_Update(t *testing.T) {
	sqlDB := setupSchedulingDB(t)
	repo := NewSQLiteResourceRepository(sqlDB)
	ctx := context.Background()

	resource := seedResource(t, sqlDB)

	resource.Deactivate()
	require.NoError(t, repo.Save(ctx, resource))

	found, err := repo.FindByID(ctx, resource.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.IsActive())
}
