package db_test

import (
	"context"
	"database/sql"
	"testing"

	"wedding-rsvp/internal/auth/db"
	"wedding-rsvp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	store := db.New(bunDB)
	require.NoError(t, store.CreateSchema(context.Background()))
	return store
}

func TestCreateAndFindAdmin(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := models.NewAdminUser("admin", "secret123", "Admin@Example.com")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	found, err := store.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", found.Email)
	assert.True(t, found.CheckPassword("secret123"))
	assert.False(t, found.CheckPassword("secret124"))

	_, err = store.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateDuplicateAdmin(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	first, err := models.NewAdminUser("admin", "secret123", "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, first))

	sameName, err := models.NewAdminUser("admin", "secret456", "other@example.com")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Create(ctx, sameName), models.ErrDuplicateAdmin)

	sameEmail, err := models.NewAdminUser("admin2", "secret456", "admin@example.com")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Create(ctx, sameEmail), models.ErrDuplicateAdmin)
}
