package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/settings/db"

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

func TestSettingsLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	eventDate, err := models.ParseDate("2026-12-12")
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Second)
	s := &models.Settings{
		EventName: "Ana & Luis",
		EventDate: eventDate,
		AdditionalInfo: models.AdditionalInfo{
			FAQs: []models.FAQ{{Question: "Parking?", Answer: "Yes"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.ApplyDefaults()
	require.NoError(t, store.Create(ctx, s))
	require.NotEmpty(t, s.ID)

	assert.ErrorIs(t, store.Create(ctx, &models.Settings{EventName: "Second"}), models.ErrSettingsAlreadyExist)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "Ana & Luis", got.EventName)
	assert.Equal(t, "2026-12-12", got.EventDate.String())
	assert.Equal(t, 100, got.MaxGuestsAllowed)
	require.Len(t, got.AdditionalInfo.FAQs, 1)
	assert.Equal(t, "Parking?", got.AdditionalInfo.FAQs[0].Question)

	got.EventName = "Ana & Luis Wedding"
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, store.Update(ctx, got))

	again, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana & Luis Wedding", again.EventName)
	assert.True(t, again.UpdatedAt.Equal(now.Add(time.Minute)))

	missing := *got
	missing.ID = "00000000-0000-0000-0000-000000000000"
	assert.ErrorIs(t, store.Update(ctx, &missing), models.ErrNotFound)
}
