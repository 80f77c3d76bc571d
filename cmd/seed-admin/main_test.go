package main

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	authdb "wedding-rsvp/internal/auth/db"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func TestReadPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"line", "s3cret-pass\nignored\n", "s3cret-pass", false},
		{"crlf", "s3cret-pass\r\n", "s3cret-pass", false},
		{"no newline", "s3cret-pass", "s3cret-pass", false},
		{"empty", "", "", true},
		{"blank line", "\n", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readPassword(strings.NewReader(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	store := authdb.New(bunDB)
	require.NoError(t, store.CreateSchema(ctx))

	user, err := models.NewAdminUser("admin", "secret123", "admin@example.com")
	require.NoError(t, err)

	log := logger.Discard()
	require.NoError(t, seedAdmin(ctx, store, user, log))
	require.NoError(t, seedAdmin(ctx, store, user, log))

	found, err := store.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, found.CheckPassword("secret123"))
}
