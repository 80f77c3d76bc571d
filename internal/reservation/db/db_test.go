package db_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/reservation/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	store := db.New(bunDB)
	require.NoError(t, store.CreateSchema(context.Background()))

	t.Cleanup(func() { bunDB.Close() })
	return store, bunDB
}

func age(n int) *int { return &n }

func seed(t *testing.T, store *db.DB, slots map[string]models.ControlNumberData) *models.Reservation {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	res := &models.Reservation{ControlNumber: slots, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Create(context.Background(), res))
	return res
}

func TestCreateAndFindByControlNumber(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	res := seed(t, store, map[string]models.ControlNumberData{
		"CN100": {ReservationNumber: "R-100", MaxGuests: 2},
		"CN101": {ReservationNumber: "R-101", MaxGuests: 4, Name: "Cruz family"},
	})
	require.NotEmpty(t, res.ID)

	found, err := store.FindByControlNumber(ctx, "CN101")
	require.NoError(t, err)
	assert.Equal(t, res.ID, found.ID)
	assert.Len(t, found.ControlNumber, 2)

	cn := found.ControlNumber["CN101"]
	assert.Equal(t, "R-101", cn.ReservationNumber)
	assert.Equal(t, 4, cn.MaxGuests)
	assert.Equal(t, "Cruz family", cn.Name)
	assert.False(t, cn.Submitted)
	assert.Empty(t, cn.GuestInfo)

	_, err = store.FindByControlNumber(ctx, "CN999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateDuplicateControlNumber(t *testing.T) {
	store, _ := setupTestDB(t)
	seed(t, store, map[string]models.ControlNumberData{"CN100": {ReservationNumber: "R-100", MaxGuests: 2}})

	err := store.Create(context.Background(), &models.Reservation{
		ControlNumber: map[string]models.ControlNumberData{"CN100": {ReservationNumber: "R-X", MaxGuests: 1}},
	})
	assert.ErrorIs(t, err, models.ErrDuplicateControlNumber)
}

func TestSubmitGuests(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()
	seed(t, store, map[string]models.ControlNumberData{"CN100": {ReservationNumber: "R-100", MaxGuests: 2}})

	at := time.Date(2026, 6, 20, 10, 0, 0, 0, time.UTC)
	guests := []models.GuestInfo{{FullName: "A", Age: age(30), Address: "1 Main St", Email: "a@example.com"}}

	applied, err := store.SubmitGuests(ctx, "CN100", guests, at)
	require.NoError(t, err)
	assert.True(t, applied)

	found, err := store.FindByControlNumber(ctx, "CN100")
	require.NoError(t, err)
	cn := found.ControlNumber["CN100"]
	assert.True(t, cn.Submitted)
	assert.Equal(t, 1, cn.Guests)
	require.Len(t, cn.GuestInfo, 1)
	assert.Equal(t, "A", cn.GuestInfo[0].FullName)
	assert.Equal(t, 30, *cn.GuestInfo[0].Age)
	require.NotNil(t, cn.SubmittedAt)
	assert.True(t, at.Equal(*cn.SubmittedAt))

	// Second attempt loses the guard and leaves the first submission alone.
	applied, err = store.SubmitGuests(ctx, "CN100", []models.GuestInfo{{FullName: "B", Age: age(40)}}, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, applied)

	found, err = store.FindByControlNumber(ctx, "CN100")
	require.NoError(t, err)
	assert.Equal(t, "A", found.ControlNumber["CN100"].GuestInfo[0].FullName)
	assert.True(t, at.Equal(*found.ControlNumber["CN100"].SubmittedAt))
}

func TestGuestCountFollowsGuestInfo(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()
	seed(t, store, map[string]models.ControlNumberData{"CN100": {ReservationNumber: "R-100", MaxGuests: 4}})

	applied, err := store.SubmitGuests(ctx, "CN100", []models.GuestInfo{{FullName: "A", Age: age(30)}}, time.Now())
	require.NoError(t, err)
	require.True(t, applied)

	// A stale count in storage is ignored on read.
	_, err = bunDB.NewUpdate().
		Model((*db.ControlNumberRow)(nil)).
		Set("guests = ?", 3).
		Where("control_number = ?", "CN100").
		Exec(ctx)
	require.NoError(t, err)

	found, err := store.FindByControlNumber(ctx, "CN100")
	require.NoError(t, err)
	assert.Equal(t, 1, found.ControlNumber["CN100"].Guests)
}

func TestSubmitGuestsOverCeilingLeavesRowUnchanged(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()
	seed(t, store, map[string]models.ControlNumberData{"CN200": {ReservationNumber: "R-200", MaxGuests: 1}})

	guests := []models.GuestInfo{{FullName: "A", Age: age(30)}, {FullName: "B", Age: age(31)}}
	applied, err := store.SubmitGuests(ctx, "CN200", guests, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := store.FindByControlNumber(ctx, "CN200")
	require.NoError(t, err)
	assert.False(t, found.ControlNumber["CN200"].Submitted)
	assert.Equal(t, 0, found.ControlNumber["CN200"].Guests)
}

func TestSubmitGuestsConcurrent(t *testing.T) {
	store, _ := setupTestDB(t)
	seed(t, store, map[string]models.ControlNumberData{"CN100": {ReservationNumber: "R-100", MaxGuests: 2}})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := store.SubmitGuests(context.Background(), "CN100",
				[]models.GuestInfo{{FullName: "A", Age: age(30)}}, time.Now())
			assert.NoError(t, err)
			if applied {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestListGetUpdateDelete(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	first := seed(t, store, map[string]models.ControlNumberData{"CN100": {ReservationNumber: "R-100", MaxGuests: 2}})
	seed(t, store, map[string]models.ControlNumberData{"CN200": {ReservationNumber: "R-200", MaxGuests: 1}})

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Contains(t, got.ControlNumber, "CN100")

	_, err = store.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrInvalidID)

	got.Submitted = true
	got.ControlNumber["CN101"] = models.ControlNumberData{ReservationNumber: "R-101", MaxGuests: 3}
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.Update(ctx, got))

	updated, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, updated.Submitted)
	assert.Len(t, updated.ControlNumber, 2)

	// CN200 belongs to the other reservation.
	updated.ControlNumber["CN200"] = models.ControlNumberData{ReservationNumber: "R-200", MaxGuests: 1}
	assert.ErrorIs(t, store.Update(ctx, updated), models.ErrDuplicateControlNumber)

	require.NoError(t, store.Delete(ctx, first.ID))
	_, err = store.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = store.FindByControlNumber(ctx, "CN100")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, first.ID), models.ErrNotFound)
}
