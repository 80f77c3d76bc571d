package mongodb_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/mongodb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// setupMongo starts a throwaway MongoDB container for the integration tests.
func setupMongo(t *testing.T) *mongo.Database {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, db, err := mongodb.Connect(ctx, config.MongoConfig{
		URI:      "mongodb://" + host + ":" + port.Port(),
		Database: "wedding_test",
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	return db
}

func age(n int) *int { return &n }

func TestReservationStoreIntegration(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	store := mongodb.NewReservationStore(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	res := &models.Reservation{
		ControlNumber: map[string]models.ControlNumberData{
			"CN100": {ReservationNumber: "R-100", MaxGuests: 2},
			"CN200": {ReservationNumber: "R-200", MaxGuests: 1},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Create(ctx, res))
	require.NotEmpty(t, res.ID)

	err := store.Create(ctx, &models.Reservation{
		ControlNumber: map[string]models.ControlNumberData{"CN100": {ReservationNumber: "R-X", MaxGuests: 1}},
	})
	assert.ErrorIs(t, err, models.ErrDuplicateControlNumber)

	found, err := store.FindByControlNumber(ctx, "CN100")
	require.NoError(t, err)
	assert.Equal(t, res.ID, found.ID)
	assert.Equal(t, 2, found.ControlNumber["CN100"].MaxGuests)

	_, err = store.FindByControlNumber(ctx, "CN999")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Over the ceiling: no match, nothing written.
	applied, err := store.SubmitGuests(ctx, "CN200", []models.GuestInfo{
		{FullName: "A", Age: age(30)}, {FullName: "B", Age: age(30)},
	}, now)
	require.NoError(t, err)
	assert.False(t, applied)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.SubmitGuests(ctx, "CN100", []models.GuestInfo{
				{FullName: "A", Age: age(30), Address: "1 Main St"},
			}, now)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	// A stale count in storage is ignored on read.
	_, err = db.Collection(mongodb.ReservationsCollection).UpdateOne(ctx,
		bson.M{"control_number.CN100": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{"control_number.CN100.guests": 5}})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, res.ID)
	require.NoError(t, err)
	cn := got.ControlNumber["CN100"]
	assert.True(t, cn.Submitted)
	assert.Equal(t, 1, cn.Guests)
	assert.False(t, got.ControlNumber["CN200"].Submitted)

	_, err = store.GetByID(ctx, "zzz")
	assert.ErrorIs(t, err, models.ErrInvalidID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got.Submitted = true
	require.NoError(t, store.Update(ctx, got))

	require.NoError(t, store.Delete(ctx, res.ID))
	assert.ErrorIs(t, store.Delete(ctx, res.ID), models.ErrNotFound)
}

func TestSettingsStoreIntegration(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	store := mongodb.NewSettingsStore(db)

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	eventDate, err := models.ParseDate("2026-12-12")
	require.NoError(t, err)
	s := &models.Settings{EventName: "Ana & Luis", EventDate: eventDate, MaxGuestsAllowed: 120}
	s.ApplyDefaults()
	require.NoError(t, store.Create(ctx, s))
	assert.ErrorIs(t, store.Create(ctx, s), models.ErrSettingsAlreadyExist)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana & Luis", got.EventName)
	assert.Equal(t, "2026-12-12", got.EventDate.String())
	assert.Equal(t, "#0A5741", got.Customization.PrimaryColor)

	got.EventName = "Ana & Luis Wedding"
	require.NoError(t, store.Update(ctx, got))
	again, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana & Luis Wedding", again.EventName)
}

func TestAdminStoreIntegration(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	store := mongodb.NewAdminStore(db)

	user, err := models.NewAdminUser("admin", "secret123", "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, user))

	dup, err := models.NewAdminUser("admin", "other123", "other@example.com")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Create(ctx, dup), models.ErrDuplicateAdmin)

	found, err := store.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, found.CheckPassword("secret123"))

	_, err = store.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
