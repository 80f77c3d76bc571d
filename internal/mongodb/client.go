// Package mongodb holds the document-store implementations of the
// reservation, settings and admin-user stores.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	ReservationsCollection = "reservations"
	SettingsCollection     = "settings"
	AdminUsersCollection   = "adminusers"

	connectTimeout = 10 * time.Second
)

// Connect dials the cluster, pings the primary and makes sure the indexes
// exist. The caller owns the returned client.
func Connect(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info("DATABASE", fmt.Sprintf("MongoDB connection successful (db: %s)", cfg.Database))

	db := client.Database(cfg.Database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	admins := db.Collection(AdminUsersCollection)
	_, err := admins.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create adminusers indexes: %w", err)
	}

	reservations := db.Collection(ReservationsCollection)
	_, err = reservations.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: 1}}})
	if err != nil {
		return fmt.Errorf("create reservations index: %w", err)
	}
	return nil
}
