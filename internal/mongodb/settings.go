package mongodb

import (
	"context"

	"wedding-rsvp/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type settingsDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	models.Settings `bson:",inline"`
}

// SettingsStore holds the single settings document.
type SettingsStore struct {
	coll *mongo.Collection
}

func NewSettingsStore(db *mongo.Database) *SettingsStore {
	return &SettingsStore{coll: db.Collection(SettingsCollection)}
}

func (s *SettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	var doc settingsDoc
	if err := s.coll.FindOne(ctx, bson.D{}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	out := doc.Settings
	out.ID = doc.ID.Hex()
	return &out, nil
}

func (s *SettingsStore) Create(ctx context.Context, settings *models.Settings) error {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return err
	}
	if n > 0 {
		return models.ErrSettingsAlreadyExist
	}

	doc := settingsDoc{ID: primitive.NewObjectID(), Settings: *settings}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	settings.ID = doc.ID.Hex()
	return nil
}

func (s *SettingsStore) Update(ctx context.Context, settings *models.Settings) error {
	oid, err := primitive.ObjectIDFromHex(settings.ID)
	if err != nil {
		return models.ErrInvalidID
	}
	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": oid}, settingsDoc{ID: oid, Settings: *settings})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
