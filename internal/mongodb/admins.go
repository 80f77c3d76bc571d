package mongodb

import (
	"context"
	"strings"
	"time"

	"wedding-rsvp/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type adminDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	Email     string             `bson:"email"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type AdminStore struct {
	coll *mongo.Collection
}

func NewAdminStore(db *mongo.Database) *AdminStore {
	return &AdminStore{coll: db.Collection(AdminUsersCollection)}
}

func (s *AdminStore) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var doc adminDoc
	if err := s.coll.FindOne(ctx, bson.M{"username": strings.TrimSpace(username)}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return &models.AdminUser{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		PasswordHash: doc.Password,
		Email:        doc.Email,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (s *AdminStore) Create(ctx context.Context, user *models.AdminUser) error {
	doc := adminDoc{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Password:  user.PasswordHash,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateAdmin
		}
		return err
	}
	user.ID = doc.ID.Hex()
	return nil
}
