package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedding-rsvp/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type controlNumberDoc struct {
	Name              string             `bson:"name,omitempty"`
	ReservationNumber string             `bson:"reservation_number"`
	MaxGuests         int                `bson:"maxGuests"`
	Guests            int                `bson:"guests"`
	GuestInfo         []models.GuestInfo `bson:"guest_info"`
	Submitted         bool               `bson:"submitted"`
	SubmittedAt       *time.Time         `bson:"submittedAt,omitempty"`
}

type reservationDoc struct {
	ID                 primitive.ObjectID          `bson:"_id,omitempty"`
	ControlNumber      map[string]controlNumberDoc `bson:"control_number"`
	Submitted          bool                        `bson:"submitted"`
	ExpirationNumber   *time.Time                  `bson:"expiration_number,omitempty"`
	DistributionNumber *time.Time                  `bson:"distribution_number,omitempty"`
	CreatedAt          time.Time                   `bson:"createdAt"`
	UpdatedAt          time.Time                   `bson:"updatedAt"`
}

func (d reservationDoc) toModel() *models.Reservation {
	res := &models.Reservation{
		ID:                 d.ID.Hex(),
		ControlNumber:      make(map[string]models.ControlNumberData, len(d.ControlNumber)),
		Submitted:          d.Submitted,
		ExpirationNumber:   d.ExpirationNumber,
		DistributionNumber: d.DistributionNumber,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	for cn, c := range d.ControlNumber {
		guests := c.GuestInfo
		if guests == nil {
			guests = []models.GuestInfo{}
		}
		res.ControlNumber[cn] = models.ControlNumberData{
			Name:              c.Name,
			ReservationNumber: c.ReservationNumber,
			MaxGuests:         c.MaxGuests,
			Guests:            len(guests),
			GuestInfo:         guests,
			Submitted:         c.Submitted,
			SubmittedAt:       c.SubmittedAt,
		}
	}
	return res
}

func toReservationDoc(res *models.Reservation) reservationDoc {
	doc := reservationDoc{
		ControlNumber:      make(map[string]controlNumberDoc, len(res.ControlNumber)),
		Submitted:          res.Submitted,
		ExpirationNumber:   res.ExpirationNumber,
		DistributionNumber: res.DistributionNumber,
		CreatedAt:          res.CreatedAt,
		UpdatedAt:          res.UpdatedAt,
	}
	for cn, data := range res.ControlNumber {
		guests := data.GuestInfo
		if guests == nil {
			guests = []models.GuestInfo{}
		}
		doc.ControlNumber[cn] = controlNumberDoc{
			Name:              data.Name,
			ReservationNumber: data.ReservationNumber,
			MaxGuests:         data.MaxGuests,
			Guests:            len(guests),
			GuestInfo:         guests,
			Submitted:         data.Submitted,
			SubmittedAt:       data.SubmittedAt,
		}
	}
	return doc
}

// ReservationStore keeps one document per reservation with its control
// numbers nested under control_number.<CN>.
type ReservationStore struct {
	coll *mongo.Collection
}

func NewReservationStore(db *mongo.Database) *ReservationStore {
	return &ReservationStore{coll: db.Collection(ReservationsCollection)}
}

func cnPath(cn string, field ...string) string {
	p := "control_number." + cn
	for _, f := range field {
		p += "." + f
	}
	return p
}

func (s *ReservationStore) FindByControlNumber(ctx context.Context, controlNumber string) (*models.Reservation, error) {
	var doc reservationDoc
	err := s.coll.FindOne(ctx, bson.M{cnPath(controlNumber): bson.M{"$exists": true}}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.toModel(), nil
}

// SubmitGuests matches the document only while the slot is unsubmitted and
// within its ceiling; the server applies filter and $set atomically.
func (s *ReservationStore) SubmitGuests(ctx context.Context, controlNumber string, guests []models.GuestInfo, at time.Time) (bool, error) {
	filter := bson.M{
		cnPath(controlNumber):              bson.M{"$exists": true},
		cnPath(controlNumber, "submitted"): bson.M{"$ne": true},
		cnPath(controlNumber, "maxGuests"): bson.M{"$gte": len(guests)},
	}
	update := bson.M{"$set": bson.M{
		cnPath(controlNumber, "guest_info"):  guests,
		cnPath(controlNumber, "guests"):      len(guests),
		cnPath(controlNumber, "submitted"):   true,
		cnPath(controlNumber, "submittedAt"): at,
		"updatedAt":                          at,
	}}

	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", controlNumber, err)
	}
	return result.MatchedCount == 1, nil
}

func (s *ReservationStore) List(ctx context.Context) ([]models.Reservation, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []reservationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]models.Reservation, len(docs))
	for i, d := range docs {
		out[i] = *d.toModel()
	}
	return out, nil
}

func (s *ReservationStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	var doc reservationDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toModel(), nil
}

// Create refuses control numbers already held by another document. Map keys
// cannot carry a unique index, so the check runs before the insert.
func (s *ReservationStore) Create(ctx context.Context, res *models.Reservation) error {
	if err := s.checkControlNumbersFree(ctx, res, primitive.NilObjectID); err != nil {
		return err
	}
	doc := toReservationDoc(res)
	doc.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	res.ID = doc.ID.Hex()
	return nil
}

func (s *ReservationStore) Update(ctx context.Context, res *models.Reservation) error {
	oid, err := primitive.ObjectIDFromHex(res.ID)
	if err != nil {
		return models.ErrInvalidID
	}
	if err := s.checkControlNumbersFree(ctx, res, oid); err != nil {
		return err
	}
	doc := toReservationDoc(res)
	doc.ID = oid
	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *ReservationStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrInvalidID
	}
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *ReservationStore) checkControlNumbersFree(ctx context.Context, res *models.Reservation, self primitive.ObjectID) error {
	if len(res.ControlNumber) == 0 {
		return nil
	}
	or := make(bson.A, 0, len(res.ControlNumber))
	for cn := range res.ControlNumber {
		or = append(or, bson.M{cnPath(cn): bson.M{"$exists": true}})
	}
	filter := bson.M{"$or": or}
	if !self.IsZero() {
		filter["_id"] = bson.M{"$ne": self}
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if n > 0 {
		return models.ErrDuplicateControlNumber
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return err
}
