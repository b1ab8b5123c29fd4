package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bettermind/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoReservationRepo implements ReservationRepository using MongoDB.
type MongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo creates the repository over the "appointments" collection.
func NewMongoReservationRepo(db *mongo.Database) *MongoReservationRepo {
	return &MongoReservationRepo{coll: db.Collection("appointments")}
}

func (r *MongoReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var res models.Reservation
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch reservation with id %s: %w", id, err)
	}
	return &res, nil
}

func (r *MongoReservationRepo) FindActiveAt(ctx context.Context, doctorID string, dateTime time.Time, excludeID string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"doctorId": doctorID,
		"dateTime": dateTime.UTC(),
		"status":   bson.M{"$in": models.ActiveStatuses},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	var res models.Reservation
	if err := r.coll.FindOne(ctx, filter).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to check active reservation for doctor %s: %w", doctorID, err)
	}
	return &res, nil
}

func (r *MongoReservationRepo) Update(ctx context.Context, res *models.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"dateTime":        res.DateTime.UTC(),
		"status":          res.Status,
		"notes":           res.Notes,
		"externalEventId": res.ExternalEventID,
		"updatedAt":       res.UpdatedAt,
	}}
	filter := bson.M{"id": res.ID, "status": bson.M{"$in": models.ActiveStatuses}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("failed to update reservation %s: %w", res.ID, err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"id": res.ID})
	if err != nil {
		return fmt.Errorf("failed to check reservation %s: %w", res.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotActive
}

func (r *MongoReservationRepo) SetExternalEventID(ctx context.Context, id, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"externalEventId": eventID, "updatedAt": time.Now().UTC()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to link external event to reservation %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoReservationRepo) ListByUser(ctx context.Context, userID string) ([]models.Reservation, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *MongoReservationRepo) ListByDoctor(ctx context.Context, doctorID string) ([]models.Reservation, error) {
	return r.list(ctx, bson.M{"doctorId": doctorID})
}

func (r *MongoReservationRepo) list(ctx context.Context, filter bson.M) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dateTime", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []models.Reservation{}
	for cursor.Next(ctx) {
		var res models.Reservation
		if err := cursor.Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to decode reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return reservations, nil
}
