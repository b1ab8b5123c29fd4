// FILE: database/repository/reservation/indexes.go
package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"bettermind/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes on the appointments collection.
// The partial unique index is what rules out two active reservations on the
// same doctor and instant; it needs MongoDB 6.0+ for $in in partial filters.
func (r *MongoReservationRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "dateTime", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_active_doctor_datetime").
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": models.ActiveStatuses}}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "dateTime", Value: -1}},
			Options: options.Index().SetName("user_datetime_idx"),
		},
		{
			Keys:    bson.D{{Key: "doctorId", Value: 1}, {Key: "dateTime", Value: -1}},
			Options: options.Index().SetName("doctor_datetime_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}
