package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Worker fields owned by the labor service
const (
	workerStatusAvailable = "available"
	skillPicking          = "picking"
)

// PickerRoster reads pickers from the labor service's workers collection
type PickerRoster struct {
	collection *mongo.Collection
}

// NewPickerRoster creates a new PickerRoster
func NewPickerRoster(db *mongo.Database) *PickerRoster {
	return &PickerRoster{collection: db.Collection(WorkersCollection)}
}

// ListAvailablePickers returns available workers with the picking skill, by worker ID
func (r *PickerRoster) ListAvailablePickers(ctx context.Context) ([]string, error) {
	filter := bson.M{
		"status":      workerStatusAvailable,
		"skills.type": skillPicking,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "workerId", Value: 1}}).
		SetProjection(bson.M{"workerId": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		WorkerID string `bson:"workerId"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	pickers := make([]string, 0, len(rows))
	for _, row := range rows {
		pickers = append(pickers, row.WorkerID)
	}
	return pickers, nil
}
