package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
)

// PickTaskRepository implements domain.PickTaskRepository over the pick_tasks
// collection written by WaveRepository
type PickTaskRepository struct {
	collection *mongo.Collection
}

// NewPickTaskRepository creates a new PickTaskRepository
func NewPickTaskRepository(db *mongo.Database) *PickTaskRepository {
	return &PickTaskRepository{collection: db.Collection(PickTasksCollection)}
}

// FindByID retrieves a pick task by its ID
func (r *PickTaskRepository) FindByID(ctx context.Context, taskID string) (*domain.PickTask, error) {
	var doc pickTaskDocument
	err := r.collection.FindOne(ctx, bson.M{"taskId": taskID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// CountByZone counts the zone's tasks per status and sums their quantities
func (r *PickTaskRepository) CountByZone(ctx context.Context, zoneID string) (domain.TaskCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"zone": zoneID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"items": bson.M{"$sum": "$quantity"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.TaskCounts{}, fmt.Errorf("failed to count zone tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
		Items  int    `bson:"items"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.TaskCounts{}, fmt.Errorf("failed to decode zone task counts: %w", err)
	}

	var counts domain.TaskCounts
	for _, row := range rows {
		switch domain.TaskStatus(row.Status) {
		case domain.TaskStatusPending:
			counts.Pending = row.Count
		case domain.TaskStatusInProgress:
			counts.InProgress = row.Count
		case domain.TaskStatusCompleted:
			counts.Completed = row.Count
		}
		counts.TotalItems += row.Items
	}
	return counts, nil
}

// AverageDuration averages start-to-completion time over the zone's most
// recently completed tasks
func (r *PickTaskRepository) AverageDuration(ctx context.Context, zoneID string, sample int) (time.Duration, bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"zone":        zoneID,
			"status":      domain.TaskStatusCompleted,
			"startedAt":   bson.M{"$ne": nil},
			"completedAt": bson.M{"$ne": nil},
		}}},
		{{Key: "$sort", Value: bson.M{"completedAt": -1}}},
	}
	if sample > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: sample}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{
		"_id":   nil,
		"avgMs": bson.M{"$avg": bson.M{"$subtract": bson.A{"$completedAt", "$startedAt"}}},
		"n":     bson.M{"$sum": 1},
	}}})

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, false, fmt.Errorf("failed to average task durations: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AvgMs float64 `bson:"avgMs"`
		N     int     `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, false, fmt.Errorf("failed to decode task durations: %w", err)
	}
	if len(rows) == 0 || rows[0].N == 0 {
		return 0, false, nil
	}

	return time.Duration(rows[0].AvgMs * float64(time.Millisecond)), true, nil
}
