package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
)

// ZoneAssignmentRepository implements domain.ZoneAssignmentRepository. A
// partial unique index on pickerId over ACTIVE rows keeps one active zone per picker.
type ZoneAssignmentRepository struct {
	collection *mongo.Collection
}

// NewZoneAssignmentRepository creates a new ZoneAssignmentRepository
func NewZoneAssignmentRepository(db *mongo.Database) *ZoneAssignmentRepository {
	return &ZoneAssignmentRepository{collection: db.Collection(ZoneAssignmentsCollection)}
}

// EnsureIndexes creates the assignment indexes, including the one-active-row guard
func (r *ZoneAssignmentRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pickerId", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_picker").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.AssignmentStatusActive}),
		},
		{
			Keys:    bson.D{{Key: "assignmentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "zoneId", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create zone assignment indexes: %w", err)
	}
	return nil
}

// Insert stores a new ACTIVE assignment
func (r *ZoneAssignmentRepository) Insert(ctx context.Context, assignment *domain.ZoneAssignment) error {
	_, err := r.collection.InsertOne(ctx, toZoneAssignmentDocument(assignment))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

// FindActiveByPicker returns the picker's ACTIVE assignment, or nil
func (r *ZoneAssignmentRepository) FindActiveByPicker(ctx context.Context, pickerID string) (*domain.ZoneAssignment, error) {
	filter := bson.M{"pickerId": pickerID, "status": domain.AssignmentStatusActive}

	var doc zoneAssignmentDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// ReleaseActive marks the picker's ACTIVE assignments RELEASED and returns them
func (r *ZoneAssignmentRepository) ReleaseActive(ctx context.Context, pickerID, releasedBy string, at time.Time) ([]*domain.ZoneAssignment, error) {
	filter := bson.M{"pickerId": pickerID, "status": domain.AssignmentStatusActive}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []zoneAssignmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []*domain.ZoneAssignment{}, nil
	}

	released := make([]*domain.ZoneAssignment, 0, len(docs))
	for _, d := range docs {
		update := bson.M{"$set": bson.M{
			"status":     domain.AssignmentStatusReleased,
			"releasedAt": at,
			"releasedBy": releasedBy,
		}}
		// a concurrent release may win; only report rows this call transitioned
		res, err := r.collection.UpdateOne(ctx, bson.M{"assignmentId": d.AssignmentID, "status": domain.AssignmentStatusActive}, update)
		if err != nil {
			return nil, fmt.Errorf("failed to release assignment %s: %w", d.AssignmentID, err)
		}
		if res.ModifiedCount == 0 {
			continue
		}

		a := d.toDomain()
		a.Status = domain.AssignmentStatusReleased
		releasedAt := at
		a.ReleasedAt = &releasedAt
		a.ReleasedBy = releasedBy
		released = append(released, a)
	}
	return released, nil
}

// CountActiveByZone counts pickers currently assigned to the zone
func (r *ZoneAssignmentRepository) CountActiveByZone(ctx context.Context, zoneID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"zoneId": zoneID, "status": domain.AssignmentStatusActive})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
