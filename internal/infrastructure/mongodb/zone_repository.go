package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
)

// ZoneRepository implements domain.ZoneRepository using MongoDB
type ZoneRepository struct {
	collection *mongo.Collection
}

// NewZoneRepository creates a new ZoneRepository
func NewZoneRepository(db *mongo.Database) *ZoneRepository {
	return &ZoneRepository{collection: db.Collection(ZonesCollection)}
}

// EnsureIndexes creates the zoneId index
func (r *ZoneRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "zoneId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create zone index: %w", err)
	}
	return nil
}

// FindAll retrieves every zone ordered by ID
func (r *ZoneRepository) FindAll(ctx context.Context) ([]*domain.Zone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "zoneId", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []zoneDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	zones := make([]*domain.Zone, 0, len(docs))
	for _, d := range docs {
		zones = append(zones, d.toDomain())
	}
	return zones, nil
}

// FindByID retrieves a zone by its ID
func (r *ZoneRepository) FindByID(ctx context.Context, zoneID string) (*domain.Zone, error) {
	var doc zoneDocument
	err := r.collection.FindOne(ctx, bson.M{"zoneId": zoneID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Upsert creates or replaces a zone definition
func (r *ZoneRepository) Upsert(ctx context.Context, zone *domain.Zone) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"zoneId": zone.ZoneID}
	update := bson.M{"$set": toZoneDocument(zone)}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert zone: %w", err)
	}
	return nil
}
