package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-scheduler/pkg/outbox"
)

// CollectionName is the outbox collection
const CollectionName = "outbox_events"

// relayed messages are kept this long for replay and debugging
const publishedTTL = 7 * 24 * time.Hour

// relayOrder is event time, then save order for events sharing a timestamp
var relayOrder = bson.D{{Key: "createdAt", Value: 1}, {Key: "seq", Value: 1}}

// Repository stores outbox messages in MongoDB
type Repository struct {
	collection *mongo.Collection
}

// NewRepository creates a Repository on db
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection(CollectionName)}
}

// SaveAll inserts messages in order. Pass the session context to join the
// aggregate's transaction.
func (r *Repository) SaveAll(ctx context.Context, messages []*outbox.Message) error {
	if len(messages) == 0 {
		return nil
	}

	base := time.Now().UnixNano()
	docs := make([]interface{}, len(messages))
	for i, msg := range messages {
		msg.Seq = base + int64(i)
		docs[i] = msg
	}

	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to save outbox messages: %w", err)
	}
	return nil
}

// FindUnpublished returns up to limit pending messages in relay order
func (r *Repository) FindUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	filter := bson.M{
		"publishedAt": bson.M{"$exists": false},
		"$expr":       bson.M{"$lt": bson.A{"$retryCount", "$maxRetries"}},
	}
	return r.find(ctx, filter, options.Find().SetSort(relayOrder).SetLimit(int64(limit)))
}

// FindByAggregate returns every message of one aggregate in relay order
func (r *Repository) FindByAggregate(ctx context.Context, aggregateType, aggregateID string) ([]*outbox.Message, error) {
	filter := bson.M{"aggregateType": aggregateType, "aggregateId": aggregateID}
	return r.find(ctx, filter, options.Find().SetSort(relayOrder))
}

func (r *Repository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*outbox.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*outbox.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode outbox messages: %w", err)
	}
	return messages, nil
}

// MarkPublished stamps the message as relayed
func (r *Repository) MarkPublished(ctx context.Context, messageID string) error {
	return r.update(ctx, messageID, bson.M{"$set": bson.M{"publishedAt": time.Now().UTC()}})
}

// IncrementRetry counts a failed relay and keeps its error
func (r *Repository) IncrementRetry(ctx context.Context, messageID string, errorMsg string) error {
	return r.update(ctx, messageID, bson.M{
		"$inc": bson.M{"retryCount": 1},
		"$set": bson.M{"lastError": errorMsg},
	})
}

func (r *Repository) update(ctx context.Context, messageID string, update bson.M) error {
	result, err := r.collection.UpdateByID(ctx, messageID, update)
	if err != nil {
		return fmt.Errorf("failed to update outbox message %s: %w", messageID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox message %s not found", messageID)
	}
	return nil
}

// EnsureIndexes creates the polling, aggregate and expiry indexes
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetName("idx_pending"),
		},
		{
			Keys:    bson.D{{Key: "aggregateType", Value: 1}, {Key: "aggregateId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_aggregate"),
		},
		{
			// documents without publishedAt never expire
			Keys:    bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().
				SetName("idx_published_ttl").
				SetExpireAfterSeconds(int32(publishedTTL.Seconds())),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}
