package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
)

// OrderRepository reads the order store's orders collection. The scheduler
// never writes orders.
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(OrdersCollection)}
}

// EnsureIndexes creates the indexes behind the candidate queries
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "carrierCutoff", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "requiredShipDate", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "primaryZone", Value: 1}},
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

// FindCandidates returns the orders matching the filter, unranked
func (r *OrderRepository) FindCandidates(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, error) {
	return r.find(ctx, candidateFilter(f))
}

// FindByIDs returns the orders with the given IDs, in no particular order.
// Missing IDs are skipped.
func (r *OrderRepository) FindByIDs(ctx context.Context, orderIDs []string) ([]*domain.Order, error) {
	if len(orderIDs) == 0 {
		return []*domain.Order{}, nil
	}
	return r.find(ctx, bson.M{"orderId": bson.M{"$in": orderIDs}})
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

func candidateFilter(f domain.OrderFilter) bson.M {
	filter := bson.M{}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.CarrierCutoffBefore != nil {
		filter["carrierCutoff"] = bson.M{"$lte": *f.CarrierCutoffBefore}
	}
	if len(f.Carriers) > 0 {
		filter["carrier"] = bson.M{"$in": f.Carriers}
	}
	if len(f.Priorities) > 0 {
		priorities := make([]string, 0, len(f.Priorities))
		for _, p := range f.Priorities {
			priorities = append(priorities, string(p))
		}
		filter["priority"] = bson.M{"$in": priorities}
	}
	if len(f.Zones) > 0 {
		filter["primaryZone"] = bson.M{"$in": f.Zones}
	}
	if f.RequiredShipBefore != nil {
		filter["requiredShipDate"] = bson.M{"$lte": *f.RequiredShipBefore}
	}
	return filter
}
