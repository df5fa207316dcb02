package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

// AuditLog writes audit entries to audit_logs and mirrors them to the audit log stream
type AuditLog struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewAuditLog creates a new AuditLog
func NewAuditLog(db *mongo.Database, logger *logging.Logger) *AuditLog {
	return &AuditLog{
		collection: db.Collection(AuditLogsCollection),
		logger:     logger,
	}
}

// EnsureIndexes creates the audit lookup indexes
func (a *AuditLog) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "resourceType", Value: 1}, {Key: "resourceId", Value: 1}, {Key: "occurredAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "occurredAt", Value: -1}}},
	}
	if _, err := a.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

// Log stores an audit entry
func (a *AuditLog) Log(ctx context.Context, entry domain.AuditEntry) error {
	if _, err := a.collection.InsertOne(ctx, toAuditDocument(entry)); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	a.logger.Audit(ctx, logging.AuditRecord{
		Action:     entry.Action,
		Resource:   entry.ResourceType,
		ResourceID: entry.ResourceID,
		UserID:     entry.UserID,
		Details:    entry.Details,
	})
	return nil
}
