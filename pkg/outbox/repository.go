package outbox

import "context"

// Repository defines the interface for outbox event persistence
type Repository interface {
	// SaveAll saves multiple outbox events; callers pass a session context to join a transaction
	SaveAll(ctx context.Context, events []*Message) error

	// FindUnpublished retrieves unpublished, still-retryable events oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished marks an event as published
	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error
}
