package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-scheduler/pkg/kafka"
	pkgmongo "github.com/wms-platform/fulfillment-scheduler/pkg/mongodb"
	"github.com/wms-platform/fulfillment-scheduler/pkg/outbox"
	outboxMongo "github.com/wms-platform/fulfillment-scheduler/pkg/outbox/mongodb"
)

// WaveRepository implements domain.WaveRepository using MongoDB. The wave row,
// its pick tasks and its outbox events are written in one transaction.
type WaveRepository struct {
	waves        *mongo.Collection
	tasks        *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.Repository
	eventFactory *cloudevents.EventFactory
	now          func() time.Time
}

// NewWaveRepository creates a new WaveRepository
func NewWaveRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *WaveRepository {
	return &WaveRepository{
		waves:        db.Collection(WavesCollection),
		tasks:        db.Collection(PickTasksCollection),
		db:           db,
		outboxRepo:   outboxMongo.NewRepository(db),
		eventFactory: eventFactory,
		now:          time.Now,
	}
}

// EnsureIndexes creates the wave, task and outbox indexes
func (r *WaveRepository) EnsureIndexes(ctx context.Context) error {
	waveIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "waveId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "assignedPickers", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}
	if _, err := r.waves.Indexes().CreateMany(ctx, waveIndexes); err != nil {
		return fmt.Errorf("failed to create wave indexes: %w", err)
	}

	taskIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "taskId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "waveId", Value: 1}, {Key: "sequence", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "zone", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "zone", Value: 1}, {Key: "status", Value: 1}, {Key: "completedAt", Value: -1}},
		},
	}
	if _, err := r.tasks.Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return fmt.Errorf("failed to create pick task indexes: %w", err)
	}

	return r.outboxRepo.EnsureIndexes(ctx)
}

// Create inserts a new wave with its tasks and pending events
func (r *WaveRepository) Create(ctx context.Context, wave *domain.Wave) error {
	wave.UpdatedAt = r.now()

	doc := toWaveDocument(wave)
	doc.Version = 1

	err := pkgmongo.WithTransaction(ctx, r.db.Client(), func(sessCtx mongo.SessionContext) error {
		if _, err := r.waves.InsertOne(sessCtx, doc); err != nil {
			return fmt.Errorf("failed to insert wave: %w", err)
		}

		if len(wave.PickTasks) > 0 {
			docs := make([]interface{}, 0, len(wave.PickTasks))
			for _, t := range wave.PickTasks {
				docs = append(docs, toPickTaskDocument(t))
			}
			if _, err := r.tasks.InsertMany(sessCtx, docs); err != nil {
				return fmt.Errorf("failed to insert pick tasks: %w", err)
			}
		}

		return r.saveEvents(sessCtx, wave)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	wave.Version = doc.Version
	wave.ClearDomainEvents()
	return nil
}

// Save persists wave and task state changes with their pending events. The
// write only applies if the stored wave is still at wave.Version; otherwise it
// fails with domain.ErrWaveConflict and nothing is written.
func (r *WaveRepository) Save(ctx context.Context, wave *domain.Wave) error {
	wave.UpdatedAt = r.now()
	doc := toWaveDocument(wave)
	doc.Version = wave.Version + 1

	err := pkgmongo.WithTransaction(ctx, r.db.Client(), func(sessCtx mongo.SessionContext) error {
		filter := bson.M{"waveId": wave.WaveID, "version": wave.Version}
		result, err := r.waves.UpdateOne(sessCtx, filter, bson.M{"$set": doc})
		if err != nil {
			return fmt.Errorf("failed to save wave: %w", err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("%w: %s is no longer at version %d", domain.ErrWaveConflict, wave.WaveID, wave.Version)
		}

		if len(wave.PickTasks) > 0 {
			models := make([]mongo.WriteModel, 0, len(wave.PickTasks))
			for _, t := range wave.PickTasks {
				models = append(models, mongo.NewReplaceOneModel().
					SetFilter(bson.M{"taskId": t.TaskID}).
					SetReplacement(toPickTaskDocument(t)).
					SetUpsert(true))
			}
			if _, err := r.tasks.BulkWrite(sessCtx, models, options.BulkWrite().SetOrdered(false)); err != nil {
				return fmt.Errorf("failed to save pick tasks: %w", err)
			}
		}

		return r.saveEvents(sessCtx, wave)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	wave.Version = doc.Version
	wave.ClearDomainEvents()
	return nil
}

func (r *WaveRepository) saveEvents(ctx context.Context, wave *domain.Wave) error {
	events := wave.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		topic := kafka.Topics.WavesEvents
		switch event.(type) {
		case *domain.WaveCreatedEvent, *domain.WaveReleasedEvent, *domain.WaveStartedEvent, *domain.WaveCompletedEvent:
		case *domain.PickTaskStartedEvent, *domain.PickTaskCompletedEvent:
			topic = kafka.Topics.PickingEvents
		default:
			continue
		}

		ce := r.eventFactory.CreateWaveEvent(ctx, event.EventType(), wave.WaveID, event)
		ce.Time = event.OccurredAt().UTC()

		outboxEvent, err := outbox.NewMessage("Wave", wave.WaveID, topic, ce)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if err := r.outboxRepo.SaveAll(ctx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

// FindByID retrieves a wave and its tasks in route order
func (r *WaveRepository) FindByID(ctx context.Context, waveID string) (*domain.Wave, error) {
	var doc waveDocument
	err := r.waves.FindOne(ctx, bson.M{"waveId": waveID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	waves, err := r.withTasks(ctx, []waveDocument{doc})
	if err != nil {
		return nil, err
	}
	return waves[0], nil
}

// FindByStatus lists waves newest first. An empty status matches every wave.
func (r *WaveRepository) FindByStatus(ctx context.Context, status domain.WaveStatus, limit int) ([]*domain.Wave, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "waveId", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	return r.find(ctx, filter, opts)
}

// FindActiveByPicker retrieves RELEASED and IN_PROGRESS waves the picker is assigned to
func (r *WaveRepository) FindActiveByPicker(ctx context.Context, pickerID string) ([]*domain.Wave, error) {
	filter := bson.M{
		"assignedPickers": pickerID,
		"status": bson.M{
			"$in": []domain.WaveStatus{domain.WaveStatusReleased, domain.WaveStatusInProgress},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	return r.find(ctx, filter, opts)
}

// OutboxRepository returns the outbox the wave events are written to
func (r *WaveRepository) OutboxRepository() outbox.Repository {
	return r.outboxRepo
}

func (r *WaveRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Wave, error) {
	cursor, err := r.waves.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []waveDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []*domain.Wave{}, nil
	}

	return r.withTasks(ctx, docs)
}

// withTasks loads the tasks of all given waves with a single query
func (r *WaveRepository) withTasks(ctx context.Context, docs []waveDocument) ([]*domain.Wave, error) {
	waveIDs := make([]string, 0, len(docs))
	for _, d := range docs {
		waveIDs = append(waveIDs, d.WaveID)
	}

	opts := options.Find().SetSort(bson.D{{Key: "waveId", Value: 1}, {Key: "sequence", Value: 1}})
	cursor, err := r.tasks.Find(ctx, bson.M{"waveId": bson.M{"$in": waveIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load pick tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var taskDocs []pickTaskDocument
	if err := cursor.All(ctx, &taskDocs); err != nil {
		return nil, fmt.Errorf("failed to decode pick tasks: %w", err)
	}

	byWave := make(map[string][]*domain.PickTask, len(docs))
	for _, t := range taskDocs {
		byWave[t.WaveID] = append(byWave[t.WaveID], t.toDomain())
	}

	waves := make([]*domain.Wave, 0, len(docs))
	for _, d := range docs {
		tasks := byWave[d.WaveID]
		if tasks == nil {
			tasks = []*domain.PickTask{}
		}
		waves = append(waves, d.toDomain(tasks))
	}
	return waves, nil
}
