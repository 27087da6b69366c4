package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/remote"
)

// Remote implements remote.Store against MongoDB. Change-stream subscriptions
// require a replica set deployment (Atlas qualifies). Every stream event
// triggers a full re-read of the collection, so each emission is an
// authoritative snapshot rather than a delta.
type Remote struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Remote, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Remote{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// Close closes the MongoDB connection.
func (r *Remote) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Watch opens a change-stream subscription on one collection. The current
// state is emitted immediately, then again after every remote change, until
// ctx is cancelled or the stream fails terminally.
func (r *Remote) Watch(ctx context.Context, collection models.Collection) (<-chan remote.Emission, error) {
	stream, err := r.db.Collection(string(collection)).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, classify(err)
	}

	out := make(chan remote.Emission)
	go func() {
		defer close(out)
		defer func() { _ = stream.Close(context.Background()) }()

		if !r.emit(ctx, collection, out) {
			return
		}

		for stream.Next(ctx) {
			if !r.emit(ctx, collection, out) {
				return
			}
		}

		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("change stream terminated",
				zap.String("collection", string(collection)), zap.Error(err))
			select {
			case out <- remote.Emission{Collection: collection, Err: classify(err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// emit re-reads the collection and pushes a snapshot emission. It reports
// whether the subscription should keep going.
func (r *Remote) emit(ctx context.Context, collection models.Collection, out chan<- remote.Emission) bool {
	snap, err := r.read(ctx, collection)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		select {
		case out <- remote.Emission{Collection: collection, Err: classify(err)}:
		case <-ctx.Done():
		}
		return false
	}

	select {
	case out <- remote.Emission{Collection: collection, Snapshot: snap}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Remote) read(ctx context.Context, collection models.Collection) (remote.CollectionSnapshot, error) {
	var snap remote.CollectionSnapshot
	coll := r.db.Collection(string(collection))

	switch collection {
	case models.CollectionSettings:
		var s models.Settings
		err := coll.FindOne(ctx, bson.M{"_id": models.SettingsID}).Decode(&s)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			s = models.DefaultSettings()
		case err != nil:
			return snap, err
		}
		snap.Settings = &s
	case models.CollectionProducts:
		if err := readAll(ctx, coll, nil, &snap.Products); err != nil {
			return snap, err
		}
	case models.CollectionCustomers:
		if err := readAll(ctx, coll, nil, &snap.Customers); err != nil {
			return snap, err
		}
	case models.CollectionOrders:
		// Date-descending ordering is part of the orders query contract and is
		// requested server-side so the index requirement surfaces here.
		opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
		if err := readAll(ctx, coll, opts, &snap.Orders); err != nil {
			return snap, err
		}
	case models.CollectionExpenses:
		if err := readAll(ctx, coll, nil, &snap.Expenses); err != nil {
			return snap, err
		}
	case models.CollectionPayments:
		if err := readAll(ctx, coll, nil, &snap.Payments); err != nil {
			return snap, err
		}
	default:
		return snap, fmt.Errorf("unknown collection %q", collection)
	}

	return snap, nil
}

func readAll(ctx context.Context, coll *mongo.Collection, opts *options.FindOptions, dest any) error {
	var (
		cursor *mongo.Cursor
		err    error
	)
	if opts != nil {
		cursor, err = coll.Find(ctx, bson.M{}, opts)
	} else {
		cursor, err = coll.Find(ctx, bson.M{})
	}
	if err != nil {
		return err
	}
	return cursor.All(ctx, dest)
}

// Create inserts a document carrying a client-generated _id.
func (r *Remote) Create(ctx context.Context, collection models.Collection, doc any) error {
	if _, err := r.db.Collection(string(collection)).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s: %w", collection, classify(err))
	}
	return nil
}

// Update sets the given fields on an existing document.
func (r *Remote) Update(ctx context.Context, collection models.Collection, id string, fields map[string]any) error {
	res, err := r.db.Collection(string(collection)).UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, classify(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s/%s: document not found", collection, id)
	}
	return nil
}

// Upsert replaces a document wholesale, creating it when absent. Used for the
// settings singleton.
func (r *Remote) Upsert(ctx context.Context, collection models.Collection, id string, doc any) error {
	_, err := r.db.Collection(string(collection)).
		ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, classify(err))
	}
	return nil
}

// classify maps server error codes onto the package error kinds so callers
// can react without parsing messages.
func classify(err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 13, 8000: // Unauthorized, AtlasError
			return fmt.Errorf("%w: %s", remote.ErrPermissionDenied, cmdErr.Message)
		case 292: // QueryExceededMemoryLimitNoDiskUseAllowed: the sort needs an index
			return fmt.Errorf("%w: %s", remote.ErrIndexRequired, cmdErr.Message)
		}
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == 13 {
				return fmt.Errorf("%w: %s", remote.ErrPermissionDenied, we.Message)
			}
		}
	}

	return err
}
