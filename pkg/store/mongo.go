package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowsmith/flowsmith/pkg/observability"
)

// MongoStore persists versions in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a store backed by the
// given database and collection. dbName defaults to "flowsmith",
// collName to "versions". A unique index on (workflow, number) guards the
// per-workflow sequence against concurrent writers.
func NewMongoStore(ctx context.Context, uri, dbName, collName string) (*MongoStore, error) {
	if dbName == "" {
		dbName = "flowsmith"
	}
	if collName == "" {
		collName = "versions"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(dbName).Collection(collName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workflow", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Put implements Store. The sequence number is claimed by inserting into
// the unique (workflow, number) index and retrying on collision, so two
// concurrent writers never share a number.
func (s *MongoStore) Put(ctx context.Context, workflow, document string) (Version, error) {
	if workflow == "" {
		return Version{}, ErrEmptyWorkflow
	}
	start := time.Now()

	for {
		next, err := s.nextNumber(ctx, workflow)
		if err != nil {
			observability.Store().OnError(ctx, "put", workflow, err)
			return Version{}, err
		}
		v := Version{
			ID:        uuid.NewString(),
			Workflow:  workflow,
			Number:    next,
			Document:  document,
			CreatedAt: time.Now().UTC(),
		}
		_, err = s.coll.InsertOne(ctx, v)
		if err == nil {
			observability.Store().OnPut(ctx, workflow, v.Number, time.Since(start))
			return v, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			continue // another writer claimed the number
		}
		observability.Store().OnError(ctx, "put", workflow, err)
		return Version{}, fmt.Errorf("insert version: %w", err)
	}
}

func (s *MongoStore) nextNumber(ctx context.Context, workflow string) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "number", Value: -1}})
	var latest Version
	err := s.coll.FindOne(ctx, bson.M{"workflow": workflow}, opts).Decode(&latest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find latest version: %w", err)
	}
	return latest.Number + 1, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, workflow string, number int) (Version, error) {
	var v Version
	err := s.coll.FindOne(ctx, bson.M{"workflow": workflow, "number": number}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Version{}, ErrNotFound
	}
	if err != nil {
		return Version{}, fmt.Errorf("find version: %w", err)
	}
	return v, nil
}

// Latest implements Store.
func (s *MongoStore) Latest(ctx context.Context, workflow string) (Version, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "number", Value: -1}})
	var v Version
	err := s.coll.FindOne(ctx, bson.M{"workflow": workflow}, opts).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Version{}, ErrNotFound
	}
	if err != nil {
		return Version{}, fmt.Errorf("find latest version: %w", err)
	}
	return v, nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, workflow string) ([]Version, error) {
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"workflow": workflow}, opts)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer cur.Close(ctx)

	var out []Version
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode versions: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
