package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/planewatch/internal/types"
)

// MongoArchive upserts digested ads into a MongoDB collection keyed by ad id.
type MongoArchive struct {
	client     *mongo.Client
	collection *mongo.Collection
	count      int
	logger     *slog.Logger
}

// NewMongoArchive connects to uri and pings the server.
func NewMongoArchive(uri, database, collection string, logger *slog.Logger) (*MongoArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoArchive{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_archive"),
	}, nil
}

func (s *MongoArchive) Name() string { return "mongodb" }

func (s *MongoArchive) Store(ctx context.Context, runID string, ads []types.Ad) error {
	if len(ads) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(ads))
	for _, ad := range ads {
		rec := archiveRecord{RunID: runID, ArchivedAt: now, Ad: ad}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"ad_id": ad.ID}).
			SetReplacement(rec).
			SetUpsert(true))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("mongodb bulk write: %w", err)}
	}

	s.count += len(ads)
	s.logger.Debug("ads archived in mongodb", "count", len(ads), "total", s.count)
	return nil
}

func (s *MongoArchive) Close() error {
	s.logger.Debug("mongodb archive closing", "total_items", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
