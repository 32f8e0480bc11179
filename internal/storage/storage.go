package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/types"
)

// SeenStore persists the set of ad ids that were already digested.
type SeenStore interface {
	// Load returns the persisted ids in stored order. A missing or
	// malformed store yields an empty list and no error.
	Load(ctx context.Context) ([]string, error)

	// Save replaces the persisted ids with ids, keeping their order.
	Save(ctx context.Context, ids []string) error

	// Close releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// Archive records the ads that went out in a digest.
type Archive interface {
	// Store persists ads under runID.
	Store(ctx context.Context, runID string, ads []types.Ad) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// NewSeenStore builds the seen-set backend selected by cfg.SeenBackend.
func NewSeenStore(cfg *config.StorageConfig, logger *slog.Logger) (SeenStore, error) {
	switch cfg.SeenBackend {
	case "", "file":
		return NewFileSeenStore(cfg.SeenFile, logger), nil
	case "sqlite":
		return NewSQLiteSeenStore(cfg.SeenDB, logger)
	default:
		return nil, fmt.Errorf("unknown seen backend %q", cfg.SeenBackend)
	}
}

// NewArchive builds the ad archive selected by cfg.Type. "none" returns a
// no-op archive.
func NewArchive(cfg *config.ArchiveConfig, logger *slog.Logger) (Archive, error) {
	switch cfg.Type {
	case "", "none":
		return nopArchive{}, nil
	case "jsonl":
		return NewJSONLArchive(cfg.Path, logger)
	case "mongodb":
		return NewMongoArchive(cfg.MongoURI, cfg.Database, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

type nopArchive struct{}

func (nopArchive) Store(context.Context, string, []types.Ad) error { return nil }
func (nopArchive) Close() error                                    { return nil }
func (nopArchive) Name() string                                    { return "none" }
