package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/IshaanNene/planewatch/internal/types"
)

// --- Seen-set JSON file ---

// FileSeenStore keeps the seen-set as a JSON array of strings.
type FileSeenStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileSeenStore creates a store backed by the JSON file at path.
func NewFileSeenStore(path string, logger *slog.Logger) *FileSeenStore {
	return &FileSeenStore{
		path:   path,
		logger: logger.With("component", "seen_file"),
	}
}

func (s *FileSeenStore) Name() string { return "file" }

// Load implements SeenStore. Non-string array elements are dropped.
func (s *FileSeenStore) Load(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("seen file is not a JSON list, starting empty", "path", s.path, "error", err)
		return []string{}, nil
	}

	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		var id string
		if err := json.Unmarshal(r, &id); err != nil || id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Save implements SeenStore with a temp-file-then-rename write.
func (s *FileSeenStore) Save(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids == nil {
		ids = []string{}
	}
	if err := writeJSONAtomic(s.path, ids); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	s.logger.Debug("seen set saved", "path", s.path, "count", len(ids))
	return nil
}

func (s *FileSeenStore) Close() error { return nil }

// writeJSONAtomic encodes v next to path and renames it into place.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// --- JSONL ad archive ---

// archiveRecord is one archived ad.
type archiveRecord struct {
	RunID      string    `json:"run_id" bson:"run_id"`
	ArchivedAt time.Time `json:"archived_at" bson:"archived_at"`
	types.Ad   `bson:",inline"`
}

// JSONLArchive appends ads as newline-delimited JSON (one object per line).
type JSONLArchive struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLArchive opens (or creates) the JSONL file at path for appending.
func NewJSONLArchive(outputPath string, logger *slog.Logger) (*JSONLArchive, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}

	return &JSONLArchive{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_archive"),
	}, nil
}

func (s *JSONLArchive) Name() string { return "jsonl" }

func (s *JSONLArchive) Store(_ context.Context, runID string, ads []types.Ad) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, ad := range ads {
		rec := archiveRecord{RunID: runID, ArchivedAt: now, Ad: ad}
		if err := s.enc.Encode(rec); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	return nil
}

func (s *JSONLArchive) Close() error {
	s.logger.Debug("JSONL archive closed", "path", s.path, "items", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
