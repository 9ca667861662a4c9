package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"nexttram.org/internal/utils"
)

// ErrNoSnapshot is returned by Load when nothing was ever saved.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Sink is durable storage for a single preference snapshot. Save replaces
// whatever was stored before.
type Sink interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, snapshotID string, payload []byte) error
	Close() error
}

// FileSink keeps the snapshot in one JSON file, replaced atomically.
type FileSink struct {
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	if err := utils.EnsureDirectory(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &FileSink{path: path}, nil
}

func (s *FileSink) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return data, nil
}

func (s *FileSink) Save(_ context.Context, _ string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	return nil
}
