package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nexttram.org/internal/config"
)

func exerciseSink(t *testing.T, sink Sink) {
	t.Helper()
	ctx := context.Background()

	if _, err := sink.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot from an empty sink, got %v", err)
	}

	first := []byte(`{"default_departures":{"a":[104,10]},"default_destinations":{}}`)
	if err := sink.Save(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e", first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := sink.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != string(first) {
		t.Errorf("got %s, want %s", got, first)
	}

	second := []byte(`{"default_departures":{},"default_destinations":{"b":109}}`)
	if err := sink.Save(ctx, "7c9e6679-7425-40de-944b-e07fc1f90ae7", second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err = sink.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != string(second) {
		t.Errorf("expected the snapshot to be replaced, got %s", got)
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	sink, err := NewFileSink(filepath.Join(dir, "preferences.json"))
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	defer sink.Close()

	exerciseSink(t, sink)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file to remain, got %d entries", len(entries))
	}
}

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.db")
	sink, err := NewSQLiteSink(context.Background(), path)
	if err != nil {
		t.Fatalf("NewSQLiteSink failed: %v", err)
	}

	exerciseSink(t, sink)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteSink(context.Background(), path)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Load(context.Background()); err != nil {
		t.Errorf("expected the snapshot to survive a reopen, got %v", err)
	}
}

func TestNewSinkFromConfig(t *testing.T) {
	dir := t.TempDir()

	fileSink, err := NewSinkFromConfig(context.Background(), config.PersistenceConfig{Backend: "file", Path: filepath.Join(dir, "p.json")})
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	if _, ok := fileSink.(*FileSink); !ok {
		t.Errorf("expected *FileSink, got %T", fileSink)
	}

	sqliteSink, err := NewSinkFromConfig(context.Background(), config.PersistenceConfig{Backend: "sqlite", Path: filepath.Join(dir, "p.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer sqliteSink.Close()
	if _, ok := sqliteSink.(*SQLiteSink); !ok {
		t.Errorf("expected *SQLiteSink, got %T", sqliteSink)
	}

	if _, err := NewSinkFromConfig(context.Background(), config.PersistenceConfig{Backend: "tape"}); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}
