package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"nexttram.org/internal/metrics"
	"nexttram.org/internal/models"
	"nexttram.org/internal/preferences"
)

// memorySink records every write.
type memorySink struct {
	mu      sync.Mutex
	payload []byte
	ids     []string
	saveErr error
	loadErr error
}

func (m *memorySink) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.payload == nil {
		return nil, ErrNoSnapshot
	}
	return m.payload, nil
}

func (m *memorySink) Save(_ context.Context, snapshotID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.payload = append([]byte(nil), payload...)
	m.ids = append(m.ids, snapshotID)
	return nil
}

func (m *memorySink) Close() error { return nil }

func (m *memorySink) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncOnceWritesOnlyOnChange(t *testing.T) {
	store := preferences.NewMemoryStore()
	sink := &memorySink{}
	syncer := NewSyncer(store, sink, time.Minute, 50_000_000, testLogger())
	ctx := context.Background()

	_ = store.SetDeparture("caller", models.DefaultDeparture{StopID: 104, LeadMinutes: 10})

	if outcome, err := syncer.SyncOnce(ctx); err != nil || outcome != metrics.SyncWritten {
		t.Fatalf("first cycle: got %s, %v", outcome, err)
	}
	if outcome, err := syncer.SyncOnce(ctx); err != nil || outcome != metrics.SyncUnchanged {
		t.Fatalf("second cycle: got %s, %v", outcome, err)
	}
	if sink.writes() != 1 {
		t.Fatalf("expected exactly one write, got %d", sink.writes())
	}

	store.SetDestination("caller", 109)
	if outcome, _ := syncer.SyncOnce(ctx); outcome != metrics.SyncWritten {
		t.Errorf("expected a write after a change, got %s", outcome)
	}
	if sink.writes() != 2 {
		t.Errorf("expected two writes, got %d", sink.writes())
	}

	for _, id := range sink.ids {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("snapshot id %q is not a UUID: %v", id, err)
		}
	}
	if sink.ids[0] == sink.ids[1] {
		t.Error("expected a fresh id per write")
	}
}

func TestSyncOnceSkipsOversizedSnapshot(t *testing.T) {
	store := preferences.NewMemoryStore()
	sink := &memorySink{}
	syncer := NewSyncer(store, sink, time.Minute, 64, testLogger())

	for _, caller := range []string{"amzn1.ask.account.AAAA", "amzn1.ask.account.BBBB", "amzn1.ask.account.CCCC"} {
		store.SetDestination(caller, 101)
	}

	outcome, err := syncer.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if outcome != metrics.SyncOversize {
		t.Errorf("expected %s, got %s", metrics.SyncOversize, outcome)
	}
	if sink.writes() != 0 {
		t.Errorf("expected no write, got %d", sink.writes())
	}

	store.Clear("amzn1.ask.account.AAAA")
	store.Clear("amzn1.ask.account.BBBB")
	store.Clear("amzn1.ask.account.CCCC")
	if outcome, _ := syncer.SyncOnce(context.Background()); outcome != metrics.SyncWritten {
		t.Errorf("expected a write once the snapshot fits, got %s", outcome)
	}
}

func TestSyncOnceSaveFailure(t *testing.T) {
	store := preferences.NewMemoryStore()
	sink := &memorySink{saveErr: errors.New("disk full")}
	syncer := NewSyncer(store, sink, time.Minute, 0, testLogger())

	outcome, err := syncer.SyncOnce(context.Background())
	if err == nil || outcome != metrics.SyncFailed {
		t.Fatalf("expected a failure, got %s, %v", outcome, err)
	}

	// The failed content must be retried on the next cycle.
	sink.saveErr = nil
	if outcome, _ := syncer.SyncOnce(context.Background()); outcome != metrics.SyncWritten {
		t.Errorf("expected a retry to write, got %s", outcome)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	sink := &memorySink{payload: []byte(`{"default_departures": {"a": [104, 10]}, "default_destinations": {"a": 109, "b": 101}}`)}
	store := preferences.NewMemoryStore()
	syncer := NewSyncer(store, sink, time.Minute, 0, testLogger())

	if err := syncer.Restore(ctx); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if d, ok := store.Departure("a"); !ok || d != (models.DefaultDeparture{StopID: 104, LeadMinutes: 10}) {
		t.Errorf("unexpected departure %+v", d)
	}
	if got, _ := store.Destination("b"); got != 101 {
		t.Errorf("unexpected destination %d", got)
	}

	// Same content, different formatting: nothing to write.
	if outcome, _ := syncer.SyncOnce(ctx); outcome != metrics.SyncUnchanged {
		t.Errorf("expected %s right after restore, got %s", metrics.SyncUnchanged, outcome)
	}
}

func TestRestoreEmptyAndBroken(t *testing.T) {
	ctx := context.Background()

	store := preferences.NewMemoryStore()
	if err := NewSyncer(store, &memorySink{}, time.Minute, 0, testLogger()).Restore(ctx); err != nil {
		t.Errorf("expected an empty sink to be fine, got %v", err)
	}

	err := NewSyncer(store, &memorySink{payload: []byte("{broken")}, time.Minute, 0, testLogger()).Restore(ctx)
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("expected a decode error, got %v", err)
	}

	err = NewSyncer(store, &memorySink{loadErr: errors.New("permission denied")}, time.Minute, 0, testLogger()).Restore(ctx)
	if err == nil {
		t.Error("expected the load error to be returned")
	}
}

func TestRunFlushesOnShutdown(t *testing.T) {
	store := preferences.NewMemoryStore()
	sink := &memorySink{}
	syncer := NewSyncer(store, sink, time.Hour, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		syncer.Run(ctx)
		close(done)
	}()

	store.SetDestination("caller", 107)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if sink.writes() != 1 {
		t.Errorf("expected the final flush to write once, got %d", sink.writes())
	}
}

func TestRunTicks(t *testing.T) {
	store := preferences.NewMemoryStore()
	sink := &memorySink{}
	syncer := NewSyncer(store, sink, 10*time.Millisecond, 0, testLogger())
	store.SetDestination("caller", 107)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for sink.writes() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected a periodic write")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if sink.writes() != 1 {
		t.Errorf("unchanged content must not be rewritten, got %d writes", sink.writes())
	}
}
