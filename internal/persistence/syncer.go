package persistence

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"nexttram.org/internal/metrics"
	"nexttram.org/internal/preferences"
	"nexttram.org/internal/report"
)

// finalSyncTimeout bounds the last write made on shutdown.
const finalSyncTimeout = 10 * time.Second

// Source is the store being persisted.
type Source interface {
	Snapshot() preferences.Snapshot
	Restore(preferences.Snapshot)
}

// Syncer periodically writes the store to a Sink. A cycle is skipped when
// the encoded snapshot is byte-identical to the last one written, or when it
// exceeds maxBytes. Only the snapshot copy runs under the store's lock;
// encoding and writing happen outside it.
type Syncer struct {
	source   Source
	sink     Sink
	interval time.Duration
	maxBytes int
	logger   *slog.Logger

	mu       sync.Mutex
	lastHash [sha256.Size]byte
	hasLast  bool
}

func NewSyncer(source Source, sink Sink, interval time.Duration, maxBytes int, logger *slog.Logger) *Syncer {
	return &Syncer{
		source:   source,
		sink:     sink,
		interval: interval,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Restore loads the stored snapshot into the source and remembers it, so
// the first cycle after startup does not rewrite identical content.
func (s *Syncer) Restore(ctx context.Context) error {
	data, err := s.sink.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		s.logger.Info("No stored preferences, starting empty")
		return nil
	}
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  map[string]string{"component": "persistence"},
			Level: sentry.LevelError,
		})
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	snap, err := preferences.DecodeSnapshot(data)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:         map[string]string{"component": "persistence"},
			ExtraContext: map[string]interface{}{"payload_bytes": len(data)},
			Level:        sentry.LevelError,
		})
		return err
	}
	s.source.Restore(snap)

	// Stores may normalise the payload, so hash our own encoding of it.
	encoded, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode restored preferences: %w", err)
	}

	s.mu.Lock()
	s.lastHash = sha256.Sum256(encoded)
	s.hasLast = true
	s.mu.Unlock()

	metrics.StoredCallers.Set(float64(snap.Callers()))
	s.logger.Info("Restored preferences", "callers", snap.Callers(), "bytes", len(data))
	return nil
}

// SyncOnce runs one cycle and returns its outcome label.
func (s *Syncer) SyncOnce(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.source.Snapshot()
	payload, err := snap.Encode()
	if err != nil {
		metrics.PreferenceSyncTotal.WithLabelValues(metrics.SyncFailed).Inc()
		return metrics.SyncFailed, fmt.Errorf("failed to encode preferences: %w", err)
	}

	metrics.SnapshotBytes.Set(float64(len(payload)))
	metrics.StoredCallers.Set(float64(snap.Callers()))

	if s.maxBytes > 0 && len(payload) > s.maxBytes {
		s.logger.Warn("Preference snapshot too large, not written", "bytes", len(payload), "max_bytes", s.maxBytes)
		report.ReportErrorWithSentryOptions(fmt.Errorf("preference snapshot of %d bytes exceeds %d", len(payload), s.maxBytes), report.SentryReportOptions{
			Tags:  map[string]string{"component": "persistence"},
			Level: sentry.LevelWarning,
		})
		metrics.PreferenceSyncTotal.WithLabelValues(metrics.SyncOversize).Inc()
		return metrics.SyncOversize, nil
	}

	hash := sha256.Sum256(payload)
	if s.hasLast && hash == s.lastHash {
		metrics.PreferenceSyncTotal.WithLabelValues(metrics.SyncUnchanged).Inc()
		return metrics.SyncUnchanged, nil
	}

	snapshotID := uuid.NewString()
	if err := s.sink.Save(ctx, snapshotID, payload); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:         map[string]string{"component": "persistence"},
			ExtraContext: map[string]interface{}{"snapshot_id": snapshotID, "payload_bytes": len(payload)},
			Level:        sentry.LevelError,
		})
		metrics.PreferenceSyncTotal.WithLabelValues(metrics.SyncFailed).Inc()
		return metrics.SyncFailed, err
	}

	s.lastHash = hash
	s.hasLast = true
	metrics.PreferenceSyncTotal.WithLabelValues(metrics.SyncWritten).Inc()
	s.logger.Info("Preferences saved", "snapshot_id", snapshotID, "bytes", len(payload), "callers", snap.Callers())
	return metrics.SyncWritten, nil
}

// Run syncs every interval until ctx is cancelled, then syncs one last time.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping preference sync, writing final snapshot")
			flushCtx, cancel := context.WithTimeout(context.Background(), finalSyncTimeout)
			if _, err := s.SyncOnce(flushCtx); err != nil {
				s.logger.Error("Final preference sync failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				s.logger.Error("Preference sync failed", "error", err)
			}
		}
	}
}
