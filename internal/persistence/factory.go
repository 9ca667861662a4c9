package persistence

import (
	"context"
	"fmt"

	"nexttram.org/internal/config"
)

// NewSinkFromConfig opens the configured backend.
func NewSinkFromConfig(ctx context.Context, cfg config.PersistenceConfig) (Sink, error) {
	switch cfg.Backend {
	case "file":
		return NewFileSink(cfg.Path)
	case "sqlite":
		return NewSQLiteSink(ctx, cfg.Path)
	case "postgres":
		return NewPostgresSink(ctx, cfg.DSN)
	}
	return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
}
