package schedule

import (
	"fmt"
	"log/slog"
	"net/http"

	"nexttram.org/internal/config"
)

// NewFromConfig builds the configured gateway, wrapped with metrics and logging.
func NewFromConfig(cfg config.ScheduleConfig, client *http.Client, logger *slog.Logger) (Gateway, error) {
	var g Gateway
	switch cfg.Provider {
	case "astuce":
		g = NewAstuceGateway(client, cfg.Astuce.URL, cfg.Timeout, cfg.MaxRetries)
	case "gtfsrt":
		g = NewGTFSRTGateway(client, cfg.GTFSRT, cfg.Timeout, cfg.MaxRetries)
	case "oba":
		g = NewOBAGateway(client, cfg.OBA, cfg.Timeout, cfg.MaxRetries)
	default:
		return nil, fmt.Errorf("unknown schedule provider %q", cfg.Provider)
	}
	return Instrumented(g, cfg.Provider, logger), nil
}
