package report

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SetupSentry initialises the global Sentry client. An empty DSN leaves the
// client disabled, which is what tests and local runs use.
func SetupSentry(dsn, env, release string) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		EnableTracing:    true,
		Debug:            env == "development",
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	if dsn != "" {
		sentry.CaptureMessage("nexttram started")
	}
	return nil
}

// FlushSentry waits for buffered events to be delivered.
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
