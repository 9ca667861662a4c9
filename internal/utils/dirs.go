package utils

import (
	"fmt"
	"os"

	"github.com/getsentry/sentry-go"
	"nexttram.org/internal/report"
)

// EnsureDirectory makes sure dir exists and is a directory, creating it
// (with parents) when missing.
func EnsureDirectory(dir string) error {
	stat, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Level: sentry.LevelError,
				ExtraContext: map[string]interface{}{
					"directory": dir,
				},
			})
			return err
		}
		return nil
	}
	if !stat.IsDir() {
		err := fmt.Errorf("%s is not a directory", dir)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Level: sentry.LevelError,
			ExtraContext: map[string]interface{}{
				"directory": dir,
			},
		})
		return err
	}
	return nil
}
