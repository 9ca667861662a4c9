package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nexttram.org/internal/metrics"
	"nexttram.org/internal/models"
)

// Failure kinds. Every error returned by a Gateway matches exactly one of
// them with errors.Is.
var (
	ErrNetworkFailure = errors.New("schedule source unreachable")
	ErrUnavailable    = errors.New("schedule unavailable")
)

// Gateway looks up the next departure for a stop, line and direction.
// A source that reports nothing scheduled yields NoUpcomingDeparture and a
// nil error.
type Gateway interface {
	NextDeparture(ctx context.Context, q models.ScheduleQuery) (models.ScheduleResult, error)
}

// GatewayError carries the failure kind along with a short reason and the
// underlying cause, if any.
type GatewayError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *GatewayError) Is(target error) bool {
	return target == e.Kind
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func networkFailure(reason string, err error) error {
	return &GatewayError{Kind: ErrNetworkFailure, Reason: reason, Err: err}
}

func unavailable(reason string, err error) error {
	return &GatewayError{Kind: ErrUnavailable, Reason: reason, Err: err}
}

// Instrumented records the outcome of every lookup made through g.
func Instrumented(g Gateway, provider string, logger *slog.Logger) Gateway {
	return &instrumentedGateway{next: g, provider: provider, logger: logger}
}

type instrumentedGateway struct {
	next     Gateway
	provider string
	logger   *slog.Logger
}

func (g *instrumentedGateway) NextDeparture(ctx context.Context, q models.ScheduleQuery) (models.ScheduleResult, error) {
	result, err := g.next.NextDeparture(ctx, q)

	outcome := metrics.OutcomeDeparture
	switch {
	case errors.Is(err, ErrNetworkFailure):
		outcome = metrics.OutcomeNetworkFailure
	case err != nil:
		outcome = metrics.OutcomeUnavailable
	case !result.Upcoming:
		outcome = metrics.OutcomeNoDeparture
	}
	metrics.ScheduleFetchesTotal.WithLabelValues(g.provider, outcome).Inc()

	if err != nil {
		g.logger.Warn("Schedule lookup failed",
			"provider", g.provider,
			"stop_id", q.StopID,
			"line_id", q.LineID,
			"direction", q.Direction.String(),
			"error", err)
	} else {
		g.logger.Debug("Schedule lookup", "provider", g.provider, "stop_id", q.StopID, "outcome", outcome, "minutes", result.Minutes)
	}
	return result, err
}
