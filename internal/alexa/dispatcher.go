package alexa

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"nexttram.org/internal/itinerary"
	"nexttram.org/internal/report"
)

// IntentHandler runs a parsed intent.
type IntentHandler interface {
	Handle(ctx context.Context, in itinerary.Intent) (itinerary.Outcome, error)
}

// Dispatcher turns decoded envelopes into spoken responses.
type Dispatcher struct {
	handler IntentHandler
	logger  *slog.Logger
}

func NewDispatcher(handler IntentHandler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{handler: handler, logger: logger}
}

// Respond answers env. The boolean is false for requests that take no
// response body, such as the end of a session.
func (d *Dispatcher) Respond(ctx context.Context, env *RequestEnvelope) (ResponseEnvelope, bool) {
	switch env.Request.Type {
	case LaunchRequest:
		return Ask(welcomeText), true
	case SessionEndedRequest:
		d.logger.Debug("Session ended", "caller_id", env.CallerID(), "reason", env.Request.Reason)
		return ResponseEnvelope{}, false
	}

	name := env.Request.Intent.Name
	switch name {
	case HelpIntent:
		return Ask(helpText), true
	case StopIntent, CancelIntent:
		return Say(goodbyeText, true), true
	}

	outcome, err := d.handler.Handle(ctx, itinerary.Intent{
		Name:     name,
		CallerID: env.CallerID(),
		Slots:    env.SlotValues(),
	})
	if err != nil {
		if !itinerary.IsUserFacing(err) {
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Tags: map[string]string{"intent": name},
				ExtraContext: map[string]interface{}{
					"request_id": env.Request.RequestID,
				},
				Level: sentry.LevelError,
			})
		}
		return Say(RenderError(err), false), true
	}
	return Say(RenderOutcome(outcome), false), true
}

// Malformed is the answer to an envelope that could not be decoded.
func Malformed() ResponseEnvelope {
	return Say(malformedText, true)
}
