package itinerary

import (
	"context"
	"errors"

	"nexttram.org/internal/metrics"
	"nexttram.org/internal/schedule"
)

// Intent names and slot names understood by the engine.
const (
	IntentLeaveTime             = "LeaveTimeIntent"
	IntentSetDefaultDeparture   = "SetDefaultDeparture"
	IntentSetDefaultDestination = "SetDefaultDestination"
	IntentDeleteDefaults        = "DeleteDefaults"

	SlotDeparture   = "depart"
	SlotDestination = "destination"
	SlotLeadTime    = "temps"
)

// Intent is a parsed utterance. Slots holds only slots that carried a value.
type Intent struct {
	Name     string
	CallerID string
	Slots    map[string]string
}

type OutcomeKind int

const (
	OutcomeItinerary OutcomeKind = iota + 1
	OutcomeDepartureSaved
	OutcomeDestinationSaved
	OutcomeDefaultsCleared
)

// Outcome is the structured result of a handled intent. Itinerary is set for
// OutcomeItinerary; Stop and LeadMinutes describe what was saved otherwise.
type Outcome struct {
	Kind        OutcomeKind
	Itinerary   Itinerary
	Stop        StopRef
	LeadMinutes int
}

// Handle runs the operation named by the intent.
func (e *Engine) Handle(ctx context.Context, in Intent) (Outcome, error) {
	outcome, err := e.handle(ctx, in)
	metrics.IntentsTotal.WithLabelValues(intentLabel(in.Name), outcomeLabel(err)).Inc()
	if err != nil {
		e.logger.Info("Intent failed", "intent", in.Name, "caller_id", in.CallerID, "error", err)
	}
	return outcome, err
}

func (e *Engine) handle(ctx context.Context, in Intent) (Outcome, error) {
	switch in.Name {
	case IntentLeaveTime:
		it, err := e.NextDeparture(ctx, Query{
			CallerID:    in.CallerID,
			Departure:   in.Slots[SlotDeparture],
			Destination: in.Slots[SlotDestination],
			LeadTime:    in.Slots[SlotLeadTime],
		})
		return Outcome{Kind: OutcomeItinerary, Itinerary: it}, err

	case IntentSetDefaultDeparture:
		stop, lead, err := e.SetDefaultDeparture(in.CallerID, in.Slots[SlotDeparture], in.Slots[SlotLeadTime])
		return Outcome{Kind: OutcomeDepartureSaved, Stop: stop, LeadMinutes: lead}, err

	case IntentSetDefaultDestination:
		stop, err := e.SetDefaultDestination(in.CallerID, in.Slots[SlotDestination])
		return Outcome{Kind: OutcomeDestinationSaved, Stop: stop}, err

	case IntentDeleteDefaults:
		e.ClearDefaults(in.CallerID)
		return Outcome{Kind: OutcomeDefaultsCleared}, nil
	}
	return Outcome{}, ErrUnsupportedIntent
}

func intentLabel(name string) string {
	switch name {
	case IntentLeaveTime, IntentSetDefaultDeparture, IntentSetDefaultDestination, IntentDeleteDefaults:
		return name
	}
	return "unsupported"
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrUnknownStop):
		return "unknown_stop"
	case errors.Is(err, ErrMissingDeparture):
		return "missing_departure"
	case errors.Is(err, ErrMissingDestination):
		return "missing_destination"
	case errors.Is(err, ErrInvalidLeadTime):
		return "invalid_lead_time"
	case errors.Is(err, ErrUnsupportedIntent):
		return "unsupported_intent"
	case errors.Is(err, schedule.ErrNetworkFailure):
		return metrics.OutcomeNetworkFailure
	case errors.Is(err, schedule.ErrUnavailable):
		return metrics.OutcomeUnavailable
	}
	return metrics.OutcomeFailure
}
