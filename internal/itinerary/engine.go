package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"nexttram.org/internal/catalog"
	"nexttram.org/internal/models"
	"nexttram.org/internal/preferences"
	"nexttram.org/internal/report"
	"nexttram.org/internal/routing"
	"nexttram.org/internal/schedule"
	"nexttram.org/internal/utils"
)

// StopRef names a resolved stop.
type StopRef struct {
	ID   int
	Name string
}

// Itinerary is the answer to a next-departure query. When Upcoming is false
// nothing is scheduled and the minute fields are zero. Missed is set when the
// lead time leaves no time to reach the stop (RawMinutes <= LeadMinutes);
// WaitMinutes is then zero.
type Itinerary struct {
	Departure   StopRef
	Destination StopRef
	Direction   models.Direction
	Upcoming    bool
	RawMinutes  int
	LeadMinutes int
	WaitMinutes int
	Missed      bool
}

// Query is a next-departure request. Empty names fall back to the caller's
// stored defaults; an empty LeadTime keeps the lead of the departure used.
type Query struct {
	CallerID    string
	Departure   string
	Destination string
	LeadTime    string
}

// Engine answers next-departure queries and manages caller defaults.
type Engine struct {
	catalog    *catalog.Catalog
	stops      *routing.StopResolver
	directions *routing.DirectionResolver
	gateway    schedule.Gateway
	store      preferences.Store
	lineID     int
	logger     *slog.Logger
}

func NewEngine(c *catalog.Catalog, stops *routing.StopResolver, directions *routing.DirectionResolver, gateway schedule.Gateway, store preferences.Store, lineID int, logger *slog.Logger) *Engine {
	return &Engine{
		catalog:    c,
		stops:      stops,
		directions: directions,
		gateway:    gateway,
		store:      store,
		lineID:     lineID,
		logger:     logger,
	}
}

// NextDeparture resolves both stops, asks the gateway for the next
// departure and applies the lead time.
func (e *Engine) NextDeparture(ctx context.Context, q Query) (Itinerary, error) {
	departure, lead, err := e.resolveDeparture(q.CallerID, q.Departure)
	if err != nil {
		return Itinerary{}, err
	}
	destination, err := e.resolveDestination(q.CallerID, q.Destination)
	if err != nil {
		return Itinerary{}, err
	}
	if strings.TrimSpace(q.LeadTime) != "" {
		if lead, err = ParseLeadTime(q.LeadTime); err != nil {
			return Itinerary{}, err
		}
	}

	direction, err := e.directions.Direction(departure.ID, destination.ID)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: utils.MakeMap("component", "itinerary"),
			ExtraContext: map[string]interface{}{
				"departure_id":   departure.ID,
				"destination_id": destination.ID,
			},
			Level: sentry.LevelError,
		})
		return Itinerary{}, fmt.Errorf("%w: %v", ErrUnknownStop, err)
	}

	result, err := e.gateway.NextDeparture(ctx, models.ScheduleQuery{
		StopID:    departure.ID,
		LineID:    e.lineID,
		Direction: direction,
	})
	if err != nil {
		return Itinerary{}, err
	}

	it := Itinerary{
		Departure:   departure,
		Destination: destination,
		Direction:   direction,
		Upcoming:    result.Upcoming,
		LeadMinutes: lead,
	}
	if !result.Upcoming {
		return it, nil
	}

	it.RawMinutes = result.Minutes
	if result.Minutes > lead {
		it.WaitMinutes = result.Minutes - lead
	} else {
		it.Missed = true
	}
	return it, nil
}

// SetDefaultDeparture stores the caller's usual departure stop and lead time.
func (e *Engine) SetDefaultDeparture(callerID, name, leadTime string) (StopRef, int, error) {
	if strings.TrimSpace(name) == "" {
		return StopRef{}, 0, ErrMissingDeparture
	}
	stop, err := e.resolveName(name)
	if err != nil {
		return StopRef{}, 0, err
	}

	lead := 0
	if strings.TrimSpace(leadTime) != "" {
		if lead, err = ParseLeadTime(leadTime); err != nil {
			return StopRef{}, 0, err
		}
	}

	if err := e.store.SetDeparture(callerID, models.DefaultDeparture{StopID: stop.ID, LeadMinutes: lead}); err != nil {
		return StopRef{}, 0, fmt.Errorf("%w: %v", ErrInvalidLeadTime, err)
	}
	e.logger.Info("Default departure saved", "caller_id", callerID, "stop_id", stop.ID, "lead_minutes", lead)
	return stop, lead, nil
}

// SetDefaultDestination stores the caller's usual destination stop.
func (e *Engine) SetDefaultDestination(callerID, name string) (StopRef, error) {
	if strings.TrimSpace(name) == "" {
		return StopRef{}, ErrMissingDestination
	}
	stop, err := e.resolveName(name)
	if err != nil {
		return StopRef{}, err
	}
	e.store.SetDestination(callerID, stop.ID)
	e.logger.Info("Default destination saved", "caller_id", callerID, "stop_id", stop.ID)
	return stop, nil
}

// ClearDefaults forgets everything stored for the caller.
func (e *Engine) ClearDefaults(callerID string) {
	e.store.Clear(callerID)
	e.logger.Info("Defaults cleared", "caller_id", callerID)
}

func (e *Engine) resolveDeparture(callerID, name string) (StopRef, int, error) {
	if strings.TrimSpace(name) != "" {
		stop, err := e.resolveName(name)
		return stop, 0, err
	}
	stored, ok := e.store.Departure(callerID)
	if !ok {
		return StopRef{}, 0, ErrMissingDeparture
	}
	stop, err := e.lookup(stored.StopID)
	return stop, stored.LeadMinutes, err
}

func (e *Engine) resolveDestination(callerID, name string) (StopRef, error) {
	if strings.TrimSpace(name) != "" {
		return e.resolveName(name)
	}
	stopID, ok := e.store.Destination(callerID)
	if !ok {
		return StopRef{}, ErrMissingDestination
	}
	return e.lookup(stopID)
}

func (e *Engine) resolveName(name string) (StopRef, error) {
	stopID, ok := e.stops.Resolve(strings.TrimSpace(name))
	if !ok {
		return StopRef{}, fmt.Errorf("%w: %q", ErrUnknownStop, name)
	}
	return e.lookup(stopID)
}

// lookup fails when a stored stop no longer exists in the catalog.
func (e *Engine) lookup(stopID int) (StopRef, error) {
	stop, ok := e.catalog.Lookup(stopID)
	if !ok {
		return StopRef{}, fmt.Errorf("%w: stop %d", ErrUnknownStop, stopID)
	}
	return StopRef{ID: stop.ID, Name: stop.Name()}, nil
}

// IsUserFacing reports whether err belongs to the failure kinds that are
// answered with a spoken message rather than reported as a fault.
func IsUserFacing(err error) bool {
	for _, kind := range []error{
		ErrUnknownStop, ErrMissingDeparture, ErrMissingDestination,
		ErrUnsupportedIntent, ErrInvalidLeadTime,
		schedule.ErrNetworkFailure, schedule.ErrUnavailable,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
