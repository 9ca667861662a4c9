package schedule

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	onebusaway "github.com/OneBusAway/go-sdk"
	"github.com/OneBusAway/go-sdk/option"
	"nexttram.org/internal/config"
	"nexttram.org/internal/models"
)

// obaWindowMinutes bounds how far ahead arrivals are requested.
const obaWindowMinutes = 90

// OBAGateway reads the next departure from a OneBusAway server. Trips are
// told apart by headsign, one per direction.
type OBAGateway struct {
	client     *onebusaway.Client
	routeID    string
	stopPrefix string
	headsigns  map[models.Direction]string
	timeout    time.Duration
	now        func() time.Time
}

func NewOBAGateway(httpClient *http.Client, cfg config.OBAConfig, timeout time.Duration, maxRetries int) *OBAGateway {
	headsigns := make(map[models.Direction]string, len(cfg.Headsigns))
	for direction, headsign := range cfg.Headsigns {
		headsigns[models.Direction(direction)] = headsign
	}

	return &OBAGateway{
		client: onebusaway.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(maxRetries),
		),
		routeID:    cfg.RouteID,
		stopPrefix: cfg.StopPrefix,
		headsigns:  headsigns,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (g *OBAGateway) NextDeparture(ctx context.Context, q models.ScheduleQuery) (models.ScheduleResult, error) {
	headsign, ok := g.headsigns[q.Direction]
	if !ok {
		return models.ScheduleResult{}, unavailable("no headsign for direction "+q.Direction.String(), nil)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	stopID := g.stopPrefix + strconv.Itoa(q.StopID)
	response, err := g.client.ArrivalAndDeparture.List(ctx, stopID, onebusaway.ArrivalAndDepartureListParams{
		MinutesAfter: onebusaway.F(int64(obaWindowMinutes)),
	})
	if err != nil {
		var apiErr *onebusaway.Error
		if errors.As(err, &apiErr) {
			return models.ScheduleResult{}, unavailable("arrivals request rejected", err)
		}
		return models.ScheduleResult{}, networkFailure("arrivals request failed", err)
	}
	if response == nil {
		return models.ScheduleResult{}, unavailable("empty response", nil)
	}

	nowMs := g.now().UnixMilli()
	var earliest int64
	for _, ad := range response.Data.Entry.ArrivalsAndDepartures {
		if ad.RouteID != g.routeID || ad.TripHeadsign != headsign {
			continue
		}
		departure := ad.PredictedDepartureTime
		if departure == 0 {
			departure = ad.ScheduledDepartureTime
		}
		if departure < nowMs {
			continue
		}
		if earliest == 0 || departure < earliest {
			earliest = departure
		}
	}

	if earliest == 0 {
		return models.NoUpcomingDeparture(), nil
	}
	return models.DepartsIn(int((earliest - nowMs) / int64(time.Minute/time.Millisecond))), nil
}
