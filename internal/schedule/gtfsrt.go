package schedule

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jamespfennell/gtfs"
	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"nexttram.org/internal/config"
	"nexttram.org/internal/models"
)

// GTFSRTGateway reads the next departure from a GTFS-Realtime trip updates
// feed. Direction A is direction_id 0 and B is direction_id 1. Stop IDs are
// matched against the decimal form of the catalog stop ID.
type GTFSRTGateway struct {
	client     *http.Client
	url        string
	routeID    string
	apiHeader  string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	now        func() time.Time
}

func NewGTFSRTGateway(client *http.Client, cfg config.GTFSRTConfig, timeout time.Duration, maxRetries int) *GTFSRTGateway {
	return &GTFSRTGateway{
		client:     client,
		url:        cfg.TripUpdatesURL,
		routeID:    cfg.RouteID,
		apiHeader:  cfg.APIHeader,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

func (g *GTFSRTGateway) NextDeparture(ctx context.Context, q models.ScheduleQuery) (models.ScheduleResult, error) {
	feed, err := g.fetchFeed(ctx)
	if err != nil {
		return models.ScheduleResult{}, err
	}

	now := g.now()
	stopID := strconv.Itoa(q.StopID)
	directionID := feedDirection(q.Direction)

	var earliest time.Time
	for _, trip := range feed.Trips {
		if trip.ID.RouteID != g.routeID {
			continue
		}
		if trip.ID.DirectionID != gtfs.DirectionID_Unspecified && trip.ID.DirectionID != directionID {
			continue
		}
		if trip.ID.ScheduleRelationship == gtfsrt.TripDescriptor_CANCELED {
			continue
		}

		for i := range trip.StopTimeUpdates {
			update := &trip.StopTimeUpdates[i]
			if update.StopID == nil || *update.StopID != stopID {
				continue
			}
			if update.ScheduleRelationship == gtfsrt.TripUpdate_StopTimeUpdate_SKIPPED {
				continue
			}
			departure := update.GetDeparture().Time
			if departure == nil {
				departure = update.GetArrival().Time
			}
			if departure == nil || departure.Before(now) {
				continue
			}
			if earliest.IsZero() || departure.Before(earliest) {
				earliest = *departure
			}
		}
	}

	if earliest.IsZero() {
		return models.NoUpcomingDeparture(), nil
	}
	return models.DepartsIn(int(earliest.Sub(now) / time.Minute)), nil
}

// feedDirection maps direction A to direction_id 0 and B to direction_id 1.
func feedDirection(d models.Direction) gtfs.DirectionID {
	if d == models.DirectionB {
		return gtfs.DirectionID_True
	}
	return gtfs.DirectionID_False
}

func (g *GTFSRTGateway) fetchFeed(ctx context.Context) (*gtfs.Realtime, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, unavailable("invalid request", err)
	}
	if g.apiHeader != "" && g.apiKey != "" {
		req.Header.Set(g.apiHeader, g.apiKey)
	}

	resp, err := config.DoWithBackoff(ctx, g.client, req, g.maxRetries)
	if err != nil {
		return nil, networkFailure("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkFailure("failed to read feed", err)
	}

	feed, err := gtfs.ParseRealtime(data, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, unavailable("invalid feed", err)
	}
	return feed, nil
}
