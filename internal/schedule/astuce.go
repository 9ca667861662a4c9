package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"nexttram.org/internal/config"
	"nexttram.org/internal/models"
)

// browserUserAgent is sent because the site rejects requests without a browser-like agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// noDepartureMarker is shown by the site when nothing is scheduled.
const noDepartureMarker = "Pas de prochain"

var (
	minutesToken = regexp.MustCompile(`^\d+$`)
	hoursToken   = regexp.MustCompile(`(?i)\d[\s\x{00a0}]*h(?:eures?)?(?:[^a-z]|$)`)
)

// AstuceGateway reads the next departure from the Rouen network's
// stop timetable page.
type AstuceGateway struct {
	client     *http.Client
	url        string
	timeout    time.Duration
	maxRetries int
}

func NewAstuceGateway(client *http.Client, endpoint string, timeout time.Duration, maxRetries int) *AstuceGateway {
	return &AstuceGateway{
		client:     client,
		url:        endpoint,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

func (g *AstuceGateway) NextDeparture(ctx context.Context, q models.ScheduleQuery) (models.ScheduleResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	form := fmt.Sprintf("destinations=%s&stopId=%d&lineId=%d&sens=%d",
		url.QueryEscape(`{"1":""}`), q.StopID, q.LineID, int(q.Direction))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, strings.NewReader(form))
	if err != nil {
		return models.ScheduleResult{}, unavailable("invalid request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := config.DoWithBackoff(ctx, g.client, req, g.maxRetries)
	if err != nil {
		return models.ScheduleResult{}, networkFailure("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ScheduleResult{}, unavailable(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ScheduleResult{}, networkFailure("failed to read response", err)
	}
	return parseNextDeparture(body)
}

// parseNextDeparture extracts the minutes shown just before the first
// <abbr title="minutes"> element. The node right before the marker must hold
// only the number; a label, an hour part or anything else is reported as
// unavailable.
func parseNextDeparture(body []byte) (models.ScheduleResult, error) {
	if bytes.Contains(body, []byte(noDepartureMarker)) {
		return models.NoUpcomingDeparture(), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.ScheduleResult{}, unavailable("unreadable markup", err)
	}

	abbr := doc.Find(`abbr[title="minutes"]`).First()
	if abbr.Length() == 0 {
		return models.ScheduleResult{}, unavailable("no minutes marker", nil)
	}

	var before []*goquery.Selection
	marker := abbr.Get(0)
	abbr.Parent().Contents().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Get(0) == marker {
			return false
		}
		before = append(before, s)
		return true
	})

	var preceding strings.Builder
	for _, s := range before {
		if s.Is(`abbr[title^="heure"]`) || s.Find(`abbr[title^="heure"]`).Length() > 0 {
			return models.ScheduleResult{}, unavailable("hours shown with minutes", nil)
		}
		preceding.WriteString(s.Text())
	}
	if hoursToken.MatchString(preceding.String()) {
		return models.ScheduleResult{}, unavailable("hours shown with minutes", nil)
	}

	// The value is the closest non-blank node before the marker, and nothing else.
	token := ""
	for i := len(before) - 1; i >= 0; i-- {
		if text := strings.TrimSpace(before[i].Text()); text != "" {
			token = text
			break
		}
	}
	match := minutesToken.FindStringSubmatch(token)
	if match == nil {
		return models.ScheduleResult{}, unavailable("no minutes value", nil)
	}
	minutes, err := strconv.Atoi(match[0])
	if err != nil {
		return models.ScheduleResult{}, unavailable("invalid minutes value", err)
	}
	return models.DepartsIn(minutes), nil
}
