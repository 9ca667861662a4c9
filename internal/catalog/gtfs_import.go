package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/getsentry/sentry-go"
	remoteGtfs "github.com/jamespfennell/gtfs"
	"nexttram.org/internal/config"
	"nexttram.org/internal/geo"
	"nexttram.org/internal/models"
	"nexttram.org/internal/report"
)

// defaultSection is assigned to imported stops with no configured section.
const defaultSection = 1

// DownloadGTFS fetches and parses a GTFS static bundle.
func DownloadGTFS(ctx context.Context, client *http.Client, url string, maxRetries int) (*remoteGtfs.Static, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("failed to create request for %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			ExtraContext: map[string]interface{}{"url": url},
		})
		return nil, err
	}

	resp, err := config.DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		err = fmt.Errorf("failed to make GET request to %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			ExtraContext: map[string]interface{}{"url": url},
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected response status %d when downloading GTFS bundle from %s", resp.StatusCode, url)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			ExtraContext: map[string]interface{}{
				"url":    url,
				"status": resp.Status,
			},
		})
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read GTFS bundle response body from %s: %w", url, err)
		report.ReportError(err)
		return nil, err
	}

	staticBundle, err := remoteGtfs.ParseStatic(data, remoteGtfs.ParseStaticOptions{})
	if err != nil {
		err = fmt.Errorf("failed to parse GTFS static data from %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			ExtraContext: map[string]interface{}{"url": url},
			Level:        sentry.LevelError,
		})
		return nil, err
	}
	return staticBundle, nil
}

// LoadGTFS downloads a bundle and builds a catalog from its stops.
func LoadGTFS(ctx context.Context, client *http.Client, url string, opts config.GTFSImportConfig, maxRetries int, logger *slog.Logger) (*Catalog, error) {
	staticBundle, err := DownloadGTFS(ctx, client, url, maxRetries)
	if err != nil {
		return nil, err
	}
	logger.Info("Downloaded GTFS bundle", "url", url, "stops", len(staticBundle.Stops))
	return FromGTFSStops(staticBundle.Stops, opts, logger)
}

type importedStop struct {
	stop     models.Stop
	lat, lon float64
	located  bool
}

// FromGTFSStops turns GTFS stops into catalog stops. The numeric stop_code
// becomes the stop ID; platforms sharing a code are merged. Only codes listed
// in opts.StopCodes are kept when that list is non-empty. Section IDs and
// extra spellings come from opts, keyed by stop code.
//
// When opts.OriginStopCode is set, stops are ordered by their distance from
// that stop, which matches canonical line order for a single branch.
// Otherwise the bundle order is kept.
func FromGTFSStops(stops []remoteGtfs.Stop, opts config.GTFSImportConfig, logger *slog.Logger) (*Catalog, error) {
	wanted := make(map[string]bool, len(opts.StopCodes))
	for _, code := range opts.StopCodes {
		wanted[code] = true
	}

	var imported []*importedStop
	byID := make(map[int]*importedStop)
	skipped := 0

	for _, s := range stops {
		if s.Type != 0 {
			continue
		}
		code := s.Code
		if code == "" {
			code = s.Id
		}
		if len(wanted) > 0 && !wanted[code] {
			continue
		}
		id, err := strconv.Atoi(code)
		if err != nil {
			skipped++
			continue
		}

		if existing, ok := byID[id]; ok {
			existing.stop.DisplayNames = appendUnique(existing.stop.DisplayNames, s.Name)
			continue
		}

		section := defaultSection
		if v, ok := opts.Sections[code]; ok {
			section = v
		}
		entry := &importedStop{
			stop: models.Stop{
				ID:           id,
				SectionID:    section,
				DisplayNames: appendUnique(nil, s.Name),
			},
		}
		for _, alias := range opts.Aliases[code] {
			entry.stop.DisplayNames = appendUnique(entry.stop.DisplayNames, alias)
		}
		if s.Latitude != nil && s.Longitude != nil && geo.IsValidLatLon(*s.Latitude, *s.Longitude) {
			entry.lat, entry.lon, entry.located = *s.Latitude, *s.Longitude, true
		}
		byID[id] = entry
		imported = append(imported, entry)
	}

	if skipped > 0 {
		logger.Warn("Skipped GTFS stops without a numeric code", "count", skipped)
	}
	if len(imported) == 0 {
		return nil, ErrEmptyCatalog
	}

	if opts.OriginStopCode != "" {
		if err := orderFromOrigin(imported, opts.OriginStopCode); err != nil {
			return nil, err
		}
	}

	out := make([]models.Stop, 0, len(imported))
	for _, entry := range imported {
		out = append(out, entry.stop)
	}
	return New(out)
}

// orderFromOrigin sorts stops by distance from the origin. Stops without a
// usable position keep their relative order after every located stop.
func orderFromOrigin(imported []*importedStop, originCode string) error {
	originID, err := strconv.Atoi(originCode)
	if err != nil {
		return fmt.Errorf("origin stop code %q is not numeric: %w", originCode, err)
	}

	var origin *importedStop
	for _, entry := range imported {
		if entry.stop.ID == originID {
			origin = entry
			break
		}
	}
	if origin == nil || !origin.located {
		return fmt.Errorf("origin stop %q is missing or has no position", originCode)
	}

	distance := func(e *importedStop) float64 {
		return geo.DistanceMeters(origin.lat, origin.lon, e.lat, e.lon)
	}
	sort.SliceStable(imported, func(i, j int) bool {
		a, b := imported[i], imported[j]
		if a.located != b.located {
			return a.located
		}
		if !a.located {
			return false
		}
		return distance(a) < distance(b)
	})
	return nil
}

func appendUnique(names []string, name string) []string {
	if name == "" {
		return names
	}
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
