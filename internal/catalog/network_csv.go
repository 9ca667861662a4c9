package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"nexttram.org/internal/models"
	"nexttram.org/internal/report"
	"nexttram.org/internal/utils"
)

// LoadNetworkFile reads a network CSV file from disk.
func LoadNetworkFile(path string) (*Catalog, error) {
	// #nosec G304 -- path comes from the operator's configuration
	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("failed to open network file: %w", err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: utils.MakeMap("file_path", path),
		})
		return nil, err
	}
	defer f.Close()

	c, err := LoadNetworkCSV(f)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: utils.MakeMap("file_path", path),
		})
		return nil, fmt.Errorf("failed to load network file %s: %w", path, err)
	}
	return c, nil
}

// LoadNetworkCSV parses the network description. Each record lists the
// stop's display names followed by its stop ID and section ID:
//
//	Théâtre des Arts,Theatre des arts,10,1
//
// Blank lines are ignored and record order is the canonical stop order.
func LoadNetworkCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var stops []models.Stop
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read network record: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected at least one name, a stop ID and a section ID, got %d fields", line, len(record))
		}

		n := len(record)
		sectionID, err := strconv.Atoi(strings.TrimSpace(record[n-1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid section ID %q: %w", line, record[n-1], err)
		}
		stopID, err := strconv.Atoi(strings.TrimSpace(record[n-2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid stop ID %q: %w", line, record[n-2], err)
		}

		stops = append(stops, models.Stop{
			ID:           stopID,
			SectionID:    sectionID,
			DisplayNames: record[:n-2],
		})
	}

	if len(stops) == 0 {
		return nil, ErrEmptyCatalog
	}
	return New(stops)
}
