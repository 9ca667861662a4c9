package catalog

import (
	"errors"
	"fmt"

	"nexttram.org/internal/models"
)

// ErrEmptyCatalog is returned when a source yields no usable stop.
var ErrEmptyCatalog = errors.New("catalog has no stops")

// Catalog is the read-only set of stops served by the line, kept in
// canonical order: the order in which stops appear along the line.
// It is built once at startup and shared by every request.
type Catalog struct {
	stops     []models.Stop
	positions map[int]int
}

// New builds a catalog from stops in canonical order. Every stop needs at
// least one display name. When the same stop ID appears more than once the
// first record wins for lookups and positions.
func New(stops []models.Stop) (*Catalog, error) {
	c := &Catalog{
		stops:     make([]models.Stop, 0, len(stops)),
		positions: make(map[int]int, len(stops)),
	}
	for i, stop := range stops {
		if len(stop.DisplayNames) == 0 {
			return nil, fmt.Errorf("stop %d at position %d has no display name", stop.ID, i)
		}
		names := make([]string, len(stop.DisplayNames))
		copy(names, stop.DisplayNames)
		c.stops = append(c.stops, models.Stop{ID: stop.ID, SectionID: stop.SectionID, DisplayNames: names})
		if _, seen := c.positions[stop.ID]; !seen {
			c.positions[stop.ID] = i
		}
	}
	return c, nil
}

// Stops returns a copy of the stops in canonical order.
func (c *Catalog) Stops() []models.Stop {
	out := make([]models.Stop, len(c.stops))
	copy(out, c.stops)
	return out
}

// Lookup returns the stop with the given ID.
func (c *Catalog) Lookup(stopID int) (models.Stop, bool) {
	pos, ok := c.positions[stopID]
	if !ok {
		return models.Stop{}, false
	}
	return c.stops[pos], true
}

// Position returns the index of the stop in canonical order.
func (c *Catalog) Position(stopID int) (int, bool) {
	pos, ok := c.positions[stopID]
	return pos, ok
}

func (c *Catalog) Len() int {
	return len(c.stops)
}
