package routing

import (
	"fmt"

	"nexttram.org/internal/catalog"
	"nexttram.org/internal/config"
	"nexttram.org/internal/models"
)

// UnknownStopError is returned when a direction is asked for a stop that is
// not in the catalog.
type UnknownStopError struct {
	StopID int
}

func (e *UnknownStopError) Error() string {
	return fmt.Sprintf("stop %d is not in the catalog", e.StopID)
}

type sectionPair struct {
	from, to int
}

// DirectionResolver picks the schedule direction for a trip between two stops.
// A section pair listed in the topology table decides directly; any other
// pair falls back to catalog order: going backwards along the line is B.
type DirectionResolver struct {
	catalog  *catalog.Catalog
	topology map[sectionPair]models.Direction
}

func NewDirectionResolver(c *catalog.Catalog, rules []config.TopologyRule) *DirectionResolver {
	topology := make(map[sectionPair]models.Direction, len(rules))
	for _, rule := range rules {
		key := sectionPair{from: rule.FromSection, to: rule.ToSection}
		if _, exists := topology[key]; exists {
			continue
		}
		topology[key] = models.Direction(rule.Direction)
	}
	return &DirectionResolver{catalog: c, topology: topology}
}

func (r *DirectionResolver) Direction(fromStopID, toStopID int) (models.Direction, error) {
	from, ok := r.catalog.Lookup(fromStopID)
	if !ok {
		return 0, &UnknownStopError{StopID: fromStopID}
	}
	to, ok := r.catalog.Lookup(toStopID)
	if !ok {
		return 0, &UnknownStopError{StopID: toStopID}
	}

	if d, ok := r.topology[sectionPair{from: from.SectionID, to: to.SectionID}]; ok {
		return d, nil
	}

	fromPos, _ := r.catalog.Position(fromStopID)
	toPos, _ := r.catalog.Position(toStopID)
	if fromPos > toPos {
		return models.DirectionB, nil
	}
	return models.DirectionA, nil
}
