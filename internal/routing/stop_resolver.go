package routing

import (
	"github.com/agnivade/levenshtein"
	"nexttram.org/internal/catalog"
	"nexttram.org/internal/models"
)

// StopResolver maps free text to the closest catalog stop by edit distance.
//
// There is no distance threshold: speech transcription is noisy, so any input
// resolves to some stop as long as the catalog is not empty.
type StopResolver struct {
	stops []models.Stop
}

func NewStopResolver(c *catalog.Catalog) *StopResolver {
	return &StopResolver{stops: c.Stops()}
}

// Resolve returns the ID of the stop whose display name is closest to name.
// Comparison is case sensitive. Ties go to the first name in catalog order.
func (r *StopResolver) Resolve(name string) (int, bool) {
	bestID, bestDistance, found := 0, 0, false
	for _, stop := range r.stops {
		for _, candidate := range stop.DisplayNames {
			d := levenshtein.ComputeDistance(candidate, name)
			if !found || d < bestDistance {
				bestID, bestDistance, found = stop.ID, d, true
			}
			if d == 0 {
				return bestID, true
			}
		}
	}
	return bestID, found
}
