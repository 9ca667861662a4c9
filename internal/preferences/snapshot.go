package preferences

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the durable form of a store:
//
//	{"default_departures": {"caller": [stop_id, lead_minutes]},
//	 "default_destinations": {"caller": stop_id}}
type Snapshot struct {
	DefaultDepartures   map[string]DepartureRecord `json:"default_departures"`
	DefaultDestinations map[string]int             `json:"default_destinations"`
}

// DepartureRecord encodes as a two-element array: stop ID then lead minutes.
type DepartureRecord struct {
	StopID      int
	LeadMinutes int
}

func (r DepartureRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.StopID, r.LeadMinutes})
}

func (r *DepartureRecord) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("departure record: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("departure record: expected [stop_id, lead_minutes], got %d values", len(pair))
	}
	if pair[1] < 0 {
		return fmt.Errorf("departure record: %w", ErrNegativeLead)
	}
	r.StopID, r.LeadMinutes = pair[0], pair[1]
	return nil
}

func newSnapshot() Snapshot {
	return Snapshot{
		DefaultDepartures:   make(map[string]DepartureRecord),
		DefaultDestinations: make(map[string]int),
	}
}

// Callers returns the number of distinct callers in the snapshot.
func (s Snapshot) Callers() int {
	n := len(s.DefaultDepartures)
	for callerID := range s.DefaultDestinations {
		if _, ok := s.DefaultDepartures[callerID]; !ok {
			n++
		}
	}
	return n
}

// Encode serializes the snapshot. Map keys are sorted, so equal snapshots
// always produce identical bytes.
func (s Snapshot) Encode() ([]byte, error) {
	if s.DefaultDepartures == nil {
		s.DefaultDepartures = map[string]DepartureRecord{}
	}
	if s.DefaultDestinations == nil {
		s.DefaultDestinations = map[string]int{}
	}
	return json.Marshal(s)
}

// DecodeSnapshot parses data written by Encode.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	snap := newSnapshot()
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode preference snapshot: %w", err)
	}
	if snap.DefaultDepartures == nil {
		snap.DefaultDepartures = map[string]DepartureRecord{}
	}
	if snap.DefaultDestinations == nil {
		snap.DefaultDestinations = map[string]int{}
	}
	return snap, nil
}
