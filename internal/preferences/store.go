package preferences

import (
	"errors"
	"sync"

	"nexttram.org/internal/models"
)

var ErrNegativeLead = errors.New("lead time cannot be negative")

// Store keeps each caller's default departure and destination.
type Store interface {
	Departure(callerID string) (models.DefaultDeparture, bool)
	SetDeparture(callerID string, departure models.DefaultDeparture) error
	Destination(callerID string) (int, bool)
	SetDestination(callerID string, stopID int)
	Clear(callerID string)
}

// MemoryStore is a Store guarded by a single RWMutex. Every operation holds
// the lock for its own duration only.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]*models.Preference
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prefs: make(map[string]*models.Preference),
	}
}

func (s *MemoryStore) Departure(callerID string) (models.DefaultDeparture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[callerID]
	if !ok || p.Departure == nil {
		return models.DefaultDeparture{}, false
	}
	return *p.Departure, true
}

func (s *MemoryStore) SetDeparture(callerID string, departure models.DefaultDeparture) error {
	if departure.LeadMinutes < 0 {
		return ErrNegativeLead
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.entry(callerID)
	p.Departure = &departure
	return nil
}

func (s *MemoryStore) Destination(callerID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[callerID]
	if !ok || p.Destination == nil {
		return 0, false
	}
	return *p.Destination, true
}

func (s *MemoryStore) SetDestination(callerID string, stopID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.entry(callerID)
	p.Destination = &stopID
}

// Clear forgets everything about the caller. Clearing an unknown caller is a no-op.
func (s *MemoryStore) Clear(callerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prefs, callerID)
}

// Len returns the number of callers with stored preferences.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prefs)
}

// entry returns the caller's record, creating it. Callers must hold the write lock.
func (s *MemoryStore) entry(callerID string) *models.Preference {
	p, ok := s.prefs[callerID]
	if !ok {
		p = &models.Preference{}
		s.prefs[callerID] = p
	}
	return p
}

// Snapshot copies the whole store.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := newSnapshot()
	for callerID, p := range s.prefs {
		if p.Departure != nil {
			snap.DefaultDepartures[callerID] = DepartureRecord{StopID: p.Departure.StopID, LeadMinutes: p.Departure.LeadMinutes}
		}
		if p.Destination != nil {
			snap.DefaultDestinations[callerID] = *p.Destination
		}
	}
	return snap
}

// Restore replaces the content of the store with snap.
func (s *MemoryStore) Restore(snap Snapshot) {
	prefs := make(map[string]*models.Preference, len(snap.DefaultDepartures))
	get := func(callerID string) *models.Preference {
		p, ok := prefs[callerID]
		if !ok {
			p = &models.Preference{}
			prefs[callerID] = p
		}
		return p
	}
	for callerID, d := range snap.DefaultDepartures {
		get(callerID).Departure = &models.DefaultDeparture{StopID: d.StopID, LeadMinutes: d.LeadMinutes}
	}
	for callerID, stopID := range snap.DefaultDestinations {
		get(callerID).Destination = &stopID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = prefs
}
