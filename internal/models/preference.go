package models

// DefaultDeparture is a caller's stored departure stop together with the
// number of minutes they need to reach it. LeadMinutes is never negative;
// zero means no lead time.
type DefaultDeparture struct {
	StopID      int
	LeadMinutes int
}

// Preference groups everything remembered about one caller.
// A Preference always has at least one of its fields set.
type Preference struct {
	Departure   *DefaultDeparture
	Destination *int
}

// IsEmpty reports whether neither field is set.
func (p Preference) IsEmpty() bool {
	return p.Departure == nil && p.Destination == nil
}
