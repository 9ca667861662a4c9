package models

// Stop is an immutable catalog record for a physical tram stop.
//
// DisplayNames holds every known spelling of the stop, the first one being the
// name used when the stop is read back to the caller.
type Stop struct {
	ID           int
	SectionID    int
	DisplayNames []string
}

// Name returns the preferred display name of the stop.
func (s Stop) Name() string {
	if len(s.DisplayNames) == 0 {
		return ""
	}
	return s.DisplayNames[0]
}
