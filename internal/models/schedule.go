package models

import "strconv"

// Direction selects which way along the line departures are requested.
// Its numeric value is the "sens" parameter understood by the schedule source.
type Direction int

const (
	DirectionA Direction = 1
	DirectionB Direction = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionA:
		return "A"
	case DirectionB:
		return "B"
	}
	return "Direction(" + strconv.Itoa(int(d)) + ")"
}

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionA || d == DirectionB
}

// ScheduleQuery identifies one next-departure lookup.
type ScheduleQuery struct {
	StopID    int
	LineID    int
	Direction Direction
}

// ScheduleResult is the outcome of a successful gateway call. When Upcoming
// is false the source reported that no departure is scheduled and Minutes is zero.
type ScheduleResult struct {
	Upcoming bool
	Minutes  int
}

// NoUpcomingDeparture is returned when the source has nothing scheduled.
func NoUpcomingDeparture() ScheduleResult {
	return ScheduleResult{}
}

// DepartsIn builds a result for a departure in the given number of minutes.
func DepartsIn(minutes int) ScheduleResult {
	return ScheduleResult{Upcoming: true, Minutes: minutes}
}
