package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxLeadMinutes is the longest accepted lead time.
const maxLeadMinutes = 24 * 60

var (
	isoDuration = regexp.MustCompile(`^P(?:(\d{1,4})D)?(?:T(?:(\d{1,4})H)?(?:(\d{1,4})M)?(?:(\d{1,6})S)?)?$`)
	clockTime   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseLeadTime reads a lead time in whole minutes from an ISO-8601
// duration ("PT10M", "PT1H5M") or an "HH:MM" literal. Leftover seconds are dropped.
//
// "HH:MM" is a duration of hours and minutes, never a time of day: "01:30"
// means ninety minutes. A duration needs at least one component, and a "T"
// must be followed by one, so "P", "PT" and "P1DT" are rejected.
func ParseLeadTime(literal string) (int, error) {
	literal = strings.ToUpper(strings.TrimSpace(literal))

	if m := isoDuration.FindStringSubmatch(literal); m != nil && literal != "P" && !strings.HasSuffix(literal, "T") {
		days, hours, minutes := atoi(m[1]), atoi(m[2]), atoi(m[3])
		return checkLead(literal, days*24*60+hours*60+minutes+atoi(m[4])/60)
	}

	if m := clockTime.FindStringSubmatch(literal); m != nil {
		hours, minutes := atoi(m[1]), atoi(m[2])
		if minutes >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidLeadTime, literal)
		}
		return checkLead(literal, hours*60+minutes)
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidLeadTime, literal)
}

func checkLead(literal string, minutes int) (int, error) {
	if minutes > maxLeadMinutes {
		return 0, fmt.Errorf("%w: %q is longer than a day", ErrInvalidLeadTime, literal)
	}
	return minutes, nil
}

// atoi parses a regexp group made of digits; an empty group is zero.
func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
