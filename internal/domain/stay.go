package domain

import "time"

// DayLayout is the wire format of date inputs (HTML <input type="date">).
const DayLayout = "2006-01-02"

// Today is the current calendar day at midnight in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, loc)
}

// ArrivalInPast reports whether arrival falls strictly before today.
func ArrivalInPast(arrival, now time.Time, loc *time.Location) bool {
	return arrival.Before(Today(now, loc))
}

// ClampDeparture returns the departure value to keep once arrival is set:
// a departure before arrival snaps up to arrival. Both are DayLayout strings,
// which order lexically.
func ClampDeparture(arrival, departure string) string {
	if arrival == "" {
		return departure
	}
	if departure < arrival {
		return arrival
	}
	return departure
}
