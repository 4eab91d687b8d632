package babytrack

import (
	"strconv"
	"strings"
	"time"
)

// Window is a half-open time interval [Start, End) used to scope
// aggregation queries.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// throughNow returns an end bound that keeps the half-open convention
// while still covering events anchored exactly at now, such as an
// instant logged in the same tick as the query.
func throughNow(now time.Time) time.Time {
	return now.Add(time.Nanosecond)
}

// LastDays returns the window covering the previous days*24h through now.
func LastDays(now time.Time, days int) Window {
	return Window{
		Start: now.Add(-time.Duration(days) * 24 * time.Hour),
		End:   throughNow(now),
	}
}

// Today returns the window from local midnight through now. The location
// only affects where the day boundary falls; the window itself is in
// absolute time.
func Today(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: midnight, End: throughNow(now)}
}

// ParsePeriod resolves a time-period token, as produced by the external
// intent classifier, into a window. Unrecognized tokens (including the
// empty string) default to today.
//
// Recognized tokens: "today"/"this day", "yesterday"/"last day",
// "this week"/"current week", "last week"/"previous week",
// "this month"/"current month", and "last N days"/"past N days".
// Weeks start on Monday.
func ParsePeriod(token string, now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch token {
	case "yesterday", "last day":
		return Window{Start: midnight.AddDate(0, 0, -1), End: midnight}
	case "this week", "current week":
		return Window{Start: startOfWeek(midnight), End: throughNow(now)}
	case "last week", "previous week":
		thisWeek := startOfWeek(midnight)
		return Window{Start: thisWeek.AddDate(0, 0, -7), End: thisWeek}
	case "this month", "current month":
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return Window{Start: first, End: throughNow(now)}
	default:
		if days, ok := parseLastDays(token); ok {
			return LastDays(now, days)
		}
		// "today", "this day", and anything unrecognized.
		return Window{Start: midnight, End: throughNow(now)}
	}
}

// parseLastDays matches "last N days" and "past N days" tokens.
func parseLastDays(token string) (int, bool) {
	fields := strings.Fields(token)
	if len(fields) != 3 || (fields[0] != "last" && fields[0] != "past") {
		return 0, false
	}
	if fields[2] != "days" && fields[2] != "day" {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// startOfWeek returns the Monday midnight at or before the given
// midnight.
func startOfWeek(midnight time.Time) time.Time {
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}
