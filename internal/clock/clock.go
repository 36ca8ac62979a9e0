// Package clock provides business-time helpers pinned to the
// Uzbekistan timezone (UTC+5). All deadline arithmetic and display
// formatting in the system goes through this package so that server
// host timezone never leaks into behavior.
package clock

import "time"

// Zone is the fixed Uzbekistan offset. The system runs on a single
// fixed offset; there is no DST and no multi-timezone support.
var Zone = time.FixedZone("UZT", 5*60*60)

// DisplayLayout is the 24-hour format used everywhere a deadline or
// timestamp is shown to a person.
const DisplayLayout = "02.01.2006 15:04"

// Now returns the current instant in the business zone.
func Now() time.Time {
	return time.Now().In(Zone)
}

// IsOverdue reports whether a deadline has passed. A nil deadline is
// never overdue.
func IsOverdue(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	return deadline.Before(now)
}

// Format renders a timestamp in the business zone for display.
// Nil renders as "-".
func Format(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(Zone).Format(DisplayLayout)
}
