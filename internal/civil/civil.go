// Package civil provides calendar-day arithmetic in a fixed civil timezone.
// "Today" for the canteen is a wall-clock concept in its local zone, never
// the server's locale and never a duration since some instant.
package civil

import "time"

// DefaultOffsetMinutes is UTC+5:30, the canteen's local zone.
const DefaultOffsetMinutes = 330

// Zone is a fixed-offset civil timezone. All day-bucket decisions in the
// system go through an explicitly injected Zone.
type Zone struct {
	loc *time.Location
}

// FixedZone builds a Zone at a constant offset from UTC.
func FixedZone(name string, offsetMinutes int) Zone {
	return Zone{loc: time.FixedZone(name, offsetMinutes*60)}
}

// Default returns the canteen's standard zone (UTC+5:30).
func Default() Zone {
	return FixedZone("canteen-local", DefaultOffsetMinutes)
}

// DateKey returns the calendar date of t in the zone as "YYYY-MM-DD".
// Orders and token counters are bucketed by this key.
func (z Zone) DateKey(t time.Time) string {
	return t.In(z.loc).Format("2006-01-02")
}

// SameDay reports whether a and b fall on the same calendar date in the
// zone. It compares year/month/day, not instants.
func (z Zone) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(z.loc).Date()
	by, bm, bd := b.In(z.loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns local midnight of the civil day containing t.
func (z Zone) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(z.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, z.loc)
}

// Location exposes the underlying *time.Location for formatting.
func (z Zone) Location() *time.Location {
	return z.loc
}
