package shared

import "time"

// CalendarDate keeps the day the caller wrote, in the caller's own zone, as
// midnight UTC. Document and payment dates are plain calendar days: budget
// periods and number prefixes are read from them, so they must not move
// when the value is reloaded in another zone.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
