// Package weektime converts between (day, hour, minute) triples and the
// single week-minute offset the engine stores bookings in. Day 0 is
// Monday; offsets run 0 <= t <= MinutesPerWeek.
package weektime

import "github.com/arjunpatel/facilitybook/internal/constants"

// ToMinute converts a (day, hour, minute) triple to a week-minute offset.
// ok is false if any field is out of its valid range.
func ToMinute(day, hour, minute uint8) (t int, ok bool) {
	if int(day) >= constants.DaysPerWeek || hour >= 24 || minute >= 60 {
		return 0, false
	}
	return int(day)*constants.MinutesPerDay + int(hour)*60 + int(minute), true
}

// Split converts a week-minute offset back to a (day, hour, minute) triple.
// Callers must ensure InRange(t) first; Split does not validate.
func Split(t int) (day, hour, minute uint8) {
	day = uint8(t / constants.MinutesPerDay)
	rem := t % constants.MinutesPerDay
	hour = uint8(rem / 60)
	minute = uint8(rem % 60)
	return
}

// InRange reports whether t is a valid week-minute offset.
func InRange(t int) bool {
	return t >= 0 && t <= constants.MinutesPerWeek
}
