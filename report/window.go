package report

import (
	"errors"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"
)

var ErrUnknownFrequency = errors.New("unknown report frequency")

// Window computes the half-open [start, end) aggregation window ending at
// the given instant. Daily is exactly 24 hours, weekly exactly 7 days.
// Monthly is calendar-month subtraction with the day-of-month clamped to
// the last valid day of the target month, so Mar 31 starts at Feb 28
// (Feb 29 in leap years) rather than normalizing into early March.
func Window(frequency string, end time.Time) (time.Time, error) {
	switch frequency {
	case model.FrequencyDaily:
		return end.Add(-24 * time.Hour), nil
	case model.FrequencyWeekly:
		return end.Add(-7 * 24 * time.Hour), nil
	case model.FrequencyMonthly:
		return subtractMonth(end), nil
	default:
		return time.Time{}, ErrUnknownFrequency
	}
}

func subtractMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	month--
	if month < time.January {
		month = time.December
		year--
	}

	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
