package filter

import (
	"time"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// ResolveRelativeDate turns a relative date into an instant, counted from ref.
//
// Days and weeks move by whole calendar days. Months and years move by
// calendar months; when the target month is shorter than the reference day,
// the day is clamped to the last day of that month (Jan 31 + 1 month = Feb 28/29).
// Time of day and location of ref are kept.
func ResolveRelativeDate(v models.RelativeDateValue, ref time.Time) time.Time {
	if v.Amount == 0 {
		return ref
	}

	sign := 1
	if v.Direction == models.DirectionAgo {
		sign = -1
	}
	n := sign * v.Amount

	switch v.Unit {
	case models.UnitDays:
		return ref.AddDate(0, 0, n)
	case models.UnitWeeks:
		return ref.AddDate(0, 0, n*7)
	case models.UnitMonths:
		return addMonthsClamped(ref, n)
	case models.UnitYears:
		return addMonthsClamped(ref, n*12)
	}
	return ref
}

func addMonthsClamped(ref time.Time, months int) time.Time {
	year, month, day := ref.Date()
	hour, min, sec := ref.Clock()

	// normalise month arithmetic without touching the day
	total := int(month) - 1 + months
	year += floorDiv(total, 12)
	month = time.Month(total - floorDiv(total, 12)*12 + 1)

	if last := daysIn(year, month, ref.Location()); day > last {
		day = last
	}
	return time.Date(year, month, day, hour, min, sec, ref.Nanosecond(), ref.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
