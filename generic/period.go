package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - An inclusive range of calendar dates
// =============================================================================

// Period is the inclusive date range [Start, End].
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: %s..%s", ErrInvalidPeriod, start, end)
	}
	return Period{Start: start, End: end}, nil
}

// CalendarYear returns Jan 1 - Dec 31 of year.
func CalendarYear(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether p and other share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Days returns every day of the period in order.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len is the inclusive day count.
func (p Period) Len() int { return InclusiveDays(p.Start, p.End) }

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// SEASONAL WINDOW - A month/day range that repeats every calendar year
// =============================================================================

// SeasonalWindow is a yearly range such as Jun 1 - Sep 30. Windows that wrap
// the new year are not supported; End must not precede Start within a year.
type SeasonalWindow struct {
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// SummerWindow is June 1 through September 30.
var SummerWindow = SeasonalWindow{
	StartMonth: time.June, StartDay: 1,
	EndMonth: time.September, EndDay: 30,
}

// In returns the window's period for the given year.
func (w SeasonalWindow) In(year int) Period {
	return Period{
		Start: NewDate(year, w.StartMonth, w.StartDay),
		End:   NewDate(year, w.EndMonth, w.EndDay),
	}
}

// Contains evaluates d against the window of d's own year.
func (w SeasonalWindow) Contains(d Date) bool {
	return w.In(d.Year()).Contains(d)
}

func (w SeasonalWindow) String() string {
	return fmt.Sprintf("%s %d - %s %d", w.StartMonth, w.StartDay, w.EndMonth, w.EndDay)
}
