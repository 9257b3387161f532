package timeoff

import (
	"time"

	"github.com/marinaops/staffdesk/generic"
)

// SummerDaysUsed counts the calendar days of the employee's stored PTO requests
// that fall inside window for the given year. Each request is walked day by
// day over its inclusive local date range, so a request crossing a month
// boundary counts once per touched day.
//
// Every stored PTO request counts, whatever its status: pending and denied
// records consume cap too. This matches how the office has always tallied it.
func SummerDaysUsed(employeeID generic.EntityID, year int, history []Request, window generic.SeasonalWindow, loc *time.Location) int {
	season := window.In(year)
	used := 0
	for _, r := range history {
		if r.Kind != KindPTO || r.EmployeeID != employeeID {
			continue
		}
		span := r.Span(loc)
		if !span.Overlaps(season) {
			continue
		}
		for _, day := range span.Days() {
			if season.Contains(day) {
				used++
			}
		}
	}
	return used
}
