/*
policies.go - The HR policy constants, as configuration

PURPOSE:
  Every number the evaluator compares against lives in Policy so that the
  marina can change a rule without touching code. DefaultPolicy carries the
  values the office runs with today.

DEFAULTS:
  Daily window:          08:00 - 16:00 (full-day request instants)
  Hours per full day:    8
  Minimum partial hours: 0.5
  PTO lead time:         14 calendar days
  Summer window:         June 1 - September 30
  Summer PTO cap:        3 days per calendar year
  Sick verification:     more than 3 days

NOTE:
  The hours of a full-day request come from HoursPerFullDay, not from the
  width of the daily window. A 08:00-18:00 window still books 8 h per day.

SEE ALSO:
  - evaluator.go: Consumes Policy
  - config/config.go: Loads Policy from YAML/env
*/
package timeoff

import (
	"fmt"
	"time"

	"github.com/marinaops/staffdesk/generic"
	"github.com/shopspring/decimal"
)

// DailyWindow is the clock range a full-day request occupies.
type DailyWindow struct {
	StartHour int
	EndHour   int
}

func (w DailyWindow) start() generic.ClockTime { return generic.NewClock(w.StartHour, 0) }
func (w DailyWindow) end() generic.ClockTime   { return generic.NewClock(w.EndHour, 0) }

// Policy holds the rule parameters used by the evaluator, accumulator and
// aggregator.
type Policy struct {
	DailyWindow          DailyWindow
	HoursPerFullDay      decimal.Decimal
	MinPartialHours      decimal.Decimal
	LeadTimeDays         int
	SummerWindow         generic.SeasonalWindow
	SummerCapDays        int
	SickVerificationDays int

	// Location is where dates and wall-clock times are interpreted.
	// Nil means UTC.
	Location *time.Location
}

// DefaultPolicy returns the rules currently in force.
func DefaultPolicy() Policy {
	return Policy{
		DailyWindow:          DailyWindow{StartHour: 8, EndHour: 16},
		HoursPerFullDay:      decimal.NewFromInt(8),
		MinPartialHours:      decimal.NewFromFloat(0.5),
		LeadTimeDays:         14,
		SummerWindow:         generic.SummerWindow,
		SummerCapDays:        3,
		SickVerificationDays: 3,
		Location:             time.UTC,
	}
}

// Validate rejects parameter combinations the evaluator cannot honor.
func (p Policy) Validate() error {
	w := p.DailyWindow
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("daily window %02d:00-%02d:00: %w", w.StartHour, w.EndHour, generic.ErrInvalidPeriod)
	}
	if !p.HoursPerFullDay.IsPositive() {
		return fmt.Errorf("hours per full day must be positive, got %s", p.HoursPerFullDay)
	}
	if p.MinPartialHours.IsNegative() {
		return fmt.Errorf("minimum partial hours must not be negative, got %s", p.MinPartialHours)
	}
	if p.LeadTimeDays < 0 || p.SummerCapDays < 0 || p.SickVerificationDays < 0 {
		return fmt.Errorf("day limits must not be negative")
	}
	return nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
