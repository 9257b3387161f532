/*
Package generic provides the domain-agnostic primitives of the staff desk.

PURPOSE:
  This package contains the small value types every other package leans on:
  identifiers, hour quantities, calendar dates, wall-clock times, periods and
  the sentinel errors. None of it knows what a PTO request is.

KEY CONCEPTS IN THIS FILE (types.go):
  - EntityID: Opaque identifier that accepts a JSON string or number
  - Hours helpers: decimal.Decimal quantities with a floor at zero

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift in balances
  2. Type Safety: Named identifier types instead of bare strings
  3. Plain values: Everything here is comparable and copyable

USAGE:
  hours := generic.HoursBetween(start, end)
  left := generic.FloorZero(balance.Sub(hours))

SEE ALSO:
  - time.go: Date and ClockTime
  - period.go: Period and SeasonalWindow
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EntityID identifies an employee. Rosters in the wild carry either numeric or
// string ids, so both JSON forms decode into the same value.
type EntityID string

func (id EntityID) String() string { return string(id) }

// MarshalJSON always emits a JSON string.
func (id EntityID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts "e1", 17 and null.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntityID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entity id must be a string or number: %w", err)
	}
	*id = EntityID(n.String())
	return nil
}

// =============================================================================
// HOURS - decimal quantities
// =============================================================================

var minutesPerHour = decimal.NewFromInt(60)

// NewHours converts a float literal to a decimal hour quantity.
func NewHours(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// HoursBetween returns end-start in hours, rounded to two decimals.
// Sub-minute precision is dropped.
func HoursBetween(start, end time.Time) decimal.Decimal {
	minutes := int64(end.Sub(start) / time.Minute)
	return decimal.NewFromInt(minutes).Div(minutesPerHour).Round(2)
}

// FloorZero clamps negative quantities to zero.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
