/*
errors.go - Centralized error types for the staff desk

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  Domain packages wrap these with additional context and callers match
  them with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - Malformed input (bad ordering, unknown employee)
  2. Policy errors - Well-formed input the rules refuse (lead time, cap, balance)
  3. Store errors - Persistence failures

USAGE:
  if errors.Is(err, generic.ErrLeadTime) {
      // tell the employee how much notice is required
  }

SEE ALSO:
  - timeoff/rejection.go: Rejection reasons unwrap to these sentinels
  - store/sqlite/sqlite.go: Wraps driver errors
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a range ends at or before its start.
	ErrInvalidPeriod = errors.New("invalid period: end not after start")

	// ErrEntityNotFound is returned when a referenced employee doesn't exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrUnsupportedKind is returned for request kinds the engine has no rules for.
	ErrUnsupportedKind = errors.New("unsupported request kind")

	// ErrLeadTime is returned when a request is submitted with too little notice.
	ErrLeadTime = errors.New("lead time violation")

	// ErrSeasonalCap is returned when a request would exceed a seasonal day cap.
	ErrSeasonalCap = errors.New("seasonal cap exceeded")

	// ErrInsufficientBalance is returned when consumption exceeds available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID is returned when a record id is reused.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrInvalidInput is returned for missing or malformed fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a write collides with an existing record.
	ErrConflict = errors.New("conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	EntityID  EntityID
	Balance   string // which balance, e.g. "PTO"
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s h, requested %s h",
		e.Balance, e.Available.String(), e.Requested.String())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or a
// policy refusal.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnsupportedKind) ||
		errors.Is(err, ErrLeadTime) ||
		errors.Is(err, ErrSeasonalCap) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrInvalidInput)
}

// IsConflict returns true if the error is a collision with stored state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound) ||
		errors.Is(err, ErrNotFound)
}
