// Package timeoff implements the time-off request policy engine: the rules that
// decide whether a PTO, SICK or PFML request is approved, denied or pending,
// the summer usage accumulator, the balance ledger and the admin totals.
package timeoff

import (
	"strings"
	"time"

	"github.com/marinaops/staffdesk/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND - What sort of leave is requested
// =============================================================================

// Kind is the closed set of request kinds. Values outside the set survive a
// storage round-trip but are rejected by the evaluator and skipped by totals.
type Kind string

const (
	KindPTO  Kind = "PTO"
	KindSick Kind = "SICK"
	KindPFML Kind = "PFML"
)

// Kinds lists the recognized kinds in display order.
var Kinds = []Kind{KindPTO, KindSick, KindPFML}

// ParseKind accepts any casing plus the "PSL" alias for sick leave.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PTO":
		return KindPTO, true
	case "SICK", "PSL":
		return KindSick, true
	case "PFML":
		return KindPFML, true
	default:
		return Kind(s), false
	}
}

// Known reports whether k is one of the recognized kinds.
func (k Kind) Known() bool {
	switch k {
	case KindPTO, KindSick, KindPFML:
		return true
	default:
		return false
	}
}

// =============================================================================
// STATUS - Set once at creation, never transitioned
// =============================================================================

type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending" // awaiting manual action outside this system
	StatusDenied   Status = "denied"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a roster entry. Missing balances decode as zero.
type Employee struct {
	ID       generic.EntityID `json:"id"`
	Name     string           `json:"name"`
	Position string           `json:"position"`
	Color    string           `json:"color"`
	PTOHours decimal.Decimal  `json:"ptoHours"`
	PSLHours decimal.Decimal  `json:"pslHours"`
}

// =============================================================================
// TIME-OFF REQUEST - The persisted, immutable record
// =============================================================================

// Request is a decided time-off request. Hours are fixed at creation and never
// recomputed from Start/End.
type Request struct {
	ID                 string           `json:"id"`
	EmployeeID         generic.EntityID `json:"employeeId"`
	Kind               Kind             `json:"kind"`
	Start              time.Time        `json:"startISO"`
	End                time.Time        `json:"endISO"`
	Hours              decimal.Decimal  `json:"hours"`
	Notes              string           `json:"notes"`
	Status             Status           `json:"status"`
	CreatedAt          time.Time        `json:"createdAtISO"`
	VerificationNeeded bool             `json:"verificationNeeded"`
}

// Span returns the local calendar dates the request touches.
func (r Request) Span(loc *time.Location) generic.Period {
	return generic.Period{
		Start: generic.DateOf(r.Start, loc),
		End:   generic.DateOf(r.End, loc),
	}
}

// =============================================================================
// DRAFT - What the caller submits
// =============================================================================

// Draft is an undecided request as collected from a form. Dates carry no zone;
// times are wall-clock in the policy location and only read when FullDay is
// false. A zero EndDate means a single-day request.
type Draft struct {
	Kind       Kind               `json:"kind"`
	EmployeeID generic.EntityID   `json:"employeeId"`
	FullDay    bool               `json:"fullDay"`
	StartDate  generic.Date       `json:"startDate"`
	EndDate    generic.Date       `json:"endDate"`
	StartTime  *generic.ClockTime `json:"startTime,omitempty"`
	EndTime    *generic.ClockTime `json:"endTime,omitempty"`
	Notes      string             `json:"notes"`
}

func (d Draft) endDate() generic.Date {
	if d.EndDate.IsZero() {
		return d.StartDate
	}
	return d.EndDate
}
