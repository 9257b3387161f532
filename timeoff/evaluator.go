/*
evaluator.go - The time-off policy engine

PURPOSE:
  Decides a Draft against the roster and the request history. The decision
  is a pure function of its inputs: nothing is read from or written to a
  store here. The caller persists whatever comes back.

CHECK ORDER (first failure wins):
  1. time_ordering  End must be after start           (all kinds)
  2. employee       Employee must exist               (all kinds)
  3. kind           Kind must be PTO, SICK or PFML     (all kinds)
  4. lead_time      Start at least N days after today (PTO)
  5. summer_cap     Summer days used + requested <= cap (PTO touching summer)
  6. balance        Hours <= remaining balance        (PTO, SICK)

  Only one reason is ever returned. When several rules fail at once the
  order above decides which one the employee sees, so it is kept as an
  explicit slice rather than nested ifs.

OUTCOMES:
  PTO, SICK   -> approved
  PFML        -> pending (never auto-approved; handled outside this system)
  rejected    -> Decision.Accepted == false, one Rejection

DERIVED VALUES:
  Full day:  instants clamp to the daily window, hours = days x 8
  Partial:   instants from the supplied clock times,
             hours = max(0.5, end - start)
  Requested days (cap and verification): full day ? days : ceil(hours / 8)

  The derived values are kept on rejected decisions too, so the caller can
  log a denied record with the same hours and timestamps.

EXAMPLE:
  ev := timeoff.NewEvaluator(timeoff.DefaultPolicy())
  d := ev.Evaluate(draft, employees, history, time.Now())
  if !d.Accepted {
      fmt.Println(d.Messages())
  }

SEE ALSO:
  - usage.go: Summer days already consumed
  - ledger.go: Balance side effect of an approved record
  - request.go: Persists decisions
*/
package timeoff

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marinaops/staffdesk/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DECISION
// =============================================================================

// Decision is the evaluator's verdict on one draft.
type Decision struct {
	Accepted bool

	// Record is the record to persist when accepted. On rejection it still
	// carries the derived id, instants and hours with StatusDenied.
	Record Request

	// Reasons holds exactly one entry when rejected.
	Reasons []*Rejection

	// RequestedDays is the day count used for the summer cap and sick
	// verification rules.
	RequestedDays int

	wellOrdered bool
}

// Messages returns the human-readable rejection reasons.
func (d Decision) Messages() []string {
	msgs := make([]string, len(d.Reasons))
	for i, r := range d.Reasons {
		msgs[i] = r.Message
	}
	return msgs
}

// Err returns the first rejection as an error, or nil when accepted.
func (d Decision) Err() error {
	if d.Accepted || len(d.Reasons) == 0 {
		return nil
	}
	return d.Reasons[0]
}

// DeniedRecord returns the record to log for a rejected draft. It is only
// available when the instants were well ordered, since no stored record may
// have End <= Start.
func (d Decision) DeniedRecord() (Request, bool) {
	if d.Accepted || !d.wellOrdered {
		return Request{}, false
	}
	rec := d.Record
	rec.Status = StatusDenied
	rec.VerificationNeeded = false
	return rec, true
}

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluator applies Policy to drafts.
type Evaluator struct {
	Policy Policy

	// NewID generates record ids. Defaults to random UUIDs.
	NewID func() string

	checks []check
}

// NewEvaluator returns an evaluator with the standard check order.
func NewEvaluator(policy Policy) *Evaluator {
	return &Evaluator{
		Policy: policy,
		NewID:  uuid.NewString,
		checks: standardChecks(),
	}
}

// Checks returns the names of the checks in the order they run.
func (e *Evaluator) Checks() []string {
	names := make([]string, len(e.checks))
	for i, c := range e.checks {
		names[i] = c.name
	}
	return names
}

// Evaluate decides draft. employees and prior are snapshots from the record
// store; now is the submission instant.
func (e *Evaluator) Evaluate(draft Draft, employees []Employee, prior []Request, now time.Time) Decision {
	ev := &evaluation{
		policy:    e.Policy,
		draft:     draft,
		employees: employees,
		history:   prior,
		today:     generic.DateOf(now, e.Policy.location()),
	}
	ev.derive()

	rec := Request{
		ID:         e.newID(),
		EmployeeID: draft.EmployeeID,
		Kind:       draft.Kind,
		Start:      ev.start.UTC(),
		End:        ev.end.UTC(),
		Hours:      ev.hours,
		Notes:      draft.Notes,
		CreatedAt:  now.UTC(),
	}

	for _, c := range e.checks {
		if !c.appliesTo(draft.Kind) {
			continue
		}
		if r := c.run(ev); r != nil {
			rec.Status = StatusDenied
			return Decision{
				Record:        rec,
				Reasons:       []*Rejection{r},
				RequestedDays: ev.requestedDays,
				wellOrdered:   !ev.missing && ev.end.After(ev.start),
			}
		}
	}

	rec.Status = acceptedStatus(draft.Kind)
	rec.VerificationNeeded = draft.Kind == KindSick && ev.requestedDays > e.Policy.SickVerificationDays
	return Decision{
		Accepted:      true,
		Record:        rec,
		RequestedDays: ev.requestedDays,
		wellOrdered:   true,
	}
}

func (e *Evaluator) newID() string {
	if e.NewID == nil {
		return uuid.NewString()
	}
	return e.NewID()
}

func acceptedStatus(k Kind) Status {
	switch k {
	case KindPTO, KindSick:
		return StatusApproved
	case KindPFML:
		return StatusPending
	default:
		// unreachable: the kind check rejects unknown kinds first
		return StatusDenied
	}
}

// =============================================================================
// EVALUATION STATE
// =============================================================================

type evaluation struct {
	policy    Policy
	draft     Draft
	employees []Employee
	history   []Request
	today     generic.Date

	// derived
	start, end    time.Time
	missing       bool
	hours         decimal.Decimal
	requestedDays int

	// resolved by the employee check
	employee *Employee
}

func (ev *evaluation) derive() {
	d, p := ev.draft, ev.policy
	loc := p.location()

	if d.StartDate.IsZero() {
		ev.missing = true
		return
	}
	endDate := d.endDate()

	if d.FullDay {
		days := generic.InclusiveDays(d.StartDate, endDate)
		ev.start = d.StartDate.At(p.DailyWindow.start(), loc)
		ev.end = endDate.At(p.DailyWindow.end(), loc)
		ev.hours = decimal.NewFromInt(int64(days)).Mul(p.HoursPerFullDay)
		ev.requestedDays = days
		return
	}

	if d.StartTime == nil || d.EndTime == nil {
		ev.missing = true
		return
	}
	ev.start = d.StartDate.At(*d.StartTime, loc)
	ev.end = endDate.At(*d.EndTime, loc)
	ev.hours = decimal.Max(p.MinPartialHours, generic.HoursBetween(ev.start, ev.end))
	ev.requestedDays = int(ev.hours.Div(p.HoursPerFullDay).Ceil().IntPart())
}

// =============================================================================
// CHECKS
// =============================================================================

type check struct {
	name  string
	kinds []Kind // nil applies to every kind
	run   func(*evaluation) *Rejection
}

func (c check) appliesTo(k Kind) bool {
	if c.kinds == nil {
		return true
	}
	for _, kind := range c.kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func standardChecks() []check {
	return []check{
		{name: "time_ordering", run: checkTimeOrdering},
		{name: "employee", run: checkEmployee},
		{name: "kind", run: checkKind},
		{name: "lead_time", kinds: []Kind{KindPTO}, run: checkLeadTime},
		{name: "summer_cap", kinds: []Kind{KindPTO}, run: checkSummerCap},
		{name: "balance", kinds: []Kind{KindPTO, KindSick}, run: checkBalance},
	}
}

func checkTimeOrdering(ev *evaluation) *Rejection {
	if ev.missing {
		return invalid(CodeMissingFields, "Start and end are required", generic.ErrInvalidPeriod)
	}
	if !ev.end.After(ev.start) {
		return invalid(CodeEndNotAfterStart, "End must be after start", generic.ErrInvalidPeriod)
	}
	return nil
}

func checkEmployee(ev *evaluation) *Rejection {
	for i := range ev.employees {
		if ev.employees[i].ID == ev.draft.EmployeeID {
			emp := ev.employees[i]
			ev.employee = &emp
			return nil
		}
	}
	return invalid(CodeEmployeeNotFound, "Employee not found", generic.ErrEntityNotFound)
}

func checkKind(ev *evaluation) *Rejection {
	if ev.draft.Kind.Known() {
		return nil
	}
	return invalid(CodeUnsupportedKind,
		fmt.Sprintf("Unsupported request type %q", string(ev.draft.Kind)),
		generic.ErrUnsupportedKind)
}

func checkLeadTime(ev *evaluation) *Rejection {
	notice := generic.DaysBetween(ev.today, ev.draft.StartDate)
	if notice >= ev.policy.LeadTimeDays {
		return nil
	}
	return refused(CodeLeadTime,
		fmt.Sprintf("PTO requires at least %d days notice (%d given)", ev.policy.LeadTimeDays, notice),
		generic.ErrLeadTime)
}

func checkSummerCap(ev *evaluation) *Rejection {
	w := ev.policy.SummerWindow
	start, end := ev.draft.StartDate, ev.draft.endDate()

	var year int
	switch {
	case w.Contains(start):
		year = start.Year()
	case w.Contains(end):
		year = end.Year()
	default:
		return nil
	}

	used := SummerDaysUsed(ev.employee.ID, year, ev.history, w, ev.policy.location())
	if used+ev.requestedDays <= ev.policy.SummerCapDays {
		return nil
	}
	return refused(CodeSummerCap,
		fmt.Sprintf("Summer PTO is capped at %d days per year (%d used in %d, %d requested)",
			ev.policy.SummerCapDays, used, year, ev.requestedDays),
		generic.ErrSeasonalCap)
}

func checkBalance(ev *evaluation) *Rejection {
	var available decimal.Decimal
	var label string
	switch ev.draft.Kind {
	case KindPTO:
		available, label = ev.employee.PTOHours, "PTO"
	case KindSick:
		available, label = ev.employee.PSLHours, "sick"
	default:
		return nil
	}
	if !ev.hours.GreaterThan(available) {
		return nil
	}
	return refused(CodeInsufficientBalance,
		fmt.Sprintf("Insufficient %s balance (%s h requested, %s h available)", label, ev.hours, available),
		&generic.InsufficientBalanceError{
			EntityID:  ev.employee.ID,
			Balance:   label,
			Available: available,
			Requested: ev.hours,
		})
}
