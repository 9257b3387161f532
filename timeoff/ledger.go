/*
ledger.go - Balance side effects of approved requests

PURPOSE:
  The ledger is the only writer of Employee.PTOHours and Employee.PSLHours.
  It runs once per newly created record, in the same store transaction that
  appends the record, so history and balances never drift apart.

RULES:
  approved PTO   -> PTOHours -= hours, floored at 0
  approved SICK  -> PSLHours -= hours, floored at 0
  PFML           -> never touches balances
  not approved   -> no effect

  The floor cannot normally trigger because the evaluator refuses requests
  larger than the balance. It still holds if a record is appended through
  some other path.

SEE ALSO:
  - request.go: Calls ApplyApproval inside WithTx
*/
package timeoff

import "github.com/marinaops/staffdesk/generic"

// ApplyApproval returns emp with the balance effect of rec applied.
func ApplyApproval(emp Employee, rec Request) Employee {
	if rec.Status != StatusApproved {
		return emp
	}
	switch rec.Kind {
	case KindPTO:
		emp.PTOHours = generic.FloorZero(emp.PTOHours.Sub(rec.Hours))
	case KindSick:
		emp.PSLHours = generic.FloorZero(emp.PSLHours.Sub(rec.Hours))
	case KindPFML:
		// tracked externally
	default:
		// unknown kinds carry no balance
	}
	return emp
}

// Affects reports whether ApplyApproval would change any balance for rec.
func Affects(rec Request) bool {
	return rec.Status == StatusApproved && (rec.Kind == KindPTO || rec.Kind == KindSick)
}
