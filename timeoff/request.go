package timeoff

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/marinaops/staffdesk/generic"
)

// =============================================================================
// REQUEST SERVICE - Evaluate, persist and apply balances in one transaction
// =============================================================================

// DecisionRecorder receives every decision the service makes. The metrics
// package provides the prometheus implementation.
type DecisionRecorder interface {
	RecordDecision(d Decision)
}

type RequestService struct {
	Store     TxStore
	Evaluator *Evaluator

	// Clock supplies "now" for lead time and taken hours. Defaults to time.Now.
	Clock func() time.Time

	// RecordDenied appends a denied record for every rejected draft whose
	// instants are well ordered.
	RecordDenied bool

	Logger  *slog.Logger
	Metrics DecisionRecorder // optional
}

// NewRequestService wires a service with the given policy.
func NewRequestService(store TxStore, policy Policy, logger *slog.Logger) *RequestService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RequestService{
		Store:     store,
		Evaluator: NewEvaluator(policy),
		Clock:     time.Now,
		Logger:    logger,
	}
}

// =============================================================================
// SUBMIT - The critical transactional operation
// =============================================================================

// Submit decides draft and persists the outcome.
// This is TRANSACTIONAL:
//   - Snapshots employees and history inside the transaction
//   - Evaluates the draft against the snapshot
//   - Accepted: appends the record and applies the balance ledger
//   - Rejected: optionally appends the denied record, no re-check
//
// If ANY write fails, ALL changes are rolled back and the error is returned.
// A rejected draft is not an error: inspect Decision.Accepted.
func (rs *RequestService) Submit(ctx context.Context, draft Draft) (Decision, error) {
	var decision Decision

	err := rs.Store.WithTx(ctx, func(tx Store) error {
		employees, err := tx.ListEmployees(ctx)
		if err != nil {
			return fmt.Errorf("list employees: %w", err)
		}
		history, err := tx.ListRequests(ctx)
		if err != nil {
			return fmt.Errorf("list requests: %w", err)
		}

		decision = rs.Evaluator.Evaluate(draft, employees, history, rs.now())

		if !decision.Accepted {
			if !rs.RecordDenied {
				return nil
			}
			denied, ok := decision.DeniedRecord()
			if !ok {
				return nil
			}
			if err := tx.AppendRequest(ctx, denied); err != nil {
				return fmt.Errorf("append denied request: %w", err)
			}
			return nil
		}

		if err := tx.AppendRequest(ctx, decision.Record); err != nil {
			return fmt.Errorf("append request: %w", err)
		}
		if !Affects(decision.Record) {
			return nil
		}
		emp, err := tx.GetEmployee(ctx, decision.Record.EmployeeID)
		if err != nil {
			return fmt.Errorf("load employee %s: %w", decision.Record.EmployeeID, err)
		}
		if err := tx.SaveEmployee(ctx, ApplyApproval(emp, decision.Record)); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}
		return nil
	})
	if err != nil {
		rs.logger().ErrorContext(ctx, "submit failed",
			slog.String("employee_id", draft.EmployeeID.String()),
			slog.String("kind", string(draft.Kind)),
			slog.Any("error", err))
		return Decision{}, err
	}

	rs.observe(ctx, decision)
	return decision, nil
}

func (rs *RequestService) observe(ctx context.Context, d Decision) {
	attrs := []any{
		slog.String("request_id", d.Record.ID),
		slog.String("employee_id", d.Record.EmployeeID.String()),
		slog.String("kind", string(d.Record.Kind)),
		slog.String("hours", d.Record.Hours.String()),
	}
	if d.Accepted {
		attrs = append(attrs, slog.String("status", string(d.Record.Status)))
		if d.Record.VerificationNeeded {
			attrs = append(attrs, slog.Bool("verification_needed", true))
		}
		rs.logger().InfoContext(ctx, "request accepted", attrs...)
	} else {
		r := d.Reasons[0]
		attrs = append(attrs,
			slog.String("code", string(r.Code)),
			slog.String("category", string(r.Category)),
			slog.String("reason", r.Message))
		rs.logger().InfoContext(ctx, "request rejected", attrs...)
	}
	if rs.Metrics != nil {
		rs.Metrics.RecordDecision(d)
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// SummerUsage returns the summer PTO days the employee has used in year.
// Returns generic.ErrNotFound for unknown employees.
func (rs *RequestService) SummerUsage(ctx context.Context, employeeID generic.EntityID, year int) (int, error) {
	if _, err := rs.Store.GetEmployee(ctx, employeeID); err != nil {
		return 0, err
	}
	history, err := rs.Store.ListRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("list requests: %w", err)
	}
	p := rs.Evaluator.Policy
	return SummerDaysUsed(employeeID, year, history, p.SummerWindow, p.location()), nil
}

// Totals aggregates the admin rollup for year as of now.
func (rs *RequestService) Totals(ctx context.Context, year int) (Totals, error) {
	employees, err := rs.Store.ListEmployees(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("list employees: %w", err)
	}
	history, err := rs.Store.ListRequests(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("list requests: %w", err)
	}
	return Aggregate(year, history, employees, rs.now(), rs.Evaluator.Policy.location()), nil
}

// HistoryFilter narrows History. Zero fields match everything.
type HistoryFilter struct {
	EmployeeID generic.EntityID
	Year       int
}

// History returns the matching records ordered by start.
func (rs *RequestService) History(ctx context.Context, f HistoryFilter) ([]Request, error) {
	all, err := rs.Store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	loc := rs.Evaluator.Policy.location()

	out := make([]Request, 0, len(all))
	for _, r := range all {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Year != 0 && r.Start.In(loc).Year() != f.Year && r.End.In(loc).Year() != f.Year {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Now is the service clock.
func (rs *RequestService) Now() time.Time { return rs.now() }

// Location is where the policy reads dates and years.
func (rs *RequestService) Location() *time.Location { return rs.Evaluator.Policy.location() }

func (rs *RequestService) now() time.Time {
	if rs.Clock == nil {
		return time.Now()
	}
	return rs.Clock()
}

func (rs *RequestService) logger() *slog.Logger {
	if rs.Logger == nil {
		return slog.Default()
	}
	return rs.Logger
}
