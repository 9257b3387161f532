/*
totals.go - Per-employee yearly rollups for the admin view

PURPOSE:
  Summarizes the request history for one calendar year. Used by the admin
  totals screen and by the CSV/PDF exports.

RULES:
  - A request belongs to the year if its start year or end year matches.
  - requested += hours for every matching request of a recognized kind
  - approved  += hours when status is approved
  - taken     += hours when approved and the request ended before now
  So taken <= approved <= requested, always.
  - Every known employee gets a row, even with no requests.
  - Requests for unknown employees and of unknown kinds are dropped.
*/
package timeoff

import (
	"sort"
	"time"

	"github.com/marinaops/staffdesk/generic"
	"github.com/shopspring/decimal"
)

// Bucket holds the three running sums for one kind.
type Bucket struct {
	Requested decimal.Decimal
	Approved  decimal.Decimal
	Taken     decimal.Decimal
}

func (b Bucket) add(other Bucket) Bucket {
	return Bucket{
		Requested: b.Requested.Add(other.Requested),
		Approved:  b.Approved.Add(other.Approved),
		Taken:     b.Taken.Add(other.Taken),
	}
}

// EmployeeTotals is one row of the admin table.
type EmployeeTotals struct {
	EmployeeID generic.EntityID
	Name       string
	Position   string
	PTO        Bucket
	Sick       Bucket
	PFML       Bucket
}

// Bucket returns the sums for kind; ok is false for unknown kinds.
func (t EmployeeTotals) Bucket(kind Kind) (Bucket, bool) {
	switch kind {
	case KindPTO:
		return t.PTO, true
	case KindSick:
		return t.Sick, true
	case KindPFML:
		return t.PFML, true
	default:
		return Bucket{}, false
	}
}

// Combined sums all kinds.
func (t EmployeeTotals) Combined() Bucket {
	return t.PTO.add(t.Sick).add(t.PFML)
}

func (t *EmployeeTotals) bucket(kind Kind) *Bucket {
	switch kind {
	case KindPTO:
		return &t.PTO
	case KindSick:
		return &t.Sick
	case KindPFML:
		return &t.PFML
	default:
		return nil
	}
}

// Totals is the aggregation result for one year.
type Totals struct {
	Year       int
	ByEmployee map[generic.EntityID]EmployeeTotals
}

// Rows returns the rows sorted by name, then id.
func (t Totals) Rows() []EmployeeTotals {
	rows := make([]EmployeeTotals, 0, len(t.ByEmployee))
	for _, row := range t.ByEmployee {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
	return rows
}

// Aggregate builds the yearly rollup. Years are read in loc.
func Aggregate(year int, requests []Request, employees []Employee, now time.Time, loc *time.Location) Totals {
	if loc == nil {
		loc = time.UTC
	}

	rows := make(map[generic.EntityID]*EmployeeTotals, len(employees))
	for _, emp := range employees {
		rows[emp.ID] = &EmployeeTotals{EmployeeID: emp.ID, Name: emp.Name, Position: emp.Position}
	}

	for _, r := range requests {
		if r.Start.In(loc).Year() != year && r.End.In(loc).Year() != year {
			continue
		}
		row, ok := rows[r.EmployeeID]
		if !ok {
			continue
		}
		b := row.bucket(r.Kind)
		if b == nil {
			continue
		}
		b.Requested = b.Requested.Add(r.Hours)
		if r.Status == StatusApproved {
			b.Approved = b.Approved.Add(r.Hours)
			if r.End.Before(now) {
				b.Taken = b.Taken.Add(r.Hours)
			}
		}
	}

	out := Totals{Year: year, ByEmployee: make(map[generic.EntityID]EmployeeTotals, len(rows))}
	for id, row := range rows {
		out.ByEmployee[id] = *row
	}
	return out
}
