/*
export.go - CSV and PDF renderings of the admin reports

PURPOSE:
  Turns aggregated totals and raw request history into files an office
  manager can open: two CSV layouts and one PDF table.

FORMATS:
  Totals CSV:   Year, Employee, Position, Requested(hrs), Approved(hrs), Taken(hrs)
  Requests CSV: Start, End, Type, Employee, Status

  Hours are written with two decimals. encoding/csv quotes any value that
  holds a comma, quote or newline and doubles embedded quotes.
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/timeoff"
)

// TimestampLayout is how request instants appear in exports.
const TimestampLayout = "2006-01-02 15:04"

var (
	TotalsHeader   = []string{"Year", "Employee", "Position", "Requested(hrs)", "Approved(hrs)", "Taken(hrs)"}
	RequestsHeader = []string{"Start", "End", "Type", "Employee", "Status"}
)

// SelectBucket picks one kind's sums, or all kinds summed when kind is empty.
func SelectBucket(row timeoff.EmployeeTotals, kind timeoff.Kind) (timeoff.Bucket, error) {
	if kind == "" {
		return row.Combined(), nil
	}
	b, ok := row.Bucket(kind)
	if !ok {
		return timeoff.Bucket{}, fmt.Errorf("%w: %q", generic.ErrUnsupportedKind, kind)
	}
	return b, nil
}

// WriteTotalsCSV writes one row per employee, sorted by name.
func WriteTotalsCSV(w io.Writer, totals timeoff.Totals, kind timeoff.Kind) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TotalsHeader); err != nil {
		return err
	}
	year := strconv.Itoa(totals.Year)
	for _, row := range totals.Rows() {
		b, err := SelectBucket(row, kind)
		if err != nil {
			return err
		}
		if err := cw.Write([]string{
			year,
			row.Name,
			row.Position,
			hours(b.Requested),
			hours(b.Approved),
			hours(b.Taken),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRequestsCSV writes every request sorted by start. Requests whose
// employee left the roster are labelled "Unknown (<id>)".
func WriteRequestsCSV(w io.Writer, requests []timeoff.Request, employees []timeoff.Employee, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	names := make(map[generic.EntityID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	sorted := make([]timeoff.Request, len(requests))
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	cw := csv.NewWriter(w)
	if err := cw.Write(RequestsHeader); err != nil {
		return err
	}
	for _, r := range sorted {
		name, ok := names[r.EmployeeID]
		if !ok {
			name = fmt.Sprintf("Unknown (%s)", r.EmployeeID)
		}
		if err := cw.Write([]string{
			r.Start.In(loc).Format(TimestampLayout),
			r.End.In(loc).Format(TimestampLayout),
			string(r.Kind),
			name,
			string(r.Status),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func hours(d decimal.Decimal) string {
	return d.StringFixed(2)
}
