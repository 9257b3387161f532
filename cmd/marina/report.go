package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marinaops/staffdesk/export"
	"github.com/marinaops/staffdesk/timeoff"
)

func newTotalsCmd(opts *rootOptions) *cobra.Command {
	var (
		year    int
		kindArg string
		asCSV   bool
	)
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Print requested, approved and taken hours per employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var kind timeoff.Kind
			if kindArg != "" {
				k, ok := timeoff.ParseKind(kindArg)
				if !ok {
					return fmt.Errorf("unknown kind %q (use PTO, SICK or PFML)", kindArg)
				}
				kind = k
			}
			return withApp(cmd, opts, func(a *app) error {
				a.syncRosterIfConfigured(cmd.Context())
				y := year
				if y == 0 {
					y = a.requests.Now().In(a.requests.Location()).Year()
				}
				totals, err := a.requests.Totals(cmd.Context(), y)
				if err != nil {
					return err
				}
				if asCSV {
					return export.WriteTotalsCSV(cmd.OutOrStdout(), totals, kind)
				}
				return printTotals(cmd, totals, kind)
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default: current year)")
	cmd.Flags().StringVar(&kindArg, "kind", "", "PTO, SICK or PFML (default: all kinds summed)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	return cmd
}

func printTotals(cmd *cobra.Command, totals timeoff.Totals, kind timeoff.Kind) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMPLOYEE\tPOSITION\tREQUESTED\tAPPROVED\tTAKEN")
	for _, row := range totals.Rows() {
		b, err := export.SelectBucket(row, kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Name, row.Position,
			b.Requested.StringFixed(2), b.Approved.StringFixed(2), b.Taken.StringFixed(2))
	}
	return tw.Flush()
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored records",
	}

	var out string
	requests := &cobra.Command{
		Use:   "requests",
		Short: "Write every time-off request as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				emps, err := a.store.ListEmployees(cmd.Context())
				if err != nil {
					return err
				}
				reqs, err := a.store.ListRequests(cmd.Context())
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				err = export.WriteRequestsCSV(w, reqs, emps, a.requests.Location())
				if err == nil {
					a.metrics.ExportRendered("requests_csv")
				}
				return err
			})
		},
	}
	requests.Flags().StringVarP(&out, "output", "o", "", "file to write (default: stdout)")

	var pdfOut string
	var year int
	totalsPDF := &cobra.Command{
		Use:   "totals-pdf",
		Short: "Render the yearly totals table as a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pdfOut == "" {
				return errors.New("--output is required for PDF")
			}
			return withApp(cmd, opts, func(a *app) error {
				y := year
				if y == 0 {
					y = a.requests.Now().In(a.requests.Location()).Year()
				}
				totals, err := a.requests.Totals(cmd.Context(), y)
				if err != nil {
					return err
				}
				f, err := os.Create(pdfOut)
				if err != nil {
					return err
				}
				defer f.Close()
				return export.WriteTotalsPDF(f, totals, "", a.requests.Now().In(a.requests.Location()))
			})
		},
	}
	totalsPDF.Flags().StringVarP(&pdfOut, "output", "o", "", "PDF file to write")
	totalsPDF.Flags().IntVar(&year, "year", 0, "calendar year (default: current year)")

	cmd.AddCommand(requests, totalsPDF)
	return cmd
}
