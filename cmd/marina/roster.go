package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newRosterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Roster maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Replace stored employees with the configured roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if a.roster == nil {
					return errors.New("roster.source is not configured")
				}
				n, err := a.roster.Sync(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "synced %d employees from %s\n", n, a.cfg.Roster.Source)
				return nil
			})
		},
	})
	return cmd
}
