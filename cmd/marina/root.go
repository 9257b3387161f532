package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "marina",
		Short: "Marina staff desk: time off, shifts and maintenance",
		Long: `marina runs the staff desk API and its admin chores.
Configuration comes from a YAML file (--config or MARINA_CONFIG) and
MARINA_* environment variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newRosterCmd(opts))
	root.AddCommand(newTotalsCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}

// withApp opens the app, runs fn and closes it again.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(a *app) error) error {
	a, err := openApp(opts.configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
