/*
main.go - Application entry point

PURPOSE:
  The marina binary runs the staff desk server and a few admin chores from
  the shell. Every command shares one config and one record store.

COMMANDS:
  serve                  HTTP API with graceful shutdown
  roster sync            Pull the roster into the store once
  totals --year          Print the yearly totals table (or --csv)
  export requests        Write the full request history as CSV

CONFIGURATION:
  --config or MARINA_CONFIG names a YAML file; MARINA_* env vars override
  it. A .env file in the working directory is read first.

EXAMPLES:
  marina serve --config ./marina.yaml
  MARINA_STORE__DRIVER=memory marina serve
  marina totals --year 2025 --kind pto
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
