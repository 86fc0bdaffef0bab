// Command vendorsum loads raw inventory files into SQLite and builds the
// vendor sales summary.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/vendor-summary-db/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
