// Command taxietl loads a month of NYC yellow taxi trips into a relational
// table: it filters and enriches the trips and overwrites the sink table.
package main

import (
	"fmt"
	"os"

	// register all backends with the storage factory.
	// the sink URL selects one at run time.
	_ "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/all"
)

func main() {
	rootCmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
