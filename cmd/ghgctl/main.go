// Command ghgctl queries the emissions API from a terminal and prints the same
// summaries the dashboard renders.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}
