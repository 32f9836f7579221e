// rdedupe finds files with identical contents under a directory and
// reports the space they waste.
package main

import (
	"fmt"
	"os"

	"github.com/blackopsrepl/rdedupe/internal/cli"
)

// version is set at build time.
//
//nolint:gochecknoglobals // Set by -ldflags
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rdedupe: %v\n", err)
		os.Exit(1)
	}
}
