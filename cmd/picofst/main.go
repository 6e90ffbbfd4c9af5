// Command picofst runs the phonetic finite-state transduction pipeline,
// grounded on DMRHub's cmd/main.go → internal/cmd.NewCommand split: a
// thin main that wires version/commit into the cobra command tree and
// nothing else.
package main

import (
	"fmt"
	"os"

	"github.com/ihuguet/picofst/internal/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := cmd.NewCommand(version, commit).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
