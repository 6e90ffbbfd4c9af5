// Package cmd builds the picofst cobra command tree, grounded on
// DMRHub's internal/cmd.NewCommand: a thin root command carrying
// version/commit annotations with the actual work done by its
// subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the picofst root command with its subcommands
// attached. cmd/picofst's main.go is the only caller.
func NewCommand(version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:               "picofst",
		Short:             "Phonetic finite-state transduction pipeline",
		Version:           fmt.Sprintf("%s (%s)", version, commit),
		Annotations:       map[string]string{"version": version, "commit": commit},
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	root.AddCommand(newDumpFSTCommand())
	root.AddCommand(newRunCommand())
	return root
}
