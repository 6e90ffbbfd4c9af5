package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ihuguet/picofst/fstimage"
)

func newDumpFSTCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-fst <path>",
		Short: "Load a compiled FST image and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runDumpFST,
	}
}

func runDumpFST(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading fst image: %w", err)
	}

	fi, err := fstimage.Load(raw)
	if err != nil {
		return fmt.Errorf("loading fst image: %w", err)
	}

	states, classes := fi.Sizes()
	accepting := 0
	for s := fstimage.State(1); int(s) <= states; s++ {
		if fi.IsAccepting(s) {
			accepting++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "states:          %d\n", states)
	fmt.Fprintf(out, "classes:         %d\n", classes)
	fmt.Fprintf(out, "mode:            %d\n", fi.Mode())
	fmt.Fprintf(out, "terminatorClass: %d\n", fi.TerminatorClass())
	fmt.Fprintf(out, "acceptingStates: %d\n", accepting)
	return nil
}
