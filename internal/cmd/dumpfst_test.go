package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ihuguet/picofst/fstimage"
)

func TestRunDumpFSTPrintsSummary(t *testing.T) {
	bd := fstimage.NewBuilder(1)
	bd.AddPair(10, 20, 1)
	bd.AddTrans(1, 1, 2)
	bd.SetAccepting(2)
	img := bd.Build()

	path := filepath.Join(t.TempDir(), "test.fst")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := newDumpFSTCommand()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetArgs([]string{path})
	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "states:") || !strings.Contains(out, "acceptingStates:") {
		t.Errorf("unexpected dump-fst output: %q", out)
	}
}

func TestRunDumpFSTMissingFile(t *testing.T) {
	c := newDumpFSTCommand()
	c.SetArgs([]string{filepath.Join(t.TempDir(), "missing.fst")})
	if err := c.Execute(); err == nil {
		t.Error("expected an error for a missing file")
	}
}
