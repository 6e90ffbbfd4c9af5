package cmd

import (
	"bytes"
	"testing"

	"github.com/ihuguet/picofst/item"
)

func TestRunCommandDrivesPipelineToCompletion(t *testing.T) {
	var in []byte
	in = item.Encode(in, item.Item{Type: item.WORDPHON, Info1: 1, Content: []byte{1, 2, 1}})
	in = item.Encode(in, item.Item{Type: item.PUNC, Info1: item.PuncNatural})

	c := newRunCommand()
	var out bytes.Buffer
	c.SetIn(bytes.NewReader(in))
	c.SetOut(&out)
	c.SetArgs([]string{})

	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	items, err := item.DecodeAll(out.Bytes())
	if err != nil {
		t.Fatalf("DecodeAll output: %v", err)
	}
	if len(items) == 0 {
		t.Error("expected at least one item out of the pipeline")
	}
}

func TestSaToSphoItemsWrapsPhraseInBounds(t *testing.T) {
	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 1, Content: []byte{1, 2}})
	buf = item.Encode(buf, item.Item{Type: item.PUNC, Info1: item.PuncNatural})

	out, err := saToSphoItems(buf)
	if err != nil {
		t.Fatalf("saToSphoItems: %v", err)
	}

	items, err := item.DecodeAll(out)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items (SBEG, WORDPHON, SEND), got %d: %+v", len(items), items)
	}
	if items[0].Type != item.BOUND || items[0].Info1 != item.BoundSBEG {
		t.Errorf("items[0] = %+v, want BOUND SBEG", items[0])
	}
	if items[1].Type != item.WORDPHON {
		t.Errorf("items[1] = %+v, want WORDPHON", items[1])
	}
	if items[2].Type != item.BOUND || items[2].Info1 != item.BoundSEND {
		t.Errorf("items[2] = %+v, want BOUND SEND", items[2])
	}
}

func TestSaToSphoItemsClosesTrailingOpenWindow(t *testing.T) {
	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 1, Content: []byte{1}})

	out, err := saToSphoItems(buf)
	if err != nil {
		t.Fatalf("saToSphoItems: %v", err)
	}
	items, err := item.DecodeAll(out)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(items) != 2 || items[len(items)-1].Info1 != item.BoundSEND {
		t.Fatalf("expected a trailing BOUND SEND to close the window, got %+v", items)
	}
}

func TestSaToSphoItemsEmptyInputProducesNoWindow(t *testing.T) {
	out, err := saToSphoItems(nil)
	if err != nil {
		t.Fatalf("saToSphoItems: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no output for empty input, got %d bytes", len(out))
	}
}
