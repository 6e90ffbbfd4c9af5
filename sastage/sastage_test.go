package sastage

import (
	"testing"

	"github.com/ihuguet/picofst/item"
	"github.com/ihuguet/picofst/phonetable"
	"github.com/ihuguet/picofst/stage"
)

func buildVowelConsonantTable() *phonetable.Table {
	const v, c int8 = 1, 2
	return phonetable.NewBuilder().SetVowelLike(v).SetSyllBound(9).Build()
}

func drainToIdle(t *testing.T, s *Stage, maxSteps int) []item.Item {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		status := s.Step(0)
		switch status {
		case stage.Idle:
			out := s.Output()
			items, err := item.DecodeAll(out)
			if err != nil {
				t.Fatalf("DecodeAll: %v", err)
			}
			return items
		case stage.Error:
			t.Fatalf("stage returned Error")
		case stage.OutFull:
			t.Fatalf("stage OutFull with unbounded test buffer")
		}
	}
	t.Fatalf("stage did not reach Idle within %d steps", maxSteps)
	return nil
}

func TestNaturalPhraseEndNoFSTs(t *testing.T) {
	phones := buildVowelConsonantTable()
	s := New(nil, nil, nil, nil, phones, nil)

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 1, Content: []byte{1, 2, 1}})
	buf = item.Encode(buf, item.Item{Type: item.PUNC, Info1: item.PuncNatural})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 20)
	if len(items) == 0 {
		t.Fatalf("expected at least one emitted item")
	}
	found := false
	for _, it := range items {
		if it.Type == item.WORDPHON {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a WORDPHON item in output, got %+v", items)
	}
}

func TestForcedPhraseEndAtCapacity(t *testing.T) {
	phones := buildVowelConsonantTable()
	s := New(nil, nil, nil, nil, phones, nil)
	s.maxHead = 4

	var buf []byte
	for i := 0; i < 10; i++ {
		buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 1, Content: []byte{1}})
	}
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 100)
	if len(items) < 10 {
		t.Errorf("expected all 10 words to eventually be emitted across forced phrases, got %d", len(items))
	}
}

func TestOpenPhonemeCommandRewrittenToWordphon(t *testing.T) {
	phones := buildVowelConsonantTable()
	s := New(nil, nil, nil, nil, phones, nil)

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.CMD, Info1: item.CmdOpenPhoneme, Content: []byte{1}})
	buf = item.Encode(buf, item.Item{Type: item.PUNC, Info1: item.PuncNatural})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 20)
	if len(items) == 0 || items[0].Type != item.WORDPHON || items[0].Info1 != posXX {
		t.Errorf("expected opening-phoneme command rewritten to WORDPHON(POS=XX), got %+v", items)
	}
}

type stubClassifier struct {
	pos int16
}

func (c stubClassifier) Classify(_ []int16) int16 { return c.pos }

func TestProcessPosDInvokesClassifierForAmbiguousPOS(t *testing.T) {
	phones := buildVowelConsonantTable()
	s := New(stubClassifier{pos: 7}, nil, nil, nil, phones, nil)

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.WORDGRAPH, Info1: posAmbiguous, Content: []byte{1}})
	buf = item.Encode(buf, item.Item{Type: item.PUNC, Info1: item.PuncNatural})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 20)
	if len(items) == 0 || items[0].Info1 != 7 {
		t.Errorf("expected ambiguous POS narrowed to 7 by classifier, got %+v", items)
	}
}

func TestProcessPosDSkipsClassifierForUniquePOS(t *testing.T) {
	phones := buildVowelConsonantTable()
	s := New(stubClassifier{pos: 7}, nil, nil, nil, phones, nil)

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.WORDGRAPH, Info1: 3, Content: []byte{1}})
	buf = item.Encode(buf, item.Item{Type: item.PUNC, Info1: item.PuncNatural})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 20)
	if len(items) == 0 || items[0].Info1 != 3 {
		t.Errorf("expected unique POS 3 to pass through untouched, got %+v", items)
	}
}

func TestPosReverseMapRecordsEveryHead(t *testing.T) {
	phones := buildVowelConsonantTable()
	s := New(stubClassifier{pos: 7}, nil, nil, nil, phones, nil)

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.WORDGRAPH, Info1: posAmbiguous, Content: []byte{1}})
	buf = item.Encode(buf, item.Item{Type: item.WORDGRAPH, Info1: 3, Content: []byte{1}})
	buf = item.Encode(buf, item.Item{Type: item.PUNC, Info1: item.PuncNatural})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	// Drive just past ProcessPosD so posReverseMap reflects this phrase.
	for s.ph != phProcessWPho {
		if status := s.Step(0); status == stage.Error {
			t.Fatalf("stage returned Error")
		}
	}
	got := s.PosReverseMap()
	if len(got) != 3 || got[0] != 7 || got[1] != 3 {
		t.Errorf("PosReverseMap = %v, want [7 3 <PUNC entry>]", got)
	}
}

func TestCmdFlushRewrittenToPuncFlush(t *testing.T) {
	phones := buildVowelConsonantTable()
	s := New(nil, nil, nil, nil, phones, nil)

	buf := item.Encode(nil, item.Item{Type: item.CMD, Info1: item.CmdFlush})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 20)
	for _, it := range items {
		if it.Type == item.CMD {
			t.Errorf("CMD FLUSH should have been rewritten to PUNC, got %+v", items)
		}
	}
}
