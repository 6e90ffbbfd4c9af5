package sphostage

import (
	"testing"

	"github.com/ihuguet/picofst/item"
	"github.com/ihuguet/picofst/phonetable"
	"github.com/ihuguet/picofst/stage"
)

func drainToIdle(t *testing.T, s *Stage, maxSteps int) []item.Item {
	t.Helper()
	var all []item.Item
	for i := 0; i < maxSteps; i++ {
		status := s.Step(0)
		out := s.Output()
		if len(out) > 0 {
			items, err := item.DecodeAll(out)
			if err != nil {
				t.Fatalf("DecodeAll: %v", err)
			}
			all = append(all, items...)
		}
		switch status {
		case stage.Idle:
			return all
		case stage.Error:
			t.Fatalf("stage returned Error")
		}
	}
	t.Fatalf("stage did not reach Idle within %d steps", maxSteps)
	return nil
}

func TestSingleWordSentenceProducesSyllphonAndBounds(t *testing.T) {
	const v int8 = 1
	phones := phonetable.NewBuilder().SetVowelLike(v).SetSyllBound(9).Build()
	s := New(nil, phones)

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.BOUND, Info1: item.BoundSBEG})
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 3, Info2: 0x10, Content: []byte{byte(v)}})
	buf = item.Encode(buf, item.Item{Type: item.BOUND, Info1: item.BoundSEND})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 50)
	var sawSyll, sawBound bool
	for _, it := range items {
		if it.Type == item.SYLLPHON {
			sawSyll = true
			if it.Info1 != 3 {
				t.Errorf("SYLLPHON should keep word POS, got %d", it.Info1)
			}
		}
		if it.Type == item.BOUND {
			sawBound = true
		}
	}
	if !sawSyll {
		t.Errorf("expected a SYLLPHON item, got %+v", items)
	}
	if !sawBound {
		t.Errorf("expected BOUND items, got %+v", items)
	}
}

func TestBreakTimeZeroDemotesNonPrimaryToPHR0(t *testing.T) {
	got := applyBreakModification(strPHR1, 0, false)
	if got != strPHR0 {
		t.Errorf("applyBreakModification(PHR1, 0, non-primary) = %d, want PHR0", got)
	}
}

func TestBreakTimeZeroKeepsPrimaryPHR0(t *testing.T) {
	got := applyBreakModification(strPHR0, 0, true)
	if got != strPHR0 {
		t.Errorf("applyBreakModification(PHR0, 0, primary) = %d, want PHR0 unchanged", got)
	}
}

func TestBreakTimeAbove50PromotesToPHR1(t *testing.T) {
	got := applyBreakModification(strPHR0, 200, false)
	if got != strPHR1 {
		t.Errorf("applyBreakModification(_, 200, _) = %d, want PHR1", got)
	}
}

func TestBreakTimeUnder50PromotesToPHR2(t *testing.T) {
	got := applyBreakModification(strPHR0, 30, false)
	if got != strPHR2 {
		t.Errorf("applyBreakModification(_, 30, _) = %d, want PHR2", got)
	}
}

func TestApplyFstModificationHoldsDemotedPHR1AndPHR2AtPHR3(t *testing.T) {
	if got := applyFstModification(strPHR1, strPHR0, true); got != strPHR3 {
		t.Errorf("applyFstModification(PHR1, PHR0, true) = %d, want PHR3", got)
	}
	if got := applyFstModification(strPHR2, strPHR0, true); got != strPHR3 {
		t.Errorf("applyFstModification(PHR2, PHR0, true) = %d, want PHR3", got)
	}
}

func TestApplyFstModificationPassesThroughOtherTransitions(t *testing.T) {
	if got := applyFstModification(strPHR0, strPHR1, true); got != strPHR1 {
		t.Errorf("applyFstModification(PHR0, PHR1, true) = %d, want PHR1 (fst-suggested value, not held)", got)
	}
	if got := applyFstModification(strPHR0, strPHR0, false); got != strPHR0 {
		t.Errorf("applyFstModification(_, PHR0, hasOrig=false) = %d, want PHR0 passed through", got)
	}
}

func TestBreakTableMatchesInterruptingCommandTable(t *testing.T) {
	cases := []struct {
		cmd            uint8
		before, after  int32
	}{
		{item.CmdPlay, 0, 1},
		{item.CmdSave, 1, 0},
		{item.CmdUnsave, 1, 0},
		{item.CmdIgnSig, 1, 1},
	}
	for _, c := range cases {
		before, after, ok := breakTable(c.cmd)
		if !ok || before != c.before || after != c.after {
			t.Errorf("breakTable(%d) = (%d,%d,%v), want (%d,%d,true)", c.cmd, before, after, ok, c.before, c.after)
		}
	}
	if _, _, ok := breakTable(item.CmdFlush); ok {
		t.Errorf("breakTable(CmdFlush) should not be break-interrupting")
	}
}

func TestCmdSilPendingBreakPromotesInterWordBoundary(t *testing.T) {
	const v int8 = 1
	phones := phonetable.NewBuilder().SetVowelLike(v).SetSyllBound(9).Build()
	s := New(nil, phones)

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.BOUND, Info1: item.BoundSBEG})
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 3, Content: []byte{byte(v)}})
	buf = item.Encode(buf, item.Item{Type: item.CMD, Info1: item.CmdSil, Content: item.EncodeCmdSilTime(200)})
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 4, Content: []byte{byte(v)}})
	buf = item.Encode(buf, item.Item{Type: item.BOUND, Info1: item.BoundSEND})
	s.Feed(buf)
	s.SetUpstreamIdle(true)

	items := drainToIdle(t, s, 50)
	var sawPromoted bool
	for _, it := range items {
		if it.Type == item.BOUND && it.Info1 == item.BoundPHR1 {
			before, after, ok := item.BoundDuration(it)
			if !ok || before != 200 || after != 200 {
				t.Errorf("promoted boundary duration = (%d,%d,%v), want (200,200,true)", before, after, ok)
			}
			sawPromoted = true
		}
	}
	if !sawPromoted {
		t.Errorf("expected a pending CMD SIL(200) to promote the inter-word boundary to PHR1, got %+v", items)
	}
}

func TestForcedWindowPreservesPenultimaAsLeftContext(t *testing.T) {
	const v int8 = 1
	phones := phonetable.NewBuilder().SetVowelLike(v).SetSyllBound(9).Build()
	s := New(nil, phones)
	s.maxHead = 4

	var buf []byte
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 1, Content: []byte{byte(v)}})
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 2, Content: []byte{byte(v)}})
	buf = item.Encode(buf, item.Item{Type: item.BOUND, Info1: item.BoundWordInternal})
	buf = item.Encode(buf, item.Item{Type: item.WORDPHON, Info1: 3, Content: []byte{byte(v)}})
	s.Feed(buf)

	for s.ph != phShift {
		if status := s.Step(0); status == stage.Error {
			t.Fatalf("stage returned Error")
		}
	}
	if s.penultima != 2 {
		t.Fatalf("penultima = %d, want 2 (the BOUND item before the forced window end)", s.penultima)
	}

	if status := s.Step(0); status == stage.Error {
		t.Fatalf("stage returned Error running Shift")
	}

	if len(s.heads) != 2 {
		t.Fatalf("heads after Shift = %d items, want 2 preserved from penultima onward", len(s.heads))
	}
	if s.heads[0].Type != item.BOUND || s.heads[1].Info1 != 3 {
		t.Errorf("Shift preserved the wrong items: %+v", s.heads)
	}
	if s.emitStart != 2 {
		t.Errorf("emitStart = %d, want 2 so the preserved items are not re-emitted next pass", s.emitStart)
	}
	if s.activeStart != 0 || s.activeEnd != 0 {
		t.Errorf("active window not reset after Shift: start=%d end=%d", s.activeStart, s.activeEnd)
	}
	if s.penultima != -1 {
		t.Errorf("penultima not reset after Shift, got %d", s.penultima)
	}
}
