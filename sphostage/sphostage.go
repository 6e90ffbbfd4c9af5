// Package sphostage implements the sentence-level front-end stage:
// phrase-boundary reconciliation and syllable re-splitting (spec.md
// §4.7), grounded on picospho.c.
package sphostage

import (
	"github.com/ihuguet/picofst/fstimage"
	"github.com/ihuguet/picofst/item"
	"github.com/ihuguet/picofst/phonetable"
	"github.com/ihuguet/picofst/stage"
	"github.com/ihuguet/picofst/symbol"
	"github.com/ihuguet/picofst/transduce"
)

// Observer receives the warning-worthy events spec.md §7 says a stage
// must report without returning them as errors: a forced window end
// from head-count capacity, and a per-window transduction search that
// hit its depth limit or fell back to identity. A nil Observer is
// valid; Stage checks before every call.
type Observer interface {
	ForcedWindowEnd()
	TransductionStats(stats transduce.Stats)
}

const (
	symPhonStart int8 = 1
	symPhonTerm  int8 = 2
	symWB        int8 = 3
)

// Boundary strengths on the bound-strengths plane mirror item.Bound*
// (spec.md §3 symbol planes, §4.7 ParsePhones).
const (
	strSSEP int8 = int8(item.BoundWordInternal)
	strSEND int8 = int8(item.BoundSEND)
	strPHR0 int8 = int8(item.BoundPHR0)
	strPHR1 int8 = int8(item.BoundPHR1)
	strPHR2 int8 = int8(item.BoundPHR2)
	strPHR3 int8 = int8(item.BoundPHR3)
)

// Accent ids on the accents plane (spec.md §4.7 accent derivation table).
const (
	accNone  int8 = 0 // ACC0
	accWord  int8 = 1 // word-carried accent, used verbatim on primary stress
	accOther int8 = 4 // ACC4
)

const (
	defaultMaxHeads = 80
	defaultMaxDepth = 64
	defaultMaxOut   = 4096
)

type phase int

const (
	phInit phase = iota
	phCollect
	phParsePhones
	phTransduce
	phBounds
	phRecomb
	phFeed
	phShift
)

// sideBound is the resolved boundary Bounds computes for one item in
// the active window, later turned into a BOUND item by Recomb.
type sideBound struct {
	strength int8
	phraseP  bool
	before   int32
	after    int32
	hasDur   bool
	has      bool // Bounds actually resolved a bound-strengths symbol for this head
}

// pendingBreak accumulates the CMD SIL / break-interrupting command
// state observed while walking the active window in ParsePhones, to be
// read back by Bounds when it resolves the next BOUND/WORDPHON item's
// side-boundary (spec.md §4.7 Bounds "break modification"; SPEC_FULL.md
// supplemented feature 4).
type pendingBreak struct {
	timeMs    int32
	hasTime   bool
	minBefore int32
	minAfter  int32
}

// Stage is the SphoStage state machine.
type Stage struct {
	heads   []item.Item
	maxHead int

	sentenceFSTs []*fstimage.FstImage
	maxDepth     int
	phones       *phonetable.Table
	obs          Observer

	ph phase

	pending []byte
	upIdle  bool

	phoneSeq      []symbol.PosSym // ParsePhones/Transduce working buffer, Pos = head index
	transduced    []symbol.PosSym
	bounds        []sideBound // one per head index in the active window
	pendingBreaks map[int]pendingBreak
	lastPhraseB   int // index of the last item promoted to a phrase bound, -1 if none

	activeStart, activeEnd, penultima, emitStart int

	feedQ  []item.Item
	outBuf []byte
	maxOut int
}

// New returns a Stage wired to the given sentence-level FST cascade
// (run in fixed order) and phone property table.
func New(sentenceFSTs []*fstimage.FstImage, phones *phonetable.Table) *Stage {
	return &Stage{
		maxHead:      defaultMaxHeads,
		sentenceFSTs: sentenceFSTs,
		maxDepth:     defaultMaxDepth,
		phones:       phones,
		maxOut:       defaultMaxOut,
		lastPhraseB:  -1,
		penultima:    -1,
	}
}

// SetObserver wires an Observer for warning/metrics reporting. Passing
// nil disables reporting.
func (s *Stage) SetObserver(obs Observer) { s.obs = obs }

// Feed appends raw upstream item bytes (produced by sastage).
func (s *Stage) Feed(buf []byte) { s.pending = append(s.pending, buf...) }

// SetUpstreamIdle tells Collect that no more bytes will arrive this pass.
func (s *Stage) SetUpstreamIdle(idle bool) { s.upIdle = idle }

// Output drains and returns any downstream-ready item bytes.
func (s *Stage) Output() []byte {
	out := s.outBuf
	s.outBuf = nil
	return out
}

// Reset clears transient buffers (Soft) or also forgets the FST
// cascade/phone table (Full).
func (s *Stage) Reset(mode stage.ResetMode) {
	s.heads = nil
	s.pending = nil
	s.phoneSeq = nil
	s.transduced = nil
	s.bounds = nil
	s.pendingBreaks = nil
	s.feedQ = nil
	s.outBuf = nil
	s.lastPhraseB = -1
	s.penultima = -1
	s.activeStart, s.activeEnd, s.emitStart = 0, 0, 0
	s.ph = phInit
	if mode == stage.Full {
		s.sentenceFSTs = nil
		s.phones = nil
	}
}

// Step runs one bounded unit of work through the state machine.
func (s *Stage) Step(_ stage.Mode) stage.Status {
	switch s.ph {
	case phInit:
		s.ph = phCollect
		return stage.Atomic
	case phCollect:
		return s.stepCollect()
	case phParsePhones:
		s.stepParsePhones()
		s.ph = phTransduce
		return stage.Atomic
	case phTransduce:
		s.stepTransduce()
		s.ph = phBounds
		return stage.Atomic
	case phBounds:
		s.stepBounds()
		s.ph = phRecomb
		return stage.Atomic
	case phRecomb:
		s.stepRecomb()
		s.ph = phFeed
		return stage.Atomic
	case phFeed:
		return s.stepFeed()
	case phShift:
		s.stepShift()
		s.ph = phCollect
		return stage.Busy
	}
	return stage.Idle
}

// stepCollect fills the sentence buffer until BOUND-SEND/TERM or
// buffer-full (spec.md §4.7 Collect).
func (s *Stage) stepCollect() stage.Status {
	for len(s.pending) > 0 {
		it, n, err := item.Decode(s.pending)
		if err != nil {
			return stage.Error
		}
		s.pending = s.pending[n:]
		s.heads = append(s.heads, it)

		if it.Type == item.BOUND && it.Info1 == item.BoundSEND {
			s.activeEnd = len(s.heads)
			s.ph = phParsePhones
			return stage.Atomic
		}
		if len(s.heads) >= s.maxHead {
			s.activeEnd = len(s.heads)
			s.penultima = findForcedPenultima(s.heads, s.activeStart, s.activeEnd)
			if s.obs != nil {
				s.obs.ForcedWindowEnd()
			}
			s.ph = phParsePhones
			return stage.Atomic
		}
	}
	if s.upIdle {
		if len(s.heads) > s.activeStart {
			s.activeEnd = len(s.heads)
			s.ph = phParsePhones
			return stage.Atomic
		}
		return stage.Idle
	}
	return stage.Idle
}

// findForcedPenultima locates the last BOUND item before activeEnd to
// use as a forced window's penultima: the point Shift will later
// rewind to, preserving everything from there as left context for the
// next pass (spec.md §4.7 ParsePhones window management, §8 property
// 7). Returns -1 when no boundary is available, in which case Shift
// drops the whole active region as it does for a natural sentence end.
func findForcedPenultima(heads []item.Item, start, end int) int {
	for i := end - 1; i > start; i-- {
		if heads[i].Type == item.BOUND {
			return i
		}
	}
	return -1
}

// stepParsePhones extracts the position/symbol sequence from the
// active window (spec.md §4.7 ParsePhones). The accent table and the
// POS/accent-then-phonemes ordering are applied per word; the
// leading PHR0 word-boundary symbol is suppressed for a word that
// immediately follows any BOUND item, whatever its strength.
func (s *Stage) stepParsePhones() {
	s.phoneSeq = s.phoneSeq[:0]
	s.phoneSeq = append(s.phoneSeq, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symPhonStart})})

	s.pendingBreaks = make(map[int]pendingBreak)
	var pend pendingBreak
	suppressPHR0 := false
	for i := s.activeStart; i < s.activeEnd; i++ {
		it := s.heads[i]
		switch it.Type {
		case item.CMD:
			if it.Info1 == item.CmdSil {
				if ms, ok := item.CmdSilTime(it); ok {
					pend.timeMs = int32(ms)
					pend.hasTime = true
				}
				continue
			}
			if before, after, ok := breakTable(it.Info1); ok {
				if before > pend.minBefore {
					pend.minBefore = before
				}
				if after > pend.minAfter {
					pend.minAfter = after
				}
			}
		case item.BOUND:
			strength := int8(it.Info1)
			if it.Info1 == item.BoundSBEG || it.Info1 == item.BoundSEND {
				strength = strSEND
			}
			s.phoneSeq = append(s.phoneSeq, symbol.PosSym{Pos: int16(i), Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlanePBStr, ID: strength})})
			suppressPHR0 = true
			s.pendingBreaks[i] = pend
			pend = pendingBreak{}
		case item.WORDPHON:
			if !suppressPHR0 {
				s.phoneSeq = append(s.phoneSeq, symbol.PosSym{Pos: int16(i), Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlanePBStr, ID: strPHR0})})
			}
			suppressPHR0 = false
			s.phoneSeq = append(s.phoneSeq, symbol.PosSym{Pos: int16(i), Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlanePOS, ID: int8(it.Info1)})})
			s.phoneSeq = append(s.phoneSeq, symbol.PosSym{Pos: int16(i), Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneAccents, ID: accentFor(it.Info2)})})
			for _, b := range it.Content {
				s.phoneSeq = append(s.phoneSeq, symbol.PosSym{Pos: int16(i), Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlanePhonemes, ID: int8(b)})})
			}
			s.pendingBreaks[i] = pend
			pend = pendingBreak{}
		}
	}
	s.phoneSeq = append(s.phoneSeq, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symPhonTerm})})
}

// breakTable returns the minimum silence, in milliseconds, that a
// break-interrupting command forces before/after the boundary it
// precedes (SPEC_FULL.md supplemented feature 4, picospho's
// break-interrupting commands table): PLAY forces silence after only,
// SAVE/UNSAVE before only, IGNSIG both.
func breakTable(cmdInfo1 uint8) (before, after int32, ok bool) {
	switch cmdInfo1 {
	case item.CmdPlay:
		return 0, 1, true
	case item.CmdSave, item.CmdUnsave:
		return 1, 0, true
	case item.CmdIgnSig:
		return 1, 1, true
	default:
		return 0, 0, false
	}
}

// accentFor derives the accent symbol from a word's stress state
// (spec.md §4.7: no-stress→ACC0; primary→word accent; secondary→ACC0
// if word accent is ACC0 else ACC4). wordAccent/stressState are both
// packed into the WORDPHON item's Info2 by sastage: high nibble is
// stress state (0=none,1=primary,2=secondary), low nibble the word's
// carried accent id.
func accentFor(info2 uint8) int8 {
	stress := info2 >> 4
	wordAccent := int8(info2 & 0x0F)
	switch stress {
	case 1:
		return wordAccent
	case 2:
		if wordAccent == accNone {
			return accNone
		}
		return accOther
	default:
		return accNone
	}
}

// stepTransduce runs the sentence-level FST cascade over the phone
// sequence, eliminating epsilons between stages (spec.md §4.7 Transduce).
func (s *Stage) stepTransduce() {
	cur := s.phoneSeq
	for _, fst := range s.sentenceFSTs {
		e := transduce.New(fst, s.maxDepth)
		in := cur
		wrapped := fst.Mode()&fstimage.ModeNewSyms != 0
		if wrapped {
			in = wrapWB(cur)
		}
		out, stats := e.Transduce(in, false)
		if s.obs != nil {
			s.obs.TransductionStats(stats)
		}
		if wrapped {
			out = stripWB(out)
		}
		cur = symbol.EliminateEpsilons(out)
	}
	s.transduced = cur
}

// wrapWB brackets seq with a {#WB} sentinel on the internal plane, for
// FST stages whose TransductionMode reports it may introduce symbols
// absent from the input alphabet (SPEC_FULL.md supplemented feature 1).
func wrapWB(seq []symbol.PosSym) []symbol.PosSym {
	out := make([]symbol.PosSym, 0, len(seq)+2)
	out = append(out, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symWB})})
	out = append(out, seq...)
	out = append(out, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symWB})})
	return out
}

// stripWB removes the {#WB} sentinels wrapWB added, before the result
// feeds the next cascade stage or downstream processing.
func stripWB(seq []symbol.PosSym) []symbol.PosSym {
	out := make([]symbol.PosSym, 0, len(seq))
	for _, ps := range seq {
		sym := symbol.Unpack(ps.Sym)
		if sym.Plane == symbol.PlaneInternal && sym.ID == symWB {
			continue
		}
		out = append(out, ps)
	}
	return out
}

// stepBounds runs the first alignment pass: re-walks the active
// window and resolves each item's side-boundary via fst modification
// then break modification, tracking phrase-type bookkeeping (spec.md
// §4.7 Bounds).
func (s *Stage) stepBounds() {
	s.bounds = make([]sideBound, s.activeEnd)
	strengthByHead := extractBoundStrengths(s.transduced, s.activeEnd)
	origByHead := extractBoundStrengths(s.phoneSeq, s.activeEnd)

	s.lastPhraseB = -1
	for i := s.activeStart; i < s.activeEnd; i++ {
		it := s.heads[i]
		if it.Type != item.BOUND && it.Type != item.WORDPHON {
			continue
		}
		fstStrength, ok := strengthByHead[i]
		if !ok {
			continue
		}
		orig, hasOrig := origByHead[i]
		resolved := applyFstModification(orig, fstStrength, hasOrig)

		pend := s.pendingBreaks[i]
		isPrimary := it.Type == item.BOUND && (it.Info1 == item.BoundSBEG || it.Info1 == item.BoundSEND)
		if pend.hasTime {
			resolved = applyBreakModification(resolved, pend.timeMs, isPrimary)
		}

		sb := sideBound{strength: resolved, has: true}
		if pend.hasTime && pend.timeMs >= 0 && (resolved == strPHR1 || resolved == strPHR2) {
			sb.before, sb.after = pend.timeMs, pend.timeMs
			sb.hasDur = true
		}
		if pend.minBefore > sb.before {
			sb.before = pend.minBefore
			sb.hasDur = true
		}
		if pend.minAfter > sb.after {
			sb.after = pend.minAfter
			sb.hasDur = true
		}

		if resolved >= strPHR1 {
			if s.lastPhraseB >= 0 {
				s.bounds[s.lastPhraseB].phraseP = true
			}
			s.lastPhraseB = i
		} else if fstStrength >= strPHR1 && resolved < strPHR1 && s.lastPhraseB == i {
			// A head demoted below PHR1 leaves the earlier phrase bound's
			// phraseP as it is; lastPhraseB is cleared only if it already
			// names this head.
			s.lastPhraseB = -1
		}
		s.bounds[i] = sb
	}
}

// extractBoundStrengths maps each head index that carried a
// bound-strengths symbol in seq (the transduced or the untransduced
// sequence) back to that symbol's id, via the position tags.
func extractBoundStrengths(seq []symbol.PosSym, activeEnd int) map[int]int8 {
	out := make(map[int]int8, activeEnd)
	for _, ps := range seq {
		if !ps.Real() {
			continue
		}
		sym := symbol.Unpack(ps.Sym)
		if sym.Plane != symbol.PlanePBStr {
			continue
		}
		out[int(ps.Pos)] = sym.ID
	}
	return out
}

// applyFstModification holds PHR1/PHR2 demoted to PHR0 at PHR3 instead;
// any other FST-suggested transition passes through unchanged (spec.md
// §4.7 "fst modification"). orig is the pre-transduction strength
// ParsePhones assigned this item; hasOrig is false for a head the
// transduced output dropped its own bound-strengths symbol for.
func applyFstModification(orig, fstStrength int8, hasOrig bool) int8 {
	if hasOrig && (orig == strPHR1 || orig == strPHR2) && fstStrength == strPHR0 {
		return strPHR3
	}
	return fstStrength
}

// applyBreakModification overrides resolved using a pending break's
// requested time, per spec.md §4.7's break-modification table.
func applyBreakModification(resolved int8, timeMs int32, primary bool) int8 {
	switch {
	case timeMs == 0:
		if resolved == strPHR0 {
			return strPHR0
		}
		if !primary {
			return strPHR0
		}
		return strPHR3
	case timeMs <= 50:
		return strPHR2
	default:
		return strPHR1
	}
}

// stepRecomb runs the second alignment pass: emits resolved BOUND
// items and hands WORDPHON items to Syl for re-syllabification
// (spec.md §4.7 Recomb).
func (s *Stage) stepRecomb() {
	s.feedQ = s.feedQ[:0]
	phonesByHead := extractPhonesByHead(s.transduced)
	posAccentByHead := extractPosAccentByHead(s.transduced)

	for i := s.activeStart; i < s.activeEnd; i++ {
		if i < s.emitStart {
			continue // already emitted last pass; kept only as left context
		}
		it := s.heads[i]
		switch it.Type {
		case item.BOUND:
			s.feedQ = append(s.feedQ, sideBoundItem(s.bounds[i]))
		case item.WORDPHON:
			if sb := s.bounds[i]; sb.has {
				s.feedQ = append(s.feedQ, sideBoundItem(sb))
			}
			pos, accent := posAccentByHead[i].pos, posAccentByHead[i].accent
			s.feedQ = append(s.feedQ, syllabifyWord(s.phones, pos, accent, phonesByHead[i])...)
		}
	}
}

// sideBoundItem turns a resolved side-boundary into the downstream
// BOUND item Recomb emits for it (spec.md §4.7 Recomb).
func sideBoundItem(sb sideBound) item.Item {
	content := []byte(nil)
	if sb.hasDur && (sb.before > 0 || sb.after > 0) {
		content = item.EncodeBoundDuration(uint16(sb.before), uint16(sb.after))
	}
	info2 := item.PhraseTypeNone
	if sb.phraseP {
		info2 = item.PhraseTypeP
	}
	return item.Item{Type: item.BOUND, Info1: uint8(sb.strength), Info2: info2, Content: content}
}

type posAccent struct {
	pos, accent int8
}

func extractPosAccentByHead(seq []symbol.PosSym) map[int]posAccent {
	out := make(map[int]posAccent)
	for _, ps := range seq {
		if !ps.Real() {
			continue
		}
		sym := symbol.Unpack(ps.Sym)
		pa := out[int(ps.Pos)]
		switch sym.Plane {
		case symbol.PlanePOS:
			pa.pos = sym.ID
		case symbol.PlaneAccents:
			pa.accent = sym.ID
		}
		out[int(ps.Pos)] = pa
	}
	return out
}

func extractPhonesByHead(seq []symbol.PosSym) map[int][]int8 {
	out := make(map[int][]int8)
	for _, ps := range seq {
		if !ps.Real() {
			continue
		}
		sym := symbol.Unpack(ps.Sym)
		if sym.Plane != symbol.PlanePhonemes {
			continue
		}
		out[int(ps.Pos)] = append(out[int(ps.Pos)], sym.ID)
	}
	return out
}

// syllabifyWord re-splits one word's transduced phones into SYLLPHON
// items, per spec.md §4.7 Syl: the first syllable keeps POS/accent in
// Info1/Info2, following syllables carry POS 0 and accent 0.
func syllabifyWord(phones *phonetable.Table, pos, accent int8, ph []int8) []item.Item {
	if len(ph) == 0 {
		return nil
	}
	var out []item.Item
	var cur []byte
	first := true
	flush := func() {
		if len(cur) == 0 {
			return
		}
		p, a := int8(0), int8(0)
		if first {
			p, a = pos, accent
		}
		out = append(out, item.Item{Type: item.SYLLPHON, Info1: uint8(p), Info2: uint8(a), Content: cur})
		cur = nil
		first = false
	}
	for _, id := range ph {
		if phones != nil && phones.IsSyllBound(id) {
			flush()
			continue
		}
		cur = append(cur, byte(id))
	}
	flush()
	return out
}

// stepFeed emits staged items downstream.
func (s *Stage) stepFeed() stage.Status {
	for len(s.feedQ) > 0 {
		it := s.feedQ[0]
		encoded := item.Encode(nil, it)
		if len(s.outBuf)+len(encoded) > s.maxOut {
			return stage.OutFull
		}
		s.outBuf = append(s.outBuf, encoded...)
		s.feedQ = s.feedQ[1:]
	}
	s.ph = phShift
	return stage.Busy
}

// stepShift advances the window: if Collect forced this pass's window
// end before a natural sentence end, penultima names the last boundary
// before activeEnd and everything from there on is kept as left context
// for the next pass; otherwise the whole processed range is dropped
// (spec.md §4.7 Shift, §8 property 7).
func (s *Stage) stepShift() {
	cut := s.activeEnd
	preserved := 0
	if s.penultima >= 0 && s.penultima < s.activeEnd {
		cut = s.penultima
		preserved = s.activeEnd - cut
	}
	s.heads = append([]item.Item(nil), s.heads[cut:]...)
	s.activeStart = 0
	s.activeEnd = 0
	s.emitStart = preserved
	s.penultima = -1
	s.lastPhraseB = -1
}
