// Package sastage implements the word-level front-end stage: POS
// disambiguation, grapheme-to-phoneme conversion, lexicon lookup, and
// the word-level FST cascade (spec.md §4.6), grounded on picosa.c.
package sastage

import (
	"github.com/ihuguet/picofst/fstimage"
	"github.com/ihuguet/picofst/item"
	"github.com/ihuguet/picofst/phonetable"
	"github.com/ihuguet/picofst/stage"
	"github.com/ihuguet/picofst/symbol"
	"github.com/ihuguet/picofst/syllabify"
	"github.com/ihuguet/picofst/transduce"
)

// phonStart/phonTerm frame a word's phone sequence on the internal
// plane before it enters the transduction engine (spec.md §4.6
// ProcessTrnsParse).
const (
	symPhonStart int8 = 1
	symPhonTerm  int8 = 2
	symWB        int8 = 3
)

// posXX is the sentinel POS given to opening-phoneme commands rewritten
// to WORDPHON. Forced-phrase-end PUNC items do not carry it: their Info1
// is PuncForcedPhraseEnd and their Info2 PuncInfo2Forced.
const posXX uint8 = 0xFF

// posAmbiguous marks a word-like item whose Info1 is not yet a settled
// POS id: ProcessPosD invokes the configured classifier only for these,
// leaving a unique POS untouched (spec.md §4.6 ProcessPosD).
const posAmbiguous uint8 = 0xFE

// Classifier models the decision-tree collaborator spec.md §6 names:
// POS disambiguation and G2P are both instances of this interface,
// parameterized by whatever feature vector the caller builds.
type Classifier interface {
	Classify(vec []int16) int16
}

// Lexicon models the lookup collaborator (spec.md §6): given a word
// key, returns its POS and phone sequence.
type Lexicon interface {
	Lookup(key []byte) (pos uint8, phones []int8, ok bool)
}

// Observer receives the warning-worthy events spec.md §7 says a stage
// must report without returning them as errors: a forced phrase end
// from head-count capacity, and a per-word transduction search that
// hit its depth limit or fell back to identity. A nil Observer is
// valid; Stage checks before every call.
type Observer interface {
	ForcedPhraseEnd()
	TransductionStats(stats transduce.Stats)
}

const (
	defaultMaxHeads   = 60
	defaultMaxContent = 4096
	defaultMaxOut     = 2048
	defaultMaxDepth   = 64
)

type phase int

const (
	phCollect phase = iota
	phProcessPosD
	phProcessWPho
	phProcessTrnsParse
	phFeed
)

// Stage is the SaStage state machine.
type Stage struct {
	heads   []item.Item
	maxHead int

	posClassifier Classifier
	g2pClassifier Classifier
	mainLex       Lexicon
	userLex       Lexicon
	phones        *phonetable.Table
	wordFSTs      []*fstimage.FstImage
	maxDepth      int
	obs           Observer

	ph phase

	pending       []byte // raw upstream bytes not yet decoded into heads
	upIdle        bool
	wpho          []item.Item // phase ProcessWPho output, replacing word items with WORDPHON
	posReverseMap []uint8     // ProcessPosD output: resolved POS per head index, classified or pass-through
	feedQ         []item.Item // items ready to hand to downstream, in order
	outBuf        []byte
	maxOut        int
}

// New returns a Stage wired to the given collaborators. Any of
// posClassifier/g2pClassifier/mainLex/userLex may be nil; wordFSTs may
// be empty, in which case TrivialSyllabifier is used.
func New(posClassifier, g2pClassifier Classifier, mainLex, userLex Lexicon, phones *phonetable.Table, wordFSTs []*fstimage.FstImage) *Stage {
	return &Stage{
		maxHead:       defaultMaxHeads,
		posClassifier: posClassifier,
		g2pClassifier: g2pClassifier,
		mainLex:       mainLex,
		userLex:       userLex,
		phones:        phones,
		wordFSTs:      wordFSTs,
		maxDepth:      defaultMaxDepth,
		maxOut:        defaultMaxOut,
	}
}

// SetObserver wires an Observer for warning/metrics reporting. Passing
// nil disables reporting.
func (s *Stage) SetObserver(obs Observer) { s.obs = obs }

// PosReverseMap returns the POS ProcessPosD resolved for each head
// index in the last-processed phrase, whether by classifier narrowing
// or pass-through of an already-unique POS (spec.md §4.6 ProcessPosD
// "reverse output mapping").
func (s *Stage) PosReverseMap() []uint8 { return s.posReverseMap }

// Feed appends raw upstream item bytes for the stage to consume.
func (s *Stage) Feed(buf []byte) {
	s.pending = append(s.pending, buf...)
}

// SetUpstreamIdle tells Collect that no more bytes will arrive this pass.
func (s *Stage) SetUpstreamIdle(idle bool) { s.upIdle = idle }

// Output drains and returns any downstream-ready item bytes.
func (s *Stage) Output() []byte {
	out := s.outBuf
	s.outBuf = nil
	return out
}

// Reset clears transient buffers (Soft) or also forgets collaborator
// bindings (Full) — spec.md §5 "Cancellation".
func (s *Stage) Reset(mode stage.ResetMode) {
	s.heads = nil
	s.pending = nil
	s.wpho = nil
	s.posReverseMap = nil
	s.feedQ = nil
	s.outBuf = nil
	s.ph = phCollect
	if mode == stage.Full {
		s.posClassifier = nil
		s.g2pClassifier = nil
		s.mainLex = nil
		s.userLex = nil
		s.wordFSTs = nil
	}
}

// Step runs one bounded unit of work through the state machine.
func (s *Stage) Step(_ stage.Mode) stage.Status {
	switch s.ph {
	case phCollect:
		return s.stepCollect()
	case phProcessPosD:
		s.stepProcessPosD()
		s.ph = phProcessWPho
		return stage.Atomic
	case phProcessWPho:
		s.stepProcessWPho()
		s.ph = phProcessTrnsParse
		return stage.Atomic
	case phProcessTrnsParse:
		return s.stepProcessTrns()
	case phFeed:
		return s.stepFeed()
	}
	return stage.Idle
}

// stepCollect pulls items from pending into heads until a natural or
// forced phrase end, or input exhaustion (spec.md §4.6 Collect).
func (s *Stage) stepCollect() stage.Status {
	for len(s.pending) > 0 {
		it, n, err := item.Decode(s.pending)
		if err != nil {
			return stage.Error
		}
		s.pending = s.pending[n:]

		it = rewriteCollectedItem(it)
		s.heads = append(s.heads, it)

		if it.Type == item.PUNC {
			s.ph = phProcessPosD
			return stage.Atomic
		}
		if len(s.heads) >= s.maxHead-1 {
			s.heads = append(s.heads, item.Item{Type: item.PUNC, Info1: item.PuncForcedPhraseEnd, Info2: item.PuncInfo2Forced})
			if s.obs != nil {
				s.obs.ForcedPhraseEnd()
			}
			s.ph = phProcessPosD
			return stage.Atomic
		}
	}
	if s.upIdle {
		if len(s.heads) > 0 {
			s.heads = append(s.heads, item.Item{Type: item.PUNC, Info1: item.PuncForcedPhraseEnd, Info2: item.PuncInfo2Forced})
			s.ph = phProcessPosD
			return stage.Atomic
		}
		return stage.Idle
	}
	return stage.Idle
}

// rewriteCollectedItem applies Collect's two item rewrites: CMD FLUSH
// becomes PUNC FLUSH, and an opening-phoneme command becomes a
// WORDPHON with the forced-end POS sentinel, truncated at the first
// word-separator phone (taken here as the content's natural length,
// since the caller already frames a single word's phones per command).
func rewriteCollectedItem(it item.Item) item.Item {
	if it.Type == item.CMD && it.Info1 == item.CmdFlush {
		return item.Item{Type: item.PUNC, Info1: item.PuncNatural}
	}
	if it.Type == item.CMD && it.Info1 == item.CmdOpenPhoneme {
		return item.Item{Type: item.WORDPHON, Info1: posXX, Content: it.Content}
	}
	return it
}

// stepProcessPosD disambiguates POS for word-like items left-to-right
// (spec.md §4.6 ProcessPosD). A word item whose Info1 carries the
// posAmbiguous sentinel has a non-unique POS: the configured classifier
// is invoked (for WORDINDEX, additionally narrowing the item's
// (pos,index) candidate list down to the chosen pair) and the result
// replaces Info1. A word item that already names a unique POS skips
// the classifier call entirely, for all three word-like item types.
// Either way, posReverseMap records the POS resolved for that head, so
// downstream collaborators can recover the mapping without re-deriving
// it from Info1.
func (s *Stage) stepProcessPosD() {
	s.posReverseMap = make([]uint8, len(s.heads))
	for i, it := range s.heads {
		if it.Type != item.WORDGRAPH && it.Type != item.WORDINDEX && it.Type != item.WORDPHON {
			continue
		}
		if it.Info1 != posAmbiguous || s.posClassifier == nil {
			s.posReverseMap[i] = it.Info1
			continue
		}

		prevPos := int16(-1)
		if i > 0 {
			prevPos = int16(s.heads[i-1].Info1)
		}
		pos := s.posClassifier.Classify([]int16{prevPos, int16(it.Type)})

		if it.Type == item.WORDINDEX {
			narrowed, ok := narrowWordIndex(it.Content, uint8(pos))
			if ok {
				it.Content = narrowed
			}
		}
		it.Info1 = uint8(pos)
		s.heads[i] = it
		s.posReverseMap[i] = uint8(pos)
	}
}

// narrowWordIndex selects the (pos, index) pair matching targetPos from
// a WORDINDEX item's content (a sequence of 2-byte pairs), or keeps the
// first pair if none match (spec.md §4.6).
func narrowWordIndex(content []byte, targetPos uint8) ([]byte, bool) {
	if len(content) < 2 {
		return content, false
	}
	for i := 0; i+1 < len(content); i += 2 {
		if content[i] == targetPos {
			return content[i : i+2], true
		}
	}
	return content[:2], true
}

// stepProcessWPho converts every word item into WORDPHON, via G2P for
// graphemes or lexicon lookup for indices (spec.md §4.6 ProcessWPho).
// Info2 is repacked from the word's carried accent id into
// (stress-state<<4 | accent), which sphostage's accent derivation table
// expects (spec.md §4.7 ParsePhones).
func (s *Stage) stepProcessWPho() {
	s.wpho = s.wpho[:0]
	for _, it := range s.heads {
		switch it.Type {
		case item.WORDGRAPH:
			phones := s.graphemeToPhonemes(it.Content, it.Info1)
			info2 := packStressAccent(s.phones, phones, it.Info2)
			s.wpho = append(s.wpho, item.Item{Type: item.WORDPHON, Info1: it.Info1, Info2: info2, Content: phonesToBytes(phones)})
		case item.WORDINDEX:
			lex := s.mainLex
			if it.Info2 != 0 {
				lex = s.userLex
			}
			if lex == nil {
				s.wpho = append(s.wpho, item.Item{Type: item.WORDPHON, Info1: it.Info1, Info2: packStressAccent(s.phones, nil, it.Info2)})
				continue
			}
			key := byte(0)
			if len(it.Content) > 0 {
				key = it.Content[0]
			}
			_, phones, ok := lex.Lookup([]byte{key})
			if !ok {
				phones = nil
			}
			info2 := packStressAccent(s.phones, phones, it.Info2)
			s.wpho = append(s.wpho, item.Item{Type: item.WORDPHON, Info1: it.Info1, Info2: info2, Content: phonesToBytes(phones)})
		default:
			s.wpho = append(s.wpho, it)
		}
	}
}

// packStressAccent folds a word's stress state (the strongest stress
// marker found in its resolved phones: primary beats secondary beats
// none) and its carried accent id into the single byte sphostage's
// accentFor expects: high nibble stress state, low nibble accent.
func packStressAccent(phones *phonetable.Table, ph []int8, accent uint8) uint8 {
	stress := uint8(0)
	if phones != nil {
		for _, id := range ph {
			if phones.IsPrimStress(id) {
				stress = 1
				break
			}
			if phones.IsSecStress(id) {
				stress = 2
			}
		}
	}
	return stress<<4 | (accent & 0x0F)
}

// graphemeToPhonemes runs a right-to-left per-grapheme classifier pass
// (spec.md §4.6), reversing the collected output back into reading
// order. With no G2P classifier configured, graphemes pass through
// unchanged as a (lossy but non-fatal) fallback.
func (s *Stage) graphemeToPhonemes(graphemes []byte, pos uint8) []int8 {
	if s.g2pClassifier == nil {
		out := make([]int8, len(graphemes))
		for i, g := range graphemes {
			out[i] = int8(g)
		}
		return out
	}
	var reversed []int8
	vowelCount, vowelOrdinal := 0, 0
	primStressSeen := false
	for i := len(graphemes) - 1; i >= 0; i-- {
		vec := []int16{int16(graphemes[i]), int16(pos), int16(vowelCount), int16(vowelOrdinal), boolToInt16(primStressSeen)}
		class := s.g2pClassifier.Classify(vec)
		reversed = append(reversed, int8(class))
		if s.phones != nil && s.phones.HasVowelLike(int8(class)) {
			vowelCount++
			vowelOrdinal++
		}
		if s.phones != nil && s.phones.IsPrimStress(int8(class)) {
			primStressSeen = true
		}
	}
	out := make([]int8, len(reversed))
	for i, v := range reversed {
		out[len(reversed)-1-i] = v
	}
	return out
}

func boolToInt16(b bool) int16 {
	if b {
		return 1
	}
	return 0
}

func phonesToBytes(phones []int8) []byte {
	out := make([]byte, len(phones))
	for i, p := range phones {
		out[i] = byte(p)
	}
	return out
}

// stepProcessTrns runs ProcessTrnsParse+ProcessTrnsFst+Feed for every
// collected word item, then hands the phrase to Feed.
func (s *Stage) stepProcessTrns() stage.Status {
	s.feedQ = s.feedQ[:0]
	for _, it := range s.wpho {
		if it.Type != item.WORDPHON {
			s.feedQ = append(s.feedQ, it)
			continue
		}
		in := framePhones(it.Content)
		out := s.transduceWord(in)
		out = symbol.EliminateEpsilons(out)
		s.feedQ = append(s.feedQ, item.Item{Type: item.WORDPHON, Info1: it.Info1, Info2: it.Info2, Content: unframePhones(out)})
	}
	s.ph = phFeed
	return stage.Atomic
}

// framePhones builds the transduction engine's input: each content byte
// becomes a phoneme-plane PosSym at its byte offset, bracketed by
// phonStart/phonTerm sentinels on the internal plane (spec.md §4.6
// ProcessTrnsParse).
func framePhones(content []byte) []symbol.PosSym {
	out := make([]symbol.PosSym, 0, len(content)+2)
	out = append(out, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symPhonStart})})
	for i, b := range content {
		out = append(out, symbol.PosSym{Pos: int16(i), Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlanePhonemes, ID: int8(b)})})
	}
	out = append(out, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symPhonTerm})})
	return out
}

// unframePhones strips the internal-plane sentinels and returns the
// remaining phoneme-plane ids as content bytes (spec.md §4.6 Feed:
// "content replaced with transduced phonemes, plane stripped").
func unframePhones(seq []symbol.PosSym) []byte {
	out := make([]byte, 0, len(seq))
	for _, ps := range seq {
		s := symbol.Unpack(ps.Sym)
		if s.Plane == symbol.PlaneInternal {
			continue
		}
		out = append(out, byte(s.ID))
	}
	return out
}

// transduceWord runs the configured word-level FST cascade (or the
// trivial syllabifier fallback) over in, eliminating epsilons between
// stages (spec.md §4.6 ProcessTrnsFst).
func (s *Stage) transduceWord(in []symbol.PosSym) []symbol.PosSym {
	if len(s.wordFSTs) == 0 {
		return syllabify.Syllabify(s.phones, in)
	}
	cur := in
	for _, fst := range s.wordFSTs {
		e := transduce.New(fst, s.maxDepth)
		stageIn := cur
		wrapped := fst.Mode()&fstimage.ModeNewSyms != 0
		if wrapped {
			stageIn = wrapWB(cur)
		}
		out, stats := e.Transduce(stageIn, false)
		if s.obs != nil {
			s.obs.TransductionStats(stats)
		}
		if wrapped {
			out = stripWB(out)
		}
		cur = symbol.EliminateEpsilons(out)
	}
	return cur
}

// wrapWB brackets seq with a {#WB} sentinel on the internal plane, for
// word-level FST stages whose TransductionMode reports it may
// introduce symbols absent from the input alphabet (SPEC_FULL.md
// supplemented feature 1).
func wrapWB(seq []symbol.PosSym) []symbol.PosSym {
	out := make([]symbol.PosSym, 0, len(seq)+2)
	out = append(out, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symWB})})
	out = append(out, seq...)
	out = append(out, symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlaneInternal, ID: symWB})})
	return out
}

// stripWB removes the {#WB} sentinels wrapWB added, before the result
// feeds the next cascade stage or ProcessTrnsParse's unframing.
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

// stepFeed reassembles and emits collected items downstream.
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
	s.heads = s.heads[:0]
	s.ph = phCollect
	return stage.Busy
}
