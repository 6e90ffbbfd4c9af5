// Package transduce implements the backtracking transduction search
// described in spec.md §4.3, grounded directly on picotrns.c's
// GetNextAlternative/TransductionStep state machine: an explicit stack
// of alt-descriptors stands in for the recursive call stack so the
// search can be depth-limited and resumed without native recursion.
package transduce

import (
	"github.com/ihuguet/picofst/fstimage"
	"github.com/ihuguet/picofst/internal/visited"
	"github.com/ihuguet/picofst/symbol"
)

// altSubstate values, matching picotrns.c's altState documentation verbatim.
const (
	beforePairSearch   = 0
	withinPairSearch   = 1
	beforeInEpsSearch  = 2
	withinInEpsSearch  = 3
	noMoreAlternatives = 4
)

// altDesc is one entry of the backtracking stack: the state the search
// was in when it entered this recursion depth, and where it currently is
// in enumerating that depth's alternatives.
type altDesc struct {
	startState fstimage.State
	inPos      int32

	substate int
	pairCur  fstimage.PairCursor
	epsCur   fstimage.InEpsCursor

	outSym    int16
	outRefPos int32
}

// Stats reports search diagnostics. DepthLimitHits surfaces the
// picotrns "transduction path too long" condition as a counter instead
// of a log line only, per SPEC_FULL.md's supplemented-features list.
type Stats struct {
	Steps          int
	Solutions      int
	DepthLimitHits int
}

// Engine runs transduction searches against one loaded FstImage. It holds
// no state that outlives a single Transduce call; the alt-desc stack and
// the onStack set it allocates are reused across calls to avoid repeated
// allocation, and are reset at the start of each Transduce.
type Engine struct {
	fi       *fstimage.FstImage
	maxDepth int
	stack    []altDesc

	// onStack tracks (state, inPos) pairs currently open on the alt-desc
	// stack, not every pair ever visited. An in-epsilon transition pushes a
	// frame with the same inPos as its parent (no input consumed), so a
	// cycle through in-epsilon transitions can return to a state already
	// open higher up the stack; onStack catches that and cuts the branch
	// instead of recursing into it again. Because the check is scoped to
	// the currently-active path (inserted on push, removed on pop) rather
	// than to every pair seen so far in the call, it never prunes a
	// sibling branch that reaches the same (state, inPos) with a different
	// preceding output — only a branch that would re-enter its own
	// ancestor, which can contribute no accepting completion the ancestor
	// isn't already exploring at that exact position.
	onStack *visited.Set
}

// New returns an Engine bound to fi, whose alt-descriptor stack is
// bounded to maxDepth entries (spec.md §4.3 "depth limit").
func New(fi *fstimage.FstImage, maxDepth int) *Engine {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &Engine{fi: fi, maxDepth: maxDepth}
}

// Transduce runs the backtracking search over in and returns the output
// sequence together with search stats. When firstSolOnly is false the
// last complete solution found is kept (picotrns.c's documented policy);
// when true, the search stops at the first. Empty input is always an
// accepting solution, returned as an empty output.
//
// If no solution is found, the input is copied through verbatim (the
// identity fallback spec.md §4.3 mandates) and Solutions stays at 0.
func (e *Engine) Transduce(in []symbol.PosSym, firstSolOnly bool) ([]symbol.PosSym, Stats) {
	var stats Stats
	var best []symbol.PosSym

	if len(in) == 0 {
		stats.Solutions = 1
		return nil, stats
	}

	if cap(e.stack) < e.maxDepth {
		e.stack = make([]altDesc, e.maxDepth)
	}
	stack := e.stack[:1]
	stack[0] = altDesc{startState: 1, inPos: 0, substate: beforePairSearch}
	recPos := 0

	states, _ := e.fi.Sizes()
	universe := uint32(states+1) * uint32(len(in)+1)
	if e.onStack == nil {
		e.onStack = visited.NewSet(universe)
	} else {
		e.onStack.Grow(universe)
		e.onStack.Clear()
	}
	e.onStack.Insert(stackKey(stack[0].startState, stack[0].inPos, len(in)))

	for recPos >= 0 {
		if firstSolOnly && stats.Solutions > 0 {
			break
		}
		stats.Steps++

		cur := &stack[recPos]
		outSym, outRefPos, endState, nextInPos, found := e.nextAlternative(cur, in)
		if !found {
			e.onStack.Remove(stackKey(cur.startState, cur.inPos, len(in)))
			recPos--
			if recPos >= 0 {
				stack = stack[:recPos+1]
			}
			continue
		}

		cur.outSym = outSym
		cur.outRefPos = outRefPos

		if int(nextInPos) == len(in) && e.fi.IsAccepting(endState) {
			stats.Solutions++
			best = noteSolution(stack[:recPos+1])
		}

		if e.onStack.Contains(stackKey(endState, nextInPos, len(in))) {
			// Pure-epsilon cycle back to a state already open on this same
			// path: recursing again would only replay exploration the
			// ancestor frame at that (state, inPos) is already doing.
			continue
		}

		if recPos < e.maxDepth-1 {
			recPos++
			if recPos >= len(stack) {
				stack = append(stack, altDesc{})
			} else {
				stack = stack[:recPos+1]
			}
			stack[recPos] = altDesc{startState: endState, inPos: nextInPos, substate: beforePairSearch}
			e.onStack.Insert(stackKey(endState, nextInPos, len(in)))
		} else {
			stats.DepthLimitHits++
		}
	}

	if stats.Solutions == 0 {
		out := make([]symbol.PosSym, len(in))
		copy(out, in)
		return out, stats
	}
	return best, stats
}

// stackKey packs a (state, inPos) pair into the key space of the engine's
// onStack set, bounded by the FST's state count and the input length for
// this call (both known and small, unlike a packed 16-bit symbol).
func stackKey(state fstimage.State, inPos int32, inputLen int) uint32 {
	return uint32(state)*uint32(inputLen+1) + uint32(inPos)
}

// noteSolution copies the current alternative path into a fresh output
// slice (picotrns.c's NoteSolution — no truncation here since the stack
// itself is the only bound, and it is already depth-limited by maxDepth).
func noteSolution(path []altDesc) []symbol.PosSym {
	out := make([]symbol.PosSym, len(path))
	for i, d := range path {
		out[i] = symbol.PosSym{Pos: int16(d.outRefPos), Sym: d.outSym}
	}
	return out
}

// nextAlternative advances cur's substate until it finds the next
// acceptable output alternative at this recursion depth, or exhausts
// all of them (picotrns.c's GetNextAlternative).
func (e *Engine) nextAlternative(cur *altDesc, in []symbol.PosSym) (outSym int16, outRefPos int32, endState fstimage.State, nextInPos int32, found bool) {
	for {
		switch cur.substate {
		case beforePairSearch:
			if int(cur.inPos) >= len(in) {
				cur.substate = beforeInEpsSearch
				continue
			}
			inSym := in[cur.inPos].Sym
			if symbol.Eps(inSym) {
				cur.substate = beforeInEpsSearch
				return symbol.IDEps, int32(in[cur.inPos].Pos), cur.startState, cur.inPos + 1, true
			}
			if pc, ok := e.fi.StartPairSearch(inSym); ok {
				cur.pairCur = pc
				cur.substate = withinPairSearch
			} else {
				cur.substate = beforeInEpsSearch
			}

		case withinPairSearch:
			out, cls, ok := e.fi.NextPair(&cur.pairCur)
			if !ok {
				cur.substate = beforeInEpsSearch
				continue
			}
			end := e.fi.Trans(cur.startState, cls)
			if end > fstimage.NoState {
				return out, int32(in[cur.inPos].Pos), end, cur.inPos + 1, true
			}
			// class exists but no transition for this state: keep trying this chain.

		case beforeInEpsSearch:
			if ec, ok := e.fi.StartInEpsSearch(cur.startState); ok {
				cur.epsCur = ec
				cur.substate = withinInEpsSearch
			} else {
				cur.substate = noMoreAlternatives
			}

		case withinInEpsSearch:
			out, end, ok := e.fi.NextInEps(&cur.epsCur)
			if !ok {
				cur.substate = noMoreAlternatives
				continue
			}
			return out, int32(symbol.PosInsert), end, cur.inPos, true

		case noMoreAlternatives:
			return 0, 0, fstimage.NoState, 0, false
		}
	}
}
