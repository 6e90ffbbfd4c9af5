package fstimage

import "github.com/ihuguet/picofst/symbol"

// PairCursor is an opaque position into the alphabet region, returned by
// StartPairSearch and advanced by NextPair (spec.md §4.2). The zero value
// is not a valid cursor; always obtain one from StartPairSearch.
type PairCursor struct {
	pos   int
	valid bool
}

// StartPairSearch hashes inSym into the alphabet hash table and follows
// the chain of alphabet cells until a cell with a matching inSym is
// found. It returns a cursor positioned just after that cell — ready for
// NextPair to walk its (outSym, class) list — or ok=false if inSym has
// no entry in the alphabet.
func (fi *FstImage) StartPairSearch(inSym int16) (cur PairCursor, ok bool) {
	if fi.alphaHashSize <= 0 {
		return PairCursor{}, false
	}
	h := int32(inSym) % fi.alphaHashSize
	if h < 0 {
		h += fi.alphaHashSize
	}
	pos := int(fi.alphaOffset) + int(h)*4
	offs, _, err := fi.r.FixedSigned(pos, 4)
	if err != nil || offs <= 0 {
		return PairCursor{}, false
	}

	cellPos := int(fi.alphaOffset) + int(offs)
	for {
		p := cellPos
		cellIn, next, err := fi.r.VarintSigned(p)
		if err != nil {
			return PairCursor{}, false
		}
		p = next
		chainOffs, next, err := fi.r.VarintSigned(p)
		if err != nil {
			return PairCursor{}, false
		}
		p = next

		if int16(cellIn) == inSym {
			return PairCursor{pos: p, valid: true}, true
		}
		if chainOffs <= 0 {
			return PairCursor{}, false
		}
		cellPos += int(chainOffs)
	}
}

// NextPair reads the next (outSym, class) pair from cur's chain,
// returning ok=false once the chain's ILLEG terminator is reached
// (spec.md §4.2 "next_pair()").
func (fi *FstImage) NextPair(cur *PairCursor) (outSym int16, cls Class, ok bool) {
	if !cur.valid {
		return 0, 0, false
	}
	out, next, err := fi.r.VarintSigned(cur.pos)
	if err != nil {
		cur.valid = false
		return 0, 0, false
	}
	if symbol.Illegal(int16(out)) {
		cur.valid = false
		return 0, 0, false
	}
	c, next2, err := fi.r.VarintSigned(next)
	if err != nil {
		cur.valid = false
		return 0, 0, false
	}
	cur.pos = next2
	return int16(out), Class(c), true
}

// InEpsCursor is an opaque position into the in-epsilon region.
type InEpsCursor struct {
	pos   int
	valid bool
}

// StartInEpsSearch reads the per-state offset into the in-epsilon table
// and returns a cursor ready for NextInEps, or ok=false if startState has
// no input-epsilon transitions (spec.md §4.2 "start_ineps_search()").
func (fi *FstImage) StartInEpsSearch(start State) (cur InEpsCursor, ok bool) {
	if start < 1 || int32(start) > fi.states {
		return InEpsCursor{}, false
	}
	pos := int(fi.inEpsOffset) + int(start-1)*4
	offs, _, err := fi.r.FixedSigned(pos, 4)
	if err != nil || offs <= 0 {
		return InEpsCursor{}, false
	}
	return InEpsCursor{pos: int(fi.inEpsOffset) + int(offs), valid: true}, true
}

// NextInEps reads the next (outSym, endState) pair, returning ok=false
// once the ILLEG terminator is reached (spec.md §4.2 "next_ineps()").
func (fi *FstImage) NextInEps(cur *InEpsCursor) (outSym int16, end State, ok bool) {
	if !cur.valid {
		return 0, 0, false
	}
	out, next, err := fi.r.VarintSigned(cur.pos)
	if err != nil {
		cur.valid = false
		return 0, 0, false
	}
	if symbol.Illegal(int16(out)) {
		cur.valid = false
		return 0, 0, false
	}
	e, next2, err := fi.r.VarintSigned(next)
	if err != nil {
		cur.valid = false
		return 0, 0, false
	}
	cur.pos = next2
	return int16(out), State(e), true
}
