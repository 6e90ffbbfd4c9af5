// Package symbol defines the wire-level vocabulary shared by every stage
// of the transduction core: planed symbols and the position-tagged symbol
// pairs threaded through FST search.
package symbol

// Plane is an 8-bit namespace tag distinguishing phonemes, POS tags,
// accents, boundary strengths and other symbol families that share the
// 16-bit Symbol id space.
type Plane uint8

// Fixed plane enumeration (spec.md §3).
const (
	PlanePhonemes Plane = 0
	PlaneASCII    Plane = 1
	PlaneXSAMPA   Plane = 2 // reserved: never produced internally, see SPEC_FULL.md
	PlaneAccents  Plane = 4
	PlanePOS      Plane = 5
	PlanePBStr    Plane = 6 // phrase-boundary strengths
	PlaneInternal Plane = 7 // word-start / word-term sentinels
)

// Reserved symbol ids, valid in any plane.
const (
	IDEps   int16 = 0
	IDIlleg int16 = -1
)

// Symbol is a planed 16-bit value: high byte is the Plane, low byte the
// in-plane id. PosSym.Sym carries the packed form; stages Pack a Symbol
// when building a sequence and Unpack it to inspect plane or id.
type Symbol struct {
	Plane Plane
	ID    int8
}

// Pack encodes a Symbol into its 16-bit wire form: (plane<<8)|id.
func Pack(s Symbol) int16 {
	return int16(uint16(s.Plane)<<8 | uint16(uint8(s.ID)))
}

// Unpack decodes a 16-bit wire symbol into plane/id form.
func Unpack(v int16) Symbol {
	u := uint16(v)
	return Symbol{Plane: Plane(u >> 8), ID: int8(u & 0xFF)}
}

// Eps reports whether a raw wire symbol is the epsilon sentinel.
func Eps(v int16) bool { return v == IDEps }

// Illegal reports whether a raw wire symbol is the "no more pairs"
// terminator used by FstImage's alphabet/in-epsilon chain readers.
func Illegal(v int16) bool { return v == IDIlleg }

// Pos sentinel values (spec.md §3 PosSym invariants).
const (
	PosInsert  int16 = -1 // produced by the transducer, no source position
	PosInvalid int16 = -2 // uninitialized
	PosIgnore  int16 = -3 // sentinel symbol, skip during output reassembly
)

// PosSym pairs a symbol with the byte offset it originated from in the
// item stream it was read out of. Pos is one of the sentinels above, or
// a non-negative offset. Invariant: in any sequence, the non-sentinel Pos
// values are non-decreasing (spec.md §3).
type PosSym struct {
	Pos int16
	Sym int16
}

// Real reports whether ps carries a genuine source position rather than
// one of the Insert/Invalid/Ignore sentinels.
func (ps PosSym) Real() bool {
	return ps.Pos >= 0
}

// EliminateEpsilons returns seq with every epsilon-symbol entry removed,
// preserving order (picotrns_eliminate_epsilons). Used after transduction
// and after trivial syllabification, both of which may leave epsilon
// placeholders in their output.
func EliminateEpsilons(seq []PosSym) []PosSym {
	out := make([]PosSym, 0, len(seq))
	for _, ps := range seq {
		if !Eps(ps.Sym) {
			out = append(out, ps)
		}
	}
	return out
}

// MonotonicPositions reports whether the non-sentinel positions in seq
// form a non-decreasing subsequence, i.e. the position-monotonicity
// invariant (spec.md §8 property 4) holds for seq.
func MonotonicPositions(seq []PosSym) bool {
	last := int16(-1)
	first := true
	for _, ps := range seq {
		if !ps.Real() {
			continue
		}
		if !first && ps.Pos < last {
			return false
		}
		last = ps.Pos
		first = false
	}
	return true
}
