package fstimage

import (
	"github.com/ihuguet/picofst/bytestream"
	"github.com/ihuguet/picofst/internal/intconv"
)

// headerMarkerSize is the size in bytes of the opaque leading file header
// (magic/version), skipped rather than interpreted (spec.md §4.2, §6).
const headerMarkerSize = 4

// Mode bits for TransductionMode (spec.md §4.2).
const (
	ModeNewSyms uint8 = 1 << iota // FST may introduce symbols absent from the input alphabet
	ModePosUsed                   // FST's own alphabet contains POS symbols
)

// State and Class are 1-based ids into FstImage's dense tables. State 1
// is always accepting (spec.md §3 invariant); class ids run [1, C].
type State int32
type Class int32

// NoState is the "no transition" sentinel a transition-table cell holds.
const NoState State = 0

// FstImage is a parsed, logically immutable view over a compiled FST
// byte image (spec.md §3, §4.2). It never copies the underlying bytes;
// every accessor reads straight out of the image through a bytestream.Reader.
type FstImage struct {
	r *bytestream.Reader

	mode          uint8
	classes       int32
	states        int32
	terminatorCls int32

	alphaHashSize  int32
	alphaOffset    int32 // absolute position, relative to end of header marker
	transEntryW    int32
	transOffset    int32
	inEpsOffset    int32
	acceptOffset   int32
}

// Load parses image's header and returns a ready-to-query FstImage. It
// performs no validation beyond what's needed to compute table offsets;
// malformed tables surface as "no result" from individual accessors
// rather than at Load time, per spec.md §4.2 ("never panic").
func Load(image []byte) (*FstImage, error) {
	r := bytestream.New(image)
	if r.Len() < headerMarkerSize {
		return nil, &LoadError{Field: "header marker", Err: ErrHeaderTruncated}
	}

	pos := headerMarkerSize
	fi := &FstImage{r: r}

	fields := []struct {
		name string
		dst  *int32
	}{
		{"mode", nil}, // handled specially below (narrowed to uint8)
		{"classes", &fi.classes},
		{"states", &fi.states},
		{"terminatorClass", &fi.terminatorCls},
		{"alphaHashSize", &fi.alphaHashSize},
		{"alphaOffset", &fi.alphaOffset},
		{"transEntryWidth", &fi.transEntryW},
		{"transOffset", &fi.transOffset},
		{"inEpsOffset", &fi.inEpsOffset},
		{"acceptOffset", &fi.acceptOffset},
	}

	var mode int32
	for i, f := range fields {
		v, next, err := r.VarintSigned(pos)
		if err != nil {
			return nil, &LoadError{Field: f.name, Err: err}
		}
		pos = next
		if i == 0 {
			mode = v
			continue
		}
		*f.dst = v
	}
	fi.mode = uint8(mode)

	if fi.transEntryW < 1 || fi.transEntryW > 4 {
		return nil, &LoadError{Field: "transEntryWidth", Err: ErrInvalidConfig}
	}

	// Offsets in the image are relative to end-of-header-marker (spec.md §4.2/§6).
	fi.alphaOffset += int32(headerMarkerSize)
	fi.transOffset += int32(headerMarkerSize)
	fi.inEpsOffset += int32(headerMarkerSize)
	fi.acceptOffset += int32(headerMarkerSize)

	return fi, nil
}

// Sizes returns (states, classes): spec.md §4.2 "sizes()".
func (fi *FstImage) Sizes() (states, classes int) {
	return int(fi.states), int(fi.classes)
}

// Mode returns the transduction-mode bitset (ModeNewSyms / ModePosUsed).
func (fi *FstImage) Mode() uint8 {
	return fi.mode
}

// TerminatorClass returns the pair class of the terminator symbol pair.
func (fi *FstImage) TerminatorClass() Class {
	return Class(fi.terminatorCls)
}

// Trans returns the end state reached from startState on class cls, or
// NoState if there is none or the inputs are out of range (spec.md
// §4.2 "trans()" — accessors never panic on invalid ids).
func (fi *FstImage) Trans(start State, cls Class) State {
	if start < 1 || int32(start) > fi.states || cls < 1 || int32(cls) > fi.classes {
		return NoState
	}
	index := int64(start-1)*int64(fi.classes) + int64(cls-1)
	pos := int(fi.transOffset) + int(index)*int(fi.transEntryW)
	v, _, err := fi.r.FixedUnsigned(pos, int(fi.transEntryW))
	if err != nil {
		return NoState
	}
	return State(intconv.EntryWidthUnsigned(uint64(v), int(fi.transEntryW)))
}

// IsAccepting reports whether state is a member of the accepting-state
// table. State 1 is always accepting by construction of a well-formed
// image, but this still consults the table as the source of truth.
func (fi *FstImage) IsAccepting(state State) bool {
	if state < 1 || int32(state) > fi.states {
		return false
	}
	pos := int(fi.acceptOffset) + int(state) - 1
	v, _, err := fi.r.FixedUnsigned(pos, 1)
	if err != nil {
		return false
	}
	return v == 1
}
