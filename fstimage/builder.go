package fstimage

import "github.com/ihuguet/picofst/bytestream"

// pairEntry is one (outSym, class) alternative for a given input symbol.
type pairEntry struct {
	outSym int16
	class  Class
}

// inEpsEntry is one (outSym, endState) input-epsilon alternative.
type inEpsEntry struct {
	outSym int16
	end    State
}

// Builder assembles a well-formed FST binary image in memory. There is
// no runtime FST compiler in scope (spec.md §1 Non-goals); Builder exists
// so tests can synthesize valid images without an external toolchain,
// mirroring the
// low-level incremental construction API the teacher's NFA builder used
// for hand-assembled test automata.
type Builder struct {
	mode          uint8
	classes       int32
	terminatorCls int32

	transitions map[int64]State // key: (state-1)*classes + (class-1)
	alphabet    map[int16][]pairEntry
	inEps       map[State][]inEpsEntry
	accepting   map[State]bool

	maxState State
}

// NewBuilder creates an empty image builder for an FST with the given
// number of classes. States are introduced implicitly by referencing
// them in AddTrans/AddPair/AddInEps/SetAccepting.
func NewBuilder(classes int) *Builder {
	return &Builder{
		classes:     int32(classes),
		transitions: make(map[int64]State),
		alphabet:    make(map[int16][]pairEntry),
		inEps:       make(map[State][]inEpsEntry),
		accepting:   map[State]bool{1: true}, // state 1 is always accepting
	}
}

// SetMode sets the transduction-mode bitset (ModeNewSyms/ModePosUsed).
func (b *Builder) SetMode(mode uint8) *Builder {
	b.mode = mode
	return b
}

// SetTerminatorClass records the pair class of the terminator symbol pair.
func (b *Builder) SetTerminatorClass(cls Class) *Builder {
	b.terminatorCls = int32(cls)
	return b
}

func (b *Builder) track(s State) {
	if s > b.maxState {
		b.maxState = s
	}
}

// AddTrans records that (start, cls) transitions to end.
func (b *Builder) AddTrans(start State, cls Class, end State) *Builder {
	b.track(start)
	b.track(end)
	key := int64(start-1)*int64(b.classes) + int64(cls-1)
	b.transitions[key] = end
	return b
}

// AddPair records that reading inSym from any state may produce outSym
// under pair class cls (the class is then looked up per-state via the
// transition table).
func (b *Builder) AddPair(inSym, outSym int16, cls Class) *Builder {
	b.alphabet[inSym] = append(b.alphabet[inSym], pairEntry{outSym: outSym, class: cls})
	return b
}

// AddInEps records an input-epsilon alternative from start: producing
// outSym moves to end without consuming input.
func (b *Builder) AddInEps(start State, outSym int16, end State) *Builder {
	b.track(start)
	b.track(end)
	b.inEps[start] = append(b.inEps[start], inEpsEntry{outSym: outSym, end: end})
	return b
}

// SetAccepting marks state as accepting.
func (b *Builder) SetAccepting(state State) *Builder {
	b.track(state)
	b.accepting[state] = true
	return b
}

// Build serializes the accumulated FST into the binary wire format of
// spec.md §4.2/§6: 4-byte marker, ten varint header scalars, alphabet
// hash table, transition matrix, in-epsilon table, accepting-state array.
func (b *Builder) Build() []byte {
	states := int32(b.maxState)
	if states < 1 {
		states = 1
	}

	// entry width: smallest of {1,2,3,4} that fits every state id.
	width := 1
	for states >= 1<<(8*width) && width < 4 {
		width++
	}

	alphaBytes, hashTable := b.buildAlphabet()
	transBytes := b.buildTransitions(states, width)
	inEpsBytes, inEpsOffsets := b.buildInEps(states)
	acceptBytes := b.buildAccepting(states)

	// Layout, in order: hash table | alphabet chain cells | transitions | in-eps offsets+lists | accepting.
	hashTableBytes := make([]byte, 0, len(hashTable)*4)
	alphaBase := int32(len(hashTable) * 4)
	for _, off := range hashTable {
		v := off
		if v > 0 {
			v += alphaBase // offsets are relative to alphaOffset, not to the hash table alone
		}
		hashTableBytes = bytestream.AppendFixedSigned(hashTableBytes, v, 4)
	}

	alphaRegion := append(hashTableBytes, alphaBytes...)

	inEpsOffsetBytes := make([]byte, 0, int(states)*4)
	inEpsBase := int32(states) * 4
	for s := State(1); s <= State(states); s++ {
		off, ok := inEpsOffsets[s]
		v := int32(0)
		if ok {
			v = off + inEpsBase
		}
		inEpsOffsetBytes = bytestream.AppendFixedSigned(inEpsOffsetBytes, v, 4)
	}
	inEpsRegion := append(inEpsOffsetBytes, inEpsBytes...)

	// fstimage.Load treats every offset field as relative to the byte
	// right after the marker — i.e. relative to the start of the header
	// fields themselves, not to the end of the header. So each offset
	// must equal (header length + bytes already laid out before that
	// region). Header length in turn depends on the varint width of the
	// offsets it carries, which is self-referential; a fixed-point
	// iteration converges immediately for the small header values any
	// test fixture produces.
	headerLen := 10 // seed guess: one byte per scalar
	var header []byte
	for {
		alphaOffsetVal := int32(headerLen)
		transOffsetVal := alphaOffsetVal + int32(len(alphaRegion))
		inEpsOffsetVal := transOffsetVal + int32(len(transBytes))
		acceptOffsetVal := inEpsOffsetVal + int32(len(inEpsRegion))

		header = nil
		header = bytestream.AppendVarintSigned(header, int32(b.mode))
		header = bytestream.AppendVarintSigned(header, b.classes)
		header = bytestream.AppendVarintSigned(header, states)
		header = bytestream.AppendVarintSigned(header, b.terminatorCls)
		header = bytestream.AppendVarintSigned(header, int32(len(hashTable)))
		header = bytestream.AppendVarintSigned(header, alphaOffsetVal)
		header = bytestream.AppendVarintSigned(header, int32(width))
		header = bytestream.AppendVarintSigned(header, transOffsetVal)
		header = bytestream.AppendVarintSigned(header, inEpsOffsetVal)
		header = bytestream.AppendVarintSigned(header, acceptOffsetVal)

		if len(header) == headerLen {
			break
		}
		headerLen = len(header)
	}

	out := make([]byte, headerMarkerSize)
	out = append(out, header...)
	out = append(out, alphaRegion...)
	out = append(out, transBytes...)
	out = append(out, inEpsRegion...)
	out = append(out, acceptBytes...)
	return out
}

// buildAlphabet lays out the hash-chain cells and returns (cellBytes,
// hashTable) where hashTable[h] is the relative offset (from the start
// of the alphabet region, i.e. right after the hash table itself) of the
// first cell in bucket h, or 0 if empty. Each bucket's cells are built as
// standalone byte slices first (so every cell's length is known before
// any chain-offset is written), then concatenated — this avoids patching
// placeholder offsets after the fact.
func (b *Builder) buildAlphabet() ([]byte, []int32) {
	hashSize := len(b.alphabet)
	if hashSize == 0 {
		hashSize = 1
	}
	buckets := make(map[int32][]int16)
	for inSym := range b.alphabet {
		h := int32(inSym) % int32(hashSize)
		if h < 0 {
			h += int32(hashSize)
		}
		buckets[h] = append(buckets[h], inSym)
	}

	hashTable := make([]int32, hashSize)
	// A leading pad byte keeps every real cell offset >= 1: StartPairSearch
	// treats a hash-table value of 0 as "bucket empty", so the very first
	// cell written (which would otherwise land at offset 0) must not
	// collide with that sentinel.
	cells := []byte{0}
	for h := 0; h < hashSize; h++ {
		syms := buckets[int32(h)]
		if len(syms) == 0 {
			continue
		}

		cellBodies := make([][]byte, len(syms))
		for i, inSym := range syms {
			var cell []byte
			cell = bytestream.AppendVarintSigned(cell, int32(inSym))
			cell = bytestream.AppendVarintSigned(cell, 0) // chain-offset placeholder, patched below
			for _, pe := range b.alphabet[inSym] {
				cell = bytestream.AppendVarintSigned(cell, int32(pe.outSym))
				cell = bytestream.AppendVarintSigned(cell, int32(pe.class))
			}
			cell = bytestream.AppendVarintSigned(cell, int32(-1)) // ILLEG terminator
			cellBodies[i] = cell
		}

		// chain-offset field is always the second varint of the cell and
		// always encodes to one byte for the offsets used here (bucket
		// chains are short), so the placeholder's width matches; walk
		// cumulative lengths to fill it in now that every cell's size is known.
		cellStarts := make([]int, len(syms))
		offsetWithinBucket := 0
		for i, body := range cellBodies {
			cellStarts[i] = offsetWithinBucket
			offsetWithinBucket += len(body)
		}
		for i := range syms {
			if i == len(syms)-1 {
				continue
			}
			rel := int32(cellStarts[i+1] - cellStarts[i])
			patchChainOffset(cellBodies[i], rel)
		}

		hashTable[h] = int32(len(cells))
		for _, body := range cellBodies {
			cells = append(cells, body...)
		}
	}
	return cells, hashTable
}

// patchChainOffset overwrites cell's chain-offset field (the varint
// immediately following the leading inSym varint) with rel, in place.
// The placeholder is always written as a single-byte zero varint, which
// holds for any rel in [-64, 63]: Builder is a test-fixture assembler and
// never produces hash buckets long enough to need a wider offset.
func patchChainOffset(cell []byte, rel int32) {
	if rel < -64 || rel > 63 {
		panic("fstimage: builder bucket chain too long for single-byte offset")
	}
	r := bytestream.New(cell)
	_, afterSym, err := r.VarintSigned(0)
	if err != nil {
		return
	}
	replacement := bytestream.AppendVarintSigned(nil, rel)
	copy(cell[afterSym:afterSym+len(replacement)], replacement)
}

func (b *Builder) buildTransitions(states int32, width int) []byte {
	out := make([]byte, int(states)*int(b.classes)*width)
	for key, end := range b.transitions {
		idx := int(key) * width
		if idx < 0 || idx+width > len(out) {
			continue
		}
		encoded := bytestream.AppendFixedUnsigned(nil, uint32(end), width)
		copy(out[idx:idx+width], encoded)
	}
	return out
}

func (b *Builder) buildInEps(states int32) ([]byte, map[State]int32) {
	offsets := make(map[State]int32)
	// Same leading-pad rationale as buildAlphabet: offset 0 means "no
	// in-epsilon transitions" to StartInEpsSearch, so the first real
	// entry list must not start at offset 0.
	out := []byte{0}
	for s := State(1); s <= State(states); s++ {
		entries := b.inEps[s]
		if len(entries) == 0 {
			continue
		}
		offsets[s] = int32(len(out))
		for _, e := range entries {
			out = bytestream.AppendVarintSigned(out, int32(e.outSym))
			out = bytestream.AppendVarintSigned(out, int32(e.end))
		}
		out = bytestream.AppendVarintSigned(out, -1)
	}
	return out, offsets
}

func (b *Builder) buildAccepting(states int32) []byte {
	out := make([]byte, states)
	for s, ok := range b.accepting {
		if ok && s >= 1 && int32(s) <= states {
			out[s-1] = 1
		}
	}
	return out
}
