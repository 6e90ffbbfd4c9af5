// Package phonetable exposes phone-id property predicates and the
// special phone ids (stress markers, syllable boundary, pause) that
// syllabify and the stage packages consult (spec.md §4.4). It mirrors
// picoktab's tabphones knowledge base: a dense per-id property bitset
// plus a handful of fixed ids, the same dense-lookup-array shape
// coregex's alphabet byte-class table used for byte-to-class mapping.
package phonetable

// prop is a bitmask of the phone properties picoktab_has*Prop/is*
// predicates test (picosa.c's PICODBG dump over ids 0..255 enumerates
// exactly this set).
type prop uint16

const (
	propVowelLike prop = 1 << iota
	propDiphth
	propGlott
	propNonsyllVowel
	propSyllCons
	propPrimStress
	propSecStress
	propSyllBound
	propPause
)

// Table is a loaded phone property table: a dense array indexed by
// phone id (0..255) of property bitsets, plus the fixed special ids.
type Table struct {
	props [256]prop

	primStressID int8
	secStressID  int8
	syllBoundID  int8
	wordBoundID  int8
	pauseID      int8
}

// Builder assembles a Table. There is no runtime phone-table compiler
// in scope; callers (tests, and any host wiring a real knowledge base)
// populate one id at a time.
type Builder struct {
	t Table
}

// NewBuilder returns an empty Builder with -1 ("unset") special ids.
func NewBuilder() *Builder {
	return &Builder{t: Table{primStressID: -1, secStressID: -1, syllBoundID: -1, wordBoundID: -1, pauseID: -1}}
}

// SetVowelLike marks id as having the vowel-like property.
func (b *Builder) SetVowelLike(id int8) *Builder { b.t.props[uint8(id)] |= propVowelLike; return b }

// SetDiphth marks id as a diphthong.
func (b *Builder) SetDiphth(id int8) *Builder { b.t.props[uint8(id)] |= propDiphth; return b }

// SetGlott marks id as glottal.
func (b *Builder) SetGlott(id int8) *Builder { b.t.props[uint8(id)] |= propGlott; return b }

// SetNonsyllVowel marks id as a non-syllabic vowel.
func (b *Builder) SetNonsyllVowel(id int8) *Builder {
	b.t.props[uint8(id)] |= propNonsyllVowel
	return b
}

// SetSyllCons marks id as a syllabic consonant.
func (b *Builder) SetSyllCons(id int8) *Builder { b.t.props[uint8(id)] |= propSyllCons; return b }

// SetPrimStress registers id as the primary-stress marker.
func (b *Builder) SetPrimStress(id int8) *Builder {
	b.t.props[uint8(id)] |= propPrimStress
	b.t.primStressID = id
	return b
}

// SetSecStress registers id as the secondary-stress marker.
func (b *Builder) SetSecStress(id int8) *Builder {
	b.t.props[uint8(id)] |= propSecStress
	b.t.secStressID = id
	return b
}

// SetSyllBound registers id as the syllable-boundary marker.
func (b *Builder) SetSyllBound(id int8) *Builder {
	b.t.props[uint8(id)] |= propSyllBound
	b.t.syllBoundID = id
	return b
}

// SetWordBound registers id as the word-boundary marker. WordBound
// carries no property bit of its own (picoktab_getWordboundID has no
// corresponding has*Prop predicate) — only the fixed id matters.
func (b *Builder) SetWordBound(id int8) *Builder {
	b.t.wordBoundID = id
	return b
}

// SetPause registers id as the pause marker.
func (b *Builder) SetPause(id int8) *Builder {
	b.t.props[uint8(id)] |= propPause
	b.t.pauseID = id
	return b
}

// Build returns the assembled Table.
func (b *Builder) Build() *Table { t := b.t; return &t }

// HasVowelLike reports whether id has the vowel-like property.
func (t *Table) HasVowelLike(id int8) bool { return t.props[uint8(id)]&propVowelLike != 0 }

// HasDiphth reports whether id is a diphthong.
func (t *Table) HasDiphth(id int8) bool { return t.props[uint8(id)]&propDiphth != 0 }

// HasGlott reports whether id is glottal.
func (t *Table) HasGlott(id int8) bool { return t.props[uint8(id)]&propGlott != 0 }

// HasNonsyllVowel reports whether id is a non-syllabic vowel.
func (t *Table) HasNonsyllVowel(id int8) bool { return t.props[uint8(id)]&propNonsyllVowel != 0 }

// HasSyllCons reports whether id is a syllabic consonant.
func (t *Table) HasSyllCons(id int8) bool { return t.props[uint8(id)]&propSyllCons != 0 }

// IsPrimStress reports whether id is the primary-stress marker.
func (t *Table) IsPrimStress(id int8) bool { return t.props[uint8(id)]&propPrimStress != 0 }

// IsSecStress reports whether id is the secondary-stress marker.
func (t *Table) IsSecStress(id int8) bool { return t.props[uint8(id)]&propSecStress != 0 }

// IsSyllBound reports whether id is the syllable-boundary marker.
func (t *Table) IsSyllBound(id int8) bool { return t.props[uint8(id)]&propSyllBound != 0 }

// IsPause reports whether id is the pause marker.
func (t *Table) IsPause(id int8) bool { return t.props[uint8(id)]&propPause != 0 }

// IsSyllCarrier reports whether id can carry a syllable nucleus: a
// vowel-like phone, a diphthong, or a syllabic consonant (picotrns.c's
// trivial syllabifier treats all three as "the start of a new vowel").
func (t *Table) IsSyllCarrier(id int8) bool {
	p := t.props[uint8(id)]
	return p&(propVowelLike|propDiphth|propSyllCons) != 0
}

// PrimStressID returns the fixed primary-stress phone id, or -1 if unset.
func (t *Table) PrimStressID() int8 { return t.primStressID }

// SecStressID returns the fixed secondary-stress phone id, or -1 if unset.
func (t *Table) SecStressID() int8 { return t.secStressID }

// SyllBoundID returns the fixed syllable-boundary phone id, or -1 if unset.
func (t *Table) SyllBoundID() int8 { return t.syllBoundID }

// WordBoundID returns the fixed word-boundary phone id, or -1 if unset.
func (t *Table) WordBoundID() int8 { return t.wordBoundID }

// PauseID returns the fixed pause phone id, or -1 if unset.
func (t *Table) PauseID() int8 { return t.pauseID }
