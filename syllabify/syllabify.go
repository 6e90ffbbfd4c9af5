// Package syllabify implements the trivial syllable-separator insertion
// SaStage falls back to when no word-level FSTs are configured
// (spec.md §4.5), ported from picotrns.c's picotrns_trivial_syllabify.
package syllabify

import (
	"github.com/ihuguet/picofst/phonetable"
	"github.com/ihuguet/picofst/symbol"
)

// Syllabify scans a phoneme sequence and inserts a syllable-boundary
// marker between each pair of syllable-carrier clusters, immediately
// before the final consonant of the intervening cluster (or before the
// lone consonant when the cluster has exactly one). A stress marker
// found within the consonant cluster is lifted out and reinserted
// immediately after the new boundary.
//
// Unlike the original, which only recognized the primary-stress id
// while scanning the cluster (picotrns.c's duplicated-condition bug —
// see DESIGN.md), this also recognizes secondary stress, since spec.md
// §4.5 describes "stress markers" without distinguishing the two.
func Syllabify(phones *phonetable.Table, in []symbol.PosSym) []symbol.PosSym {
	out := make([]symbol.PosSym, 0, len(in)+len(in)/3+1)
	i, j := 0, 0
	vowelFound := false

	for i < len(in) {
		accent := int16(-1)
		accentPos := -1

		for j < len(in) && !isSyllCarrierSym(phones, in[j].Sym) {
			if isStressMarker(phones, in[j].Sym) {
				accent = in[j].Sym
				accentPos = j
			}
			j++
		}

		if j < len(in) {
			// j sits at the start of a new syllable-carrier cluster: copy
			// the intervening consonant cluster, skipping the lifted stress.
			for i < j-1 {
				if accentPos >= 0 && i == accentPos {
					i++
					continue
				}
				out = append(out, in[i])
				i++
			}
			if vowelFound {
				out = append(out, insertSym(phones.SyllBoundID()))
				if accent >= 0 {
					out = append(out, symbol.PosSym{Pos: symbol.PosInsert, Sym: accent})
				}
			}
			if accentPos >= 0 && i == accentPos {
				i++
			} else {
				out = append(out, in[i])
				i++
			}
			vowelFound = true

			for i < len(in) && isSyllCarrierSym(phones, in[i].Sym) {
				out = append(out, in[i])
				i++
			}
			j = i
		} else {
			for i < j {
				out = append(out, in[i])
				i++
			}
		}
	}
	return out
}

func isSyllCarrierSym(phones *phonetable.Table, sym int16) bool {
	s := symbol.Unpack(sym)
	return phones.IsSyllCarrier(s.ID)
}

func isStressMarker(phones *phonetable.Table, sym int16) bool {
	s := symbol.Unpack(sym)
	return phones.IsPrimStress(s.ID) || phones.IsSecStress(s.ID)
}

func insertSym(id int8) symbol.PosSym {
	return symbol.PosSym{Pos: symbol.PosInsert, Sym: symbol.Pack(symbol.Symbol{Plane: symbol.PlanePhonemes, ID: id})}
}
