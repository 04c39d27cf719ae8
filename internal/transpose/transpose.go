// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transpose rewrites note pitches and key signatures by a fixed
// quarter-tone offset: notes move by absolute pitch and are respelled
// under the active clef, while key signatures move along the circle of
// fifths by the equivalent semitone shift.
package transpose

import (
	"fmt"

	"github.com/ellisgrant/pmw/internal/ir"
)

// MaxTranspose bounds the user's requested shift, in quarter-tones.
const MaxTranspose = 4 * ir.QuarterTonesPerOctave // +/- 4 octaves

// Transposer applies one fixed quarter-tone offset to notes and key
// signatures for the lifetime of one movement (or the whole document,
// since transposition is a movement-level default inherited like any
// other header setting -- see ir.Movement.Previous chaining).
type Transposer struct {
	QuarterTones int
	// KeyMap holds user-registered `keytranspose`/`transposedkey`
	// overrides, keyed by the source key's name.
	KeyMap map[string]ir.Key
}

// New returns a Transposer for the given quarter-tone offset. It returns
// an error if the offset is out of MaxTranspose's range.
func New(quarterTones int, keyMap map[string]ir.Key) (*Transposer, error) {
	if quarterTones < -MaxTranspose || quarterTones > MaxTranspose {
		return nil, fmt.Errorf("transpose %d quarter-tones is out of range +/-%d", quarterTones, MaxTranspose)
	}
	return &Transposer{QuarterTones: quarterTones, KeyMap: keyMap}, nil
}

// TransposeKey rewrites a key signature by the transposer's offset.
// Standard (non-custom) keys use the enharmonic chromatic rule table;
// custom (X1..) keys require an explicit keytranspose mapping, absent
// which a non-zero transpose is a fatal condition for that key.
func (t *Transposer) TransposeKey(k ir.Key) (ir.Key, error) {
	if t.QuarterTones == 0 {
		return k, nil
	}
	if override, ok := t.KeyMap[k.Name]; ok {
		return override, nil
	}
	if k.Custom {
		return k, fmt.Errorf("custom key %q has no keytranspose mapping for a non-zero transpose", k.Name)
	}
	if k.Name == "none" {
		return k, nil
	}
	semitoneShift := t.QuarterTones / ir.QuarterTonesPerSemitone
	if t.QuarterTones%ir.QuarterTonesPerSemitone != 0 {
		return k, fmt.Errorf("quarter-tone transposition of a standard key requires a keytranspose mapping")
	}
	letterIdx, _ := decodeKeyName(k.Name)
	currentFifths := keyLetterFifths(letterIdx, k.Name)
	if k.Minor {
		currentFifths -= 3 // a minor key carries its relative major's signature
	}
	newFifths := shiftFifths(currentFifths, semitoneShift)
	rootFifths := newFifths
	if k.Minor {
		rootFifths += 3
	}
	newLetterIdx, modifier := fifthsToLetter(rootFifths)
	newName := reencodeKeyName(newLetterIdx, modifier, k.Minor)
	return ir.MakeMajorKey(newName, newFifths, k.Minor), nil
}

var keyLetters = [7]byte{'c', 'd', 'e', 'f', 'g', 'a', 'b'}

// circleOfFifthsSharps maps a key letter (0=C..6=B) to how many sharps
// its major key signature carries (negative means flats).
var circleOfFifthsSharps = map[int]int{0: 0, 1: 2, 2: 4, 3: -1, 4: 1, 5: 3, 6: 5}

func decodeKeyName(name string) (letterIdx int, sharps int) {
	// name was produced by ir.MakeMajorKey/ParseKeyName as "<letter>[#|$][m]".
	for i, l := range keyLetters {
		if len(name) > 0 && name[0] == l {
			letterIdx = i
			break
		}
	}
	sharps = 0
	switch {
	case len(name) > 1 && name[1] == '#':
		sharps = 1
	case len(name) > 1 && name[1] == '$':
		sharps = -1
	}
	return
}

// keyLetterFifths recovers the circle-of-fifths position of the major key
// named by a key name's letter and modifier: the letter's natural count,
// plus 7 for a trailing '#' or minus 7 for a trailing '$'. A trailing 'm'
// is not looked at here.
func keyLetterFifths(letterIdx int, name string) int {
	fifths := circleOfFifthsSharps[letterIdx]
	if len(name) > 1 {
		switch name[1] {
		case '#':
			fifths += 7
		case '$':
			fifths -= 7
		}
	}
	return fifths
}

// shiftFifths moves a key's circle-of-fifths position by semitoneShift
// semitones: each fifth step changes the root by 7 semitones mod 12, so
// the result is the position f in [-7,7] closest to zero that satisfies
// mod12(7*f - 7*currentFifths) == mod12(semitoneShift).
func shiftFifths(currentFifths, semitoneShift int) int {
	want := mod12(semitoneShift)
	best, bestDist := 0, 99
	for f := -7; f <= 7; f++ {
		if mod12(semitoneOf(f)-semitoneOf(currentFifths)) == want {
			if abs(f) < bestDist {
				best, bestDist = f, abs(f)
			}
		}
	}
	return best
}

// semitoneOf returns the semitone (mod 12) of the major-key root sitting
// at the given circle-of-fifths position: each step of a fifth is 7
// semitones.
func semitoneOf(fifths int) int {
	return mod12(7 * fifths)
}

// fifthsToLetter decodes a circle-of-fifths position back into one of the
// 7 natural letters plus an optional +-7 modifier, inverting
// keyLetterFifths.
func fifthsToLetter(fifths int) (letterIdx int, modifier int) {
	candidate := fifths
	switch {
	case candidate < -1:
		candidate += 7
		modifier = -7
	case candidate > 5:
		candidate -= 7
		modifier = 7
	}
	for i := 0; i < 7; i++ {
		if circleOfFifthsSharps[i] == candidate {
			return i, modifier
		}
	}
	return 0, modifier
}

func reencodeKeyName(letterIdx, modifier int, minor bool) string {
	name := string(keyLetters[letterIdx])
	if modifier > 0 {
		name += "#"
	} else if modifier < 0 {
		name += "$"
	}
	if minor {
		name += "m"
	}
	return name
}

func mod12(n int) int {
	n %= 12
	if n < 0 {
		n += 12
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// TieState carries cross-note information TransposeNote needs about ties
// already in progress, so a tie's held-over note can keep its spelling.
type TieState struct {
	TieCount int
}

// TransposeNote rewrites a note's absolute quarter-tone pitch by the
// transposer's offset, returning the new stave position and accidental
// under clef. hintAccidental/forceAccidental mirror the original's
// letter-change hints for enharmonic respelling; when forceAccidental is
// set, newAccidental is exactly hintAccidental rather than computed.
func (t *Transposer) TransposeNote(p ir.Pitch, clef ir.Clef, hintAccidental ir.Accidental, forceAccidental bool, tie TieState) (newSpitch int, newAccidental ir.Accidental, newAbsPitch int, err error) {
	newAbsPitch = p.AbsPitch() + t.QuarterTones
	if t.QuarterTones == 0 {
		return p.Spitch(clef), p.Accidental, p.AbsPitch(), nil
	}
	if t.QuarterTones%ir.QuarterTonesPerSemitone != 0 {
		// Quarter-tone (not semitone) shifts need an explicit key mapping
		// to know which enharmonic spelling to prefer.
		if len(t.KeyMap) == 0 {
			return 0, ir.AccNone, 0, fmt.Errorf("quarter-tone transposition requires a key mapping")
		}
	}
	// Nearest diatonic letter shift for the semitone shift: 7 letter
	// steps per 12 semitones, rounded to nearest.
	semis := t.QuarterTones / ir.QuarterTonesPerSemitone
	var letterShift int
	if semis >= 0 {
		letterShift = (semis*7 + 6) / 12
	} else {
		letterShift = (semis*7 - 6) / 12
	}
	total := p.Letter + letterShift
	newLetter := total % 7
	newOctave := p.Octave + total/7
	if newLetter < 0 {
		newLetter += 7
		newOctave--
	}
	if forceAccidental {
		newAccidental = hintAccidental
	} else {
		newAccidental = spellAccidental(newAbsPitch, newLetter, newOctave)
	}
	if tie.TieCount > 0 {
		// A tie crossing the transposition keeps the same accidental
		// state as its start note -- the caller is responsible for
		// passing the tied-from note's accidental as hintAccidental with
		// forceAccidental set; nothing further to adjust here.
	}
	newPitch := ir.Pitch{Letter: newLetter, Octave: newOctave, Accidental: newAccidental}
	newSpitch = newPitch.Spitch(clef)
	return newSpitch, newAccidental, newAbsPitch, nil
}

// spellAccidental picks the accidental that makes the given letter and
// octave sound absPitch, in quarter-tones. Shifts outside the double
// sharp/flat range fall back to natural (the letter-change hint mechanism
// exists for callers that need a different respelling).
func spellAccidental(absPitch, letter, octave int) ir.Accidental {
	natural := ir.Pitch{Letter: letter, Octave: octave}.AbsPitch()
	switch absPitch - natural {
	case 0:
		return ir.AccNone
	case 1:
		return ir.AccHalfSharp
	case 2:
		return ir.AccSharp
	case 4:
		return ir.AccDoubleSharp
	case -1:
		return ir.AccHalfFlat
	case -2:
		return ir.AccFlat
	case -4:
		return ir.AccDoubleFlat
	default:
		return ir.AccNatural
	}
}
