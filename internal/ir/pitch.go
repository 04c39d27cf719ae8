// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

// Pitch units are quarter-tones (QuarterTonesPerSemitone per semitone,
// QuarterTonesPerOctave per octave). Stave positions (Spitch) are
// quarter-line units, 4 per stave line.
const (
	QuarterTonesPerSemitone = 2
	QuarterTonesPerOctave   = 24
)

// Accidental is the closed set of accidentals a note or key entry may
// carry.
type Accidental int

const (
	AccNone Accidental = iota
	AccNatural
	AccHalfSharp
	AccSharp
	AccDoubleSharp
	AccHalfFlat
	AccFlat
	AccDoubleFlat
)

// QuarterTones is how many quarter-tones this accidental adds relative to
// the natural letter, used by both the stave parser and the transposer.
func (a Accidental) QuarterTones() int {
	switch a {
	case AccNatural, AccNone:
		return 0
	case AccHalfSharp:
		return 1
	case AccSharp:
		return 2
	case AccDoubleSharp:
		return 4
	case AccHalfFlat:
		return -1
	case AccFlat:
		return -2
	case AccDoubleFlat:
		return -4
	}
	return 0
}

func (a Accidental) String() string {
	switch a {
	case AccNone:
		return ""
	case AccNatural:
		return "♮"
	case AccHalfSharp:
		return "½#"
	case AccSharp:
		return "#"
	case AccDoubleSharp:
		return "##"
	case AccHalfFlat:
		return "½$"
	case AccFlat:
		return "$"
	case AccDoubleFlat:
		return "$$"
	}
	return "?"
}

// letterSemitones gives the natural (no accidental) semitone offset of
// each diatonic letter from C, in a standard 12-tone octave: C D E F G A B.
var letterSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}

// Pitch names a note by letter + accidental + octave, the source-level
// representation the stave parser produces before resolving it to stave
// position and absolute pitch.
type Pitch struct {
	Letter     int // 0=C .. 6=B, matching letterSemitones
	Accidental Accidental
	Octave     int // middle-C octave is conventionally 4
}

// AbsPitch returns the absolute quarter-tone pitch of p, with octave 4
// (middle C's octave) mapped to quarter-tone origin 4*QuarterTonesPerOctave.
func (p Pitch) AbsPitch() int {
	semis := letterSemitones[p.Letter%7]
	qt := semis*QuarterTonesPerSemitone + p.Accidental.QuarterTones()
	return qt + p.Octave*QuarterTonesPerOctave
}

// Spitch returns the stave-position quarter-line offset of p under clef,
// counting from the clef's own reference line. Each diatonic letter step
// is one stave line, i.e. 4 quarter-line units; accidentals do not affect
// stave position.
func (p Pitch) Spitch(clef Clef) int {
	diatonicSteps := p.Octave*7 + p.Letter - (clef.RefOctave*7 + clef.RefLetter)
	return diatonicSteps*4 + clef.RefSpitch
}

// Clef names one of the 16 supported clef variants and the
// reference point used to map a Pitch to a stave position.
type Clef struct {
	Name      string
	RefLetter int // 0..6, the letter sitting on RefSpitch
	RefOctave int
	RefSpitch int // quarter-line position of RefLetter/RefOctave
}

// Clefs is the table of the 16 named clef variants the glossary promises.
// RefSpitch 0 is the middle line of a 5-line stave.
var Clefs = map[string]Clef{
	"treble":       {"treble", 1, 5, -2},   // B4 sits one line below middle
	"soprano":      {"soprano", 0, 4, 0},
	"mezzo":        {"mezzo", 0, 4, -4},
	"alto":         {"alto", 0, 4, 0},
	"tenor":        {"tenor", 0, 4, 4},
	"cbaritone":    {"cbaritone", 0, 4, 8},
	"bass":         {"bass", 3, 3, 2},
	"fbaritone":    {"fbaritone", 3, 3, -2},
	"subbass":      {"subbass", 3, 3, 6},
	"deepbass":     {"deepbass", 3, 2, 6},
	"trebledescant": {"trebledescant", 1, 6, -2},
	"trebletenor":  {"trebletenor", 1, 4, -2},
	"trebletenorb": {"trebletenorb", 1, 4, -2},
	"soprabass":    {"soprabass", 0, 4, 0},
	"none":         {"none", 0, 4, 0},
	"percussion":   {"percussion", 0, 4, 0},
}
