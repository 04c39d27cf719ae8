// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

import "fmt"

// KeyRow is one {accidental, stave-line} pair in a key signature table
// row.
type KeyRow struct {
	Accidental Accidental
	Line       int // letter index (0=C..6=B) the accidental applies to; makekey stores the source number as given
}

// Key is a resolved key signature: either one of the 7 diatonic majors (or
// their sharp/flat/minor variants, rows 0..6 / +7 / +14 / +21 in the
// original's table) or a user-defined custom key (X1..).
type Key struct {
	Name   string
	Rows   []KeyRow
	Minor  bool
	Custom bool // true for makekey-defined X1.. keys
}

// KeyNone is the "no key signature" sentinel (directive `key N`).
var KeyNone = Key{Name: "none"}

// sharpOrder and flatOrder give the letters a sharp-side or flat-side key
// signature marks, in conventional engraving order; a signature of n
// sharps or flats uses the first n.
var sharpOrder = []int{3, 0, 4, 1, 5, 2, 6} // F C G D A E B (letter indices)
var flatOrder = []int{6, 2, 5, 1, 4, 0, 3}  // B E A D G C F

// circleOfFifthsSharps maps a key letter (0=C..6=B) to how many sharps its
// major key signature carries (negative means flats).
var circleOfFifthsSharps = map[int]int{0: 0, 1: 2, 2: 4, 3: -1, 4: 1, 5: 3, 6: 5}

// MakeMajorKey builds the Key called name whose signature carries sharps
// sharps (negative means flats), taken in engraving order. ParseKeyName
// computes the count from the key letter, adding 7 for '#' or subtracting
// 7 for '$' (e.g. "g#" raises G major's one sharp by a further 7).
func MakeMajorKey(name string, sharps int, minor bool) Key {
	var rows []KeyRow
	switch {
	case sharps > 0:
		for i := 0; i < sharps && i < len(sharpOrder); i++ {
			rows = append(rows, KeyRow{AccSharp, sharpOrder[i]})
		}
	case sharps < 0:
		n := -sharps
		for i := 0; i < n && i < len(flatOrder); i++ {
			rows = append(rows, KeyRow{AccFlat, flatOrder[i]})
		}
	}
	return Key{Name: name, Rows: rows, Minor: minor}
}

// ErrUnsupportedKey is the error returned when a key name decodes to an
// enharmonic spelling with no table row, such as "key B#".
var ErrUnsupportedKey = fmt.Errorf("unsupported key signature")

// letterIndex maps 'a'..'g' to 0..6 in the C-major letter numbering used
// throughout this package (0=C).
var letterIndex = map[byte]int{'c': 0, 'd': 1, 'e': 2, 'f': 3, 'g': 4, 'a': 5, 'b': 6}

// ParseKeyName decodes a header `key` directive's key-name token: a letter
// A..G optionally followed by '#' or '$' and optionally 'm' for minor, or
// "n"/"N" for no key. It does not handle "X<n>" custom keys -- those are
// resolved by the caller against the makekey table.
func ParseKeyName(s string) (Key, error) {
	if s == "" {
		return Key{}, fmt.Errorf("empty key name")
	}
	if s == "n" || s == "N" {
		return KeyNone, nil
	}
	letter := s[0] | 0x20 // lowercase
	idx, ok := letterIndex[letter]
	if !ok {
		return Key{}, fmt.Errorf("bad key letter %q", s[0:1])
	}
	rest := s[1:]
	sharp, flat, minor := false, false, false
	for len(rest) > 0 {
		switch rest[0] {
		case '#':
			sharp = true
		case '$':
			flat = true
		case 'm', 'M':
			minor = true
		default:
			return Key{}, fmt.Errorf("bad key modifier %q in %q", rest[0:1], s)
		}
		rest = rest[1:]
	}
	if sharp && flat {
		return Key{}, ErrUnsupportedKey
	}
	base := circleOfFifthsSharps[idx]
	if minor {
		// relative minor shares its major's signature, three fifths flatward
		// of its letter's own major; letter stays as given (a natural-minor
		// "am" has the same 0-sharp signature as C major).
		base -= 3
	}
	if sharp {
		base += 7
	}
	if flat {
		base -= 7
	}
	if base > 7 || base < -7 {
		return Key{}, ErrUnsupportedKey
	}
	name := string(rune(letter))
	if sharp {
		name += "#"
	}
	if flat {
		name += "$"
	}
	if minor {
		name += "m"
	}
	return MakeMajorKey(name, base, minor), nil
}

// TimeSig is the packed {multiplier, numerator, denominator} representation
// of a time signature. Denominator must be a power of two in
// {1,2,4,8,16,32,64}, unless the Common or Cut sentinel is set.
type TimeSig struct {
	Multiplier int
	Numerator  int
	Denominator int
	Common      bool // 'C' -- common time, prints as such but is 4/4
	Cut         bool // 'A' -- alla breve, prints as such but is 2/2
}

// LenCrotchet is len_crotchet, the fixed musical-length constant a quarter
// note (crotchet) occupies. LenSemibreve (whole note) is 4 crotchets.
const (
	LenCrotchet  = 384
	LenSemibreve = 4 * LenCrotchet
)

var validDenominators = map[int]bool{1: true, 2: true, 4: true, 8: true, 16: true, 32: true, 64: true}

// BarLength returns the musical-unit length of one bar in this time
// signature: multiplier * numerator * len_semibreve / denominator.
func (t TimeSig) BarLength() int {
	if t.Common {
		t = TimeSig{Multiplier: 1, Numerator: 4, Denominator: 4}
	}
	if t.Cut {
		t = TimeSig{Multiplier: 1, Numerator: 2, Denominator: 2}
	}
	return t.Multiplier * t.Numerator * LenSemibreve / t.Denominator
}

// ScaleNotes applies the header "notes-scaling" directives (doublenotes /
// halvenotes) to a time signature by doubling or halving its denominator.
func (t TimeSig) ScaleNotes(doubled bool) (TimeSig, error) {
	if t.Common || t.Cut {
		return t, nil
	}
	d := t.Denominator
	if doubled {
		d *= 2
	} else {
		if d%2 != 0 {
			return t, fmt.Errorf("cannot halve odd denominator %d", d)
		}
		d /= 2
	}
	if !validDenominators[d] {
		return t, fmt.Errorf("scaled denominator %d is not a power of two in range", d)
	}
	t.Denominator = d
	return t, nil
}
