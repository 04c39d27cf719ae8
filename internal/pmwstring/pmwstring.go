// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package pmwstring implements PmwString, this system's internal rich-text
// type: a sequence of 32-bit code units packing {font-id:8, codepoint:24}.
// The packing follows the same "pack a value into a fixed-width integer
// without allocating" idiom used elsewhere for byte-oriented encodings,
// widened here from byte triples to a single 32-bit word per character.
package pmwstring

import "fmt"

// Unit is one packed character: font id in the high byte, Unicode (or
// private-use) code point in the low 24 bits.
type Unit uint32

// MaxUnicode is the boundary above which a code point is one of this
// system's private, non-Unicode placeholders (page number, repeat number,
// escaped underlay separators, ...). Shaping services only accept legal
// Unicode, so these are temporarily remapped into a private-use range and
// mapped back afterwards.
const MaxUnicode = 0x10FFFF

// Special (non-Unicode) placeholder code points, allocated just above
// MaxUnicode so they can never collide with a real character.
const (
	CodePageNumber = MaxUnicode + 1 + iota
	CodePageNumberOdd
	CodePageNumberEven
	CodeSkipOddStart
	CodeSkipEvenStart
	CodeSkipEnd
	CodeRepeatNumber
	CodeEscapedHyphen
	CodeEscapedEquals
	CodeEscapedSharp
	CodeVerticalBar
)

// Pack combines a font id and code point into a Unit.
func Pack(font uint8, code uint32) Unit {
	return Unit(uint32(font)<<24 | (code & 0x00FFFFFF))
}

// Font extracts the font id from u.
func (u Unit) Font() uint8 { return uint8(u >> 24) }

// Code extracts the code point from u.
func (u Unit) Code() uint32 { return uint32(u) & 0x00FFFFFF }

// SmallCapsBit, ORed into a font id by the \sc\ escape.
const SmallCapsBit uint8 = 0x80

// SmallCaps reports whether u's font id has the small-caps bit set.
func (u Unit) SmallCaps() bool { return u.Font()&SmallCapsBit != 0 }

func (u Unit) String() string {
	return fmt.Sprintf("font%d:%#x", u.Font(), u.Code())
}

// String is a full PmwString: an ordered sequence of Units.
type String []Unit

// Append packs font/code and appends the resulting Unit to s.
func (s String) Append(font uint8, code uint32) String {
	return append(s, Pack(font, code))
}

// PlainText extracts the Unicode text of s, dropping font and special
// placeholder codes (anything above MaxUnicode becomes U+FFFD). Used by
// the debug renderer and by round-trip tests that don't care about font
// switches.
func (s String) PlainText() string {
	runes := make([]rune, 0, len(s))
	for _, u := range s {
		c := u.Code()
		if c > MaxUnicode {
			runes = append(runes, '�')
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}

// Equal reports whether s and other contain identical Units in the same
// order.
func (s String) Equal(other String) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
