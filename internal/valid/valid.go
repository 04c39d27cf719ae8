// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package valid provides the name tables and lookup functions the header
// and stave parsers use to validate clef names, paper sizes, time
// signature denominators and barline styles.
package valid

type NameInfo struct {
	Name   string // the name as written in a source file
	UiName string // how diagnostics spell it back to the user
	Arg    int    // directive-specific integer, e.g. a barline style number
}

var ClefInfo = []NameInfo{
	{"alto", "Alto", 0},
	{"bass", "Bass", 0},
	{"cbaritone", "C Baritone", 0},
	{"deepbass", "Deep Bass", 0},
	{"fbaritone", "F Baritone", 0},
	{"mezzo", "Mezzo-soprano", 0},
	{"none", "No Clef", 0},
	{"percussion", "Percussion", 0},
	{"soprabass", "Soprabass", 0},
	{"soprano", "Soprano", 0},
	{"subbass", "Subbass", 0},
	{"tenor", "Tenor", 0},
	{"treble", "Treble", 0},
	{"trebledescant", "Treble Descant", 0},
	{"trebletenor", "Treble Tenor", 0},
	{"trebletenorb", "Treble Tenor B", 0},
}

// ClefName returns true if name is one of the 16 supported clefs.
func ClefName(name string) (ok bool) {
	for _, c := range ClefInfo {
		if c.Name == name {
			ok = true
			break
		}
	}
	return
}

// PaperInfo lists the paper sizes recognised by name, with unmagnified
// width/depth in thousandths of a point.
type PaperInfo struct {
	Name  string
	Width int
	Depth int
}

var Papers = []PaperInfo{
	{"a3", 842000, 1190000},
	{"a4", 595000, 842000},
	{"a5", 420000, 595000},
	{"b5", 499000, 709000},
	{"letter", 612000, 792000},
}

// PaperByName returns the paper size matching name. ok is false if the
// name is not one we support.
func PaperByName(name string) (p PaperInfo, ok bool) {
	for _, sz := range Papers {
		if sz.Name == name {
			p = sz
			ok = true
			break
		}
	}
	return
}

// TimeDenominator returns true if d is a legal time-signature denominator:
// a power of two from 1 to 64.
func TimeDenominator(d int) (ok bool) {
	switch d {
	case 1, 2, 4, 8, 16, 32, 64:
		ok = true
	}
	return
}

var BarlineInfo = []NameInfo{
	{"normal", "Normal", 0},
	{"double", "Double", 1},
	{"ending", "Ending", 2},
	{"invisible", "Invisible", 3},
}

// BarlineStyle returns the numeric style for a named barline style. ok is
// false if the name is unknown.
func BarlineStyle(name string) (style int, ok bool) {
	for _, b := range BarlineInfo {
		if b.Name == name {
			return b.Arg, true
		}
	}
	return 0, false
}

// StaveNumber returns true if n is usable as a stave number (stave 0 is
// the synthetic key-map stave, so sources address 1..64).
func StaveNumber(n int) (ok bool) {
	return n >= 1 && n <= 64
}

// StaveLines returns true if n is a legal line count for a stave.
func StaveLines(n int) (ok bool) {
	return n >= 0 && n <= 6
}
