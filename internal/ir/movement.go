// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

// MaxStaves is the sparse upper bound on stave numbers within a movement.
const MaxStaves = 64

// MovementFlags are the boolean switches a movement's header may set.
type MovementFlags uint32

const (
	MFDoubleNotes MovementFlags = 1 << iota
	MFHalveNotes
	MFStemSwap
	MFJustify
)

// HeadFootLine is one (left|middle|right) triple of a heading/footing
// chain entry.
type HeadFootLine struct {
	Left, Middle, Right PmwString
	FontSize            int
	SpaceAfter          int
	Draw                *DrawCall
}

// LayoutOp is one compiled instruction from the `layout` directive's
// compact opcode stream.
type LayoutOp struct {
	Kind     LayoutOpKind
	BarCount int
	RepeatCount int
	RepeatPtr   int // index back into the op stream the repeat returns to
}

type LayoutOpKind int

const (
	LayoutBarCount LayoutOpKind = iota
	LayoutRepeatCount
	LayoutNewPage
)

// StaveSpacing holds the above/here/next spacing overrides for one stave
// gap, set by sgabove/sghere/sgnext and ssabove/sshere/ssnext.
type StaveSpacing struct {
	GapAbove, GapHere, GapNext       int
	ScaleAbove, ScaleHere, ScaleNext float64
}

// MidiMapping is the per-stave General MIDI channel/program assignment
// this movement uses for the optional MIDI export (internal/midiexport);
// the full MIDI writer's dynamics/velocity mapping is out of scope.
type MidiMapping struct {
	Channel int
	Program int
	Volume  int
}

// Movement is one self-contained piece, chained to any prior movement via
// Previous so that unset fields can copy its defaults.
type Movement struct {
	Number int

	FontSizes map[string]int

	Heading, Footing         []HeadFootLine
	PageHeading, PageFooting []HeadFootLine
	LastFooting              []HeadFootLine

	BarCount   int
	BarVector  []uint32 // internal bar index -> packed logical bar number

	Staves [MaxStaves + 1]*Stave // sparse; Staves[0] is the thematic/key-map stave

	Key      Key
	Time     TimeSig
	BarlineStyle int
	Flags    MovementFlags

	BracketedStaves [][]int
	BracedStaves    [][]int
	JoinedStaves    [][]int

	Midi        map[int]MidiMapping
	Transpose   int // quarter-tones, user -t value
	Layout      []LayoutOp
	StaveSpacings map[int]StaveSpacing
	StemSwapLevel int // pitch (abspitch) at which default stem direction flips

	PrintKeyOverrides  map[printKeyKey]PmwString
	PrintTimeOverrides map[printKeyKey]PrintTime
	CustomKeys         map[string]Key
	KeyTranspositions  map[string]Key
	TransposedKeys     map[string]Key

	Previous *Movement
}

// printKeyKey is the (key-or-time-name, clef, movement) composite key used
// by printkey/printtime overrides, which "are tagged with the movement
// number at which they become effective and persist to later movements."
type printKeyKey struct {
	Name           string
	Clef           string
	EffectiveFrom  int
}

// PrintTime is a printtime override's pair of rendering strings: one for
// the numerator, one for the denominator.
type PrintTime struct {
	Num, Den PmwString
}

// NewMovement returns a Movement chained to previous (nil for the first
// movement in a file), with the thematic stave 0 always present per the
// "stave 0 always selected" invariant.
func NewMovement(number int, previous *Movement) *Movement {
	m := &Movement{
		Number:             number,
		FontSizes:          make(map[string]int),
		Midi:               make(map[int]MidiMapping),
		StaveSpacings:      make(map[int]StaveSpacing),
		PrintKeyOverrides:  make(map[printKeyKey]PmwString),
		PrintTimeOverrides: make(map[printKeyKey]PrintTime),
		CustomKeys:         make(map[string]Key),
		KeyTranspositions:  make(map[string]Key),
		TransposedKeys:     make(map[string]Key),
		Previous:           previous,
	}
	m.Staves[0] = NewStave(0)
	if previous != nil {
		m.FontSizes = copyIntMap(previous.FontSizes)
		m.Key = previous.Key
		m.Time = previous.Time
		m.BarlineStyle = previous.BarlineStyle
		m.Flags = previous.Flags
		m.Transpose = previous.Transpose
		m.StemSwapLevel = previous.StemSwapLevel
	}
	return m
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Stave returns the stave numbered n, allocating it (and registering it in
// the sparse table) if it doesn't exist yet.
func (m *Movement) Stave(n int) *Stave {
	if n < 0 || n > MaxStaves {
		return nil
	}
	if m.Staves[n] == nil {
		m.Staves[n] = NewStave(n)
	}
	return m.Staves[n]
}

// RegisterPrintKey records a printkey override effective from this
// movement onward.
func (m *Movement) RegisterPrintKey(name, clef string, text PmwString) {
	m.PrintKeyOverrides[printKeyKey{name, clef, m.Number}] = text
}

// LookupPrintKey finds the most recent printkey override for (name, clef)
// effective at or before movement m.Number, per "persist to later
// movements."
func (m *Movement) LookupPrintKey(name, clef string) (PmwString, bool) {
	var best PmwString
	bestFrom := -1
	for k, v := range m.PrintKeyOverrides {
		if k.Name == name && k.Clef == clef && k.EffectiveFrom <= m.Number && k.EffectiveFrom > bestFrom {
			best, bestFrom = v, k.EffectiveFrom
		}
	}
	return best, bestFrom >= 0
}

// RegisterPrintTime records a printtime override effective from this
// movement onward. The name key is the formatted time signature.
func (m *Movement) RegisterPrintTime(name string, pt PrintTime) {
	m.PrintTimeOverrides[printKeyKey{name, "", m.Number}] = pt
}

// LookupPrintTime finds the most recent printtime override for name
// effective at or before movement m.Number.
func (m *Movement) LookupPrintTime(name string) (PrintTime, bool) {
	var best PrintTime
	bestFrom := -1
	for k, v := range m.PrintTimeOverrides {
		if k.Name == name && k.EffectiveFrom <= m.Number && k.EffectiveFrom > bestFrom {
			best, bestFrom = v, k.EffectiveFrom
		}
	}
	return best, bestFrom >= 0
}
