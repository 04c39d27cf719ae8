// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

// SlurFlags are the boolean modifiers from a [slur/options] or
// [line/options] directive.
type SlurFlags uint32

const (
	SFLine         SlurFlags = 1 << iota // sflag_l -- straight line, not curved
	SFAbs                                // explicit y is absolute, not relative
	SFBelow                              // 'b'
	SFBelowUp                            // 'bu'
	SFAbove                              // explicit above placement
	SFAboveOverride                      // 'ao'
	SFWiggle                             // 'w'
	SFIntermittent                       // 'i' -- dashed
	SFIntermittentDotted                 // 'ip'
	SFEditorial                          // 'e' -- editorial (dashed small slur)
	SFOpenLeft                           // 'ol'
	SFOpenRight                          // 'or'
	SFHorizontal                         // 'h'
	SFExchangeEndpoints                  // 'cx'
)

// SlurMod holds the per-"split section" endpoint/curvature adjustments a
// slur or line may carry. Section 0 applies to unsplit slurs or the final
// section; sections >= 1 apply to each line-broken portion.
type SlurMod struct {
	Section int
	LeftUp, LeftDown, LeftLeft, LeftRight     int
	LeftCurve                                 int // 'llc'
	RightUp, RightDown, RightLeft, RightRight int
	RightCurve                                int // 'lrc'
	Curvature                                 int // 'c' -- curvature bias (co in geometry)
}

// Slur describes one slur or line (SFLine set) from [slur]/[line] to its
// matching [endslur]/[endline]. Identity, when present, is how a nested or
// reordered [endslur/=id] finds its match; when absent, the stave parser
// matches the most recently opened slur still active.
type Slur struct {
	Identity string // optional ASCII alphanumeric id, e.g. from [slur/=a]
	Flags    SlurFlags
	Mods     []SlurMod
	Gaps     []Gap
	Section  int // incremented each time a system break splits this slur
	StartX   int // x position (thousandths of a point) where the slur began
	StartY   int
	Closed   bool
}

// ModFor returns the modifier record for one split section, creating it
// on first use. The returned pointer is valid until the next ModFor call.
func (s *Slur) ModFor(section int) *SlurMod {
	for i := range s.Mods {
		if s.Mods[i].Section == section {
			return &s.Mods[i]
		}
	}
	s.Mods = append(s.Mods, SlurMod{Section: section})
	return &s.Mods[len(s.Mods)-1]
}

// Gap is a [slurgap]/[linegap] sub-event attached to the most recently
// opened slur/line.
type Gap struct {
	Width      int // thousandths of a point
	XOffset    int
	Fraction   float64 // fractional position hint along the slur/line, 0..1
	Text       string
	HasText    bool
	Box        bool // box the gap text
	Ring       bool // ring the gap text
	Draw       *DrawCall
	HalfwayPct float64 // the /h fraction, if present
}

// Hairpin describes a crescendo ('<') or decrescendo ('>') wedge.
type HairpinDirection int

const (
	Crescendo HairpinDirection = iota
	Decrescendo
)

type HairpinFlags uint32

const (
	HFAbsoluteY HairpinFlags = 1 << iota
	HFBelow
	HFMiddle
	HFAbove
	HFHalfway
	HFBar // /bar -- align end to the barline
	HFShortAtEndOfLine
)

type Hairpin struct {
	Direction  HairpinDirection
	Flags      HairpinFlags
	Y          int
	WidthOverride int
	LeftX, RightX int
	StartX        int // stashed when the hairpin opens
}

// Plet is a tuplet bracket: {N ...}.
type Plet struct {
	N, D         int // numerator/denominator override; 0 means "use N implicitly"
	Bracket      bool
	Above        bool
	AbsoluteY    bool
	XAdjust      int
	YAdjust      int
	NestingDepth int
}

// NBar is an n-th-time bar bracket.
type NBar struct {
	Number    int
	StartX    int
	MinY      int
	Active    bool
}

// StaveText is a `"..."` stave string with its trailing `/`-option set:
// placement, box/ring decoration, rotation and underlay/overlay mode.
type StaveText struct {
	Text        PmwString
	Above       bool
	AboveUp     bool
	Below       bool
	BelowUp     bool
	AbsoluteY   bool
	Y           int
	Align       string // "c", "cb", "e", "ts", "bar", or "" for default
	Box         bool
	RBox        bool
	Ring        bool
	Rotate      int // degrees
	Size        int // 0 means "use current font size"
	Halfway     bool
	FollowOn    bool
	Underlay    bool
	Overlay     bool
	FirstBar    bool // 'fb'
	FirstBarUp  bool // 'fbu'
	XOffset     int
}

// DrawCall references a user-defined draw subroutine (the stack-machine
// "draw" tree) plus its positional argument vector. The tree-node itself
// lives in the draw-function BalancedTree (internal/otree); the IR only
// stores the name and arguments so that bar events stay small and
// arena-friendly.
type DrawCall struct {
	FuncName string
	Args     []DrawArg
}

// DrawArg is one positional argument to a draw call: either a number or a
// PmwString.
type DrawArg struct {
	IsString bool
	Number   float64
	Str      PmwString
}
