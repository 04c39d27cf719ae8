// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package geometry computes the shapes the output stage draws: key and
// time signature widths, y clearance bounds around notes, slur and line
// Bezier curves with their gaps and dashes, hairpin wedges and n-th time
// bar brackets. All linear dimensions are thousandths of a typographic
// point; the layer talks to the page writer only through the Backend
// interface.
package geometry

import (
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/pmwstring"
	"github.com/ellisgrant/pmw/internal/strfmt"
)

// Backend is the pluggable output surface. The PostScript and PDF
// writers (outside this core) implement it; tests use NullBackend.
type Backend interface {
	Line(x0, y0, x1, y1, thickness int)
	Lines(points [][2]int, thickness int)
	Path(points [][2]int, close bool)
	AbsPath(points [][2]int)
	Beam(x0, y0, x1, y1, depth int)
	Brace(x, y0, y1 int)
	Bracket(x, y0, y1 int)
	Slur(controls [4]Point, thickness float64)
	MusString(s pmwstring.String, x, y int)
	String(s pmwstring.String, x, y int)
	MusChar(code uint32, x, y int)
	StartBar(number uint32)
	Stave(x, y, length, nlines int)
	SetDash(dash, gap float64)
	SetColour(r, g, b float64)
	SetGray(level float64)
	SetCapAndJoin(cap, join int)
	Translate(dx, dy int)
	Rotate(degrees float64)
	GSave()
	GRestore()
}

// NullBackend discards every drawing call; tests and the CLI's parse-only
// mode use it.
type NullBackend struct{}

func (NullBackend) Line(x0, y0, x1, y1, thickness int)        {}
func (NullBackend) Lines(points [][2]int, thickness int)      {}
func (NullBackend) Path(points [][2]int, close bool)          {}
func (NullBackend) AbsPath(points [][2]int)                   {}
func (NullBackend) Beam(x0, y0, x1, y1, depth int)            {}
func (NullBackend) Brace(x, y0, y1 int)                       {}
func (NullBackend) Bracket(x, y0, y1 int)                     {}
func (NullBackend) Slur(controls [4]Point, thickness float64) {}
func (NullBackend) MusString(s pmwstring.String, x, y int)    {}
func (NullBackend) String(s pmwstring.String, x, y int)       {}
func (NullBackend) MusChar(code uint32, x, y int)             {}
func (NullBackend) StartBar(number uint32)                    {}
func (NullBackend) Stave(x, y, length, nlines int)            {}
func (NullBackend) SetDash(dash, gap float64)                 {}
func (NullBackend) SetColour(r, g, b float64)                 {}
func (NullBackend) SetGray(level float64)                     {}
func (NullBackend) SetCapAndJoin(cap, join int)               {}
func (NullBackend) Translate(dx, dy int)                      {}
func (NullBackend) Rotate(degrees float64)                    {}
func (NullBackend) GSave()                                    {}
func (NullBackend) GRestore()                                 {}

// Metrics is the font-metrics collaborator: a queryable service for the
// widths geometry needs. It is specified here at its interface only.
type Metrics interface {
	// StringWidth measures a PmwString in the current music/text sizes.
	StringWidth(s pmwstring.String) int
	// AccidentalWidth gives the engraved width of one accidental glyph.
	AccidentalWidth(a ir.Accidental) int
	// DigitWidth gives the width of one time-signature digit.
	DigitWidth() int
}

// StdMetrics is the default metrics table used when no font service is
// wired in: conventional widths for a 10pt rastrum.
type StdMetrics struct{}

// accWidths follows the movement's accspacing defaults.
var accWidths = map[ir.Accidental]int{
	ir.AccNone:        0,
	ir.AccNatural:     6000,
	ir.AccHalfSharp:   4500,
	ir.AccSharp:       8250,
	ir.AccDoubleSharp: 11000,
	ir.AccHalfFlat:    4500,
	ir.AccFlat:        5000,
	ir.AccDoubleFlat:  9000,
}

func (StdMetrics) StringWidth(s pmwstring.String) int {
	w := 0
	for range s {
		w += 6000
	}
	return w
}

func (StdMetrics) AccidentalWidth(a ir.Accidental) int { return accWidths[a] }
func (StdMetrics) DigitWidth() int                     { return 7200 }

// fixedTimeLetterWidth is the width of the C and A (common/cut) symbols.
const fixedTimeLetterWidth = 10000

// KeyWidth returns the engraved width of a key signature under the named
// clef: a printkey override's string width when one is registered for
// this movement or an earlier one, otherwise the sum of the accidental
// widths, substituting the narrow Egyptian half-sharp variant when the
// stave allows half accidentals.
func KeyWidth(m *ir.Movement, k ir.Key, clef string, met Metrics, egyptianHalves bool) int {
	if s, ok := m.LookupPrintKey(k.Name, clef); ok {
		return met.StringWidth(s)
	}
	w := 0
	for _, row := range k.Rows {
		a := row.Accidental
		if egyptianHalves && (a == ir.AccHalfSharp || a == ir.AccHalfFlat) {
			// The Egyptian-style glyph is a single-stem sharp: narrower.
			w += met.AccidentalWidth(ir.AccHalfSharp)
			continue
		}
		w += met.AccidentalWidth(a)
	}
	return w
}

// TimeWidth returns the engraved width of a time signature: a printtime
// override's wider string when registered, the fixed symbol width for
// common/cut, or the width of the longer digit row. A zero return means
// time signatures are not being displayed.
func TimeWidth(m *ir.Movement, ts ir.TimeSig, met Metrics, display bool) int {
	if !display {
		return 0
	}
	name := strfmt.TimeSig(ts.Multiplier, ts.Numerator, ts.Denominator)
	if pt, ok := m.LookupPrintTime(name); ok {
		nw := met.StringWidth(pt.Num)
		dw := met.StringWidth(pt.Den)
		if dw > nw {
			return dw
		}
		return nw
	}
	if ts.Common || ts.Cut {
		return fixedTimeLetterWidth
	}
	num := digitCount(ts.Numerator * ts.Multiplier)
	den := digitCount(ts.Denominator)
	n := num
	if den > n {
		n = den
	}
	return n * met.DigitWidth()
}

func digitCount(n int) int {
	if n < 0 {
		n = -n
	}
	count := 1
	for n >= 10 {
		n /= 10
		count++
	}
	return count
}

// Clearance tables for YBound, in thousandths of a point relative to the
// notehead centre.
const (
	stemLength     = 14000 // a conventional 3.5-space stem
	tieClearance   = 5000
	accentInside   = 4000
	accentOutside  = 6000
	dynamicsExtra  = 8000
	headHalfHeight = 2000
)

// YBound returns the stave-relative y limit for slur/tie clearance above
// (below=false) or below (below=true) a note: positive y is upward. The
// bound accounts for stem direction and length, accidental overhang, a
// tie already present, and accent clearance with the dynamics variant
// adding extra room.
func YBound(n *ir.Note, below, tie, withDynamics bool) int {
	y := n.Spitch * 1000 // quarter-line units to thousandths at 4pt line spacing

	stemUp := n.Flags&ir.NFStemUp != 0
	if n.Flags&ir.NFStemForce == 0 {
		// Default stem direction: up below the middle line.
		stemUp = n.Spitch < 0
	}
	stem := stemLength + n.YExtra

	if below {
		limit := y - headHalfHeight
		if !stemUp && !n.IsRest {
			limit = y - stem
		}
		if n.Accidental != ir.AccNone {
			// Accidentals hang below the head on the left.
			if a := y - accHang(n.Accidental); a < limit {
				limit = a
			}
		}
		if tie {
			limit -= tieClearance
		}
		if n.Accents != 0 {
			limit -= accentClearance(n.Accents)
		}
		if withDynamics {
			limit -= dynamicsExtra
		}
		return limit
	}
	limit := y + headHalfHeight
	if stemUp && !n.IsRest {
		limit = y + stem
	}
	if n.Accidental != ir.AccNone {
		if a := y + accRise(n.Accidental); a > limit {
			limit = a
		}
	}
	if tie {
		limit += tieClearance
	}
	if n.Accents != 0 {
		limit += accentClearance(n.Accents)
	}
	if withDynamics {
		limit += dynamicsExtra
	}
	return limit
}

// accRise and accHang are the accuptab/accdowntab equivalents: how far an
// accidental glyph extends above and below the notehead centre.
func accRise(a ir.Accidental) int {
	switch a {
	case ir.AccSharp, ir.AccDoubleSharp, ir.AccHalfSharp:
		return 6000
	case ir.AccNatural:
		return 5500
	default:
		return 5000
	}
}

func accHang(a ir.Accidental) int {
	switch a {
	case ir.AccFlat, ir.AccDoubleFlat, ir.AccHalfFlat:
		return 2500
	default:
		return 5000
	}
}

// accentClearance distinguishes accents drawn inside the stave (staccato,
// tenuto) from those drawn outside (everything else).
func accentClearance(acc ir.AccentFlags) int {
	inside := acc&(ir.AccStaccato|ir.AccTenuto) != 0 &&
		acc&^(ir.AccStaccato|ir.AccTenuto) == 0
	if inside {
		return accentInside
	}
	return accentOutside
}

// HairpinShape is the resolved geometry of one wedge.
type HairpinShape struct {
	X0, X1       int
	Y            int
	OpenLeft     bool // decrescendo: wide end at the left
	HalfOpen     bool // continuation marker at a system break
	OpeningDepth int
}

// defaultHairpinDepth is the full opening width of a wedge.
const defaultHairpinDepth = 7000

// HairpinGeometry resolves a hairpin's drawing parameters from its start
// and end x positions and the extreme note bounds of its span. middleGap
// constrains the middle-staff variant to the next stave's spacing;
// continuation marks the wedge as split at a system break.
func HairpinGeometry(h *ir.Hairpin, x0, x1, minY, maxY int, middleGap int, continuation bool) HairpinShape {
	shape := HairpinShape{
		X0:           x0 + h.LeftX,
		X1:           x1 + h.RightX,
		OpenLeft:     h.Direction == ir.Decrescendo,
		HalfOpen:     continuation,
		OpeningDepth: defaultHairpinDepth,
	}
	if h.WidthOverride != 0 {
		shape.OpeningDepth = h.WidthOverride
	}
	switch {
	case h.Flags&ir.HFAbsoluteY != 0:
		shape.Y = h.Y
	case h.Flags&ir.HFMiddle != 0:
		gap := middleGap
		if gap == 0 {
			gap = 44000
		}
		shape.Y = -gap / 2
	case h.Flags&ir.HFAbove != 0:
		shape.Y = maxY + dynamicsExtra
	default:
		shape.Y = minY - dynamicsExtra
	}
	if h.Flags&ir.HFHalfway != 0 {
		shape.X0 = shape.X0 + (shape.X1-shape.X0)/2
	}
	if shape.X1 < shape.X0 {
		shape.X1 = shape.X0
	}
	return shape
}

// NBarBracket is the drawn form of one n-th time marking: a horizontal
// bracket with a number label.
type NBarBracket struct {
	X0, X1 int
	Y      int
	Label  string
	Open   bool // no right-hand jog: the marking continues
}

// nbarClearance is the rise above the accumulated top of the bars the
// bracket spans.
const nbarClearance = 4000

// NBarGeometry lays out one n-th time bracket ending at endX. The
// marking's accumulated minimum y (the top of everything under it) sets
// the bracket height.
func NBarGeometry(nb *ir.NBar, endX int, label string) NBarBracket {
	y := nb.MinY + nbarClearance
	if y < 16000 {
		y = 16000 // never dip into the stave
	}
	return NBarBracket{
		X0:    nb.StartX,
		X1:    endX,
		Y:     y,
		Label: label,
		Open:  nb.Active,
	}
}
