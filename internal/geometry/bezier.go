// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package geometry

import (
	"math"

	"github.com/ellisgrant/pmw/internal/ir"
)

// Point is one coordinate pair in floating-point points. Every value that
// leaves this file is rounded to three decimal places so that golden-file
// output is identical across platforms.
type Point struct {
	X, Y float64
}

// Round3 applies the module-wide intermediate rounding policy.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round3Point(p Point) Point {
	return Point{Round3(p.X), Round3(p.Y)}
}

// slur depth parameters, in points.
const (
	baseDepth    = 5.0
	depthPerUnit = 0.1  // extra depth per point of slur length
	maxDepth     = 10.0 // before the curvature bias is applied
	wiggleFactor = 0.4
)

// SlurControls computes the four Bezier control points for a slur from
// (x0,y0) to (x1,y1), working in a frame rotated so the endpoints are
// horizontal and mapping back afterwards. co is the curvature bias from
// the slur's `c` modifier (points, positive deepens); below selects the
// curve's bulge direction.
func SlurControls(x0, y0, x1, y1 float64, flags ir.SlurFlags, co float64) [4]Point {
	dx := x1 - x0
	dy := y1 - y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		length = 1
	}
	cos := dx / length
	sin := dy / length

	depth := baseDepth + depthPerUnit*length
	if depth > maxDepth {
		depth = maxDepth
	}
	depth += co
	below := flags&(ir.SFBelow|ir.SFBelowUp) != 0
	if below {
		depth = -depth
	}
	if flags&ir.SFHorizontal != 0 {
		sin = 0
		cos = 1
	}

	// Control points in the rotated frame: one third in from each end.
	cx0, cy0 := length/3, depth*1.3333
	cx1, cy1 := length*2/3, depth*1.3333
	if flags&ir.SFWiggle != 0 {
		cy1 = -cy1 * wiggleFactor
	}

	mapBack := func(x, y float64) Point {
		return round3Point(Point{
			X: x0 + x*cos - y*sin,
			Y: y0 + x*sin + y*cos,
		})
	}
	return [4]Point{
		round3Point(Point{x0, y0}),
		mapBack(cx0, cy0),
		mapBack(cx1, cy1),
		round3Point(Point{x1, y1}),
	}
}

// BezierPoint evaluates the cubic at parameter t.
func BezierPoint(c [4]Point, t float64) Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Point{
		X: b0*c[0].X + b1*c[1].X + b2*c[2].X + b3*c[3].X,
		Y: b0*c[0].Y + b1*c[1].Y + b2*c[2].Y + b3*c[3].Y,
	}
}

// TForXFraction finds the Bezier parameter t whose point lies at the
// given fraction of the straight-line x span, by iterative bisection: t
// and the x fraction are not linearly related on a cubic.
func TForXFraction(c [4]Point, frac float64) float64 {
	if frac <= 0 {
		return 0
	}
	if frac >= 1 {
		return 1
	}
	targetX := c[0].X + (c[3].X-c[0].X)*frac
	lo, hi := 0.0, 1.0
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if BezierPoint(c, mid).X < targetX {
			lo = mid
		} else {
			hi = mid
		}
	}
	return Round3((lo + hi) / 2)
}

// arcSamples is the fixed sample count for numerical arc-length
// integration; changing it changes golden output.
const arcSamples = 20

// ArcLength integrates the cubic's length by 20-step sampling.
func ArcLength(c [4]Point) float64 {
	total := 0.0
	prev := BezierPoint(c, 0)
	for i := 1; i <= arcSamples; i++ {
		t := float64(i) / arcSamples
		p := BezierPoint(c, t)
		total += math.Hypot(p.X-prev.X, p.Y-prev.Y)
		prev = p
	}
	return Round3(total)
}

// Subdivide returns the control points of the curve restricted to
// [t0, t1], by two de Casteljau splits. A partial dashed slur drawn with
// these controls meets the full curve exactly at t0 and t1.
func Subdivide(c [4]Point, t0, t1 float64) [4]Point {
	if t0 > 0 {
		_, c = splitAt(c, t0)
		if t1 < 1 {
			t1 = (t1 - t0) / (1 - t0)
		}
	}
	if t1 < 1 {
		c, _ = splitAt(c, t1)
	}
	for i := range c {
		c[i] = round3Point(c[i])
	}
	return c
}

func splitAt(c [4]Point, t float64) (left, right [4]Point) {
	lerp := func(a, b Point) Point {
		return Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
	}
	p01 := lerp(c[0], c[1])
	p12 := lerp(c[1], c[2])
	p23 := lerp(c[2], c[3])
	p012 := lerp(p01, p12)
	p123 := lerp(p12, p23)
	mid := lerp(p012, p123)
	left = [4]Point{c[0], p01, p012, mid}
	right = [4]Point{mid, p123, p23, c[3]}
	return
}

// DashPattern selects a dash length and count that fit arcLength exactly:
// the drawn dashes and gaps tile the curve with no partial dash at the
// end.
func DashPattern(arcLength, prefDash, prefGap float64) (dash, gap float64, count int) {
	if arcLength <= 0 || prefDash <= 0 {
		return 0, 0, 0
	}
	period := prefDash + prefGap
	count = int(math.Round((arcLength + prefGap) / period))
	if count < 1 {
		count = 1
	}
	scale := arcLength / (float64(count)*period - prefGap)
	return Round3(prefDash * scale), Round3(prefGap * scale), count
}

// GapSegment is one drawn portion of a gapped slur or line, as start/stop
// Bezier parameters.
type GapSegment struct {
	T0, T1 float64
}

// GapSegments visits a slur's gaps left to right and returns the t ranges
// to draw between them. Each gap's position comes from its fractional
// hint (or halfway default) adjusted by its x offset; its extent is the
// gap width centred on that position.
func GapSegments(c [4]Point, gaps []ir.Gap) []GapSegment {
	type cut struct{ lo, hi float64 }
	span := c[3].X - c[0].X
	if span == 0 {
		span = 1
	}
	var cuts []cut
	for _, g := range gaps {
		frac := g.Fraction
		if frac == 0 {
			if g.HalfwayPct != 0 {
				frac = g.HalfwayPct
			} else {
				frac = 0.5
			}
		}
		frac += float64(g.XOffset) / 1000 / span
		half := float64(g.Width) / 1000 / span / 2
		if half == 0 {
			half = 0.05
		}
		lo, hi := frac-half, frac+half
		if lo < 0 {
			lo = 0
		}
		if hi > 1 {
			hi = 1
		}
		cuts = append(cuts, cut{lo, hi})
	}
	// Gaps arrive in source order; sort left to right.
	for i := 1; i < len(cuts); i++ {
		for j := i; j > 0 && cuts[j].lo < cuts[j-1].lo; j-- {
			cuts[j], cuts[j-1] = cuts[j-1], cuts[j]
		}
	}
	var segs []GapSegment
	pos := 0.0
	for _, ct := range cuts {
		t0 := TForXFraction(c, pos)
		t1 := TForXFraction(c, ct.lo)
		if t1 > t0 {
			segs = append(segs, GapSegment{t0, t1})
		}
		pos = ct.hi
	}
	if pos < 1 {
		segs = append(segs, GapSegment{TForXFraction(c, pos), 1})
	}
	return segs
}

// GapAnchor returns the mid-point and tangent angle (degrees) of a gap
// between parameters t0 and t1, where gap text and draw attachments are
// positioned; text is rotated with the line slope.
func GapAnchor(c [4]Point, t0, t1 float64) (mid Point, angleDeg float64) {
	tm := (t0 + t1) / 2
	mid = round3Point(BezierPoint(c, tm))
	const h = 0.001
	a := BezierPoint(c, math.Max(0, tm-h))
	b := BezierPoint(c, math.Min(1, tm+h))
	angleDeg = Round3(math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi)
	return
}

// EndlineSlurStyle selects how a slur continued across a line break is
// drawn: style 0 truncates the full curve at the break; any other style
// draws each half as half of an enlarged curve.
func EndlineSlurStyle(style int, c [4]Point, firstHalf bool) [4]Point {
	if style == 0 {
		if firstHalf {
			return Subdivide(c, 0, 0.5)
		}
		return Subdivide(c, 0.5, 1)
	}
	// Enlarged-curve style: widen the control polygon by a third, then
	// take the matching half.
	wide := c
	for i := 1; i <= 2; i++ {
		wide[i].Y = Round3(c[i].Y * 1.3333)
	}
	if firstHalf {
		return Subdivide(wide, 0, 0.5)
	}
	return Subdivide(wide, 0.5, 1)
}
