// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package geometry

import (
	"math"
	"testing"

	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/pmwstring"
)

func TestKeyWidthSumsAccidentals(t *testing.T) {
	m := ir.NewMovement(1, nil)
	k := ir.MakeMajorKey("d", 2, false) // two sharps
	met := StdMetrics{}
	got := KeyWidth(m, k, "treble", met, false)
	want := 2 * met.AccidentalWidth(ir.AccSharp)
	if got != want {
		t.Errorf("KeyWidth = %d, want %d", got, want)
	}
	// Pure function of its inputs: asking twice gives the same answer.
	if again := KeyWidth(m, k, "treble", met, false); again != got {
		t.Errorf("KeyWidth not stable: %d then %d", got, again)
	}
}

func TestKeyWidthUsesPrintKeyOverride(t *testing.T) {
	m := ir.NewMovement(1, nil)
	k := ir.MakeMajorKey("g", 1, false)
	override := pmwstring.String{}.Append(pmwstring.FontMusic, 0x10)
	m.RegisterPrintKey("g", "treble", override)
	met := StdMetrics{}
	got := KeyWidth(m, k, "treble", met, false)
	if got != met.StringWidth(override) {
		t.Errorf("KeyWidth = %d, want the override string width %d", got, met.StringWidth(override))
	}
	// A different clef still uses the accidental table.
	if w := KeyWidth(m, k, "bass", met, false); w != met.AccidentalWidth(ir.AccSharp) {
		t.Errorf("bass-clef KeyWidth = %d, want %d", w, met.AccidentalWidth(ir.AccSharp))
	}
}

func TestTimeWidth(t *testing.T) {
	m := ir.NewMovement(1, nil)
	met := StdMetrics{}
	ts := ir.TimeSig{Multiplier: 1, Numerator: 3, Denominator: 4}
	if got := TimeWidth(m, ts, met, true); got != met.DigitWidth() {
		t.Errorf("3/4 width = %d, want one digit %d", got, met.DigitWidth())
	}
	twelve := ir.TimeSig{Multiplier: 1, Numerator: 12, Denominator: 8}
	if got := TimeWidth(m, twelve, met, true); got != 2*met.DigitWidth() {
		t.Errorf("12/8 width = %d, want two digits", got)
	}
	common := ir.TimeSig{Multiplier: 1, Numerator: 4, Denominator: 4, Common: true}
	if got := TimeWidth(m, common, met, true); got != fixedTimeLetterWidth {
		t.Errorf("common-time width = %d, want %d", got, fixedTimeLetterWidth)
	}
	if got := TimeWidth(m, ts, met, false); got != 0 {
		t.Errorf("display-off width = %d, want 0", got)
	}
}

func TestTimeSignatureBarLengthBoundary(t *testing.T) {
	ts := ir.TimeSig{Multiplier: 1, Numerator: 1, Denominator: 64}
	if got, want := ts.BarLength(), ir.LenSemibreve/64; got != want {
		t.Errorf("1*1/64 bar length = %d, want %d", got, want)
	}
}

func TestYBoundStemDirections(t *testing.T) {
	up := &ir.Note{Spitch: -4, Flags: ir.NFStemUp | ir.NFStemForce}
	above := YBound(up, false, false, false)
	if above <= up.Spitch*1000 {
		t.Errorf("above bound %d should clear the stem", above)
	}
	below := YBound(up, true, false, false)
	if below >= up.Spitch*1000 {
		t.Errorf("below bound %d should clear the head", below)
	}
	if tied := YBound(up, true, true, false); tied >= below {
		t.Error("a tie should push the below bound further down")
	}
	if dyn := YBound(up, true, false, true); dyn >= below {
		t.Error("dynamics should push the below bound further down")
	}
}

func TestSlurControlsEndpointsExact(t *testing.T) {
	c := SlurControls(0, 0, 60, 4, 0, 0)
	if c[0] != (Point{0, 0}) || c[3] != (Point{60, 4}) {
		t.Errorf("slur endpoints moved: %v %v", c[0], c[3])
	}
	// The curve bulges upward for a default (above) slur.
	mid := BezierPoint(c, 0.5)
	chordMidY := 2.0
	if mid.Y <= chordMidY {
		t.Errorf("midpoint %v should lie above the chord", mid)
	}
	belowC := SlurControls(0, 0, 60, 4, ir.SFBelow, 0)
	if BezierPoint(belowC, 0.5).Y >= chordMidY {
		t.Error("a below slur should bulge downward")
	}
}

func TestSlurControlsRounding(t *testing.T) {
	c := SlurControls(0.12345, 0.9999, 61.11111, 3.14159, 0, 0.7)
	for i, p := range c {
		if p.X != Round3(p.X) || p.Y != Round3(p.Y) {
			t.Errorf("control %d not rounded to 3 decimals: %v", i, p)
		}
	}
}

func TestTForXFractionRoundTrip(t *testing.T) {
	c := SlurControls(0, 0, 80, 10, 0, 0)
	for _, frac := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		tv := TForXFraction(c, frac)
		p := BezierPoint(c, tv)
		gotFrac := (p.X - c[0].X) / (c[3].X - c[0].X)
		if math.Abs(gotFrac-frac) > 0.002 {
			t.Errorf("frac %v -> t %v -> frac %v", frac, tv, gotFrac)
		}
	}
	if TForXFraction(c, 0) != 0 || TForXFraction(c, 1) != 1 {
		t.Error("t at the extremes should clamp to 0 and 1")
	}
}

func TestSubdivideMatchesFullCurve(t *testing.T) {
	c := SlurControls(0, 0, 100, 0, 0, 0)
	part := Subdivide(c, 0.25, 0.75)
	// The sub-curve's endpoints lie on the full curve.
	for _, pair := range [][2]Point{
		{part[0], BezierPoint(c, 0.25)},
		{part[3], BezierPoint(c, 0.75)},
	} {
		if math.Abs(pair[0].X-Round3(pair[1].X)) > 0.002 ||
			math.Abs(pair[0].Y-Round3(pair[1].Y)) > 0.002 {
			t.Errorf("sub-curve endpoint %v not on full curve (%v)", pair[0], pair[1])
		}
	}
}

func TestArcLengthStraightLine(t *testing.T) {
	line := [4]Point{{0, 0}, {10, 0}, {20, 0}, {30, 0}}
	if got := ArcLength(line); math.Abs(got-30) > 0.01 {
		t.Errorf("straight-line arc length = %v, want 30", got)
	}
}

func TestDashPatternTilesExactly(t *testing.T) {
	dash, gap, count := DashPattern(100, 3, 2)
	if count < 1 {
		t.Fatal("no dashes")
	}
	total := float64(count)*dash + float64(count-1)*gap
	if math.Abs(total-100) > 0.05 {
		t.Errorf("dashes tile %v of 100", total)
	}
}

func TestGapSegments(t *testing.T) {
	c := SlurControls(0, 0, 100, 0, 0, 0)
	gaps := []ir.Gap{{Width: 10000, HalfwayPct: 0.5}}
	segs := GapSegments(c, gaps)
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2 around one gap", len(segs))
	}
	if segs[0].T0 != 0 || segs[1].T1 != 1 {
		t.Errorf("outer segment ends should touch the curve ends: %v", segs)
	}
	if segs[0].T1 >= segs[1].T0 {
		t.Errorf("segments overlap: %v", segs)
	}
}

func TestGapAnchorOnFlatCurveIsHorizontal(t *testing.T) {
	line := [4]Point{{0, 0}, {10, 0}, {20, 0}, {30, 0}}
	mid, angle := GapAnchor(line, 0.4, 0.6)
	if math.Abs(mid.Y) > 0.001 {
		t.Errorf("mid %v should sit on the line", mid)
	}
	if math.Abs(angle) > 0.01 {
		t.Errorf("angle = %v, want 0", angle)
	}
}

func TestHairpinGeometry(t *testing.T) {
	h := &ir.Hairpin{Direction: ir.Crescendo}
	shape := HairpinGeometry(h, 1000, 50000, -8000, 8000, 0, false)
	if shape.OpenLeft {
		t.Error("a crescendo opens to the right")
	}
	if shape.X0 != 1000 || shape.X1 != 50000 {
		t.Errorf("span = %d..%d", shape.X0, shape.X1)
	}
	if shape.Y >= -8000 {
		t.Errorf("below placement y = %d should clear the lowest note", shape.Y)
	}

	abs := &ir.Hairpin{Direction: ir.Decrescendo, Flags: ir.HFAbsoluteY, Y: -20000}
	shape = HairpinGeometry(abs, 0, 10000, 0, 0, 0, false)
	if !shape.OpenLeft || shape.Y != -20000 {
		t.Errorf("absolute-y decrescendo shape = %+v", shape)
	}

	half := &ir.Hairpin{Direction: ir.Crescendo, Flags: ir.HFHalfway}
	shape = HairpinGeometry(half, 0, 10000, 0, 0, 0, false)
	if shape.X0 != 5000 {
		t.Errorf("halfway X0 = %d, want 5000", shape.X0)
	}
}

func TestNBarGeometry(t *testing.T) {
	nb := &ir.NBar{Number: 1, StartX: 2000, MinY: 20000}
	b := NBarGeometry(nb, 90000, "1")
	if b.X0 != 2000 || b.X1 != 90000 {
		t.Errorf("bracket span = %d..%d", b.X0, b.X1)
	}
	if b.Y < 20000 {
		t.Errorf("bracket y = %d should clear the accumulated top", b.Y)
	}
	if b.Label != "1" {
		t.Errorf("label = %q", b.Label)
	}
}
