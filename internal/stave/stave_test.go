// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stave

import (
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/header"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/transpose"
)

// parseSource runs the whole front end over src with an optional
// quarter-tone transposition.
func parseSource(t *testing.T, src string, quarterTones int) (*header.Context, *errsink.Sink) {
	t.Helper()
	sink := errsink.NewSink()
	lx := lexer.New("test.pmw", strings.NewReader(src), nil)
	ctx := header.NewContext(lx, sink)
	if quarterTones != 0 {
		tr, err := transpose.New(quarterTones, map[string]ir.Key{})
		if err != nil {
			t.Fatal(err)
		}
		ctx.Transposer = tr
	}
	ParseDocument(ctx)
	return ctx, sink
}

// notesOf collects the note events of one bar.
func notesOf(b *ir.Bar) []*ir.Note {
	var out []*ir.Note
	for _, ev := range b.Events {
		if ev.Kind == ir.EvNote || ev.Kind == ir.EvChordNote || ev.Kind == ir.EvRest {
			out = append(out, ev.Note)
		}
	}
	return out
}

func TestSimpleStave(t *testing.T) {
	ctx, _ := parseSource(t, "[stave 1 treble]\nc- d- e- f- | g' a' b' c' |\n[endstave]\n", 0)
	if len(ctx.Doc.Movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(ctx.Doc.Movements))
	}
	st := ctx.Doc.Movements[0].Staves[1]
	if st == nil {
		t.Fatal("stave 1 missing")
	}
	if st.Continuation.Clef.Name != "treble" {
		t.Errorf("clef = %q, want treble", st.Continuation.Clef.Name)
	}
	if len(st.Bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(st.Bars))
	}
	bar1 := notesOf(&st.Bars[0])
	if len(bar1) != 4 {
		t.Fatalf("bar 1 notes = %d, want 4", len(bar1))
	}
	wantLetters := []int{0, 1, 2, 3} // C D E F
	for i, n := range bar1 {
		if n.Pitch.Letter != wantLetters[i] {
			t.Errorf("bar 1 note %d letter = %d, want %d", i, n.Pitch.Letter, wantLetters[i])
		}
		if n.Type != ir.NTQuaver {
			t.Errorf("bar 1 note %d type = %v, want quaver", i, n.Type)
		}
		if n.Pitch.Octave != 4 {
			t.Errorf("bar 1 note %d octave = %d, want 4", i, n.Pitch.Octave)
		}
	}
	bar2 := notesOf(&st.Bars[1])
	if len(bar2) != 4 {
		t.Fatalf("bar 2 notes = %d, want 4", len(bar2))
	}
	for i, n := range bar2 {
		// The bare letters repeat the previous note's quaver length.
		if n.Type != ir.NTQuaver {
			t.Errorf("bar 2 note %d type = %v, want quaver", i, n.Type)
		}
		if n.Pitch.Octave != 5 {
			t.Errorf("bar 2 note %d octave = %d, want 5", i, n.Pitch.Octave)
		}
	}
}

func TestMacroExpandedStave(t *testing.T) {
	src := "*define q() c- d- e- f-\n[stave 1]\n&q() | &q() |\n[endstave]\n"
	ctx, _ := parseSource(t, src, 0)
	st := ctx.Doc.Movements[0].Staves[1]
	if st == nil {
		t.Fatal("stave 1 missing")
	}
	if len(st.Bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(st.Bars))
	}
	first := notesOf(&st.Bars[0])
	second := notesOf(&st.Bars[1])
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("notes per bar = %d/%d, want 4/4", len(first), len(second))
	}
	for i := range first {
		if diff := deep.Equal(first[i].Pitch, second[i].Pitch); diff != nil {
			t.Errorf("bar 2 differs from bar 1 at note %d: %v", i, diff)
		}
	}
}

func TestTransposedNote(t *testing.T) {
	// -t 2 semitones: a written c sounds and is displayed as d.
	ctx, _ := parseSource(t, "[stave 1] c | [endstave]\n", 2*ir.QuarterTonesPerSemitone)
	st := ctx.Doc.Movements[0].Staves[1]
	notes := notesOf(&st.Bars[0])
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	n := notes[0]
	d := ir.Pitch{Letter: 1, Octave: 4}
	if n.AbsPitch != d.AbsPitch() {
		t.Errorf("abspitch = %d, want %d (D)", n.AbsPitch, d.AbsPitch())
	}
	if n.Spitch != d.Spitch(ir.Clefs["treble"]) {
		t.Errorf("spitch = %d, want D position", n.Spitch)
	}
	if n.Accidental != ir.AccNone {
		t.Errorf("accidental = %v, want none", n.Accidental)
	}
}

func TestKeySignatureAppliesToNotes(t *testing.T) {
	// Key G: an unmarked f carries no written accidental but sounds F#.
	ctx, _ := parseSource(t, "key G\n[stave 1] f | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	if st.Continuation.BarAccidentals[3] != ir.AccSharp {
		t.Errorf("bar accidental memory for F = %v, want sharp", st.Continuation.BarAccidentals[3])
	}
	notes := notesOf(&st.Bars[0])
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	n := notes[0]
	if n.Accidental != ir.AccNone {
		t.Errorf("written accidental = %v, want none", n.Accidental)
	}
	fsharp := ir.Pitch{Letter: 3, Accidental: ir.AccSharp, Octave: 4}
	if n.AbsPitch != fsharp.AbsPitch() {
		t.Errorf("abspitch = %d, want %d (F#)", n.AbsPitch, fsharp.AbsPitch())
	}
}

func TestSlurWithGapAndText(t *testing.T) {
	src := "[stave 1]\n[slur/=a] c d e f [slurgap/=a/\"rit.\"/w6] g a [endslur/=a]\n[endstave]\n"
	ctx, _ := parseSource(t, src, 0)
	st := ctx.Doc.Movements[0].Staves[1]
	var slurs []*ir.Slur
	for _, b := range st.Bars {
		for _, ev := range b.Events {
			if ev.Kind == ir.EvSlurStart {
				slurs = append(slurs, ev.Slur)
			}
		}
	}
	if len(slurs) != 1 {
		t.Fatalf("slurs = %d, want 1", len(slurs))
	}
	s := slurs[0]
	if s.Identity != "a" {
		t.Errorf("identity = %q, want a", s.Identity)
	}
	if !s.Closed {
		t.Error("slur should be closed by [endslur/=a]")
	}
	if len(s.Gaps) != 1 {
		t.Fatalf("gaps = %d, want 1", len(s.Gaps))
	}
	g := s.Gaps[0]
	if !g.HasText || g.Text != "rit." {
		t.Errorf("gap text = %q (has=%v), want rit.", g.Text, g.HasText)
	}
	if g.Width != 6000 {
		t.Errorf("gap width = %d, want 6000", g.Width)
	}
	if len(st.Continuation.ActiveSlurs) != 0 {
		t.Errorf("active slurs after endslur = %d, want 0", len(st.Continuation.ActiveSlurs))
	}
}

func TestUnsupportedKeyFallsBackToC(t *testing.T) {
	ctx, sink := parseSource(t, "key B#\n[stave 1] c | [endstave]\n", 0)
	found := false
	for _, d := range sink.Diagnostics() {
		if d.ID == errsink.ErrUnsupportedKey && d.Severity == errsink.Major {
			found = true
		}
	}
	if !found {
		t.Error("key B# should report a major unsupported-key diagnostic")
	}
	if !sink.OutputSuppressed() {
		t.Error("a major diagnostic should suppress output")
	}
	if got := ctx.Doc.Movements[0].Key.Name; got != "c" {
		t.Errorf("key after fallback = %q, want c", got)
	}
}

func TestChordSharesLength(t *testing.T) {
	ctx, _ := parseSource(t, "[stave 1] (ceg) | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	bar := st.Bars[0]
	var head *ir.Note
	members := 0
	for _, ev := range bar.Events {
		switch ev.Kind {
		case ir.EvNote:
			head = ev.Note
		case ir.EvChordNote:
			members++
			if ev.Note.Flags&ir.NFChord == 0 {
				t.Error("chord member missing the chord flag")
			}
			if ev.Note.Type != head.Type {
				t.Error("chord member note type differs from head")
			}
		}
	}
	if head == nil || members != 2 {
		t.Fatalf("chord head=%v members=%d, want head plus 2 members", head != nil, members)
	}
	// One crotchet of length in total, not three.
	if bar.Length != ir.NTCrotchet.Length(0) {
		t.Errorf("bar length = %d, want one crotchet", bar.Length)
	}
}

func TestRestInChordRejected(t *testing.T) {
	_, sink := parseSource(t, "[stave 1] (c r) | [endstave]\n", 0)
	found := false
	for _, d := range sink.Diagnostics() {
		if d.ID == errsink.ErrRestInChord {
			found = true
		}
	}
	if !found {
		t.Error("a rest inside a chord should be diagnosed")
	}
}

func TestTupletScalesBarLength(t *testing.T) {
	// A triplet of quavers occupies the time of two.
	ctx, _ := parseSource(t, "[stave 1] c c c {3 c- d- e-} | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	bar := st.Bars[0]
	want := 2*ir.NTQuaver.Length(0) + 3*ir.NTCrotchet.Length(0)
	if bar.Length != want {
		t.Errorf("bar length = %d, want %d", bar.Length, want)
	}
	if !bar.Balanceable {
		t.Error("a 4/4 bar of triplet-quavers plus three crotchets should balance")
	}
}

func TestFullBarIsBalanceable(t *testing.T) {
	ctx, sink := parseSource(t, "[stave 1] c c c c | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	if !st.Bars[0].Balanceable {
		t.Error("four crotchets in 4/4 should balance")
	}
	for _, d := range sink.Diagnostics() {
		if d.ID == errsink.ErrBarLengthMismatch {
			t.Errorf("unexpected bar-length warning: %v", d)
		}
	}
}

func TestShortBarWarnsUnlessNoCheck(t *testing.T) {
	_, sink := parseSource(t, "[stave 1] c c | [endstave]\n", 0)
	found := false
	for _, d := range sink.Diagnostics() {
		if d.ID == errsink.ErrBarLengthMismatch {
			found = true
		}
	}
	if !found {
		t.Error("a short bar should warn")
	}

	_, sink2 := parseSource(t, "[stave 1] [nocheck] c c | [endstave]\n", 0)
	for _, d := range sink2.Diagnostics() {
		if d.ID == errsink.ErrBarLengthMismatch {
			t.Errorf("[nocheck] should suppress the warning: %v", d)
		}
	}
}

func TestUnterminatedSlurDefersToSystemEnd(t *testing.T) {
	// A full bar with an open slur gets no bar-length warning, and the
	// slur stays on the continuation chain for system-end handling.
	ctx, sink := parseSource(t, "[stave 1] [slur] c c c c | [endstave]\n", 0)
	for _, d := range sink.Diagnostics() {
		if d.ID == errsink.ErrBarLengthMismatch {
			t.Errorf("unexpected bar-length warning: %v", d)
		}
	}
	st := ctx.Doc.Movements[0].Staves[1]
	if len(st.Continuation.ActiveSlurs) != 1 {
		t.Errorf("active slurs = %d, want 1 deferred to system end", len(st.Continuation.ActiveSlurs))
	}
}

func TestAccidentalMemoryWithinBar(t *testing.T) {
	// An explicit sharp holds for the rest of the bar, then resets.
	ctx, _ := parseSource(t, "[stave 1] #f f | f | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	bar1 := notesOf(&st.Bars[0])
	fsharp := ir.Pitch{Letter: 3, Accidental: ir.AccSharp, Octave: 4}.AbsPitch()
	fnat := ir.Pitch{Letter: 3, Octave: 4}.AbsPitch()
	if bar1[0].AbsPitch != fsharp || bar1[1].AbsPitch != fsharp {
		t.Errorf("bar 1 pitches = %d,%d; want both %d", bar1[0].AbsPitch, bar1[1].AbsPitch, fsharp)
	}
	bar2 := notesOf(&st.Bars[1])
	if bar2[0].AbsPitch != fnat {
		t.Errorf("bar 2 pitch = %d, want natural %d", bar2[0].AbsPitch, fnat)
	}
}

func TestClefChangeMidStave(t *testing.T) {
	ctx, _ := parseSource(t, "[stave 1] c | [bass] c | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	if st.Continuation.Clef.Name != "bass" {
		t.Errorf("final clef = %q, want bass", st.Continuation.Clef.Name)
	}
	bar2 := notesOf(&st.Bars[1])
	if len(bar2) != 1 {
		t.Fatalf("bar 2 notes = %d, want 1", len(bar2))
	}
	c4 := ir.Pitch{Letter: 0, Octave: 4}
	if bar2[0].Spitch != c4.Spitch(ir.Clefs["bass"]) {
		t.Errorf("spitch = %d, want the bass-clef position of middle C", bar2[0].Spitch)
	}
}

func TestNthTimeBars(t *testing.T) {
	ctx, _ := parseSource(t, "[stave 1] [1] c c c c | [2] c c c c | [all] c c c c | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	if n := len(st.Continuation.ActiveNBars); n != 0 {
		t.Errorf("active nbars after [all] = %d, want 0", n)
	}
	count := 0
	for _, b := range st.Bars {
		for _, ev := range b.Events {
			if ev.Kind == ir.EvNBar {
				count++
			}
		}
	}
	if count != 2 {
		t.Errorf("nbar events = %d, want 2", count)
	}
}

func TestHairpinToggle(t *testing.T) {
	ctx, _ := parseSource(t, "[stave 1] [<] c c c c [<] | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	if st.Continuation.ActiveHairpin != nil {
		t.Error("hairpin should be closed by the second [<]")
	}
	var starts, ends int
	for _, ev := range st.Bars[0].Events {
		if ev.Kind == ir.EvHairpin {
			if ev.IntArg == 0 {
				starts++
			} else {
				ends++
			}
			if ev.Hairpin.Direction != ir.Crescendo {
				t.Error("hairpin direction should be crescendo")
			}
		}
	}
	if starts != 1 || ends != 1 {
		t.Errorf("hairpin events = %d starts, %d ends; want 1 and 1", starts, ends)
	}
}

func TestNewMovement(t *testing.T) {
	src := "key G\n[stave 1] c | [endstave]\n[newmovement]\nkey D\n[stave 1] c | [endstave]\n"
	ctx, _ := parseSource(t, src, 0)
	if len(ctx.Doc.Movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(ctx.Doc.Movements))
	}
	if got := ctx.Doc.Movements[1].Key.Name; got != "d" {
		t.Errorf("movement 2 key = %q, want d", got)
	}
	if ctx.Doc.Movements[1].Previous != ctx.Doc.Movements[0] {
		t.Error("movement 2 should chain to movement 1")
	}
	if ctx.Doc.Movements[1].Number != 2 {
		t.Errorf("movement 2 number = %d", ctx.Doc.Movements[1].Number)
	}
}

func TestBarVectorNonDecreasing(t *testing.T) {
	ctx, _ := parseSource(t, "[stave 1] c c c c | c c c c | [nocount] c c c c | c c c c | [endstave]\n", 0)
	m := ctx.Doc.Movements[0]
	if len(m.BarVector) == 0 {
		t.Fatal("bar vector empty")
	}
	prev := uint32(0)
	for i, packed := range m.BarVector {
		if packed>>16 < prev {
			t.Errorf("bar vector integer part decreases at %d", i)
		}
		prev = packed >> 16
	}
}

func TestBracketedAccidental(t *testing.T) {
	ctx, _ := parseSource(t, "[stave 1] (#)c c | [endstave]\n", 0)
	st := ctx.Doc.Movements[0].Staves[1]
	notes := notesOf(&st.Bars[0])
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(notes))
	}
	if !notes[0].AccBracket || notes[0].Accidental != ir.AccSharp {
		t.Errorf("first note accidental = %v bracket=%v, want bracketed sharp",
			notes[0].Accidental, notes[0].AccBracket)
	}
	if notes[1].AccBracket {
		t.Error("second note should not inherit the bracket")
	}
}
