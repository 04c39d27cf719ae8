// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package stave interprets stave bodies: notes, chords, rests, bracketed
// directives, barlines, tuplets, slurs, strings -- everything between
// `[stave N ...]` and `[endstave]`. It shares the lexer and parser
// context with the header parser, and also provides the whole-document
// driver that alternates between the two.
package stave

import (
	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/header"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/valid"
)

// MaxPletNesting bounds how deeply tuplets may stack.
const MaxPletNesting = 4

// Parser holds the per-stave parse state on top of the shared Context.
type Parser struct {
	ctx   *header.Context
	stave *ir.Stave
	cont  *ir.Continuation
	bar   *ir.Bar

	barLength int  // target musical length from the time signature
	trueInt   int  // logical integer number the next true bar receives
	subBar    int  // nocount sub-bar counter within the current integer
	noCount   bool // the current bar is a nocount bar

	plets []pletFrame

	inChord   bool
	chordHead *ir.Note
	lastNote  *ir.Note
	lastType  ir.NoteType
	lastDots  int

	// pendingAcc is a bracketed accidental read ahead of its note.
	pendingAcc       ir.Accidental
	havePendingAcc   bool
	pendingAccOffset int

	done bool
}

type pletFrame struct {
	num, den int
}

// ParseDocument drives the whole read: header directives, stave blocks
// and [newmovement] markers until end of file. On return the context's
// document holds every movement read.
func ParseDocument(ctx *header.Context) {
	for {
		if !header.Parse(ctx) {
			break
		}
		ctx.Lx.NextC() // consume '['
		word := ctx.Lx.NextWord()
		switch word {
		case "stave", "staff":
			p := &Parser{ctx: ctx}
			p.parse()
		case "newmovement":
			ctx.SkipWhite()
			if ctx.Lx.C() == ']' {
				ctx.Lx.NextC()
			}
			ctx.Movement = ctx.Doc.NewMovement()
		default:
			ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, ctx.Loc(),
				"expected [stave ...] or [newmovement], got [%s", word)
			ctx.SkipPast(']')
		}
		if ctx.Errs.Fatal() {
			break
		}
	}
	flushDeferred(ctx)
}

// flushDeferred prints the once-per-run diagnostics accumulated during
// reading, currently the missing-codepoint set.
func flushDeferred(ctx *header.Context) {
	missing := ctx.Errs.MissingCodepoints()
	if len(missing) > 0 {
		ctx.Errs.Warningf(errsink.ErrMissingCodepoints, errsink.Location{},
			"%d code point(s) had no glyph in the requested font", len(missing))
	}
}

// parse reads one stave block. The lexer has consumed "[stave"; the
// stave number and options follow.
func (p *Parser) parse() {
	ctx := p.ctx
	ctx.SkipWhite()
	n, ok := ctx.ReadInt()
	if !ok || !valid.StaveNumber(n) {
		ctx.Errs.Majorf(errsink.ErrBadStaveNumber, ctx.Loc(), "bad stave number")
		ctx.SkipPast(']')
		n = 1
	}
	p.stave = ctx.Movement.Stave(n)
	ctx.Stave = p.stave
	p.cont = &p.stave.Continuation

	if p.cont.Clef.Name == "" {
		p.cont.Clef = ir.Clefs["treble"]
	}
	p.cont.Key = ctx.Movement.Key
	p.cont.Time = ctx.Movement.Time
	if p.cont.Time.Denominator == 0 && !p.cont.Time.Common && !p.cont.Time.Cut {
		p.cont.Time = ir.TimeSig{Multiplier: 1, Numerator: 4, Denominator: 4}
	}
	p.applyTransposedKey()
	p.barLength = p.cont.Time.BarLength()
	p.resetBarAccidentals()
	p.lastType, p.lastDots = ir.NTCrotchet, 0

	p.parseStaveOptions()

	p.trueInt = 1
	p.bar = p.stave.StartBar(uint32(p.trueInt) << 16)

	for !p.done {
		ctx.SkipWhite()
		ch := ctx.Lx.C()
		switch {
		case ch == lexer.ENDFILE:
			ctx.Errs.Majorf(errsink.ErrUnclosedStave, ctx.Loc(), "[endstave] missing at end of file")
			p.done = true
		case ch == '[':
			ctx.Lx.NextC()
			p.directive()
		case ch == '|':
			ctx.Lx.NextC()
			p.barline()
		case ch == '"':
			p.staveString()
		case ch == '(':
			ctx.Lx.NextC()
			p.openRound()
		case ch == ')':
			ctx.Lx.NextC()
			p.closeChord()
		case ch == '{':
			ctx.Lx.NextC()
			p.openPlet()
		case ch == '}':
			ctx.Lx.NextC()
			p.closePlet()
		case ch == '_':
			ctx.Lx.NextC()
			p.cont.TieAwaiting = true
		case isNoteStart(ch):
			p.parseNote()
		default:
			ctx.Errs.Minorf(errsink.ErrBadNote, ctx.Loc(), "unexpected character %q in stave data", string(ch))
			ctx.Lx.NextC()
		}
		if ctx.Errs.Fatal() {
			return
		}
	}
	p.finishStave()
}

// parseStaveOptions reads the remainder of the opening bracket: an
// optional clef name, omitempty, /<nlines>, halfaccidentals, and name
// strings, terminated by ']'.
func (p *Parser) parseStaveOptions() {
	ctx := p.ctx
	for {
		ctx.SkipWhite()
		ch := ctx.Lx.C()
		switch {
		case ch == ']':
			ctx.Lx.NextC()
			return
		case ch == lexer.ENDFILE || ch == '\n':
			if ch == '\n' {
				ctx.Lx.NextC()
				continue
			}
			ctx.Errs.Majorf(errsink.ErrUnclosedStave, ctx.Loc(), "unterminated [stave ...] bracket")
			return
		case ch == '"':
			if s, ok := ctx.ReadQuoted(); ok {
				p.stave.Names = append(p.stave.Names, ir.NameLine{Text: s})
			}
		case ch == '/':
			ctx.Lx.NextC()
			n, ok := ctx.ReadInt()
			if !ok || !valid.StaveLines(n) {
				ctx.Errs.Minorf(errsink.ErrBadStaveNumber, ctx.Loc(), "bad stave line count")
				continue
			}
			p.stave.NLines = n
		default:
			word := ctx.Lx.NextWord()
			switch {
			case word == "":
				ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, ctx.Loc(),
					"unexpected character %q in [stave ...]", string(ch))
				ctx.Lx.NextC()
			case word == "omitempty":
				p.stave.OmitEmpty = true
			case word == "halfaccidentals":
				p.stave.HalfAccidentals = true
			case valid.ClefName(word):
				p.cont.Clef = ir.Clefs[word]
			default:
				ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, ctx.Loc(),
					"unknown stave option %q", word)
			}
		}
	}
}

// applyTransposedKey records the transposed shadow of the current key.
func (p *Parser) applyTransposedKey() {
	tr := p.ctx.Transposer
	if tr == nil || tr.QuarterTones == 0 {
		p.cont.KeyTransposed = p.cont.Key
		return
	}
	tk, err := tr.TransposeKey(p.cont.Key)
	if err != nil {
		p.ctx.Errs.Fatalf(errsink.ErrTransposeNeedKey, p.ctx.Loc(), "%v", err)
		return
	}
	p.cont.KeyTransposed = tk
}

// resetBarAccidentals initialises the per-bar accidental memory (and its
// transposed shadow) from the active key signatures.
func (p *Parser) resetBarAccidentals() {
	p.cont.BarAccidentals = keyAccidentals(p.cont.Key)
	p.cont.TransposedBarAccidentals = keyAccidentals(p.cont.KeyTransposed)
}

func keyAccidentals(k ir.Key) [7]ir.Accidental {
	var out [7]ir.Accidental
	for _, row := range k.Rows {
		if row.Line >= 0 && row.Line < 7 {
			out[row.Line] = row.Accidental
		}
	}
	return out
}

// barline closes the current bar: length bookkeeping, the bar-length
// warning, and the start of the next bar.
func (p *Parser) barline() {
	ctx := p.ctx
	style := 0
	switch ctx.Lx.C() {
	case '|':
		ctx.Lx.NextC()
		style = 1 // double
	case ']':
		ctx.Lx.NextC()
		style = 2 // ending
	case '?':
		ctx.Lx.NextC()
		style = 3 // invisible
	}
	if p.inChord {
		ctx.Errs.Minorf(errsink.ErrUnclosedChord, ctx.Loc(), "barline inside a chord")
		p.inChord = false
		p.chordHead = nil
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvBarline, IntArg: style})
	if p.bar.Length != 0 && p.bar.Length != p.barLength && !p.bar.NoCheck {
		ctx.Errs.Warningf(errsink.ErrBarLengthMismatch, ctx.Loc(),
			"bar length mismatch: bar has %d units, time signature wants %d", p.bar.Length, p.barLength)
	}
	// A nocount bar shares the previous true bar's integer, taking the
	// next fractional sub-bar slot; a true bar advances the integer.
	if p.noCount {
		p.subBar++
		p.bar.Number = uint32(p.trueInt-1)<<16 | uint32(p.subBar&0xFFFF)
		p.noCount = false
	} else {
		p.bar.Number = uint32(p.trueInt) << 16
		p.trueInt++
		p.subBar = 0
	}
	p.bar = p.stave.StartBar(uint32(p.trueInt) << 16)
	p.resetBarAccidentals()
}

// finishStave ends the block: drops a trailing empty bar, records the
// movement-wide bar count, and leaves any open slurs for system-end
// handling.
func (p *Parser) finishStave() {
	st := p.stave
	if n := len(st.Bars); n > 0 && len(st.Bars[n-1].Events) == 0 && st.Bars[n-1].Length == 0 {
		st.Bars = st.Bars[:n-1]
	}
	m := p.ctx.Movement
	if len(st.Bars) > m.BarCount {
		m.BarCount = len(st.Bars)
	}
	// First stave wins: only extend the bar vector, never rewrite it.
	for len(m.BarVector) < len(st.Bars) {
		m.BarVector = append(m.BarVector, st.Bars[len(m.BarVector)].Number)
	}
	p.ctx.Stave = nil
}

// openRound disambiguates '(' between a chord start and a bracketed
// accidental: "(#)c" brackets the sharp, "(cg)" is a chord.
func (p *Parser) openRound() {
	ctx := p.ctx
	ctx.SkipWhite()
	if acc, ok := p.tryReadAccidental(); ok {
		if ctx.Lx.C() == ')' {
			ctx.Lx.NextC()
			p.pendingAcc = acc
			p.havePendingAcc = true
			return
		}
		// Not bracketed after all: a chord whose first note carries the
		// accidental we just consumed.
		p.startChord()
		p.parseNoteWithAccidental(acc, true)
		return
	}
	p.startChord()
}

func (p *Parser) startChord() {
	if p.inChord {
		p.ctx.Errs.Minorf(errsink.ErrUnclosedChord, p.ctx.Loc(), "nested chord bracket")
		return
	}
	p.inChord = true
	p.chordHead = nil
}

func (p *Parser) closeChord() {
	if !p.inChord {
		p.ctx.Errs.Minorf(errsink.ErrUnclosedChord, p.ctx.Loc(), "')' with no open chord")
		return
	}
	p.inChord = false
	p.chordHead = nil
}

// openPlet reads `{N[/M]` and pushes a tuplet frame.
func (p *Parser) openPlet() {
	ctx := p.ctx
	ctx.SkipWhite()
	num, ok := ctx.ReadInt()
	if !ok || num < 2 {
		ctx.Errs.Minorf(errsink.ErrBadTuplet, ctx.Loc(), "tuplet wants a count after '{'")
		num = 3
	}
	den := 0
	if ctx.Lx.C() == '/' {
		ctx.Lx.NextC()
		den, _ = ctx.ReadInt()
	}
	if den == 0 {
		// conventional default: the largest power of two below the count
		den = 2
		for den*2 < num {
			den *= 2
		}
	}
	if len(p.plets) >= MaxPletNesting {
		ctx.Errs.Majorf(errsink.ErrTupletNesting, ctx.Loc(), "tuplets nested deeper than %d", MaxPletNesting)
		return
	}
	plet := &ir.Plet{N: num, D: den, Bracket: true, NestingDepth: len(p.plets) + 1}
	for {
		done := false
		switch ctx.Lx.C() {
		case 'b':
			plet.Bracket = true
			ctx.Lx.NextC()
		case 'n':
			plet.Bracket = false
			ctx.Lx.NextC()
		case 'a':
			plet.Above = true
			ctx.Lx.NextC()
		case 'u':
			plet.Above = false
			ctx.Lx.NextC()
		default:
			done = true
		}
		if done {
			break
		}
	}
	p.plets = append(p.plets, pletFrame{num: num, den: den})
	p.bar.AddEvent(ir.Event{Kind: ir.EvPlet, Plet: plet})
}

func (p *Parser) closePlet() {
	if len(p.plets) == 0 {
		p.ctx.Errs.Minorf(errsink.ErrBadTuplet, p.ctx.Loc(), "'}' with no open tuplet")
		return
	}
	p.plets = p.plets[:len(p.plets)-1]
	p.bar.AddEvent(ir.Event{Kind: ir.EvEndPlet})
}

// pletScale applies every active tuplet frame to a raw note length.
func (p *Parser) pletScale(length int) int {
	for _, f := range p.plets {
		length = length * f.den / f.num
	}
	return length
}

func isNoteStart(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'g', ch >= 'A' && ch <= 'G':
		return true
	case ch == 'r' || ch == 'R' || ch == 'p':
		return true
	case ch == '#' || ch == '$' || ch == '%':
		return true
	}
	return false
}
