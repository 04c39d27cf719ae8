// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stave

import (
	"sort"
	"strings"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/valid"
)

// staveDir is one row of the bracketed-directive dispatch table: the same
// shape as the header table, with arg1 shared between related directives.
type staveDir struct {
	name    string
	handler func(p *Parser, arg1 int)
	arg1    int
}

// staveTable must stay sorted by name for the binary search.
var staveTable = []staveDir{
	{"all", sdAll, 0},
	{"beamacc", sdSimple, int(ir.EvBeamAcc)},
	{"beambreak", sdBeamInt, int(ir.EvBeamBreak)},
	{"beammove", sdBeamInt, int(ir.EvBeamMove)},
	{"beamrit", sdSimple, int(ir.EvBeamRit)},
	{"beamslope", sdBeamInt, int(ir.EvBeamSlope)},
	{"bowing", sdBowing, 0},
	{"breakbarline", sdSimple, int(ir.EvBreakBarline)},
	{"caesura", sdSimple, int(ir.EvCaesura)},
	{"comma", sdSimple, int(ir.EvComma)},
	{"dotbar", sdSimple, int(ir.EvDotBar)},
	{"dotright", sdSimple, int(ir.EvDotRight)},
	{"draw", sdDraw, int(ir.EvDraw)},
	{"endline", sdEndSlur, 1},
	{"endslur", sdEndSlur, 0},
	{"endstaff", sdEndStave, 0},
	{"endstave", sdEndStave, 0},
	{"ensure", sdFixedArg, int(ir.EvEnsure)},
	{"footnote", sdFootnote, 0},
	{"key", sdKey, 0},
	{"line", sdSlur, 1},
	{"linegap", sdSlurGap, 1},
	{"lrepeat", sdSimple, int(ir.EvLRepeat)},
	{"midichange", sdMidiChange, 0},
	{"move", sdMove, 0},
	{"name", sdName, 0},
	{"newline", sdSimple, int(ir.EvNewLine)},
	{"newpage", sdSimple, int(ir.EvNewPage)},
	{"nocheck", sdNoCheck, 0},
	{"nocount", sdNoCount, 0},
	{"notes", sdNotes, 0},
	{"olevel", sdFixedArg, int(ir.EvOLevel)},
	{"olhere", sdFixedArg, int(ir.EvOLHere)},
	{"overdraw", sdDraw, int(ir.EvOverDraw)},
	{"page", sdIntArg, int(ir.EvPage)},
	{"pagebotmargin", sdFixedArg, int(ir.EvPageBotMargin)},
	{"pagetopmargin", sdFixedArg, int(ir.EvPageTopMargin)},
	{"reset", sdReset, 0},
	{"resume", sdSimple, int(ir.EvResume)},
	{"rmove", sdMove, 1},
	{"rrepeat", sdRRepeat, 0},
	{"sgabove", sdFixedArg, int(ir.EvSGAbove)},
	{"sghere", sdFixedArg, int(ir.EvSGHere)},
	{"sgnext", sdFixedArg, int(ir.EvSGNext)},
	{"slur", sdSlur, 0},
	{"slurgap", sdSlurGap, 0},
	{"smove", sdMove, 2},
	{"ssabove", sdFixedArg, int(ir.EvSSAbove)},
	{"sshere", sdFixedArg, int(ir.EvSSHere)},
	{"ssnext", sdFixedArg, int(ir.EvSSNext)},
	{"suspend", sdSimple, int(ir.EvSuspend)},
	{"tick", sdSimple, int(ir.EvTick)},
	{"ties", sdTies, 0},
	{"time", sdTime, 0},
	{"tremolo", sdIntArg, int(ir.EvTremolo)},
	{"triplets", sdTriplets, 0},
	{"ulevel", sdFixedArg, int(ir.EvULevel)},
	{"ulhere", sdFixedArg, int(ir.EvULHere)},
	{"unbreakbarline", sdSimple, int(ir.EvUnbreakBarline)},
	{"zerocopy", sdSimple, int(ir.EvZeroCopy)},
}

func lookupStaveDir(name string) *staveDir {
	i := sort.Search(len(staveTable), func(i int) bool {
		return staveTable[i].name >= name
	})
	if i < len(staveTable) && staveTable[i].name == name {
		return &staveTable[i]
	}
	return nil
}

// directive dispatches one bracketed directive. The '[' has been
// consumed.
func (p *Parser) directive() {
	ctx := p.ctx
	ctx.SkipWhite()
	ch := ctx.Lx.C()
	switch {
	case ch == '#' || ch == '$' || ch == '%':
		// [#] -- a square-bracketed accidental for the following note.
		acc, _ := p.tryReadAccidental()
		p.pendingAcc = acc
		p.havePendingAcc = true
		p.expectClose()
		return
	case ch == '<' || ch == '>':
		p.hairpin(ch == '<')
		return
	case ch >= '0' && ch <= '9':
		p.nthTimeBar()
		return
	}
	word := ctx.Lx.NextWord()
	if word == "" {
		ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, ctx.Loc(),
			"unexpected character %q after '['", string(ch))
		ctx.SkipPast(']')
		return
	}
	if valid.ClefName(word) {
		p.clefChange(word)
		return
	}
	entry := lookupStaveDir(word)
	if entry == nil {
		ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, ctx.Loc(), "unknown directive [%s]", word)
		ctx.SkipPast(']')
		return
	}
	entry.handler(p, entry.arg1)
}

// expectClose consumes the directive's closing ']', resynchronising past
// it if the handler left unconsumed input behind.
func (p *Parser) expectClose() {
	p.ctx.SkipWhite()
	if p.ctx.Lx.C() == ']' {
		p.ctx.Lx.NextC()
		return
	}
	p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "expected ']'")
	p.ctx.SkipPast(']')
}

func sdSimple(p *Parser, arg1 int) {
	p.bar.AddEvent(ir.Event{Kind: ir.EventKind(arg1)})
	p.expectClose()
}

func sdIntArg(p *Parser, arg1 int) {
	p.ctx.SkipWhite()
	n, _ := p.ctx.ReadInt()
	p.bar.AddEvent(ir.Event{Kind: ir.EventKind(arg1), IntArg: n})
	p.expectClose()
}

func sdFixedArg(p *Parser, arg1 int) {
	p.ctx.SkipWhite()
	n, _ := p.ctx.ReadFixed()
	p.bar.AddEvent(ir.Event{Kind: ir.EventKind(arg1), IntArg: n})
	p.expectClose()
}

// sdBeamInt records a beam marker event and mirrors it into the
// continuation's over-beam descriptor for the next beam.
func sdBeamInt(p *Parser, arg1 int) {
	p.ctx.SkipWhite()
	n, ok := p.ctx.ReadInt()
	kind := ir.EventKind(arg1)
	if kind == ir.EvBeamBreak && !ok {
		n = 1
	}
	if p.cont.ActiveBeam == nil {
		p.cont.ActiveBeam = &ir.BeamState{}
	}
	switch kind {
	case ir.EvBeamBreak:
		p.cont.ActiveBeam.BreakStrength = n
	case ir.EvBeamMove:
		p.cont.ActiveBeam.MoveOffset = n
	case ir.EvBeamSlope:
		p.cont.ActiveBeam.SlopeOverride = n
		p.cont.ActiveBeam.HasSlope = true
	}
	p.bar.AddEvent(ir.Event{Kind: kind, IntArg: n})
	p.expectClose()
}

func sdReset(p *Parser, _ int) {
	if !p.bar.ResetOK(p.barLength) {
		p.ctx.Errs.Warningf(errsink.ErrBarLengthMismatch, p.ctx.Loc(),
			"[reset] in a bar whose length does not match the time signature")
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvReset})
	p.bar.Length = 0
	p.expectClose()
}

func sdNoCheck(p *Parser, _ int) {
	p.bar.NoCheck = true
	p.expectClose()
}

func sdNoCount(p *Parser, _ int) {
	p.noCount = true
	p.expectClose()
}

func sdEndStave(p *Parser, _ int) {
	p.done = true
	p.expectClose()
}

func sdNotes(p *Parser, _ int) {
	w := p.ctx.Lx.NextWord()
	switch w {
	case "on":
		p.cont.Flags |= ir.CFNotesOn
		p.cont.Flags &^= ir.CFNotesOff
		p.bar.AddEvent(ir.Event{Kind: ir.EvNotesOn})
	case "off":
		p.cont.Flags |= ir.CFNotesOff
		p.cont.Flags &^= ir.CFNotesOn
		p.bar.AddEvent(ir.Event{Kind: ir.EvNotesOff})
	default:
		p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "[notes] wants on or off")
	}
	p.expectClose()
}

func sdTriplets(p *Parser, _ int) {
	w := p.ctx.Lx.NextWord()
	on := w == "on"
	if !on && w != "off" {
		p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "[triplets] wants on or off")
	}
	if on {
		p.cont.Flags |= ir.CFTripletOn
	} else {
		p.cont.Flags &^= ir.CFTripletOn
	}
	arg := 0
	if on {
		arg = 1
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvTripSw, IntArg: arg})
	p.expectClose()
}

func sdBowing(p *Parser, _ int) {
	w := p.ctx.Lx.NextWord()
	above := w == "above"
	if !above && w != "below" {
		p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "[bowing] wants above or below")
	}
	if above {
		p.cont.Flags |= ir.CFBowingAbove
	} else {
		p.cont.Flags &^= ir.CFBowingAbove
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvBowing, StrArg: w})
	p.expectClose()
}

func sdTies(p *Parser, _ int) {
	w := p.ctx.Lx.NextWord()
	switch w {
	case "above", "below", "auto":
	default:
		p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "[ties] wants above, below or auto")
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvTies, StrArg: w})
	p.expectClose()
}

func sdRRepeat(p *Parser, _ int) {
	p.cont.Flags |= ir.CFDoubleRightRepeatPending
	p.bar.AddEvent(ir.Event{Kind: ir.EvRRepeat})
	p.expectClose()
}

func sdKey(p *Parser, _ int) {
	tok := p.ctx.ReadKeyToken()
	k, ok := p.ctx.ResolveKey(tok)
	if !ok {
		p.ctx.SkipPast(']')
		return
	}
	p.cont.Key = k
	p.applyTransposedKey()
	p.resetBarAccidentals()
	key := p.cont.Key
	p.bar.AddEvent(ir.Event{Kind: ir.EvKey, Key: &key})
	p.expectClose()
}

func sdTime(p *Parser, _ int) {
	ts, ok := p.ctx.ReadTimeSig()
	if !ok {
		p.ctx.Errs.Minorf(errsink.ErrBadTimeSignature, p.ctx.Loc(), "malformed time signature")
		p.ctx.SkipPast(']')
		return
	}
	p.cont.Time = ts
	p.barLength = ts.BarLength()
	t := ts
	p.bar.AddEvent(ir.Event{Kind: ir.EvTime, Time: &t})
	p.expectClose()
}

func (p *Parser) clefChange(name string) {
	clef := ir.Clefs[name]
	p.cont.Clef = clef
	c := clef
	p.bar.AddEvent(ir.Event{Kind: ir.EvClef, Clef: &c})
	p.expectClose()
}

func sdMidiChange(p *Parser, _ int) {
	p.ctx.SkipWhite()
	n, ok := p.ctx.ReadInt()
	if !ok {
		p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "[midichange] wants a program number")
		p.ctx.SkipPast(']')
		return
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvMidiChange, IntArg: n})
	p.expectClose()
}

func sdMove(p *Parser, which int) {
	ctx := p.ctx
	ctx.SkipWhite()
	x, _ := ctx.ReadFixed()
	ctx.SkipWhite()
	y, _ := ctx.ReadFixed()
	mv := &ir.MoveOffset{X: x, Y: y, Relative: which == 1, Stave: which == 2}
	kind := ir.EvMove
	switch which {
	case 1:
		kind = ir.EvRMove
	case 2:
		kind = ir.EvSMove
	}
	p.bar.AddEvent(ir.Event{Kind: kind, Move: mv})
	p.expectClose()
}

func sdName(p *Parser, _ int) {
	p.ctx.SkipWhite()
	s, ok := p.ctx.ReadQuoted()
	if !ok {
		p.ctx.Errs.Minorf(errsink.ErrBadStaveString, p.ctx.Loc(), "[name] wants a string")
		p.ctx.SkipPast(']')
		return
	}
	p.stave.Names = append(p.stave.Names, ir.NameLine{Text: s})
	p.bar.AddEvent(ir.Event{Kind: ir.EvName})
	p.expectClose()
}

func sdFootnote(p *Parser, _ int) {
	p.ctx.SkipWhite()
	s, ok := p.ctx.ReadQuoted()
	if !ok {
		p.ctx.Errs.Minorf(errsink.ErrBadStaveString, p.ctx.Loc(), "[footnote] wants a string")
		p.ctx.SkipPast(']')
		return
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvFootnote, Text: &ir.StaveText{Text: s}})
	p.expectClose()
}

// sdDraw reads a draw call: the function name followed by numeric or
// string arguments.
func sdDraw(p *Parser, arg1 int) {
	ctx := p.ctx
	name := ctx.Lx.NextWord()
	if name == "" {
		ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, ctx.Loc(), "[draw] wants a function name")
		ctx.SkipPast(']')
		return
	}
	call := &ir.DrawCall{FuncName: name}
	for {
		ctx.SkipWhite()
		ch := ctx.Lx.C()
		switch {
		case ch == ']' || ch == '\n' || ch == lexer.ENDFILE:
			p.bar.AddEvent(ir.Event{Kind: ir.EventKind(arg1), Draw: call, StrArg: name})
			p.expectClose()
			return
		case ch == '"':
			if s, ok := ctx.ReadQuoted(); ok {
				call.Args = append(call.Args, ir.DrawArg{IsString: true, Str: s})
			}
		default:
			n, ok := ctx.ReadFixed()
			if !ok {
				ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, ctx.Loc(), "bad draw argument")
				ctx.SkipPast(']')
				return
			}
			call.Args = append(call.Args, ir.DrawArg{Number: float64(n) / 1000})
		}
	}
}

// nthTimeBar reads [1], [2 "text"] etc: an n-th time marking.
func (p *Parser) nthTimeBar() {
	ctx := p.ctx
	n, _ := ctx.ReadInt()
	nb := &ir.NBar{Number: n, Active: true}
	p.cont.ActiveNBars = append(p.cont.ActiveNBars, nb)
	p.bar.AddEvent(ir.Event{Kind: ir.EvNBar, NBar: nb})
	p.expectClose()
}

func sdAll(p *Parser, _ int) {
	for _, nb := range p.cont.ActiveNBars {
		nb.Active = false
	}
	p.cont.ActiveNBars = nil
	p.bar.AddEvent(ir.Event{Kind: ir.EvAll})
	p.expectClose()
}

// hairpin toggles a crescendo/decrescendo: the first [<] or [>] opens the
// wedge, the matching one closes it.
func (p *Parser) hairpin(crescendo bool) {
	ctx := p.ctx
	ctx.Lx.NextC() // consume '<' or '>'
	if p.cont.ActiveHairpin != nil {
		h := p.cont.ActiveHairpin
		p.applyHairpinOptions(h)
		p.cont.ActiveHairpin = nil
		p.bar.AddEvent(ir.Event{Kind: ir.EvHairpin, Hairpin: h, IntArg: 1})
		p.expectClose()
		return
	}
	h := &ir.Hairpin{Direction: ir.Crescendo}
	if !crescendo {
		h.Direction = ir.Decrescendo
	}
	p.applyHairpinOptions(h)
	p.cont.ActiveHairpin = h
	p.bar.AddEvent(ir.Event{Kind: ir.EvHairpin, Hairpin: h, IntArg: 0})
	p.expectClose()
}

func (p *Parser) applyHairpinOptions(h *ir.Hairpin) {
	for {
		opt, ok := p.readOption()
		if !ok {
			return
		}
		switch {
		case opt == "b":
			h.Flags |= ir.HFBelow
		case opt == "m":
			h.Flags |= ir.HFMiddle
		case opt == "a":
			h.Flags |= ir.HFAbove
		case opt == "bar":
			h.Flags |= ir.HFBar
		case opt == "h":
			h.Flags |= ir.HFHalfway
		case opt == "s":
			h.Flags |= ir.HFShortAtEndOfLine
		case strings.HasPrefix(opt, "w"):
			if n, ok := parseFixedString(opt[1:]); ok {
				h.WidthOverride = n
			}
		case strings.HasPrefix(opt, "l"):
			if n, ok := parseFixedString(opt[1:]); ok {
				h.LeftX = n
			}
		case strings.HasPrefix(opt, "r"):
			if n, ok := parseFixedString(opt[1:]); ok {
				h.RightX = n
			}
		case strings.HasPrefix(opt, "y"):
			if n, ok := parseFixedString(opt[1:]); ok {
				h.Y = n
				h.Flags |= ir.HFAbsoluteY
			}
		default:
			p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "unknown hairpin option %q", opt)
		}
	}
}

// readOption reads one '/'-introduced option token inside a bracketed
// directive, stopping before ']'. ok is false when no further option
// follows.
func (p *Parser) readOption() (string, bool) {
	ctx := p.ctx
	ctx.SkipWhite()
	if ctx.Lx.C() != '/' {
		return "", false
	}
	ctx.Lx.NextC()
	var sb strings.Builder
	for {
		ch := ctx.Lx.C()
		if ch == '/' || ch == ']' || ch == '\n' || ch == lexer.ENDFILE {
			return strings.TrimSpace(sb.String()), true
		}
		sb.WriteRune(ch)
		ctx.Lx.NextC()
	}
}
