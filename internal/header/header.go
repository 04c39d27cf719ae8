// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package header interprets movement-scoped directives, updating the
// current-movement descriptor in place until the stave prefix `[stave` is
// reached. Directives dispatch through a sorted table by binary search;
// each entry carries a resync character telling the lexer where to pick
// up again after malformed input.
package header

import (
	"sort"
	"strconv"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/pmwstring"
	"github.com/ellisgrant/pmw/internal/strfmt"
	"github.com/ellisgrant/pmw/internal/valid"
)

// Chain selectors for the heading/footing family, passed as the shared
// directive argument.
const (
	chainHeading = iota
	chainFooting
	chainPageHeading
	chainPageFooting
	chainLastFooting
)

// dirEntry is one row of the directive dispatch table. arg1 is the
// directive-specific integer shared between related directives (e.g. which
// heading chain); skip is the resync character consumed after a malformed
// argument, with 0 meaning "to end of line".
type dirEntry struct {
	name    string
	handler func(c *Context, arg1 int)
	arg1    int
	skip    rune
}

// headerTable must stay sorted by name; lookupDirective binary-searches it.
var headerTable = []dirEntry{
	{"barlinestyle", dirBarlineStyle, 0, 0},
	{"brace", dirStaveGroup, 1, 0},
	{"bracket", dirStaveGroup, 0, 0},
	{"doublenotes", dirNoteScaling, 1, 0},
	{"footing", dirHeading, chainFooting, 0},
	{"halvenotes", dirNoteScaling, 0, 0},
	{"heading", dirHeading, chainHeading, 0},
	{"join", dirStaveGroup, 2, 0},
	{"key", dirKey, 0, 0},
	{"keytranspose", dirKeyTranspose, 0, 0},
	{"lastfooting", dirHeading, chainLastFooting, 0},
	{"layout", dirLayout, 0, 0},
	{"makekey", dirMakeKey, 0, 0},
	{"midichannel", dirMidiChannel, 0, 0},
	{"omitempty", dirObsolete, 0, 0},
	{"pagefooting", dirHeading, chainPageFooting, 0},
	{"pageheading", dirHeading, chainPageHeading, 0},
	{"printkey", dirPrintKey, 0, 0},
	{"printtime", dirPrintTime, 0, 0},
	{"sgabove", dirStaveGap, 0, 0},
	{"sghere", dirStaveGap, 1, 0},
	{"sgnext", dirStaveGap, 2, 0},
	{"sheetsize", dirSheetSize, 0, 0},
	{"ssabove", dirStaveScale, 0, 0},
	{"sshere", dirStaveScale, 1, 0},
	{"ssnext", dirStaveScale, 2, 0},
	{"stavelines", dirObsolete, 1, 0},
	{"stavesizes", dirStaveSizes, 0, 0},
	{"stavespacing", dirStaveSpacing, 0, 0},
	{"stemswaplevel", dirStemSwapLevel, 0, 0},
	{"time", dirTime, 0, 0},
	{"transpose", dirTranspose, 0, 0},
	{"transposedkey", dirTransposedKey, 0, 0},
}

func lookupDirective(name string) *dirEntry {
	i := sort.Search(len(headerTable), func(i int) bool {
		return headerTable[i].name >= name
	})
	if i < len(headerTable) && headerTable[i].name == name {
		return &headerTable[i]
	}
	return nil
}

// Parse consumes header directives until it reaches a '[' (which opens a
// stave block or [newmovement], left for the caller to dispatch) or end of
// file. It returns true when a '[' is waiting.
func Parse(c *Context) bool {
	c.Prime()
	for {
		c.SkipWhite()
		ch := c.Lx.C()
		switch {
		case ch == lexer.ENDFILE:
			return false
		case ch == '[':
			return true
		case !isLetterRune(ch):
			c.Errs.Minorf(errsink.ErrUnknownHeaderDirective, c.Loc(),
				"unexpected character %q in movement header", string(ch))
			c.SkipPast('\n')
		default:
			name := c.Lx.NextWord()
			entry := lookupDirective(name)
			if entry == nil {
				c.Errs.Minorf(errsink.ErrUnknownHeaderDirective, c.Loc(), "unknown header directive %q", name)
				c.SkipPast('\n')
				continue
			}
			entry.handler(c, entry.arg1)
			if entry.skip != 0 {
				c.SkipPast(entry.skip)
			}
		}
		if c.Errs.Fatal() {
			return false
		}
	}
}

func dirKey(c *Context, _ int) {
	tok := c.ReadKeyToken()
	k, ok := c.ResolveKey(tok)
	if !ok {
		c.SkipPast('\n')
		return
	}
	if c.Transposer != nil && c.Transposer.QuarterTones != 0 {
		if tk, err := c.Transposer.TransposeKey(k); err == nil {
			c.Movement.Stave(0).Continuation.KeyTransposed = tk
		} else {
			c.Errs.Fatalf(errsink.ErrTransposeNeedKey, c.Loc(), "%v", err)
			return
		}
	}
	c.Movement.Key = k
}

func dirTime(c *Context, _ int) {
	ts, ok := c.ReadTimeSig()
	if !ok {
		c.Errs.Minorf(errsink.ErrBadTimeSignature, c.Loc(), "malformed time signature")
		c.SkipPast('\n')
		return
	}
	ts = applyNoteScaling(c, ts)
	c.Movement.Time = ts
}

// applyNoteScaling folds the doublenotes/halvenotes movement flags into a
// freshly-read time signature.
func applyNoteScaling(c *Context, ts ir.TimeSig) ir.TimeSig {
	var err error
	if c.Movement.Flags&ir.MFDoubleNotes != 0 {
		ts, err = ts.ScaleNotes(true)
	} else if c.Movement.Flags&ir.MFHalveNotes != 0 {
		ts, err = ts.ScaleNotes(false)
	}
	if err != nil {
		c.Errs.Minorf(errsink.ErrBadTimeSignature, c.Loc(), "%v", err)
	}
	return ts
}

func dirNoteScaling(c *Context, arg1 int) {
	if arg1 == 1 {
		c.Movement.Flags |= ir.MFDoubleNotes
		c.Movement.Flags &^= ir.MFHalveNotes
	} else {
		c.Movement.Flags |= ir.MFHalveNotes
		c.Movement.Flags &^= ir.MFDoubleNotes
	}
	if c.Movement.Time.Denominator != 0 {
		c.Movement.Time = applyNoteScaling(c, c.Movement.Time)
	}
}

func dirPrintKey(c *Context, _ int) {
	key := c.ReadKeyToken()
	clef := c.Lx.NextWord()
	if key == "" || !valid.ClefName(clef) {
		c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "printkey wants a key name and a clef name")
		c.SkipPast('\n')
		return
	}
	c.SkipWhite()
	s, ok := c.ReadQuoted()
	if !ok {
		c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "printkey wants a string")
		c.SkipPast('\n')
		return
	}
	c.Movement.RegisterPrintKey(key, clef, s)
}

func dirPrintTime(c *Context, _ int) {
	ts, ok := c.ReadTimeSig()
	if !ok {
		c.Errs.Minorf(errsink.ErrBadTimeSignature, c.Loc(), "printtime wants a time signature")
		c.SkipPast('\n')
		return
	}
	c.SkipWhite()
	num, ok1 := c.ReadQuoted()
	c.SkipWhite()
	den, ok2 := c.ReadQuoted()
	if !ok1 || !ok2 {
		c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "printtime wants two strings")
		c.SkipPast('\n')
		return
	}
	name := strfmt.TimeSig(ts.Multiplier, ts.Numerator, ts.Denominator)
	c.Movement.RegisterPrintTime(name, ir.PrintTime{Num: num, Den: den})
}

func dirMakeKey(c *Context, _ int) {
	tok := c.ReadKeyToken()
	if len(tok) < 2 || tok[0] != 'x' {
		c.Errs.Minorf(errsink.ErrBadMakeKey, c.Loc(), "makekey wants a custom key name X<n>")
		c.SkipPast('\n')
		return
	}
	k := ir.Key{Name: tok, Custom: true}
	for {
		c.SkipWhite()
		var acc ir.Accidental
		switch c.Lx.C() {
		case '#':
			acc = ir.AccSharp
			if c.Lx.NextC() == '#' {
				acc = ir.AccDoubleSharp
				c.Lx.NextC()
			}
		case '$':
			acc = ir.AccFlat
			if c.Lx.NextC() == '$' {
				acc = ir.AccDoubleFlat
				c.Lx.NextC()
			}
		case '%':
			acc = ir.AccNatural
			c.Lx.NextC()
		default:
			if len(k.Rows) == 0 {
				c.Errs.Minorf(errsink.ErrBadMakeKey, c.Loc(), "makekey %s has no accidental list", tok)
			}
			c.Movement.CustomKeys[tok] = k
			return
		}
		pos, ok := c.ReadInt()
		if !ok {
			c.Errs.Minorf(errsink.ErrBadMakeKey, c.Loc(), "makekey accidental wants a stave position")
			c.SkipPast('\n')
			return
		}
		k.Rows = append(k.Rows, ir.KeyRow{Accidental: acc, Line: pos})
	}
}

func dirKeyTranspose(c *Context, _ int) {
	src := c.ReadKeyToken()
	srcKey, ok := c.ResolveKey(src)
	if !ok {
		c.SkipPast('\n')
		return
	}
	c.SkipWhite()
	if c.Lx.C() == '=' {
		c.Lx.NextC()
	}
	dst := c.ReadKeyToken()
	dstKey, ok := c.ResolveKey(dst)
	if !ok {
		c.SkipPast('\n')
		return
	}
	c.Movement.KeyTranspositions[srcKey.Name] = dstKey
	if c.Transposer != nil {
		c.Transposer.KeyMap[srcKey.Name] = dstKey
	}
}

func dirTransposedKey(c *Context, _ int) {
	src := c.ReadKeyToken()
	srcKey, ok := c.ResolveKey(src)
	if !ok {
		c.SkipPast('\n')
		return
	}
	if w := c.Lx.NextWord(); w != "use" {
		c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "transposedkey wants 'use', got %q", w)
		c.SkipPast('\n')
		return
	}
	dst := c.ReadKeyToken()
	dstKey, ok := c.ResolveKey(dst)
	if !ok {
		c.SkipPast('\n')
		return
	}
	c.Movement.TransposedKeys[srcKey.Name] = dstKey
	if c.Transposer != nil {
		c.Transposer.KeyMap[srcKey.Name] = dstKey
	}
}

func dirHeading(c *Context, chain int) {
	c.SkipWhite()
	size := 0
	if c.Lx.C() >= '0' && c.Lx.C() <= '9' {
		size, _ = c.ReadFixed()
		c.SkipWhite()
	}
	s, ok := c.ReadQuoted()
	if !ok {
		c.Errs.Minorf(errsink.ErrBadHeadingString, c.Loc(), "heading wants a string")
		c.SkipPast('\n')
		return
	}
	line := splitHeading(s)
	line.FontSize = size
	c.SkipWhite()
	if c.Lx.C() >= '0' && c.Lx.C() <= '9' {
		line.SpaceAfter, _ = c.ReadFixed()
	}
	switch chain {
	case chainHeading:
		c.Movement.Heading = append(c.Movement.Heading, line)
	case chainFooting:
		c.Movement.Footing = append(c.Movement.Footing, line)
	case chainPageHeading:
		c.Movement.PageHeading = append(c.Movement.PageHeading, line)
	case chainPageFooting:
		c.Movement.PageFooting = append(c.Movement.PageFooting, line)
	case chainLastFooting:
		c.Movement.LastFooting = append(c.Movement.LastFooting, line)
	}
}

// splitHeading divides a heading string into its left|middle|right parts
// on unescaped vertical bars. An escaped \|\ arrives as CodeVerticalBar
// and stays literal.
func splitHeading(s pmwstring.String) ir.HeadFootLine {
	var parts []pmwstring.String
	current := pmwstring.String{}
	for _, u := range s {
		if u.Code() == '|' {
			parts = append(parts, current)
			current = pmwstring.String{}
			continue
		}
		current = append(current, u)
	}
	parts = append(parts, current)
	var line ir.HeadFootLine
	line.Left = parts[0]
	if len(parts) > 1 {
		line.Middle = parts[1]
	}
	if len(parts) > 2 {
		line.Right = parts[2]
	}
	return line
}

func dirLayout(c *Context, _ int) {
	var groupStart []int // indices into the op stream where '(' groups began
	for {
		// layout's operand stream ends at the end of the line
		c.Lx.SkipSignificant()
		ch := c.Lx.C()
		switch {
		case ch >= '0' && ch <= '9':
			n, _ := c.ReadInt()
			c.Movement.Layout = append(c.Movement.Layout, ir.LayoutOp{Kind: ir.LayoutBarCount, BarCount: n})
		case ch == '(':
			c.Lx.NextC()
			groupStart = append(groupStart, len(c.Movement.Layout))
		case ch == ')':
			c.Lx.NextC()
			if len(groupStart) == 0 {
				c.Errs.Minorf(errsink.ErrBadLayout, c.Loc(), "layout ')' without '('")
				return
			}
			start := groupStart[len(groupStart)-1]
			groupStart = groupStart[:len(groupStart)-1]
			c.Lx.SkipSignificant()
			count, ok := c.ReadInt()
			if !ok {
				c.Errs.Minorf(errsink.ErrBadLayout, c.Loc(), "layout ')' wants a repeat count")
				return
			}
			c.Movement.Layout = append(c.Movement.Layout, ir.LayoutOp{
				Kind: ir.LayoutRepeatCount, RepeatCount: count, RepeatPtr: start,
			})
		case ch == ';' || ch == ',':
			c.Lx.NextC()
		case isLetterRune(ch):
			w := c.Lx.NextWord()
			if w != "newpage" {
				c.Errs.Minorf(errsink.ErrBadLayout, c.Loc(), "unknown layout word %q", w)
				c.SkipPast('\n')
				return
			}
			c.Movement.Layout = append(c.Movement.Layout, ir.LayoutOp{Kind: ir.LayoutNewPage})
		default:
			if len(groupStart) != 0 {
				c.Errs.Minorf(errsink.ErrBadLayout, c.Loc(), "layout '(' without ')'")
			}
			return
		}
	}
}

// readStaveValuePairs parses the `<stave>/<value>` lists shared by
// stavesizes and stavespacing, applying each pair through set.
func readStaveValuePairs(c *Context, directive string, set func(stave, thousandths int)) {
	for {
		c.Lx.SkipSignificant()
		if c.Lx.C() < '0' || c.Lx.C() > '9' {
			return
		}
		n, _ := c.ReadInt()
		if c.Lx.C() != '/' {
			c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "%s wants stave/value pairs", directive)
			c.SkipPast('\n')
			return
		}
		c.Lx.NextC()
		v, ok := c.ReadFixed()
		if !ok {
			c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "%s wants stave/value pairs", directive)
			c.SkipPast('\n')
			return
		}
		if !valid.StaveNumber(n) {
			c.Errs.Minorf(errsink.ErrBadStaveList, c.Loc(), "stave number %d out of range", n)
			continue
		}
		set(n, v)
	}
}

func dirStaveSizes(c *Context, _ int) {
	readStaveValuePairs(c, "stavesizes", func(n, v int) {
		sp := c.Movement.StaveSpacings[n]
		sp.ScaleHere = float64(v) / 1000
		c.Movement.StaveSpacings[n] = sp
	})
}

func dirStaveSpacing(c *Context, _ int) {
	readStaveValuePairs(c, "stavespacing", func(n, v int) {
		sp := c.Movement.StaveSpacings[n]
		sp.GapHere = v
		c.Movement.StaveSpacings[n] = sp
	})
}

func dirStaveGap(c *Context, which int) {
	readStaveValuePairs(c, "sg", func(n, v int) {
		sp := c.Movement.StaveSpacings[n]
		switch which {
		case 0:
			sp.GapAbove = v
		case 1:
			sp.GapHere = v
		case 2:
			sp.GapNext = v
		}
		c.Movement.StaveSpacings[n] = sp
	})
}

func dirStaveScale(c *Context, which int) {
	readStaveValuePairs(c, "ss", func(n, v int) {
		sp := c.Movement.StaveSpacings[n]
		scale := float64(v) / 1000
		switch which {
		case 0:
			sp.ScaleAbove = scale
		case 1:
			sp.ScaleHere = scale
		case 2:
			sp.ScaleNext = scale
		}
		c.Movement.StaveSpacings[n] = sp
	})
}

func dirStaveGroup(c *Context, which int) {
	list := c.ReadStaveList()
	if len(list) == 0 {
		c.Errs.Minorf(errsink.ErrBadStaveList, c.Loc(), "empty stave list")
		return
	}
	switch which {
	case 0:
		c.Movement.BracketedStaves = append(c.Movement.BracketedStaves, list)
	case 1:
		c.Movement.BracedStaves = append(c.Movement.BracedStaves, list)
	case 2:
		c.Movement.JoinedStaves = append(c.Movement.JoinedStaves, list)
	}
}

func dirTranspose(c *Context, _ int) {
	c.SkipWhite()
	n, ok := c.ReadInt()
	if !ok {
		c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "transpose wants a semitone count")
		c.SkipPast('\n')
		return
	}
	c.Movement.Transpose = n * ir.QuarterTonesPerSemitone
}

func dirBarlineStyle(c *Context, _ int) {
	c.SkipWhite()
	if c.Lx.C() >= '0' && c.Lx.C() <= '9' {
		n, _ := c.ReadInt()
		c.Movement.BarlineStyle = n
		return
	}
	w := c.Lx.NextWord()
	style, ok := valid.BarlineStyle(w)
	if !ok {
		c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "unknown barline style %q", w)
		c.SkipPast('\n')
		return
	}
	c.Movement.BarlineStyle = style
}

func dirStemSwapLevel(c *Context, _ int) {
	c.SkipWhite()
	n, ok := c.ReadInt()
	if !ok {
		c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "stemswaplevel wants a pitch")
		c.SkipPast('\n')
		return
	}
	c.Movement.StemSwapLevel = n
	c.Movement.Flags |= ir.MFStemSwap
}

func dirSheetSize(c *Context, _ int) {
	w := c.Lx.NextWord()
	p, ok := valid.PaperByName(w)
	if !ok {
		c.Errs.Minorf(errsink.ErrBadPaperSize, c.Loc(), "unknown paper size %q", w)
		c.SkipPast('\n')
		return
	}
	c.Paper = p
}

func dirMidiChannel(c *Context, _ int) {
	c.SkipWhite()
	channel, ok := c.ReadInt()
	if !ok || channel < 1 || channel > 16 {
		c.Errs.Minorf(errsink.ErrBadMidiChannel, c.Loc(), "midichannel wants a channel 1..16")
		c.SkipPast('\n')
		return
	}
	c.SkipWhite()
	voiceStr, ok := c.ReadQuoted()
	if !ok {
		c.Errs.Minorf(errsink.ErrBadMidiChannel, c.Loc(), "midichannel wants a voice name string")
		c.SkipPast('\n')
		return
	}
	// Voice names resolve through the user-supplied translation table; an
	// unknown name warns and defaults to voice 1.
	name := voiceStr.PlainText()
	program := 1
	if c.MidiVoices != nil {
		if n, found := c.MidiVoices.Number(name); found {
			program = n
		} else {
			c.Errs.Warningf(errsink.ErrBadMidiChannel, c.Loc(), "MIDI voice %q not found, using 1", name)
		}
	} else if name != "" {
		c.Errs.Warningf(errsink.ErrBadMidiChannel, c.Loc(), "MIDI voice %q not found, using 1", name)
	}
	for _, stave := range c.ReadStaveList() {
		c.Movement.Midi[stave] = ir.MidiMapping{
			Channel: channel,
			Program: program,
			Volume:  127,
		}
	}
}

// dirObsolete accepts the deprecated standalone forms of omitempty and
// stavelines, warns, and discards any argument.
func dirObsolete(c *Context, which int) {
	name := "omitempty"
	if which == 1 {
		name = "stavelines"
		c.SkipWhite()
		if n, ok := c.ReadInt(); ok && !valid.StaveLines(n) {
			c.Errs.Minorf(errsink.ErrBadHeaderArgument, c.Loc(), "stavelines %s out of range", strconv.Itoa(n))
		}
	}
	c.Errs.Warningf(errsink.ErrDeprecatedDirective, c.Loc(),
		"%s is obsolete as a header directive; use the stave form instead", name)
}
