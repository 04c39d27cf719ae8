// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package header

import (
	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/pmwstring"
	"github.com/ellisgrant/pmw/internal/transpose"
	"github.com/ellisgrant/pmw/internal/valid"
)

// MidiVoiceTable resolves MIDI voice names to General MIDI program
// numbers. The names come from a user-supplied translation file loaded
// outside the core; no production table lives in this module. An
// unresolved name is not an error -- the caller warns and falls back to
// voice 1.
type MidiVoiceTable interface {
	Number(name string) (program int, ok bool)
}

// Context is the parser state threaded explicitly through the header and
// stave parsers: the shared lexer, the document being built, the current
// movement and stave, the transposer, and the diagnostic sink. It replaces
// the module-global current-movement/current-stave pointers of a more
// traditional design.
type Context struct {
	Lx         *lexer.Lexer
	Errs       *errsink.Sink
	Doc        *ir.Document
	Movement   *ir.Movement
	Stave      *ir.Stave
	Transposer *transpose.Transposer
	Hyphens    *pmwstring.HyphenTable
	MidiVoices MidiVoiceTable

	// Paper is the sheetsize directive's selection; it defaults to a4.
	Paper valid.PaperInfo

	primed bool
}

// NewContext wires a Context around lx, creating the document and its
// first movement. The lexer's error reporting is routed into sink.
func NewContext(lx *lexer.Lexer, sink *errsink.Sink) *Context {
	doc := &ir.Document{}
	c := &Context{
		Lx:      lx,
		Errs:    sink,
		Doc:     doc,
		Hyphens: &pmwstring.HyphenTable{},
	}
	c.Movement = doc.NewMovement()
	c.Paper, _ = valid.PaperByName("a4")
	lx.Errors = lexerAdapter{c}
	return c
}

// lexerAdapter routes lexer diagnostics into the shared sink as Minor.
type lexerAdapter struct{ c *Context }

func (a lexerAdapter) Errorf(format string, args ...interface{}) {
	a.c.Errs.Minorf(errsink.ErrBadDirective, a.c.Loc(), format, args...)
}

// Loc captures the lexer's current source position for a diagnostic.
func (c *Context) Loc() errsink.Location {
	file, line := c.Lx.Position()
	return errsink.Location{File: file, Line: line}
}

// Prime reads the first character if the lexer hasn't been advanced yet.
func (c *Context) Prime() {
	if !c.primed {
		c.Lx.NextC()
		c.primed = true
	}
}

// SkipWhite advances past spaces, tabs and newlines.
func (c *Context) SkipWhite() {
	for {
		ch := c.Lx.C()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			c.Lx.NextC()
			continue
		}
		return
	}
}

// SkipPast consumes input up to and including target, stopping early at
// end of line when target is not a newline, or at end of file. It is the
// "skip" argument of the skipping diagnostic emitters: resynchronisation
// after a malformed directive.
func (c *Context) SkipPast(target rune) {
	for {
		ch := c.Lx.C()
		if ch == lexer.ENDFILE {
			return
		}
		if ch == target {
			c.Lx.NextC()
			return
		}
		if ch == '\n' && target != '\n' {
			return
		}
		c.Lx.NextC()
	}
}

// ReadInt reads an optionally-signed decimal integer starting at the
// current character. ok is false if no digit is present.
func (c *Context) ReadInt() (n int, ok bool) {
	neg := false
	if c.Lx.C() == '-' {
		neg = true
		c.Lx.NextC()
	}
	for c.Lx.C() >= '0' && c.Lx.C() <= '9' {
		n = n*10 + int(c.Lx.C()-'0')
		ok = true
		c.Lx.NextC()
	}
	if neg {
		n = -n
	}
	return
}

// ReadFixed reads a decimal number with up to three fractional digits and
// returns it in thousandths (the module's fixed-point dimension unit).
func (c *Context) ReadFixed() (thousandths int, ok bool) {
	neg := false
	if c.Lx.C() == '-' {
		neg = true
		c.Lx.NextC()
	}
	whole := 0
	for c.Lx.C() >= '0' && c.Lx.C() <= '9' {
		whole = whole*10 + int(c.Lx.C()-'0')
		ok = true
		c.Lx.NextC()
	}
	frac, scale := 0, 100
	if c.Lx.C() == '.' {
		c.Lx.NextC()
		for c.Lx.C() >= '0' && c.Lx.C() <= '9' {
			if scale > 0 {
				frac += int(c.Lx.C()-'0') * scale
				scale /= 10
			}
			ok = true
			c.Lx.NextC()
		}
	}
	thousandths = whole*1000 + frac
	if neg {
		thousandths = -thousandths
	}
	return
}

// ReadQuoted reads a `"..."` string literal starting at the opening quote
// and decodes its escape sequences into a PmwString. The current character
// is left on the one following the closing quote.
func (c *Context) ReadQuoted() (pmwstring.String, bool) {
	if c.Lx.C() != '"' {
		return nil, false
	}
	var raw []rune
	for {
		ch := c.Lx.NextC()
		if ch == lexer.ENDFILE || ch == '\n' {
			c.Errs.Minorf(errsink.ErrBadStaveString, c.Loc(), "unterminated string")
			return nil, false
		}
		if ch == '\\' {
			raw = append(raw, ch)
			ch = c.Lx.NextC()
			if ch == lexer.ENDFILE || ch == '\n' {
				c.Errs.Minorf(errsink.ErrBadStaveString, c.Loc(), "unterminated string")
				return nil, false
			}
			raw = append(raw, ch)
			switch ch {
			case '"', '|', '\\', '-', '=', '#':
			default:
				// A word escape such as \it\ or \*#\ runs to its own
				// closing backslash, which must not pair with a following
				// quote; \c] has no closing backslash.
				start := len(raw) - 1
				for ch != '\\' && string(raw[start:]) != "c]" && string(raw[start:]) != "C]" {
					ch = c.Lx.NextC()
					if ch == lexer.ENDFILE || ch == '\n' {
						c.Errs.Minorf(errsink.ErrBadStaveString, c.Loc(), "unterminated string")
						return nil, false
					}
					raw = append(raw, ch)
				}
			}
			continue
		}
		if ch == '"' {
			c.Lx.NextC()
			break
		}
		raw = append(raw, ch)
	}
	transposeQt := 0
	if c.Transposer != nil {
		transposeQt = c.Transposer.QuarterTones
	}
	rd := pmwstring.NewReader(string(raw), pmwstring.FontRoman, transposeQt/ir.QuarterTonesPerSemitone, 0, 0)
	s, err := rd.Read()
	if err != nil {
		c.Errs.Minorf(errsink.ErrBadStringEscape, c.Loc(), "%v", err)
	}
	return s, true
}

// ReadKeyToken reads a key-signature name: a letter A..G with optional
// '#'/'$' and optional 'm', "n" for none, or "x<digits>" for a custom key.
// The token is returned lowercased.
func (c *Context) ReadKeyToken() string {
	c.SkipWhite()
	var out []rune
	ch := c.Lx.C()
	if !isLetterRune(ch) {
		return ""
	}
	out = append(out, lowerRune(ch))
	ch = c.Lx.NextC()
	if out[0] == 'x' {
		for ch >= '0' && ch <= '9' {
			out = append(out, ch)
			ch = c.Lx.NextC()
		}
		return string(out)
	}
	for ch == '#' || ch == '$' {
		out = append(out, ch)
		ch = c.Lx.NextC()
	}
	if ch == 'm' || ch == 'M' {
		out = append(out, 'm')
		c.Lx.NextC()
	}
	return string(out)
}

// ReadTimeSig reads a time signature: `[mul*]num/den`, or the letters C
// (common) and A (cut).
func (c *Context) ReadTimeSig() (ir.TimeSig, bool) {
	c.SkipWhite()
	ch := c.Lx.C()
	if ch == 'c' || ch == 'C' {
		c.Lx.NextC()
		return ir.TimeSig{Multiplier: 1, Numerator: 4, Denominator: 4, Common: true}, true
	}
	if ch == 'a' || ch == 'A' {
		c.Lx.NextC()
		return ir.TimeSig{Multiplier: 1, Numerator: 2, Denominator: 2, Cut: true}, true
	}
	first, ok := c.ReadInt()
	if !ok {
		return ir.TimeSig{}, false
	}
	ts := ir.TimeSig{Multiplier: 1}
	if c.Lx.C() == '*' {
		c.Lx.NextC()
		num, ok2 := c.ReadInt()
		if !ok2 {
			return ir.TimeSig{}, false
		}
		ts.Multiplier = first
		ts.Numerator = num
	} else {
		ts.Numerator = first
	}
	if c.Lx.C() != '/' {
		return ir.TimeSig{}, false
	}
	c.Lx.NextC()
	den, ok3 := c.ReadInt()
	if !ok3 || !valid.TimeDenominator(den) {
		return ir.TimeSig{}, false
	}
	ts.Denominator = den
	return ts, true
}

// ReadStaveList reads a list of stave numbers and ranges like "1-2 4".
func (c *Context) ReadStaveList() []int {
	var out []int
	for {
		c.SkipWhite()
		lo, ok := c.ReadInt()
		if !ok {
			return out
		}
		hi := lo
		if c.Lx.C() == '-' {
			c.Lx.NextC()
			if h, ok2 := c.ReadInt(); ok2 {
				hi = h
			}
		}
		for n := lo; n <= hi; n++ {
			if valid.StaveNumber(n) {
				out = append(out, n)
			} else {
				c.Errs.Minorf(errsink.ErrBadStaveList, c.Loc(), "stave number %d out of range", n)
			}
		}
		if c.Lx.C() == ',' {
			c.Lx.NextC()
		}
		if c.Lx.C() == '\n' || c.Lx.C() == lexer.ENDFILE {
			return out
		}
		if !isDigitOrSpace(c.Lx.C()) {
			return out
		}
	}
}

func isLetterRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func lowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 'a' - 'A'
	}
	return r
}

func isDigitOrSpace(r rune) bool {
	return (r >= '0' && r <= '9') || r == ' ' || r == '\t' || r == ','
}

// ResolveKey turns a key token into a Key, consulting the movement's
// makekey table for custom X keys. The bool reports success; unsupported
// enharmonic keys report a Major diagnostic and fall back to C, per "error
// ... parsing continues with key set to C".
func (c *Context) ResolveKey(tok string) (ir.Key, bool) {
	if tok == "" {
		c.Errs.Minorf(errsink.ErrBadKeySignature, c.Loc(), "missing key name")
		return ir.Key{}, false
	}
	if tok[0] == 'x' {
		k, ok := c.Movement.CustomKeys[tok]
		if !ok {
			c.Errs.Minorf(errsink.ErrBadKeySignature, c.Loc(), "custom key %q has no makekey definition", tok)
			return ir.Key{}, false
		}
		return k, true
	}
	k, err := ir.ParseKeyName(tok)
	if err == ir.ErrUnsupportedKey {
		c.Errs.Majorf(errsink.ErrUnsupportedKey, c.Loc(), "unsupported key signature %q", tok)
		ck, _ := ir.ParseKeyName("c")
		return ck, true
	}
	if err != nil {
		c.Errs.Minorf(errsink.ErrBadKeySignature, c.Loc(), "%v", err)
		return ir.Key{}, false
	}
	return k, true
}
