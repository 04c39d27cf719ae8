// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stave

import (
	"strings"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/pmwstring"
)

// staveString reads a `"..."` stave string and its trailing `/`-options:
// placement, alignment, decoration, rotation, size, underlay/overlay
// selection and offsets. A string followed by /" introduces up to two
// further strings forming an underlay hyphen-pattern record.
func (p *Parser) staveString() {
	ctx := p.ctx
	s, ok := ctx.ReadQuoted()
	if !ok {
		ctx.SkipPast('\n')
		return
	}
	text := &ir.StaveText{Text: s}
	hyphenStrings := []pmwstring.String{}
	for {
		ctx.SkipWhite()
		if ctx.Lx.C() != '/' {
			break
		}
		ctx.Lx.NextC()
		if ctx.Lx.C() == '"' {
			if h, ok := ctx.ReadQuoted(); ok {
				if len(hyphenStrings) < 2 {
					hyphenStrings = append(hyphenStrings, h)
				} else {
					ctx.Errs.Minorf(errsink.ErrBadStaveString, ctx.Loc(),
						"at most two hyphen-pattern strings may follow a string")
				}
			}
			continue
		}
		opt := p.readBareOption()
		p.applyTextOption(text, opt)
	}
	if len(hyphenStrings) > 0 {
		pat := pmwstring.HyphenPattern{EndOfLine: hyphenStrings[0]}
		if len(hyphenStrings) > 1 {
			pat.Continuation = hyphenStrings[1]
		}
		ctx.Hyphens.Intern(pat)
	}
	// Follow-on cannot combine with a ring or box: warn and clear, keeping
	// the decoration.
	if text.FollowOn && (text.Box || text.RBox || text.Ring) {
		ctx.Errs.Warningf(errsink.ErrFollowOnDecorated, ctx.Loc(),
			"/F cannot be used with boxed or ringed strings; ignored")
		text.FollowOn = false
	}
	if text.Underlay || text.Overlay {
		if text.Underlay {
			p.cont.PendingUnderlay = append(p.cont.PendingUnderlay, *text)
		} else {
			p.cont.PendingOverlay = append(p.cont.PendingOverlay, *text)
		}
	}
	p.bar.AddEvent(ir.Event{Kind: ir.EvText, Text: text})
}

func (p *Parser) applyTextOption(t *ir.StaveText, opt string) {
	ctx := p.ctx
	switch opt {
	case "":
		return
	case "a":
		t.Above = true
		return
	case "ao":
		t.Above, t.AboveUp = true, true
		return
	case "b":
		t.Below = true
		return
	case "bu":
		t.Below, t.BelowUp = true, true
		return
	case "c", "cb", "e", "ts", "bar":
		t.Align = opt
		return
	case "box":
		t.Box = true
		return
	case "rbox":
		t.RBox = true
		return
	case "ring":
		t.Ring = true
		return
	case "h":
		t.Halfway = true
		return
	case "F":
		t.FollowOn = true
		return
	case "ul":
		t.Underlay = true
		return
	case "ol":
		t.Overlay = true
		return
	case "fb":
		t.FirstBar = true
		return
	case "fbu":
		t.FirstBar, t.FirstBarUp = true, true
		return
	}
	switch {
	case strings.HasPrefix(opt, "rot"):
		if n, ok := parseFixedString(opt[3:]); ok {
			t.Rotate = n / 1000
			return
		}
	case strings.HasPrefix(opt, "s"):
		if n, ok := parseFixedString(opt[1:]); ok {
			t.Size = n
			return
		}
	case strings.HasPrefix(opt, "y"):
		if n, ok := parseFixedString(opt[1:]); ok {
			t.AbsoluteY = true
			t.Y = n
			return
		}
	case strings.HasPrefix(opt, "l"):
		if n, ok := parseFixedString(opt[1:]); ok {
			t.XOffset = -n
			return
		}
	case strings.HasPrefix(opt, "r"):
		if n, ok := parseFixedString(opt[1:]); ok {
			t.XOffset = n
			return
		}
	}
	ctx.Errs.Minorf(errsink.ErrBadStaveString, ctx.Loc(), "unknown string option %q", opt)
}
