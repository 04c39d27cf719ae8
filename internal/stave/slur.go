// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stave

import (
	"strings"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/ir"
)

// sdSlur opens a slur (arg1 0) or line (arg1 1) and pushes it onto the
// continuation's active chain.
func sdSlur(p *Parser, arg1 int) {
	s := &ir.Slur{}
	if arg1 == 1 {
		s.Flags |= ir.SFLine
	}
	p.applySlurOptions(s)
	p.cont.ActiveSlurs = append(p.cont.ActiveSlurs, s)
	kind := ir.EvSlurStart
	if arg1 == 1 {
		kind = ir.EvLine
	}
	p.bar.AddEvent(ir.Event{Kind: kind, Slur: s, StrArg: s.Identity})
	p.expectClose()
}

// sdEndSlur closes the matching slur/line: by /=id when given, else the
// most recently opened one still active.
func sdEndSlur(p *Parser, arg1 int) {
	id := ""
	for {
		opt, ok := p.readOption()
		if !ok {
			break
		}
		if strings.HasPrefix(opt, "=") {
			id = opt[1:]
		} else {
			p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(),
				"unknown endslur option %q", opt)
		}
	}
	s := p.removeSlur(id)
	if s == nil {
		p.ctx.Errs.Minorf(errsink.ErrNoSlurToEnd, p.ctx.Loc(), "no matching slur or line is open")
		p.expectClose()
		return
	}
	wantLine := arg1 == 1
	if (s.Flags&ir.SFLine != 0) != wantLine {
		p.ctx.Errs.Warningf(errsink.ErrNoSlurToEnd, p.ctx.Loc(),
			"slur/line ended with the wrong directive")
	}
	s.Closed = true
	p.bar.AddEvent(ir.Event{Kind: ir.EvEndSlur, Slur: s, StrArg: id})
	p.expectClose()
}

// sdSlurGap attaches a gap descriptor to the matching slur (arg1 0) or
// line (arg1 1).
func sdSlurGap(p *Parser, arg1 int) {
	ctx := p.ctx
	g := ir.Gap{}
	id := ""
	for {
		ctx.SkipWhite()
		if ctx.Lx.C() == '/' {
			// Peek for the string form /"text".
			ctx.Lx.NextC()
			if ctx.Lx.C() == '"' {
				if s, ok := ctx.ReadQuoted(); ok {
					g.Text = s.PlainText()
					g.HasText = true
				}
				continue
			}
			opt := p.readBareOption()
			p.applyGapOption(&g, &id, opt)
			continue
		}
		break
	}
	slur := p.findSlur(id)
	if slur == nil {
		ctx.Errs.Minorf(errsink.ErrBadGap, ctx.Loc(), "no matching slur or line for this gap")
		p.expectClose()
		return
	}
	slur.Gaps = append(slur.Gaps, g)
	kind := ir.EvSlurGap
	if arg1 == 1 || slur.Flags&ir.SFLine != 0 {
		kind = ir.EvLineGap
	}
	gp := g
	p.bar.AddEvent(ir.Event{Kind: kind, Gap: &gp, StrArg: id})
	p.expectClose()
}

// readBareOption reads an option token whose leading '/' has already
// been consumed.
func (p *Parser) readBareOption() string {
	var sb strings.Builder
	for {
		ch := p.ctx.Lx.C()
		if ch == '/' || ch == ']' || ch == '\n' || ch == -1 {
			return strings.TrimSpace(sb.String())
		}
		sb.WriteRune(ch)
		p.ctx.Lx.NextC()
	}
}

func (p *Parser) applyGapOption(g *ir.Gap, id *string, opt string) {
	switch {
	case opt == "":
	case opt == "box":
		g.Box = true
	case opt == "ring":
		g.Ring = true
	case strings.HasPrefix(opt, "="):
		*id = opt[1:]
	case strings.HasPrefix(opt, "draw"):
		name := strings.TrimSpace(opt[4:])
		if name == "" {
			p.ctx.Errs.Minorf(errsink.ErrBadGap, p.ctx.Loc(), "gap draw option wants a function name")
			return
		}
		g.Draw = &ir.DrawCall{FuncName: name}
	case strings.HasPrefix(opt, "w"):
		if n, ok := parseFixedString(opt[1:]); ok {
			g.Width = n
			return
		}
		p.ctx.Errs.Minorf(errsink.ErrBadGap, p.ctx.Loc(), "bad gap width %q", opt)
	case strings.HasPrefix(opt, "l"):
		if n, ok := parseFixedString(opt[1:]); ok {
			g.XOffset = -n
			return
		}
		p.ctx.Errs.Minorf(errsink.ErrBadGap, p.ctx.Loc(), "bad gap offset %q", opt)
	case strings.HasPrefix(opt, "r"):
		if n, ok := parseFixedString(opt[1:]); ok {
			g.XOffset = n
			return
		}
		p.ctx.Errs.Minorf(errsink.ErrBadGap, p.ctx.Loc(), "bad gap offset %q", opt)
	case strings.HasPrefix(opt, "h"):
		if opt == "h" {
			g.HalfwayPct = 0.5
			return
		}
		if n, ok := parseFixedString(opt[1:]); ok {
			g.HalfwayPct = float64(n) / 1000
			return
		}
		p.ctx.Errs.Minorf(errsink.ErrBadGap, p.ctx.Loc(), "bad gap fraction %q", opt)
	default:
		p.ctx.Errs.Minorf(errsink.ErrBadGap, p.ctx.Loc(), "unknown gap option %q", opt)
	}
}

// findSlur locates the active slur matching id, or the most recent one
// when id is empty.
func (p *Parser) findSlur(id string) *ir.Slur {
	for i := len(p.cont.ActiveSlurs) - 1; i >= 0; i-- {
		s := p.cont.ActiveSlurs[i]
		if id == "" || s.Identity == id {
			return s
		}
	}
	return nil
}

// removeSlur removes and returns the active slur matching id.
func (p *Parser) removeSlur(id string) *ir.Slur {
	for i := len(p.cont.ActiveSlurs) - 1; i >= 0; i-- {
		s := p.cont.ActiveSlurs[i]
		if id == "" || s.Identity == id {
			p.cont.ActiveSlurs = append(p.cont.ActiveSlurs[:i], p.cont.ActiveSlurs[i+1:]...)
			return s
		}
	}
	return nil
}

// applySlurOptions reads the option list of a [slur] or [line]
// directive. A bare numeric token selects the split section that later
// endpoint modifiers apply to; section 0 is the unsplit/final section.
func (p *Parser) applySlurOptions(s *ir.Slur) {
	section := 0
	for {
		opt, ok := p.readOption()
		if !ok {
			return
		}
		if opt == "" {
			continue
		}
		if isAllDigits(opt) {
			section = 0
			for _, ch := range opt {
				section = section*10 + int(ch-'0')
			}
			continue
		}
		switch opt {
		case "abs":
			s.Flags |= ir.SFAbs
		case "b":
			s.Flags |= ir.SFBelow
		case "bu":
			s.Flags |= ir.SFBelowUp
		case "a":
			s.Flags |= ir.SFAbove
		case "ao":
			s.Flags |= ir.SFAboveOverride
		case "w":
			s.Flags |= ir.SFWiggle
		case "i":
			s.Flags |= ir.SFIntermittent
		case "ip":
			s.Flags |= ir.SFIntermittent | ir.SFIntermittentDotted
		case "e":
			s.Flags |= ir.SFEditorial
		case "ol":
			s.Flags |= ir.SFOpenLeft
		case "or":
			s.Flags |= ir.SFOpenRight
		case "h":
			s.Flags |= ir.SFHorizontal
		case "cx":
			s.Flags |= ir.SFExchangeEndpoints
		default:
			p.applySlurModOption(s, section, opt)
		}
	}
}

// slurModSetters maps the endpoint/curvature modifier prefixes to the
// SlurMod field each one adjusts.
var slurModSetters = map[string]func(*ir.SlurMod, int){
	"lu":  func(m *ir.SlurMod, v int) { m.LeftUp = v },
	"ld":  func(m *ir.SlurMod, v int) { m.LeftDown = v },
	"ll":  func(m *ir.SlurMod, v int) { m.LeftLeft = v },
	"lr":  func(m *ir.SlurMod, v int) { m.LeftRight = v },
	"llc": func(m *ir.SlurMod, v int) { m.LeftCurve = v },
	"lrc": func(m *ir.SlurMod, v int) { m.RightCurve = v },
	"ru":  func(m *ir.SlurMod, v int) { m.RightUp = v },
	"rd":  func(m *ir.SlurMod, v int) { m.RightDown = v },
	"rl":  func(m *ir.SlurMod, v int) { m.RightLeft = v },
	"rr":  func(m *ir.SlurMod, v int) { m.RightRight = v },
	"c":   func(m *ir.SlurMod, v int) { m.Curvature = v },
}

func (p *Parser) applySlurModOption(s *ir.Slur, section int, opt string) {
	if strings.HasPrefix(opt, "=") {
		id := opt[1:]
		if !isAlnumString(id) {
			p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(),
				"slur identity %q must be alphanumeric", id)
			return
		}
		s.Identity = id
		return
	}
	// Longest prefix first so "llc2" doesn't match "ll".
	for _, prefix := range []string{"llc", "lrc", "lu", "ld", "ll", "lr", "ru", "rd", "rl", "rr", "c"} {
		if !strings.HasPrefix(opt, prefix) {
			continue
		}
		v, ok := parseFixedString(opt[len(prefix):])
		if !ok {
			continue
		}
		mod := s.ModFor(section)
		slurModSetters[prefix](mod, v)
		return
	}
	p.ctx.Errs.Minorf(errsink.ErrUnknownStaveDirective, p.ctx.Loc(), "unknown slur option %q", opt)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func isAlnumString(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		default:
			return false
		}
	}
	return true
}
