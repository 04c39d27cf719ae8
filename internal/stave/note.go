// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stave

import (
	"strings"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/transpose"
)

// noteLetterIndex maps source note letters to the C-major letter
// numbering (0=C..6=B) used throughout the IR.
var noteLetterIndex = map[rune]int{
	'c': 0, 'd': 1, 'e': 2, 'f': 3, 'g': 4, 'a': 5, 'b': 6,
}

// tryReadAccidental consumes an accidental spelling at the current
// character: #, ##, #h (half sharp), $, $$, $h (half flat), or %.
func (p *Parser) tryReadAccidental() (ir.Accidental, bool) {
	lx := p.ctx.Lx
	switch lx.C() {
	case '#':
		switch lx.NextC() {
		case '#':
			lx.NextC()
			return ir.AccDoubleSharp, true
		case 'h':
			lx.NextC()
			return ir.AccHalfSharp, true
		}
		return ir.AccSharp, true
	case '$':
		switch lx.NextC() {
		case '$':
			lx.NextC()
			return ir.AccDoubleFlat, true
		case 'h':
			lx.NextC()
			return ir.AccHalfFlat, true
		}
		return ir.AccFlat, true
	case '%':
		lx.NextC()
		return ir.AccNatural, true
	}
	return ir.AccNone, false
}

// parseNote reads one note, rest or pitch placeholder starting at the
// current character.
func (p *Parser) parseNote() {
	acc, explicit := p.tryReadAccidental()
	p.parseNoteWithAccidental(acc, explicit)
}

// parseNoteWithAccidental is the body of the note parser, entered after
// any leading accidental has been consumed.
func (p *Parser) parseNoteWithAccidental(acc ir.Accidental, explicitAcc bool) {
	ctx := p.ctx
	lx := ctx.Lx

	note := &ir.Note{}
	if p.havePendingAcc {
		acc, explicitAcc = p.pendingAcc, true
		note.AccBracket = true
		note.AccLeftExtra = p.pendingAccOffset
		p.havePendingAcc = false
	}

	// Accidental left-shift: #<2>c moves the sharp 2 points left.
	if explicitAcc && lx.C() == '<' {
		lx.NextC()
		if n, ok := ctx.ReadFixed(); ok {
			note.AccLeftExtra = n
		}
		if lx.C() == '>' {
			lx.NextC()
		}
	}

	ch := lx.C()
	isRest := ch == 'r' || ch == 'R'
	isPlaceholder := ch == 'p'
	letter, octave := 0, 4
	if isRest || isPlaceholder {
		if explicitAcc {
			ctx.Errs.Minorf(errsink.ErrBadAccidental, ctx.Loc(), "an accidental cannot precede a rest")
			explicitAcc = false
			acc = ir.AccNone
		}
		lx.NextC()
	} else {
		lower := ch
		if ch >= 'A' && ch <= 'G' {
			lower = ch + 'a' - 'A'
			octave = 3 // upper-case letters sound an octave lower
		}
		idx, ok := noteLetterIndex[lower]
		if !ok {
			ctx.Errs.Minorf(errsink.ErrBadNote, ctx.Loc(), "expected a note letter, got %q", string(ch))
			lx.NextC()
			return
		}
		letter = idx
		lx.NextC()
	}

	for {
		if lx.C() == '\'' {
			octave++
			lx.NextC()
			continue
		}
		if lx.C() == '`' {
			octave--
			lx.NextC()
			continue
		}
		break
	}

	noteType, dots := p.readLength()
	note.Type = noteType
	note.Dots = dots
	note.IsRest = isRest
	note.Accidental = acc

	if isPlaceholder {
		note.SamePitchAsPrev = true
		if p.lastNote == nil || p.lastNote.IsRest {
			ctx.Errs.Minorf(errsink.ErrBadNote, ctx.Loc(), "'p' has no previous pitch to repeat")
			note.IsRest = true
		} else {
			note.Pitch = p.lastNote.Pitch
			note.Spitch = p.lastNote.Spitch
			note.AbsPitch = p.lastNote.AbsPitch
		}
	}

	if lx.C() == '\\' {
		p.readNoteOptions(note)
	}

	if !isRest && !isPlaceholder {
		p.resolvePitch(note, letter, octave, acc, explicitAcc)
	}

	if lx.C() == '_' {
		lx.NextC()
		p.cont.TieAwaiting = true
	}

	p.record(note)
}

// resolvePitch folds the bar's accidental memory and any transposition
// into the note's stave position and absolute pitch.
func (p *Parser) resolvePitch(note *ir.Note, letter, octave int, acc ir.Accidental, explicit bool) {
	ctx := p.ctx
	effective := acc
	if explicit {
		p.cont.BarAccidentals[letter] = acc
	} else {
		effective = p.cont.BarAccidentals[letter]
	}
	pitch := ir.Pitch{Letter: letter, Accidental: effective, Octave: octave}
	note.Pitch = ir.Pitch{Letter: letter, Accidental: acc, Octave: octave}
	note.Spitch = pitch.Spitch(p.cont.Clef)
	note.AbsPitch = pitch.AbsPitch()

	tr := ctx.Transposer
	if tr != nil && tr.QuarterTones != 0 {
		tie := transpose.TieState{}
		if p.cont.TieAwaiting {
			tie.TieCount = 1
		}
		sp, newAcc, abs, err := tr.TransposeNote(pitch, p.cont.Clef, effective, false, tie)
		if err != nil {
			ctx.Errs.Majorf(errsink.ErrTransposeNeedKey, ctx.Loc(), "%v", err)
		} else {
			note.Spitch = sp
			note.AbsPitch = abs
			if explicit {
				note.Accidental = newAcc
			}
		}
	}
	p.stave.Stats.Observe(note.AbsPitch)
	p.stave.NoteLengthHistogram[note.Type]++
	p.lastNote = note
}

// record appends the note to the bar, with chord membership and
// bar-length bookkeeping.
func (p *Parser) record(note *ir.Note) {
	ctx := p.ctx
	if p.inChord && p.chordHead != nil {
		if note.IsRest {
			ctx.Errs.Minorf(errsink.ErrRestInChord, ctx.Loc(), "a rest cannot be a chord member")
			return
		}
		// Members share the head's note type and length; only the head
		// carries accents.
		if note.Type != p.chordHead.Type || note.Dots != p.chordHead.Dots {
			ctx.Errs.Warningf(errsink.ErrBadNote, ctx.Loc(), "chord members must share the head note's length")
			note.Type = p.chordHead.Type
			note.Dots = p.chordHead.Dots
		}
		if note.Accents != 0 {
			ctx.Errs.Warningf(errsink.ErrBadNoteOption, ctx.Loc(), "accents belong on the first chord note only")
			note.Accents = 0
		}
		note.Flags |= ir.NFChord
		p.bar.AddEvent(ir.Event{Kind: ir.EvChordNote, Note: note})
		return
	}
	kind := ir.EvNote
	if note.IsRest {
		kind = ir.EvRest
	}
	p.bar.AddEvent(ir.Event{Kind: kind, Note: note})
	if p.inChord {
		p.chordHead = note
	}
	length := p.pletScale(note.Type.Length(note.Dots))
	if note.Flags&ir.NFGrace == 0 {
		p.bar.AccumulateLength(length, p.barLength)
	}
	if p.cont.TieAwaiting && !note.IsRest {
		p.cont.TieAwaiting = false
	}
}

// readLength decodes the note-length suffix: `+` doubles (minim,
// semibreve, breve), `-` quaver, `=` semiquaver, `=-` demisemiquaver,
// `==` hemidemisemiquaver, plus the letter forms m (minim), q (quaver),
// s (semibreve), sq (semiquaver) and ! (breve), followed by up to two
// augmentation dots. A bare letter repeats the previous note's length
// (crotchet at the start of a stave).
func (p *Parser) readLength() (ir.NoteType, int) {
	lx := p.ctx.Lx
	nt := ir.NoteType(-1)
	switch lx.C() {
	case '+':
		nt = ir.NTMinim
		if lx.NextC() == '+' {
			nt = ir.NTSemibreve
			if lx.NextC() == '+' {
				nt = ir.NTBreve
				lx.NextC()
			}
		}
	case '-':
		nt = ir.NTQuaver
		lx.NextC()
	case '=':
		nt = ir.NTSemiquaver
		switch lx.NextC() {
		case '-':
			nt = ir.NTDemisemiquaver
			lx.NextC()
		case '=':
			nt = ir.NTHemidemisemiquaver
			lx.NextC()
		}
	case 'm':
		nt = ir.NTMinim
		lx.NextC()
	case 'q':
		nt = ir.NTQuaver
		lx.NextC()
	case 's':
		nt = ir.NTSemibreve
		if lx.NextC() == 'q' {
			nt = ir.NTSemiquaver
			lx.NextC()
		}
	case '!':
		nt = ir.NTBreve
		lx.NextC()
	}
	dots := 0
	for lx.C() == '.' && dots < 2 {
		dots++
		lx.NextC()
	}
	if nt == ir.NoteType(-1) {
		nt = p.lastType
		if dots == 0 {
			dots = p.lastDots
		}
	}
	p.lastType, p.lastDots = nt, dots
	return nt, dots
}

// readNoteOptions parses the `\options\` section: slash-separated keys
// for stem direction, cue/small/grace sizing, head styles, masquerade,
// stem-length delta, and accents/ornaments.
func (p *Parser) readNoteOptions(note *ir.Note) {
	ctx := p.ctx
	lx := ctx.Lx
	var raw []rune
	for {
		ch := lx.NextC()
		if ch == '\\' {
			lx.NextC()
			break
		}
		if ch == '\n' || ch == -1 {
			ctx.Errs.Minorf(errsink.ErrBadNoteOption, ctx.Loc(), "unterminated note options")
			return
		}
		raw = append(raw, ch)
	}
	for _, opt := range strings.Split(string(raw), "/") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		p.applyNoteOption(note, opt)
	}
}

func (p *Parser) applyNoteOption(note *ir.Note, opt string) {
	ctx := p.ctx
	switch opt {
	case "u":
		note.Flags |= ir.NFStemUp | ir.NFStemForce
		note.Flags &^= ir.NFStemDown
		return
	case "d":
		note.Flags |= ir.NFStemDown | ir.NFStemForce
		note.Flags &^= ir.NFStemUp
		return
	case "c":
		note.Flags |= ir.NFCue
		return
	case "cd":
		note.Flags |= ir.NFCue | ir.NFCueDotAlign
		return
	case "sm":
		note.Flags |= ir.NFSmallHead
		return
	case "g":
		note.Flags |= ir.NFGrace
		return
	case "nh":
		note.Flags |= ir.NFNoHead
		return
	case "ih":
		note.Flags |= ir.NFInvertHead
		return
	case "t":
		note.Flags |= ir.NFTripletize
		return
	case "hh":
		note.HeadStyle = ir.NHHarmonic
		return
	case "hx":
		note.HeadStyle = ir.NHCross
		return
	case "hn":
		note.HeadStyle = ir.NHNone
		return
	case "ho":
		note.HeadStyle = ir.NHOnly
		return
	case "hd":
		note.HeadStyle = ir.NHDirect
		return
	case ".":
		note.Accents |= ir.AccStaccato
		return
	case "..":
		note.Accents |= ir.AccStaccatissimo
		return
	case "-":
		note.Accents |= ir.AccTenuto
		return
	case "v":
		note.Accents |= ir.AccWedge
		return
	case "bar":
		note.Accents |= ir.AccBar
		return
	case ">":
		note.Accents |= ir.AccGT
		return
	case "o":
		note.Accents |= ir.AccRing
		return
	case "db":
		note.Accents |= ir.AccDownBow
		return
	case "ub":
		note.Accents |= ir.AccUpBow
		return
	case "!":
		note.Accents |= ir.AccOpposite
		return
	case "tr":
		note.Accents |= ir.AccTremolo1
		return
	case "tr2":
		note.Accents |= ir.AccTremolo2
		return
	case "tr3":
		note.Accents |= ir.AccTremolo3
		return
	}
	switch {
	case strings.HasPrefix(opt, "ma"):
		nt, ok := lengthFromSuffix(opt[2:])
		if !ok {
			ctx.Errs.Minorf(errsink.ErrBadNoteOption, ctx.Loc(), "bad masquerade length %q", opt)
			return
		}
		note.Masquerade = nt
		return
	case strings.HasPrefix(opt, "ye"):
		n, ok := parseFixedString(opt[2:])
		if !ok {
			ctx.Errs.Minorf(errsink.ErrBadNoteOption, ctx.Loc(), "bad stem-length delta %q", opt)
			return
		}
		note.YExtra = n
		return
	}
	ctx.Errs.Minorf(errsink.ErrBadNoteOption, ctx.Loc(), "unknown note option %q", opt)
}

// lengthFromSuffix decodes a length shorthand used by the masquerade
// option, reusing the same vocabulary as the main length suffixes.
func lengthFromSuffix(s string) (ir.NoteType, bool) {
	switch s {
	case "":
		return ir.NTCrotchet, true
	case "+":
		return ir.NTMinim, true
	case "++":
		return ir.NTSemibreve, true
	case "+++":
		return ir.NTBreve, true
	case "-":
		return ir.NTQuaver, true
	case "=":
		return ir.NTSemiquaver, true
	case "=-":
		return ir.NTDemisemiquaver, true
	case "==":
		return ir.NTHemidemisemiquaver, true
	case "m":
		return ir.NTMinim, true
	case "q":
		return ir.NTQuaver, true
	case "s":
		return ir.NTSemibreve, true
	case "sq":
		return ir.NTSemiquaver, true
	case "!":
		return ir.NTBreve, true
	}
	return ir.NTCrotchet, false
}

// parseFixedString converts a decimal string to thousandths.
func parseFixedString(s string) (int, bool) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac, scale := 0, 0, 100
	seen := false
	inFrac := false
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			seen = true
			if inFrac {
				if scale > 0 {
					frac += int(ch-'0') * scale
					scale /= 10
				}
			} else {
				whole = whole*10 + int(ch-'0')
			}
		case ch == '.' && !inFrac:
			inFrac = true
		default:
			return 0, false
		}
	}
	if !seen {
		return 0, false
	}
	n := whole*1000 + frac
	if neg {
		n = -n
	}
	return n, true
}
