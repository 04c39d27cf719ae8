// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pmwstring

// ShapingService is an external text-shaping collaborator: something that
// reorders/ligates a run of same-font characters (Arabic, Indic scripts,
// ...). Check's job is only to call it on the right runs and splice the
// result back in; no production implementation lives in this module.
type ShapingService interface {
	// Shape reorders/ligates the Unicode text of one same-font run and
	// returns the replacement Units, preserving font on every output Unit.
	Shape(font uint8, text string) (String, error)
}

// HighTree looks up a font's private encoding slot for a code point above
// MaxUnicode (backed by internal/otree in a full build).
type HighTree interface {
	Lookup(font uint8, code uint32) (slot uint32, ok bool)
	Fallback(font uint8) uint32
}

// Context carries the collaborators and per-run context string_check
// needs: which fonts require shaping, which separators break a shaping
// run (so hyphenated syllables in underlay text don't get reordered across
// word boundaries), and where missing glyphs get recorded.
type Context struct {
	Shaper           ShapingService
	HighChars        HighTree
	ShapedFonts      map[uint8]bool
	Separators       string // run-breaking characters, used in underlay/overlay/stave-name mode
	IsLyricsContext  bool   // underlay/overlay/stave-name: never reorder across Separators
	OnMissingGlyph   func(font uint8, code uint32)
	standardEncoded  map[uint8]bool
}

// simpleRemap implements "maps curly-quote/ff-ligature/
// newline->space in standard-encoded fonts".
var simpleRemap = map[uint32]uint32{
	0x2018: '\'', 0x2019: '\'', // curly single quotes
	0x201C: '"', 0x201D: '"', // curly double quotes
	0xFB00: 'f', // ff ligature -- not a perfect substitute, but standard-encoded fonts have no ligature glyph
	'\n':   ' ',
}

// Check runs the text-shaping post-pass: text-shaping on runs of
// same-font characters in fonts flagged for it (split at Separators when
// IsLyricsContext), curly-quote/ligature/newline mapping in
// standard-encoded fonts, and private-use remapping of out-of-range code
// points with missing-glyph tracking.
func (c *Context) Check(s String) (String, error) {
	var out String
	i := 0
	for i < len(s) {
		font := s[i].Font()
		j := i
		for j < len(s) && s[j].Font() == font {
			if c.IsLyricsContext && c.Separators != "" && j > i {
				code := s[j].Code()
				if code <= MaxUnicode && containsRune(c.Separators, rune(code)) {
					break
				}
			}
			j++
		}
		run := s[i:j]
		mapped, err := c.mapRun(font, run)
		if err != nil {
			return out, err
		}
		out = append(out, mapped...)
		i = j
	}
	return out, nil
}

func (c *Context) mapRun(font uint8, run String) (String, error) {
	if c.Shaper != nil && c.ShapedFonts != nil && c.ShapedFonts[font] {
		text := run.PlainText()
		return c.Shaper.Shape(font, text)
	}
	out := make(String, 0, len(run))
	standard := c.standardEncoded == nil || c.standardEncoded[font]
	for _, u := range run {
		code := u.Code()
		if standard {
			if r, ok := simpleRemap[code]; ok {
				code = r
			}
		}
		if code > MaxUnicode {
			if c.HighChars != nil {
				if slot, ok := c.HighChars.Lookup(font, code); ok {
					out = append(out, Pack(font, slot))
					continue
				}
			}
			if c.OnMissingGlyph != nil {
				c.OnMissingGlyph(font, code)
			}
			fallback := uint32('?')
			if c.HighChars != nil {
				fallback = c.HighChars.Fallback(font)
			}
			out = append(out, Pack(font, fallback))
			continue
		}
		out = append(out, Pack(font, code))
	}
	return out, nil
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
