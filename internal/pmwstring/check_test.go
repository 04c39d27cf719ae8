package pmwstring

import "testing"

type fakeHighTree struct {
	slots map[uint32]uint32
}

func (f fakeHighTree) Lookup(font uint8, code uint32) (uint32, bool) {
	s, ok := f.slots[code]
	return s, ok
}
func (f fakeHighTree) Fallback(font uint8) uint32 { return '?' }

func TestCheckCurlyQuoteRemap(t *testing.T) {
	c := &Context{}
	in := String{Pack(FontRoman, 0x2018), Pack(FontRoman, 'x'), Pack(FontRoman, 0x2019)}
	out, err := c.Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.PlainText(); got != "'x'" {
		t.Errorf("PlainText() = %q, want 'x'", got)
	}
}

func TestCheckMissingGlyphFallback(t *testing.T) {
	var missing []uint32
	c := &Context{OnMissingGlyph: func(font uint8, code uint32) { missing = append(missing, code) }}
	in := String{Pack(FontRoman, MaxUnicode+5000)}
	out, err := c.Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Code() != '?' {
		t.Errorf("expected fallback '?', got %v", out[0])
	}
	if len(missing) != 1 || missing[0] != MaxUnicode+5000 {
		t.Errorf("missing glyph not recorded: %v", missing)
	}
}

func TestCheckHighTreeLookup(t *testing.T) {
	c := &Context{HighChars: fakeHighTree{slots: map[uint32]uint32{MaxUnicode + 1: 0xE000}}}
	in := String{Pack(FontRoman, MaxUnicode+1)}
	out, err := c.Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Code() != 0xE000 {
		t.Errorf("got %#x, want private-use slot 0xE000", out[0].Code())
	}
}

func TestCheckSplitsOnSeparatorsInLyricsContext(t *testing.T) {
	c := &Context{IsLyricsContext: true, Separators: "-"}
	in := String{Pack(FontRoman, 'a'), Pack(FontRoman, '-'), Pack(FontRoman, 'b')}
	out, err := c.Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.PlainText(); got != "a-b" {
		t.Errorf("PlainText() = %q, want a-b", got)
	}
}

type fakeShaper struct{ calls int }

func (f *fakeShaper) Shape(font uint8, text string) (String, error) {
	f.calls++
	out := make(String, 0, len(text))
	for _, r := range text {
		out = out.Append(font, uint32(r))
	}
	return out, nil
}

func TestCheckCallsShaperOnFlaggedFonts(t *testing.T) {
	shaper := &fakeShaper{}
	c := &Context{Shaper: shaper, ShapedFonts: map[uint8]bool{FontRoman: true}}
	in := String{Pack(FontRoman, 'h'), Pack(FontRoman, 'i')}
	_, err := c.Check(in)
	if err != nil {
		t.Fatal(err)
	}
	if shaper.calls != 1 {
		t.Errorf("shaper called %d times, want 1", shaper.calls)
	}
}
