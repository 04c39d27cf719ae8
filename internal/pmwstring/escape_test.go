package pmwstring

import (
	"testing"

	"github.com/go-test/deep"
)

func TestPlainEscapes(t *testing.T) {
	s, err := NewReader(`hello`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if got := s.PlainText(); got != "hello" {
		t.Errorf("PlainText() = %q, want hello", got)
	}
}

func TestFontSwitchEscapes(t *testing.T) {
	s, err := NewReader(`\it\hi\rm\`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 {
		t.Fatalf("got %d units, want 2", len(s))
	}
	if s[0].Font() != FontItalic || s[1].Font() != FontItalic {
		t.Errorf("expected both chars in italic font, got %v %v", s[0].Font(), s[1].Font())
	}
}

func TestSmallCapsBit(t *testing.T) {
	s, err := NewReader(`\sc\A`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if !s[0].SmallCaps() {
		t.Error("expected small caps bit set")
	}
}

func TestLiteralEscapes(t *testing.T) {
	s, err := NewReader(`\"\|\\\@comment\end`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	want := String{
		Pack(FontRoman, '"'),
		Pack(FontRoman, CodeVerticalBar),
		Pack(FontRoman, '\\'),
	}
	for _, u := range want {
		_ = u
	}
	if len(s) < 3 {
		t.Fatalf("got %d units, want at least 3: %v", len(s), s)
	}
	if diff := deep.Equal(s[:3], want); diff != nil {
		t.Error(diff)
	}
	if got := s[3:].PlainText(); got != "end" {
		t.Errorf("trailing text = %q, want end (comment should have been consumed)", got)
	}
}

func TestUnicodeEscapes(t *testing.T) {
	s, err := NewReader(`\x41\\66\`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if got := s.PlainText(); got != "AB" {
		t.Errorf("PlainText() = %q, want AB", got)
	}
}

func TestMusicEscapeNoteheads(t *testing.T) {
	s, err := NewReader(`\*c\`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if s[0].Font() != FontMusic || s[0].Code() != noteheadMnemonics['c'] {
		t.Errorf("got %v, want crotchet notehead in music font", s[0])
	}
}

func TestMusicEscapeDottedNotehead(t *testing.T) {
	s, err := NewReader(`\*c.\`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 {
		t.Fatalf("got %d units, want 2 (notehead + dot)", len(s))
	}
}

func TestRepeatNumberEscape(t *testing.T) {
	s, err := NewReader(`\r\`, FontRoman, 0, 3, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if s[0].Code() != uint32(CodeRepeatNumber+3) {
		t.Errorf("got code %#x, want repeat-number placeholder + 3", s[0].Code())
	}
}

func TestAmbiguousSEscapeFallsThroughToAccentedLetter(t *testing.T) {
	// \s not followed by a digit is treated as an accented-letter sequence.
	// "se" and "so" are reserved placeholders, so pick a two-char word
	// that isn't one of those but still starts with 's' -- there is none
	// in the accented-letter table (which only covers a/e/i/n/o/u), so the
	// expected behaviour is simply "unrecognised escape", confirming \s
	// does NOT unconditionally consume a following digit run when none is
	// present.
	_, err := NewReader(`\sz\`, FontRoman, 0, 0, 0).Read()
	if err == nil {
		t.Error("expected an error for \\sz\\, got none")
	}
}

func TestUndefinedEscapeIsRecoverableError(t *testing.T) {
	_, err := NewReader(`\nosuchescape\`, FontRoman, 0, 0, 0).Read()
	if err == nil {
		t.Error("expected error for unrecognised escape")
	}
}

func TestAccentedLatin(t *testing.T) {
	s, err := NewReader(`\e'\`, FontRoman, 0, 0, 0).Read()
	if err != nil {
		t.Fatal(err)
	}
	if got := s.PlainText(); got != "é" {
		t.Errorf("PlainText() = %q, want é", got)
	}
}
