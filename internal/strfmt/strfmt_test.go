package strfmt

import "testing"

func TestFixed(t *testing.T) {
	cases := []struct {
		in   int32
		want string
	}{
		{0, "0"},
		{1000, "1"},
		{1500, "1.5"},
		{-1500, "-1.5"},
		{1001, "1.001"},
		{1010, "1.01"},
	}
	for _, c := range cases {
		if got := Fixed(c.in); got != c.want {
			t.Errorf("Fixed(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPitch(t *testing.T) {
	if got := Pitch(0, "", 4); got != "A4" {
		t.Errorf("Pitch(0,\"\",4) = %q, want A4", got)
	}
	if got := Pitch(2, "#", 5); got != "C#5" {
		t.Errorf("Pitch(2,#,5) = %q, want C#5", got)
	}
}

func TestKeyName(t *testing.T) {
	if got := KeyName('g', true, false, false); got != "g#" {
		t.Errorf("KeyName = %q, want g#", got)
	}
	if got := KeyName('e', false, false, true); got != "em" {
		t.Errorf("KeyName = %q, want em", got)
	}
}

func TestTimeSig(t *testing.T) {
	if got := TimeSig(1, 3, 4); got != "3/4" {
		t.Errorf("TimeSig = %q, want 3/4", got)
	}
	if got := TimeSig(2, 3, 4); got != "2*3/4" {
		t.Errorf("TimeSig = %q, want 2*3/4", got)
	}
}

func TestBarNumberRoundTrip(t *testing.T) {
	packed := PackBarNumber(12, 2)
	if got := BarNumber(packed); got != "12.2" {
		t.Errorf("BarNumber = %q, want 12.2", got)
	}
	packed = PackBarNumber(7, 0)
	if got := BarNumber(packed); got != "7" {
		t.Errorf("BarNumber = %q, want 7", got)
	}
}
