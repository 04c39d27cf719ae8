// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package valid

import "testing"

func TestClefName(t *testing.T) {
	for _, c := range ClefInfo {
		if !ClefName(c.Name) {
			t.Errorf("ClefName(%q) = false, want true", c.Name)
		}
	}
	if ClefName("violin") {
		t.Error("ClefName(\"violin\") = true, want false")
	}
}

func TestPaperByName(t *testing.T) {
	p, ok := PaperByName("a4")
	if !ok {
		t.Fatal("a4 should be a known paper size")
	}
	if p.Width != 595000 || p.Depth != 842000 {
		t.Errorf("a4 = %dx%d, want 595000x842000", p.Width, p.Depth)
	}
	if _, ok := PaperByName("legal"); ok {
		t.Error("legal should not be a known paper size")
	}
}

func TestTimeDenominator(t *testing.T) {
	for _, d := range []int{1, 2, 4, 8, 16, 32, 64} {
		if !TimeDenominator(d) {
			t.Errorf("TimeDenominator(%d) = false, want true", d)
		}
	}
	for _, d := range []int{0, 3, 6, 128} {
		if TimeDenominator(d) {
			t.Errorf("TimeDenominator(%d) = true, want false", d)
		}
	}
}
