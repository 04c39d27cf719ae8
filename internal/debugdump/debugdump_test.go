// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package debugdump

import (
	"strings"
	"testing"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/header"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/stave"
)

func parse(t *testing.T, src string) *ir.Document {
	t.Helper()
	lx := lexer.New("test.pmw", strings.NewReader(src), nil)
	ctx := header.NewContext(lx, errsink.NewSink())
	stave.ParseDocument(ctx)
	return ctx.Doc
}

func TestDumpContainsStableForms(t *testing.T) {
	doc := parse(t, "key G\n[stave 1 treble]\nc- d- | [bass] r |\n[endstave]\n")
	out := Document(doc)
	for _, want := range []string{
		"document movements=1",
		"movement number=1 key=g",
		"stave number=1 lines=5 bars=2",
		"bar number=1",
		"bar number=2",
		"note pitch=C",
		"rest",
		"clef name=bass",
		"barline style=0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpIsDeterministic(t *testing.T) {
	doc := parse(t, "[stave 1]\n[slur/=a] c d [endslur/=a] | (ce) {3 c- d- e-} |\n[endstave]\n")
	first := Document(doc)
	second := Document(doc)
	if first != second {
		t.Error("dump of the same IR differs between calls")
	}
	for _, want := range []string{
		`slur id="a"`,
		`endslur id="a"`,
		"chord",
		"plet n=3 d=2",
		"endplet",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("dump missing %q:\n%s", want, first)
		}
	}
}

func TestDumpIndentsNesting(t *testing.T) {
	doc := parse(t, "[stave 1] c |\n[endstave]\n")
	out := Document(doc)
	if !strings.Contains(out, "\n  movement") {
		t.Errorf("movement not indented under document:\n%s", out)
	}
	if !strings.Contains(out, "\n    stave") {
		t.Errorf("stave not indented under movement:\n%s", out)
	}
	if !strings.Contains(out, "\n      bar") {
		t.Errorf("bar not indented under stave:\n%s", out)
	}
	if !strings.Contains(out, "\n        note") {
		t.Errorf("note not indented under bar:\n%s", out)
	}
}
