// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package midiexport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/header"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/miditempo"
	"github.com/ellisgrant/pmw/internal/stave"
)

func parseMovement(t *testing.T, src string) *bytes.Buffer {
	t.Helper()
	lx := lexer.New("test.pmw", strings.NewReader(src), nil)
	ctx := header.NewContext(lx, errsink.NewSink())
	stave.ParseDocument(ctx)
	var buf bytes.Buffer
	if err := Write(&buf, ctx.Doc.Movements[0]); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestWriteHeaderAndTracks(t *testing.T) {
	buf := parseMovement(t, "[stave 1] c d e f | [endstave]\n")
	b := buf.Bytes()
	if !bytes.HasPrefix(b, []byte{'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 1, 0, 2}) {
		t.Errorf("bad SMF header: % x", b[:14])
	}
	if n := bytes.Count(b, []byte{'M', 'T', 'r', 'k'}); n != 2 {
		t.Errorf("track chunks = %d, want 2 (tempo + one stave)", n)
	}
}

func TestTempoEventPatchable(t *testing.T) {
	buf := parseMovement(t, "[stave 1] c | [endstave]\n")
	b := buf.Bytes()
	_, µs, err := miditempo.FindTempo(b)
	if err != nil {
		t.Fatal(err)
	}
	if µs != DefaultTempo {
		t.Errorf("tempo = %d, want %d", µs, DefaultTempo)
	}
	if err := miditempo.SetTempo(b, 600000); err != nil {
		t.Fatal(err)
	}
	_, µs, err = miditempo.FindTempo(b)
	if err != nil {
		t.Fatal(err)
	}
	if µs != 600000 {
		t.Errorf("patched tempo = %d, want 600000", µs)
	}
}

func TestMiddleCIsKey60(t *testing.T) {
	buf := parseMovement(t, "[stave 1] c | [endstave]\n")
	b := buf.Bytes()
	if !bytes.Contains(b, []byte{0x90, 60, defaultVelocity}) {
		t.Error("note-on for middle C (key 60) missing")
	}
	if !bytes.Contains(b, []byte{0x80, 60, 0}) {
		t.Error("note-off for middle C missing")
	}
}

func TestEmptyMovementErrors(t *testing.T) {
	lx := lexer.New("test.pmw", strings.NewReader("heading \"title\"\n"), nil)
	ctx := header.NewContext(lx, errsink.NewSink())
	stave.ParseDocument(ctx)
	var buf bytes.Buffer
	if err := Write(&buf, ctx.Doc.Movements[0]); err == nil {
		t.Error("a movement with no notes should not export")
	}
}
