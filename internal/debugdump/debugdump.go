// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package debugdump walks the music IR and emits a labelled, stable
// textual dump for the test suite and the -dtp debugging flag. Every IR
// variant renders as a tag line with structured fields, nested children
// indented below it.
package debugdump

import (
	"bytes"
	"fmt"

	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/strfmt"
)

// Content is anything that can render itself into the dump: a tree node
// or a plain string leaf.
type Content interface {
	Render(b *bytes.Buffer, nindent int)
}

// SC is the string content of a leaf line.
type SC string

func (sc SC) Render(b *bytes.Buffer, nindent int) {
	b.WriteString(indentation(nindent))
	b.WriteString(string(sc))
}

// Node is one dump-tree element: a tag, an attribute string, and nested
// content.
type Node struct {
	T string    // tag name
	A string    // attributes
	C []Content // content
}

func (n *Node) Render(b *bytes.Buffer, nindent int) {
	b.WriteString(indentation(nindent))
	b.WriteString(n.T)
	if len(n.A) > 0 {
		b.WriteString(" ")
		b.WriteString(n.A)
	}
	rindent := nindent
	if nindent >= 0 {
		rindent = nindent + 1
	}
	for _, c := range n.C {
		c.Render(b, rindent)
	}
}

// indentation returns a string like "\n  " where the number of spaces is
// n * 2 if n is 0 or greater. If n is negative, indentation returns an
// empty string so a whole tree can render on one line.
func indentation(n int) string {
	if n < 0 {
		return ""
	}
	s := "\n"
	for i := 0; i < 2*n; i++ {
		s += " "
	}
	return s
}

// Document renders the whole parse result.
func Document(doc *ir.Document) string {
	root := &Node{T: "document", A: fmt.Sprintf("movements=%d", len(doc.Movements))}
	for _, m := range doc.Movements {
		root.C = append(root.C, movementNode(m))
	}
	var b bytes.Buffer
	root.Render(&b, 0)
	b.WriteString("\n")
	return b.String()
}

func movementNode(m *ir.Movement) *Node {
	n := &Node{
		T: "movement",
		A: fmt.Sprintf("number=%d key=%s time=%s barcount=%d",
			m.Number, keyName(m.Key), timeName(m.Time), m.BarCount),
	}
	for i, st := range m.Staves {
		if st == nil || i == 0 {
			continue
		}
		n.C = append(n.C, staveNode(st))
	}
	return n
}

func keyName(k ir.Key) string {
	if k.Name == "" {
		return "c"
	}
	return k.Name
}

func timeName(ts ir.TimeSig) string {
	switch {
	case ts.Common:
		return "C"
	case ts.Cut:
		return "A"
	case ts.Denominator == 0:
		return "4/4"
	}
	return strfmt.TimeSig(ts.Multiplier, ts.Numerator, ts.Denominator)
}

func staveNode(st *ir.Stave) *Node {
	n := &Node{
		T: "stave",
		A: fmt.Sprintf("number=%d lines=%d bars=%d", st.Number, st.NLines, len(st.Bars)),
	}
	for i := range st.Bars {
		n.C = append(n.C, barNode(&st.Bars[i]))
	}
	return n
}

func barNode(b *ir.Bar) *Node {
	n := &Node{
		T: "bar",
		A: fmt.Sprintf("number=%s length=%d", strfmt.BarNumber(b.Number), b.Length),
	}
	for i := range b.Events {
		n.C = append(n.C, eventContent(&b.Events[i]))
	}
	return n
}

func eventContent(ev *ir.Event) Content {
	tag := ev.Kind.String()
	switch ev.Kind {
	case ir.EvNote, ir.EvChordNote, ir.EvRest:
		return SC(tag + " " + noteAttrs(ev.Note))
	case ir.EvClef:
		return SC(fmt.Sprintf("%s name=%s", tag, ev.Clef.Name))
	case ir.EvKey:
		return SC(fmt.Sprintf("%s name=%s", tag, keyName(*ev.Key)))
	case ir.EvTime:
		return SC(fmt.Sprintf("%s value=%s", tag,
			strfmt.TimeSig(ev.Time.Multiplier, ev.Time.Numerator, ev.Time.Denominator)))
	case ir.EvSlurStart, ir.EvLine:
		return SC(fmt.Sprintf("%s id=%q flags=%#x", tag, ev.Slur.Identity, ev.Slur.Flags))
	case ir.EvEndSlur:
		return SC(fmt.Sprintf("%s id=%q", tag, ev.StrArg))
	case ir.EvSlurGap, ir.EvLineGap:
		return SC(fmt.Sprintf("%s width=%s text=%q", tag, strfmt.Fixed(int32(ev.Gap.Width)), ev.Gap.Text))
	case ir.EvHairpin:
		dir := "crescendo"
		if ev.Hairpin.Direction == ir.Decrescendo {
			dir = "decrescendo"
		}
		phase := "start"
		if ev.IntArg == 1 {
			phase = "end"
		}
		return SC(fmt.Sprintf("%s dir=%s phase=%s", tag, dir, phase))
	case ir.EvPlet:
		return SC(fmt.Sprintf("%s n=%d d=%d", tag, ev.Plet.N, ev.Plet.D))
	case ir.EvText:
		return SC(fmt.Sprintf("%s text=%q", tag, ev.Text.Text.PlainText()))
	case ir.EvDraw, ir.EvOverDraw:
		return SC(fmt.Sprintf("%s func=%s args=%d", tag, ev.Draw.FuncName, len(ev.Draw.Args)))
	case ir.EvNBar:
		return SC(fmt.Sprintf("%s number=%d", tag, ev.NBar.Number))
	case ir.EvMove, ir.EvRMove, ir.EvSMove:
		return SC(fmt.Sprintf("%s x=%s y=%s", tag,
			strfmt.Fixed(int32(ev.Move.X)), strfmt.Fixed(int32(ev.Move.Y))))
	case ir.EvBarline:
		return SC(fmt.Sprintf("%s style=%d", tag, ev.IntArg))
	default:
		if ev.IntArg != 0 || ev.StrArg != "" {
			return SC(fmt.Sprintf("%s arg=%d str=%q", tag, ev.IntArg, ev.StrArg))
		}
		return SC(tag)
	}
}

func noteAttrs(n *ir.Note) string {
	if n.IsRest {
		return fmt.Sprintf("type=%d dots=%d length=%d", n.Type, n.Dots, n.Type.Length(n.Dots))
	}
	return fmt.Sprintf("pitch=%s spitch=%d abs=%d type=%d dots=%d",
		strfmt.Pitch(pitchLetterForDump(n.Pitch.Letter), n.Accidental.String(), n.Pitch.Octave),
		n.Spitch, n.AbsPitch, n.Type, n.Dots)
}

// pitchLetterForDump converts the IR's 0=C..6=B numbering to the 0=A..6=G
// numbering strfmt.Pitch formats with.
func pitchLetterForDump(letter int) int {
	return (letter + 2) % 7
}
