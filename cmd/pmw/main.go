// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
pmw typesets music from a plain-text score description.

Command line usage is

	pmw [options] [inputfile]

The input is read from the named file, or from standard input. The core
front end parses the source into the music IR; the debug options dump
that IR, and -midi writes a scratch Standard MIDI File of the first
movement. The PostScript/PDF page writers are separate components and
are selected with -ps/-pdf/-eps when present in the installation.
*/
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ellisgrant/pmw/internal/debugdump"
	"github.com/ellisgrant/pmw/internal/errsink"
	"github.com/ellisgrant/pmw/internal/header"
	"github.com/ellisgrant/pmw/internal/ir"
	"github.com/ellisgrant/pmw/internal/lexer"
	"github.com/ellisgrant/pmw/internal/midiexport"
	"github.com/ellisgrant/pmw/internal/miditempo"
	"github.com/ellisgrant/pmw/internal/stave"
	"github.com/ellisgrant/pmw/internal/transpose"
)

const version = "0.1.0"

func main() {
	var (
		outfile    = flag.String("o", "", "output file name")
		stavelist  = flag.String("s", "", "staves to process")
		pagelist   = flag.String("p", "", "pages to process")
		format     = flag.String("f", "", "output format name")
		semitones  = flag.Int("t", 0, "transpose by semitones")
		psOut      = flag.Bool("ps", false, "produce PostScript output")
		pdfOut     = flag.Bool("pdf", false, "produce PDF output")
		epsOut     = flag.Bool("eps", false, "produce encapsulated PostScript")
		midiFile   = flag.String("midi", "", "write a midi file")
		midiBars   = flag.String("mb", "", "midi bar range")
		midiTempo  = flag.Int("mm", 0, "midi tempo, crotchets per minute")
		noRepeats  = flag.Bool("norepeats", false, "do not expand repeats in midi output")
		debugSel   = flag.String("d", "", "debug selectors")
		debugBars  = flag.String("dbd", "", "debug bar data: movement,stave,bar")
		dumpTree   = flag.Bool("dtp", false, "dump the parse tree")
		errMax     = flag.Int("em", 0, "maximum error count before giving up")
		testing    = flag.Bool("testing", false, "testing mode: deterministic dump output")
		showVer    = flag.Bool("V", false, "print version and exit")
	)
	flag.Usage = usage
	flag.Parse()

	if *showVer {
		fmt.Printf("pmw version %s\n", version)
		os.Exit(0)
	}
	if *semitones < -transpose.MaxTranspose/ir.QuarterTonesPerSemitone ||
		*semitones > transpose.MaxTranspose/ir.QuarterTonesPerSemitone {
		log.Fatalln("transposition out of range")
	}
	// Page-level selections belong to the pagination stage; accept and
	// hold them so the flag surface stays stable.
	_ = *stavelist
	_ = *pagelist
	_ = *format
	_ = *psOut
	_ = *pdfOut
	_ = *epsOut
	_ = *midiBars
	_ = *noRepeats
	_ = *debugSel
	_ = *debugBars

	inName := "<stdin>"
	var in io.Reader = os.Stdin
	baseDir := "."
	if flag.NArg() > 0 {
		inName = flag.Arg(0)
		f, err := os.Open(inName)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		in = f
		baseDir = filepath.Dir(inName)
	}

	sink := errsink.NewSink()
	sink.ErrorLimit = *errMax
	lx := lexer.New(inName, in, nil)
	lx.OpenInclude = func(path string) (io.Reader, error) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return os.Open(path)
	}
	ctx := header.NewContext(lx, sink)
	if *semitones != 0 {
		tr, err := transpose.New(*semitones*ir.QuarterTonesPerSemitone, map[string]ir.Key{})
		if err != nil {
			log.Fatalln(err)
		}
		ctx.Transposer = tr
	}

	stave.ParseDocument(ctx)

	for _, d := range sink.Diagnostics() {
		fmt.Fprintln(os.Stderr, d)
	}
	if n := sink.SuppressedWarnings(); n > 0 {
		fmt.Fprintf(os.Stderr, "%d further warning(s) suppressed\n", n)
	}

	if *dumpTree || *testing {
		out := os.Stdout
		if *outfile != "" {
			f, err := os.Create(*outfile)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			out = f
		}
		io.WriteString(out, debugdump.Document(ctx.Doc))
	}

	if *midiFile != "" && len(ctx.Doc.Movements) > 0 && !sink.Fatal() {
		if err := writeMidi(*midiFile, ctx.Doc.Movements[0], *midiTempo); err != nil {
			log.Fatalln(err)
		}
	}

	if sink.Fatal() {
		os.Exit(1)
	}
}

// writeMidi exports the movement and, when -mm was given, patches the
// tempo event in place before the bytes reach the file.
func writeMidi(path string, m *ir.Movement, tempo int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	if tempo == 0 {
		return midiexport.Write(f, m)
	}
	var buf bytes.Buffer
	if err = midiexport.Write(&buf, m); err != nil {
		return
	}
	data := buf.Bytes()
	if err = miditempo.SetTempo(data, uint(60000000/tempo)); err != nil {
		return
	}
	_, err = f.Write(data)
	return
}

func usage() {
	fmt.Fprintf(os.Stderr, "pmw version %s\n", version)
	fmt.Fprintln(os.Stderr, "usage: pmw [options] [inputfile]")
	flag.PrintDefaults()
}
