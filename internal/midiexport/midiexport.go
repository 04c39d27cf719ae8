// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package midiexport serialises a movement's pitch/duration/bar timeline
// to a Standard MIDI File: one tempo track plus one track per stave. It
// is a scratch-file exporter for proofing rhythm and pitch; dynamics,
// repeats and velocity shaping are out of scope.
package midiexport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ellisgrant/pmw/internal/ir"
)

// ticksPerCrotchet matches the 960-tick header division the writer
// declares.
const ticksPerCrotchet = 960

// DefaultTempo is the µs-per-beat value written to the tempo track;
// the -mm flag patches it afterwards via internal/miditempo.
const DefaultTempo = 500000 // crotchet = 120

const defaultVelocity = 96

// low3 returns a 3 byte array representing the lower
// 3 bytes of n, e.g. as a 24 bit number
func low3(n uint32) (u24 [3]byte) {
	u24[0] = byte((n & 0x00FFFFFF) >> 16)
	u24[1] = byte((n & 0x0000FFFF) >> 8)
	u24[2] = byte((n & 0x000000FF))
	return u24
}

// varLen encodes a MIDI variable-length quantity.
func varLen(n int) []byte {
	if n < 0 {
		n = 0
	}
	buf := []byte{byte(n & 0x7F)}
	n >>= 7
	for n > 0 {
		buf = append([]byte{byte(n&0x7F | 0x80)}, buf...)
		n >>= 7
	}
	return buf
}

// Write serialises movement m to w.
func Write(w io.Writer, m *ir.Movement) (err error) {
	staves := playableStaves(m)
	if len(staves) == 0 {
		return fmt.Errorf("movement %d has no staves with notes", m.Number)
	}

	// header "MThd len=6, format=1, tracks=n+1, ticks=960"
	header := []byte{0x4d, 0x54, 0x68, 0x64, 0, 0, 0, 6, 0, 1}
	header = append(header, byte(0), byte(len(staves)+1), 3, 192)
	if _, err = w.Write(header); err != nil {
		return
	}

	if err = writeTrack(w, tempoTrack(m)); err != nil {
		return
	}
	for _, st := range staves {
		if err = writeTrack(w, staveTrack(m, st)); err != nil {
			return
		}
	}
	return
}

// playableStaves returns the movement's staves that contain at least one
// sounding note, in stave order.
func playableStaves(m *ir.Movement) []*ir.Stave {
	var out []*ir.Stave
	for i := 1; i <= ir.MaxStaves; i++ {
		st := m.Staves[i]
		if st == nil {
			continue
		}
		if st.Stats.Count > 0 {
			out = append(out, st)
		}
	}
	return out
}

// tempoTrack builds the conductor track: time signature, tempo, end of
// track.
func tempoTrack(m *ir.Movement) *bytes.Buffer {
	num, denPow := timeSigBytes(m.Time)
	var record = []interface{}{
		// Time signature event
		byte(0),                // delta time
		low3(uint32(0xFF5804)), // time signature event
		num,                    // beats per measure
		denPow,                 // denominator as a power of two
		byte(24),               // clocks per tick
		byte(8),                // 32nd's per quarter note
		// Tempo event
		byte(0),                // delta time
		low3(uint32(0xFF5103)), // tempo event
		low3(uint32(DefaultTempo)),
		// EOT event
		byte(0),                // delta time
		low3(uint32(0xFF2F00)), // End of track
	}
	buf := new(bytes.Buffer)
	for _, v := range record {
		binary.Write(buf, binary.BigEndian, v)
	}
	return buf
}

func timeSigBytes(ts ir.TimeSig) (num, denPow byte) {
	if ts.Common || ts.Denominator == 0 {
		return 4, 2
	}
	if ts.Cut {
		return 2, 1
	}
	num = byte(ts.Numerator * ts.Multiplier)
	den := ts.Denominator
	for den > 1 {
		den >>= 1
		denPow++
	}
	return
}

// staveTrack renders one stave's note/rest timeline.
func staveTrack(m *ir.Movement, st *ir.Stave) *bytes.Buffer {
	buf := new(bytes.Buffer)
	channel := byte(0)
	if mapping, ok := m.Midi[st.Number]; ok {
		channel = byte(mapping.Channel-1) & 0x0F
		// program change at time zero
		buf.Write([]byte{0, 0xC0 | channel, byte(mapping.Program-1) & 0x7F})
	}

	pending := 0 // accumulated rest time awaiting the next note-on
	for bi := range st.Bars {
		bar := &st.Bars[bi]
		var chord []byte
		chordTicks := 0
		flush := func() {
			if len(chord) == 0 {
				return
			}
			for i, key := range chord {
				delta := 0
				if i == 0 {
					delta = pending
				}
				buf.Write(varLen(delta))
				buf.Write([]byte{0x90 | channel, key, defaultVelocity})
			}
			for i, key := range chord {
				delta := 0
				if i == 0 {
					delta = chordTicks
				}
				buf.Write(varLen(delta))
				buf.Write([]byte{0x80 | channel, key, 0})
			}
			pending = 0
			chord = nil
		}
		for i := range bar.Events {
			ev := &bar.Events[i]
			switch ev.Kind {
			case ir.EvNote:
				flush()
				if ev.Note.Flags&ir.NFGrace != 0 {
					continue
				}
				chord = append(chord, midiKey(ev.Note))
				chordTicks = ticks(ev.Note)
			case ir.EvChordNote:
				chord = append(chord, midiKey(ev.Note))
			case ir.EvRest:
				flush()
				pending += ticks(ev.Note)
			case ir.EvMidiChange:
				flush()
				buf.Write(varLen(pending))
				pending = 0
				buf.Write([]byte{0xC0 | channel, byte(ev.IntArg-1) & 0x7F})
			}
		}
		flush()
	}
	// end of track
	buf.Write([]byte{0x00, 0xFF, 0x2F, 0x00})
	return buf
}

// midiKey converts an absolute quarter-tone pitch to the nearest MIDI
// key: middle C (abspitch 96) is key 60.
func midiKey(n *ir.Note) byte {
	semis := (n.AbsPitch - 4*ir.QuarterTonesPerOctave + 1) / ir.QuarterTonesPerSemitone
	key := 60 + semis
	if key < 0 {
		key = 0
	}
	if key > 127 {
		key = 127
	}
	return byte(key)
}

func ticks(n *ir.Note) int {
	return n.Type.Length(n.Dots) * ticksPerCrotchet / ir.LenCrotchet
}

// writeTrack prepends the MTrk header and length to the track data and
// writes it out.
func writeTrack(w io.Writer, data *bytes.Buffer) (err error) {
	var track = []interface{}{
		[]byte{'M', 'T', 'r', 'k'},
		uint32(data.Len()), // length of track data
		data.Bytes(),
	}
	for _, v := range track {
		if err = binary.Write(w, binary.BigEndian, v); err != nil {
			return
		}
	}
	return
}
