// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

// NameLine is one line of a stave's (possibly multi-line) name chain.
type NameLine struct {
	Text       PmwString
	Draw       *DrawCall
	SmallCaps  bool
	Bold       bool
}

// PitchStats accumulates the top/bottom/total/count statistics used for a
// stave's note-length histogram and pitch range.
type PitchStats struct {
	Top, Bottom int
	Total       int64
	Count       int
}

// Observe folds one note's absolute pitch into the running statistics.
func (p *PitchStats) Observe(absPitch int) {
	if p.Count == 0 {
		p.Top, p.Bottom = absPitch, absPitch
	} else {
		if absPitch > p.Top {
			p.Top = absPitch
		}
		if absPitch < p.Bottom {
			p.Bottom = absPitch
		}
	}
	p.Total += int64(absPitch)
	p.Count++
}

// Mean returns the average observed absolute pitch, or 0 if nothing has
// been observed.
func (p PitchStats) Mean() float64 {
	if p.Count == 0 {
		return 0
	}
	return float64(p.Total) / float64(p.Count)
}

// Stave is one stave within a Movement. Stave 0 is the synthetic
// thematic/key-map stave that is always present.
type Stave struct {
	Number       int
	Names        []NameLine
	Bars         []Bar
	NLines       int // 0..6, default 5
	OmitEmpty    bool
	HalfAccidentals bool
	Stats        PitchStats
	// NoteLengthHistogram counts how many notes of each NoteType appear,
	// indexed by NoteType.
	NoteLengthHistogram map[NoteType]int

	Continuation Continuation
}

// NewStave returns a Stave with the conventional 5-line default and an
// initialized histogram map.
func NewStave(number int) *Stave {
	return &Stave{
		Number:              number,
		NLines:              5,
		NoteLengthHistogram: make(map[NoteType]int),
	}
}

// BarCount returns the number of bars recorded so far.
func (s *Stave) BarCount() int { return len(s.Bars) }

// CurrentBar returns a pointer to the last bar, allocating one if the
// stave has no bars yet.
func (s *Stave) CurrentBar() *Bar {
	if len(s.Bars) == 0 {
		s.Bars = append(s.Bars, Bar{})
	}
	return &s.Bars[len(s.Bars)-1]
}

// StartBar appends a new bar with the given packed logical number and
// makes it current.
func (s *Stave) StartBar(number uint32) *Bar {
	s.Bars = append(s.Bars, Bar{Number: number})
	return &s.Bars[len(s.Bars)-1]
}
