// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

// ContFlags are the boolean bits carried in Continuation.Flags.
type ContFlags uint32

const (
	CFTripletOn ContFlags = 1 << iota
	CFBowingAbove
	CFNotesOn
	CFNotesOff
	CFDoubleRightRepeatPending
)

// Continuation is the mutable per-stave state carried across bars and
// system breaks. A system start swaps/copies this value using
// arena-cached side blocks; Snapshot below is that explicit copy.
type Continuation struct {
	Clef         Clef
	Key          Key // as read from the source
	KeyTransposed Key // as rewritten by the transposer
	Time         TimeSig

	TieAwaiting bool
	TieAnchorX  int

	ActiveSlurs   []*Slur
	ActiveHairpin *Hairpin
	ActiveBeam    *BeamState
	ActiveNBars   []*NBar

	PendingUnderlay []StaveText
	PendingOverlay  []StaveText

	Flags ContFlags

	// BarAccidentals is read_baraccs: per-letter-class accidental memory
	// for the bar in progress, indexed 0..6 (C..B). TransposedBarAccidentals
	// is its transposed shadow.
	BarAccidentals            [7]Accidental
	TransposedBarAccidentals  [7]Accidental
}

// BeamState is the over-beam descriptor: markers recorded by
// beambreak/beamacc/beamrit/beammove/beamslope for the next beam; actual
// beaming geometry is computed outside this core.
type BeamState struct {
	BreakStrength int
	Accelerando   bool
	Ritardando    bool
	SlopeOverride int
	HasSlope      bool
	MoveOffset    int
}

// Snapshot is a copy of a Continuation, taken at a system break. Its
// slices are copied, so adding to or removing from one does not affect
// the other; the slur, n-th-time bar, hairpin and beam records they point
// to are shared.
type Snapshot struct {
	Continuation
}

// Snapshot copies c into a new Snapshot and advances the Section of every
// active slur, which both copies share.
func (c *Continuation) Snapshot() Snapshot {
	s := Snapshot{Continuation: *c}
	s.ActiveSlurs = append([]*Slur(nil), c.ActiveSlurs...)
	s.ActiveNBars = append([]*NBar(nil), c.ActiveNBars...)
	s.PendingUnderlay = append([]StaveText(nil), c.PendingUnderlay...)
	s.PendingOverlay = append([]StaveText(nil), c.PendingOverlay...)
	for _, slur := range s.ActiveSlurs {
		slur.Section++
	}
	return s
}

// Restore copies s back into c (e.g. when resuming a stave's continuation
// state for the next system).
func (c *Continuation) Restore(s Snapshot) {
	*c = s.Continuation
	c.ActiveSlurs = append([]*Slur(nil), s.ActiveSlurs...)
	c.ActiveNBars = append([]*NBar(nil), s.ActiveNBars...)
	c.PendingUnderlay = append([]StaveText(nil), s.PendingUnderlay...)
	c.PendingOverlay = append([]StaveText(nil), s.PendingOverlay...)
}
