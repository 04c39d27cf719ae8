// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

// Bar is one measure's event chain. The Number/Length/flags fields live
// directly on Bar rather than a separate header record, since a Go slice
// already gives "append in parse order, never free until the arena dies"
// semantics without one.
type Bar struct {
	Number      uint32 // packed logical bar number: upper16=int, lower16=nocount sub-bar
	Events      []Event
	Length      int  // accumulated musical-unit length of the bar's notes so far
	Balanceable bool // true once Length equals the time signature's bar length
	NoCheck     bool // [nocheck] suppresses the length-mismatch warning
}

// AddEvent appends ev to the bar's event chain, preserving source order.
func (b *Bar) AddEvent(ev Event) {
	b.Events = append(b.Events, ev)
}

// AccumulateLength adds a note/rest/tuplet-scaled length contribution and
// updates Balanceable against barLength.
func (b *Bar) AccumulateLength(delta int, barLength int) {
	b.Length += delta
	b.Balanceable = b.Length == barLength
}

// ResetOK reports whether the bar's accumulated length matches barLength,
// or the bar opted out of the check via [nocheck].
func (b *Bar) ResetOK(barLength int) bool {
	return b.NoCheck || b.Length == barLength
}
