// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package ir is the persistent data model at the heart of this system:
// movements, staves, bars, and the closed set of bar events, consumed by
// the geometry layer and (outside this core) pagination and output.
package ir

// Document is the top-level parse result for one source file: a sequence
// of movements, chained via Movement.Previous, matching the grammar rule
// `File := {Movement} [EndOfFile]`.
type Document struct {
	Movements []*Movement
}

// NewMovement appends and returns a new Movement chained to the
// document's previous last movement, if any.
func (d *Document) NewMovement() *Movement {
	var previous *Movement
	if n := len(d.Movements); n > 0 {
		previous = d.Movements[n-1]
	}
	m := NewMovement(len(d.Movements)+1, previous)
	d.Movements = append(d.Movements, m)
	return m
}

// Current returns the last movement, or nil if none has been started yet.
func (d *Document) Current() *Movement {
	if len(d.Movements) == 0 {
		return nil
	}
	return d.Movements[len(d.Movements)-1]
}
