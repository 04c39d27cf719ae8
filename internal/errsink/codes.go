// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package errsink

// Stable numeric diagnostic ids. Tests and callers match on these
// numbers, so existing values must never be renumbered; add new ones at
// the end of the relevant block.
const (
	// Lexer: 1-19.
	ErrBadInputChar   = 1
	ErrLineTooLong    = 2
	ErrMacroUndefined = 3
	ErrMacroNesting   = 4
	ErrIncludeDepth   = 5
	ErrUnclosedIf     = 6
	ErrBadDirective   = 7

	// Header parser: 20-39.
	ErrUnknownHeaderDirective = 20
	ErrBadKeySignature        = 21
	ErrUnsupportedKey         = 22
	ErrBadTimeSignature       = 23
	ErrBadHeadingString       = 24
	ErrBadLayout              = 25
	ErrBadStaveList           = 26
	ErrBadMakeKey             = 27
	ErrBadMidiChannel         = 28
	ErrDeprecatedDirective    = 29
	ErrBadPaperSize           = 30
	ErrBadHeaderArgument      = 31

	// Stave parser: 40-69.
	ErrUnknownStaveDirective = 40
	ErrBadStaveNumber        = 41
	ErrBadNote               = 42
	ErrBarLengthMismatch     = 43
	ErrBadNoteOption         = 44
	ErrUnclosedChord         = 45
	ErrRestInChord           = 46
	ErrBadTuplet             = 47
	ErrTupletNesting         = 48
	ErrNoSlurToEnd           = 49
	ErrNoHairpinToEnd        = 50
	ErrBadStaveString        = 51
	ErrBadClefName           = 52
	ErrUnclosedSlur          = 53
	ErrUnclosedStave         = 54
	ErrBadGap                = 55
	ErrBadAccidental         = 56

	// String reader / fonts: 70-79.
	ErrBadStringEscape   = 70
	ErrMissingCodepoints = 71
	ErrFollowOnDecorated = 72

	// Transposition: 80-89.
	ErrTransposeRange   = 80
	ErrTransposeNeedKey = 81
)
