// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pmwstring

// HyphenPattern is the record produced by a stave string ending in `/"`,
// carrying up to two further strings used for underlay hyphenation: the
// end-of-line hyphen and the newline-continuation hyphen.
type HyphenPattern struct {
	EndOfLine    String
	Continuation String
}

func (h HyphenPattern) equal(o HyphenPattern) bool {
	return h.EndOfLine.Equal(o.EndOfLine) && h.Continuation.Equal(o.Continuation)
}

// HyphenTable canonicalises HyphenPattern records by linear search.
// Patterns are few per document, so linear search over an append-only
// slice is the simplest correct implementation.
type HyphenTable struct {
	patterns []HyphenPattern
}

// Intern returns the canonical index for p, appending a new entry only if
// no equal pattern is already present.
func (t *HyphenTable) Intern(p HyphenPattern) int {
	for i, existing := range t.patterns {
		if existing.equal(p) {
			return i
		}
	}
	t.patterns = append(t.patterns, p)
	return len(t.patterns) - 1
}

// Len reports how many distinct patterns have been interned.
func (t *HyphenTable) Len() int { return len(t.patterns) }

// At returns the pattern stored at idx (as returned by Intern).
func (t *HyphenTable) At(idx int) HyphenPattern { return t.patterns[idx] }
