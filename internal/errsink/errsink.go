// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package errsink collects the numbered, severity-tagged diagnostics that
// the lexer, header parser and stave parser all emit. Diagnostics carry a
// stable numeric id and a severity; warnings are counted and suppressed
// past a threshold, and the error-count limit can escalate later errors
// to fatal.
package errsink

import "fmt"

// Severity ranks a diagnostic. Values increase with how badly the
// diagnostic affects the rest of the run.
type Severity int

const (
	// Warning is reported and counted but never changes output.
	Warning Severity = iota
	// Minor is recoverable; output may still be produced.
	Minor
	// Major is recoverable for parsing but suppresses output for this run.
	Major
	// Unwind lets a drawing-subsystem interpreter unwind its stack
	// (recording a trace) before the diagnostic escalates to Fatal.
	Unwind
	// Fatal terminates the run after the diagnostic is emitted.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Minor:
		return "minor"
	case Major:
		return "major"
	case Unwind:
		return "unwind"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Location identifies where a diagnostic occurred. During the reading
// phase Line/Column are populated; during the layout phase Movement/Stave/
// Bar are populated instead.
type Location struct {
	File   string
	Line   int
	Column int

	Movement int
	Stave    int
	Bar      uint32 // packed bar number, see strfmt.BarNumber
}

// Diagnostic is one reported error, warning or fatal condition.
type Diagnostic struct {
	ID       int
	Severity Severity
	Message  string
	Loc      Location
	// SourceLine is the offending input line, reprinted (with a caret
	// pointer at Column) when the diagnostic occurs during reading.
	SourceLine string
}

func (d Diagnostic) String() string {
	where := d.Loc.File
	if d.Loc.Line > 0 {
		where = fmt.Sprintf("%s:%d:%d", d.Loc.File, d.Loc.Line, d.Loc.Column)
	} else if d.Loc.Movement > 0 {
		where = fmt.Sprintf("movement %d stave %d bar %d", d.Loc.Movement, d.Loc.Stave, d.Loc.Bar)
	}
	return fmt.Sprintf("%s: [%04d] %s (%s)", d.Severity, d.ID, d.Message, where)
}

// Sink accumulates diagnostics for one run and tracks the warning
// threshold and deferred missing-codepoint set.
type Sink struct {
	// WarnLimit is the number of warnings allowed before further warnings
	// are suppressed. Zero means "use the default of 40".
	WarnLimit int
	// ErrorLimit is the number of non-warning diagnostics allowed before
	// the next one is escalated to Fatal (CLI flag -em).
	ErrorLimit int

	diagnostics  []Diagnostic
	warnCount    int
	errorCount   int
	suppressed   int
	outputOK     bool
	fatal        bool
	missingCodes map[rune]struct{}
}

// NewSink returns a Sink with the default thresholds (40 warnings, no
// error-count escalation).
func NewSink() *Sink {
	return &Sink{
		WarnLimit:    40,
		outputOK:     true,
		missingCodes: make(map[rune]struct{}),
	}
}

// Report records a diagnostic. It returns true if the run must stop now
// (the diagnostic was Fatal, or was escalated to Fatal by ErrorLimit).
func (s *Sink) Report(d Diagnostic) (stop bool) {
	limit := s.WarnLimit
	if limit <= 0 {
		limit = 40
	}
	if d.Severity == Warning {
		s.warnCount++
		if s.warnCount > limit {
			s.suppressed++
			return false
		}
	} else {
		s.errorCount++
		if s.ErrorLimit > 0 && s.errorCount > s.ErrorLimit && d.Severity != Fatal {
			d.Severity = Fatal
		}
	}
	if d.Severity >= Major {
		s.outputOK = false
	}
	if d.Severity == Fatal {
		s.fatal = true
	}
	s.diagnostics = append(s.diagnostics, d)
	return s.fatal
}

// Warningf is a convenience wrapper for Report with Severity Warning.
func (s *Sink) Warningf(id int, loc Location, format string, args ...interface{}) {
	s.Report(Diagnostic{ID: id, Severity: Warning, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// Minorf is a convenience wrapper for Report with Severity Minor.
func (s *Sink) Minorf(id int, loc Location, format string, args ...interface{}) {
	s.Report(Diagnostic{ID: id, Severity: Minor, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// Majorf is a convenience wrapper for Report with Severity Major.
func (s *Sink) Majorf(id int, loc Location, format string, args ...interface{}) {
	s.Report(Diagnostic{ID: id, Severity: Major, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// Fatalf is a convenience wrapper for Report with Severity Fatal. It
// always returns true.
func (s *Sink) Fatalf(id int, loc Location, format string, args ...interface{}) bool {
	return s.Report(Diagnostic{ID: id, Severity: Fatal, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// Diagnostics returns every diagnostic recorded so far, in report order.
func (s *Sink) Diagnostics() []Diagnostic { return s.diagnostics }

// OutputSuppressed is true once any Major-or-worse diagnostic has been
// reported: no page should be emitted for this run.
func (s *Sink) OutputSuppressed() bool { return !s.outputOK }

// Fatal is true once a Fatal diagnostic has been reported.
func (s *Sink) Fatal() bool { return s.fatal }

// SuppressedWarnings reports how many warnings were dropped after
// WarnLimit was reached.
func (s *Sink) SuppressedWarnings() int { return s.suppressed }

// NoteMissingCodepoint records a Unicode code point that had no glyph in
// the requested font. Each unique code point is recorded only once; the
// caller flushes a single end-of-read warning from MissingCodepoints.
func (s *Sink) NoteMissingCodepoint(r rune) {
	s.missingCodes[r] = struct{}{}
}

// MissingCodepoints returns every code point recorded by
// NoteMissingCodepoint, for the deferred end-of-read warning.
func (s *Sink) MissingCodepoints() []rune {
	out := make([]rune, 0, len(s.missingCodes))
	for r := range s.missingCodes {
		out = append(out, r)
	}
	return out
}
