package errsink

import "testing"

func TestWarningSuppression(t *testing.T) {
	s := NewSink()
	s.WarnLimit = 2
	for i := 0; i < 5; i++ {
		s.Warningf(100, Location{}, "warning %d", i)
	}
	if len(s.Diagnostics()) != 2 {
		t.Errorf("got %d diagnostics, want 2", len(s.Diagnostics()))
	}
	if s.SuppressedWarnings() != 3 {
		t.Errorf("SuppressedWarnings() = %d, want 3", s.SuppressedWarnings())
	}
	if s.OutputSuppressed() {
		t.Error("warnings should not suppress output")
	}
}

func TestMajorSuppressesOutput(t *testing.T) {
	s := NewSink()
	s.Majorf(200, Location{}, "bad key signature")
	if !s.OutputSuppressed() {
		t.Error("major diagnostic should suppress output")
	}
	if s.Fatal() {
		t.Error("major diagnostic should not be fatal")
	}
}

func TestFatalStopsRun(t *testing.T) {
	s := NewSink()
	stop := s.Fatalf(999, Location{}, "buffer overflow")
	if !stop {
		t.Error("Fatalf should report stop=true")
	}
	if !s.Fatal() {
		t.Error("Fatal() should be true")
	}
}

func TestErrorLimitEscalatesToFatal(t *testing.T) {
	s := NewSink()
	s.ErrorLimit = 2
	s.Minorf(1, Location{}, "minor 1")
	s.Minorf(2, Location{}, "minor 2")
	stop := s.Report(Diagnostic{ID: 3, Severity: Minor, Message: "minor 3"})
	if !stop {
		t.Error("third minor past ErrorLimit should escalate to fatal")
	}
}

func TestMissingCodepointsDeduped(t *testing.T) {
	s := NewSink()
	s.NoteMissingCodepoint('€')
	s.NoteMissingCodepoint('€')
	s.NoteMissingCodepoint('£')
	if len(s.MissingCodepoints()) != 2 {
		t.Errorf("got %d missing codepoints, want 2", len(s.MissingCodepoints()))
	}
}
