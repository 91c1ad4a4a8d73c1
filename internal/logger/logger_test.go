package logger

import (
	"bytes"
	"os"
	"testing"
)

// capture replaces the trace writer for one test and restores the
// package defaults afterwards.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	t.Cleanup(func() { SetVerbose(false) })

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected tracing off initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected tracing on after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected tracing off after SetVerbose(false)")
	}
}

func TestLevels(t *testing.T) {
	buf := capture(t)

	Debug("normalised %s", "report.pdf")
	Info("uploaded %d chunks", 42)
	Warn("index unreachable")

	want := "debug| normalised report.pdf\n" +
		"info | uploaded 42 chunks\n" +
		"warn | index unreachable\n"
	if buf.String() != want {
		t.Errorf("unexpected trace output: %q", buf.String())
	}
}

func TestSilentWhenNotVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(false)

	Debug("dropped")
	Info("dropped")
	Warn("dropped")
	Section("dropped")

	if buf.Len() > 0 {
		t.Errorf("expected no output when tracing is off, got %q", buf.String())
	}
}

func TestSection(t *testing.T) {
	buf := capture(t)

	Section("Ingest")

	if buf.String() != "\n-- Ingest --\n" {
		t.Errorf("unexpected section output: %q", buf.String())
	}
}

func TestConcurrentAccess(t *testing.T) {
	capture(t)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			SetVerbose(true)
			Debug("worker %d", n)
			IsVerbose()
			SetVerbose(false)
			done <- struct{}{}
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
