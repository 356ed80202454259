package sync

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bowtie-db/bowtie/risk"
)

func TestColorLogSink_WarnIncludesSeverityAndMessage(t *testing.T) {
	var buf bytes.Buffer
	sink := NewColorLogSink(&buf)

	sink.Warn(risk.Warning{Severity: risk.High, Message: "dropping table Users"})

	out := buf.String()
	if !strings.Contains(out, "dropping table Users") {
		t.Fatalf("expected warning message in output, got %q", out)
	}
	if !strings.Contains(out, risk.High.String()) {
		t.Fatalf("expected severity in output, got %q", out)
	}
}

func TestColorLogSink_InfoWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	sink := NewColorLogSink(&buf)

	sink.Info("no changes detected")

	if !strings.Contains(buf.String(), "no changes detected") {
		t.Fatalf("expected info message in output, got %q", buf.String())
	}
}

func TestNoopLogSink_DiscardsEverything(t *testing.T) {
	var sink NoopLogSink
	sink.Warn(risk.Warning{Severity: risk.High, Message: "ignored"})
	sink.Info("ignored")
}

func TestStepHeader_FormatsProgress(t *testing.T) {
	got := stepHeader(2, 5, "creating table Users")
	want := "[2/5] creating table Users"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSqlPreview_TruncatesLongStatements(t *testing.T) {
	long := strings.Repeat("x", 250)
	preview := sqlPreview(long)
	if len(preview) != 203 {
		t.Fatalf("expected a 200-char preview plus ellipsis, got length %d", len(preview))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("expected preview to end with an ellipsis, got %q", preview)
	}
}

func TestSqlPreview_PassesThroughShortStatements(t *testing.T) {
	short := "SELECT 1"
	if got := sqlPreview(short); got != short {
		t.Fatalf("got %q, want %q", got, short)
	}
}
