package sync

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/bowtie-db/bowtie/risk"
)

// LogSink receives the Synchronizer's progress and risk findings. A
// host supplies its own implementation rather than the run reaching
// for a global logger.
type LogSink interface {
	Warn(w risk.Warning)
	Info(message string)
}

// ColorLogSink writes severity-colored progress to an io.Writer, the
// way a terminal-facing host would; non-terminal writers simply see
// the ANSI codes stripped by fatih/color's own NoColor detection.
type ColorLogSink struct {
	Out io.Writer
}

// NewColorLogSink returns a ColorLogSink writing to out.
func NewColorLogSink(out io.Writer) *ColorLogSink {
	return &ColorLogSink{Out: out}
}

func (s *ColorLogSink) Warn(w risk.Warning) {
	icon, c := "•", color.New(color.FgYellow)
	switch w.Severity {
	case risk.High:
		icon, c = "✗", color.New(color.FgRed)
	case risk.Medium:
		icon, c = "▲", color.New(color.FgYellow)
	case risk.Low:
		icon, c = "•", color.New(color.FgBlue)
	}
	_, _ = c.Fprintf(s.Out, "  %s [%s] %s\n", icon, w.Severity, w.Message)
}

func (s *ColorLogSink) Info(message string) {
	_, _ = color.New(color.FgCyan).Fprintf(s.Out, "  %s\n", message)
}

var _ LogSink = (*ColorLogSink)(nil)

// NoopLogSink discards everything; the zero value of Options uses it
// so a caller need not wire a sink just to run a dry-run script
// generation.
type NoopLogSink struct{}

func (NoopLogSink) Warn(risk.Warning) {}
func (NoopLogSink) Info(string)       {}

var _ LogSink = NoopLogSink{}

func sqlPreview(stmt string) string {
	if len(stmt) > 200 {
		return stmt[:200] + "..."
	}
	return stmt
}

func stepHeader(i, total int, description string) string {
	return fmt.Sprintf("[%d/%d] %s", i, total, description)
}
