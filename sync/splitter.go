package sync

import (
	"bufio"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// SplitStatements splits a joined DDL script into individually
// executable fragments, the way a host re-running output_sink text
// through a separate tool must. Every dialect terminates on ";"; SQL
// Server additionally batches on a line containing only "GO".
func SplitStatements(dialect schema.Dialect, script string) []string {
	if dialect != schema.SqlServer {
		return splitOn(script, ";")
	}

	var batches []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(script))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(line), "GO") {
			batches = append(batches, current.String())
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	batches = append(batches, current.String())

	var out []string
	for _, batch := range batches {
		out = append(out, splitOn(batch, ";")...)
	}
	return out
}

func splitOn(script, sep string) []string {
	var out []string
	for _, part := range strings.Split(script, sep) {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
