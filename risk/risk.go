// Package risk implements the Data-Loss Risk Analyzer: a pure,
// deterministic comparison between a current and a target schema that
// classifies every proposed change by the severity of data it could
// destroy.
package risk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// Severity orders from safest to most destructive; None < Low < Medium
// < High.
type Severity int

const (
	None Severity = iota
	Low
	Medium
	High
)

func (s Severity) String() string {
	switch s {
	case None:
		return "None"
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	default:
		return "Unknown"
	}
}

// Kind names the condition a Warning was raised for.
type Kind string

const (
	TableDrop          Kind = "TableDrop"
	ColumnDrop         Kind = "ColumnDrop"
	LengthReduction    Kind = "LengthReduction"
	PrecisionReduction Kind = "PrecisionReduction"
	DataTypeChange     Kind = "DataTypeChange"
	NullabilityChange  Kind = "NullabilityChange"
)

// Warning is a single classified risk finding.
type Warning struct {
	Kind     Kind
	Severity Severity
	Table    string
	Column   string // empty when the warning is table-scoped
	Message  string
	Details  string
}

// Report is the aggregate output of an Analyze run.
type Report struct {
	Warnings             []Warning
	HasHigh              bool
	HasMedium            bool
	RequiresConfirmation bool
}

// Analyze compares current against target and returns every classified
// finding. It performs no I/O and is deterministic: equal inputs always
// produce an identically ordered Report.
func Analyze(current, target []schema.Table) Report {
	currentByName := make(map[string]schema.Table, len(current))
	for _, t := range current {
		currentByName[strings.ToLower(t.FullName())] = t
	}
	targetByName := make(map[string]schema.Table, len(target))
	for _, t := range target {
		targetByName[strings.ToLower(t.FullName())] = t
	}

	var warnings []Warning

	for key, c := range currentByName {
		t, exists := targetByName[key]
		if !exists {
			warnings = append(warnings, Warning{
				Kind:     TableDrop,
				Severity: High,
				Table:    c.FullName(),
				Message:  fmt.Sprintf("table %q is dropped", c.FullName()),
				Details:  "every row of this table is destroyed",
			})
			continue
		}
		warnings = append(warnings, compareColumns(c, t)...)
	}

	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Severity != warnings[j].Severity {
			return warnings[i].Severity > warnings[j].Severity
		}
		if !strings.EqualFold(warnings[i].Table, warnings[j].Table) {
			return strings.ToLower(warnings[i].Table) < strings.ToLower(warnings[j].Table)
		}
		if !strings.EqualFold(warnings[i].Column, warnings[j].Column) {
			return strings.ToLower(warnings[i].Column) < strings.ToLower(warnings[j].Column)
		}
		if warnings[i].Kind != warnings[j].Kind {
			return warnings[i].Kind < warnings[j].Kind
		}
		return warnings[i].Message < warnings[j].Message
	})

	report := Report{Warnings: warnings}
	for _, w := range warnings {
		switch w.Severity {
		case High:
			report.HasHigh = true
		case Medium:
			report.HasMedium = true
		}
	}
	report.RequiresConfirmation = report.HasHigh || report.HasMedium
	return report
}

func compareColumns(current, target schema.Table) []Warning {
	var warnings []Warning

	currentCols := make(map[string]schema.Column, len(current.Columns))
	for _, c := range current.Columns {
		currentCols[c.Name] = c
	}
	targetCols := make(map[string]schema.Column, len(target.Columns))
	for _, c := range target.Columns {
		targetCols[c.Name] = c
	}

	for name, c := range currentCols {
		t, exists := targetCols[name]
		if !exists {
			warnings = append(warnings, Warning{
				Kind:     ColumnDrop,
				Severity: High,
				Table:    current.FullName(),
				Column:   name,
				Message:  fmt.Sprintf("column %q is dropped", name),
				Details:  "every value stored in this column is destroyed",
			})
			continue
		}
		warnings = append(warnings, compareColumn(current.FullName(), c, t)...)
	}

	for name, t := range targetCols {
		if _, exists := currentCols[name]; exists {
			continue
		}
		if !t.IsNullable && t.Default == nil {
			warnings = append(warnings, Warning{
				Kind:     NullabilityChange,
				Severity: Medium,
				Table:    target.FullName(),
				Column:   name,
				Message:  fmt.Sprintf("column %q is added as non-nullable with no default", name),
				Details:  "existing rows have no value to populate this column with",
			})
		}
	}

	return warnings
}

func compareColumn(tableName string, current, target schema.Column) []Warning {
	var warnings []Warning

	if target.MaxLength != nil && current.MaxLength != nil && *target.MaxLength < *current.MaxLength {
		warnings = append(warnings, Warning{
			Kind:     LengthReduction,
			Severity: High,
			Table:    tableName,
			Column:   current.Name,
			Message:  fmt.Sprintf("column %q max_length reduced from %d to %d", current.Name, *current.MaxLength, *target.MaxLength),
			Details:  "values longer than the new length are truncated or rejected",
		})
	}

	precisionReduced := target.Precision != nil && current.Precision != nil && *target.Precision < *current.Precision
	scaleReduced := target.Scale != nil && current.Scale != nil && *target.Scale < *current.Scale
	if precisionReduced || scaleReduced {
		warnings = append(warnings, Warning{
			Kind:     PrecisionReduction,
			Severity: High,
			Table:    tableName,
			Column:   current.Name,
			Message:  fmt.Sprintf("column %q numeric precision or scale reduced", current.Name),
			Details:  "values exceeding the new precision/scale are truncated or rejected",
		})
	}

	if typeChanged(current, target) {
		sev, message := classifyTypeChange(current, target)
		if sev > None {
			warnings = append(warnings, Warning{
				Kind:     DataTypeChange,
				Severity: sev,
				Table:    tableName,
				Column:   current.Name,
				Message:  message,
				Details:  fmt.Sprintf("type changes from %s to %s", typeLabel(current), typeLabel(target)),
			})
		}
	}

	if current.IsNullable && !target.IsNullable {
		warnings = append(warnings, Warning{
			Kind:     NullabilityChange,
			Severity: Medium,
			Table:    tableName,
			Column:   current.Name,
			Message:  fmt.Sprintf("column %q changed from nullable to non-nullable", current.Name),
			Details:  "existing NULL values in this column violate the new constraint",
		})
	}

	return warnings
}

func typeChanged(current, target schema.Column) bool {
	return current.DeclaredType != target.DeclaredType || current.RawType != target.RawType
}

func typeLabel(c schema.Column) string {
	if c.RawType != "" {
		return strings.ToUpper(c.RawType)
	}
	return strings.ToUpper(string(c.DeclaredType))
}

// narrowingRule pairs a (from-substring, to-substring) match against the
// uppercase dialect type strings, per the Design Notes' clarification
// that the narrowing matrix operates on uppercase substring containment.
type narrowingRule struct {
	from, to string
	severity Severity
}

var narrowingMatrix = []narrowingRule{
	{from: "STRING", to: "INT", severity: High},
	{from: "VARCHAR", to: "INT", severity: High},
	{from: "TEXT", to: "INT", severity: High},
	{from: "DECIMAL", to: "INT", severity: High},
	{from: "NUMERIC", to: "INT", severity: High},
	{from: "BIGINT", to: "INT", severity: High},
	{from: "INT64", to: "INT32", severity: High},
	{from: "DATETIME", to: "STRING", severity: High},
	{from: "DATETIME", to: "VARCHAR", severity: High},
	{from: "DATETIME", to: "TEXT", severity: High},
	{from: "GUID", to: "STRING", severity: High},
	{from: "GUID", to: "VARCHAR", severity: High},
	{from: "UUID", to: "VARCHAR", severity: High},
	{from: "UNIQUEIDENTIFIER", to: "VARCHAR", severity: High},

	{from: "NVARCHAR", to: "VARCHAR", severity: Medium},
	{from: "DATETIME2", to: "DATETIME", severity: Medium},
	{from: "TIMESTAMP", to: "DATE", severity: Medium},
	{from: "FLOAT", to: "REAL", severity: Medium},
	{from: "DOUBLE", to: "FLOAT", severity: Medium},
	{from: "BIGSERIAL", to: "SERIAL", severity: Medium},
}

// classifyTypeChange implements spec's narrowing/lossy-family matrix:
// declared narrowing pairs are High, lossy-same-family pairs are
// Medium, and any other type change is Medium ("unclassified").
func classifyTypeChange(current, target schema.Column) (Severity, string) {
	from := typeLabel(current)
	to := typeLabel(target)

	for _, rule := range narrowingMatrix {
		if strings.Contains(from, rule.from) && strings.Contains(to, rule.to) {
			if rule.severity == High {
				return High, fmt.Sprintf("column %q type narrows from %s to %s", current.Name, from, to)
			}
			return Medium, fmt.Sprintf("column %q type changes from %s to %s (same-family, may lose precision)", current.Name, from, to)
		}
	}

	return Medium, fmt.Sprintf("column %q type changes from %s to %s", current.Name, from, to)
}
