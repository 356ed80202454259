package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/bowtie-db/bowtie/schema"
)

// ComputeModelHash produces a deterministic fingerprint of a []Table:
// any change to a table, column, index, or constraint changes the
// hash. Tables, columns, indexes, and constraints are sorted by name
// before hashing so that input ordering never affects the result.
func ComputeModelHash(tables []schema.Table) string {
	canonical := canonicalizeTables(tables)
	jsonBytes, err := json.Marshal(canonical)
	if err != nil {
		// canonicalizeTables only produces json.Marshal-safe values
		// (maps, slices, strings, ints, bools); a marshal failure here
		// would indicate a bug in that function, not bad input.
		panic(err)
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:])
}

func canonicalizeTables(tables []schema.Table) map[string]any {
	sorted := make([]schema.Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FullName() < sorted[j].FullName() })

	out := make([]any, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, map[string]any{
			"full_name":   t.FullName(),
			"columns":     canonicalizeColumns(t.Columns),
			"indexes":     canonicalizeIndexes(t.Indexes),
			"constraints": canonicalizeConstraints(t.Constraints),
		})
	}
	return map[string]any{"tables": out}
}

func canonicalizeColumns(cols []schema.Column) []any {
	sorted := make([]schema.Column, len(cols))
	copy(sorted, cols)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := make([]any, 0, len(sorted))
	for _, c := range sorted {
		m := map[string]any{
			"name":           c.Name,
			"declared_type":  string(c.DeclaredType),
			"raw_type":       c.RawType,
			"is_nullable":    c.IsNullable,
			"is_primary_key": c.IsPrimaryKey,
			"is_identity":    c.IsIdentity,
		}
		if c.MaxLength != nil {
			m["max_length"] = *c.MaxLength
		}
		if c.Precision != nil {
			m["precision"] = *c.Precision
		}
		if c.Scale != nil {
			m["scale"] = *c.Scale
		}
		if c.Collation != "" {
			m["collation"] = c.Collation
		}
		if c.Default != nil {
			m["default"] = map[string]any{"literal": c.Default.Literal, "is_raw": c.Default.IsRaw}
		}
		out = append(out, m)
	}
	return out
}

func canonicalizeIndexes(idxs []schema.Index) []any {
	sorted := make([]schema.Index, len(idxs))
	copy(sorted, idxs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := make([]any, 0, len(sorted))
	for _, idx := range sorted {
		cols := make([]any, 0, len(idx.Columns))
		for _, c := range idx.Columns {
			cols = append(cols, map[string]any{"column": c.ColumnName, "ordinal": c.Ordinal, "descending": c.Descending})
		}
		out = append(out, map[string]any{
			"name":         idx.Name,
			"is_unique":    idx.IsUnique,
			"is_clustered": idx.IsClustered,
			"kind":         string(idx.Kind),
			"columns":      cols,
			"include":      idx.IncludeExpression,
			"where":        idx.WhereExpression,
		})
	}
	return out
}

func canonicalizeConstraints(cons []schema.Constraint) []any {
	sorted := make([]schema.Constraint, len(cons))
	copy(sorted, cons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := make([]any, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, map[string]any{
			"name":               c.Name,
			"kind":               string(c.Kind),
			"columns":            c.Columns,
			"referenced_table":   c.ReferencedTable,
			"referenced_columns": c.ReferencedColumns,
			"on_delete":          string(c.OnDelete),
			"on_update":          string(c.OnUpdate),
			"expression":         c.Expression,
		})
	}
	return out
}
