// Package planner computes the structural diff between a current and a
// target []schema.Table and orders it into the deterministic sequence
// of changes the DDL generators turn into statements.
package planner

import (
	"reflect"
	"sort"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// SchemaDiff is the full set of differences between two schema snapshots.
type SchemaDiff struct {
	AddedTables    []schema.Table
	RemovedTables  []schema.Table
	ModifiedTables []TableDiff
}

// TableDiff is the set of differences within one table present in both
// snapshots.
type TableDiff struct {
	Table              schema.Table // target-side shape, used for full_name/schema lookups
	AddedColumns       []schema.Column
	RemovedColumns     []schema.Column
	ModifiedColumns    []ColumnDiff
	AddedIndexes       []schema.Index
	RemovedIndexes     []schema.Index
	AddedConstraints   []schema.Constraint
	RemovedConstraints []schema.Constraint
}

// ColumnDiff describes how a single column changed between snapshots.
type ColumnDiff struct {
	Current schema.Column
	Target  schema.Column
}

// IsEmpty reports whether a TableDiff carries no changes at all.
func (d TableDiff) IsEmpty() bool {
	return len(d.AddedColumns) == 0 && len(d.RemovedColumns) == 0 &&
		len(d.ModifiedColumns) == 0 && len(d.AddedIndexes) == 0 &&
		len(d.RemovedIndexes) == 0 && len(d.AddedConstraints) == 0 &&
		len(d.RemovedConstraints) == 0
}

// IsEmpty reports whether the diff carries no changes at all — the basis
// for the generator's idempotence guarantee (current == target yields no
// statements).
func (d SchemaDiff) IsEmpty() bool {
	return len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ModifiedTables) == 0
}

// Diff computes the SchemaDiff between current and target. It is pure
// and deterministic for equal inputs.
func Diff(current, target []schema.Table) SchemaDiff {
	currentByName := indexByFullName(current)
	targetByName := indexByFullName(target)

	var diff SchemaDiff
	for name, t := range targetByName {
		c, exists := currentByName[name]
		if !exists {
			diff.AddedTables = append(diff.AddedTables, t)
			continue
		}
		td := diffTable(c, t)
		if !td.IsEmpty() {
			diff.ModifiedTables = append(diff.ModifiedTables, td)
		}
	}
	for name, c := range currentByName {
		if _, exists := targetByName[name]; !exists {
			diff.RemovedTables = append(diff.RemovedTables, c)
		}
	}

	sortTables(diff.AddedTables)
	sortTables(diff.RemovedTables)
	sort.Slice(diff.ModifiedTables, func(i, j int) bool {
		return strings.ToLower(diff.ModifiedTables[i].Table.FullName()) < strings.ToLower(diff.ModifiedTables[j].Table.FullName())
	})

	return diff
}

func indexByFullName(tables []schema.Table) map[string]schema.Table {
	m := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		m[strings.ToLower(t.FullName())] = t
	}
	return m
}

func sortTables(tables []schema.Table) {
	sort.Slice(tables, func(i, j int) bool {
		return strings.ToLower(tables[i].FullName()) < strings.ToLower(tables[j].FullName())
	})
}

func diffTable(current, target schema.Table) TableDiff {
	td := TableDiff{Table: target}

	currentCols := columnsByName(current.Columns)
	targetCols := columnsByName(target.Columns)

	for name, tc := range targetCols {
		cc, exists := currentCols[name]
		if !exists {
			td.AddedColumns = append(td.AddedColumns, tc)
			continue
		}
		if columnChanged(cc, tc) {
			td.ModifiedColumns = append(td.ModifiedColumns, ColumnDiff{Current: cc, Target: tc})
		}
	}
	for name, cc := range currentCols {
		if _, exists := targetCols[name]; !exists {
			td.RemovedColumns = append(td.RemovedColumns, cc)
		}
	}

	currentIdx := indexesByName(current.Indexes)
	targetIdx := indexesByName(target.Indexes)
	for name, ti := range targetIdx {
		ci, exists := currentIdx[name]
		if !exists || indexChanged(ci, ti) {
			if exists {
				td.RemovedIndexes = append(td.RemovedIndexes, ci)
			}
			td.AddedIndexes = append(td.AddedIndexes, ti)
		}
	}
	for name, ci := range currentIdx {
		if ti, exists := targetIdx[name]; !exists || indexChanged(ci, ti) {
			if exists {
				continue // already recorded above alongside the recreate
			}
			td.RemovedIndexes = append(td.RemovedIndexes, ci)
		}
	}

	currentCon := constraintsByName(current.Constraints)
	targetCon := constraintsByName(target.Constraints)
	primaryKeyChanged := false
	for name, tc := range targetCon {
		cc, exists := currentCon[name]
		if !exists || constraintChanged(cc, tc) {
			if exists {
				td.RemovedConstraints = append(td.RemovedConstraints, cc)
				if cc.Kind == schema.PrimaryKey {
					primaryKeyChanged = true
				}
			}
			td.AddedConstraints = append(td.AddedConstraints, tc)
		}
	}
	for name, cc := range currentCon {
		if tc, exists := targetCon[name]; !exists || constraintChanged(cc, tc) {
			if exists {
				continue
			}
			td.RemovedConstraints = append(td.RemovedConstraints, cc)
			if cc.Kind == schema.PrimaryKey {
				primaryKeyChanged = true
			}
		}
	}

	if primaryKeyChanged {
		// A primary-key change cascades: every dependent index is
		// dropped and recreated regardless of its own diff result.
		seen := make(map[string]bool, len(td.RemovedIndexes))
		for _, idx := range td.RemovedIndexes {
			seen[idx.Name] = true
		}
		for _, idx := range current.Indexes {
			if !seen[idx.Name] {
				td.RemovedIndexes = append(td.RemovedIndexes, idx)
				seen[idx.Name] = true
			}
		}
		addedSeen := make(map[string]bool, len(td.AddedIndexes))
		for _, idx := range td.AddedIndexes {
			addedSeen[idx.Name] = true
		}
		for _, idx := range target.Indexes {
			if !addedSeen[idx.Name] {
				td.AddedIndexes = append(td.AddedIndexes, idx)
				addedSeen[idx.Name] = true
			}
		}
	}

	sortColumns(td.AddedColumns)
	sortColumns(td.RemovedColumns)
	sort.Slice(td.ModifiedColumns, func(i, j int) bool {
		return strings.ToLower(td.ModifiedColumns[i].Current.Name) < strings.ToLower(td.ModifiedColumns[j].Current.Name)
	})
	sortIndexes(td.AddedIndexes)
	sortIndexes(td.RemovedIndexes)
	sortConstraints(td.AddedConstraints)
	sortConstraints(td.RemovedConstraints)

	return td
}

func columnsByName(cols []schema.Column) map[string]schema.Column {
	m := make(map[string]schema.Column, len(cols))
	for _, c := range cols {
		m[c.Name] = c
	}
	return m
}

func indexesByName(idxs []schema.Index) map[string]schema.Index {
	m := make(map[string]schema.Index, len(idxs))
	for _, i := range idxs {
		m[i.Name] = i
	}
	return m
}

func constraintsByName(cons []schema.Constraint) map[string]schema.Constraint {
	m := make(map[string]schema.Constraint, len(cons))
	for _, c := range cons {
		m[c.Name] = c
	}
	return m
}

// columnChanged implements spec's column diff rule: any difference in
// declared_type, max_length, precision, scale, is_nullable,
// default_value, or collation.
func columnChanged(a, b schema.Column) bool {
	if a.DeclaredType != b.DeclaredType || a.RawType != b.RawType {
		return true
	}
	if !intPtrEqual(a.MaxLength, b.MaxLength) || !intPtrEqual(a.Precision, b.Precision) || !intPtrEqual(a.Scale, b.Scale) {
		return true
	}
	if a.IsNullable != b.IsNullable {
		return true
	}
	if a.Collation != b.Collation {
		return true
	}
	if !defaultEqual(a.Default, b.Default) {
		return true
	}
	return false
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func defaultEqual(a, b *schema.DefaultValue) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// indexChanged implements structural equality by (name, kind, ordered
// column list, flags); any difference triggers drop-and-recreate.
func indexChanged(a, b schema.Index) bool {
	if a.IsUnique != b.IsUnique || a.IsClustered != b.IsClustered || a.Kind != b.Kind {
		return true
	}
	if a.IncludeExpression != b.IncludeExpression || a.WhereExpression != b.WhereExpression {
		return true
	}
	return !reflect.DeepEqual(a.Columns, b.Columns)
}

func constraintChanged(a, b schema.Constraint) bool {
	if a.Kind != b.Kind || a.OnDelete != b.OnDelete || a.OnUpdate != b.OnUpdate {
		return true
	}
	if a.ReferencedTable != b.ReferencedTable || a.Expression != b.Expression {
		return true
	}
	if !reflect.DeepEqual(a.Columns, b.Columns) || !reflect.DeepEqual(a.ReferencedColumns, b.ReferencedColumns) {
		return true
	}
	return false
}

func sortColumns(cols []schema.Column) {
	sort.Slice(cols, func(i, j int) bool { return strings.ToLower(cols[i].Name) < strings.ToLower(cols[j].Name) })
}

func sortIndexes(idxs []schema.Index) {
	sort.Slice(idxs, func(i, j int) bool { return strings.ToLower(idxs[i].Name) < strings.ToLower(idxs[j].Name) })
}

func sortConstraints(cons []schema.Constraint) {
	sort.Slice(cons, func(i, j int) bool { return strings.ToLower(cons[i].Name) < strings.ToLower(cons[j].Name) })
}
