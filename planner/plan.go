package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// PlanStep is a single SQL operation in a migration plan, paired with a
// human-readable description for logging.
type PlanStep struct {
	Description string
	SQL         []string
}

// Plan is the ordered, flattened list of statements a Synchronizer run
// executes.
type Plan struct {
	Steps []PlanStep
}

// Statements flattens the plan into the raw SQL text each step emits,
// in execution order.
func (p Plan) Statements() []string {
	var out []string
	for _, step := range p.Steps {
		out = append(out, step.SQL...)
	}
	return out
}

// BuildMigrationScript turns a SchemaDiff into an ordered []string of
// DDL statements using the given dialect Generator. Ordering is fixed:
// CREATE TABLE, CREATE INDEX, ALTER, DROP INDEX, DROP TABLE; within a
// group, alphabetical by table full_name (case-insensitive) then by
// child name. Equal (current, target) pairs yield an empty diff and
// therefore an empty script — the generator's idempotence guarantee.
func BuildMigrationScript(diff SchemaDiff, gen schema.Generator) ([]string, error) {
	var createTable, createIndex, alter, dropIndex, dropTable []string

	added := append([]schema.Table{}, diff.AddedTables...)
	sortTables(added)
	for _, t := range added {
		stmt, err := gen.GenerateCreateTable(t)
		if err != nil {
			return nil, fmt.Errorf("create table %s: %w", t.FullName(), err)
		}
		createTable = append(createTable, stmt)

		idxs := append([]schema.Index{}, t.Indexes...)
		sortIndexes(idxs)
		for _, idx := range idxs {
			stmt, err := gen.GenerateCreateIndex(t, idx)
			if err != nil {
				return nil, fmt.Errorf("create index %s on %s: %w", idx.Name, t.FullName(), err)
			}
			createIndex = append(createIndex, stmt)
		}
	}

	modified := append([]TableDiff{}, diff.ModifiedTables...)
	sort.Slice(modified, func(i, j int) bool {
		return strings.ToLower(modified[i].Table.FullName()) < strings.ToLower(modified[j].Table.FullName())
	})
	for _, td := range modified {
		t := td.Table

		for _, col := range td.AddedColumns {
			stmt, err := gen.GenerateAlterAddColumn(t, col)
			if err != nil {
				return nil, fmt.Errorf("add column %s.%s: %w", t.FullName(), col.Name, err)
			}
			alter = append(alter, stmt)
		}
		for _, cd := range td.ModifiedColumns {
			stmts, err := gen.GenerateAlterAlterColumn(t, cd.Current, cd.Target)
			if err != nil {
				return nil, fmt.Errorf("alter column %s.%s: %w", t.FullName(), cd.Current.Name, err)
			}
			alter = append(alter, stmts...)
		}
		for _, con := range td.AddedConstraints {
			stmt := generateAddConstraintFallback(t, con, gen)
			if stmt != "" {
				alter = append(alter, stmt)
			}
		}

		for _, idx := range td.AddedIndexes {
			stmt, err := gen.GenerateCreateIndex(t, idx)
			if err != nil {
				return nil, fmt.Errorf("create index %s on %s: %w", idx.Name, t.FullName(), err)
			}
			createIndex = append(createIndex, stmt)
		}
		for _, idx := range td.RemovedIndexes {
			dropIndex = append(dropIndex, gen.GenerateDropIndex(t, idx))
		}
		for _, con := range td.RemovedConstraints {
			stmt := generateDropConstraintFallback(t, con, gen)
			if stmt != "" {
				alter = append(alter, stmt)
			}
		}
		for _, col := range td.RemovedColumns {
			alter = append(alter, gen.GenerateAlterDropColumn(t, col))
		}
	}

	removed := append([]schema.Table{}, diff.RemovedTables...)
	sortTables(removed)
	for _, t := range removed {
		dropTable = append(dropTable, gen.GenerateDropTable(t))
	}

	statements := make([]string, 0, len(createTable)+len(createIndex)+len(alter)+len(dropIndex)+len(dropTable))
	statements = append(statements, createTable...)
	statements = append(statements, createIndex...)
	statements = append(statements, alter...)
	statements = append(statements, dropIndex...)
	statements = append(statements, dropTable...)
	return statements, nil
}

// generateAddConstraintFallback and generateDropConstraintFallback are
// overridden per-dialect by ConstraintGenerator when a dialect needs
// specific ADD/DROP CONSTRAINT spelling beyond the column-level
// alterations; the zero-value fallback here keeps non-FK/check
// constraint changes (which ride along with column or table emission)
// from producing spurious statements.
func generateAddConstraintFallback(t schema.Table, c schema.Constraint, gen schema.Generator) string {
	if cg, ok := gen.(ConstraintGenerator); ok {
		return cg.GenerateAddConstraint(t, c)
	}
	return ""
}

func generateDropConstraintFallback(t schema.Table, c schema.Constraint, gen schema.Generator) string {
	if cg, ok := gen.(ConstraintGenerator); ok {
		return cg.GenerateDropConstraint(t, c)
	}
	return ""
}

// ConstraintGenerator is an optional extension a dialect Generator may
// implement to emit table-level ADD/DROP CONSTRAINT statements (foreign
// keys, unique, check) outside of CREATE TABLE. Dialects that only ever
// express these at table-creation time need not implement it.
type ConstraintGenerator interface {
	GenerateAddConstraint(t schema.Table, c schema.Constraint) string
	GenerateDropConstraint(t schema.Table, c schema.Constraint) string
}
