package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// Introspector implements schema.Introspector for MySQL, reading
// exclusively from information_schema. MySQL has no schema concept in
// this model; the current database (DATABASE()) is always the target.
type Introspector struct{}

// NewIntrospector creates a new MySQL introspector.
func NewIntrospector() *Introspector { return &Introspector{} }

// Provider reports the dialect this introspector reads.
func (i *Introspector) Provider() schema.Dialect { return schema.MySql }

// GetTables returns every base table in the current database.
func (i *Introspector) GetTables(ctx context.Context, exec schema.Executor, _ string) ([]schema.Table, error) {
	rows, err := exec.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}

		columns, err := i.GetColumns(ctx, exec, name, "")
		if err != nil {
			return nil, fmt.Errorf("columns for table %q: %w", name, err)
		}
		indexes, err := i.GetIndexes(ctx, exec, name, "")
		if err != nil {
			return nil, fmt.Errorf("indexes for table %q: %w", name, err)
		}
		constraints, err := i.GetConstraints(ctx, exec, name, "")
		if err != nil {
			return nil, fmt.Errorf("constraints for table %q: %w", name, err)
		}

		tables = append(tables, schema.Table{Name: name, Columns: columns, Indexes: indexes, Constraints: constraints})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// GetColumns returns every column of table in ordinal_position order.
func (i *Introspector) GetColumns(ctx context.Context, exec schema.Executor, table, _ string) ([]schema.Column, error) {
	rows, err := exec.Query(ctx, `
		SELECT column_name, column_type, is_nullable, column_default, extra,
		       character_maximum_length, numeric_precision, numeric_scale, collation_name,
		       column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = @table
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns for %q: %w", table, err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var name, columnType, isNullable, extra string
		var defaultVal, collation *string
		var maxLength, precision, scale *int
		var columnKey string

		if err := rows.Scan(&name, &columnType, &isNullable, &defaultVal, &extra, &maxLength, &precision, &scale, &collation, &columnKey); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}

		col := schema.Column{
			Name:         name,
			MaxLength:    maxLength,
			Precision:    precision,
			Scale:        scale,
			IsNullable:   isNullable == "YES",
			IsPrimaryKey: columnKey == "PRI",
			IsIdentity:   strings.Contains(extra, "auto_increment"),
		}
		if collation != nil {
			col.Collation = *collation
		}
		if declared, ok := mapReverseType(columnType); ok {
			col.DeclaredType = declared
		} else {
			col.RawType = columnType
		}
		if defaultVal != nil {
			col.Default = &schema.DefaultValue{Literal: *defaultVal}
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

// GetIndexes returns every secondary index on table, excluding the
// primary key index.
func (i *Introspector) GetIndexes(ctx context.Context, exec schema.Executor, table, _ string) ([]schema.Index, error) {
	rows, err := exec.Query(ctx, `
		SELECT index_name, non_unique, index_type, seq_in_index, column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = @table AND index_name <> 'PRIMARY'
		ORDER BY index_name, seq_in_index`, table)
	if err != nil {
		return nil, fmt.Errorf("querying indexes for %q: %w", table, err)
	}
	defer rows.Close()

	type built struct {
		index schema.Index
		order []string
	}
	byName := make(map[string]*built)
	var order []string

	for rows.Next() {
		var indexName, indexType, columnName string
		var nonUnique, seqInIndex int
		if err := rows.Scan(&indexName, &nonUnique, &indexType, &seqInIndex, &columnName); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}

		b, exists := byName[indexName]
		if !exists {
			b = &built{index: schema.Index{
				Name:     indexName,
				IsUnique: nonUnique == 0,
				Kind:     indexKindFromType(indexType),
			}}
			byName[indexName] = b
			order = append(order, indexName)
		}
		b.index.Columns = append(b.index.Columns, schema.IndexColumn{ColumnName: columnName, Ordinal: seqInIndex})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, name := range order {
		indexes = append(indexes, byName[name].index)
	}
	return indexes, nil
}

func indexKindFromType(indexType string) schema.IndexKind {
	switch strings.ToUpper(indexType) {
	case "HASH":
		return schema.Hash
	case "FULLTEXT":
		return schema.FullText
	case "SPATIAL":
		return schema.Spatial
	default:
		return schema.BTree
	}
}

// GetConstraints returns the PRIMARY KEY, FOREIGN KEY, and CHECK
// (8.0.16+) constraints of table. UNIQUE is deliberately excluded here;
// see the comment below. check_constraints carries no column list, but
// schema.Constraint.Validate only requires one for PRIMARY
// KEY/UNIQUE/FOREIGN KEY, so a Check constraint round-trips on its name
// and check_clause alone.
func (i *Introspector) GetConstraints(ctx context.Context, exec schema.Executor, table, _ string) ([]schema.Constraint, error) {
	var constraints []schema.Constraint

	pkRows, err := exec.Query(ctx, `
		SELECT column_name FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = @table AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("querying primary key for %q: %w", table, err)
	}
	var pkCols []string
	for pkRows.Next() {
		var col string
		if err := pkRows.Scan(&col); err != nil {
			pkRows.Close()
			return nil, fmt.Errorf("scanning primary key column: %w", err)
		}
		pkCols = append(pkCols, col)
	}
	pkErr := pkRows.Err()
	pkRows.Close()
	if pkErr != nil {
		return nil, pkErr
	}
	if len(pkCols) > 0 {
		constraints = append(constraints, schema.Constraint{Name: fmt.Sprintf("PK_%s", table), Kind: schema.PrimaryKey, Columns: pkCols})
	}

	fkRows, err := exec.Query(ctx, `
		SELECT k.constraint_name, k.column_name, k.referenced_table_name, k.referenced_column_name,
		       r.delete_rule, r.update_rule
		FROM information_schema.key_column_usage k
		JOIN information_schema.referential_constraints r
		  ON r.constraint_schema = k.table_schema AND r.constraint_name = k.constraint_name
		WHERE k.table_schema = DATABASE() AND k.table_name = @table AND k.referenced_table_name IS NOT NULL
		ORDER BY k.constraint_name, k.ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys for %q: %w", table, err)
	}
	defer fkRows.Close()

	fkByName := make(map[string]*schema.Constraint)
	var fkOrder []string
	for fkRows.Next() {
		var name, column, refTable, refColumn, deleteRule, updateRule string
		if err := fkRows.Scan(&name, &column, &refTable, &refColumn, &deleteRule, &updateRule); err != nil {
			return nil, fmt.Errorf("scanning foreign key row: %w", err)
		}
		fk, exists := fkByName[name]
		if !exists {
			onDelete, _ := schema.ParseReferentialAction(deleteRule)
			onUpdate, _ := schema.ParseReferentialAction(updateRule)
			fk = &schema.Constraint{Name: name, Kind: schema.ForeignKey, ReferencedTable: refTable, OnDelete: onDelete, OnUpdate: onUpdate}
			fkByName[name] = fk
			fkOrder = append(fkOrder, name)
		}
		fk.Columns = append(fk.Columns, column)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refColumn)
	}
	if err := fkRows.Err(); err != nil {
		return nil, err
	}
	for _, name := range fkOrder {
		constraints = append(constraints, *fkByName[name])
	}

	// Unlike Postgres/SQL Server, MySQL has no separate catalog identity
	// for a "unique constraint": a named UNIQUE is implemented as, and
	// indistinguishable from, a named unique KEY, so it already
	// round-trips correctly as a schema.Index (IsUnique: true) via
	// GetIndexes. Returning it again here as a schema.Constraint would
	// double-represent the same object and make Diff think the
	// constraint form needs dropping on every run (MySQL also has no
	// ALTER TABLE ... DROP CONSTRAINT for a unique key, only DROP INDEX,
	// so that statement would fail outright).

	ckRows, err := exec.Query(ctx, `
		SELECT tc.constraint_name, cc.check_clause
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
			ON cc.constraint_name = tc.constraint_name AND cc.constraint_schema = tc.table_schema
		WHERE tc.table_schema = DATABASE() AND tc.table_name = @table AND tc.constraint_type = 'CHECK'
		ORDER BY tc.constraint_name`, table)
	if err != nil {
		return nil, fmt.Errorf("querying check constraints for %q: %w", table, err)
	}
	defer ckRows.Close()
	for ckRows.Next() {
		var name, clause string
		if err := ckRows.Scan(&name, &clause); err != nil {
			return nil, fmt.Errorf("scanning check constraint row: %w", err)
		}
		constraints = append(constraints, schema.Constraint{Name: name, Kind: schema.Check, Expression: clause})
	}
	if err := ckRows.Err(); err != nil {
		return nil, err
	}

	return constraints, nil
}

// TableExists reports whether table is present in the current database.
func (i *Introspector) TableExists(ctx context.Context, exec schema.Executor, table, _ string) (bool, error) {
	result, err := exec.ExecuteScalar(ctx, `
		SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = @table)`, table)
	if err != nil {
		return false, fmt.Errorf("checking existence of table %q: %w", table, err)
	}
	return schema.Truthy(result), nil
}

// ColumnExists reports whether column exists on table.
func (i *Introspector) ColumnExists(ctx context.Context, exec schema.Executor, table, column, _ string) (bool, error) {
	result, err := exec.ExecuteScalar(ctx, `
		SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = @table AND column_name = @column)`, table, column)
	if err != nil {
		return false, fmt.Errorf("checking existence of column %q.%q: %w", table, column, err)
	}
	return schema.Truthy(result), nil
}
