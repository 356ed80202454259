package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// Introspector implements schema.Introspector for PostgreSQL, reading
// information_schema plus pg_catalog for index access-method and
// identity detection.
type Introspector struct{}

// NewIntrospector creates a new PostgreSQL introspector.
func NewIntrospector() *Introspector { return &Introspector{} }

// Provider reports the dialect this introspector reads.
func (i *Introspector) Provider() schema.Dialect { return schema.PostgreSql }

func resolveSchema(schemaName string) string {
	if schemaName == "" {
		return capability.DefaultSchema
	}
	return schemaName
}

// GetTables returns every base table in the given schema.
func (i *Introspector) GetTables(ctx context.Context, exec schema.Executor, schemaName string) ([]schema.Table, error) {
	schemaName = resolveSchema(schemaName)
	rows, err := exec.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = @schema AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("listing tables in schema %q: %w", schemaName, err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		table := schema.Table{Name: name, Schema: schemaName}

		columns, err := i.GetColumns(ctx, exec, name, schemaName)
		if err != nil {
			return nil, fmt.Errorf("columns for table %q: %w", name, err)
		}
		table.Columns = columns

		indexes, err := i.GetIndexes(ctx, exec, name, schemaName)
		if err != nil {
			return nil, fmt.Errorf("indexes for table %q: %w", name, err)
		}
		table.Indexes = indexes

		constraints, err := i.GetConstraints(ctx, exec, name, schemaName)
		if err != nil {
			return nil, fmt.Errorf("constraints for table %q: %w", name, err)
		}
		table.Constraints = constraints

		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// GetColumns returns every column of table in schemaName, with
// identity detected via column_default LIKE 'nextval%' per the
// introspector's design note.
func (i *Introspector) GetColumns(ctx context.Context, exec schema.Executor, table, schemaName string) ([]schema.Column, error) {
	schemaName = resolveSchema(schemaName)

	rows, err := exec.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.collation_name,
			COALESCE((
				SELECT true FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
				WHERE tc.table_name = c.table_name AND tc.table_schema = c.table_schema
					AND tc.constraint_type = 'PRIMARY KEY' AND kcu.column_name = c.column_name
			), false) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = @schema AND c.table_name = @table
		ORDER BY c.ordinal_position`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			name, dataType, nullable string
			defaultVal               *string
			maxLength                *int
			precision                *int
			scale                    *int
			collation                *string
			isPrimaryKey             bool
		)
		if err := rows.Scan(&name, &dataType, &nullable, &defaultVal, &maxLength, &precision, &scale, &collation, &isPrimaryKey); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}

		col := schema.Column{
			Name:         name,
			IsNullable:   nullable == "YES",
			IsPrimaryKey: isPrimaryKey,
			MaxLength:    maxLength,
			Precision:    precision,
			Scale:        scale,
		}
		if collation != nil {
			col.Collation = *collation
		}

		isIdentity := defaultVal != nil && isSerialDefault(*defaultVal)
		col.IsIdentity = isIdentity && isPrimaryKey

		if declared, ok := mapReverseType(dataType); ok {
			col.DeclaredType = declared
		} else {
			col.RawType = strings.TrimSpace(dataType)
		}

		if !isIdentity && defaultVal != nil {
			col.Default = &schema.DefaultValue{Literal: normalizeDefault(*defaultVal)}
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

// GetIndexes returns every secondary index on table, excluding indexes
// backing a PRIMARY KEY or UNIQUE constraint (those surface via
// GetConstraints instead).
func (i *Introspector) GetIndexes(ctx context.Context, exec schema.Executor, table, schemaName string) ([]schema.Index, error) {
	schemaName = resolveSchema(schemaName)

	rows, err := exec.Query(ctx, `
		SELECT
			ic.relname AS index_name,
			ix.indisunique,
			am.amname AS access_method,
			a.attname AS column_name,
			k.ordinality AS ordinal
		FROM pg_index ix
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = tc.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ordinality) ON true
		JOIN pg_attribute a ON a.attrelid = tc.oid AND a.attnum = k.attnum
		WHERE n.nspname = @schema AND tc.relname = @table
			AND ix.indisprimary = false
			AND NOT EXISTS (
				SELECT 1 FROM pg_constraint con
				WHERE con.conindid = ix.indexrelid AND con.contype IN ('p', 'u')
			)
		ORDER BY index_name, ordinal`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying indexes for table %q: %w", table, err)
	}
	defer rows.Close()

	indexByName := make(map[string]*schema.Index)
	var order []string
	for rows.Next() {
		var name, accessMethod, column string
		var isUnique bool
		var ordinal int
		if err := rows.Scan(&name, &isUnique, &accessMethod, &column, &ordinal); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		idx, exists := indexByName[name]
		if !exists {
			idx = &schema.Index{Name: name, IsUnique: isUnique, Kind: indexKindFromAccessMethod(accessMethod)}
			indexByName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, schema.IndexColumn{ColumnName: column, Ordinal: ordinal})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, name := range order {
		indexes = append(indexes, *indexByName[name])
	}
	return indexes, nil
}

func indexKindFromAccessMethod(am string) schema.IndexKind {
	switch strings.ToLower(am) {
	case "btree":
		return schema.BTree
	case "hash":
		return schema.Hash
	case "gin":
		return schema.GIN
	case "gist":
		return schema.GiST
	case "brin":
		return schema.BRIN
	case "spgist":
		return schema.SPGiST
	default:
		return schema.BTree
	}
}

// GetConstraints returns the PRIMARY KEY, FOREIGN KEY, UNIQUE, and
// CHECK constraints declared on table.
func (i *Introspector) GetConstraints(ctx context.Context, exec schema.Executor, table, schemaName string) ([]schema.Constraint, error) {
	schemaName = resolveSchema(schemaName)
	var constraints []schema.Constraint

	pkRows, err := exec.Query(ctx, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = @schema AND tc.table_name = @table AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying primary key: %w", err)
	}
	defer pkRows.Close()
	var pkName string
	var pkColumns []string
	for pkRows.Next() {
		var name, col string
		if err := pkRows.Scan(&name, &col); err != nil {
			return nil, err
		}
		pkName = name
		pkColumns = append(pkColumns, col)
	}
	if len(pkColumns) > 0 {
		constraints = append(constraints, schema.Constraint{Name: pkName, Kind: schema.PrimaryKey, Columns: pkColumns})
	}

	fkRows, err := exec.Query(ctx, `
		SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name, rc.update_rule, rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = @schema AND tc.table_name = @table
		ORDER BY tc.constraint_name, kcu.ordinal_position`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer fkRows.Close()

	fkByName := make(map[string]*schema.Constraint)
	var fkOrder []string
	for fkRows.Next() {
		var name, col, refTable, refCol, updateRule, deleteRule string
		if err := fkRows.Scan(&name, &col, &refTable, &refCol, &updateRule, &deleteRule); err != nil {
			return nil, err
		}
		fk, exists := fkByName[name]
		if !exists {
			onDelete, _ := schema.ParseReferentialAction(deleteRule)
			onUpdate, _ := schema.ParseReferentialAction(updateRule)
			fk = &schema.Constraint{Name: name, Kind: schema.ForeignKey, ReferencedTable: refTable, OnDelete: onDelete, OnUpdate: onUpdate}
			fkByName[name] = fk
			fkOrder = append(fkOrder, name)
		}
		fk.Columns = append(fk.Columns, col)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
	}
	for _, name := range fkOrder {
		constraints = append(constraints, *fkByName[name])
	}

	uqRows, err := exec.Query(ctx, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = @schema AND tc.table_name = @table AND tc.constraint_type = 'UNIQUE'
		ORDER BY tc.constraint_name, kcu.ordinal_position`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying unique constraints: %w", err)
	}
	defer uqRows.Close()

	uqByName := make(map[string]*schema.Constraint)
	var uqOrder []string
	for uqRows.Next() {
		var name, col string
		if err := uqRows.Scan(&name, &col); err != nil {
			return nil, err
		}
		uq, exists := uqByName[name]
		if !exists {
			uq = &schema.Constraint{Name: name, Kind: schema.Unique}
			uqByName[name] = uq
			uqOrder = append(uqOrder, name)
		}
		uq.Columns = append(uq.Columns, col)
	}
	if err := uqRows.Err(); err != nil {
		return nil, err
	}
	for _, name := range uqOrder {
		constraints = append(constraints, *uqByName[name])
	}

	ckRows, err := exec.Query(ctx, `
		SELECT tc.constraint_name, cc.check_clause
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
			ON cc.constraint_name = tc.constraint_name AND cc.constraint_schema = tc.table_schema
		WHERE tc.table_schema = @schema AND tc.table_name = @table AND tc.constraint_type = 'CHECK'
		ORDER BY tc.constraint_name`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying check constraints: %w", err)
	}
	defer ckRows.Close()
	for ckRows.Next() {
		var name, clause string
		if err := ckRows.Scan(&name, &clause); err != nil {
			return nil, err
		}
		constraints = append(constraints, schema.Constraint{Name: name, Kind: schema.Check, Expression: stripOuterParens(clause)})
	}
	if err := ckRows.Err(); err != nil {
		return nil, err
	}

	return constraints, nil
}

// stripOuterParens removes a single layer of enclosing parentheses
// PostgreSQL adds around a check_clause's expression (e.g.
// "(amount > 0)" -> "amount > 0"), so a round-tripped constraint's
// Expression matches the literal the Analyzer produced.
func stripOuterParens(expr string) string {
	expr = strings.TrimSpace(expr)
	if len(expr) >= 2 && expr[0] == '(' && expr[len(expr)-1] == ')' {
		return expr[1 : len(expr)-1]
	}
	return expr
}

// TableExists reports whether table exists in schemaName.
func (i *Introspector) TableExists(ctx context.Context, exec schema.Executor, table, schemaName string) (bool, error) {
	schemaName = resolveSchema(schemaName)
	result, err := exec.ExecuteScalar(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = @schema AND table_name = @table
		)`, schemaName, table)
	if err != nil {
		return false, fmt.Errorf("checking existence of table %q: %w", table, err)
	}
	return schema.Truthy(result), nil
}

// ColumnExists reports whether column exists on table in schemaName.
func (i *Introspector) ColumnExists(ctx context.Context, exec schema.Executor, table, column, schemaName string) (bool, error) {
	schemaName = resolveSchema(schemaName)
	result, err := exec.ExecuteScalar(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = @schema AND table_name = @table AND column_name = @column
		)`, schemaName, table, column)
	if err != nil {
		return false, fmt.Errorf("checking existence of column %q on table %q: %w", column, table, err)
	}
	return schema.Truthy(result), nil
}

// normalizeDefault strips a trailing PostgreSQL type cast (e.g.
// '{}'::jsonb -> '{}') so diffing defaults is not thrown off by
// redundant cast noise the server adds back on every read.
func normalizeDefault(defaultVal string) string {
	if idx := strings.LastIndex(defaultVal, "::"); idx > 0 {
		beforeCast := defaultVal[:idx]
		if strings.Count(beforeCast, "'")%2 == 0 {
			return beforeCast
		}
	}
	return defaultVal
}
