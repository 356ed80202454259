package sqlserver

import (
	"context"
	"fmt"

	"github.com/bowtie-db/bowtie/schema"
)

// Introspector implements schema.Introspector for SQL Server, combining
// INFORMATION_SCHEMA with sys.indexes/sys.index_columns/sys.columns for
// index metadata and COLUMNPROPERTY for identity detection.
type Introspector struct{}

// NewIntrospector creates a new SQL Server introspector.
func NewIntrospector() *Introspector { return &Introspector{} }

// Provider reports the dialect this introspector reads.
func (i *Introspector) Provider() schema.Dialect { return schema.SqlServer }

func (i *Introspector) resolveSchema(schemaName string) string {
	if schemaName == "" {
		cap, _ := schema.CapabilityFor(schema.SqlServer)
		return cap.DefaultSchema
	}
	return schemaName
}

// GetTables returns every base table in schemaName.
func (i *Introspector) GetTables(ctx context.Context, exec schema.Executor, schemaName string) ([]schema.Table, error) {
	schemaName = i.resolveSchema(schemaName)

	rows, err := exec.Query(ctx, `
		SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @schema AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`, schemaName)
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

		columns, err := i.GetColumns(ctx, exec, name, schemaName)
		if err != nil {
			return nil, fmt.Errorf("columns for table %q: %w", name, err)
		}
		indexes, err := i.GetIndexes(ctx, exec, name, schemaName)
		if err != nil {
			return nil, fmt.Errorf("indexes for table %q: %w", name, err)
		}
		constraints, err := i.GetConstraints(ctx, exec, name, schemaName)
		if err != nil {
			return nil, fmt.Errorf("constraints for table %q: %w", name, err)
		}

		tables = append(tables, schema.Table{Name: name, Schema: schemaName, Columns: columns, Indexes: indexes, Constraints: constraints})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// GetColumns returns every column of table in ordinal_position order.
func (i *Introspector) GetColumns(ctx context.Context, exec schema.Executor, table, schemaName string) ([]schema.Column, error) {
	schemaName = i.resolveSchema(schemaName)

	rows, err := exec.Query(ctx, `
		SELECT c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE, c.COLUMN_DEFAULT,
		       c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION, c.NUMERIC_SCALE, c.COLLATION_NAME,
		       COLUMNPROPERTY(OBJECT_ID(@schema + '.' + @table), c.COLUMN_NAME, 'IsIdentity'),
		       CASE WHEN EXISTS (
		           SELECT 1 FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		           JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		             ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		           WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND kcu.TABLE_SCHEMA = @schema
		             AND kcu.TABLE_NAME = @table AND kcu.COLUMN_NAME = c.COLUMN_NAME
		       ) THEN 1 ELSE 0 END
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @schema AND c.TABLE_NAME = @table
		ORDER BY c.ORDINAL_POSITION`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns for %q: %w", table, err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var name, dataType, isNullable string
		var defaultVal, collation *string
		var maxLength, precision, scale *int
		var isIdentity, isPrimaryKey int

		if err := rows.Scan(&name, &dataType, &isNullable, &defaultVal, &maxLength, &precision, &scale, &collation, &isIdentity, &isPrimaryKey); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}

		col := schema.Column{
			Name:         name,
			MaxLength:    maxLength,
			Precision:    precision,
			Scale:        scale,
			IsNullable:   isNullable == "YES",
			IsPrimaryKey: isPrimaryKey == 1,
			IsIdentity:   isIdentity == 1,
		}
		if collation != nil {
			col.Collation = *collation
		}
		if declared, ok := mapReverseType(dataType); ok {
			col.DeclaredType = declared
		} else {
			col.RawType = dataType
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

// GetIndexes returns every secondary index on table via sys.indexes/
// sys.index_columns/sys.columns, excluding the indexes backing a
// PRIMARY KEY or UNIQUE constraint.
func (i *Introspector) GetIndexes(ctx context.Context, exec schema.Executor, table, schemaName string) ([]schema.Index, error) {
	schemaName = i.resolveSchema(schemaName)

	rows, err := exec.Query(ctx, `
		SELECT idx.name, idx.is_unique, idx.type_desc, ic.key_ordinal, ic.is_descending_key, c.name
		FROM sys.indexes idx
		JOIN sys.index_columns ic ON ic.object_id = idx.object_id AND ic.index_id = idx.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		JOIN sys.tables t ON t.object_id = idx.object_id
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		WHERE s.name = @schema AND t.name = @table AND idx.is_primary_key = 0 AND idx.is_unique_constraint = 0
		  AND idx.name IS NOT NULL AND ic.is_included_column = 0
		ORDER BY idx.name, ic.key_ordinal`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying indexes for %q: %w", table, err)
	}
	defer rows.Close()

	byName := make(map[string]*schema.Index)
	var order []string
	for rows.Next() {
		var name, typeDesc, columnName string
		var isUnique bool
		var keyOrdinal int
		var isDescending bool

		if err := rows.Scan(&name, &isUnique, &typeDesc, &keyOrdinal, &isDescending, &columnName); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}

		idx, exists := byName[name]
		if !exists {
			idx = &schema.Index{Name: name, IsUnique: isUnique, Kind: indexKindFromTypeDesc(typeDesc), IsClustered: typeDesc == "CLUSTERED"}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, schema.IndexColumn{ColumnName: columnName, Ordinal: keyOrdinal, Descending: isDescending})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}
	return indexes, nil
}

func indexKindFromTypeDesc(typeDesc string) schema.IndexKind {
	switch typeDesc {
	case "CLUSTERED":
		return schema.Clustered
	case "NONCLUSTERED":
		return schema.NonClustered
	case "CLUSTERED COLUMNSTORE", "NONCLUSTERED COLUMNSTORE":
		return schema.ColumnStore
	case "SPATIAL":
		return schema.Spatial
	case "XML":
		return schema.FullText
	default:
		return schema.BTree
	}
}

// GetConstraints returns the PRIMARY KEY, FOREIGN KEY, UNIQUE, and CHECK
// constraints of table.
func (i *Introspector) GetConstraints(ctx context.Context, exec schema.Executor, table, schemaName string) ([]schema.Constraint, error) {
	schemaName = i.resolveSchema(schemaName)
	var constraints []schema.Constraint

	pkRows, err := exec.Query(ctx, `
		SELECT tc.CONSTRAINT_NAME, kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		  ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @schema AND tc.TABLE_NAME = @table
		ORDER BY kcu.ORDINAL_POSITION`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying primary key for %q: %w", table, err)
	}
	var pkName string
	var pkCols []string
	for pkRows.Next() {
		var name, col string
		if err := pkRows.Scan(&name, &col); err != nil {
			pkRows.Close()
			return nil, fmt.Errorf("scanning primary key row: %w", err)
		}
		pkName = name
		pkCols = append(pkCols, col)
	}
	pkErr := pkRows.Err()
	pkRows.Close()
	if pkErr != nil {
		return nil, pkErr
	}
	if len(pkCols) > 0 {
		constraints = append(constraints, schema.Constraint{Name: pkName, Kind: schema.PrimaryKey, Columns: pkCols})
	}

	fkRows, err := exec.Query(ctx, `
		SELECT fk.name, pc.name, rt.name, rc.name,
		       fk.delete_referential_action_desc, fk.update_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		JOIN sys.tables t ON t.object_id = fk.parent_object_id
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		WHERE s.name = @schema AND t.name = @table
		ORDER BY fk.name, fkc.constraint_column_id`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys for %q: %w", table, err)
	}
	defer fkRows.Close()

	fkByName := make(map[string]*schema.Constraint)
	var fkOrder []string
	for fkRows.Next() {
		var name, column, refTable, refColumn, deleteDesc, updateDesc string
		if err := fkRows.Scan(&name, &column, &refTable, &refColumn, &deleteDesc, &updateDesc); err != nil {
			return nil, fmt.Errorf("scanning foreign key row: %w", err)
		}
		fk, exists := fkByName[name]
		if !exists {
			onDelete, _ := schema.ParseReferentialAction(deleteDesc)
			onUpdate, _ := schema.ParseReferentialAction(updateDesc)
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

	uqRows, err := exec.Query(ctx, `
		SELECT tc.CONSTRAINT_NAME, kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		  ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'UNIQUE' AND tc.TABLE_SCHEMA = @schema AND tc.TABLE_NAME = @table
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying unique constraints for %q: %w", table, err)
	}
	defer uqRows.Close()

	uqByName := make(map[string]*schema.Constraint)
	var uqOrder []string
	for uqRows.Next() {
		var name, col string
		if err := uqRows.Scan(&name, &col); err != nil {
			return nil, fmt.Errorf("scanning unique constraint row: %w", err)
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
		SELECT tc.CONSTRAINT_NAME, cc.CHECK_CLAUSE
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.CHECK_CONSTRAINTS cc
		  ON cc.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND cc.CONSTRAINT_SCHEMA = tc.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'CHECK' AND tc.TABLE_SCHEMA = @schema AND tc.TABLE_NAME = @table
		ORDER BY tc.CONSTRAINT_NAME`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("querying check constraints for %q: %w", table, err)
	}
	defer ckRows.Close()
	for ckRows.Next() {
		var name, clause string
		if err := ckRows.Scan(&name, &clause); err != nil {
			return nil, fmt.Errorf("scanning check constraint row: %w", err)
		}
		constraints = append(constraints, schema.Constraint{Name: name, Kind: schema.Check, Expression: stripOuterParens(clause)})
	}
	if err := ckRows.Err(); err != nil {
		return nil, err
	}

	return constraints, nil
}

// stripOuterParens removes a single layer of enclosing parentheses SQL
// Server adds around a CHECK_CLAUSE's expression (e.g. "([Amount]>(0))"
// keeps its inner parens but the outermost pair is server-added
// wrapping), so a round-tripped constraint's Expression is closer to the
// literal the Analyzer produced.
func stripOuterParens(expr string) string {
	if len(expr) >= 2 && expr[0] == '(' && expr[len(expr)-1] == ')' {
		return expr[1 : len(expr)-1]
	}
	return expr
}

// TableExists reports whether table is present in schemaName.
func (i *Introspector) TableExists(ctx context.Context, exec schema.Executor, table, schemaName string) (bool, error) {
	schemaName = i.resolveSchema(schemaName)
	result, err := exec.ExecuteScalar(ctx, `
		SELECT CASE WHEN EXISTS (
			SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
		) THEN 1 ELSE 0 END`, schemaName, table)
	if err != nil {
		return false, fmt.Errorf("checking existence of table %q: %w", table, err)
	}
	return schema.Truthy(result), nil
}

// ColumnExists reports whether column exists on table.
func (i *Introspector) ColumnExists(ctx context.Context, exec schema.Executor, table, column, schemaName string) (bool, error) {
	schemaName = i.resolveSchema(schemaName)
	result, err := exec.ExecuteScalar(ctx, `
		SELECT CASE WHEN EXISTS (
			SELECT 1 FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table AND COLUMN_NAME = @column
		) THEN 1 ELSE 0 END`, schemaName, table, column)
	if err != nil {
		return false, fmt.Errorf("checking existence of column %q.%q: %w", table, column, err)
	}
	return schema.Truthy(result), nil
}
