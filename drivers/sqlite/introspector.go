package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// Introspector implements schema.Introspector for SQLite, reading
// sqlite_master plus the PRAGMA table_info/index_list/
// foreign_key_list family. SQLite has no schema concept, so schemaName
// is always ignored.
type Introspector struct{}

// NewIntrospector creates a new SQLite introspector.
func NewIntrospector() *Introspector { return &Introspector{} }

// Provider reports the dialect this introspector reads.
func (i *Introspector) Provider() schema.Dialect { return schema.Sqlite }

// GetTables returns every user table (sqlite_% internal tables
// excluded).
func (i *Introspector) GetTables(ctx context.Context, exec schema.Executor, _ string) ([]schema.Table, error) {
	rows, err := exec.Query(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
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

// GetColumns returns every column of table via PRAGMA table_info. SQLite
// pragmas take the table name as a bare identifier, not a bound
// parameter; it is quoted rather than interpolated raw.
func (i *Introspector) GetColumns(ctx context.Context, exec schema.Executor, table, _ string) ([]schema.Column, error) {
	rows, err := exec.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("querying table_info for %q: %w", table, err)
	}
	defer rows.Close()

	var columns []schema.Column
	pkCount := 0
	for rows.Next() {
		var cid int
		var name, declType string
		var notNull int
		var defaultVal *string
		var pk int

		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scanning table_info row: %w", err)
		}

		col := schema.Column{
			Name:         name,
			IsNullable:   notNull == 0,
			IsPrimaryKey: pk > 0,
		}
		if declared, ok := mapReverseType(declType); ok {
			col.DeclaredType = declared
		} else {
			col.RawType = declType
		}
		// A single-column integer primary key with no explicit default
		// is SQLite's rowid alias and therefore an autoincrement identity.
		if pk == 1 && col.DeclaredType == schema.Int64 && defaultVal == nil {
			col.IsIdentity = true
		}
		if pk > 0 {
			pkCount++
		}
		if defaultVal != nil {
			col.Default = &schema.DefaultValue{Literal: *defaultVal}
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// A composite primary key is not a rowid alias.
	if pkCount > 1 {
		for i := range columns {
			columns[i].IsIdentity = false
		}
	}
	return columns, nil
}

// GetIndexes returns every secondary index via PRAGMA index_list/
// index_info, excluding auto-created indexes backing a PRIMARY KEY or
// UNIQUE constraint.
func (i *Introspector) GetIndexes(ctx context.Context, exec schema.Executor, table, _ string) ([]schema.Index, error) {
	rows, err := exec.Query(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("querying index_list for %q: %w", table, err)
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("scanning index_list row: %w", err)
		}
		if origin == "pk" || strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}

		cols, err := i.indexColumns(ctx, exec, name)
		if err != nil {
			return nil, err
		}

		indexes = append(indexes, schema.Index{Name: name, IsUnique: unique == 1, Kind: schema.BTree, Columns: cols})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return indexes, nil
}

func (i *Introspector) indexColumns(ctx context.Context, exec schema.Executor, indexName string) ([]schema.IndexColumn, error) {
	rows, err := exec.Query(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quote(indexName)))
	if err != nil {
		return nil, fmt.Errorf("querying index_info for %q: %w", indexName, err)
	}
	defer rows.Close()

	var cols []schema.IndexColumn
	for rows.Next() {
		var seqno, cid int
		var name *string
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scanning index_info row: %w", err)
		}
		if name != nil {
			cols = append(cols, schema.IndexColumn{ColumnName: *name, Ordinal: seqno + 1})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

// GetConstraints returns the PRIMARY KEY, FOREIGN KEY, UNIQUE, and CHECK
// constraints of table. UNIQUE and CHECK have no pragma of their own, so
// they are recovered by parsing the table's CREATE TABLE text out of
// sqlite_master; a constraint written without an explicit name (DDL this
// engine never emits itself, but may encounter on a table it didn't
// create) gets a positional synthesized one so Diff still has something
// stable to key on across a sync run that doesn't touch it.
func (i *Introspector) GetConstraints(ctx context.Context, exec schema.Executor, table, _ string) ([]schema.Constraint, error) {
	var constraints []schema.Constraint

	columns, err := i.GetColumns(ctx, exec, table, "")
	if err != nil {
		return nil, err
	}
	var pkCols []string
	for _, c := range columns {
		if c.IsPrimaryKey {
			pkCols = append(pkCols, c.Name)
		}
	}
	if len(pkCols) > 0 {
		constraints = append(constraints, schema.Constraint{Name: fmt.Sprintf("PK_%s", table), Kind: schema.PrimaryKey, Columns: pkCols})
	}

	rows, err := exec.Query(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("querying foreign_key_list for %q: %w", table, err)
	}
	defer rows.Close()

	fkByID := make(map[int]*schema.Constraint)
	var order []int
	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scanning foreign_key_list row: %w", err)
		}
		fk, exists := fkByID[id]
		if !exists {
			onDeleteAction, _ := schema.ParseReferentialAction(onDelete)
			onUpdateAction, _ := schema.ParseReferentialAction(onUpdate)
			fk = &schema.Constraint{
				Name:            fmt.Sprintf("FK_%s_%d", table, id),
				Kind:            schema.ForeignKey,
				ReferencedTable: refTable,
				OnDelete:        onDeleteAction,
				OnUpdate:        onUpdateAction,
			}
			fkByID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to)
	}
	for _, id := range order {
		constraints = append(constraints, *fkByID[id])
	}

	ddlRows, err := exec.Query(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = @table", table)
	if err != nil {
		return nil, fmt.Errorf("querying sqlite_master DDL for %q: %w", table, err)
	}
	defer ddlRows.Close()

	if ddlRows.Next() {
		var ddl *string
		if err := ddlRows.Scan(&ddl); err != nil {
			return nil, fmt.Errorf("scanning sqlite_master DDL for %q: %w", table, err)
		}
		if ddl != nil {
			constraints = append(constraints, parseUniqueAndCheckConstraints(table, *ddl)...)
		}
	}
	if err := ddlRows.Err(); err != nil {
		return nil, err
	}

	return constraints, nil
}

var constraintHeaderRe = regexp.MustCompile(
	`(?is)^CONSTRAINT\s+(?:\[([^\]]+)\]|"([^"]+)"|` + "`([^`]+)`" + `|(\w+))\s+(.*)$`)

// parseUniqueAndCheckConstraints walks the top-level, comma-separated
// clauses of a CREATE TABLE statement's column/constraint list and
// returns the table-level UNIQUE and CHECK constraints among them.
// Column-level CHECK/UNIQUE (e.g. "Age INTEGER CHECK (Age >= 0)") are
// not table-level constraints and are intentionally skipped; the
// Analyzer only ever emits the table-level form.
func parseUniqueAndCheckConstraints(table, ddl string) []schema.Constraint {
	body, ok := tableBody(ddl)
	if !ok {
		return nil
	}

	var constraints []schema.Constraint
	uniqueOrdinal, checkOrdinal := 0, 0
	for _, clause := range splitTopLevelClauses(body) {
		name := ""
		rest := clause
		if m := constraintHeaderRe.FindStringSubmatch(clause); m != nil {
			name = firstNonEmpty(m[1], m[2], m[3], m[4])
			rest = m[5]
		}
		rest = strings.TrimSpace(rest)

		switch {
		case hasKeywordPrefix(rest, "UNIQUE"):
			cols, ok := parenthesizedList(rest, len("UNIQUE"))
			if !ok {
				continue
			}
			if name == "" {
				uniqueOrdinal++
				name = fmt.Sprintf("UQ_%s_%d", table, uniqueOrdinal)
			}
			constraints = append(constraints, schema.Constraint{Name: name, Kind: schema.Unique, Columns: cols})
		case hasKeywordPrefix(rest, "CHECK"):
			expr, ok := parenthesizedBody(rest, len("CHECK"))
			if !ok {
				continue
			}
			if name == "" {
				checkOrdinal++
				name = fmt.Sprintf("CK_%s_%d", table, checkOrdinal)
			}
			constraints = append(constraints, schema.Constraint{Name: name, Kind: schema.Check, Expression: expr})
		}
	}
	return constraints
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func hasKeywordPrefix(s, keyword string) bool {
	if len(s) < len(keyword) {
		return false
	}
	return strings.EqualFold(s[:len(keyword)], keyword)
}

// parenthesizedList extracts the comma-separated, unquoted column names
// inside the first balanced parenthesis group found at or after offset.
func parenthesizedList(s string, offset int) ([]string, bool) {
	body, ok := parenthesizedBody(s, offset)
	if !ok {
		return nil, false
	}
	var cols []string
	for _, c := range splitTopLevelClauses(body) {
		cols = append(cols, unquoteIdentifier(strings.TrimSpace(c)))
	}
	return cols, true
}

// parenthesizedBody returns the raw text inside the first balanced
// parenthesis group found at or after offset, without splitting it.
func parenthesizedBody(s string, offset int) (string, bool) {
	rest := s[offset:]
	start := strings.IndexByte(rest, '(')
	if start < 0 {
		return "", false
	}
	depth := 0
	inSingle, inDouble := false, false
	for i := start; i < len(rest); i++ {
		switch c := rest[i]; {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return rest[start+1 : i], true
			}
		}
	}
	return "", false
}

// tableBody returns the text between the outermost balanced parens of a
// CREATE TABLE statement, i.e. the column and constraint list.
func tableBody(sql string) (string, bool) {
	return parenthesizedBody(sql, 0)
}

// splitTopLevelClauses splits body on commas that are not nested inside
// parentheses or a quoted string/identifier.
func splitTopLevelClauses(body string) []string {
	var clauses []string
	depth := 0
	start := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			clauses = append(clauses, strings.TrimSpace(body[start:i]))
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(body[start:]); rest != "" {
		clauses = append(clauses, rest)
	}
	return clauses
}

func unquoteIdentifier(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		case s[0] == '"' && s[len(s)-1] == '"':
			return s[1 : len(s)-1]
		case s[0] == '`' && s[len(s)-1] == '`':
			return s[1 : len(s)-1]
		}
	}
	return s
}

// TableExists reports whether table is present in sqlite_master.
func (i *Introspector) TableExists(ctx context.Context, exec schema.Executor, table, _ string) (bool, error) {
	result, err := exec.ExecuteScalar(ctx, `
		SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = @table)`, table)
	if err != nil {
		return false, fmt.Errorf("checking existence of table %q: %w", table, err)
	}
	return schema.Truthy(result), nil
}

// ColumnExists reports whether column exists on table.
func (i *Introspector) ColumnExists(ctx context.Context, exec schema.Executor, table, column, _ string) (bool, error) {
	columns, err := i.GetColumns(ctx, exec, table, "")
	if err != nil {
		return false, err
	}
	for _, c := range columns {
		if c.Name == column {
			return true, nil
		}
	}
	return false, nil
}
