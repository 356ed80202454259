package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

// scriptedRows plays back a fixed set of rows for a single Query call.
type scriptedRows struct {
	rows [][]any
	pos  int
}

func (r *scriptedRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *scriptedRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		switch ptr := d.(type) {
		case *int:
			*ptr = row[i].(int)
		case *string:
			*ptr = row[i].(string)
		case **string:
			if row[i] == nil {
				*ptr = nil
			} else {
				s := row[i].(string)
				*ptr = &s
			}
		default:
			panic("scriptedRows: unsupported scan target")
		}
	}
	return nil
}

func (r *scriptedRows) Columns() ([]string, error) { return nil, nil }
func (r *scriptedRows) Err() error                  { return nil }
func (r *scriptedRows) Close() error                { return nil }

// scriptedExecutor dispatches Query/ExecuteScalar calls by matching a
// substring of the query text against a table of canned responses.
type scriptedExecutor struct {
	rowsByMatch   map[string][][]any
	scalarByMatch map[string]any
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{rowsByMatch: map[string][][]any{}, scalarByMatch: map[string]any{}}
}

func (e *scriptedExecutor) Query(_ context.Context, query string, _ ...any) (schema.RowIterator, error) {
	for match, rows := range e.rowsByMatch {
		if strings.Contains(query, match) {
			return &scriptedRows{rows: rows}, nil
		}
	}
	return &scriptedRows{}, nil
}

func (e *scriptedExecutor) ExecuteScalar(_ context.Context, query string, _ ...any) (any, error) {
	for match, v := range e.scalarByMatch {
		if strings.Contains(query, match) {
			return v, nil
		}
	}
	return nil, nil
}

func (e *scriptedExecutor) ExecuteNonQuery(_ context.Context, _ string, _ ...any) (int64, error) {
	return 0, nil
}

var _ schema.Executor = (*scriptedExecutor)(nil)

func TestGetColumns_MapsTypesAndDetectsIdentity(t *testing.T) {
	exec := newScriptedExecutor()
	exec.rowsByMatch["table_info"] = [][]any{
		{0, "Id", "INTEGER", 1, nil, 1},
		{1, "Username", "TEXT", 1, nil, 0},
		{2, "IsActive", "INTEGER", 1, "1", 0},
	}

	cols, err := NewIntrospector().GetColumns(context.Background(), exec, "Users", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}

	id := cols[0]
	if !id.IsPrimaryKey || !id.IsIdentity {
		t.Fatalf("expected Id to be an identity primary key, got %+v", id)
	}
	if id.DeclaredType != schema.Int64 {
		t.Fatalf("expected Id to map to Int64, got %v", id.DeclaredType)
	}

	isActive := cols[2]
	if isActive.IsIdentity {
		t.Fatal("expected IsActive to not be treated as identity (has an explicit default)")
	}
	if isActive.Default == nil || isActive.Default.Literal != "1" {
		t.Fatalf("expected IsActive default literal \"1\", got %+v", isActive.Default)
	}
}

func TestGetIndexes_ExcludesAutoIndexesAndPrimaryKeyOrigin(t *testing.T) {
	exec := newScriptedExecutor()
	exec.rowsByMatch["index_list"] = [][]any{
		{0, "sqlite_autoindex_Users_1", 1, "pk", 0},
		{1, "IX_Users_Username", 0, "c", 0},
	}
	exec.rowsByMatch["index_info"] = [][]any{
		{0, 1, "Username"},
	}

	idx, err := NewIntrospector().GetIndexes(context.Background(), exec, "Users", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx) != 1 {
		t.Fatalf("expected exactly 1 index (pk-origin index excluded), got %d", len(idx))
	}
	if idx[0].Name != "IX_Users_Username" {
		t.Fatalf("expected IX_Users_Username, got %q", idx[0].Name)
	}
	if len(idx[0].Columns) != 1 || idx[0].Columns[0].ColumnName != "Username" {
		t.Fatalf("expected a single Username index column, got %+v", idx[0].Columns)
	}
}

func TestGetConstraints_BuildsPrimaryKeyFromColumns(t *testing.T) {
	exec := newScriptedExecutor()
	exec.rowsByMatch["table_info"] = [][]any{
		{0, "Id", "INTEGER", 1, nil, 1},
		{1, "Username", "TEXT", 1, nil, 0},
	}

	constraints, err := NewIntrospector().GetConstraints(context.Background(), exec, "Users", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(constraints) != 1 {
		t.Fatalf("expected exactly 1 constraint, got %d", len(constraints))
	}
	if constraints[0].Kind != schema.PrimaryKey || len(constraints[0].Columns) != 1 || constraints[0].Columns[0] != "Id" {
		t.Fatalf("expected a primary key constraint over Id, got %+v", constraints[0])
	}
}

func TestGetConstraints_ParsesUniqueAndCheckFromDDL(t *testing.T) {
	exec := newScriptedExecutor()
	exec.rowsByMatch["table_info"] = [][]any{
		{0, "Id", "INTEGER", 1, nil, 1},
	}
	exec.rowsByMatch["sqlite_master"] = [][]any{
		{`CREATE TABLE "Orders" (
			[Id] INTEGER,
			[Email] TEXT,
			[Amount] INTEGER,
			CONSTRAINT [UQ_Orders_Email] UNIQUE ([Email]),
			CONSTRAINT [CK_Orders_Amount] CHECK ([Amount] > 0 AND ([Amount] < 1000 OR [Email] IS NOT NULL))
		)`},
	}

	constraints, err := NewIntrospector().GetConstraints(context.Background(), exec, "Orders", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(constraints) != 3 {
		t.Fatalf("expected 3 constraints (PK + UNIQUE + CHECK), got %d: %+v", len(constraints), constraints)
	}

	uq := constraints[1]
	if uq.Kind != schema.Unique || uq.Name != "UQ_Orders_Email" || len(uq.Columns) != 1 || uq.Columns[0] != "Email" {
		t.Fatalf("expected a named unique constraint on Email, got %+v", uq)
	}

	ck := constraints[2]
	if ck.Kind != schema.Check || ck.Name != "CK_Orders_Amount" {
		t.Fatalf("expected a named check constraint, got %+v", ck)
	}
	want := "[Amount] > 0 AND ([Amount] < 1000 OR [Email] IS NOT NULL)"
	if ck.Expression != want {
		t.Fatalf("expected nested parens preserved in the expression, got %q", ck.Expression)
	}
}

func TestGetConstraints_SynthesizesNameForUnnamedCheck(t *testing.T) {
	exec := newScriptedExecutor()
	exec.rowsByMatch["table_info"] = [][]any{
		{0, "Id", "INTEGER", 1, nil, 1},
	}
	exec.rowsByMatch["sqlite_master"] = [][]any{
		{`CREATE TABLE "Orders" ([Id] INTEGER, CHECK ([Id] > 0))`},
	}

	constraints, err := NewIntrospector().GetConstraints(context.Background(), exec, "Orders", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(constraints) != 2 {
		t.Fatalf("expected 2 constraints (PK + CHECK), got %d: %+v", len(constraints), constraints)
	}
	if constraints[1].Name != "CK_Orders_1" {
		t.Fatalf("expected a synthesized name, got %q", constraints[1].Name)
	}
}

func TestTableExists_UsesTruthy(t *testing.T) {
	exec := newScriptedExecutor()
	exec.scalarByMatch["sqlite_master"] = int64(1)

	exists, err := NewIntrospector().TableExists(context.Background(), exec, "Users", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected TableExists to report true")
	}
}
