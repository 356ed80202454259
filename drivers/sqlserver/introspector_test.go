package sqlserver

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

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
		assignInto(d, row[i])
	}
	return nil
}

func assignInto(dst, src any) {
	dv := reflect.ValueOf(dst).Elem()
	if src == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return
	}
	sv := reflect.ValueOf(src)
	if dv.Kind() == reflect.Ptr {
		newVal := reflect.New(dv.Type().Elem())
		newVal.Elem().Set(sv.Convert(dv.Type().Elem()))
		dv.Set(newVal)
		return
	}
	dv.Set(sv.Convert(dv.Type()))
}

func (r *scriptedRows) Columns() ([]string, error) { return nil, nil }
func (r *scriptedRows) Err() error                  { return nil }
func (r *scriptedRows) Close() error                { return nil }

type scriptedExecutor struct {
	rowsByMatch []struct {
		match string
		rows  [][]any
	}
	scalarByMatch  map[string]any
	lastScalarArgs []any
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{scalarByMatch: map[string]any{}}
}

func (e *scriptedExecutor) on(match string, rows [][]any) {
	e.rowsByMatch = append(e.rowsByMatch, struct {
		match string
		rows  [][]any
	}{match, rows})
}

func (e *scriptedExecutor) Query(_ context.Context, query string, _ ...any) (schema.RowIterator, error) {
	for _, entry := range e.rowsByMatch {
		if strings.Contains(query, entry.match) {
			return &scriptedRows{rows: entry.rows}, nil
		}
	}
	return &scriptedRows{}, nil
}

func (e *scriptedExecutor) ExecuteScalar(_ context.Context, query string, args ...any) (any, error) {
	e.lastScalarArgs = args
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

func TestGetColumns_ReadsIdentityAndPrimaryKeyFlags(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("FROM INFORMATION_SCHEMA.COLUMNS c", [][]any{
		{"Id", "int", "NO", nil, nil, nil, nil, nil, 1, 1},
		{"IsActive", "bit", "NO", "1", nil, nil, nil, nil, 0, 0},
	})

	cols, err := NewIntrospector().GetColumns(context.Background(), exec, "Users", "dbo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(cols))
	}
	id := cols[0]
	if !id.IsIdentity || !id.IsPrimaryKey {
		t.Fatalf("expected Id to be an identity primary key, got %+v", id)
	}
	isActive := cols[1]
	if isActive.Default == nil || isActive.Default.Literal != "1" {
		t.Fatalf("expected IsActive default literal \"1\", got %+v", isActive.Default)
	}
}

func TestGetIndexes_DistinguishesClusteredKind(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("FROM sys.indexes", [][]any{
		{"IX_Users_Username", false, "NONCLUSTERED", 1, false, "Username"},
	})

	idx, err := NewIntrospector().GetIndexes(context.Background(), exec, "Users", "dbo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx) != 1 {
		t.Fatalf("expected 1 index, got %d", len(idx))
	}
	if idx[0].Kind != schema.NonClustered || idx[0].IsClustered {
		t.Fatalf("expected a non-clustered index, got %+v", idx[0])
	}
}

func TestGetConstraints_ParsesReferentialActionDescriptions(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("CONSTRAINT_TYPE = 'PRIMARY KEY'", [][]any{{"PK_Orders", "Id"}})
	exec.on("FROM sys.foreign_keys", [][]any{
		{"FK_Orders_Users", "UserId", "Users", "Id", "CASCADE", "NO_ACTION"},
	})

	constraints, err := NewIntrospector().GetConstraints(context.Background(), exec, "Orders", "dbo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(constraints))
	}
	fk := constraints[1]
	if fk.OnDelete != schema.Cascade || fk.OnUpdate != schema.NoAction {
		t.Fatalf("expected ON DELETE CASCADE / ON UPDATE NO ACTION, got %+v", fk)
	}
}

func TestGetConstraints_BuildsUniqueAndCheck(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("CONSTRAINT_TYPE = 'UNIQUE'", [][]any{
		{"UQ_Users_Email", "Email"},
	})
	exec.on("CHECK_CONSTRAINTS", [][]any{
		{"CK_Users_Age", "([Age]>=(0))"},
	})

	constraints, err := NewIntrospector().GetConstraints(context.Background(), exec, "Users", "dbo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(constraints))
	}
	uq := constraints[0]
	if uq.Kind != schema.Unique || len(uq.Columns) != 1 || uq.Columns[0] != "Email" {
		t.Fatalf("expected a unique constraint on Email, got %+v", uq)
	}
	ck := constraints[1]
	if ck.Kind != schema.Check || ck.Name != "CK_Users_Age" {
		t.Fatalf("expected a named check constraint, got %+v", ck)
	}
	if ck.Expression != "[Age]>=(0)" {
		t.Fatalf("expected the outermost server-added parens stripped, got %q", ck.Expression)
	}
}

func TestTableExists_DefaultsToDboSchema(t *testing.T) {
	exec := newScriptedExecutor()
	exec.scalarByMatch["INFORMATION_SCHEMA.TABLES"] = 1

	exists, err := NewIntrospector().TableExists(context.Background(), exec, "Users", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected TableExists to report true")
	}
	if len(exec.lastScalarArgs) == 0 || exec.lastScalarArgs[0] != "dbo" {
		t.Fatalf("expected the schema argument to default to dbo, got %v", exec.lastScalarArgs)
	}
}
