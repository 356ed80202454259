package planner

import (
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

func sampleTables() []schema.Table {
	return []schema.Table{{
		Name: "Users",
		Columns: []schema.Column{
			{Name: "Id", DeclaredType: schema.Int32, IsPrimaryKey: true, IsIdentity: true},
			{Name: "Username", DeclaredType: schema.String},
		},
		Indexes: []schema.Index{
			{Name: "IX_Users_Username", Columns: []schema.IndexColumn{{ColumnName: "Username", Ordinal: 1}}},
		},
		Constraints: []schema.Constraint{
			{Name: "PK_Users", Kind: schema.PrimaryKey, Columns: []string{"Id"}},
		},
	}}
}

// TestDiff_IsIdempotent covers Scenario F: an identical current and
// target schema produces an empty diff.
func TestDiff_IsIdempotent(t *testing.T) {
	tables := sampleTables()
	diff := Diff(tables, tables)
	if !diff.IsEmpty() {
		t.Fatalf("expected an empty diff for identical schemas, got %+v", diff)
	}
}

func TestDiff_IsDeterministic(t *testing.T) {
	current := sampleTables()
	target := sampleTables()
	target[0].Columns = append(target[0].Columns, schema.Column{Name: "Email", DeclaredType: schema.String, IsNullable: true})

	a := Diff(current, target)
	b := Diff(current, target)

	if len(a.ModifiedTables) != len(b.ModifiedTables) {
		t.Fatalf("expected two runs over identical input to agree, got %d vs %d modified tables", len(a.ModifiedTables), len(b.ModifiedTables))
	}
	if len(a.ModifiedTables) != 1 || len(a.ModifiedTables[0].AddedColumns) != 1 {
		t.Fatalf("expected one added column, got %+v", a.ModifiedTables)
	}
	if a.ModifiedTables[0].AddedColumns[0].Name != b.ModifiedTables[0].AddedColumns[0].Name {
		t.Fatal("expected deterministic ordering of added columns across runs")
	}
}

func TestDiff_DetectsAddedAndRemovedTables(t *testing.T) {
	current := []schema.Table{{Name: "Orders", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}
	target := []schema.Table{{Name: "Products", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}

	diff := Diff(current, target)
	if len(diff.AddedTables) != 1 || diff.AddedTables[0].Name != "Products" {
		t.Fatalf("expected Products to be added, got %+v", diff.AddedTables)
	}
	if len(diff.RemovedTables) != 1 || diff.RemovedTables[0].Name != "Orders" {
		t.Fatalf("expected Orders to be removed, got %+v", diff.RemovedTables)
	}
}

func TestDiff_PrimaryKeyChangeCascadesIndexRebuild(t *testing.T) {
	current := []schema.Table{{
		Name:    "Users",
		Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}, {Name: "Guid", DeclaredType: schema.Guid}},
		Indexes: []schema.Index{{Name: "IX_Users_Guid", Columns: []schema.IndexColumn{{ColumnName: "Guid", Ordinal: 1}}}},
		Constraints: []schema.Constraint{
			{Name: "PK_Users", Kind: schema.PrimaryKey, Columns: []string{"Id"}},
		},
	}}
	target := []schema.Table{{
		Name:    "Users",
		Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}, {Name: "Guid", DeclaredType: schema.Guid}},
		Indexes: []schema.Index{{Name: "IX_Users_Guid", Columns: []schema.IndexColumn{{ColumnName: "Guid", Ordinal: 1}}}},
		Constraints: []schema.Constraint{
			{Name: "PK_Users", Kind: schema.PrimaryKey, Columns: []string{"Guid"}},
		},
	}}

	diff := Diff(current, target)
	if len(diff.ModifiedTables) != 1 {
		t.Fatalf("expected one modified table, got %+v", diff.ModifiedTables)
	}
	td := diff.ModifiedTables[0]
	if len(td.RemovedIndexes) != 1 || len(td.AddedIndexes) != 1 {
		t.Fatalf("expected the dependent index to be dropped and recreated, got removed=%+v added=%+v", td.RemovedIndexes, td.AddedIndexes)
	}
}
