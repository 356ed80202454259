package sqlite

import (
	"regexp"
	"strings"
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeSQL(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func TestGenerateCreateTable_FreshInstall(t *testing.T) {
	maxLen := 100
	table := schema.Table{
		Name: "Users",
		Columns: []schema.Column{
			{Name: "Id", DeclaredType: schema.Int32, IsPrimaryKey: true, IsIdentity: true},
			{Name: "Username", DeclaredType: schema.String, MaxLength: &maxLen},
			{Name: "IsActive", DeclaredType: schema.Bool, Default: &schema.DefaultValue{Literal: "1"}},
			{Name: "CreatedDate", DeclaredType: schema.DateTime},
		},
		Constraints: []schema.Constraint{
			{Name: "PK_Users", Kind: schema.PrimaryKey, Columns: []string{"Id"}},
		},
	}

	got, err := NewGenerator().GenerateCreateTable(table)
	if err != nil {
		t.Fatalf("GenerateCreateTable returned error: %v", err)
	}

	want := `CREATE TABLE [Users] ( [Id] INTEGER PRIMARY KEY AUTOINCREMENT, [Username] TEXT NOT NULL, [IsActive] INTEGER NOT NULL DEFAULT 1, [CreatedDate] TEXT NOT NULL )`
	if normalizeSQL(got) != normalizeSQL(want) {
		t.Fatalf("CREATE TABLE mismatch\n got: %s\nwant: %s", normalizeSQL(got), normalizeSQL(want))
	}
}

func TestGenerateCreateTable_CompositePrimaryKey(t *testing.T) {
	table := schema.Table{
		Name: "OrderLines",
		Columns: []schema.Column{
			{Name: "OrderId", DeclaredType: schema.Int32, IsPrimaryKey: true},
			{Name: "LineNumber", DeclaredType: schema.Int32, IsPrimaryKey: true},
		},
		Constraints: []schema.Constraint{
			{Name: "PK_OrderLines", Kind: schema.PrimaryKey, Columns: []string{"OrderId", "LineNumber"}},
		},
	}

	got, err := NewGenerator().GenerateCreateTable(table)
	if err != nil {
		t.Fatalf("GenerateCreateTable returned error: %v", err)
	}

	if !strings.Contains(got, "PRIMARY KEY ([OrderId], [LineNumber])") {
		t.Fatalf("expected table-level composite primary key clause, got: %s", got)
	}
	if strings.Contains(got, "AUTOINCREMENT") {
		t.Fatalf("composite primary key must not be spelled inline, got: %s", got)
	}
}

func TestGenerateAlterAlterColumn_Unsupported(t *testing.T) {
	table := schema.Table{Name: "Users"}
	_, err := NewGenerator().GenerateAlterAlterColumn(table, schema.Column{Name: "X"}, schema.Column{Name: "X"})
	if err == nil {
		t.Fatal("expected an error, SQLite cannot ALTER COLUMN")
	}
	var genErr *schema.GenerationError
	if !asGenerationError(err, &genErr) {
		t.Fatalf("expected a *schema.GenerationError, got %T", err)
	}
	if genErr.Kind != schema.ErrUnsupportedFeatureForDialect {
		t.Fatalf("expected ErrUnsupportedFeatureForDialect, got %v", genErr.Kind)
	}
}

func asGenerationError(err error, target **schema.GenerationError) bool {
	ge, ok := err.(*schema.GenerationError)
	if !ok {
		return false
	}
	*target = ge
	return true
}
