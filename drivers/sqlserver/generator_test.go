package sqlserver

import (
	"strings"
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

// TestGenerateAlterAlterColumn_DefaultConstraintNameIsSynthesized
// covers the synthesized DF_<table>_<column> default-constraint-name
// convention this engine uses in place of the provider-assigned name
// SQL Server would otherwise pick.
func TestGenerateAlterAlterColumn_DefaultConstraintNameIsSynthesized(t *testing.T) {
	current := schema.Column{Name: "IsActive", DeclaredType: schema.Bool, Default: &schema.DefaultValue{Literal: "0"}}
	target := schema.Column{Name: "IsActive", DeclaredType: schema.Bool, Default: &schema.DefaultValue{Literal: "1"}}
	table := schema.Table{Name: "Users"}

	stmts, err := NewGenerator().GenerateAlterAlterColumn(table, current, target)
	if err != nil {
		t.Fatalf("GenerateAlterAlterColumn returned error: %v", err)
	}

	if len(stmts) != 2 {
		t.Fatalf("expected one DROP CONSTRAINT and one ADD CONSTRAINT, got %d: %v", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "DROP CONSTRAINT [DF_Users_IsActive]") {
		t.Fatalf("expected the synthesized name DF_Users_IsActive, got: %s", stmts[0])
	}
	if !strings.Contains(stmts[1], "ADD CONSTRAINT [DF_Users_IsActive] DEFAULT 1 FOR [IsActive]") {
		t.Fatalf("expected a matching ADD CONSTRAINT, got: %s", stmts[1])
	}
}

func TestGenerateCreateTable_SchemaQualifiesWithDefaultDbo(t *testing.T) {
	table := schema.Table{
		Name:    "Users",
		Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32, IsPrimaryKey: true, IsIdentity: true}},
		Constraints: []schema.Constraint{
			{Name: "PK_Users", Kind: schema.PrimaryKey, Columns: []string{"Id"}},
		},
	}

	got, err := NewGenerator().GenerateCreateTable(table)
	if err != nil {
		t.Fatalf("GenerateCreateTable returned error: %v", err)
	}
	if !strings.Contains(got, "[dbo].[Users]") {
		t.Fatalf("expected the table to default to the dbo schema, got: %s", got)
	}
	if !strings.Contains(got, "IDENTITY(1,1)") {
		t.Fatalf("expected an IDENTITY(1,1) identity column, got: %s", got)
	}
}
