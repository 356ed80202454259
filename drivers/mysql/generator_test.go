package mysql

import (
	"strings"
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

// TestGenerateAlterAlterColumn_SingleModifyStatement covers the
// dialect's inability to change type, nullability, and default
// piecewise: every facet of a column change rides in one MODIFY
// COLUMN statement.
func TestGenerateAlterAlterColumn_SingleModifyStatement(t *testing.T) {
	current := schema.Column{Name: "Age", DeclaredType: schema.Int16, IsNullable: true}
	target := schema.Column{Name: "Age", DeclaredType: schema.Int32, IsNullable: false}
	table := schema.Table{Name: "Users"}

	stmts, err := NewGenerator().GenerateAlterAlterColumn(table, current, target)
	if err != nil {
		t.Fatalf("GenerateAlterAlterColumn returned error: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected exactly one MODIFY COLUMN statement, got %d: %v", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "MODIFY COLUMN") || !strings.Contains(stmts[0], "NOT NULL") {
		t.Fatalf("expected a MODIFY COLUMN statement carrying the new nullability, got: %s", stmts[0])
	}
}

func TestGenerateCreateTable_NoSchemaQualification(t *testing.T) {
	table := schema.Table{
		Schema:  "ignored",
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
	if strings.Contains(got, "ignored") {
		t.Fatalf("expected MySQL to drop the schema qualifier entirely, got: %s", got)
	}
	if !strings.Contains(got, "AUTO_INCREMENT") {
		t.Fatalf("expected an AUTO_INCREMENT identity column, got: %s", got)
	}
}
