package postgres

import (
	"strings"
	"testing"

	"github.com/bowtie-db/bowtie/drivers/mysql"
	"github.com/bowtie-db/bowtie/drivers/sqlite"
	"github.com/bowtie-db/bowtie/drivers/sqlserver"
	"github.com/bowtie-db/bowtie/schema"
)

func TestGenerateAlterAlterColumn_LengthReduction(t *testing.T) {
	current := schema.Column{Name: "Username", DeclaredType: schema.String, MaxLength: intPtr(255)}
	target := schema.Column{Name: "Username", DeclaredType: schema.String, MaxLength: intPtr(50)}
	table := schema.Table{Name: "Users"}

	stmts, err := NewGenerator().GenerateAlterAlterColumn(table, current, target)
	if err != nil {
		t.Fatalf("GenerateAlterAlterColumn returned error: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected exactly one ALTER statement, got %d: %v", len(stmts), stmts)
	}

	want := `ALTER TABLE "public"."Users" ALTER COLUMN "Username" TYPE VARCHAR(50)`
	if stmts[0] != want {
		t.Fatalf("ALTER COLUMN mismatch\n got: %s\nwant: %s", stmts[0], want)
	}
}

func TestGenerateCreateIndex_GINSupported(t *testing.T) {
	table := schema.Table{Name: "Documents"}
	idx := schema.Index{
		Name:    "IX_Documents_Content_GIN",
		Kind:    schema.GIN,
		Columns: []schema.IndexColumn{{ColumnName: "Content", Ordinal: 1}},
	}

	got, err := NewGenerator().GenerateCreateIndex(table, idx)
	if err != nil {
		t.Fatalf("GenerateCreateIndex returned error: %v", err)
	}

	want := `CREATE INDEX "IX_Documents_Content_GIN" ON "public"."Documents" USING gin ("Content")`
	if got != want {
		t.Fatalf("CREATE INDEX mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestGenerateCreateIndex_GINRejectedOnOtherDialects(t *testing.T) {
	table := schema.Table{Name: "Documents"}
	idx := schema.Index{
		Name:    "IX_Documents_Content_GIN",
		Kind:    schema.GIN,
		Columns: []schema.IndexColumn{{ColumnName: "Content", Ordinal: 1}},
	}

	generators := []schema.Generator{sqlite.NewGenerator(), mysql.NewGenerator(), sqlserver.NewGenerator()}
	for _, gen := range generators {
		_, err := gen.GenerateCreateIndex(table, idx)
		if err == nil {
			t.Fatalf("%s: expected GIN to be rejected", gen.Provider())
		}
		verr, ok := err.(*schema.ValidationError)
		if !ok {
			t.Fatalf("%s: expected a *schema.ValidationError, got %T", gen.Provider(), err)
		}
		if verr.Kind != schema.ErrUnsupportedIndexKindForDialect {
			t.Fatalf("%s: expected ErrUnsupportedIndexKindForDialect, got %v", gen.Provider(), verr.Kind)
		}
		if !strings.Contains(verr.Error(), "GIN") {
			t.Fatalf("%s: expected error to mention GIN, got: %v", gen.Provider(), verr)
		}
	}
}

func intPtr(n int) *int { return &n }
