package risk

import (
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

func TestAnalyze_TableDropIsHigh(t *testing.T) {
	current := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}

	report := Analyze(current, nil)
	if len(report.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(report.Warnings))
	}
	w := report.Warnings[0]
	if w.Kind != TableDrop || w.Severity != High {
		t.Fatalf("expected a High TableDrop warning, got %+v", w)
	}
	if !report.HasHigh || !report.RequiresConfirmation {
		t.Fatal("expected HasHigh and RequiresConfirmation to be true")
	}
}

// TestAnalyze_ColumnDropScenarioB reproduces the column-drop scenario:
// a SQL Server table loses a column, and the Analyzer must flag it
// High and require confirmation.
func TestAnalyze_ColumnDropScenarioB(t *testing.T) {
	current := []schema.Table{{
		Schema: "dbo", Name: "Users",
		Columns: []schema.Column{
			{Name: "Id", DeclaredType: schema.Int32},
			{Name: "OldColumn", DeclaredType: schema.String},
		},
	}}
	target := []schema.Table{{
		Schema: "dbo", Name: "Users",
		Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}},
	}}

	report := Analyze(current, target)
	if len(report.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %+v", report.Warnings)
	}
	w := report.Warnings[0]
	if w.Kind != ColumnDrop || w.Severity != High {
		t.Fatalf("expected a High ColumnDrop warning, got %+v", w)
	}
	if w.Table != "dbo.Users" || w.Column != "OldColumn" {
		t.Fatalf("expected warning on dbo.Users.OldColumn, got table=%q column=%q", w.Table, w.Column)
	}
	if !report.HasHigh || !report.RequiresConfirmation {
		t.Fatal("expected HasHigh and RequiresConfirmation to be true")
	}
}

func TestAnalyze_LengthReductionIsHigh(t *testing.T) {
	oldLen, newLen := 255, 50
	current := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Username", DeclaredType: schema.String, MaxLength: &oldLen}}}}
	target := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Username", DeclaredType: schema.String, MaxLength: &newLen}}}}

	report := Analyze(current, target)
	if len(report.Warnings) != 1 || report.Warnings[0].Kind != LengthReduction || report.Warnings[0].Severity != High {
		t.Fatalf("expected exactly one High LengthReduction warning, got %+v", report.Warnings)
	}
}

func TestAnalyze_SafeAdditionsProduceNoWarnings(t *testing.T) {
	current := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}
	target := []schema.Table{{Name: "Users", Columns: []schema.Column{
		{Name: "Id", DeclaredType: schema.Int32},
		{Name: "Nickname", DeclaredType: schema.String, IsNullable: true},
	}}}

	report := Analyze(current, target)
	if len(report.Warnings) != 0 {
		t.Fatalf("expected no warnings for a nullable column addition, got %+v", report.Warnings)
	}
	if report.RequiresConfirmation {
		t.Fatal("expected RequiresConfirmation to be false")
	}
}

func TestAnalyze_NonNullableAdditionWithNoDefaultIsMedium(t *testing.T) {
	current := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}
	target := []schema.Table{{Name: "Users", Columns: []schema.Column{
		{Name: "Id", DeclaredType: schema.Int32},
		{Name: "Required", DeclaredType: schema.String},
	}}}

	report := Analyze(current, target)
	if len(report.Warnings) != 1 || report.Warnings[0].Severity != Medium {
		t.Fatalf("expected one Medium warning, got %+v", report.Warnings)
	}
	if !report.HasMedium || !report.RequiresConfirmation {
		t.Fatal("expected HasMedium and RequiresConfirmation to be true")
	}
}

func TestAnalyze_NarrowingMatrixClassifiesHigh(t *testing.T) {
	current := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Ref", RawType: "BIGINT"}}}}
	target := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Ref", RawType: "INT"}}}}

	report := Analyze(current, target)
	if len(report.Warnings) != 1 || report.Warnings[0].Kind != DataTypeChange || report.Warnings[0].Severity != High {
		t.Fatalf("expected a High DataTypeChange warning for BIGINT->INT, got %+v", report.Warnings)
	}
}

func TestAnalyze_SameFamilyTypeChangeIsMedium(t *testing.T) {
	current := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Name", RawType: "NVARCHAR"}}}}
	target := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Name", RawType: "VARCHAR"}}}}

	report := Analyze(current, target)
	if len(report.Warnings) != 1 || report.Warnings[0].Severity != Medium {
		t.Fatalf("expected a Medium DataTypeChange warning for NVARCHAR->VARCHAR, got %+v", report.Warnings)
	}
}

func TestAnalyze_NoOpProducesEmptyReport(t *testing.T) {
	tables := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}

	report := Analyze(tables, tables)
	if len(report.Warnings) != 0 {
		t.Fatalf("expected no warnings for an identical schema, got %+v", report.Warnings)
	}
	if report.HasHigh || report.HasMedium || report.RequiresConfirmation {
		t.Fatal("expected a clean report for a no-op comparison")
	}
}
