package sync

import (
	"testing"

	"github.com/bowtie-db/bowtie/analyzer"
	"github.com/bowtie-db/bowtie/schema"
)

func TestTables_ResolvesToTheWrappedSlice(t *testing.T) {
	tables := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}
	got, err := Tables(tables).Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Users" {
		t.Fatalf("expected the wrapped table list back, got %+v", got)
	}
}

func TestDescriptors_ResolvesThroughTheAnalyzer(t *testing.T) {
	descriptors := []analyzer.Descriptor{
		{
			Identity: "Users",
			Properties: []analyzer.Property{
				{Name: "Id", Family: schema.Int32, Writable: true, Key: true},
				{Name: "Name", Family: schema.String, Writable: true},
			},
		},
	}

	got, err := Descriptors(descriptors, analyzer.Options{}).Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Users" {
		t.Fatalf("expected one Users table, got %+v", got)
	}
}
