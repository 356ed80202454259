package analyzer

import (
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

func TestComputeModelHash_OrderIndependent(t *testing.T) {
	a := schema.Table{Name: "A", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}
	b := schema.Table{Name: "B", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}

	first := ComputeModelHash([]schema.Table{a, b})
	second := ComputeModelHash([]schema.Table{b, a})
	if first != second {
		t.Fatal("expected table order to not affect the hash")
	}
}

func TestComputeModelHash_ChangesWithSchema(t *testing.T) {
	base := []schema.Table{{Name: "Users", Columns: []schema.Column{{Name: "Id", DeclaredType: schema.Int32}}}}
	changed := []schema.Table{{Name: "Users", Columns: []schema.Column{
		{Name: "Id", DeclaredType: schema.Int32},
		{Name: "Email", DeclaredType: schema.String},
	}}}

	if ComputeModelHash(base) == ComputeModelHash(changed) {
		t.Fatal("expected adding a column to change the hash")
	}
}
