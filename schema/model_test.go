package schema

import "testing"

func TestColumn_Validate(t *testing.T) {
	five, three := 5, 3

	cases := []struct {
		name    string
		col     Column
		wantErr ValidationErrorKind
	}{
		{
			name:    "empty name",
			col:     Column{Name: ""},
			wantErr: ErrColumnNameRequired,
		},
		{
			name:    "scale exceeds precision",
			col:     Column{Name: "Amount", DeclaredType: Decimal, Precision: &three, Scale: &five},
			wantErr: ErrScaleExceedsPrecision,
		},
		{
			name:    "identity without primary key",
			col:     Column{Name: "Id", DeclaredType: Int32, IsIdentity: true},
			wantErr: ErrIdentityRequiresPrimaryKey,
		},
		{
			name:    "identity on non-integer type",
			col:     Column{Name: "Id", DeclaredType: String, IsPrimaryKey: true, IsIdentity: true},
			wantErr: ErrIdentityRequiresIntegerFamily,
		},
		{
			name:    "identity with default",
			col:     Column{Name: "Id", DeclaredType: Int32, IsPrimaryKey: true, IsIdentity: true, Default: &DefaultValue{Literal: "1"}},
			wantErr: ErrIdentityWithDefault,
		},
		{
			name: "valid identity column",
			col:  Column{Name: "Id", DeclaredType: Int32, IsPrimaryKey: true, IsIdentity: true},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.col.Validate()
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected a *ValidationError, got %T (%v)", err, err)
			}
			if verr.Kind != c.wantErr {
				t.Fatalf("expected %v, got %v", c.wantErr, verr.Kind)
			}
		})
	}
}

func TestTable_Validate_AtMostOnePrimaryKey(t *testing.T) {
	table := Table{
		Name:    "Users",
		Columns: []Column{{Name: "Id", DeclaredType: Int32}, {Name: "AltId", DeclaredType: Int32}},
		Constraints: []Constraint{
			{Name: "PK_Users", Kind: PrimaryKey, Columns: []string{"Id"}},
			{Name: "PK_Users_Alt", Kind: PrimaryKey, Columns: []string{"AltId"}},
		},
	}

	err := table.Validate(true)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected a *ValidationError, got %T", err)
	}
	if verr.Kind != ErrMultiplePrimaryKeys {
		t.Fatalf("expected ErrMultiplePrimaryKeys, got %v", verr.Kind)
	}
}

func TestTable_Validate_SchemaRequiresDialectSupport(t *testing.T) {
	table := Table{
		Name:    "Users",
		Schema:  "dbo",
		Columns: []Column{{Name: "Id", DeclaredType: Int32}},
	}

	err := table.Validate(false)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected a *ValidationError, got %T", err)
	}
	if verr.Kind != ErrSchemaRequiredButUnsupported {
		t.Fatalf("expected ErrSchemaRequiredButUnsupported, got %v", verr.Kind)
	}
}

func TestTable_FullName(t *testing.T) {
	if got := (Table{Name: "Users"}).FullName(); got != "Users" {
		t.Fatalf("expected unqualified FullName, got %q", got)
	}
	if got := (Table{Schema: "dbo", Name: "Users"}).FullName(); got != "dbo.Users" {
		t.Fatalf("expected schema-qualified FullName, got %q", got)
	}
}

func TestValidateAll_DetectsDuplicateTables(t *testing.T) {
	tables := []Table{
		{Name: "Users", Columns: []Column{{Name: "Id", DeclaredType: Int32}}},
		{Name: "users", Columns: []Column{{Name: "Id", DeclaredType: Int32}}},
	}

	err := ValidateAll(tables, true)
	aerr, ok := err.(*AnalysisError)
	if !ok {
		t.Fatalf("expected a *AnalysisError, got %T", err)
	}
	if aerr.Kind != ErrDuplicateTable {
		t.Fatalf("expected ErrDuplicateTable, got %v", aerr.Kind)
	}
}

func TestParseReferentialAction(t *testing.T) {
	cases := map[string]ReferentialAction{
		"":         NoAction,
		"cascade":  Cascade,
		"SetNull":  SetNull,
		"RESTRICT": Restrict,
	}
	for input, want := range cases {
		got, err := ParseReferentialAction(input)
		if err != nil {
			t.Fatalf("ParseReferentialAction(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseReferentialAction(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseReferentialAction("bogus"); err == nil {
		t.Fatal("expected an error for an unknown referential action")
	}
}
