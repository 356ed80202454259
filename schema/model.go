// Package schema defines Bowtie's canonical, provider-independent
// representation of a relational database schema: tables, columns,
// indexes, and constraints, plus the dialect capability matrix that
// governs what each provider can express.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect identifies a supported database provider.
type Dialect string

const (
	SqlServer  Dialect = "sqlserver"
	PostgreSql Dialect = "postgresql"
	MySql      Dialect = "mysql"
	Sqlite     Dialect = "sqlite"
)

func (d Dialect) String() string { return string(d) }

// DeclaredType is the abstract, provider-independent column type tag.
type DeclaredType string

const (
	Bool           DeclaredType = "Bool"
	Int16          DeclaredType = "Int16"
	Int32          DeclaredType = "Int32"
	Int64          DeclaredType = "Int64"
	Byte           DeclaredType = "Byte"
	Float32        DeclaredType = "Float32"
	Float64        DeclaredType = "Float64"
	Decimal        DeclaredType = "Decimal"
	String         DeclaredType = "String"
	Text           DeclaredType = "Text"
	DateTime       DeclaredType = "DateTime"
	DateTimeOffset DeclaredType = "DateTimeOffset"
	TimeSpan       DeclaredType = "TimeSpan"
	Guid           DeclaredType = "Guid"
	Binary         DeclaredType = "Binary"
	Json           DeclaredType = "Json"
)

// IsIntegerFamily reports whether t is one of the integer-valued types,
// the family identity columns are restricted to.
func (t DeclaredType) IsIntegerFamily() bool {
	switch t {
	case Int16, Int32, Int64, Byte:
		return true
	default:
		return false
	}
}

// DefaultValue is either a literal bound value or a raw SQL expression.
type DefaultValue struct {
	Literal string
	IsRaw   bool
}

// Column is a single table column in the canonical model.
type Column struct {
	Name         string
	DeclaredType DeclaredType
	RawType      string // non-empty when an annotation pinned a provider type verbatim
	MaxLength    *int
	Precision    *int
	Scale        *int
	Collation    string
	IsNullable   bool
	IsPrimaryKey bool
	IsIdentity   bool
	Default      *DefaultValue
}

// HasRawType reports whether the column pins a verbatim provider type.
func (c Column) HasRawType() bool { return c.RawType != "" }

// Validate enforces the per-column invariants of the canonical model.
func (c Column) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Kind: ErrColumnNameRequired, Detail: "column name must not be empty"}
	}
	if c.Scale != nil && c.Precision != nil && *c.Scale > *c.Precision {
		return &ValidationError{Kind: ErrScaleExceedsPrecision, Detail: fmt.Sprintf("column %q: scale %d exceeds precision %d", c.Name, *c.Scale, *c.Precision)}
	}
	if c.IsIdentity {
		if !c.IsPrimaryKey {
			return &ValidationError{Kind: ErrIdentityRequiresPrimaryKey, Detail: fmt.Sprintf("column %q: identity requires primary key", c.Name)}
		}
		if !c.DeclaredType.IsIntegerFamily() {
			return &ValidationError{Kind: ErrIdentityRequiresIntegerFamily, Detail: fmt.Sprintf("column %q: identity requires an integer-family type, got %s", c.Name, c.DeclaredType)}
		}
		if c.Default != nil {
			return &ValidationError{Kind: ErrIdentityWithDefault, Detail: fmt.Sprintf("column %q: identity columns cannot carry a default value", c.Name)}
		}
	}
	return nil
}

// IndexKind enumerates the physical index access methods the model knows
// about. Which kinds are legal for a given dialect is governed by the
// Capability Matrix (capability.go).
type IndexKind string

const (
	BTree        IndexKind = "BTree"
	Hash         IndexKind = "Hash"
	GIN          IndexKind = "GIN"
	GiST         IndexKind = "GiST"
	BRIN         IndexKind = "BRIN"
	SPGiST       IndexKind = "SPGiST"
	Clustered    IndexKind = "Clustered"
	NonClustered IndexKind = "NonClustered"
	ColumnStore  IndexKind = "ColumnStore"
	Spatial      IndexKind = "Spatial"
	FullText     IndexKind = "FullText"
)

// IndexColumn is one participating column of an Index, in declaration order.
type IndexColumn struct {
	ColumnName string
	Ordinal    int
	Descending bool
}

// Index is a secondary (non-primary-key) index on a table.
type Index struct {
	Name              string
	IsUnique          bool
	IsClustered       bool
	Kind              IndexKind
	Columns           []IndexColumn
	IncludeExpression string
	WhereExpression   string
}

// Validate enforces ordinal and membership invariants; columnNames must
// hold every column name defined on the owning table.
func (i Index) Validate(columnNames map[string]bool) error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Kind: ErrIndexNameRequired, Detail: "index name must not be empty"}
	}
	if len(i.Columns) == 0 {
		return &ValidationError{Kind: ErrIndexColumnsRequired, Detail: fmt.Sprintf("index %q: must reference at least one column", i.Name)}
	}
	sorted := make([]IndexColumn, len(i.Columns))
	copy(sorted, i.Columns)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Ordinal < sorted[b].Ordinal })
	for idx, ic := range sorted {
		if ic.Ordinal != idx+1 {
			return &ValidationError{Kind: ErrIndexOrdinalsNotSequential, Detail: fmt.Sprintf("index %q: ordinals must be strictly increasing from 1", i.Name)}
		}
		if !columnNames[ic.ColumnName] {
			return &ValidationError{Kind: ErrIndexColumnUnknown, Detail: fmt.Sprintf("index %q: column %q is not defined on the table", i.Name, ic.ColumnName)}
		}
	}
	return nil
}

// ConstraintKind enumerates the kinds of table-level constraint.
type ConstraintKind string

const (
	PrimaryKey ConstraintKind = "PrimaryKey"
	ForeignKey ConstraintKind = "ForeignKey"
	Unique     ConstraintKind = "Unique"
	Check      ConstraintKind = "Check"
)

// ReferentialAction enumerates the actions a foreign key can take ON
// DELETE / ON UPDATE.
type ReferentialAction string

const (
	NoAction   ReferentialAction = "NoAction"
	Cascade    ReferentialAction = "Cascade"
	SetNull    ReferentialAction = "SetNull"
	SetDefault ReferentialAction = "SetDefault"
	Restrict   ReferentialAction = "Restrict"
)

// ParseReferentialAction maps a textual action name to the enum,
// returning an error for anything unrecognized (spec's
// UnknownReferentialAction case).
func ParseReferentialAction(name string) (ReferentialAction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "noaction", "no_action", "no action":
		return NoAction, nil
	case "cascade":
		return Cascade, nil
	case "setnull", "set_null", "set null":
		return SetNull, nil
	case "setdefault", "set_default", "set default":
		return SetDefault, nil
	case "restrict":
		return Restrict, nil
	default:
		return "", &AnalysisError{Kind: ErrUnknownReferentialAction, Detail: fmt.Sprintf("unknown referential action %q", name)}
	}
}

// Constraint is a table-level constraint: primary key, foreign key,
// unique, or check.
type Constraint struct {
	Name              string
	Kind              ConstraintKind
	Columns           []string // PrimaryKey / Unique / ForeignKey's own columns
	ReferencedTable   string   // ForeignKey only
	ReferencedColumns []string // ForeignKey only; generalizes spec's singular referenced_column to composite keys
	OnDelete          ReferentialAction
	OnUpdate          ReferentialAction
	Expression        string // Check only
}

// Validate enforces per-constraint-kind invariants.
func (c Constraint) Validate(columnNames map[string]bool) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Kind: ErrConstraintNameRequired, Detail: "constraint name must not be empty"}
	}
	switch c.Kind {
	case PrimaryKey, Unique, ForeignKey:
		if len(c.Columns) == 0 {
			return &ValidationError{Kind: ErrConstraintColumnsRequired, Detail: fmt.Sprintf("constraint %q: must reference at least one column", c.Name)}
		}
		for _, col := range c.Columns {
			if !columnNames[col] {
				return &ValidationError{Kind: ErrConstraintColumnUnknown, Detail: fmt.Sprintf("constraint %q: column %q is not defined on the table", c.Name, col)}
			}
		}
	case Check:
		if strings.TrimSpace(c.Expression) == "" {
			return &ValidationError{Kind: ErrCheckExpressionRequired, Detail: fmt.Sprintf("check constraint %q: expression must not be empty", c.Name)}
		}
	}
	if c.Kind == ForeignKey {
		if strings.TrimSpace(c.ReferencedTable) == "" {
			return &ValidationError{Kind: ErrForeignKeyTableRequired, Detail: fmt.Sprintf("foreign key %q: referenced table must not be empty", c.Name)}
		}
		if len(c.ReferencedColumns) != len(c.Columns) {
			return &ValidationError{Kind: ErrForeignKeyColumnCountMismatch, Detail: fmt.Sprintf("foreign key %q: column count (%d) does not match referenced column count (%d)", c.Name, len(c.Columns), len(c.ReferencedColumns))}
		}
	}
	return nil
}

// Table is a single table in the canonical model.
type Table struct {
	Name        string
	Schema      string // optional; must be empty when the dialect does not support schemas
	Columns     []Column
	Indexes     []Index
	Constraints []Constraint
}

// FullName returns "schema.name" when a schema is set, else "name".
func (t Table) FullName() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKey returns the table's primary-key constraint, if any.
func (t Table) PrimaryKey() (Constraint, bool) {
	for _, c := range t.Constraints {
		if c.Kind == PrimaryKey {
			return c, true
		}
	}
	return Constraint{}, false
}

// Validate enforces the Table-level invariants of the canonical model:
// non-empty name, unique column/index/constraint names, at most one
// primary key, and that every Index/Constraint only references columns
// that exist on the table.
func (t Table) Validate(dialectSupportsSchemas bool) error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Kind: ErrTableNameRequired, Detail: "table name must not be empty"}
	}
	if t.Schema != "" && !dialectSupportsSchemas {
		return &ValidationError{Kind: ErrSchemaRequiredButUnsupported, Detail: fmt.Sprintf("table %q: schema %q set but dialect does not support schemas", t.Name, t.Schema)}
	}
	if len(t.Columns) == 0 {
		return &ValidationError{Kind: ErrTableColumnsRequired, Detail: fmt.Sprintf("table %q: must declare at least one column", t.Name)}
	}

	columnNames := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if err := col.Validate(); err != nil {
			return err
		}
		if columnNames[col.Name] {
			return &AnalysisError{Kind: ErrDuplicateColumn, Detail: fmt.Sprintf("table %q: duplicate column %q", t.Name, col.Name)}
		}
		columnNames[col.Name] = true
	}

	indexNames := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if err := idx.Validate(columnNames); err != nil {
			return err
		}
		if indexNames[idx.Name] {
			return &ValidationError{Kind: ErrDuplicateIndexName, Detail: fmt.Sprintf("table %q: duplicate index name %q", t.Name, idx.Name)}
		}
		indexNames[idx.Name] = true
	}

	constraintNames := make(map[string]bool, len(t.Constraints))
	primaryKeys := 0
	for _, c := range t.Constraints {
		if err := c.Validate(columnNames); err != nil {
			return err
		}
		if constraintNames[c.Name] {
			return &ValidationError{Kind: ErrDuplicateConstraintName, Detail: fmt.Sprintf("table %q: duplicate constraint name %q", t.Name, c.Name)}
		}
		constraintNames[c.Name] = true
		if c.Kind == PrimaryKey {
			primaryKeys++
		}
	}
	if primaryKeys > 1 {
		return &ValidationError{Kind: ErrMultiplePrimaryKeys, Detail: fmt.Sprintf("table %q: at most one PrimaryKey constraint is allowed", t.Name)}
	}

	return nil
}

// ValidateAll validates a []Table as a unit, additionally enforcing
// table-name uniqueness by FullName.
func ValidateAll(tables []Table, dialectSupportsSchemas bool) error {
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if err := t.Validate(dialectSupportsSchemas); err != nil {
			return err
		}
		key := strings.ToLower(t.FullName())
		if seen[key] {
			return &AnalysisError{Kind: ErrDuplicateTable, Detail: fmt.Sprintf("duplicate table %q", t.FullName())}
		}
		seen[key] = true
	}
	return nil
}
