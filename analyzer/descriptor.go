// Package analyzer implements the Model Analyzer: it turns a host's
// explicit sequence of annotated record descriptors into the canonical
// schema.Table representation. It never reflects over Go values itself
// — a host builds []Descriptor however it likes, including via its own
// reflection scan over struct tags styled after the annotation names
// below.
package analyzer

import "github.com/bowtie-db/bowtie/schema"

// Descriptor is one record definition: a concrete value-type identity,
// an optional table annotation, and the annotated properties that
// become its columns.
type Descriptor struct {
	Identity   string
	Abstract   bool
	Table      *TableTag
	Properties []Property
}

// Property is one field of a Descriptor.
type Property struct {
	Name        string
	Family      schema.DeclaredType
	Nullable    bool
	Writable    bool
	Computed    bool
	Column      *ColumnTag
	Key         bool
	ExplicitKey bool
	PrimaryKey  *PrimaryKeyTag
	Indexes     []IndexTag
	Uniques     []UniqueTag
	ForeignKey  *ForeignKeyTag
	Checks      []CheckTag
	Default     *DefaultTag
}

// TableTag is the Table(name?) annotation.
type TableTag struct {
	Name string
}

// ColumnTag is the Column(name?, type?, max_length?, precision?,
// scale?, is_nullable?, collation?) annotation.
type ColumnTag struct {
	Name       string
	TypeName   string // raw provider type pinned verbatim, passed through to Column.RawType
	MaxLength  *int
	Precision  *int
	Scale      *int
	IsNullable *bool
	Collation  string
}

// PrimaryKeyTag is the PrimaryKey(order?, is_identity?) annotation.
type PrimaryKeyTag struct {
	Order      int
	IsIdentity *bool
}

// IndexTag is one repeatable Index(name?, group?, order?, is_unique?,
// kind?, include?, where?, descending?) annotation.
type IndexTag struct {
	Name       string
	Group      string
	Order      int
	IsUnique   bool
	Kind       schema.IndexKind
	Include    string
	Where      string
	Descending bool
}

// UniqueTag is one repeatable Unique(name?, group?, order?) annotation.
type UniqueTag struct {
	Name  string
	Group string
	Order int
}

// ForeignKeyTag is the ForeignKey(referenced_table, referenced_column?,
// name?, on_delete?, on_update?) annotation.
type ForeignKeyTag struct {
	Name             string
	ReferencedTable  string
	ReferencedColumn string
	OnDelete         string
	OnUpdate         string
}

// CheckTag is one repeatable CheckConstraint(expression, name?)
// annotation.
type CheckTag struct {
	Name       string
	Expression string
}

// DefaultTag is the DefaultValue(value, is_raw_sql?) annotation.
type DefaultTag struct {
	Value string
	IsRaw bool
}

// Options configures a single Analyze/AnalyzeProvider call.
type Options struct {
	// DefaultSchema is applied to a table name with no explicit
	// "schema.table" split. May be empty.
	DefaultSchema string
}
