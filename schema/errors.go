package schema

import "fmt"

// ValidationErrorKind enumerates the structural defects Validate can
// report against a single Table in isolation.
type ValidationErrorKind string

const (
	ErrColumnNameRequired            ValidationErrorKind = "ColumnNameRequired"
	ErrScaleExceedsPrecision         ValidationErrorKind = "ScaleExceedsPrecision"
	ErrIdentityRequiresPrimaryKey    ValidationErrorKind = "IdentityRequiresPrimaryKey"
	ErrIdentityRequiresIntegerFamily ValidationErrorKind = "IdentityRequiresIntegerFamily"
	ErrIdentityWithDefault           ValidationErrorKind = "IdentityWithDefault"
	ErrIndexNameRequired             ValidationErrorKind = "IndexNameRequired"
	ErrIndexColumnsRequired          ValidationErrorKind = "IndexColumnsRequired"
	ErrIndexOrdinalsNotSequential    ValidationErrorKind = "IndexOrdinalsNotSequential"
	ErrIndexColumnUnknown            ValidationErrorKind = "IndexColumnUnknown"
	ErrConstraintNameRequired        ValidationErrorKind = "ConstraintNameRequired"
	ErrConstraintColumnsRequired     ValidationErrorKind = "ConstraintColumnsRequired"
	ErrConstraintColumnUnknown       ValidationErrorKind = "ConstraintColumnUnknown"
	ErrCheckExpressionRequired       ValidationErrorKind = "CheckExpressionRequired"
	ErrForeignKeyTableRequired       ValidationErrorKind = "ForeignKeyTableRequired"
	ErrForeignKeyColumnCountMismatch ValidationErrorKind = "ForeignKeyColumnCountMismatch"
	ErrTableNameRequired             ValidationErrorKind = "TableNameRequired"
	ErrTableColumnsRequired          ValidationErrorKind = "TableColumnsRequired"
	ErrSchemaRequiredButUnsupported  ValidationErrorKind = "SchemaRequiredButUnsupported"
	ErrDuplicateIndexName            ValidationErrorKind = "DuplicateIndexName"
	ErrDuplicateConstraintName       ValidationErrorKind = "DuplicateConstraintName"
	ErrMultiplePrimaryKeys           ValidationErrorKind = "MultiplePrimaryKeys"
	ErrUnsupportedIndexKindForDialect ValidationErrorKind = "UnsupportedIndexKindForDialect"
	ErrTypeUnmappable                ValidationErrorKind = "TypeUnmappable"
)

// ValidationError reports a single-table structural defect.
type ValidationError struct {
	Kind   ValidationErrorKind
	Detail string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("schema validation: %s", e.Detail) }

// AnalysisErrorKind enumerates the cross-table/descriptor-level defects
// the Model Analyzer can report (spec's four AnalysisError cases, plus
// the cross-table duplicates that ValidateAll surfaces).
type AnalysisErrorKind string

const (
	ErrDuplicateTable           AnalysisErrorKind = "DuplicateTable"
	ErrDuplicateColumn          AnalysisErrorKind = "DuplicateColumn"
	ErrUnknownReferentialAction AnalysisErrorKind = "UnknownReferentialAction"
	ErrAmbiguousPrimaryKey      AnalysisErrorKind = "AmbiguousPrimaryKey"
	ErrUnresolvableForeignKey   AnalysisErrorKind = "UnresolvableForeignKey"
	ErrUnsupportedPropertyType  AnalysisErrorKind = "UnsupportedPropertyType"
)

// AnalysisError reports a defect discovered while analyzing a
// Descriptor set into the canonical model.
type AnalysisError struct {
	Kind   AnalysisErrorKind
	Detail string
}

func (e *AnalysisError) Error() string { return fmt.Sprintf("model analysis: %s", e.Detail) }

// GenerationErrorKind enumerates the ways a dialect Generator can
// refuse to emit a statement: the analyzer let through something that
// particular dialect cannot express.
type GenerationErrorKind string

const (
	ErrUnsupportedFeatureForDialect GenerationErrorKind = "UnsupportedFeatureForDialect"
)

// GenerationError reports a dialect's refusal to emit DDL for an
// otherwise-valid canonical change.
type GenerationError struct {
	Kind    GenerationErrorKind
	Dialect Dialect
	Detail  string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("DDL generation (%s): %s", e.Dialect, e.Detail)
}
