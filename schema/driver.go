package schema

import "context"

// Row is a dialect-agnostic, name-addressable record returned by an
// Executor query. Introspectors decode the concrete columns they asked
// for out of it explicitly; no duck-typed access survives past this
// boundary.
type Row interface {
	Scan(dest ...any) error
	Columns() ([]string, error)
}

// Executor is the minimal query surface the core depends on. It is
// consumed, never defined, by the Introspector/Synchronizer — a host
// wires a concrete implementation (see the sqlexec package) over
// database/sql, a test double, or anything else satisfying this shape.
// Parameter placeholders always use the dialect's "@name" convention;
// translating to a driver's native placeholder syntax is the
// Executor implementation's job.
type Executor interface {
	ExecuteScalar(ctx context.Context, query string, args ...any) (any, error)
	ExecuteNonQuery(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (RowIterator, error)
}

// RowIterator walks the result set of a Query call.
type RowIterator interface {
	Next() bool
	Row
	Err() error
	Close() error
}

// Generator is the common contract every per-dialect DDL Generator
// implements.
type Generator interface {
	Provider() Dialect
	MapType(col Column) (string, error)
	ValidateIndexKind(kind IndexKind) bool
	GenerateCreateTable(t Table) (string, error)
	GenerateDropTable(t Table) string
	GenerateCreateIndex(t Table, idx Index) (string, error)
	GenerateDropIndex(t Table, idx Index) string
	GenerateAlterAddColumn(t Table, col Column) (string, error)
	GenerateAlterDropColumn(t Table, col Column) string
	GenerateAlterAlterColumn(t Table, current, target Column) ([]string, error)
	GenerateMigrationScript(current, target []Table) ([]string, error)
}

// Introspector is the common contract every per-dialect Schema
// Introspector implements.
type Introspector interface {
	Provider() Dialect
	GetTables(ctx context.Context, exec Executor, schemaName string) ([]Table, error)
	GetColumns(ctx context.Context, exec Executor, table, schemaName string) ([]Column, error)
	GetIndexes(ctx context.Context, exec Executor, table, schemaName string) ([]Index, error)
	GetConstraints(ctx context.Context, exec Executor, table, schemaName string) ([]Constraint, error)
	TableExists(ctx context.Context, exec Executor, table, schemaName string) (bool, error)
	ColumnExists(ctx context.Context, exec Executor, table, column, schemaName string) (bool, error)
}

// Driver composes a Generator and Introspector for a single dialect,
// the shape the Synchronizer selects by matching a requested Dialect
// against a lookup table of registered drivers.
type Driver interface {
	Generator
	Introspector
}

// Truthy normalizes the driver-dependent scalar shape of an EXISTS(...)
// query: PostgreSQL's driver returns a native bool, while MySQL,
// SQLite, and SQL Server commonly surface it as an integer or raw byte
// value instead.
func Truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case int64:
		return value != 0
	case int:
		return value != 0
	case []byte:
		return len(value) == 1 && value[0] != 0
	default:
		return false
	}
}
