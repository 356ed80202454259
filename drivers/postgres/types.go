// Package postgres implements the DDL Generator and Schema Introspector
// for PostgreSQL.
package postgres

import (
	"fmt"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// MapType maps a canonical Column to its PostgreSQL type literal. A
// pinned raw type passes through verbatim.
func MapType(col schema.Column) (string, error) {
	if col.HasRawType() {
		return col.RawType, nil
	}

	switch col.DeclaredType {
	case schema.Bool:
		return "BOOLEAN", nil
	case schema.Int16:
		return "SMALLINT", nil
	case schema.Int32:
		if col.IsIdentity {
			return "SERIAL", nil
		}
		return "INTEGER", nil
	case schema.Int64:
		if col.IsIdentity {
			return "BIGSERIAL", nil
		}
		return "BIGINT", nil
	case schema.Byte:
		return "SMALLINT", nil
	case schema.Float32:
		return "REAL", nil
	case schema.Float64:
		return "DOUBLE PRECISION", nil
	case schema.Decimal:
		if col.Precision != nil && col.Scale != nil {
			return fmt.Sprintf("DECIMAL(%d,%d)", *col.Precision, *col.Scale), nil
		}
		if col.Precision != nil {
			return fmt.Sprintf("DECIMAL(%d)", *col.Precision), nil
		}
		return "DECIMAL", nil
	case schema.String:
		if col.MaxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *col.MaxLength), nil
		}
		return "TEXT", nil
	case schema.Text:
		return "TEXT", nil
	case schema.DateTime:
		return "TIMESTAMP", nil
	case schema.DateTimeOffset:
		return "TIMESTAMPTZ", nil
	case schema.TimeSpan:
		return "INTERVAL", nil
	case schema.Guid:
		return "UUID", nil
	case schema.Binary:
		return "BYTEA", nil
	case schema.Json:
		return "JSONB", nil
	default:
		return "", &schema.ValidationError{
			Kind:   schema.ErrTypeUnmappable,
			Detail: fmt.Sprintf("column %q: no PostgreSQL mapping for declared type %q", col.Name, col.DeclaredType),
		}
	}
}

// mapReverseType implements the inverse of MapType for introspection:
// a raw PostgreSQL type string back to a canonical DeclaredType, or
// ("", false) when unmappable (the caller then preserves the raw
// string verbatim).
func mapReverseType(pgType string) (schema.DeclaredType, bool) {
	t := strings.ToLower(strings.TrimSpace(pgType))
	switch {
	case t == "boolean" || t == "bool":
		return schema.Bool, true
	case t == "smallint" || t == "int2":
		return schema.Int16, true
	case t == "integer" || t == "int4" || t == "serial":
		return schema.Int32, true
	case t == "bigint" || t == "int8" || t == "bigserial":
		return schema.Int64, true
	case t == "real" || t == "float4":
		return schema.Float32, true
	case t == "double precision" || t == "float8":
		return schema.Float64, true
	case strings.HasPrefix(t, "numeric") || strings.HasPrefix(t, "decimal"):
		return schema.Decimal, true
	case strings.HasPrefix(t, "varchar") || strings.HasPrefix(t, "character varying"):
		return schema.String, true
	case t == "text":
		return schema.Text, true
	case t == "timestamp" || strings.HasPrefix(t, "timestamp without"):
		return schema.DateTime, true
	case t == "timestamptz" || strings.HasPrefix(t, "timestamp with"):
		return schema.DateTimeOffset, true
	case t == "interval":
		return schema.TimeSpan, true
	case t == "uuid":
		return schema.Guid, true
	case t == "bytea":
		return schema.Binary, true
	case t == "jsonb" || t == "json":
		return schema.Json, true
	default:
		return "", false
	}
}

func isSerialDefault(defaultVal string) bool {
	return strings.HasPrefix(defaultVal, "nextval(")
}
