// Package sqlite implements the DDL Generator and Schema Introspector
// for SQLite (and, via the same Executor shape, libSQL/Turso).
package sqlite

import (
	"fmt"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// MapType maps a canonical Column to its SQLite type affinity. A
// pinned raw type passes through verbatim.
func MapType(col schema.Column) (string, error) {
	if col.HasRawType() {
		return col.RawType, nil
	}

	switch col.DeclaredType {
	case schema.Bool:
		return "INTEGER", nil
	case schema.Int16, schema.Int32, schema.Int64, schema.Byte:
		return "INTEGER", nil
	case schema.Float32, schema.Float64:
		return "REAL", nil
	case schema.Decimal:
		return "TEXT", nil
	case schema.String, schema.Text:
		return "TEXT", nil
	case schema.DateTime, schema.DateTimeOffset, schema.TimeSpan:
		return "TEXT", nil
	case schema.Guid:
		return "TEXT", nil
	case schema.Binary:
		return "BLOB", nil
	case schema.Json:
		return "TEXT", nil
	default:
		return "", &schema.ValidationError{
			Kind:   schema.ErrTypeUnmappable,
			Detail: fmt.Sprintf("column %q: no SQLite mapping for declared type %q", col.Name, col.DeclaredType),
		}
	}
}

func mapReverseType(sqliteType string) (schema.DeclaredType, bool) {
	t := strings.ToUpper(strings.TrimSpace(sqliteType))
	switch {
	case strings.Contains(t, "INT"):
		return schema.Int64, true
	case strings.Contains(t, "REAL") || strings.Contains(t, "FLOA") || strings.Contains(t, "DOUB"):
		return schema.Float64, true
	case strings.Contains(t, "BLOB"):
		return schema.Binary, true
	case strings.Contains(t, "CHAR") || strings.Contains(t, "TEXT") || strings.Contains(t, "CLOB") || t == "":
		return schema.Text, true
	default:
		return "", false
	}
}
