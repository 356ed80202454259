// Package mysql implements the DDL Generator and Schema Introspector
// for MySQL.
package mysql

import (
	"fmt"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// MapType maps a canonical Column to its MySQL column type. A pinned
// raw type passes through verbatim.
func MapType(col schema.Column) (string, error) {
	if col.HasRawType() {
		return col.RawType, nil
	}

	switch col.DeclaredType {
	case schema.Bool:
		return "TINYINT(1)", nil
	case schema.Int16:
		return "SMALLINT", nil
	case schema.Int32:
		return "INT", nil
	case schema.Int64:
		return "BIGINT", nil
	case schema.Byte:
		return "TINYINT UNSIGNED", nil
	case schema.Float32:
		return "FLOAT", nil
	case schema.Float64:
		return "DOUBLE", nil
	case schema.Decimal:
		return decimalType(col), nil
	case schema.String:
		if col.MaxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *col.MaxLength), nil
		}
		return "TEXT", nil
	case schema.Text:
		return "TEXT", nil
	case schema.DateTime:
		return "DATETIME", nil
	case schema.DateTimeOffset:
		return "TIMESTAMP", nil
	case schema.TimeSpan:
		return "TIME", nil
	case schema.Guid:
		return "CHAR(36)", nil
	case schema.Binary:
		return "BLOB", nil
	case schema.Json:
		return "JSON", nil
	default:
		return "", &schema.ValidationError{
			Kind:   schema.ErrTypeUnmappable,
			Detail: fmt.Sprintf("column %q: no MySQL mapping for declared type %q", col.Name, col.DeclaredType),
		}
	}
}

func decimalType(col schema.Column) string {
	switch {
	case col.Precision != nil && col.Scale != nil:
		return fmt.Sprintf("DECIMAL(%d,%d)", *col.Precision, *col.Scale)
	case col.Precision != nil:
		return fmt.Sprintf("DECIMAL(%d)", *col.Precision)
	default:
		return "DECIMAL"
	}
}

func mapReverseType(columnType string) (schema.DeclaredType, bool) {
	t := strings.ToLower(columnType)
	switch {
	case strings.HasPrefix(t, "tinyint(1)"):
		return schema.Bool, true
	case strings.HasPrefix(t, "smallint"):
		return schema.Int16, true
	case strings.HasPrefix(t, "bigint"):
		return schema.Int64, true
	case strings.HasPrefix(t, "tinyint"):
		return schema.Byte, true
	case strings.HasPrefix(t, "int") || strings.HasPrefix(t, "mediumint"):
		return schema.Int32, true
	case strings.HasPrefix(t, "float"):
		return schema.Float32, true
	case strings.HasPrefix(t, "double"):
		return schema.Float64, true
	case strings.HasPrefix(t, "decimal") || strings.HasPrefix(t, "numeric"):
		return schema.Decimal, true
	case strings.HasPrefix(t, "varchar"):
		return schema.String, true
	case strings.HasPrefix(t, "text") || strings.HasPrefix(t, "longtext") || strings.HasPrefix(t, "mediumtext"):
		return schema.Text, true
	case strings.HasPrefix(t, "datetime"):
		return schema.DateTime, true
	case strings.HasPrefix(t, "timestamp"):
		return schema.DateTimeOffset, true
	case strings.HasPrefix(t, "time"):
		return schema.TimeSpan, true
	case t == "char(36)":
		return schema.Guid, true
	case strings.HasPrefix(t, "blob") || strings.HasPrefix(t, "varbinary") || strings.HasPrefix(t, "binary"):
		return schema.Binary, true
	case strings.HasPrefix(t, "json"):
		return schema.Json, true
	default:
		return "", false
	}
}
