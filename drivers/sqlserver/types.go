// Package sqlserver implements the DDL Generator and Schema
// Introspector for Microsoft SQL Server.
package sqlserver

import (
	"fmt"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// MapType maps a canonical Column to its SQL Server type literal. A
// pinned raw type passes through verbatim.
func MapType(col schema.Column) (string, error) {
	if col.HasRawType() {
		return col.RawType, nil
	}

	switch col.DeclaredType {
	case schema.Bool:
		return "BIT", nil
	case schema.Int16:
		return "SMALLINT", nil
	case schema.Int32:
		return "INT", nil
	case schema.Int64:
		return "BIGINT", nil
	case schema.Byte:
		return "TINYINT", nil
	case schema.Float32:
		return "REAL", nil
	case schema.Float64:
		return "FLOAT", nil
	case schema.Decimal:
		return decimalType(col), nil
	case schema.String:
		if col.MaxLength != nil {
			return fmt.Sprintf("NVARCHAR(%d)", *col.MaxLength), nil
		}
		return "NVARCHAR(MAX)", nil
	case schema.Text:
		return "NVARCHAR(MAX)", nil
	case schema.DateTime:
		return "DATETIME2", nil
	case schema.DateTimeOffset:
		return "DATETIMEOFFSET", nil
	case schema.TimeSpan:
		return "TIME", nil
	case schema.Guid:
		return "UNIQUEIDENTIFIER", nil
	case schema.Binary:
		return "VARBINARY(MAX)", nil
	case schema.Json:
		return "NVARCHAR(MAX)", nil
	default:
		return "", &schema.ValidationError{
			Kind:   schema.ErrTypeUnmappable,
			Detail: fmt.Sprintf("column %q: no SQL Server mapping for declared type %q", col.Name, col.DeclaredType),
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

func mapReverseType(sqlType string) (schema.DeclaredType, bool) {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	switch {
	case t == "bit":
		return schema.Bool, true
	case t == "smallint":
		return schema.Int16, true
	case t == "int":
		return schema.Int32, true
	case t == "bigint":
		return schema.Int64, true
	case t == "tinyint":
		return schema.Byte, true
	case t == "real":
		return schema.Float32, true
	case t == "float":
		return schema.Float64, true
	case strings.HasPrefix(t, "decimal") || strings.HasPrefix(t, "numeric"):
		return schema.Decimal, true
	case strings.HasPrefix(t, "nvarchar") || strings.HasPrefix(t, "varchar"):
		return schema.String, true
	case t == "ntext" || t == "text":
		return schema.Text, true
	case t == "datetime2" || t == "datetime" || t == "smalldatetime":
		return schema.DateTime, true
	case t == "datetimeoffset":
		return schema.DateTimeOffset, true
	case t == "time":
		return schema.TimeSpan, true
	case t == "uniqueidentifier":
		return schema.Guid, true
	case strings.HasPrefix(t, "varbinary") || strings.HasPrefix(t, "binary") || t == "image":
		return schema.Binary, true
	default:
		return "", false
	}
}
