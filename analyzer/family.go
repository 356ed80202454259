package analyzer

import "github.com/bowtie-db/bowtie/schema"

var familyNames = map[string]schema.DeclaredType{
	"bool": schema.Bool, "Bool": schema.Bool,
	"int16": schema.Int16, "Int16": schema.Int16,
	"int32": schema.Int32, "Int32": schema.Int32,
	"int64": schema.Int64, "Int64": schema.Int64,
	"byte": schema.Byte, "Byte": schema.Byte,
	"float32": schema.Float32, "Float32": schema.Float32,
	"float64": schema.Float64, "Float64": schema.Float64,
	"decimal": schema.Decimal, "Decimal": schema.Decimal,
	"string": schema.String, "String": schema.String,
	"text": schema.Text, "Text": schema.Text,
	"datetime": schema.DateTime, "DateTime": schema.DateTime,
	"datetimeoffset": schema.DateTimeOffset, "DateTimeOffset": schema.DateTimeOffset,
	"timespan": schema.TimeSpan, "TimeSpan": schema.TimeSpan,
	"guid": schema.Guid, "Guid": schema.Guid,
	"binary": schema.Binary, "Binary": schema.Binary,
	"json": schema.Json, "Json": schema.Json,
}

// familyFromString maps a manifest's textual family name to the
// canonical DeclaredType, falling back to treating the raw string as
// the type itself so an unrecognized future family does not panic.
func familyFromString(name string) schema.DeclaredType {
	if t, ok := familyNames[name]; ok {
		return t
	}
	return schema.DeclaredType(name)
}
