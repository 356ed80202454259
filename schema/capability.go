package schema

// Capability describes the fixed, per-dialect facts the rest of the
// engine consults: identifier quoting, parameter placeholder prefix,
// schema support, the default schema name, and the set of index kinds
// the dialect can express.
type Capability struct {
	Dialect         Dialect
	QuoteLeft       string
	QuoteRight      string
	ParamPrefix     string
	SupportsSchemas bool
	DefaultSchema   string
	IndexKinds      map[IndexKind]bool
}

// Quote wraps an identifier in the dialect's quote characters.
func (c Capability) Quote(identifier string) string {
	return c.QuoteLeft + identifier + c.QuoteRight
}

// SupportsIndexKind reports whether kind is legal on this dialect.
// BTree is universally supported regardless of the table's contents.
func (c Capability) SupportsIndexKind(kind IndexKind) bool {
	if kind == BTree {
		return true
	}
	return c.IndexKinds[kind]
}

// RequiresSchema reports whether the dialect supports schema-qualified
// table names.
func (c Capability) RequiresSchema() bool { return c.SupportsSchemas }

var capabilities = map[Dialect]Capability{
	SqlServer: {
		Dialect:         SqlServer,
		QuoteLeft:       "[",
		QuoteRight:      "]",
		ParamPrefix:     "@",
		SupportsSchemas: true,
		DefaultSchema:   "dbo",
		IndexKinds: map[IndexKind]bool{
			BTree: true, Clustered: true, NonClustered: true,
			ColumnStore: true, Spatial: true, FullText: true,
		},
	},
	PostgreSql: {
		Dialect:         PostgreSql,
		QuoteLeft:       `"`,
		QuoteRight:      `"`,
		ParamPrefix:     "@",
		SupportsSchemas: true,
		DefaultSchema:   "public",
		IndexKinds: map[IndexKind]bool{
			BTree: true, Hash: true, GIN: true, GiST: true,
			BRIN: true, SPGiST: true, Spatial: true,
		},
	},
	MySql: {
		Dialect:         MySql,
		QuoteLeft:       "`",
		QuoteRight:      "`",
		ParamPrefix:     "@",
		SupportsSchemas: false,
		DefaultSchema:   "",
		IndexKinds: map[IndexKind]bool{
			BTree: true, Hash: true, Spatial: true, FullText: true,
		},
	},
	Sqlite: {
		Dialect:         Sqlite,
		QuoteLeft:       "[",
		QuoteRight:      "]",
		ParamPrefix:     "@",
		SupportsSchemas: false,
		DefaultSchema:   "",
		IndexKinds: map[IndexKind]bool{
			BTree: true,
		},
	},
}

// CapabilityFor returns the fixed capability set for a dialect. The
// boolean is false for an unrecognized dialect value.
func CapabilityFor(d Dialect) (Capability, bool) {
	c, ok := capabilities[d]
	return c, ok
}
