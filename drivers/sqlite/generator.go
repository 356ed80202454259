package sqlite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bowtie-db/bowtie/planner"
	"github.com/bowtie-db/bowtie/schema"
)

// Generator implements schema.Generator for SQLite.
type Generator struct{}

// NewGenerator creates a new SQLite DDL generator.
func NewGenerator() *Generator { return &Generator{} }

var capability, _ = schema.CapabilityFor(schema.Sqlite)

// Provider reports the dialect this generator emits SQL for.
func (g *Generator) Provider() schema.Dialect { return schema.Sqlite }

// MapType maps a canonical Column to its SQLite type affinity.
func (g *Generator) MapType(col schema.Column) (string, error) { return MapType(col) }

// ValidateIndexKind reports whether kind is legal on SQLite (BTree only).
func (g *Generator) ValidateIndexKind(kind schema.IndexKind) bool {
	return capability.SupportsIndexKind(kind)
}

func quote(name string) string { return capability.Quote(name) }

// inlineIdentityColumn reports whether col is the single-column integer
// identity primary key that SQLite spells as "INTEGER PRIMARY KEY
// AUTOINCREMENT" inline, in which case no table-level PRIMARY KEY
// clause is emitted.
func inlineIdentityColumn(t schema.Table, col schema.Column) bool {
	if !col.IsPrimaryKey || !col.IsIdentity {
		return false
	}
	pk, ok := t.PrimaryKey()
	return ok && len(pk.Columns) == 1 && pk.Columns[0] == col.Name
}

// GenerateCreateTable emits a CREATE TABLE statement. An integer
// identity primary key is spelled inline; other primary keys are a
// table-level constraint.
func (g *Generator) GenerateCreateTable(t schema.Table) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", quote(t.Name))

	pk, hasPK := t.PrimaryKey()
	inlinePK := hasPK && len(pk.Columns) == 1
	if inlinePK {
		col, _ := t.Column(pk.Columns[0])
		inlinePK = inlineIdentityColumn(t, col)
	}

	var clauses []string
	for _, col := range t.Columns {
		def, err := g.formatColumnDefinition(col, inlinePK && col.IsPrimaryKey)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "  "+def)
	}

	if hasPK && !inlinePK {
		clauses = append(clauses, fmt.Sprintf("  PRIMARY KEY (%s)", quoteList(pk.Columns)))
	}
	for _, c := range t.Constraints {
		switch c.Kind {
		case schema.Unique:
			clauses = append(clauses, fmt.Sprintf("  CONSTRAINT %s UNIQUE (%s)", quote(c.Name), quoteList(c.Columns)))
		case schema.Check:
			clauses = append(clauses, fmt.Sprintf("  CONSTRAINT %s CHECK (%s)", quote(c.Name), c.Expression))
		case schema.ForeignKey:
			// SQLite only accepts foreign keys at table-creation time.
			clauses = append(clauses, "  "+g.formatForeignKey(c))
		}
	}

	sb.WriteString(strings.Join(clauses, ",\n"))
	sb.WriteString("\n)")
	return sb.String(), nil
}

// GenerateDropTable emits a DROP TABLE statement. SQLite has no CASCADE.
func (g *Generator) GenerateDropTable(t schema.Table) string {
	return fmt.Sprintf("DROP TABLE %s", quote(t.Name))
}

// GenerateCreateIndex emits a CREATE INDEX statement; SQLite only ever
// supports BTree so no kind placement is needed.
func (g *Generator) GenerateCreateIndex(t schema.Table, idx schema.Index) (string, error) {
	if !g.ValidateIndexKind(idx.Kind) {
		return "", &schema.ValidationError{
			Kind:   schema.ErrUnsupportedIndexKindForDialect,
			Detail: fmt.Sprintf("index %q: kind %s is not supported on SQLite", idx.Name, idx.Kind),
		}
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if idx.IsUnique {
		sb.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&sb, "INDEX %s ON %s", quote(idx.Name), quote(t.Name))

	sorted := make([]schema.IndexColumn, len(idx.Columns))
	copy(sorted, idx.Columns)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })
	var cols []string
	for _, c := range sorted {
		col := quote(c.ColumnName)
		if c.Descending {
			col += " DESC"
		}
		cols = append(cols, col)
	}
	fmt.Fprintf(&sb, " (%s)", strings.Join(cols, ", "))

	if idx.IncludeExpression != "" {
		sb.WriteString(" -- INCLUDE not supported on SQLite: " + idx.IncludeExpression)
	}
	if idx.WhereExpression != "" {
		fmt.Fprintf(&sb, " WHERE %s", idx.WhereExpression)
	}

	return sb.String(), nil
}

// GenerateDropIndex emits a DROP INDEX statement.
func (g *Generator) GenerateDropIndex(t schema.Table, idx schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s", quote(idx.Name))
}

// GenerateAlterAddColumn emits an ALTER TABLE ... ADD COLUMN statement.
func (g *Generator) GenerateAlterAddColumn(t schema.Table, col schema.Column) (string, error) {
	def, err := g.formatColumnDefinition(col, false)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(t.Name), def), nil
}

// GenerateAlterDropColumn emits an ALTER TABLE ... DROP COLUMN
// statement (SQLite 3.35.0+).
func (g *Generator) GenerateAlterDropColumn(t schema.Table, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quote(t.Name), quote(col.Name))
}

// GenerateAlterAlterColumn always fails: SQLite has no ALTER COLUMN,
// and this engine does not implement the create-shadow-table/copy/
// rename pattern (a declared limitation, see Design Notes). The caller
// must rebuild the table manually.
func (g *Generator) GenerateAlterAlterColumn(t schema.Table, current, target schema.Column) ([]string, error) {
	return nil, &schema.GenerationError{
		Kind:    schema.ErrUnsupportedFeatureForDialect,
		Dialect: schema.Sqlite,
		Detail:  fmt.Sprintf("column %q.%q: SQLite cannot ALTER COLUMN; rebuild the table manually", t.FullName(), current.Name),
	}
}

// GenerateMigrationScript computes the diff between current and target
// and emits it in the fixed CREATE TABLE / CREATE INDEX / ALTER / DROP
// INDEX / DROP TABLE order.
func (g *Generator) GenerateMigrationScript(current, target []schema.Table) ([]string, error) {
	diff := planner.Diff(current, target)
	return planner.BuildMigrationScript(diff, g)
}

func (g *Generator) formatColumnDefinition(col schema.Column, inlinePrimaryKey bool) (string, error) {
	typ, err := g.MapType(col)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", quote(col.Name), typ)

	if inlinePrimaryKey {
		sb.WriteString(" PRIMARY KEY")
		if col.IsIdentity {
			sb.WriteString(" AUTOINCREMENT")
		}
	} else if !col.IsNullable {
		sb.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		fmt.Fprintf(&sb, " DEFAULT %s", col.Default.Literal)
	}
	return sb.String(), nil
}

func (g *Generator) formatForeignKey(c schema.Constraint) string {
	s := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteList(c.Columns), quote(c.ReferencedTable), quoteList(c.ReferencedColumns))
	if c.OnDelete != "" && c.OnDelete != schema.NoAction {
		s += " ON DELETE " + referentialActionSQL(c.OnDelete)
	}
	if c.OnUpdate != "" && c.OnUpdate != schema.NoAction {
		s += " ON UPDATE " + referentialActionSQL(c.OnUpdate)
	}
	return s
}

func referentialActionSQL(a schema.ReferentialAction) string {
	switch a {
	case schema.Cascade:
		return "CASCADE"
	case schema.SetNull:
		return "SET NULL"
	case schema.SetDefault:
		return "SET DEFAULT"
	case schema.Restrict:
		return "RESTRICT"
	default:
		return "NO ACTION"
	}
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}
