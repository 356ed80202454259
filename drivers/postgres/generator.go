package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bowtie-db/bowtie/planner"
	"github.com/bowtie-db/bowtie/schema"
)

// Generator implements schema.Generator for PostgreSQL.
type Generator struct{}

// NewGenerator creates a new PostgreSQL DDL generator.
func NewGenerator() *Generator { return &Generator{} }

var capability, _ = schema.CapabilityFor(schema.PostgreSql)

// Provider reports the dialect this generator emits SQL for.
func (g *Generator) Provider() schema.Dialect { return schema.PostgreSql }

// MapType maps a canonical Column to its PostgreSQL type literal.
func (g *Generator) MapType(col schema.Column) (string, error) { return MapType(col) }

// ValidateIndexKind reports whether kind is legal on PostgreSQL.
func (g *Generator) ValidateIndexKind(kind schema.IndexKind) bool {
	return capability.SupportsIndexKind(kind)
}

func quote(name string) string { return capability.Quote(name) }

func qualifiedName(t schema.Table) string {
	schemaName := t.Schema
	if schemaName == "" {
		schemaName = capability.DefaultSchema
	}
	return quote(schemaName) + "." + quote(t.Name)
}

// GenerateCreateTable emits a CREATE TABLE statement: columns in
// declaration order, PRIMARY KEY/UNIQUE/CHECK/FOREIGN KEY as
// table-level clauses.
func (g *Generator) GenerateCreateTable(t schema.Table) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", qualifiedName(t))

	var clauses []string
	for _, col := range t.Columns {
		def, err := g.formatColumnDefinition(col)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "  "+def)
	}

	if pk, ok := t.PrimaryKey(); ok {
		clauses = append(clauses, "  "+g.formatPrimaryKey(pk))
	}
	for _, c := range t.Constraints {
		switch c.Kind {
		case schema.Unique:
			clauses = append(clauses, "  "+g.formatUnique(c))
		case schema.Check:
			clauses = append(clauses, "  "+g.formatCheck(c))
		case schema.ForeignKey:
			clauses = append(clauses, "  "+g.formatForeignKey(c))
		}
	}

	sb.WriteString(strings.Join(clauses, ",\n"))
	sb.WriteString("\n)")
	return sb.String(), nil
}

// GenerateDropTable emits a DROP TABLE statement.
func (g *Generator) GenerateDropTable(t schema.Table) string {
	return fmt.Sprintf("DROP TABLE %s", qualifiedName(t))
}

// GenerateCreateIndex emits a CREATE INDEX statement. PostgreSQL places
// the index access method after the table name with USING <kind>.
func (g *Generator) GenerateCreateIndex(t schema.Table, idx schema.Index) (string, error) {
	if !g.ValidateIndexKind(idx.Kind) {
		return "", &schema.ValidationError{
			Kind:   schema.ErrUnsupportedIndexKindForDialect,
			Detail: fmt.Sprintf("index %q: kind %s is not supported on PostgreSQL", idx.Name, idx.Kind),
		}
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if idx.IsUnique {
		sb.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&sb, "INDEX %s ON %s", quote(idx.Name), qualifiedName(t))

	if idx.Kind != "" && idx.Kind != schema.BTree {
		fmt.Fprintf(&sb, " USING %s", strings.ToLower(string(idx.Kind)))
	}

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
		fmt.Fprintf(&sb, " INCLUDE (%s)", idx.IncludeExpression)
	}
	if idx.WhereExpression != "" {
		fmt.Fprintf(&sb, " WHERE %s", idx.WhereExpression)
	}

	return sb.String(), nil
}

// GenerateDropIndex emits a DROP INDEX statement.
func (g *Generator) GenerateDropIndex(t schema.Table, idx schema.Index) string {
	schemaName := t.Schema
	if schemaName == "" {
		schemaName = capability.DefaultSchema
	}
	return fmt.Sprintf("DROP INDEX %s.%s", quote(schemaName), quote(idx.Name))
}

// GenerateAlterAddColumn emits an ALTER TABLE ... ADD COLUMN statement.
func (g *Generator) GenerateAlterAddColumn(t schema.Table, col schema.Column) (string, error) {
	def, err := g.formatColumnDefinition(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", qualifiedName(t), def), nil
}

// GenerateAlterDropColumn emits an ALTER TABLE ... DROP COLUMN statement.
func (g *Generator) GenerateAlterDropColumn(t schema.Table, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualifiedName(t), quote(col.Name))
}

// GenerateAlterAlterColumn emits the statements needed to change a
// column's type, nullability, or default, one ALTER COLUMN sub-clause
// per changed facet.
func (g *Generator) GenerateAlterAlterColumn(t schema.Table, current, target schema.Column) ([]string, error) {
	var stmts []string
	name := qualifiedName(t)
	col := quote(target.Name)

	if current.DeclaredType != target.DeclaredType || current.RawType != target.RawType ||
		!intPtrEqual(current.MaxLength, target.MaxLength) || !intPtrEqual(current.Precision, target.Precision) ||
		!intPtrEqual(current.Scale, target.Scale) {
		typ, err := g.MapType(target)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", name, col, typ))
	}

	if current.IsNullable != target.IsNullable {
		if target.IsNullable {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", name, col))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", name, col))
		}
	}

	if !defaultEqual(current.Default, target.Default) {
		if target.Default == nil {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", name, col))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", name, col, formatDefaultExpr(*target.Default)))
		}
	}

	return stmts, nil
}

// GenerateMigrationScript computes the diff between current and target
// and emits it in the fixed CREATE TABLE / CREATE INDEX / ALTER / DROP
// INDEX / DROP TABLE order.
func (g *Generator) GenerateMigrationScript(current, target []schema.Table) ([]string, error) {
	diff := planner.Diff(current, target)
	return planner.BuildMigrationScript(diff, g)
}

// GenerateAddConstraint emits ALTER TABLE ... ADD CONSTRAINT for a
// foreign key, unique, or check constraint added outside table
// creation.
func (g *Generator) GenerateAddConstraint(t schema.Table, c schema.Constraint) string {
	var clause string
	switch c.Kind {
	case schema.ForeignKey:
		clause = g.formatForeignKey(c)
	case schema.Unique:
		clause = g.formatUnique(c)
	case schema.Check:
		clause = g.formatCheck(c)
	case schema.PrimaryKey:
		clause = g.formatPrimaryKey(c)
	default:
		return ""
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s", qualifiedName(t), clause)
}

// GenerateDropConstraint emits ALTER TABLE ... DROP CONSTRAINT.
func (g *Generator) GenerateDropConstraint(t schema.Table, c schema.Constraint) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qualifiedName(t), quote(c.Name))
}

func (g *Generator) formatColumnDefinition(col schema.Column) (string, error) {
	typ, err := g.MapType(col)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", quote(col.Name), typ)
	if !col.IsNullable {
		sb.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		fmt.Fprintf(&sb, " DEFAULT %s", formatDefaultExpr(*col.Default))
	}
	return sb.String(), nil
}

func (g *Generator) formatPrimaryKey(c schema.Constraint) string {
	return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", quote(c.Name), quoteList(c.Columns))
}

func (g *Generator) formatUnique(c schema.Constraint) string {
	return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", quote(c.Name), quoteList(c.Columns))
}

func (g *Generator) formatCheck(c schema.Constraint) string {
	return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", quote(c.Name), c.Expression)
}

func (g *Generator) formatForeignKey(c schema.Constraint) string {
	s := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quote(c.Name), quoteList(c.Columns), quote(c.ReferencedTable), quoteList(c.ReferencedColumns))
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

func formatDefaultExpr(d schema.DefaultValue) string {
	if d.IsRaw {
		return d.Literal
	}
	return d.Literal
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func defaultEqual(a, b *schema.DefaultValue) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
