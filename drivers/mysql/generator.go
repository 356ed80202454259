package mysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bowtie-db/bowtie/planner"
	"github.com/bowtie-db/bowtie/schema"
)

// Generator implements schema.Generator for MySQL.
type Generator struct{}

// NewGenerator creates a new MySQL DDL generator.
func NewGenerator() *Generator { return &Generator{} }

var capability, _ = schema.CapabilityFor(schema.MySql)

// Provider reports the dialect this generator emits SQL for.
func (g *Generator) Provider() schema.Dialect { return schema.MySql }

// MapType maps a canonical Column to its MySQL type literal.
func (g *Generator) MapType(col schema.Column) (string, error) { return MapType(col) }

// ValidateIndexKind reports whether kind is legal on MySQL.
func (g *Generator) ValidateIndexKind(kind schema.IndexKind) bool {
	return capability.SupportsIndexKind(kind)
}

func quote(name string) string { return capability.Quote(name) }

// GenerateCreateTable emits a CREATE TABLE statement. MySQL has no
// schema concept, so the table name is never qualified.
func (g *Generator) GenerateCreateTable(t schema.Table) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", quote(t.Name))

	var clauses []string
	for _, col := range t.Columns {
		def, err := g.formatColumnDefinition(col)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "  "+def)
	}

	if pk, ok := t.PrimaryKey(); ok {
		clauses = append(clauses, fmt.Sprintf("  PRIMARY KEY (%s)", quoteList(pk.Columns)))
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
	return fmt.Sprintf("DROP TABLE %s", quote(t.Name))
}

// GenerateCreateIndex emits a CREATE INDEX statement. Spatial and
// full-text indexes use their own CREATE syntax; everything else takes
// a trailing USING clause.
func (g *Generator) GenerateCreateIndex(t schema.Table, idx schema.Index) (string, error) {
	if !g.ValidateIndexKind(idx.Kind) {
		return "", &schema.ValidationError{
			Kind:   schema.ErrUnsupportedIndexKindForDialect,
			Detail: fmt.Sprintf("index %q: kind %s is not supported on MySQL", idx.Name, idx.Kind),
		}
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	switch {
	case idx.IsUnique:
		sb.WriteString("UNIQUE ")
	case idx.Kind == schema.Spatial:
		sb.WriteString("SPATIAL ")
	case idx.Kind == schema.FullText:
		sb.WriteString("FULLTEXT ")
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

	if idx.Kind == schema.BTree || idx.Kind == schema.Hash {
		fmt.Fprintf(&sb, " USING %s", strings.ToUpper(string(idx.Kind)))
	}
	if idx.WhereExpression != "" {
		sb.WriteString(" -- WHERE not supported on MySQL: " + idx.WhereExpression)
	}

	return sb.String(), nil
}

// GenerateDropIndex emits a DROP INDEX statement (MySQL requires the
// owning table).
func (g *Generator) GenerateDropIndex(t schema.Table, idx schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", quote(idx.Name), quote(t.Name))
}

// GenerateAlterAddColumn emits an ALTER TABLE ... ADD COLUMN statement.
func (g *Generator) GenerateAlterAddColumn(t schema.Table, col schema.Column) (string, error) {
	def, err := g.formatColumnDefinition(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(t.Name), def), nil
}

// GenerateAlterDropColumn emits an ALTER TABLE ... DROP COLUMN statement.
func (g *Generator) GenerateAlterDropColumn(t schema.Table, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quote(t.Name), quote(col.Name))
}

// GenerateAlterAlterColumn emits a MODIFY COLUMN statement with the
// column's full new definition: MySQL has no piecewise ALTER COLUMN
// TYPE/SET NOT NULL like PostgreSQL, so type, nullability, and default
// all change together in one statement.
func (g *Generator) GenerateAlterAlterColumn(t schema.Table, current, target schema.Column) ([]string, error) {
	def, err := g.formatColumnDefinition(target)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", quote(t.Name), def)}, nil
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
		clause = fmt.Sprintf("PRIMARY KEY (%s)", quoteList(c.Columns))
	default:
		return ""
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s", quote(t.Name), clause)
}

// GenerateDropConstraint emits ALTER TABLE ... DROP CONSTRAINT.
func (g *Generator) GenerateDropConstraint(t schema.Table, c schema.Constraint) string {
	switch c.Kind {
	case schema.ForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", quote(t.Name), quote(c.Name))
	case schema.PrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", quote(t.Name))
	default:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", quote(t.Name), quote(c.Name))
	}
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
	if col.IsIdentity {
		sb.WriteString(" AUTO_INCREMENT")
	}
	if col.Default != nil {
		fmt.Fprintf(&sb, " DEFAULT %s", col.Default.Literal)
	}
	return sb.String(), nil
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
