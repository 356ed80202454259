package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bowtie-db/bowtie/schema"
)

// Analyze processes an explicit list of descriptors: every non-abstract
// descriptor participates, with or without a Table annotation (the
// caller's opt-in, filtering rule 2).
func Analyze(descriptors []Descriptor, opts Options) ([]schema.Table, error) {
	return analyze(descriptors, opts, false)
}

// AnalyzeProvider scans a whole provider of descriptors: only
// non-abstract descriptors carrying a Table annotation are kept.
func AnalyzeProvider(descriptors []Descriptor, opts Options) ([]schema.Table, error) {
	return analyze(descriptors, opts, true)
}

func analyze(descriptors []Descriptor, opts Options, requireTableTag bool) ([]schema.Table, error) {
	var tables []schema.Table
	seen := make(map[string]string) // lowercase full_name -> original identity, for DuplicateTable detection

	for _, d := range descriptors {
		if d.Abstract {
			continue
		}
		if requireTableTag && d.Table == nil {
			continue
		}

		table, err := analyzeDescriptor(d, opts)
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(table.FullName())
		if prior, exists := seen[key]; exists {
			return nil, &schema.AnalysisError{
				Kind:   schema.ErrDuplicateTable,
				Detail: fmt.Sprintf("descriptors %q and %q both produce table %q", prior, d.Identity, table.FullName()),
			}
		}
		seen[key] = d.Identity

		tables = append(tables, table)
	}

	return tables, nil
}

func analyzeDescriptor(d Descriptor, opts Options) (schema.Table, error) {
	tableName := d.Identity
	if d.Table != nil && d.Table.Name != "" {
		tableName = d.Table.Name
	}
	schemaName, name := splitTableName(tableName, opts.DefaultSchema)

	table := schema.Table{Name: name, Schema: schemaName}

	columnNames := make(map[string]bool)
	var pkProps []pkEntry
	indexGroups := make(map[string]*indexGroup)
	uniqueGroups := make(map[string]*indexGroup)

	for _, p := range d.Properties {
		if !p.Writable || p.Computed {
			continue
		}

		colName := p.Name
		if p.Column != nil && p.Column.Name != "" {
			colName = p.Column.Name
		}
		if columnNames[colName] {
			return schema.Table{}, &schema.AnalysisError{
				Kind:   schema.ErrDuplicateColumn,
				Detail: fmt.Sprintf("table %q: duplicate column %q", table.FullName(), colName),
			}
		}
		columnNames[colName] = true

		col := schema.Column{
			Name:         colName,
			DeclaredType: p.Family,
			IsNullable:   p.Nullable,
		}
		if p.Column != nil {
			col.RawType = p.Column.TypeName
			col.MaxLength = p.Column.MaxLength
			col.Precision = p.Column.Precision
			col.Scale = p.Column.Scale
			col.Collation = p.Column.Collation
			if p.Column.IsNullable != nil {
				col.IsNullable = *p.Column.IsNullable
			}
		}
		if p.Default != nil {
			col.Default = &schema.DefaultValue{Literal: p.Default.Value, IsRaw: p.Default.IsRaw}
		}

		isPrimaryKey := p.Key || p.ExplicitKey || p.PrimaryKey != nil
		if isPrimaryKey {
			col.IsPrimaryKey = true
			order := 0
			explicitOrder := false
			identity := col.DeclaredType.IsIntegerFamily()
			if p.PrimaryKey != nil {
				order = p.PrimaryKey.Order
				explicitOrder = p.PrimaryKey.Order != 0
				if p.PrimaryKey.IsIdentity != nil {
					identity = *p.PrimaryKey.IsIdentity
				}
			}
			// An explicit ordering means this key participates in a
			// composite primary key, so it is not auto-assigned
			// identity unless the annotation says so explicitly.
			if explicitOrder && (p.PrimaryKey == nil || p.PrimaryKey.IsIdentity == nil) {
				identity = false
			}
			if identity && col.Default != nil {
				identity = false
			}
			col.IsIdentity = identity && col.DeclaredType.IsIntegerFamily()
			pkProps = append(pkProps, pkEntry{column: colName, order: order})
		}

		for _, it := range p.Indexes {
			key := it.Group
			if key == "" {
				key = "__single__" + colName
			}
			grp, exists := indexGroups[key]
			if !exists {
				grp = &indexGroup{tag: it, name: it.Name, group: it.Group}
				indexGroups[key] = grp
			}
			order := it.Order
			if order == 0 {
				order = len(grp.columns) + 1
			}
			grp.columns = append(grp.columns, schema.IndexColumn{ColumnName: colName, Ordinal: order, Descending: it.Descending})
			if it.IsUnique {
				grp.isUnique = true
			}
			if it.Kind != "" {
				grp.kind = it.Kind
			}
			if it.Include != "" {
				grp.include = it.Include
			}
			if it.Where != "" {
				grp.where = it.Where
			}
		}

		for _, ut := range p.Uniques {
			key := ut.Group
			if key == "" {
				key = "__single__" + colName
			}
			grp, exists := uniqueGroups[key]
			if !exists {
				grp = &indexGroup{name: ut.Name, group: ut.Group}
				uniqueGroups[key] = grp
			}
			order := ut.Order
			if order == 0 {
				order = len(grp.columns) + 1
			}
			grp.columns = append(grp.columns, schema.IndexColumn{ColumnName: colName, Ordinal: order})
		}

		if p.ForeignKey != nil {
			action, err := schema.ParseReferentialAction(p.ForeignKey.OnDelete)
			if err != nil {
				return schema.Table{}, err
			}
			onUpdate, err := schema.ParseReferentialAction(p.ForeignKey.OnUpdate)
			if err != nil {
				return schema.Table{}, err
			}
			fkName := p.ForeignKey.Name
			if fkName == "" {
				fkName = fmt.Sprintf("FK_%s_%s", table.Name, colName)
			}
			refCol := p.ForeignKey.ReferencedColumn
			if refCol == "" {
				refCol = "Id"
			}
			table.Constraints = append(table.Constraints, schema.Constraint{
				Name:              fkName,
				Kind:              schema.ForeignKey,
				Columns:           []string{colName},
				ReferencedTable:   p.ForeignKey.ReferencedTable,
				ReferencedColumns: []string{refCol},
				OnDelete:          action,
				OnUpdate:          onUpdate,
			})
		}

		for _, ct := range p.Checks {
			ckName := ct.Name
			if ckName == "" {
				ckName = fmt.Sprintf("CK_%s_%s", table.Name, colName)
			}
			table.Constraints = append(table.Constraints, schema.Constraint{
				Name:       ckName,
				Kind:       schema.Check,
				Expression: ct.Expression,
			})
		}

		table.Columns = append(table.Columns, col)
	}

	if len(pkProps) > 0 {
		sort.SliceStable(pkProps, func(i, j int) bool { return pkProps[i].order < pkProps[j].order })
		cols := make([]string, len(pkProps))
		for i, e := range pkProps {
			cols[i] = e.column
		}
		table.Constraints = append(table.Constraints, schema.Constraint{
			Name:    fmt.Sprintf("PK_%s", table.Name),
			Kind:    schema.PrimaryKey,
			Columns: cols,
		})
		if len(pkProps) > 1 {
			// Composite keys never carry an auto identity column.
			for i, c := range table.Columns {
				if containsString(cols, c.Name) {
					table.Columns[i].IsIdentity = false
				}
			}
		}
	}

	addIndexGroups(&table, indexGroups, false)
	addIndexGroups(&table, uniqueGroups, true)

	// The analyzer runs before a target dialect is chosen, so schema
	// support is not yet a constraint; that check is deferred to the
	// Synchronizer once a Driver is selected.
	if err := table.Validate(true); err != nil {
		return schema.Table{}, err
	}

	return table, nil
}

type pkEntry struct {
	column string
	order  int
}

type indexGroup struct {
	tag      IndexTag
	name     string
	group    string
	columns  []schema.IndexColumn
	isUnique bool
	kind     schema.IndexKind
	include  string
	where    string
}

func addIndexGroups(table *schema.Table, groups map[string]*indexGroup, forceUnique bool) {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		grp := groups[k]
		sort.SliceStable(grp.columns, func(i, j int) bool { return grp.columns[i].Ordinal < grp.columns[j].Ordinal })
		for i := range grp.columns {
			grp.columns[i].Ordinal = i + 1
		}

		name := grp.name
		prefix := "IX"
		if forceUnique {
			prefix = "UQ"
		}
		if name == "" {
			if grp.group != "" {
				name = fmt.Sprintf("%s_%s_%s", prefix, table.Name, grp.group)
			} else {
				name = fmt.Sprintf("%s_%s_%s", prefix, table.Name, grp.columns[0].ColumnName)
			}
		}

		kind := grp.kind
		if kind == "" {
			kind = schema.BTree
		}

		table.Indexes = append(table.Indexes, schema.Index{
			Name:              name,
			IsUnique:          forceUnique || grp.isUnique,
			Kind:              kind,
			Columns:           grp.columns,
			IncludeExpression: grp.include,
			WhereExpression:   grp.where,
		})
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// splitTableName applies spec's schema-split rule: a table name
// containing a single "." splits into (schema, name); otherwise the
// caller-supplied default schema applies (which may be empty).
func splitTableName(tableName, defaultSchema string) (schemaName, name string) {
	if idx := strings.Index(tableName, "."); idx >= 0 && strings.Count(tableName, ".") == 1 {
		return tableName[:idx], tableName[idx+1:]
	}
	return defaultSchema, tableName
}
