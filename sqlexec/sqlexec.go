// Package sqlexec wires the canonical schema.Executor contract to
// database/sql, translating the "@name" placeholder convention the
// core writes its queries with into each driver's native parameter
// syntax.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/bowtie-db/bowtie/schema"
)

// DB is the subset of *sql.DB (or *sql.Tx) an Executor needs.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Executor adapts a database/sql connection to schema.Executor.
type Executor struct {
	db        DB
	translate func(string) string
}

// New wraps db as a schema.Executor for the given dialect, translating
// "@name" placeholders into that dialect's native parameter syntax.
func New(db DB, dialect schema.Dialect) *Executor {
	return &Executor{db: db, translate: translatorFor(dialect)}
}

var namedParam = regexp.MustCompile(`@\w+`)

// translatorFor returns the placeholder rewriter for dialect. SQL
// Server's driver already accepts "@name" parameters natively, so it
// passes queries through unchanged; PostgreSQL and MySQL/SQLite rewrite
// to their own positional syntax, in the order the names occur in the
// query text (which always matches the order args are supplied, since
// every call site in this engine follows that convention).
func translatorFor(dialect schema.Dialect) func(string) string {
	switch dialect {
	case schema.PostgreSql:
		return func(query string) string {
			n := 0
			return namedParam.ReplaceAllStringFunc(query, func(string) string {
				n++
				return fmt.Sprintf("$%d", n)
			})
		}
	case schema.MySql, schema.Sqlite:
		return func(query string) string {
			return namedParam.ReplaceAllString(query, "?")
		}
	default: // SqlServer
		return func(query string) string { return query }
	}
}

// ExecuteScalar runs query and returns the first column of the first
// row, or nil if the result set is empty.
func (e *Executor) ExecuteScalar(ctx context.Context, query string, args ...any) (any, error) {
	row := e.db.QueryRowContext(ctx, e.translate(query), args...)
	var result any
	if err := row.Scan(&result); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("executing scalar query: %w", err)
	}
	return result, nil
}

// ExecuteNonQuery runs query for its side effect and returns the
// number of rows affected.
func (e *Executor) ExecuteNonQuery(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := e.db.ExecContext(ctx, e.translate(query), args...)
	if err != nil {
		return 0, fmt.Errorf("executing statement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return affected, nil
}

// Query runs query and returns an iterator over the result set.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (schema.RowIterator, error) {
	rows, err := e.db.QueryContext(ctx, e.translate(query), args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return &rowIterator{rows: rows}, nil
}

type rowIterator struct {
	rows *sql.Rows
}

func (r *rowIterator) Next() bool               { return r.rows.Next() }
func (r *rowIterator) Scan(dest ...any) error   { return r.rows.Scan(dest...) }
func (r *rowIterator) Columns() ([]string, error) { return r.rows.Columns() }
func (r *rowIterator) Err() error               { return r.rows.Err() }
func (r *rowIterator) Close() error             { return r.rows.Close() }

var _ schema.Executor = (*Executor)(nil)
