package sqlexec

import (
	"database/sql"
	"fmt"

	"github.com/bowtie-db/bowtie/schema"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Open connects to dsn using the database/sql driver registered for
// dialect and wraps the connection as a schema.Executor. The caller
// owns the returned *sql.DB and is responsible for closing it.
func Open(dialect schema.Dialect, dsn string) (*sql.DB, schema.Executor, error) {
	driverName, err := driverNameFor(dialect)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s connection: %w", dialect, err)
	}
	return db, New(db, dialect), nil
}

func driverNameFor(dialect schema.Dialect) (string, error) {
	switch dialect {
	case schema.PostgreSql:
		return "postgres", nil
	case schema.MySql:
		return "mysql", nil
	case schema.Sqlite:
		return "sqlite", nil
	case schema.SqlServer:
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("sqlexec: no registered driver for dialect %q", dialect)
	}
}

// OpenLibSQL connects to a Turso/libSQL dsn (e.g. "libsql://..." or a
// local "file:" URL) and wraps it as a schema.Executor using the
// SQLite dialect's capability set and placeholder rules.
func OpenLibSQL(dsn string) (*sql.DB, schema.Executor, error) {
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening libsql connection: %w", err)
	}
	return db, New(db, schema.Sqlite), nil
}
