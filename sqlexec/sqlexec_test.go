package sqlexec

import (
	"testing"

	"github.com/bowtie-db/bowtie/schema"
)

func TestTranslatorFor_Postgres(t *testing.T) {
	translate := translatorFor(schema.PostgreSql)
	got := translate("select * from Users where Id = @id and Name = @name")
	want := "select * from Users where Id = $1 and Name = $2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTranslatorFor_MySQLAndSqlite(t *testing.T) {
	for _, d := range []schema.Dialect{schema.MySql, schema.Sqlite} {
		translate := translatorFor(d)
		got := translate("select * from Users where Id = @id and Name = @name")
		want := "select * from Users where Id = ? and Name = ?"
		if got != want {
			t.Fatalf("%v: got %q, want %q", d, got, want)
		}
	}
}

func TestTranslatorFor_SqlServerPassesThrough(t *testing.T) {
	translate := translatorFor(schema.SqlServer)
	query := "select * from Users where Id = @id"
	if got := translate(query); got != query {
		t.Fatalf("got %q, want unchanged %q", got, query)
	}
}

func TestTranslatorFor_NoParamsUnchanged(t *testing.T) {
	translate := translatorFor(schema.PostgreSql)
	query := "select 1"
	if got := translate(query); got != query {
		t.Fatalf("got %q, want unchanged %q", got, query)
	}
}

func TestDriverNameFor(t *testing.T) {
	cases := map[schema.Dialect]string{
		schema.PostgreSql: "postgres",
		schema.MySql:      "mysql",
		schema.Sqlite:     "sqlite",
		schema.SqlServer:  "sqlserver",
	}
	for dialect, want := range cases {
		got, err := driverNameFor(dialect)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", dialect, err)
		}
		if got != want {
			t.Fatalf("%v: got %q, want %q", dialect, got, want)
		}
	}

	if _, err := driverNameFor(schema.Dialect("bogus")); err == nil {
		t.Fatal("expected an error for an unregistered dialect")
	}
}
