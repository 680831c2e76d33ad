// Package metadata answers "what type is column C of table T" for the type
// resolver, from schema files or from a live database.
package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rana718/querygraft/internal/config"
)

// Lookup returns the declared SQL type of table.column. found is false when
// the table or column is unknown; err is reserved for failures of the
// underlying source.
type Lookup interface {
	ColumnType(ctx context.Context, table, column string) (sqlType string, found bool, err error)
}

// LookupFunc adapts a plain function to Lookup.
type LookupFunc func(ctx context.Context, table, column string) (string, bool, error)

func (f LookupFunc) ColumnType(ctx context.Context, table, column string) (string, bool, error) {
	return f(ctx, table, column)
}

// None never finds anything.
type None struct{}

func (None) ColumnType(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

// Source is a Lookup that holds resources.
type Source interface {
	Lookup
	Close() error
}

type nopCloser struct{ Lookup }

func (nopCloser) Close() error { return nil }

// NewFromConfig builds the lookup selected by cfg.Metadata.Source.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.Metadata.Source {
	case "none":
		return nopCloser{None{}}, nil
	case "schema":
		files, err := cfg.GetSchemaFiles()
		if err != nil {
			return nil, err
		}
		lookup, err := LoadSchemaFiles(files...)
		if err != nil {
			return nil, err
		}
		return nopCloser{lookup}, nil
	case "database":
		url, err := cfg.GetDatabaseURL()
		if err != nil {
			return nil, err
		}
		return Connect(ctx, cfg.NormalizedProvider(), url)
	default:
		return nil, fmt.Errorf("unsupported metadata source: %s", cfg.Metadata.Source)
	}
}

// Connect opens a database-backed lookup for provider.
func Connect(ctx context.Context, provider, url string) (Source, error) {
	switch provider {
	case "postgresql", "postgres":
		return NewPostgresLookup(ctx, url)
	case "mysql":
		return NewMySQLLookup(ctx, url)
	case "sqlite", "sqlite3":
		return NewSQLiteLookup(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", provider)
	}
}

var numericTypes = map[string]bool{
	"int": true, "integer": true, "int2": true, "int4": true, "int8": true,
	"smallint": true, "mediumint": true, "bigint": true, "tinyint": true,
	"serial": true, "smallserial": true, "bigserial": true,
	"decimal": true, "numeric": true, "real": true, "float": true, "float4": true, "float8": true,
	"double": true, "double precision": true, "money": true,
}

// Classify maps a raw SQL type ("VARCHAR(255)", "BIGINT UNSIGNED", "numeric(10,2)")
// onto "number" or "string".
func Classify(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(t, " unsigned"), " zerofill"))
	if numericTypes[t] {
		return "number"
	}
	return "string"
}
