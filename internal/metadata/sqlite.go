package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLookup reads column types with PRAGMA table_info.
type SQLiteLookup struct {
	*tableCache
	db *sql.DB
}

func NewSQLiteLookup(ctx context.Context, url string) (*SQLiteLookup, error) {
	dbPath := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite://"), "file:")
	if dbPath == "" {
		return nil, fmt.Errorf("empty SQLite database path")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteLookup{db: db}
	s.tableCache = newTableCache(s.fetchColumns)
	return s, nil
}

func (s *SQLiteLookup) fetchColumns(ctx context.Context, table string) (map[string]string, error) {
	// PRAGMA takes no bind parameters. SQLite quotes identifiers like PostgreSQL
	// does, double quotes with embedded quotes doubled, so pq.QuoteIdentifier fits.
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+pq.QuoteIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var (
			cid          int
			name         string
			dataType     string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}

func (s *SQLiteLookup) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
