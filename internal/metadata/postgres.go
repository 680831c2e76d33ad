package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLookup reads column types from information_schema.columns.
type PostgresLookup struct {
	*tableCache
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
}

func NewPostgresLookup(ctx context.Context, url string) (*PostgresLookup, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec
	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnIdleTime = 3 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &PostgresLookup{
		pool: pool,
		qb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	p.tableCache = newTableCache(p.fetchColumns)
	return p, nil
}

func (p *PostgresLookup) columnsQuery(table string) (string, []interface{}, error) {
	return p.qb.
		Select("column_name", "data_type").
		From("information_schema.columns").
		Where("table_schema = ANY(current_schemas(false))").
		Where(squirrel.Expr("lower(table_name) = lower(?)", table)).
		OrderBy("ordinal_position").
		ToSql()
}

func (p *PostgresLookup) fetchColumns(ctx context.Context, table string) (map[string]string, error) {
	query, args, err := p.columnsQuery(table)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}

func (p *PostgresLookup) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
