package metadata

import (
	"context"
	"strings"
	"sync"
)

// columnFetcher loads every column of one table as name → SQL type.
type columnFetcher func(ctx context.Context, table string) (map[string]string, error)

// tableCache fetches the columns of a table once and serves later lookups
// from memory. Safe for concurrent use by batch workers.
type tableCache struct {
	mu     sync.Mutex
	tables map[string]map[string]string
	fetch  columnFetcher
}

func newTableCache(fetch columnFetcher) *tableCache {
	return &tableCache{
		tables: make(map[string]map[string]string),
		fetch:  fetch,
	}
}

func (c *tableCache) ColumnType(ctx context.Context, table, column string) (string, bool, error) {
	key := strings.ToLower(table)

	c.mu.Lock()
	cols, ok := c.tables[key]
	c.mu.Unlock()

	if !ok {
		fetched, err := c.fetch(ctx, table)
		if err != nil {
			return "", false, err
		}
		cols = make(map[string]string, len(fetched))
		for name, typ := range fetched {
			cols[strings.ToLower(name)] = typ
		}

		c.mu.Lock()
		c.tables[key] = cols
		c.mu.Unlock()
	}

	typ, ok := cols[strings.ToLower(column)]
	return typ, ok, nil
}
