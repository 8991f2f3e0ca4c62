package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/querysql"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Select runs query and returns every row. Text comes back as string and
// times as UTC time.Time.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, normalize(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Run compiles q with c and returns its rows.
func (s *Store) Run(ctx context.Context, c *querysql.Compiler, q queryir.Select) ([]Row, error) {
	sql, args, err := c.Compile(q)
	if err != nil {
		return nil, err
	}
	return s.Select(ctx, sql, args...)
}

// Count returns how many rows q matches before ordering and paging.
func (s *Store) Count(ctx context.Context, c *querysql.Compiler, q queryir.Select) (int64, error) {
	q.Order = nil
	q.Window = nil
	sql, args, err := c.Compile(q)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM ("+sql+") AS counted", args...); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func normalize(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case []byte:
			row[k] = string(val)
		case time.Time:
			row[k] = val.UTC()
		default:
			row[k] = val
		}
	}
	return row
}
