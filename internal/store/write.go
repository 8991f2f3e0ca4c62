package store

import (
	"context"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/querysql"
)

// Insert writes rows into table. Values are encoded with c so they
// compare equal to the parameters c binds in queries. Columns missing
// from a row are written as NULL.
func (s *Store) Insert(ctx context.Context, c *querysql.Compiler, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	columns := columnsOf(rows)
	ib := sq.Insert(table).Columns(columns...)
	for i, row := range rows {
		values := make([]any, len(columns))
		for j, col := range columns {
			v, err := ir.FromGo(row[col])
			if err != nil {
				return fmt.Errorf("insert %s row %d column %q: %w", table, i, col, err)
			}
			if values[j], err = c.Bind(v); err != nil {
				return fmt.Errorf("insert %s row %d column %q: %w", table, i, col, err)
			}
		}
		ib = ib.Values(values...)
	}

	query, args, err := ib.ToSql()
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// columnsOf returns the union of the rows' keys, sorted.
func columnsOf(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}
