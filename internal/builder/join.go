package builder

import (
	"github.com/roach88/sieve/internal/queryir"
)

// ApplyJoin attaches j to q unless q already carries a join with the same
// alias, in which case q is returned unchanged even when the join
// descriptions differ: the first join registered under an alias wins.
//
// Handlers call ApplyJoin instead of WithJoin so several filters and
// sorters can request the same resource in one build.
func ApplyJoin(q queryir.Select, j queryir.Join) (queryir.Select, error) {
	if j.Alias == "" {
		return q, buildErr(ErrCodeMissingAlias, "", "join on table %q has no alias", j.Table)
	}
	if q.HasJoin(j.Alias) {
		return q, nil
	}
	return q.WithJoin(j), nil
}
