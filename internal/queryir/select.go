package queryir

import "slices"

// JoinKind enumerates supported join types.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
)

// Join attaches another table to a Select under an alias.
//
// Semantics:
//
//	<kind> JOIN <table> AS <alias> ON <on>
type Join struct {
	Alias string
	Table string
	Kind  JoinKind
	On    Predicate
}

// Direction is an ordering direction.
type Direction string

const (
	Asc            Direction = "asc"
	Desc           Direction = "desc"
	AscNullsFirst  Direction = "asc_nulls_first"
	AscNullsLast   Direction = "asc_nulls_last"
	DescNullsFirst Direction = "desc_nulls_first"
	DescNullsLast  Direction = "desc_nulls_last"
)

// ValidDirections lists every accepted Direction.
var ValidDirections = []Direction{Asc, Desc, AscNullsFirst, AscNullsLast, DescNullsFirst, DescNullsLast}

// ParseDirection converts s to a Direction.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(s)
	return d, slices.Contains(ValidDirections, d)
}

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Field     string
	Direction Direction
}

// Window is a LIMIT/OFFSET pair.
type Window struct {
	Limit  int
	Offset int
}

// Select represents a table query with filtering, joins, ordering and
// pagination.
//
// Semantics:
//
//	SELECT * FROM <from> <joins> WHERE <filter> ORDER BY <order> LIMIT/OFFSET <window>
//
// Select is a value type. Capability methods copy before modifying, so a
// Select handed to one build can never observe another build's changes.
type Select struct {
	From   string      // Table/source name (e.g., "posts")
	Filter Predicate   // WHERE conditions (nil = no filter)
	Joins  []Join      // Attached joins, at most one per alias
	Order  []OrderTerm // Ordering terms in application order
	Window *Window     // nil = no limit/offset
}

// From creates an unfiltered Select over table.
func From(table string) Select {
	return Select{From: table}
}

// Where returns a copy of q whose filter is q's filter ANDed with p.
func (q Select) Where(p Predicate) Select {
	out := q.clone()
	switch existing := q.Filter.(type) {
	case nil:
		out.Filter = AndOf(p)
	case And:
		preds := append(slices.Clone(existing.Predicates), p)
		out.Filter = AndOf(preds...)
	default:
		out.Filter = AndOf(existing, p)
	}
	return out
}

// WithJoin returns a copy of q with j attached. It does not deduplicate;
// callers that may request the same alias twice check HasJoin first.
func (q Select) WithJoin(j Join) Select {
	out := q.clone()
	out.Joins = append(out.Joins, j)
	return out
}

// HasJoin reports whether a join tagged with alias is attached.
func (q Select) HasJoin(alias string) bool {
	for _, j := range q.Joins {
		if j.Alias == alias {
			return true
		}
	}
	return false
}

// JoinByAlias returns the join attached under alias.
func (q Select) JoinByAlias(alias string) (Join, bool) {
	for _, j := range q.Joins {
		if j.Alias == alias {
			return j, true
		}
	}
	return Join{}, false
}

// OrderBy returns a copy of q with an ordering term appended. Terms stack:
// later calls never replace earlier ones.
func (q Select) OrderBy(field string, dir Direction) Select {
	out := q.clone()
	out.Order = append(out.Order, OrderTerm{Field: field, Direction: dir})
	return out
}

// Paginate returns a copy of q with limit and offset set.
func (q Select) Paginate(limit, offset int) Select {
	out := q.clone()
	out.Window = &Window{Limit: limit, Offset: offset}
	return out
}

func (q Select) clone() Select {
	out := q
	out.Joins = slices.Clone(q.Joins)
	out.Order = slices.Clone(q.Order)
	if q.Window != nil {
		w := *q.Window
		out.Window = &w
	}
	return out
}
