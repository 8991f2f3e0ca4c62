// Package queryir provides the intermediate query representation that the
// filter/sort builder produces and backend compilers consume.
//
// QueryIR is the abstraction boundary between the declarative filter
// vocabulary and the SQL backends:
//
//	[filter spec] -> [builder] -> [Query IR] -> [SQL compiler (sqlite, postgres)]
//
// CAPABILITY SURFACE:
//
// A Select is an immutable value. Every capability returns a new Select and
// leaves its receiver untouched, so a base query can be shared freely
// between concurrent builds:
//
//	q.Where(p)              add a predicate (ANDed with the current filter)
//	q.WithJoin(j)           attach a join
//	q.HasJoin(alias)        report whether a join with alias is attached
//	q.OrderBy(field, dir)   append an ordering term
//	q.Paginate(limit, off)  set limit and offset
//
// SEALED PREDICATES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, which keeps backend compilers'
// type switches exhaustive:
//
//	switch p := pred.(type) {
//	case Compare:
//	case In:
//	case And, Or:
//	...
//	}
//
// BOOLEAN IDENTITIES:
//
// AndOf and OrOf build conjunctions and disjunctions. Both return True for an
// empty argument list, so an empty composition contributes nothing to the
// surrounding filter.
package queryir
