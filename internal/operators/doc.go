// Package operators is the static operator registry: it maps a semantic
// field type to the operator suffixes the type supports and to the
// predicate constructor for each suffix.
//
// Filter keys follow a fixed grammar: a bare field name means equality,
// and field + "__" + suffix selects an operator (price__gt, title__contains).
// The registry is consulted only while a builder is being defined; the
// constructors it hands out are stored in the frozen builder and called at
// build time without any further type dispatch.
package operators
