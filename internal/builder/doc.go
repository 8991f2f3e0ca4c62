// Package builder turns declarative filter, ordering, and pagination
// input into a queryir.Select.
//
// A Definition is registered once with Define, which resolves every
// handler key (declared fields, user handlers, plugin contributions) into
// a frozen Builder. Each build call is then a pure function over that
// Builder and the caller's data:
//
//	filter spec -> compose (leaves, _and, _or) -> order -> plugin transforms
//
// Filter keys are either a field name (equality) or field__operator, and
// the reserved keys _and and _or nest further specs. Joined resources are
// attached through ApplyJoin, which keeps at most one join per alias.
//
// Errors at Define are *RegistrationError (codes E2xx); errors from a
// build call are *BuildError.
package builder
