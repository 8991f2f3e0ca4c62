// Package ir provides the value and field-type model shared by every
// other sieve package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the value model as the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - IRValue is sealed: filter values are always one of IRNull, IRString,
//     IRInt, IRFloat, IRBool, IRTime, IRArray, IRObject
//   - Caller input (decoded JSON, YAML, Go literals) enters through FromGo
//   - Containment documents are serialized with MarshalCanonical so the
//     same structure always produces the same bytes
//   - SemanticType is resolved once per field at registration time through
//     a TypeTable; nothing dispatches on column types at build time
package ir
