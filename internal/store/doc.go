// Package store executes compiled queries against SQLite.
//
// It is the integration surface for the CLI and the scenario harness: a
// builder produces a queryir.Select, querysql renders it, and the store
// runs the SQL and returns rows as column maps.
//
// # Value encoding
//
// Values are written and bound in the same form the SQLite compiler
// uses, so fixtures and filters agree:
//
//   - times are RFC 3339 text in UTC
//   - maps and arrays are canonical JSON text
//   - booleans are integers 0/1
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
