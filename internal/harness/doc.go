// Package harness runs YAML query scenarios against builder definitions.
//
// A scenario names one definition file (CUE or YAML), optional SQLite
// fixtures, and a list of build steps. Each step feeds a filter and runtime
// options to the builder and checks the compiled SQL, its parameters, the
// rows it selects, or the error it raises.
//
// # Scenario Format
//
//	name: posts_filters
//	description: "Published posts by author"
//	definition: ../definitions/posts.yaml
//	builder: posts
//	dialect: sqlite
//	schema: |
//	  CREATE TABLE posts (id INTEGER PRIMARY KEY, status TEXT);
//	rows:
//	  posts:
//	    - { id: 1, status: published }
//	steps:
//	  - name: published
//	    filter: { status: published }
//	    options: { page: 1, per_page: 10 }
//	    expect:
//	      sql: SELECT * FROM posts WHERE status = ? LIMIT 10 OFFSET 0
//	      params: [published]
//	      ids: [1]
//	      count: 1
//	  - name: unknown key
//	    filter: { nope: 1 }
//	    expect:
//	      error: UNRESOLVED_FILTER
//
// Relative definition paths resolve against the scenario file's directory.
// Rows are only read back when the scenario declares a schema.
//
// # Determinism
//
// Every run opens its own in-memory database, so scenarios share no state
// and may run concurrently (see RunAll). Compiled SQL and parameters are
// deterministic for a given definition and input, which is what golden
// snapshots compare.
package harness
