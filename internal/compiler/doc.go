// Package compiler turns builder definition files into builder.Definition
// values.
//
// Definitions are data only. They are written in CUE or YAML under a
// top-level "builder" key:
//
//	builder: posts: {
//		table: "posts"
//		fields: {id: "uuid", title: "text", views: "integer"}
//		filters: {
//			title: {}
//			views__gt: {}
//			author_name: {
//				join: {alias: "author", table: "users", on: ["author_id", "id"]}
//				column: "name"
//			}
//		}
//		sorts: {title: {}}
//		plugins: [{name: "pagination", options: {default_per_page: 25}}]
//	}
//
// Every filter and sort key must be written as a literal label. The
// compiler inspects the source to tell literal labels from interpolated,
// parenthesized, generated or (in YAML) aliased and merged keys, and marks
// the latter as computed so registration rejects them.
package compiler
