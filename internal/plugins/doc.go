// Package plugins provides the built-in builder plugins and a factory that
// constructs them from {name, options} pairs as found in definition files.
//
//   - auto_filter: expands a field list into every operator the field's
//     type supports
//   - auto_sort: expands a field list into plain sorters
//   - pagination: applies limit/offset from page/per_page
//   - soft_delete: hides rows whose deleted-at column is set
package plugins
