package builder

import (
	"github.com/roach88/sieve/internal/ir"
)

// Metadata describes a frozen builder: every key a caller may filter or
// sort on, where each came from, and the plugin pipeline.
type Metadata struct {
	Name    string               `json:"name"`
	Table   string               `json:"table"`
	Fields  []ir.FieldDescriptor `json:"fields"`
	Filters []FilterMeta         `json:"filters"`
	Sorters []SortMeta           `json:"sorters"`
	Plugins []string             `json:"plugins"`
}

// FilterMeta describes one filter key.
type FilterMeta struct {
	Key      string `json:"key"`
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator"`
	Join     string `json:"join,omitempty"`

	// Source is "definition" or "plugin <name>".
	Source string `json:"source"`
}

// SortMeta describes one sort key.
type SortMeta struct {
	Key    string `json:"key"`
	Field  string `json:"field,omitempty"`
	Join   string `json:"join,omitempty"`
	Source string `json:"source"`
}

// Metadata returns the builder's metadata with filters and sorters sorted
// by key. The returned value is a copy.
func (b *Builder) Metadata() Metadata {
	m := b.meta
	m.Fields = append([]ir.FieldDescriptor(nil), m.Fields...)
	m.Filters = append([]FilterMeta(nil), m.Filters...)
	m.Sorters = append([]SortMeta(nil), m.Sorters...)
	m.Plugins = append([]string(nil), m.Plugins...)
	return m
}

func (b *Builder) buildMetadata() Metadata {
	m := Metadata{
		Name:    b.name,
		Table:   b.table,
		Fields:  b.fields,
		Filters: make([]FilterMeta, 0, len(b.filters)),
		Sorters: make([]SortMeta, 0, len(b.sorts)),
		Plugins: make([]string, 0, len(b.plugins)),
	}
	for _, key := range b.FilterKeys() {
		h := b.filters[key]
		m.Filters = append(m.Filters, FilterMeta{
			Key:      h.key,
			Field:    h.field,
			Operator: h.operator,
			Join:     h.join,
			Source:   h.source,
		})
	}
	for _, key := range b.SortKeys() {
		h := b.sorts[key]
		m.Sorters = append(m.Sorters, SortMeta{
			Key:    h.key,
			Field:  h.field,
			Join:   h.join,
			Source: h.source,
		})
	}
	for _, p := range b.plugins {
		m.Plugins = append(m.Plugins, p.Name())
	}
	return m
}
