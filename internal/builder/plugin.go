package builder

import (
	"log/slog"
	"sort"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Plugin is one configured pipeline stage. A plugin opts into the
// registration-time and build-time extension points by also implementing
// Contributor and/or Transformer.
type Plugin interface {
	// Name identifies the plugin in metadata and errors.
	Name() string
}

// Contributor adds handlers while a builder is being defined.
type Contributor interface {
	Contribute(s Schema) (Contribution, error)
}

// Transformer rewrites the query once per build call, after filtering and
// ordering. Transformers run in registration order and must only extend
// or narrow the query they are given.
type Transformer interface {
	Transform(q queryir.Select, ctx BuildContext) (queryir.Select, error)
}

// Contribution holds the handlers a plugin adds.
type Contribution struct {
	Filters []FilterDecl
	Sorts   []SortDecl
}

// BuildContext is what a Transformer sees of the current build call.
type BuildContext struct {
	// Builder is the builder's name.
	Builder string

	// Table is the builder's source table.
	Table string

	// Options are the caller's runtime options.
	Options Options
}

// Schema is the registration-time view of a definition handed to
// contributing plugins.
type Schema struct {
	definition string
	table      string
	fields     map[string]ir.FieldDescriptor
	policy     UnsupportedPolicy
	plugin     string
}

// Table returns the definition's source table.
func (s Schema) Table() string { return s.table }

// Field returns the descriptor for a declared field.
func (s Schema) Field(name string) (ir.FieldDescriptor, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns every declared field sorted by name.
func (s Schema) Fields() []ir.FieldDescriptor {
	out := make([]ir.FieldDescriptor, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unsupported applies the unsupported-type policy to a field that
// automatic generation has to leave out. It returns an error only under
// PolicyReject.
func (s Schema) Unsupported(f ir.FieldDescriptor, capability string) error {
	switch s.policy {
	case PolicyReject:
		return &RegistrationError{
			Code:       ErrCodeUnsupportedType,
			Definition: s.definition,
			Key:        f.Name,
			Origin:     "plugin " + s.plugin,
			Message:    "field type " + string(f.Type) + " (" + f.Declared + ") has no " + capability + " operators",
		}
	case PolicyWarn:
		slog.Warn("field skipped",
			"builder", s.definition,
			"plugin", s.plugin,
			"field", f.Name,
			"type", f.Declared,
			"capability", capability)
	default:
		slog.Debug("field skipped",
			"builder", s.definition,
			"plugin", s.plugin,
			"field", f.Name)
	}
	return nil
}
