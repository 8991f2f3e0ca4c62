package compiler

import (
	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/plugins"
	"github.com/roach88/sieve/internal/queryir"
)

// Env carries process configuration into definition conversion.
type Env struct {
	// Types resolves declared storage types. The zero value uses the
	// default identifier types.
	Types ir.TypeTable

	// Plugins constructs plugins by name. Nil uses package defaults.
	Plugins *plugins.Registry

	// Policy applies to specs that do not set unsupported_types.
	Policy builder.UnsupportedPolicy
}

// Definition converts s into a builder.Definition, constructing its
// plugins in order.
func (s Spec) Definition(env Env) (builder.Definition, error) {
	def := builder.Definition{
		Name:        s.Name,
		Table:       s.Table,
		Types:       env.Types,
		Unsupported: env.Policy,
		Origin:      s.Pos.String(),
	}
	if s.Unsupported != "" {
		def.Unsupported = builder.UnsupportedPolicy(s.Unsupported)
	}

	for _, f := range s.Fields {
		def.Fields = append(def.Fields, builder.FieldDef{Name: f.Name, Type: f.Type})
	}

	for _, k := range s.Filters {
		def.Filters = append(def.Filters, builder.FilterDecl{
			Key:        k.Key,
			KeySource:  keySource(k),
			Origin:     k.Pos.String(),
			Field:      k.Field,
			Operator:   parseOp(k.Operator),
			Join:       joinSpec(k.Join),
			Column:     k.Column,
			ColumnType: k.Type,
		})
	}

	for _, k := range s.Sorts {
		def.Sorts = append(def.Sorts, builder.SortDecl{
			Key:       k.Key,
			KeySource: keySource(k),
			Origin:    k.Pos.String(),
			Field:     k.Field,
			Join:      joinSpec(k.Join),
			Column:    k.Column,
		})
	}

	registry := env.Plugins
	if registry == nil {
		registry = plugins.NewRegistry(plugins.Defaults{})
	}
	for _, ps := range s.Plugins {
		p, err := registry.New(ps.Name, ps.Options)
		if err != nil {
			return def, &builder.RegistrationError{
				Code:       builder.ErrCodeInvalidPlugin,
				Definition: s.Name,
				Key:        ps.Name,
				Origin:     ps.Pos.String(),
				Message:    err.Error(),
			}
		}
		def.Plugins = append(def.Plugins, p)
	}

	return def, nil
}

// Define converts s and registers it.
func Define(s Spec, env Env) (*builder.Builder, error) {
	def, err := s.Definition(env)
	if err != nil {
		return nil, err
	}
	return builder.Define(def)
}

func keySource(k KeySpec) builder.KeySource {
	if k.Computed {
		return builder.KeyComputed
	}
	return builder.KeyLiteral
}

func joinSpec(j *JoinSpec) *builder.JoinSpec {
	if j == nil {
		return nil
	}
	out := &builder.JoinSpec{
		Alias: j.Alias,
		Table: j.Table,
		Kind:  queryir.JoinKind(j.Kind),
	}
	if len(j.On) == 2 {
		out.Local, out.Foreign = j.On[0], j.On[1]
	}
	return out
}
