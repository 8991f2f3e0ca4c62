package compiler

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlEntry is one key/value pair of a YAML mapping. Computed is set for
// keys written through an alias or pulled in by a merge key.
type yamlEntry struct {
	name     string
	value    *yaml.Node
	pos      Position
	computed bool
}

type yamlCompiler struct {
	file string
}

// CompileYAML compiles the builders defined in one YAML document.
func CompileYAML(filename string, data []byte) ([]Spec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error(), Pos: Position{File: filename}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	c := &yamlCompiler{file: filename}
	top, err := c.entries(doc.Content[0])
	if err != nil {
		return nil, err
	}

	var specs []Spec
	for _, e := range top {
		if e.name != RootKey {
			continue
		}
		builders, err := c.entries(e.value)
		if err != nil {
			return nil, err
		}
		for _, b := range builders {
			if b.computed {
				return nil, c.errorf(b.pos, RootKey, "builder name %q must be a literal key", b.name)
			}
			spec, err := c.builder(b)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

func (c *yamlCompiler) builder(b yamlEntry) (Spec, error) {
	spec := Spec{Name: b.name, Pos: b.pos}

	entries, err := c.entries(b.value)
	if err != nil {
		return spec, err
	}
	for _, e := range entries {
		switch e.name {
		case "table":
			spec.Table, err = c.scalar(e)
		case "unsupported_types":
			spec.Unsupported, err = c.scalar(e)
		case "fields":
			spec.Fields, err = c.fields(e.value)
		case sectionFilters:
			spec.Filters, err = c.section(e.value, sectionFilters)
		case sectionSorts:
			spec.Sorts, err = c.section(e.value, sectionSorts)
		case "plugins":
			spec.Plugins, err = c.plugins(e.value)
		default:
			err = c.errorf(e.pos, e.name, "field not allowed")
		}
		if err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func (c *yamlCompiler) fields(n *yaml.Node) ([]FieldSpec, error) {
	if isNull(n) {
		return nil, nil
	}
	entries, err := c.entries(n)
	if err != nil {
		return nil, err
	}
	out := make([]FieldSpec, 0, len(entries))
	for _, e := range entries {
		typ, err := c.scalar(e)
		if err != nil {
			return nil, err
		}
		out = append(out, FieldSpec{Name: e.name, Type: typ, Pos: e.pos})
	}
	return out, nil
}

func (c *yamlCompiler) section(n *yaml.Node, section string) ([]KeySpec, error) {
	if isNull(n) {
		return nil, nil
	}
	entries, err := c.entries(n)
	if err != nil {
		return nil, err
	}

	allowed := map[string]bool{"field": true, "join": true, "column": true}
	if section == sectionFilters {
		allowed["operator"] = true
		allowed["type"] = true
	}

	out := make([]KeySpec, 0, len(entries))
	for _, e := range entries {
		body, err := c.handler(e.value, allowed)
		if err != nil {
			return nil, err
		}
		out = append(out, body.keySpec(e.name, e.computed, e.pos))
	}
	return out, nil
}

func (c *yamlCompiler) handler(n *yaml.Node, allowed map[string]bool) (handlerBody, error) {
	var body handlerBody
	if isNull(n) {
		return body, nil
	}
	entries, err := c.entries(n)
	if err != nil {
		return body, err
	}
	for _, e := range entries {
		if !allowed[e.name] {
			return body, c.errorf(e.pos, e.name, "field not allowed")
		}
		switch e.name {
		case "field":
			body.Field, err = c.scalar(e)
		case "operator":
			body.Operator, err = c.scalar(e)
		case "column":
			body.Column, err = c.scalar(e)
		case "type":
			body.Type, err = c.scalar(e)
		case "join":
			body.Join, err = c.join(e.value)
		}
		if err != nil {
			return body, err
		}
	}
	return body, nil
}

func (c *yamlCompiler) join(n *yaml.Node) (*JoinSpec, error) {
	entries, err := c.entries(n)
	if err != nil {
		return nil, err
	}
	j := &JoinSpec{}
	for _, e := range entries {
		switch e.name {
		case "alias":
			j.Alias, err = c.scalar(e)
		case "table":
			j.Table, err = c.scalar(e)
		case "kind":
			j.Kind, err = c.scalar(e)
		case "on":
			err = resolve(e.value).Decode(&j.On)
			if err != nil {
				err = c.errorf(e.pos, "on", "must be a list of two column names: %v", err)
			}
		default:
			err = c.errorf(e.pos, e.name, "field not allowed")
		}
		if err != nil {
			return nil, err
		}
	}
	return j, nil
}

func (c *yamlCompiler) plugins(n *yaml.Node) ([]PluginSpec, error) {
	n = resolve(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, c.errorf(c.pos(n), "plugins", "must be a list")
	}

	out := make([]PluginSpec, 0, len(n.Content))
	for _, item := range n.Content {
		entries, err := c.entries(item)
		if err != nil {
			return nil, err
		}
		ps := PluginSpec{Pos: c.pos(item)}
		for _, e := range entries {
			switch e.name {
			case "name":
				ps.Name, err = c.scalar(e)
			case "options":
				if !isNull(e.value) {
					err = resolve(e.value).Decode(&ps.Options)
				}
			default:
				err = c.errorf(e.pos, e.name, "field not allowed")
			}
			if err != nil {
				return nil, err
			}
		}
		if ps.Name == "" {
			return nil, c.errorf(ps.Pos, "plugins.name", "plugin name is required")
		}
		out = append(out, ps)
	}
	return out, nil
}

// entries lists the pairs of a mapping node, expanding merge keys.
func (c *yamlCompiler) entries(n *yaml.Node) ([]yamlEntry, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return nil, c.errorf(c.pos(n), "yaml", "expected a mapping")
	}

	var out []yamlEntry
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]

		if isMerge(k) {
			merged, err := c.merged(v)
			if err != nil {
				return nil, err
			}
			for _, m := range merged {
				m.computed = true
				m.pos = c.pos(k)
				out = append(out, m)
			}
			continue
		}

		computed := k.Kind == yaml.AliasNode
		key := resolve(k)
		if key.Kind != yaml.ScalarNode {
			return nil, c.errorf(c.pos(k), "yaml", "mapping keys must be scalars")
		}
		out = append(out, yamlEntry{name: key.Value, value: v, pos: c.pos(k), computed: computed})
	}
	return out, nil
}

func (c *yamlCompiler) merged(v *yaml.Node) ([]yamlEntry, error) {
	v = resolve(v)
	if v.Kind != yaml.SequenceNode {
		return c.entries(v)
	}
	var out []yamlEntry
	for _, item := range v.Content {
		entries, err := c.entries(item)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func (c *yamlCompiler) scalar(e yamlEntry) (string, error) {
	n := resolve(e.value)
	if n.Kind != yaml.ScalarNode || isNull(n) {
		return "", c.errorf(e.pos, e.name, "must be a string")
	}
	return n.Value, nil
}

func (c *yamlCompiler) pos(n *yaml.Node) Position {
	return Position{File: c.file, Line: n.Line, Column: n.Column}
}

func (c *yamlCompiler) errorf(pos Position, field, format string, args ...any) error {
	return &CompileError{Field: field, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	n = resolve(n)
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// isMerge reports whether k is the unquoted "<<" merge key.
func isMerge(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" &&
		k.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0
}
