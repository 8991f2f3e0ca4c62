package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/parser"
)

// RootKey is the top-level label holding builder definitions.
const RootKey = "builder"

const (
	sectionFilters = "filters"
	sectionSorts   = "sorts"
)

// schemaSource closes every builder definition so misspelled fields are
// reported with their position.
const schemaSource = `
#Join: {
	alias: string
	table: string
	on: [string, string]
	kind: *"inner" | "left"
}

#Filter: {
	field?:    string
	operator?: string
	join?:     #Join
	column?:   string
	type?:     string
}

#Sort: {
	field?:  string
	join?:   #Join
	column?: string
}

#Plugin: {
	name:     string
	options?: {...}
}

#Builder: {
	table?: string
	fields: [string]: string
	unsupported_types?: "skip" | "warn" | "reject"
	filters: [string]: #Filter
	sorts: [string]:   #Sort
	plugins?: [...#Plugin]
}
`

// CompileCUESource parses and compiles one CUE file.
func CompileCUESource(filename string, src []byte) ([]Spec, error) {
	f, err := parser.ParseFile(filename, src)
	if err != nil {
		return nil, formatCUEError(err)
	}
	v := cuecontext.New().BuildFile(f)
	return CompileCUE(v, []*ast.File{f})
}

// CompileCUE compiles every builder under the root "builder" label of v.
// files are the sources v was built from; they are inspected to tell
// literal filter and sort keys from computed ones.
func CompileCUE(v cue.Value, files []*ast.File) ([]Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("compile: no source files given for %s", RootKey)
	}

	root := v.LookupPath(cue.ParsePath(RootKey))
	if !root.Exists() {
		return nil, nil
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile: builder schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Builder"))

	idx := indexLiterals(files)

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []Spec
	for iter.Next() {
		spec, err := compileBuilder(iter.Label(), iter.Value(), def, idx)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func compileBuilder(name string, v, schema cue.Value, idx literalIndex) (Spec, error) {
	spec := Spec{Name: name, Pos: cuePosition(v.Pos())}

	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return spec, formatCUEError(err)
	}

	if tv := u.LookupPath(cue.ParsePath("table")); tv.Exists() && tv.IsConcrete() {
		table, err := tv.String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Table = table
	}

	if pv := u.LookupPath(cue.ParsePath("unsupported_types")); pv.Exists() && pv.IsConcrete() {
		policy, err := pv.String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Unsupported = policy
	}

	fields, err := u.LookupPath(cue.ParsePath("fields")).Fields()
	if err != nil {
		return spec, formatCUEError(err)
	}
	for fields.Next() {
		typ, err := fields.Value().String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Fields = append(spec.Fields, FieldSpec{
			Name: fields.Label(),
			Type: typ,
			Pos:  cuePosition(v.LookupPath(cue.MakePath(cue.Str("fields"), cue.Str(fields.Label()))).Pos()),
		})
	}

	if spec.Filters, err = compileSection(name, sectionFilters, u, v, idx); err != nil {
		return spec, err
	}
	if spec.Sorts, err = compileSection(name, sectionSorts, u, v, idx); err != nil {
		return spec, err
	}

	if spec.Plugins, err = compilePlugins(u, v); err != nil {
		return spec, err
	}

	return spec, nil
}

// compileSection reads the filters or sorts of one builder. Decoding uses
// the schema-unified value u so defaults apply; positions come from the
// user's value v.
func compileSection(name, section string, u, v cue.Value, idx literalIndex) ([]KeySpec, error) {
	iter, err := u.LookupPath(cue.ParsePath(section)).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	ref := sectionRef{builder: name, section: section}
	var out []KeySpec
	for iter.Next() {
		key := iter.Label()

		var body handlerBody
		if err := iter.Value().Decode(&body); err != nil {
			return nil, formatCUEError(err)
		}

		pos := cuePosition(v.LookupPath(cue.MakePath(cue.Str(section), cue.Str(key))).Pos())
		computed := !idx.literal(ref, key)
		if computed {
			pos = idx.origin(ref, pos)
		}
		out = append(out, body.keySpec(key, computed, pos))
	}
	return out, nil
}

func compilePlugins(u, v cue.Value) ([]PluginSpec, error) {
	pv := u.LookupPath(cue.ParsePath("plugins"))
	if !pv.Exists() || !pv.IsConcrete() {
		return nil, nil
	}
	list, err := pv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []PluginSpec
	for i := 0; list.Next(); i++ {
		item := list.Value()
		name, err := item.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ps := PluginSpec{
			Name: name,
			Pos:  cuePosition(v.LookupPath(cue.MakePath(cue.Str("plugins"), cue.Index(i))).Pos()),
		}
		if ov := item.LookupPath(cue.ParsePath("options")); ov.Exists() {
			if err := ov.Decode(&ps.Options); err != nil {
				return nil, formatCUEError(err)
			}
		}
		out = append(out, ps)
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     cuePosition(positions[0]),
		}
	}
	return err
}
