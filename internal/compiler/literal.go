package compiler

import (
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/token"
)

// sectionRef names the filters or sorts section of one builder.
type sectionRef struct {
	builder string
	section string
}

// literalIndex records, per section, which keys the source spells out as
// literal labels and where non-literal labels appear.
type literalIndex struct {
	keys     map[sectionRef]map[string]bool
	computed map[sectionRef][]Position
}

func indexLiterals(files []*ast.File) literalIndex {
	idx := literalIndex{
		keys:     make(map[sectionRef]map[string]bool),
		computed: make(map[sectionRef][]Position),
	}
	for _, f := range files {
		idx.walk(f.Decls, nil)
	}
	return idx
}

// literal reports whether key was written as a literal label. A key that
// appears after evaluation but not as a literal came from an expression.
func (idx literalIndex) literal(ref sectionRef, key string) bool {
	return idx.keys[ref][key]
}

// origin picks the non-literal label that most likely produced a computed
// key at pos: one on the same line, else the first one in the section.
func (idx literalIndex) origin(ref sectionRef, pos Position) Position {
	labels := idx.computed[ref]
	for _, p := range labels {
		if p.File == pos.File && p.Line == pos.Line {
			return p
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return pos
}

func (idx literalIndex) walk(decls []ast.Decl, path []string) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.Field:
			idx.field(d, path)
		case *ast.EmbedDecl:
			idx.expr(d.Expr, path)
		case *ast.Comprehension:
			if ref, ok := sectionOf(path); ok {
				idx.computed[ref] = append(idx.computed[ref], cuePosition(d.Pos()))
			}
		}
	}
}

func (idx literalIndex) field(f *ast.Field, path []string) {
	// Pattern constraints produce no keys of their own.
	if _, ok := f.Label.(*ast.ListLit); ok {
		return
	}

	name, _, err := ast.LabelName(f.Label)

	if ref, ok := sectionOf(path); ok {
		if err != nil {
			idx.computed[ref] = append(idx.computed[ref], cuePosition(f.Label.Pos()))
			return
		}
		if idx.keys[ref] == nil {
			idx.keys[ref] = make(map[string]bool)
		}
		idx.keys[ref][name] = true
		return
	}

	if err != nil {
		return
	}
	idx.expr(f.Value, append(path[:len(path):len(path)], name))
}

func (idx literalIndex) expr(e ast.Expr, path []string) {
	switch e := e.(type) {
	case *ast.StructLit:
		idx.walk(e.Elts, path)
	case *ast.BinaryExpr:
		if e.Op == token.AND {
			idx.expr(e.X, path)
			idx.expr(e.Y, path)
		}
	case *ast.ParenExpr:
		idx.expr(e.X, path)
	}
}

// sectionOf reports whether path is builder.<name>.filters or
// builder.<name>.sorts.
func sectionOf(path []string) (sectionRef, bool) {
	if len(path) != 3 || path[0] != RootKey {
		return sectionRef{}, false
	}
	if path[2] != sectionFilters && path[2] != sectionSorts {
		return sectionRef{}, false
	}
	return sectionRef{builder: path[1], section: path[2]}, true
}
