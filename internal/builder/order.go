package builder

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Ordering is the canonical form of one ordering instruction.
type Ordering struct {
	// Field is the sort key.
	Field string

	Direction queryir.Direction

	// Extra is passed through to the sort handler; nil when absent.
	Extra ir.IRValue
}

// NormalizeOrdering converts one ordering instruction to canonical form.
// The accepted shapes are
//
//	{"asc": "title"}                               direction -> field
//	{"asc": ["title", extra]}                      direction -> (field, extra)
//	{"field": "title", "direction": "asc"}         mapping form
//	{"field": "title", "direction": "asc", "extra": x}
//
// plus the pair forms ["asc", "title"] and ["asc", ["title", extra]], and
// an Ordering value, which is returned as is.
func NormalizeOrdering(instr any) (Ordering, error) {
	switch o := instr.(type) {
	case Ordering:
		if _, ok := queryir.ParseDirection(string(o.Direction)); !ok || o.Field == "" {
			return Ordering{}, malformedOrder(instr)
		}
		return o, nil
	case *Ordering:
		if o == nil {
			return Ordering{}, malformedOrder(instr)
		}
		return NormalizeOrdering(*o)
	}

	v, err := ir.FromGo(instr)
	if err != nil {
		return Ordering{}, malformedOrder(instr)
	}

	switch val := v.(type) {
	case ir.IRObject:
		if _, ok := val["field"]; ok {
			return mappingOrdering(val, instr)
		}
		if len(val) == 1 {
			dir := val.SortedKeys()[0]
			return directionOrdering(dir, val[dir], instr)
		}
	case ir.IRArray:
		if len(val) == 2 {
			if dir, ok := val[0].(ir.IRString); ok {
				return directionOrdering(string(dir), val[1], instr)
			}
		}
	}
	return Ordering{}, malformedOrder(instr)
}

func mappingOrdering(m ir.IRObject, instr any) (Ordering, error) {
	for k := range m {
		if k != "field" && k != "direction" && k != "extra" {
			return Ordering{}, malformedOrder(instr)
		}
	}
	field, ok := m["field"].(ir.IRString)
	if !ok || field == "" {
		return Ordering{}, malformedOrder(instr)
	}
	dirVal, ok := m["direction"].(ir.IRString)
	if !ok {
		return Ordering{}, malformedOrder(instr)
	}
	dir, ok := queryir.ParseDirection(string(dirVal))
	if !ok {
		return Ordering{}, malformedOrder(instr)
	}
	o := Ordering{Field: string(field), Direction: dir}
	if extra, ok := m["extra"]; ok && !ir.IsNull(extra) {
		o.Extra = extra
	}
	return o, nil
}

func directionOrdering(dirName string, target ir.IRValue, instr any) (Ordering, error) {
	dir, ok := queryir.ParseDirection(dirName)
	if !ok {
		return Ordering{}, malformedOrder(instr)
	}
	switch t := target.(type) {
	case ir.IRString:
		if t == "" {
			break
		}
		return Ordering{Field: string(t), Direction: dir}, nil
	case ir.IRArray:
		if len(t) != 2 {
			break
		}
		field, ok := t[0].(ir.IRString)
		if !ok || field == "" {
			break
		}
		o := Ordering{Field: string(field), Direction: dir}
		if !ir.IsNull(t[1]) {
			o.Extra = t[1]
		}
		return o, nil
	}
	return Ordering{}, malformedOrder(instr)
}

func malformedOrder(instr any) error {
	return buildErr(ErrCodeMalformedOrder, "", "unrecognized ordering instruction %v", instr)
}

// order applies each instruction in sequence; later instructions stack
// after earlier ones.
func (b *Builder) order(q queryir.Select, instrs []any) (queryir.Select, error) {
	for _, instr := range instrs {
		o, err := NormalizeOrdering(instr)
		if err != nil {
			return q, err
		}
		h, ok := b.sorts[o.Field]
		if !ok {
			return q, buildErr(ErrCodeUnresolvedSort, o.Field, "no sorter registered on builder %q", b.name)
		}
		q, err = h.fn(q, o.Direction, o.Extra)
		if err != nil {
			return q, fmt.Errorf("sort %q: %w", o.Field, err)
		}
	}
	return q, nil
}
