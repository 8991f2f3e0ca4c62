package builder

import (
	"errors"
	"fmt"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/operators"
	"github.com/roach88/sieve/internal/queryir"
)

// compose turns one level of a filter spec into a single predicate,
// threading q through every leaf so joins attached by earlier leaves are
// visible to later ones.
//
// Leaf entries are resolved in key order, then _and, then _or; each
// becomes one sibling and the siblings are ANDed.
func (b *Builder) compose(q queryir.Select, spec ir.IRObject) (queryir.Select, queryir.Predicate, error) {
	preds := make([]queryir.Predicate, 0, len(spec))

	for _, key := range spec.SortedKeys() {
		if key == operators.KeyAnd || key == operators.KeyOr {
			continue
		}
		var (
			p   queryir.Predicate
			err error
		)
		q, p, err = b.resolve(q, key, spec[key])
		if err != nil {
			return q, nil, err
		}
		preds = append(preds, p)
	}

	for _, key := range []string{operators.KeyAnd, operators.KeyOr} {
		value, ok := spec[key]
		if !ok {
			continue
		}
		var (
			p   queryir.Predicate
			err error
		)
		q, p, err = b.composeGroup(q, key, value)
		if err != nil {
			return q, nil, err
		}
		preds = append(preds, p)
	}

	return q, queryir.AndOf(preds...), nil
}

// composeGroup resolves the value of an _and/_or entry.
//
// A list holds nested specs: each element is composed on its own and the
// results are combined with the group's operator. A mapping holds the
// group's operands directly, one per entry. An empty value is the
// identity true.
func (b *Builder) composeGroup(q queryir.Select, key string, value ir.IRValue) (queryir.Select, queryir.Predicate, error) {
	var children []queryir.Predicate

	switch v := value.(type) {
	case ir.IRArray:
		for i, elem := range v {
			spec, ok := elem.(ir.IRObject)
			if !ok {
				return q, nil, buildErr(ErrCodeInvalidValue, key,
					"element %d must be a filter mapping, got %T", i, elem)
			}
			var (
				p   queryir.Predicate
				err error
			)
			q, p, err = b.compose(q, spec)
			if err != nil {
				return q, nil, err
			}
			children = append(children, p)
		}

	case ir.IRObject:
		for _, k := range v.SortedKeys() {
			var (
				p   queryir.Predicate
				err error
			)
			q, p, err = b.compose(q, ir.IRObject{k: v[k]})
			if err != nil {
				return q, nil, err
			}
			children = append(children, p)
		}

	case ir.IRNull:

	default:
		return q, nil, buildErr(ErrCodeInvalidValue, key,
			"value must be a list of filter mappings, got %T", value)
	}

	if len(children) == 0 {
		return q, queryir.True, nil
	}
	if key == operators.KeyOr {
		return q, queryir.OrOf(children...), nil
	}
	return q, queryir.AndOf(children...), nil
}

// resolve dispatches one leaf entry to its handler.
func (b *Builder) resolve(q queryir.Select, key string, value ir.IRValue) (queryir.Select, queryir.Predicate, error) {
	h, ok := b.filters[key]
	if !ok {
		return q, nil, buildErr(ErrCodeUnresolvedFilter, key, "no filter registered on builder %q", b.name)
	}

	next, p, err := h.fn(q, value)
	if err != nil {
		return q, nil, classify(key, err)
	}
	if p == nil {
		p = queryir.True
	}
	return next, p, nil
}

// classify maps handler failures onto build error codes.
func classify(key string, err error) error {
	var be *BuildError
	switch {
	case errors.As(err, &be):
		if be.Key == "" {
			be.Key = key
		}
		return be
	case errors.Is(err, operators.ErrMalformedCondition):
		return &BuildError{Code: ErrCodeMalformedCondition, Key: key, Message: "bad structured condition", Err: err}
	case errors.Is(err, operators.ErrInvalidValue):
		return &BuildError{Code: ErrCodeInvalidValue, Key: key, Message: "bad filter value", Err: err}
	default:
		return fmt.Errorf("filter %q: %w", key, err)
	}
}
