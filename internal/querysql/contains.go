package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

func (r *renderer) contains(c queryir.Contains) (sq.Sqlizer, error) {
	if c.Doc == nil {
		return nil, fmt.Errorf("contains %q: nil document", c.Field)
	}
	field := r.field(c.Field)

	if r.c.dialect == DialectPostgres {
		doc, err := ir.MarshalCanonical(c.Doc)
		if err != nil {
			return nil, fmt.Errorf("contains %q: %w", c.Field, err)
		}
		return sq.Expr(field+" @> ?::jsonb", string(doc)), nil
	}

	s, err := r.sqliteContains(field, "$", c.Doc)
	if err != nil {
		return nil, fmt.Errorf("contains %q: %w", c.Field, err)
	}
	return s, nil
}

// sqliteContains expands a containment document into json_extract
// comparisons and EXISTS(json_each) probes. expr is a SQL expression
// holding JSON text; path is a JSON path into it.
func (r *renderer) sqliteContains(expr, path string, doc ir.IRValue) (sq.Sqlizer, error) {
	switch d := doc.(type) {
	case ir.IRObject:
		if len(d) == 0 {
			return sq.Expr(fmt.Sprintf("json_type(%s, '%s') = 'object'", expr, path)), nil
		}
		parts := make(sq.And, 0, len(d))
		for _, k := range d.SortedKeys() {
			if strings.ContainsAny(k, `"'`) {
				return nil, fmt.Errorf("document key %q contains a quote", k)
			}
			part, err := r.sqliteContains(expr, path+`."`+k+`"`, d[k])
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return parts, nil

	case ir.IRArray:
		if len(d) == 0 {
			return sq.Expr(fmt.Sprintf("json_type(%s, '%s') = 'array'", expr, path)), nil
		}
		parts := make(sq.And, 0, len(d))
		for _, elem := range d {
			r.depth++
			alias := fmt.Sprintf("je%d", r.depth)

			var inner sq.Sqlizer
			var err error
			switch {
			case ir.IsNull(elem):
				inner = sq.Expr(alias + ".type = 'null'")
			case ir.IsScalar(elem):
				// json_each exposes scalar elements as SQL values, not JSON text.
				param, perr := r.param(elem)
				if perr != nil {
					return nil, perr
				}
				inner = sq.Expr(alias+".value = ?", param)
			default:
				inner, err = r.sqliteContains(alias+".value", "$", elem)
				if err != nil {
					return nil, err
				}
			}

			innerSQL, args, err := inner.ToSql()
			if err != nil {
				return nil, err
			}
			parts = append(parts, sq.Expr(fmt.Sprintf(
				"EXISTS (SELECT 1 FROM json_each(%s, '%s') AS %s WHERE %s)",
				expr, path, alias, innerSQL), args...))
		}
		return parts, nil

	case nil, ir.IRNull:
		return sq.Expr(fmt.Sprintf("json_type(%s, '%s') = 'null'", expr, path)), nil

	default:
		param, err := r.param(d)
		if err != nil {
			return nil, err
		}
		return sq.Expr(fmt.Sprintf("json_extract(%s, '%s') = ?", expr, path), param), nil
	}
}
