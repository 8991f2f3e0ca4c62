package builder

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// Options are the runtime options of one build call.
type Options struct {
	// Page is the 1-based page number; 0 means no page was requested.
	Page int

	// PerPage is the page size; 0 means the plugin default.
	PerPage int

	// Order holds ordering instructions in any shape NormalizeOrdering
	// accepts.
	Order []any

	// Extra carries plugin-specific options (e.g. with_deleted).
	Extra map[string]ir.IRValue
}

// Reserved option names.
const (
	OptionPage    = "page"
	OptionPerPage = "per_page"
	OptionOrder   = "order"
)

// HasPage reports whether a page was requested.
func (o Options) HasPage() bool { return o.Page > 0 }

// Bool returns the boolean extra option key; absent or non-boolean values
// are false.
func (o Options) Bool(key string) bool {
	b, ok := o.Extra[key].(ir.IRBool)
	return ok && bool(b)
}

// Int returns the integer extra option key.
func (o Options) Int(key string) (int, bool) {
	i, ok := o.Extra[key].(ir.IRInt)
	return int(i), ok
}

func (o Options) validate() error {
	if o.Page < 0 {
		return buildErr(ErrCodeInvalidOption, OptionPage, "must be a positive integer, got %d", o.Page)
	}
	if o.PerPage < 0 {
		return buildErr(ErrCodeInvalidOption, OptionPerPage, "must be a positive integer, got %d", o.PerPage)
	}
	return nil
}

// ParseOptions converts a decoded option map (JSON, YAML, or Go literal)
// into Options. page and per_page must be positive integers; integral
// floats and numeric strings are accepted. order may be a list of
// instructions or a single instruction. Every other key lands in Extra.
func ParseOptions(m map[string]any) (Options, error) {
	var opts Options

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		raw := m[k]
		switch k {
		case OptionPage:
			n, err := positiveInt(k, raw)
			if err != nil {
				return Options{}, err
			}
			opts.Page = n
		case OptionPerPage:
			n, err := positiveInt(k, raw)
			if err != nil {
				return Options{}, err
			}
			opts.PerPage = n
		case OptionOrder:
			switch v := raw.(type) {
			case nil:
			case []any:
				opts.Order = v
			case []Ordering:
				for _, o := range v {
					opts.Order = append(opts.Order, o)
				}
			default:
				opts.Order = orderList(v)
			}
		default:
			v, err := ir.FromGo(raw)
			if err != nil {
				return Options{}, &BuildError{Code: ErrCodeInvalidOption, Key: k, Message: "option is not data", Err: err}
			}
			if opts.Extra == nil {
				opts.Extra = make(map[string]ir.IRValue)
			}
			opts.Extra[k] = v
		}
	}
	return opts, nil
}

// orderList spreads a typed slice of instructions into a list. A slice
// holding only strings is a single [direction, field] pair.
func orderList(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}

	out := make([]any, 0, rv.Len())
	pair := rv.Len() > 0
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if _, ok := elem.(string); !ok {
			pair = false
		}
		out = append(out, elem)
	}
	if pair {
		return []any{v}
	}
	return out
}

func positiveInt(key string, raw any) (int, error) {
	if s, ok := raw.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			return 0, buildErr(ErrCodeInvalidOption, key, "must be a positive integer, got %q", s)
		}
		return n, nil
	}

	v, err := ir.FromGo(raw)
	if err != nil {
		return 0, &BuildError{Code: ErrCodeInvalidOption, Key: key, Message: "must be a positive integer", Err: err}
	}
	n, ok := v.(ir.IRInt)
	if !ok || n <= 0 {
		return 0, buildErr(ErrCodeInvalidOption, key, "must be a positive integer, got %s", describeValue(v))
	}
	if int64(n) > int64(^uint32(0)>>1) {
		return 0, buildErr(ErrCodeInvalidOption, key, "%d is too large", n)
	}
	return int(n), nil
}

func describeValue(v ir.IRValue) string {
	b, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	return string(b)
}
