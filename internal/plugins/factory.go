package plugins

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/roach88/sieve/internal/builder"
)

// Built-in plugin names.
const (
	NameAutoFilter = "auto_filter"
	NameAutoSort   = "auto_sort"
	NamePagination = "pagination"
	NameSoftDelete = "soft_delete"
)

// Defaults are process-wide fallbacks applied to plugin options the
// definition leaves unset.
type Defaults struct {
	PerPage int
}

// Factory constructs a plugin from decoded options.
type Factory func(options map[string]any, defaults Defaults) (builder.Plugin, error)

var factories = map[string]Factory{
	NameAutoFilter: func(options map[string]any, _ Defaults) (builder.Plugin, error) {
		var opts AutoFilterOptions
		if err := decode(options, &opts); err != nil {
			return nil, err
		}
		return NewAutoFilter(opts), nil
	},
	NameAutoSort: func(options map[string]any, _ Defaults) (builder.Plugin, error) {
		var opts AutoSortOptions
		if err := decode(options, &opts); err != nil {
			return nil, err
		}
		return NewAutoSort(opts), nil
	},
	NamePagination: func(options map[string]any, d Defaults) (builder.Plugin, error) {
		opts := PaginationOptions{DefaultPerPage: d.PerPage}
		if err := decode(options, &opts); err != nil {
			return nil, err
		}
		return NewPagination(opts)
	},
	NameSoftDelete: func(options map[string]any, _ Defaults) (builder.Plugin, error) {
		var opts SoftDeleteOptions
		if err := decode(options, &opts); err != nil {
			return nil, err
		}
		return NewSoftDelete(opts), nil
	},
}

// Registry constructs plugins by name with a fixed set of defaults.
type Registry struct {
	defaults Defaults
}

// NewRegistry creates a Registry applying defaults.
func NewRegistry(defaults Defaults) *Registry {
	return &Registry{defaults: defaults}
}

// New constructs the named plugin from options.
func (r *Registry) New(name string, options map[string]any) (builder.Plugin, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown plugin %q (known: %v)", name, Names())
	}
	p, err := f(options, r.defaults)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", name, err)
	}
	return p, nil
}

// New constructs the named plugin with package defaults.
func New(name string, options map[string]any) (builder.Plugin, error) {
	return NewRegistry(Defaults{}).New(name, options)
}

// Names lists the built-in plugin names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decode maps an option map onto a typed options struct. Unknown keys are
// errors; numeric strings and floats convert to integers.
func decode(options map[string]any, out any) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := d.Decode(options); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	return nil
}
