package plugins

import (
	"fmt"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/queryir"
)

// DefaultPerPage is the page size used when neither the plugin options
// nor configuration set one.
const DefaultPerPage = 20

// PaginationOptions configures Pagination.
type PaginationOptions struct {
	// DefaultPerPage applies when the caller gives a page but no per_page.
	DefaultPerPage int `mapstructure:"default_per_page"`

	// MaxPerPage caps per_page; 0 means uncapped.
	MaxPerPage int `mapstructure:"max_per_page"`
}

// Pagination applies limit/offset when the caller asks for a page.
type Pagination struct {
	opts PaginationOptions
}

// NewPagination creates a pagination plugin.
func NewPagination(opts PaginationOptions) (*Pagination, error) {
	if opts.DefaultPerPage == 0 {
		opts.DefaultPerPage = DefaultPerPage
	}
	if opts.DefaultPerPage < 0 {
		return nil, fmt.Errorf("default_per_page must be positive, got %d", opts.DefaultPerPage)
	}
	if opts.MaxPerPage < 0 {
		return nil, fmt.Errorf("max_per_page must not be negative, got %d", opts.MaxPerPage)
	}
	if opts.MaxPerPage > 0 && opts.DefaultPerPage > opts.MaxPerPage {
		return nil, fmt.Errorf("default_per_page %d exceeds max_per_page %d", opts.DefaultPerPage, opts.MaxPerPage)
	}
	return &Pagination{opts: opts}, nil
}

func (p *Pagination) Name() string { return NamePagination }

// Transform sets limit = per_page and offset = (page-1) * per_page. Without
// a page it leaves q untouched, whatever per_page says.
func (p *Pagination) Transform(q queryir.Select, ctx builder.BuildContext) (queryir.Select, error) {
	if !ctx.Options.HasPage() {
		return q, nil
	}
	perPage := ctx.Options.PerPage
	if perPage == 0 {
		perPage = p.opts.DefaultPerPage
	}
	if p.opts.MaxPerPage > 0 && perPage > p.opts.MaxPerPage {
		perPage = p.opts.MaxPerPage
	}
	return q.Paginate(perPage, (ctx.Options.Page-1)*perPage), nil
}
