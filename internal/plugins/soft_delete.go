package plugins

import (
	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/queryir"
)

// OptionWithDeleted is the runtime option that disables SoftDelete for one
// build call.
const OptionWithDeleted = "with_deleted"

// SoftDeleteOptions configures SoftDelete.
type SoftDeleteOptions struct {
	Column string `mapstructure:"column"`
}

// SoftDelete restricts queries to rows whose deleted-at column is null.
type SoftDelete struct {
	column string
}

// NewSoftDelete creates a soft_delete plugin; the column defaults to
// deleted_at.
func NewSoftDelete(opts SoftDeleteOptions) *SoftDelete {
	column := opts.Column
	if column == "" {
		column = "deleted_at"
	}
	return &SoftDelete{column: column}
}

func (p *SoftDelete) Name() string { return NameSoftDelete }

func (p *SoftDelete) Transform(q queryir.Select, ctx builder.BuildContext) (queryir.Select, error) {
	if ctx.Options.Bool(OptionWithDeleted) {
		return q, nil
	}
	return q.Where(queryir.IsNull{Field: p.column}), nil
}
