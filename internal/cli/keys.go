package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/builder"
)

// KeysOptions holds flags for the keys command.
type KeysOptions struct {
	*RootOptions
	Builder string
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeysOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keys <definitions-dir>",
		Short: "List the filter and sort keys of a builder",
		Long: `List the fields, filter keys, sort keys and plugins of a registered
builder, including the keys generated by plugins.

Examples:
  sieve keys ./definitions
  sieve keys ./definitions --builder posts --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Builder, "builder", "b", "", "builder name (required when the directory defines several)")

	return cmd
}

func runKeys(opts *KeysOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	b, err := loadBuilder(opts.config(), dir, opts.Builder)
	if err != nil {
		return reportError(formatter, err)
	}

	meta := b.Metadata()
	if formatter.JSON() {
		return formatter.Success(meta)
	}

	outputKeysText(formatter, meta)
	return nil
}

func outputKeysText(formatter *OutputFormatter, meta builder.Metadata) {
	w := formatter.Writer
	fmt.Fprintf(w, "Builder %s (table %s)\n\n", meta.Name, meta.Table)

	fields := make([]table.Row, len(meta.Fields))
	for i, f := range meta.Fields {
		fields[i] = table.Row{f.Name, f.Type, f.Declared}
	}
	formatter.Table(table.Row{"Field", "Type", "Declared"}, fields)
	fmt.Fprintln(w)

	filters := make([]table.Row, len(meta.Filters))
	for i, f := range meta.Filters {
		filters[i] = table.Row{f.Key, f.Field, f.Operator, f.Join, f.Source}
	}
	formatter.Table(table.Row{"Filter", "Field", "Operator", "Join", "Source"}, filters)
	fmt.Fprintln(w)

	sorts := make([]table.Row, len(meta.Sorters))
	for i, s := range meta.Sorters {
		sorts[i] = table.Row{s.Key, s.Field, s.Join, s.Source}
	}
	formatter.Table(table.Row{"Sort", "Field", "Join", "Source"}, sorts)

	if len(meta.Plugins) > 0 {
		fmt.Fprintf(w, "\nPlugins: %s\n", strings.Join(meta.Plugins, ", "))
	}
}
