package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/queryir"
)

// RequestOptions holds the flags shared by build and query.
type RequestOptions struct {
	*RootOptions
	Builder string
	Filter  string // JSON or YAML flow mapping
	Options string // JSON or YAML flow mapping
}

// BuildOutput is the JSON payload of the build command.
type BuildOutput struct {
	Builder string `json:"builder"`
	SQL     string `json:"sql"`
	Params  []any  `json:"params"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <definitions-dir>",
		Short: "Compile a filter request into SQL",
		Long: `Build a query from a filter and runtime options and print the SQL
with its bound parameters. Nothing is executed.

--filter and --options take a JSON object or a YAML flow mapping.

Examples:
  sieve build ./definitions --filter '{status: published}'
  sieve build ./definitions -b posts --filter '{"_or": [{"status": "draft"}, {"views__gte": 100}]}'
  sieve build ./definitions --options '{page: 2, order: [{desc: views}]}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	addRequestFlags(cmd, opts)

	return cmd
}

func addRequestFlags(cmd *cobra.Command, opts *RequestOptions) {
	cmd.Flags().StringVarP(&opts.Builder, "builder", "b", "", "builder name (required when the directory defines several)")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "filter mapping (JSON or YAML)")
	cmd.Flags().StringVarP(&opts.Options, "options", "o", "", "runtime options: page, per_page, order and plugin options")
}

func runBuild(opts *RequestOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	c, err := cfg.NewCompiler()
	if err != nil {
		return reportError(formatter, err)
	}

	b, q, err := buildRequest(opts, dir)
	if err != nil {
		return reportError(formatter, err)
	}

	sql, params, err := c.Compile(q)
	if err != nil {
		return reportError(formatter, err)
	}
	if params == nil {
		params = []any{}
	}

	if formatter.JSON() {
		return formatter.Success(BuildOutput{Builder: b.Name(), SQL: sql, Params: params})
	}

	fmt.Fprintln(formatter.Writer, sql)
	if len(params) > 0 {
		fmt.Fprintln(formatter.Writer)
		rows := make([]table.Row, len(params))
		for i, p := range params {
			rows[i] = table.Row{i + 1, formatValue(p), fmt.Sprintf("%T", p)}
		}
		formatter.Table(table.Row{"#", "Value", "Type"}, rows)
	}
	return nil
}

// buildRequest registers the requested builder and builds the filter and
// options given on the command line.
func buildRequest(opts *RequestOptions, dir string) (*builder.Builder, queryir.Select, error) {
	filter, err := parseMapping("filter", opts.Filter)
	if err != nil {
		return nil, queryir.Select{}, err
	}
	raw, err := parseMapping("options", opts.Options)
	if err != nil {
		return nil, queryir.Select{}, err
	}

	b, err := loadBuilder(opts.config(), dir, opts.Builder)
	if err != nil {
		return nil, queryir.Select{}, err
	}

	buildOpts, err := builder.ParseOptions(raw)
	if err != nil {
		return nil, queryir.Select{}, err
	}

	q, err := b.BuildWithOptions(filter, buildOpts)
	if err != nil {
		return nil, queryir.Select{}, err
	}
	return b, q, nil
}

// parseMapping decodes a flag value. YAML is a superset of JSON, so both
// '{"a": 1}' and '{a: 1}' are accepted.
func parseMapping(flag, raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var m map[string]any
	if err := yaml.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &LoadError{Code: ErrCodeBadInput, Message: fmt.Sprintf("--%s: %v", flag, err)}
	}
	return m, nil
}
