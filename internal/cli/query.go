package cli

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/querysql"
	"github.com/roach88/sieve/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	RequestOptions
	DBPath string
	Count  bool
}

// QueryOutput is the JSON payload of the query command.
type QueryOutput struct {
	Builder string      `json:"builder"`
	SQL     string      `json:"sql"`
	Params  []any       `json:"params"`
	Rows    []store.Row `json:"rows"`
	Total   *int64      `json:"total,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RequestOptions: RequestOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "query <definitions-dir>",
		Short: "Build a request and run it against a SQLite database",
		Long: `Build a query from a filter and runtime options, run it against a
SQLite database and print the matching rows.

Examples:
  sieve query ./definitions --db app.db --filter '{status: published}'
  sieve query ./definitions --db app.db --options '{page: 1, per_page: 20}' --count`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	addRequestFlags(cmd, &opts.RequestOptions)
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "also report the total number of matches, ignoring pagination")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *QueryOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	if cfg.Dialect != string(querysql.DialectSQLite) {
		return reportError(formatter, fmt.Errorf("query requires the sqlite dialect, got %s", cfg.Dialect))
	}
	if _, err := os.Stat(opts.DBPath); err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", opts.DBPath)})
	}

	c, err := cfg.NewCompiler()
	if err != nil {
		return reportError(formatter, err)
	}

	b, q, err := buildRequest(&opts.RequestOptions, dir)
	if err != nil {
		return reportError(formatter, err)
	}

	sql, params, err := c.Compile(q)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("SQL: %s %v", sql, params)

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	rows, err := st.Select(ctx, sql, params...)
	if err != nil {
		return reportError(formatter, err)
	}

	var total *int64
	if opts.Count {
		n, err := st.Count(ctx, c, q)
		if err != nil {
			return reportError(formatter, err)
		}
		total = &n
	}

	if formatter.JSON() {
		if params == nil {
			params = []any{}
		}
		if rows == nil {
			rows = []store.Row{}
		}
		return formatter.Success(QueryOutput{Builder: b.Name(), SQL: sql, Params: params, Rows: rows, Total: total})
	}

	outputRowsText(formatter, b, rows, total)
	return nil
}

func outputRowsText(formatter *OutputFormatter, b *builder.Builder, rows []store.Row, total *int64) {
	w := formatter.Writer

	if len(rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
	} else {
		cols := rowColumns(b, rows)

		header := make(table.Row, len(cols))
		for i, col := range cols {
			header[i] = col
		}
		out := make([]table.Row, len(rows))
		for i, r := range rows {
			row := make(table.Row, len(cols))
			for j, col := range cols {
				row[j] = formatValue(r[col])
			}
			out[i] = row
		}
		formatter.Table(header, out)
		fmt.Fprintf(w, "(%d rows)\n", len(rows))
	}

	if total != nil {
		fmt.Fprintf(w, "Total: %d\n", *total)
	}
}

// rowColumns orders result columns by the builder's field declarations,
// followed by any other columns in name order.
func rowColumns(b *builder.Builder, rows []store.Row) []string {
	present := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			present[k] = true
		}
	}

	var cols []string
	for _, f := range b.Metadata().Fields {
		if present[f.Name] {
			cols = append(cols, f.Name)
		}
	}

	var rest []string
	for k := range present {
		if !slices.Contains(cols, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}
