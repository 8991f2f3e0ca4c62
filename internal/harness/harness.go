package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/config"
	"github.com/roach88/sieve/internal/querysql"
	"github.com/roach88/sieve/internal/store"
)

// Harness executes the steps of one scenario.
type Harness struct {
	builder  *builder.Builder
	compiler *querysql.Compiler
	store    *store.Store // nil when the scenario has no schema
	logger   *slog.Logger
}

// Run executes a scenario with the built-in configuration.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithConfig(context.Background(), scenario, nil)
}

// RunWithConfig executes a scenario under cfg (nil means config.Default).
//
// Execution flow:
//  1. Compile and register the definition
//  2. Create a fresh in-memory database when the scenario has a schema
//  3. Run each step: parse options, build, compile, and query
//  4. Check each step against its expect clause
//
// The returned error covers setup failures only. Build errors are step
// outcomes and land in the result.
func RunWithConfig(ctx context.Context, scenario *Scenario, cfg *config.Config) (*Result, error) {
	h, err := newHarness(ctx, scenario, cfg)
	if err != nil {
		return nil, err
	}
	defer h.close()

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
		result.AddStep(sr)

		for _, msg := range checkStep(step, sr) {
			result.AddError(msg)
		}

		h.logger.Info("step completed",
			"step", i,
			"name", step.Name,
			"error", sr.Error,
		)
	}
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario, cfg *config.Config) (*Harness, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if scenario.Dialect != "" {
		c := *cfg
		c.Dialect = scenario.Dialect
		cfg = &c
	}

	c, err := cfg.NewCompiler()
	if err != nil {
		return nil, err
	}

	b, err := loadBuilder(scenario, cfg)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		builder:  b,
		compiler: c,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if scenario.Schema == "" {
		return h, nil
	}
	if c.Dialect() != querysql.DialectSQLite {
		return nil, fmt.Errorf("schema fixtures require the sqlite dialect, got %s", c.Dialect())
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	h.store = st

	if err := st.ExecScript(ctx, scenario.Schema); err != nil {
		h.close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	tables := make([]string, 0, len(scenario.Rows))
	for table := range scenario.Rows {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		if err := st.Insert(ctx, c, table, scenario.Rows[table]); err != nil {
			h.close()
			return nil, fmt.Errorf("failed to insert fixtures: %w", err)
		}
	}
	return h, nil
}

// loadBuilder compiles, validates and registers the scenario's definition.
func loadBuilder(scenario *Scenario, cfg *config.Config) (*builder.Builder, error) {
	specs, err := compiler.CompileFile(scenario.Definition)
	if err != nil {
		return nil, err
	}

	if verrs := compiler.ValidateAll(specs); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, fmt.Errorf("invalid definition %s: %w", scenario.Definition, errors.Join(errs...))
	}

	spec, err := compiler.Find(specs, scenario.Builder)
	if err != nil {
		return nil, err
	}

	b, err := compiler.Define(spec, cfg.Env())
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", spec.Name, err)
	}
	return b, nil
}

func (h *Harness) close() {
	if h.store != nil {
		h.store.Close()
	}
}

// executeStep runs one build call. Build and compile errors are recorded on
// the step; only database failures are returned.
func (h *Harness) executeStep(ctx context.Context, step Step) (StepResult, error) {
	sr := StepResult{Name: step.Name}

	opts, err := builder.ParseOptions(step.Options)
	if err != nil {
		sr.Error = errorCode(err)
		return sr, nil
	}

	var filter any
	if step.Filter != nil {
		filter = step.Filter
	}
	q, err := h.builder.BuildWithOptions(filter, opts)
	if err != nil {
		sr.Error = errorCode(err)
		return sr, nil
	}

	sql, params, err := h.compiler.Compile(q)
	if err != nil {
		sr.Error = err.Error()
		return sr, nil
	}
	sr.SQL = sql
	sr.Params = params

	if h.store == nil {
		return sr, nil
	}

	rows, err := h.store.Select(ctx, sql, params...)
	if err != nil {
		return sr, err
	}
	sr.IDs = rowIDs(rows)

	n, err := h.store.Count(ctx, h.compiler, q)
	if err != nil {
		return sr, err
	}
	sr.Count = &n
	return sr, nil
}

// errorCode returns the BuildError code of err, or its text.
func errorCode(err error) string {
	var be *builder.BuildError
	if errors.As(err, &be) {
		return string(be.Code)
	}
	return err.Error()
}

// rowIDs collects the integer id column of rows. Rows without one are
// skipped.
func rowIDs(rows []store.Row) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if id, ok := r["id"].(int64); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
