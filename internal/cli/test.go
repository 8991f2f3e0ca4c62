package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Parallel int    // scenarios run at once
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run scenario files against their builder definitions.

Each scenario names a definition file, optional SQLite fixtures, and a
list of build requests with the SQL, parameters, row ids or error code
each must produce. When a golden file exists next to a scenario
(golden/<name>.golden) the results must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  sieve test ./scenarios
  sieve test ./scenarios --filter "posts_*"
  sieve test ./scenarios --update
  sieve test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 4, "number of scenarios run at once (0 = unbounded)")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return reportError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenarios directory not found: %s", scenariosDir)})
	}

	files, err := harness.FindScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("failed to find scenarios: %v", err)})
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	results, err := harness.RunAll(cmd.Context(), files, opts.config(), opts.Parallel)
	if err != nil {
		return reportError(formatter, fmt.Errorf("scenario run interrupted: %w", err))
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(results)),
		Total:     len(results),
	}
	for _, fr := range results {
		sr := checkScenario(opts, fr)
		if opts.Format != "json" {
			printScenario(cmd, opts, sr)
		}

		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(cmd, result)
}

// checkScenario folds golden file handling into a harness result.
func checkScenario(opts *TestOptions, fr harness.FileResult) ScenarioResult {
	sr := ScenarioResult{Name: fr.Name()}

	if fr.Err != nil {
		sr.Errors = []string{fr.Err.Error()}
		return sr
	}

	goldenPath := harness.GoldenPath(fr.Path)

	if opts.Update {
		if err := harness.WriteGolden(goldenPath, fr.Scenario.Name, fr.Result); err != nil {
			sr.Errors = []string{fmt.Sprintf("%s: failed to update golden file: %v", ErrCodeWriteFailed, err)}
			return sr
		}
		sr.Errors = fr.Result.Errors
		sr.Pass = fr.Result.Pass
		return sr
	}

	sr.Errors = append(sr.Errors, fr.Result.Errors...)

	if _, err := os.Stat(goldenPath); err == nil {
		match, err := harness.CompareGolden(goldenPath, fr.Scenario.Name, fr.Result)
		switch {
		case err != nil:
			sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
		case !match:
			sr.Errors = append(sr.Errors, "results do not match golden file (run with --update to regenerate)")
		}
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

func printScenario(cmd *cobra.Command, opts *TestOptions, sr ScenarioResult) {
	w := cmd.OutOrStdout()

	if !sr.Pass {
		fmt.Fprintf(w, "\u2717 %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}

	if opts.Update {
		fmt.Fprintf(w, "\u2713 %s (golden updated)\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "\u2713 %s\n", sr.Name)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return formatter.Success(result)
	}

	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := formatter.Failure("E_TEST_FAILED", msg, result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "\u2713 All scenarios passed")
	return nil
}
