package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sieve/internal/ir"
)

// GoldenDir is where RunWithGolden keeps snapshots, relative to the test's
// package directory.
const GoldenDir = "testdata/golden"

// Snapshot renders a scenario result as canonical JSON. Expectations and
// pass/fail state are left out: the snapshot records what the builder
// produced, nothing else.
func Snapshot(name string, result *Result) ([]byte, error) {
	steps := make([]any, len(result.Steps))
	for i, s := range result.Steps {
		step := map[string]any{"name": s.Name}
		if s.SQL != "" {
			step["sql"] = s.SQL
		}
		if len(s.Params) > 0 {
			step["params"] = s.Params
		}
		if s.IDs != nil {
			ids := make([]any, len(s.IDs))
			for j, id := range s.IDs {
				ids[j] = id
			}
			step["ids"] = ids
		}
		if s.Count != nil {
			step["count"] = *s.Count
		}
		if s.Error != "" {
			step["error"] = s.Error
		}
		steps[i] = step
	}

	v, err := ir.FromGo(map[string]any{
		"scenario": name,
		"steps":    steps,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return ir.MarshalCanonical(v)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
//
// Returns error if scenario execution fails. Expectation failures and
// golden mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	return AssertGolden(t, scenario.Name, result, opts...)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t, append([]goldie.Option{
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	}, opts...)...)
	g.Assert(t, name, data)
	return nil
}

// GoldenPath returns the golden file kept next to a scenario file:
// <dir>/golden/<name>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// WriteGolden stores the snapshot of result at path.
func WriteGolden(path, name string, result *Result) error {
	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the snapshot of result equals the golden
// file at path.
func CompareGolden(path, name string, result *Result) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	current, err := Snapshot(name, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(bytes.TrimSpace(golden), current), nil
}
