package harness

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/sieve/internal/config"
)

// FileResult is the outcome of one scenario file in a suite run.
type FileResult struct {
	Path     string
	Scenario *Scenario // nil when the file failed to load
	Result   *Result   // nil when loading or setup failed
	Err      error
}

// Name returns the scenario name, or the file name when it did not load.
func (r FileResult) Name() string {
	if r.Scenario != nil {
		return r.Scenario.Name
	}
	return filepath.Base(r.Path)
}

// Pass reports whether the scenario loaded, ran, and met every expectation.
func (r FileResult) Pass() bool {
	return r.Err == nil && r.Result != nil && r.Result.Pass
}

// FindScenarios returns the YAML files under dir, sorted. A non-empty
// filter is a glob matched against the file name without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// RunAll loads and runs every scenario file, at most limit at a time
// (limit <= 0 means unbounded). Results come back in input order; a failing
// scenario never stops the others. The error is non-nil only when ctx is
// cancelled.
func RunAll(ctx context.Context, paths []string, cfg *config.Config, limit int) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runFile(gctx, path, cfg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runFile(ctx context.Context, path string, cfg *config.Config) FileResult {
	fr := FileResult{Path: path}

	scenario, err := LoadScenario(path)
	if err != nil {
		fr.Err = fmt.Errorf("failed to load scenario: %w", err)
		return fr
	}
	fr.Scenario = scenario

	result, err := RunWithConfig(ctx, scenario, cfg)
	if err != nil {
		fr.Err = fmt.Errorf("execution failed: %w", err)
		return fr
	}
	fr.Result = result
	return fr
}
