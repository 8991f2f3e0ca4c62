package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one query scenario: a builder definition, optional
// fixtures, and the build steps to check against it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definition is the path of a CUE or YAML definition file. Relative
	// paths are resolved against the scenario file's directory.
	Definition string `yaml:"definition"`

	// Builder selects a builder from the definition file. It may be empty
	// when the file defines exactly one.
	Builder string `yaml:"builder,omitempty"`

	// Dialect overrides the configured SQL dialect.
	Dialect string `yaml:"dialect,omitempty"`

	// Schema is a SQL script run against a fresh in-memory database before
	// any step. Without it, steps only compile.
	Schema string `yaml:"schema,omitempty"`

	// Rows are fixture rows inserted per table after Schema runs.
	Rows map[string][]map[string]any `yaml:"rows,omitempty"`

	// Steps are the build calls, run in order.
	Steps []Step `yaml:"steps"`
}

// Step is one build call.
type Step struct {
	// Name labels the step in results and errors.
	Name string `yaml:"name"`

	// Filter is the filter mapping handed to the builder.
	Filter map[string]any `yaml:"filter,omitempty"`

	// Options is the runtime option map (page, per_page, order, ...).
	Options map[string]any `yaml:"options,omitempty"`

	// Expect holds the checks for this step. Nil only records the output.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists what a step must produce. Unset fields are not checked.
type Expect struct {
	// SQL is the exact compiled statement.
	SQL string `yaml:"sql,omitempty"`

	// Params are the bound parameters, compared as canonical JSON.
	Params []any `yaml:"params,omitempty"`

	// IDs are the id column of the selected rows, in order. Requires a
	// schema.
	IDs []int64 `yaml:"ids,omitempty"`

	// Count is the number of rows matched ignoring order and paging.
	// Requires a schema.
	Count *int64 `yaml:"count,omitempty"`

	// Error is the expected build error code (e.g. UNRESOLVED_FILTER).
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file, resolving the
// definition path against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative definition path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(scenario.Definition) && basePath != "" {
		scenario.Definition = filepath.Join(basePath, scenario.Definition)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so that
// typos like "expects:" fail loudly.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Definition == "" {
		return fmt.Errorf("definition is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Rows) > 0 && s.Schema == "" {
		return fmt.Errorf("rows require a schema")
	}

	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("step %d: name is required", i)
		}
		e := step.Expect
		if e == nil {
			continue
		}
		if e.Error != "" && (e.SQL != "" || e.Params != nil || e.IDs != nil || e.Count != nil) {
			return fmt.Errorf("step %q: an expected error excludes sql, params, ids and count", step.Name)
		}
		if s.Schema == "" && (e.IDs != nil || e.Count != nil) {
			return fmt.Errorf("step %q: ids and count require a schema", step.Name)
		}
	}
	return nil
}
