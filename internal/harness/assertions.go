package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// AssertionError is returned when a step does not produce what its expect
// clause asks for.
type AssertionError struct {
	Step     string // Step name
	Check    string // sql, params, ids, count or error
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "step %q: %s mismatch\n", e.Step, e.Check)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkStep compares a step outcome with its expect clause and returns one
// message per failed check. A step without an expect clause only fails on
// an error.
func checkStep(step Step, sr StepResult) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	e := step.Expect
	if e == nil || e.Error == "" {
		if sr.Error != "" {
			add(&AssertionError{Step: step.Name, Check: "error", Expected: "no error", Actual: sr.Error})
			return errs
		}
	}
	if e == nil {
		return errs
	}

	if e.Error != "" {
		add(assertError(step.Name, e.Error, sr.Error))
		return errs
	}
	if e.SQL != "" {
		add(assertSQL(step.Name, e.SQL, sr.SQL))
	}
	if e.Params != nil {
		add(assertParams(step.Name, e.Params, sr.Params))
	}
	if e.IDs != nil {
		add(assertIDs(step.Name, e.IDs, sr.IDs))
	}
	if e.Count != nil {
		add(assertCount(step.Name, *e.Count, sr.Count))
	}
	return errs
}

func assertError(step, expected, actual string) error {
	if actual == expected {
		return nil
	}
	if actual == "" {
		actual = "no error"
	}
	return &AssertionError{Step: step, Check: "error", Expected: expected, Actual: actual}
}

// assertSQL compares statements with runs of whitespace collapsed, so
// expected SQL may be folded across lines in YAML.
func assertSQL(step, expected, actual string) error {
	if normalizeSQL(expected) == normalizeSQL(actual) {
		return nil
	}
	return &AssertionError{Step: step, Check: "sql", Expected: expected, Actual: actual}
}

func normalizeSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// assertParams compares parameters through canonical JSON so that YAML
// ints match driver int64s.
func assertParams(step string, expected, actual []any) error {
	want, err := canonicalJSON(expected)
	if err != nil {
		return fmt.Errorf("step %q: expected params: %w", step, err)
	}
	got, err := canonicalJSON(actual)
	if err != nil {
		return fmt.Errorf("step %q: actual params: %w", step, err)
	}
	if want == got {
		return nil
	}
	return &AssertionError{Step: step, Check: "params", Expected: want, Actual: got}
}

func assertIDs(step string, expected, actual []int64) error {
	if slices.Equal(expected, actual) {
		return nil
	}
	return &AssertionError{Step: step, Check: "ids", Expected: fmt.Sprint(expected), Actual: fmt.Sprint(actual)}
}

func assertCount(step string, expected int64, actual *int64) error {
	if actual == nil {
		return &AssertionError{Step: step, Check: "count", Expected: fmt.Sprint(expected), Actual: "not counted"}
	}
	if *actual == expected {
		return nil
	}
	return &AssertionError{Step: step, Check: "count", Expected: fmt.Sprint(expected), Actual: fmt.Sprint(*actual)}
}

func canonicalJSON(v []any) (string, error) {
	if v == nil {
		v = []any{}
	}
	val, err := ir.FromGo(v)
	if err != nil {
		return "", err
	}
	data, err := ir.MarshalCanonical(val)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
