package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/harness"
)

const harnessScenarios = "../harness/testdata/scenarios"

// writeScenario writes a compile-only scenario over the harness posts
// definition and returns its path.
func writeScenario(t *testing.T, dir, name, sql string) string {
	t.Helper()
	def, err := filepath.Abs("../harness/testdata/definitions/posts.yaml")
	require.NoError(t, err)

	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, writeFile(path, `name: `+name+`
description: "published posts"
definition: `+def+`
steps:
  - name: published
    filter: {status: published}
    expect:
      sql: `+sql+`
`))
	return path
}

const publishedSQL = "SELECT * FROM posts WHERE (status = ? AND deleted_at IS NULL)"

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Contains(t, out, "Error [E005]")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Scenarios)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), harnessScenarios)
	require.NoError(t, err, out)

	assert.Contains(t, out, "\u2713 posts_compile")
	assert.Contains(t, out, "\u2713 posts_rows")
	assert.Contains(t, out, "\u2713 posts_cue")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "\u2713 All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), harnessScenarios, "--filter", "posts_c*", "--parallel", "1")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "posts_compile", result.Scenarios[0].Name)
	assert.Equal(t, "posts_cue", result.Scenarios[1].Name)
}

func TestTestCommandFailures(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "good", publishedSQL)
	writeScenario(t, dir, "wrong", "SELECT 1")
	require.NoError(t, writeFile(filepath.Join(dir, "broken.yaml"), "name: [\n"))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 2, result.Failed)

	byName := make(map[string]ScenarioResult)
	for _, s := range result.Scenarios {
		byName[s.Name] = s
	}
	assert.True(t, byName["good"].Pass)
	require.Len(t, byName["wrong"].Errors, 1)
	assert.Contains(t, byName["wrong"].Errors[0], "sql mismatch")
	require.Len(t, byName["broken.yaml"].Errors, 1)
	assert.Contains(t, byName["broken.yaml"].Errors[0], "failed to load scenario")
}

func TestTestCommandFailuresText(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong", "SELECT 1")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "\u2717 wrong")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "golden_posts", publishedSQL)
	golden := harness.GoldenPath(path)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "\u2713 golden_posts (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario":"golden_posts"`)

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "\u2713 golden_posts\n")

	require.NoError(t, writeFile(golden, `{"scenario":"golden_posts","steps":[]}`))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "do not match golden file")
}
