package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "testdata/scenarios"

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios(scenariosDir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(scenariosDir, "posts_compile.yaml"),
		filepath.Join(scenariosDir, "posts_cue.yaml"),
		filepath.Join(scenariosDir, "posts_rows.yaml"),
	}, files)

	files, err = FindScenarios(scenariosDir, "posts_c*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = FindScenarios(scenariosDir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestRunAll(t *testing.T) {
	files, err := FindScenarios(scenariosDir, "")
	require.NoError(t, err)

	results, err := RunAll(context.Background(), files, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, len(files))

	for i, r := range results {
		assert.Equal(t, files[i], r.Path)
		assert.True(t, r.Pass(), "%s: err=%v errors=%v", r.Name(), r.Err, r.Result)
	}
	assert.Equal(t, "posts_compile", results[0].Name())
}

func TestRunAll_FailuresAreIsolated(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: [\n"), 0o644))

	missing := filepath.Join(dir, "missing_def.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("name: m\ndescription: d\ndefinition: nope.yaml\nsteps: [{name: a}]\n"), 0o644))

	good := filepath.Join(scenariosDir, "posts_compile.yaml")

	results, err := RunAll(context.Background(), []string{broken, good, missing}, nil, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[0].Pass())
	assert.Nil(t, results[0].Scenario)
	assert.Equal(t, "broken.yaml", results[0].Name())
	assert.Contains(t, results[0].Err.Error(), "failed to load scenario")

	assert.True(t, results[1].Pass())

	assert.False(t, results[2].Pass())
	assert.Equal(t, "m", results[2].Name())
	assert.Contains(t, results[2].Err.Error(), "execution failed")
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, []string{filepath.Join(scenariosDir, "posts_compile.yaml")}, nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
