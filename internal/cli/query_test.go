package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/config"
	"github.com/roach88/sieve/internal/store"
)

// usersDB creates a SQLite file with three users and returns its path.
func usersDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.ExecScript(context.Background(), `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT);
INSERT INTO users (id, name, email) VALUES
  (1, 'ada', 'ada@example.com'),
  (2, 'alan', NULL),
  (3, 'grace', 'grace@example.com');
`))
	return path
}

func TestQueryText(t *testing.T) {
	db := usersDB(t)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}),
		definitionsDir, "-b", "users", "--db", db, "--filter", "{name__starts_with: a}", "--options", "{order: [name]}", "--count")
	require.NoError(t, err)

	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "alan")
	assert.Contains(t, out, "NULL")
	assert.NotContains(t, out, "grace")
	assert.Contains(t, out, "(2 rows)")
	assert.Contains(t, out, "Total: 2")
}

func TestQueryJSON(t *testing.T) {
	db := usersDB(t)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json"}),
		definitionsDir, "-b", "users", "--db", db, "--filter", `{"id__in": [1, 3]}`, "--options", "{order: [{desc: name}]}")
	require.NoError(t, err)

	var result QueryOutput
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "users", result.Builder)
	assert.Nil(t, result.Total)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "grace", result.Rows[0]["name"])
	assert.Equal(t, "ada", result.Rows[1]["name"])
}

func TestQueryNoMatches(t *testing.T) {
	db := usersDB(t)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}),
		definitionsDir, "-b", "users", "--db", db, "--filter", "{name: nobody}", "--count")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 rows)")
	assert.Contains(t, out, "Total: 0")
}

func TestQueryErrors(t *testing.T) {
	db := usersDB(t)

	postgres := config.Default()
	postgres.Dialect = "postgres"

	tests := []struct {
		name string
		opts *RootOptions
		args []string
		code string
		exit int
	}{
		{
			name: "missing database",
			opts: &RootOptions{Format: "json"},
			args: []string{definitionsDir, "-b", "users", "--db", filepath.Join(t.TempDir(), "none.db")},
			code: ErrCodeNotFound,
			exit: ExitCommandError,
		},
		{
			name: "postgres dialect",
			opts: &RootOptions{Format: "json", Config: postgres},
			args: []string{definitionsDir, "-b", "users", "--db", db},
			code: ErrCodeGeneric,
			exit: ExitCommandError,
		},
		{
			name: "unknown filter",
			opts: &RootOptions{Format: "json"},
			args: []string{definitionsDir, "-b", "users", "--db", db, "--filter", "{nope: 1}"},
			code: "UNRESOLVED_FILTER",
			exit: ExitFailure,
		},
		{
			name: "missing table",
			opts: &RootOptions{Format: "json"},
			args: []string{definitionsDir, "-b", "posts", "--db", db},
			code: ErrCodeGeneric,
			exit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewQueryCommand(tt.opts), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))

			resp := decodeData(t, out, new(any))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestQueryRequiresDB(t *testing.T) {
	_, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}), definitionsDir, "-b", "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
