package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/config"
)

func TestBuildText(t *testing.T) {
	out, err := execute(t, NewBuildCommand(&RootOptions{Format: "text"}),
		definitionsDir, "-b", "users", "--filter", "{name: ada}")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT * FROM users WHERE name = ?")
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "string")
}

func TestBuildJSON(t *testing.T) {
	out, err := execute(t, NewBuildCommand(&RootOptions{Format: "json"}),
		definitionsDir, "-b", "users", "--filter", `{"id__in": [1, 2]}`)
	require.NoError(t, err)

	var result BuildOutput
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "users", result.Builder)
	assert.Equal(t, "SELECT * FROM users WHERE id IN (?,?)", result.SQL)
	assert.Equal(t, []any{float64(1), float64(2)}, result.Params)
}

func TestBuildWithOptions(t *testing.T) {
	out, err := execute(t, NewBuildCommand(&RootOptions{Format: "json"}),
		definitionsDir, "-b", "posts", "--options", "{page: 2, order: [{desc: views}]}")
	require.NoError(t, err)

	var result BuildOutput
	decodeData(t, out, &result)
	assert.Equal(t, "SELECT * FROM posts WHERE deleted_at IS NULL ORDER BY views DESC LIMIT 2 OFFSET 2", result.SQL)
	assert.Empty(t, result.Params)
}

func TestBuildNoFilter(t *testing.T) {
	out, err := execute(t, NewBuildCommand(&RootOptions{Format: "text"}), definitionsDir, "-b", "users")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users\n", out)
}

func TestBuildUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Dialect = "postgres"
	cfg.TieBreaker = "id"

	out, err := execute(t, NewBuildCommand(&RootOptions{Format: "json", Config: cfg}),
		definitionsDir, "-b", "users", "--filter", "{name: ada}", "--options", "{order: [name]}")
	require.NoError(t, err)

	var result BuildOutput
	decodeData(t, out, &result)
	assert.Equal(t, "SELECT * FROM users WHERE name = $1 ORDER BY name ASC, users.id ASC", result.SQL)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
		exit int
	}{
		{
			name: "unknown filter key",
			args: []string{definitionsDir, "-b", "users", "--filter", "{nope: 1}"},
			code: string(builder.ErrCodeUnresolvedFilter),
			exit: ExitFailure,
		},
		{
			name: "unknown sort key",
			args: []string{definitionsDir, "-b", "users", "--options", "{order: [{asc: email}]}"},
			code: string(builder.ErrCodeUnresolvedSort),
			exit: ExitFailure,
		},
		{
			name: "bad page",
			args: []string{definitionsDir, "-b", "posts", "--options", "{page: 0}"},
			code: string(builder.ErrCodeInvalidOption),
			exit: ExitFailure,
		},
		{
			name: "ambiguous builder",
			args: []string{definitionsDir},
			code: ErrCodeNotFound,
			exit: ExitCommandError,
		},
		{
			name: "unparseable filter",
			args: []string{definitionsDir, "-b", "users", "--filter", "{name: "},
			code: ErrCodeBadInput,
			exit: ExitCommandError,
		},
		{
			name: "invalid definitions",
			args: []string{"testdata/invalid"},
			code: "E101",
			exit: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewBuildCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))

			resp := decodeData(t, out, new(any))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestParseMapping(t *testing.T) {
	m, err := parseMapping("filter", "")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = parseMapping("filter", `{"status": "published", "views__gte": 100}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "published", "views__gte": 100}, m)

	m, err = parseMapping("options", "{page: 2, order: [{desc: views}]}")
	require.NoError(t, err)
	assert.Equal(t, 2, m["page"])
	assert.Equal(t, []any{map[string]any{"desc": "views"}}, m["order"])

	_, err = parseMapping("filter", "[1, 2]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--filter")
}
