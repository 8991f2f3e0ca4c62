package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/compiler"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{"message only", NewExitError(ExitFailure, "failed"), "failed"},
		{"wrapped", WrapExitError(ExitCommandError, "load", cause), "load: boom"},
		{"cause only", &ExitError{Code: ExitFailure, Err: cause}, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	assert.ErrorIs(t, WrapExitError(ExitFailure, "x", cause), cause)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad path"))))
}

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"n": 1}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"n": float64(1)}, resp.Data)
}

func TestOutputFormatter_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error("E005", "not found", "dir"))
	assert.Equal(t, "Error [E005]: not found\nDetails: dir\n", buf.String())

	buf.Reset()
	f.Format = "json"
	require.NoError(t, f.Error("E005", "not found", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "not found", resp.Error.Message)
}

func TestOutputFormatter_Failure(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Failure("E101", "table is required", ValidationResult{Valid: false}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E101", resp.Error.Code)
	assert.Equal(t, map[string]any{"valid": false}, resp.Data)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag}

	f.VerboseLog("hidden %d", 1)
	assert.Empty(t, diag.String())

	f.Verbose = true
	f.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", diag.String())
	assert.Empty(t, out.String())

	f.ErrWriter = nil
	assert.Equal(t, out, f.GetErrWriter())
}

func TestOutputFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	f.Table(table.Row{"Name", "Views"}, []table.Row{{"ada", 120}, {"linus", formatValue(nil)}})

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "VIEWS")
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "NULL")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "raw", formatValue([]byte("raw")))
	assert.Equal(t, "3", formatValue(int64(3)))
	assert.Equal(t, "published", formatValue("published"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"load", &LoadError{Code: ErrCodeNotFound, Message: "x"}, ErrCodeNotFound, ExitCommandError},
		{"compile", &LoadError{Code: ErrCodeCompileFailed, Message: "x"}, ErrCodeCompileFailed, ExitFailure},
		{"validation", compiler.ValidationError{Code: compiler.ErrMissingTable}, compiler.ErrMissingTable, ExitFailure},
		{"registration", &builder.RegistrationError{Code: builder.ErrCodeUnknownField}, "E204", ExitFailure},
		{"build", fmt.Errorf("plugin pagination: %w", &builder.BuildError{Code: builder.ErrCodeInvalidOption}), "INVALID_OPTION", ExitFailure},
		{"other", errors.New("disk on fire"), ErrCodeGeneric, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.exit, exit)
		})
	}
}
