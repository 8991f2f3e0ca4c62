package cli

import (
	"errors"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/compiler"
)

// classify maps err to a response code and exit code. Problems with the
// command's inputs exit with ExitCommandError; definitions and requests
// that were read but rejected exit with ExitFailure.
func classify(err error) (string, int) {
	var (
		loadErr  *LoadError
		valErr   compiler.ValidationError
		regErr   *builder.RegistrationError
		buildErr *builder.BuildError
	)
	switch {
	case errors.As(err, &loadErr):
		if loadErr.Code == ErrCodeCompileFailed {
			return loadErr.Code, ExitFailure
		}
		return loadErr.Code, ExitCommandError
	case errors.As(err, &valErr):
		return valErr.Code, ExitFailure
	case errors.As(err, &regErr):
		return string(regErr.Code), ExitFailure
	case errors.As(err, &buildErr):
		return string(buildErr.Code), ExitFailure
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}

// reportError writes err through f and returns the ExitError the command
// should fail with.
func reportError(f *OutputFormatter, err error) error {
	code, exit := classify(err)
	_ = f.Error(code, err.Error(), nil)
	return &ExitError{Code: exit, Err: err}
}
