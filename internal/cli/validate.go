package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Builders []string                   `json:"builders,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definitions-dir>",
		Short: "Validate builder definitions",
		Long: `Validate every builder definition in a directory.

Compiles the CUE and YAML definition files, checks them against the
definition rules, and registers each builder under the current config
so that unknown fields, computed keys and unsupported operators are
reported before any request is built.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadDefinitions(dir, LoadModeCollectAll)

	// Directory not found, no files, etc.
	if loadResult == nil {
		return reportError(formatter, loadErrors[0])
	}

	formatter.VerboseLog("Found %d definition file(s) in %s", len(loadResult.Files), dir)

	validationErrors := compiler.ValidateAll(loadResult.Specs)
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, loadValidationError(err))
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	builders, regErrs := Register(loadResult.Specs, opts.config())
	for _, err := range regErrs {
		validationErrors = append(validationErrors, registrationValidationError(err))
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	names := make([]string, len(builders))
	for i, b := range builders {
		names[i] = b.Name()
		formatter.VerboseLog("Registered builder: %s", b.Name())
	}
	return outputValidateSuccess(formatter, names)
}

func loadValidationError(err error) compiler.ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Pos:     loadErr.Pos,
		}
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
}

func registrationValidationError(err error) compiler.ValidationError {
	var regErr *builder.RegistrationError
	if !errors.As(err, &regErr) {
		return compiler.ValidationError{Field: compiler.RootKey, Message: err.Error(), Code: ErrCodeGeneric}
	}

	field := compiler.RootKey + "." + regErr.Definition
	if regErr.Key != "" {
		field += "." + regErr.Key
	}
	msg := regErr.Message
	if regErr.Origin != "" {
		msg += " (" + regErr.Origin + ")"
	}
	return compiler.ValidationError{Field: field, Message: msg, Code: string(regErr.Code)}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, names []string) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Builders: names})
	}

	fmt.Fprintf(formatter.Writer, "\u2713 %d builder(s) valid: %v\n", len(names), names)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		result := ValidationResult{Valid: false, Errors: errs}
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Pos.IsValid() {
			fmt.Fprintln(formatter.Writer, err.Pos)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return exitErr
}
