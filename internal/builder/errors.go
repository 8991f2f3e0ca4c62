package builder

import (
	"errors"
	"fmt"
)

// RegistrationError is raised while a builder is being defined. A builder
// that fails registration is never frozen and cannot be used.
type RegistrationError struct {
	// Code identifies the error category (E2xx).
	Code RegistrationErrorCode

	// Definition names the builder definition being registered.
	Definition string

	// Key is the offending filter/sort key or field, when there is one.
	Key string

	// Origin locates the offending declaration (file:line:col, or
	// "plugin <name>").
	Origin string

	// Message is a human-readable description.
	Message string
}

// RegistrationErrorCode categorizes registration errors.
type RegistrationErrorCode string

const (
	// ErrCodeNonLiteralKey indicates a handler key that is not a literal.
	ErrCodeNonLiteralKey RegistrationErrorCode = "E201"

	// ErrCodeMalformedKey indicates a key that is not a valid identifier.
	ErrCodeMalformedKey RegistrationErrorCode = "E202"

	// ErrCodeDuplicateKey indicates two declarations with the same key.
	ErrCodeDuplicateKey RegistrationErrorCode = "E203"

	// ErrCodeUnknownField indicates a declaration targeting an undeclared field.
	ErrCodeUnknownField RegistrationErrorCode = "E204"

	// ErrCodeUnsupportedType indicates a field type with no operators while
	// the unsupported-type policy is reject.
	ErrCodeUnsupportedType RegistrationErrorCode = "E205"

	// ErrCodeInvalidPlugin indicates a plugin that is unnamed or contributed
	// an unusable handler.
	ErrCodeInvalidPlugin RegistrationErrorCode = "E206"

	// ErrCodeMissingTable indicates a definition without a source table.
	ErrCodeMissingTable RegistrationErrorCode = "E207"

	// ErrCodeUnsupportedOperator indicates an operator the field's type
	// does not support.
	ErrCodeUnsupportedOperator RegistrationErrorCode = "E208"
)

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	msg := fmt.Sprintf("%s: builder %q", e.Code, e.Definition)
	if e.Key != "" {
		msg += fmt.Sprintf(" key %q", e.Key)
	}
	if e.Origin != "" {
		msg += " at " + e.Origin
	}
	return msg + ": " + e.Message
}

// IsRegistrationError returns true if err is a RegistrationError.
func IsRegistrationError(err error) bool {
	var re *RegistrationError
	return errors.As(err, &re)
}

// IsNonLiteralKey returns true if err rejects a computed handler key.
// Uses errors.As to handle wrapped errors.
func IsNonLiteralKey(err error) bool {
	var re *RegistrationError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNonLiteralKey
	}
	return false
}

// BuildError is a caller error raised by a single build call. It aborts
// that call only; the builder stays usable.
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Key is the filter key, sort key, or option name involved.
	Key string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	// ErrCodeUnresolvedFilter indicates a filter key with no handler.
	ErrCodeUnresolvedFilter BuildErrorCode = "UNRESOLVED_FILTER"

	// ErrCodeUnresolvedSort indicates an ordering on a key with no sorter.
	ErrCodeUnresolvedSort BuildErrorCode = "UNRESOLVED_SORT"

	// ErrCodeMalformedOrder indicates an ordering instruction of no
	// recognized shape.
	ErrCodeMalformedOrder BuildErrorCode = "MALFORMED_ORDER"

	// ErrCodeMalformedCondition indicates a structured condition that is
	// neither a flat mapping nor a (field, equals, value) tuple.
	ErrCodeMalformedCondition BuildErrorCode = "MALFORMED_CONDITION"

	// ErrCodeInvalidValue indicates a filter value of the wrong type.
	ErrCodeInvalidValue BuildErrorCode = "INVALID_VALUE"

	// ErrCodeInvalidOption indicates a bad runtime option.
	ErrCodeInvalidOption BuildErrorCode = "INVALID_OPTION"

	// ErrCodeMissingAlias indicates a join requested without an alias.
	ErrCodeMissingAlias BuildErrorCode = "MISSING_ALIAS"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	msg := string(e.Code)
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

func buildErr(code BuildErrorCode, key, format string, args ...any) *BuildError {
	return &BuildError{Code: code, Key: key, Message: fmt.Sprintf(format, args...)}
}

func hasBuildCode(err error, code BuildErrorCode) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsUnresolvedFilter returns true if err reports a filter key with no handler.
func IsUnresolvedFilter(err error) bool { return hasBuildCode(err, ErrCodeUnresolvedFilter) }

// IsUnresolvedSort returns true if err reports a sort key with no handler.
func IsUnresolvedSort(err error) bool { return hasBuildCode(err, ErrCodeUnresolvedSort) }

// IsMalformedOrder returns true if err reports an unrecognized ordering shape.
func IsMalformedOrder(err error) bool { return hasBuildCode(err, ErrCodeMalformedOrder) }

// IsMalformedCondition returns true if err reports a bad structured condition.
func IsMalformedCondition(err error) bool { return hasBuildCode(err, ErrCodeMalformedCondition) }

// IsInvalidValue returns true if err reports a mistyped filter value.
func IsInvalidValue(err error) bool { return hasBuildCode(err, ErrCodeInvalidValue) }

// IsInvalidOption returns true if err reports a bad runtime option.
func IsInvalidOption(err error) bool { return hasBuildCode(err, ErrCodeInvalidOption) }

// IsMissingAlias returns true if err reports a join without an alias.
func IsMissingAlias(err error) bool { return hasBuildCode(err, ErrCodeMissingAlias) }
