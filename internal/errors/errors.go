// Package errors holds the typed errors reported by the castor generator.
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents the type of error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	SyntaxErrorCode
	ValidationErrorCode
	GenerationErrorCode
	FileSystemErrorCode
	ModuleErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case ValidationErrorCode:
		return "ValidationError"
	case GenerationErrorCode:
		return "GenerationError"
	case FileSystemErrorCode:
		return "FileSystemError"
	case ModuleErrorCode:
		return "ModuleError"
	default:
		return "UnknownError"
	}
}

// SourceLocation represents where an error occurred in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// String returns a formatted string representation of the location
func (s SourceLocation) String() string {
	if s.File == "" {
		return "unknown location"
	}
	if s.Line == 0 {
		return s.File
	}
	if s.Column == 0 {
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsEmpty returns true if the location has no useful information
func (s SourceLocation) IsEmpty() bool {
	return s.File == ""
}

// GeneratorError is implemented by every error in this package
type GeneratorError interface {
	error
	ErrorCode() ErrorCode
	Location() SourceLocation
	Suggestions() []string
	Unwrap() error
}

// BaseError provides the common implementation of GeneratorError
type BaseError struct {
	Code    ErrorCode
	Message string
	Loc     SourceLocation
	Cause   error
	Hints   []string
}

// Error implements the error interface
func (e *BaseError) Error() string {
	msg := e.Message
	if !e.Loc.IsEmpty() {
		msg = fmt.Sprintf("%s: %s", e.Loc.String(), msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *BaseError) ErrorCode() ErrorCode     { return e.Code }
func (e *BaseError) Location() SourceLocation { return e.Loc }
func (e *BaseError) Suggestions() []string    { return e.Hints }
func (e *BaseError) Unwrap() error            { return e.Cause }

// WithLocation adds location information to the error
func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.Loc = loc
	return e
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// New creates a new BaseError with the specified code and message
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

// Wrap creates a new error that wraps another error
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{Code: code, Message: message, Cause: cause}
}

// SyntaxError reports a malformed castor:: annotation
type SyntaxError struct {
	*BaseError
	Annotation string
}

// NewSyntaxError creates an annotation syntax error
func NewSyntaxError(annotation string, loc SourceLocation, cause error) *SyntaxError {
	return &SyntaxError{
		BaseError:  Wrap(SyntaxErrorCode, fmt.Sprintf("malformed annotation %q", annotation), cause).WithLocation(loc),
		Annotation: annotation,
	}
}

// ValidationError reports a well-formed annotation with bad content
type ValidationError struct {
	*BaseError
	Field string
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string, loc SourceLocation) *ValidationError {
	return &ValidationError{
		BaseError: New(ValidationErrorCode, message).WithLocation(loc),
		Field:     field,
	}
}

// GenerationError reports a failure rendering or writing a manifest
type GenerationError struct {
	*BaseError
	TargetFile string
}

// WrapGenerateError wraps an error with a "failed to generate" message
func WrapGenerateError(target string, cause error) *GenerationError {
	return &GenerationError{
		BaseError:  Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s", target), cause),
		TargetFile: target,
	}
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, fmt.Sprintf("failed to %s '%s'", operation, path), cause)
}

// WrapModuleError wraps go.mod lookup and parsing errors
func WrapModuleError(dir string, cause error) *BaseError {
	return Wrap(ModuleErrorCode, fmt.Sprintf("cannot resolve module of %s", dir), cause).
		WithSuggestion("run castor inside a Go module (a directory tree with go.mod)")
}

// MultipleErrors collects every error found in one run
type MultipleErrors struct {
	Errors []GeneratorError
}

// Add adds an error to the collection
func (e *MultipleErrors) Add(err GeneratorError) {
	e.Errors = append(e.Errors, err)
}

// IsEmpty returns true if there are no errors
func (e *MultipleErrors) IsEmpty() bool {
	return len(e.Errors) == 0
}

// ErrorOrNil returns nil for an empty collection, the single error for one,
// and the collection otherwise
func (e *MultipleErrors) ErrorOrNil() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}

// Error implements the error interface
func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = fmt.Sprintf("  %d. %s", i+1, err.Error())
	}
	return fmt.Sprintf("multiple errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// Unwrap exposes every collected error to errors.Is and errors.As
func (e *MultipleErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}
