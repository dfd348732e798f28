package castor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies the category of a castor error
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	ConfigurationErrorCode
	NamingErrorCode
	RegistrationErrorCode
	HookErrorCode
	InvocationErrorCode
	BindingErrorCode
)

// String returns the string representation of the error code
func (c ErrorCode) String() string {
	switch c {
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case NamingErrorCode:
		return "NamingError"
	case RegistrationErrorCode:
		return "RegistrationError"
	case HookErrorCode:
		return "HookError"
	case InvocationErrorCode:
		return "InvocationError"
	case BindingErrorCode:
		return "BindingError"
	default:
		return "UnknownError"
	}
}

var (
	// ErrControllerClosed is returned by operations invoked after Controller.Close.
	ErrControllerClosed = errors.New("castor: controller is closed")

	// ErrOperationNotFound is returned when invoking a name the controller does not expose.
	ErrOperationNotFound = errors.New("castor: operation not found")
)

// CastorError is implemented by every typed error produced by this package
type CastorError interface {
	error
	ErrorCode() ErrorCode
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// BaseError provides the common implementation of CastorError
type BaseError struct {
	Code        ErrorCode
	Message     string
	Cause       error
	ContextData map[string]interface{}
	Hints       []string
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

// ErrorCode returns the error code
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// Context returns the error context data
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return make(map[string]interface{})
	}
	return e.ContextData
}

// Suggestions returns hints for fixing the error
func (e *BaseError) Suggestions() []string {
	return e.Hints
}

// Unwrap returns the underlying cause
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithContext adds context data to the error
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion appends a hint
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

func newBase(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Hints:   make([]string, 0),
	}
}

// ConfigurationError reports invalid or missing Options, surfaced before any
// controller is produced or, for fresh-per-call factories, before the call runs.
type ConfigurationError struct {
	*BaseError
	Field string
}

// NewConfigurationError creates a configuration error for the given option field
func NewConfigurationError(field, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		BaseError: newBase(ConfigurationErrorCode, fmt.Sprintf("invalid option %s: %s", field, message), cause).
			WithContext("field", field),
		Field: field,
	}
}

// NamingError reports a resolved operation name that cannot be exposed
type NamingError struct {
	*BaseError
	Method   string
	Resolved string
}

// NewNamingError creates a naming error
func NewNamingError(method, resolved, message string) *NamingError {
	return &NamingError{
		BaseError: newBase(NamingErrorCode, fmt.Sprintf("method %s resolved to %q: %s", method, resolved, message), nil).
			WithContext("method", method).
			WithContext("resolved", resolved),
		Method:   method,
		Resolved: resolved,
	}
}

// RegistrationError reports a failure handing a controller to the host
type RegistrationError struct {
	*BaseError
	Controller string
}

// NewRegistrationError creates a registration error
func NewRegistrationError(controller, message string, cause error) *RegistrationError {
	return &RegistrationError{
		BaseError:  newBase(RegistrationErrorCode, fmt.Sprintf("failed to register %s: %s", controller, message), cause),
		Controller: controller,
	}
}

// HookStage identifies which lifecycle hook failed
type HookStage string

const (
	StageBefore HookStage = "before"
	StageAfter  HookStage = "after"
)

// HookError wraps a failure returned by a before- or after-hook
type HookError struct {
	*BaseError
	Stage     HookStage
	Operation string
}

// NewHookError creates a hook error
func NewHookError(stage HookStage, operation string, cause error) *HookError {
	return &HookError{
		BaseError: newBase(HookErrorCode, fmt.Sprintf("%s-hook failed for %s", stage, operation), cause).
			WithContext("stage", string(stage)),
		Stage:     stage,
		Operation: operation,
	}
}

// InvocationError reports a failure inside the wrapped call itself
type InvocationError struct {
	*BaseError
	Operation string
}

// NewInvocationError creates an invocation error
func NewInvocationError(operation, message string, cause error) *InvocationError {
	return &InvocationError{
		BaseError: newBase(InvocationErrorCode, fmt.Sprintf("%s: %s", operation, message), cause),
		Operation: operation,
	}
}

// BindingError reports arguments that could not be bound to the wrapped method
type BindingError struct {
	*BaseError
	Operation string
	Param     string
}

// NewBindingError creates a binding error
func NewBindingError(operation, param, message string, cause error) *BindingError {
	msg := fmt.Sprintf("%s: %s", operation, message)
	if param != "" {
		msg = fmt.Sprintf("%s: parameter %s: %s", operation, param, message)
	}
	return &BindingError{
		BaseError: newBase(BindingErrorCode, msg, cause),
		Operation: operation,
		Param:     param,
	}
}

// MultipleErrors collects several castor errors, e.g. every naming violation of a cast
type MultipleErrors struct {
	Errors []CastorError
}

// Error implements the error interface
func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	messages := make([]string, 0, len(e.Errors))
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
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

// Add appends an error to the collection
func (e *MultipleErrors) Add(err CastorError) {
	e.Errors = append(e.Errors, err)
}

// ErrOrNil returns nil for an empty collection
func (e *MultipleErrors) ErrOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
