package cli

import (
	stderrors "errors"

	"github.com/toyz/castor/internal/errors"
	"github.com/toyz/castor/internal/utils"
)

// DiagnosticReporter prints generator errors with their locations and hints
type DiagnosticReporter struct {
	diagnostics *utils.DiagnosticSystem
}

// NewDiagnosticReporter creates a new diagnostic reporter
func NewDiagnosticReporter(diagnostics *utils.DiagnosticSystem) *DiagnosticReporter {
	return &DiagnosticReporter{diagnostics: diagnostics}
}

// ReportWarning prints a warning and its suggestions
func (r *DiagnosticReporter) ReportWarning(message string, suggestions ...string) {
	r.diagnostics.Warn("%s", message)
	for _, s := range suggestions {
		r.diagnostics.Suggest("%s", s)
	}
}

// ReportError prints every error err carries, one block each
func (r *DiagnosticReporter) ReportError(err error) {
	for _, ge := range flatten(err) {
		if r.diagnostics.Level() >= utils.DiagnosticVerbose {
			r.diagnostics.Error("%s (%s)", ge.Error(), ge.ErrorCode())
		} else {
			r.diagnostics.Error("%s", ge.Error())
		}
		for _, s := range ge.Suggestions() {
			r.diagnostics.Suggest("%s", s)
		}
	}
}

// flatten expands collections and lifts plain errors into GeneratorErrors
func flatten(err error) []errors.GeneratorError {
	if err == nil {
		return nil
	}
	var multi *errors.MultipleErrors
	if stderrors.As(err, &multi) {
		return multi.Errors
	}
	var ge errors.GeneratorError
	if stderrors.As(err, &ge) {
		return []errors.GeneratorError{ge}
	}
	return []errors.GeneratorError{errors.Wrap(errors.UnknownErrorCode, "generation failed", err)}
}
