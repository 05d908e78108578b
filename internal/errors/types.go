package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ServiceError defines the base interface for all composition errors
type ServiceError interface {
	error
	ErrorCode() ErrorCode
	Location() SourceLocation
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode represents the kind of error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota

	// Composition error kinds
	AmbiguousContractErrorCode
	MissingContractErrorCode
	ContractMismatchErrorCode
	AmbiguousDecoratorChainErrorCode
	MissingDecoratedImplementationErrorCode
	UnresolvedConflictErrorCode
	UnknownContractErrorCode
	DuplicateImplementationErrorCode

	// Container error kinds
	CircularDependencyErrorCode
	RegistrationErrorCode

	// Tooling error kinds
	AnnotationErrorCode
	ConfigurationErrorCode
	FileSystemErrorCode
	GenerationErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case AmbiguousContractErrorCode:
		return "AmbiguousContract"
	case MissingContractErrorCode:
		return "MissingContract"
	case ContractMismatchErrorCode:
		return "ContractMismatch"
	case AmbiguousDecoratorChainErrorCode:
		return "AmbiguousDecoratorChain"
	case MissingDecoratedImplementationErrorCode:
		return "MissingDecoratedImplementation"
	case UnresolvedConflictErrorCode:
		return "UnresolvedConflict"
	case UnknownContractErrorCode:
		return "UnknownContract"
	case DuplicateImplementationErrorCode:
		return "DuplicateImplementation"
	case CircularDependencyErrorCode:
		return "CircularDependency"
	case RegistrationErrorCode:
		return "RegistrationError"
	case AnnotationErrorCode:
		return "AnnotationError"
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case FileSystemErrorCode:
		return "FileSystemError"
	case GenerationErrorCode:
		return "GenerationError"
	default:
		return "UnknownError"
	}
}

// SourceLocation represents where an error occurred in source code
type SourceLocation struct {
	File   string // file path where error occurred
	Line   int    // line number (1-based)
	Column int    // column number (1-based)
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

// BaseError provides a common implementation of the ServiceError interface
type BaseError struct {
	Code        ErrorCode              // kind of error
	Message     string                 // error message
	Loc         SourceLocation         // where the error occurred, if known
	Cause       error                  // underlying error cause
	ContextData map[string]interface{} // identifiers involved in the failure
	Hints       []string               // helpful suggestions for fixing the error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Loc.IsEmpty() {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Loc.String(), msg)
}

// ErrorCode returns the error code
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// Location returns the source location where the error occurred
func (e *BaseError) Location() SourceLocation {
	return e.Loc
}

// Context returns the error context data
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return make(map[string]interface{})
	}
	return e.ContextData
}

// Suggestions returns helpful suggestions for fixing the error
func (e *BaseError) Suggestions() []string {
	return e.Hints
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// Is matches any ServiceError carrying the same known code, so sentinels
// like ErrUnknownContract work with errors.Is
func (e *BaseError) Is(target error) bool {
	var t ServiceError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.ErrorCode() != UnknownErrorCode && t.ErrorCode() == e.Code
}

// WithLocation adds location information to the error
func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.Loc = loc
	return e
}

// WithCause adds an underlying error cause
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

// WithContext adds context data to the error
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// WithSuggestions adds multiple helpful suggestions
func (e *BaseError) WithSuggestions(suggestions ...string) *BaseError {
	e.Hints = append(e.Hints, suggestions...)
	return e
}

// New creates a new BaseError with the specified code and message
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Hints:   make([]string, 0),
	}
}

// Newf creates a new BaseError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new error that wraps another error
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Hints:   make([]string, 0),
	}
}

// Wrapf creates a new error that wraps another error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *BaseError {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// CodeOf returns the code of the first ServiceError in err's chain
func CodeOf(err error) ErrorCode {
	var se ServiceError
	if stderrors.As(err, &se) {
		return se.ErrorCode()
	}
	return UnknownErrorCode
}

// HasCode reports whether err's chain contains a ServiceError with the code
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &BaseError{Code: code})
}

// Is and As forward to the standard library so callers need one errors import
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// MultipleErrors represents multiple errors collected together
type MultipleErrors struct {
	Errors []ServiceError
}

// Error implements the error interface
func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
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

// Add adds an error to the collection
func (e *MultipleErrors) Add(err ServiceError) {
	e.Errors = append(e.Errors, err)
}

// IsEmpty returns true if there are no errors
func (e *MultipleErrors) IsEmpty() bool {
	return len(e.Errors) == 0
}

// ErrorOrNil returns nil for an empty collection
func (e *MultipleErrors) ErrorOrNil() error {
	if e == nil || e.IsEmpty() {
		return nil
	}
	return e
}

// NewMultipleErrors creates a new MultipleErrors collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{
		Errors: make([]ServiceError, 0),
	}
}
