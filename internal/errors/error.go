package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConstruction Category = "construction"
	CategoryCompile      Category = "compile"
	CategoryRuntime      Category = "runtime"
	CategorySubscription Category = "subscription"
	CategoryConfig       Category = "config"
	CategorySource       Category = "source"
	CategoryCLI          Category = "cli"
)

// Severity distinguishes recoverable problems from fatal ones.
type Severity uint8

const (
	// SeverityWarning means the offending directive, subscription or evaluation
	// was skipped and the engine keeps working.
	SeverityWarning Severity = iota
	// SeverityError means the operation failed as a whole.
	SeverityError
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Location identifies where in a template an error occurred.
type Location struct {
	// Node is a short selector-like description of the node (e.g. "ul > li").
	Node string
	// Directive is the attribute or marker being compiled, if any.
	Directive string
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Directive != "" {
		return fmt.Sprintf("%s  %s", l.Node, l.Directive)
	}
	return l.Node
}

// VangoError is a structured error with location, suggestions, and documentation.
type VangoError struct {
	// Code is a unique error identifier (e.g., "E110").
	Code string

	// Category is the error type (compile, runtime, etc.).
	Category Category

	// Severity tells whether the engine could continue.
	Severity Severity

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the template location where the error occurred.
	Location *Location

	// Context contains the offending markup or expression.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is markup showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *VangoError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg = msg + ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *VangoError) Unwrap() error {
	return e.Wrapped
}

// IsFatal reports whether the error left the operation unusable.
func (e *VangoError) IsFatal() bool {
	return e.Severity == SeverityError
}

// WithNode sets the node part of the location.
func (e *VangoError) WithNode(node string) *VangoError {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.Node = node
	return e
}

// WithDirective sets the directive part of the location.
func (e *VangoError) WithDirective(directive string) *VangoError {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.Directive = directive
	return e
}

// WithSeverity overrides the registered severity.
func (e *VangoError) WithSeverity(s Severity) *VangoError {
	e.Severity = s
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *VangoError) WithSuggestion(s string) *VangoError {
	e.Suggestion = s
	return e
}

// WithExample adds a markup example to the error.
func (e *VangoError) WithExample(ex string) *VangoError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *VangoError) WithDetail(d string) *VangoError {
	e.Detail = d
	return e
}

// WithContext adds the offending source lines to the error.
func (e *VangoError) WithContext(lines ...string) *VangoError {
	e.Context = lines
	return e
}

// Wrap wraps another error.
func (e *VangoError) Wrap(err error) *VangoError {
	e.Wrapped = err
	return e
}

// New creates a VangoError from a registered error code.
func New(code string) *VangoError {
	template, ok := registry[code]
	if !ok {
		return &VangoError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &VangoError{
		Code:     code,
		Category: template.Category,
		Severity: template.Severity,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new VangoError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *VangoError {
	return &VangoError{
		Category: category,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a VangoError.
func FromError(err error, code string) *VangoError {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*VangoError); ok {
		return ve
	}
	return New(code).Wrap(err)
}
