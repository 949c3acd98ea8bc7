package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors.
const (
	CodeProviderMissing    = "PROVIDER_MISSING"
	CodeProviderConflict   = "PROVIDER_CONFLICT"
	CodeProvideFailure     = "PROVIDE_FAILURE"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
	CodeInjectionFailure   = "INJECTION_FAILURE"
	CodeInvalidConfig      = "INVALID_CONFIG"
	CodeRuntimeClosed      = "RUNTIME_CLOSED"
)

// =============================================================================
// BINDING ERRORS
// =============================================================================

// BindingError wraps an error raised by a hook attached to one binding, such as
// an injected listener or a lifecycle method.
type BindingError struct {
	Binding   string
	Operation string
	Err       error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("binding %s: %s: %v", e.Binding, e.Operation, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface for BindingError.
func (e *BindingError) Is(target error) bool {
	t, ok := target.(*BindingError)
	if !ok {
		return false
	}

	return (e.Binding == "" || t.Binding == "" || e.Binding == t.Binding) &&
		(e.Operation == "" || t.Operation == "" || e.Operation == t.Operation)
}

// NewBindingError creates a new binding error.
func NewBindingError(binding, operation string, err error) *BindingError {
	return &BindingError{
		Binding:   binding,
		Operation: operation,
		Err:       err,
	}
}

// =============================================================================
// POKE ERROR (STRUCTURED ERROR)
// =============================================================================

// PokeError represents a structured error with context.
type PokeError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]any
}

func (e *PokeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

func (e *PokeError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is interface for PokeError.
// Compares by error code, allowing matching against sentinel errors.
func (e *PokeError) Is(target error) bool {
	t, ok := target.(*PokeError)
	if !ok {
		return false
	}

	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error.
func (e *PokeError) WithContext(key string, value any) *PokeError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value

	return e
}

func newError(code, message string, cause error, ctx map[string]any) *PokeError {
	if ctx == nil {
		ctx = make(map[string]any)
	}

	return &PokeError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   ctx,
	}
}

// ErrProviderMissing is returned when no attached component binds the key.
func ErrProviderMissing(binding string) *PokeError {
	return newError(CodeProviderMissing, "no provider bound for '"+binding+"'", nil,
		map[string]any{"binding": binding})
}

// ErrProviderConflict is returned for a duplicate registration within one
// component, or an ambiguous match refused by the strict search policy.
func ErrProviderConflict(binding string, components ...string) *PokeError {
	msg := "provider for '" + binding + "' already registered"
	if len(components) > 0 {
		msg += " in " + strings.Join(components, ", ")
	}

	return newError(CodeProviderConflict, msg, nil,
		map[string]any{"binding": binding, "components": components})
}

// ErrProvideFailure is returned when an instance cannot be constructed.
func ErrProvideFailure(binding string, cause error) *PokeError {
	return newError(CodeProvideFailure, "failed to provide '"+binding+"'", cause,
		map[string]any{"binding": binding})
}

// ErrCircularDependency is returned when an unscoped binding is re-entered
// while it is still being resolved.
func ErrCircularDependency(chain []string) *PokeError {
	return newError(CodeCircularDependency, "circular dependency detected: "+strings.Join(chain, " -> "), nil,
		map[string]any{"chain": chain})
}

// ErrInjectionFailure is returned when locating or assigning an injection
// point fails.
func ErrInjectionFailure(target, point string, cause error) *PokeError {
	msg := "failed to inject " + target
	if point != "" {
		msg += "." + point
	}

	return newError(CodeInjectionFailure, msg, cause,
		map[string]any{"target": target, "point": point})
}

// ErrInvalidConfig is returned when configuration fails validation.
func ErrInvalidConfig(configKey string, cause error) *PokeError {
	return newError(CodeInvalidConfig, "invalid configuration for key '"+configKey+"'", cause,
		map[string]any{"config_key": configKey})
}

// ErrRuntimeClosed is returned when a closed or uninitialised runtime is used.
func ErrRuntimeClosed(operation string) *PokeError {
	return newError(CodeRuntimeClosed, "runtime unavailable during "+operation, nil,
		map[string]any{"operation": operation})
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
//
// Example:
//
//	err := ErrProviderMissing("*app.Repo")
//	if Is(err, &PokeError{Code: "PROVIDER_MISSING"}) {
//	    // register a provider
//	}
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap is a convenience wrapper around errors.Unwrap from the standard library.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New is a convenience wrapper around errors.New from the standard library.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
// Any nil error values are discarded.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

// Sentinel errors that can be used with errors.Is comparisons.
var (
	// ErrProviderMissingSentinel matches any provider missing error.
	ErrProviderMissingSentinel = &PokeError{Code: CodeProviderMissing}

	// ErrProviderConflictSentinel matches any provider conflict error.
	ErrProviderConflictSentinel = &PokeError{Code: CodeProviderConflict}

	// ErrProvideFailureSentinel matches any provide failure.
	ErrProvideFailureSentinel = &PokeError{Code: CodeProvideFailure}

	// ErrCircularDependencySentinel matches any circular dependency error.
	ErrCircularDependencySentinel = &PokeError{Code: CodeCircularDependency}

	// ErrInjectionFailureSentinel matches any injection failure.
	ErrInjectionFailureSentinel = &PokeError{Code: CodeInjectionFailure}

	// ErrInvalidConfigSentinel matches any invalid config error.
	ErrInvalidConfigSentinel = &PokeError{Code: CodeInvalidConfig}

	// ErrRuntimeClosedSentinel matches any runtime closed error.
	ErrRuntimeClosedSentinel = &PokeError{Code: CodeRuntimeClosed}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsProviderMissing checks if the error is a provider missing error.
func IsProviderMissing(err error) bool {
	return Is(err, ErrProviderMissingSentinel)
}

// IsProviderConflict checks if the error is a provider conflict error.
func IsProviderConflict(err error) bool {
	return Is(err, ErrProviderConflictSentinel)
}

// IsProvideFailure checks if the error is a provide failure.
func IsProvideFailure(err error) bool {
	return Is(err, ErrProvideFailureSentinel)
}

// IsCircularDependency checks if the error is a circular dependency error.
func IsCircularDependency(err error) bool {
	return Is(err, ErrCircularDependencySentinel)
}

// IsInjectionFailure checks if the error is an injection failure.
func IsInjectionFailure(err error) bool {
	return Is(err, ErrInjectionFailureSentinel)
}

// IsInvalidConfig checks if the error is an invalid config error.
func IsInvalidConfig(err error) bool {
	return Is(err, ErrInvalidConfigSentinel)
}

// Code returns the code of the first PokeError in err's chain, or "" if there
// is none.
func Code(err error) string {
	var pe *PokeError
	if As(err, &pe) {
		return pe.Code
	}

	return ""
}
