package poke

import (
	"github.com/xraph/poke/errors"
)

// Error constructors.
var (
	ErrProviderMissing    = errors.ErrProviderMissing
	ErrProviderConflict   = errors.ErrProviderConflict
	ErrProvideFailure     = errors.ErrProvideFailure
	ErrCircularDependency = errors.ErrCircularDependency
	ErrInjectionFailure   = errors.ErrInjectionFailure
	ErrInvalidConfig      = errors.ErrInvalidConfig
	ErrRuntimeClosed      = errors.ErrRuntimeClosed
	NewBindingError       = errors.NewBindingError
)

// Error helpers.
var (
	IsProviderMissing    = errors.IsProviderMissing
	IsProviderConflict   = errors.IsProviderConflict
	IsProvideFailure     = errors.IsProvideFailure
	IsCircularDependency = errors.IsCircularDependency
	IsInjectionFailure   = errors.IsInjectionFailure
	IsInvalidConfig      = errors.IsInvalidConfig
	ErrorCode            = errors.Code
)

// Sentinel errors for use with errors.Is.
var (
	ErrProviderMissingSentinel    = errors.ErrProviderMissingSentinel
	ErrProviderConflictSentinel   = errors.ErrProviderConflictSentinel
	ErrProvideFailureSentinel     = errors.ErrProvideFailureSentinel
	ErrCircularDependencySentinel = errors.ErrCircularDependencySentinel
	ErrInjectionFailureSentinel   = errors.ErrInjectionFailureSentinel
	ErrInvalidConfigSentinel      = errors.ErrInvalidConfigSentinel
	ErrRuntimeClosedSentinel      = errors.ErrRuntimeClosedSentinel
)

// PokeError is the structured error returned by graph operations.
type PokeError = errors.PokeError

// BindingError wraps a hook failure with the binding it belongs to.
type BindingError = errors.BindingError
