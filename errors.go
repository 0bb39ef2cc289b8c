package anvil

import (
	"github.com/xraph/anvil/errors"
)

// Re-export structured errors.
type (
	Error                  = errors.Error
	AggregateDisposalError = errors.AggregateDisposalError
	DisposalError          = errors.DisposalError
)

// ErrTypeMismatch is returned when an instance does not match the requested type.
var ErrTypeMismatch = errors.ErrTypeMismatch

// Re-export sentinel errors for error comparison using errors.Is().
var (
	ErrNotRegisteredSentinel          = errors.ErrNotRegisteredSentinel
	ErrCyclicDependencySentinel       = errors.ErrCyclicDependencySentinel
	ErrAmbiguousConstructorSentinel   = errors.ErrAmbiguousConstructorSentinel
	ErrUnresolvableDependencySentinel = errors.ErrUnresolvableDependencySentinel
	ErrConstructionSentinel           = errors.ErrConstructionSentinel
	ErrScopeRequiredSentinel          = errors.ErrScopeRequiredSentinel
	ErrScopeEndedSentinel             = errors.ErrScopeEndedSentinel
	ErrContainerDisposedSentinel      = errors.ErrContainerDisposedSentinel
)

// Re-export error helpers.
var (
	IsNotRegistered          = errors.IsNotRegistered
	IsCyclicDependency       = errors.IsCyclicDependency
	IsAmbiguousConstructor   = errors.IsAmbiguousConstructor
	IsUnresolvableDependency = errors.IsUnresolvableDependency
	IsConstructionError      = errors.IsConstructionError
	IsScopeRequired          = errors.IsScopeRequired
	IsScopeEnded             = errors.IsScopeEnded
	IsContainerDisposed      = errors.IsContainerDisposed
	IsAggregateDisposal      = errors.IsAggregateDisposal
)
