package errors

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors.
const (
	CodeNotRegistered          = "NOT_REGISTERED"
	CodeCyclicDependency       = "CYCLIC_DEPENDENCY"
	CodeAmbiguousConstructor   = "AMBIGUOUS_CONSTRUCTOR"
	CodeUnresolvableDependency = "UNRESOLVABLE_DEPENDENCY"
	CodeConstructionError      = "CONSTRUCTION_ERROR"
	CodeScopeRequired          = "SCOPE_REQUIRED"
	CodeScopeEnded             = "SCOPE_ENDED"
	CodeContainerDisposed      = "CONTAINER_DISPOSED"
	CodeInvalidConfig          = "INVALID_CONFIG"
)

// Standard errors that carry no structured context.
var (
	ErrTypeMismatch          = errors.New("service type mismatch")
	ErrUnsupportedDescriptor = errors.New("unsupported implementation")
)

// =============================================================================
// STRUCTURED ERROR
// =============================================================================

// Error is a structured container error. Two errors match under errors.Is
// when their codes are equal, so the sentinels below work as match targets.
type Error struct {
	Code    string
	Message string
	Key     string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrNotRegistered reports a key with no binding.
func ErrNotRegistered(key string) *Error {
	return &Error{
		Code:    CodeNotRegistered,
		Message: "no binding registered for " + key,
		Key:     key,
	}
}

// ErrCyclicDependency reports a construction cycle. path lists the keys from
// the first occurrence of the repeated key down to the repeat.
func ErrCyclicDependency(path []string) *Error {
	key := ""
	if len(path) > 0 {
		key = path[len(path)-1]
	}
	return &Error{
		Code:    CodeCyclicDependency,
		Message: "cyclic dependency detected: " + strings.Join(path, " -> "),
		Key:     key,
		Context: map[string]any{"path": path},
	}
}

// ErrAmbiguousConstructor reports that more than one constructor of the same
// width qualifies and none is preferred.
func ErrAmbiguousConstructor(typeName string, candidates []string) *Error {
	return &Error{
		Code:    CodeAmbiguousConstructor,
		Message: fmt.Sprintf("ambiguous constructor for %s: %s", typeName, strings.Join(candidates, ", ")),
		Key:     typeName,
		Context: map[string]any{"candidates": candidates},
	}
}

// ErrUnresolvableDependency reports a constructor or property dependency that
// could not be resolved while building owner.
func ErrUnresolvableDependency(owner, dependency string, cause error) *Error {
	return &Error{
		Code:    CodeUnresolvableDependency,
		Message: fmt.Sprintf("cannot resolve dependency %s of %s", dependency, owner),
		Key:     owner,
		Cause:   cause,
		Context: map[string]any{"dependency": dependency},
	}
}

// ErrConstruction wraps a failure raised by a constructor or factory.
func ErrConstruction(key string, cause error) *Error {
	return &Error{
		Code:    CodeConstructionError,
		Message: "failed to construct " + key,
		Key:     key,
		Cause:   cause,
	}
}

// ErrScopeRequired reports a scoped binding resolved outside of a scope.
func ErrScopeRequired(key string) *Error {
	return &Error{
		Code:    CodeScopeRequired,
		Message: "scoped service " + key + " must be resolved from a scope",
		Key:     key,
	}
}

// ErrScopeEnded reports use of a scope after End.
func ErrScopeEnded(scopeID string) *Error {
	return &Error{
		Code:    CodeScopeEnded,
		Message: "scope " + scopeID + " already ended",
		Context: map[string]any{"scope_id": scopeID},
	}
}

// ErrContainerDisposed reports use of a container after Dispose.
func ErrContainerDisposed(operation string) *Error {
	return &Error{
		Code:    CodeContainerDisposed,
		Message: "container already disposed during " + operation,
		Context: map[string]any{"operation": operation},
	}
}

// ErrInvalidConfig reports an invalid configuration value.
func ErrInvalidConfig(configKey string, cause error) *Error {
	return &Error{
		Code:    CodeInvalidConfig,
		Message: "invalid configuration for key '" + configKey + "'",
		Key:     configKey,
		Cause:   cause,
	}
}

// =============================================================================
// AGGREGATE DISPOSAL ERROR
// =============================================================================

// AggregateDisposalError collects every failure raised while releasing the
// instances of a container or scope.
type AggregateDisposalError struct {
	Errors []error
}

func (e *AggregateDisposalError) Error() string {
	if len(e.Errors) == 1 {
		return "disposal failed: " + e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d disposals failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregateDisposalError) Unwrap() []error {
	return e.Errors
}

// NewAggregateDisposalError returns nil when errs is empty.
func NewAggregateDisposalError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateDisposalError{Errors: errs}
}

// DisposalError wraps the failure of a single instance.
type DisposalError struct {
	Key string
	Err error
}

func (e *DisposalError) Error() string {
	return fmt.Sprintf("dispose %s: %v", e.Key, e.Err)
}

func (e *DisposalError) Unwrap() error {
	return e.Err
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New is a convenience wrapper around errors.New.
func New(text string) error {
	return errors.New(text)
}

// Join is a convenience wrapper around errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

var (
	ErrNotRegisteredSentinel          = &Error{Code: CodeNotRegistered}
	ErrCyclicDependencySentinel       = &Error{Code: CodeCyclicDependency}
	ErrAmbiguousConstructorSentinel   = &Error{Code: CodeAmbiguousConstructor}
	ErrUnresolvableDependencySentinel = &Error{Code: CodeUnresolvableDependency}
	ErrConstructionSentinel           = &Error{Code: CodeConstructionError}
	ErrScopeRequiredSentinel          = &Error{Code: CodeScopeRequired}
	ErrScopeEndedSentinel             = &Error{Code: CodeScopeEnded}
	ErrContainerDisposedSentinel      = &Error{Code: CodeContainerDisposed}
	ErrInvalidConfigSentinel          = &Error{Code: CodeInvalidConfig}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotRegistered checks if the error is a not-registered error.
func IsNotRegistered(err error) bool {
	return Is(err, ErrNotRegisteredSentinel)
}

// IsCyclicDependency checks if the error is a cyclic dependency error.
func IsCyclicDependency(err error) bool {
	return Is(err, ErrCyclicDependencySentinel)
}

// IsAmbiguousConstructor checks if the error is an ambiguous constructor error.
func IsAmbiguousConstructor(err error) bool {
	return Is(err, ErrAmbiguousConstructorSentinel)
}

// IsUnresolvableDependency checks if the error is an unresolvable dependency error.
func IsUnresolvableDependency(err error) bool {
	return Is(err, ErrUnresolvableDependencySentinel)
}

// IsConstructionError checks if the error is a construction error.
func IsConstructionError(err error) bool {
	return Is(err, ErrConstructionSentinel)
}

// IsScopeRequired checks if the error is a scope-required error.
func IsScopeRequired(err error) bool {
	return Is(err, ErrScopeRequiredSentinel)
}

// IsScopeEnded checks if the error is a scope-ended error.
func IsScopeEnded(err error) bool {
	return Is(err, ErrScopeEndedSentinel)
}

// IsContainerDisposed checks if the error is a container-disposed error.
func IsContainerDisposed(err error) bool {
	return Is(err, ErrContainerDisposedSentinel)
}

// IsAggregateDisposal checks if the error is an aggregate disposal error.
func IsAggregateDisposal(err error) bool {
	var agg *AggregateDisposalError
	return As(err, &agg)
}
