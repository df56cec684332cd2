// Package errors provides error types and handling for bulk blob deletion.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a storage operation error with context about the operation that failed.
// It wraps the underlying SDK error with the container and object it concerned.
type Error struct {
	// Op is the operation that failed (e.g., "listContainers", "listObjects", "delete")
	Op string

	// Container is the container name (if applicable)
	Container string

	// Key is the object identifier (if applicable)
	Key string

	// Err is the underlying error from the storage SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Container != "" && e.Key != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Container, e.Key, e.Err)
	}
	if e.Container != "" {
		return fmt.Sprintf("%s container %s: %v", e.Op, e.Container, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithContainer adds container context to an existing error.
func (e *Error) WithContainer(container string) *Error {
	e.Container = container
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewContainerError creates a new Error with container context.
func NewContainerError(op, container string, err error) *Error {
	return &Error{
		Op:        op,
		Container: container,
		Err:       err,
	}
}

// NewObjectError creates a new Error with container and key context.
func NewObjectError(op, container, key string, err error) *Error {
	return &Error{
		Op:        op,
		Container: container,
		Key:       key,
		Err:       err,
	}
}

// Sentinel errors for common failures.
// Backends wrap provider errors with these so callers can use errors.Is.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrContainerNotFound indicates that the requested container does not exist
	ErrContainerNotFound = errors.New("container not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates the connection string or credential was rejected
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidContainerName indicates that the container name is invalid
	ErrInvalidContainerName = errors.New("invalid container name")

	// ErrInvalidObjectKey indicates that the object identifier is invalid
	ErrInvalidObjectKey = errors.New("invalid object key")

	// ErrNoContainers indicates the storage account holds no containers
	ErrNoContainers = errors.New("no containers found")

	// ErrNoObjects indicates the selected container holds no objects
	ErrNoObjects = errors.New("no blobs found in this container")

	// ErrTimeout indicates that the operation timed out
	ErrTimeout = errors.New("operation timeout")

	// ErrConnection indicates a connection error
	ErrConnection = errors.New("connection error")

	// ErrPanic indicates a backend call panicked and was recovered
	ErrPanic = errors.New("backend panic")

	// ErrUnsupportedBackend indicates the configured backend is unknown
	ErrUnsupportedBackend = errors.New("unsupported backend")
)

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsContainerNotFound checks if an error indicates that a container was not found.
func IsContainerNotFound(err error) bool {
	return errors.Is(err, ErrContainerNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidContainerName) ||
		errors.Is(err, ErrInvalidObjectKey)
}

// Classify attaches a sentinel to a provider error. Both remain reachable
// through errors.Is and errors.As, and the message keeps the provider detail.
func Classify(sentinel, cause error) error {
	if cause == nil {
		return nil
	}
	if sentinel == nil || errors.Is(cause, sentinel) {
		return cause
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}
