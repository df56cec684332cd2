package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"op only", NewError("delete", base), "delete: boom"},
		{"container", NewContainerError("listObjects", "logs", base), "listObjects container logs: boom"},
		{"object", NewObjectError("delete", "logs", "a.txt", base), "delete logs/a.txt: boom"},
		{"key only", NewError("delete", base).WithKey("a.txt"), "delete object a.txt: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_UnwrapKeepsSentinel(t *testing.T) {
	err := NewObjectError("delete", "logs", "a.txt", ErrAccessDenied).WithMessage("permission error")

	assert.True(t, IsAccessDenied(err))
	assert.False(t, IsObjectNotFound(err))
	assert.Contains(t, err.Error(), "permission error")
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"not found", fmt.Errorf("wrap: %w", ErrObjectNotFound), CodeNotFound},
		{"container not found", ErrContainerNotFound, CodeNotFound},
		{"denied", NewError("delete", ErrAccessDenied), CodeForbidden},
		{"credentials", ErrInvalidCredentials, CodeUnauthorized},
		{"invalid name", ErrInvalidContainerName, CodeInvalidInput},
		{"canceled", context.Canceled, CodeCanceled},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"connection", ErrConnection, CodeNetwork},
		{"panic", ErrPanic, CodeInternal},
		{"unknown", errors.New("mystery"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	cause := errors.New("StatusCode=403 AuthorizationFailure")

	err := Classify(ErrAccessDenied, cause)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "AuthorizationFailure")

	assert.Same(t, cause, Classify(nil, cause))
	assert.Nil(t, Classify(ErrAccessDenied, nil))

	already := fmt.Errorf("wrap: %w", ErrTimeout)
	assert.Equal(t, already, Classify(ErrTimeout, already))
}
