package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorFormatting(t *testing.T) {
	plain := NewNotFoundError("session 7 not found")
	assert.Equal(t, "NOT_FOUND: session 7 not found", plain.Error())

	wrapped := NewInternalError("failed to purge listings", errors.New("db down"))
	assert.Equal(t, "INTERNAL: failed to purge listings: db down", wrapped.Error())
}

func TestIsType_FollowsWrapChain(t *testing.T) {
	err := fmt.Errorf("search: %w", NewUnavailableError("all sources failed", nil))

	assert.True(t, IsType(err, ErrorTypeUnavailable))
	assert.False(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeInternal))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", NewValidationError("bad budget"), ErrorTypeValidation},
		{"credit", NewInsufficientCreditError("no credit"), ErrorTypeInsufficientCredit},
		{"plain error", errors.New("x"), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}
