package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("code", "code is required")

	assert.Equal(t, "code is required", err.Error())
	assert.Equal(t, "code", err.Field)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestUnavailable(t *testing.T) {
	err := Unavailable("executor backend is not running")

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, "executor backend is not running", err.Message)
}

func TestWrappedAppErrorSurvivesErrorsAs(t *testing.T) {
	inner := ValidationFailed("time_limit_ms", "time limit must be positive")
	wrapped := fmt.Errorf("decoding request: %w", inner)

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "time limit must be positive", appErr.Message)
	assert.True(t, errors.Is(wrapped, ErrValidation))
}
