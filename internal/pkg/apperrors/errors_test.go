package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "With Code",
			appError: &AppError{
				Code:    "TEST_CODE",
				Message: "This is a test error",
			},
			expected: "[TEST_CODE] This is a test error",
		},
		{
			name: "Without Code",
			appError: &AppError{
				Message: "This is a test error without code",
			},
			expected: "This is a test error without code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDatabaseError(cause, "failed to load customer")

	assert.ErrorIs(t, err, ErrDatabase)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[DB_ERROR] failed to load customer", err.Error())
}

func TestWrapSearchIndexError(t *testing.T) {
	cause := errors.New("index unavailable")
	err := WrapSearchIndexError(cause, "failed to upsert")

	assert.ErrorIs(t, err, ErrSearchIndex)
	assert.ErrorIs(t, err, cause)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("email", "must be a well-formed e-mail address")

	assert.ErrorIs(t, err, ErrValidation)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "email", vErr.Field)
	assert.Contains(t, err.Error(), "validation failed for field 'email'")
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "name", Message: "must not be blank"},
		{Field: "email", Message: "must not be blank"},
	}

	var err error = errs
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t,
		"validation failed for field 'name': must not be blank; validation failed for field 'email': must not be blank",
		err.Error())

	var target ValidationErrors
	assert.True(t, errors.As(err, &target))
	assert.Len(t, target, 2)
}
