package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected string
	}{
		{ErrTypeNotFound, "NOT_FOUND"},
		{ErrTypeParsing, "PARSING"},
		{ErrTypeValidation, "VALIDATION"},
		{ErrTypeModel, "MODEL"},
		{ErrTypeRender, "RENDER"},
		{ErrTypeStorage, "STORAGE"},
		{ErrTypeConfig, "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewValidationError("data must contain a year column"),
			wantMessage: "[VALIDATION] data must contain a year column",
		},
		{
			name:        "error with cause",
			appError:    NewParsingError("failed to parse data.csv", errors.New("wrong number of fields")),
			wantMessage: "[PARSING] failed to parse data.csv: wrong number of fields",
		},
		{
			name:        "not found",
			appError:    NewNotFoundError("data file data/data.csv"),
			wantMessage: "[NOT_FOUND] data file data/data.csv not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("singular matrix")
	err := NewModelError("design matrix is rank deficient", cause)

	assert.Same(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("fit model: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeModel, appErr.Type)
}

func TestAppError_IsCategory(t *testing.T) {
	err := fmt.Errorf("step failed: %w", NewRenderError("save chart", nil))

	assert.True(t, errors.Is(err, &AppError{Type: ErrTypeRender}))
	assert.False(t, errors.Is(err, &AppError{Type: ErrTypeModel}))
}

func TestIsType(t *testing.T) {
	inner := NewNotFoundError("sheet data")
	outer := NewParsingError("open workbook", fmt.Errorf("read: %w", inner))

	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"outer type", outer, ErrTypeParsing, true},
		{"nested type", outer, ErrTypeNotFound, true},
		{"absent type", outer, ErrTypeStorage, false},
		{"plain error", errors.New("x"), ErrTypeParsing, false},
		{"nil", nil, ErrTypeParsing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}

	assert.Equal(t, ErrTypeParsing, TypeOf(outer))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("x")))
}

func TestAppError_WithContext(t *testing.T) {
	err := NewValidationError("duplicate observation").
		WithContext("region", "Mazowieckie").
		WithContext("year", 2020)

	assert.Equal(t, "Mazowieckie", err.Context["region"])
	assert.Equal(t, 2020, err.Context["year"])

	bare := &AppError{Type: ErrTypeConfig}
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}
