package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "field error", err: NewFieldError("email", "required"), want: ErrValidation},
		{name: "order not found", err: ErrOrderNotFound, want: ErrNotFound},
		{name: "wrapped stock", err: fmt.Errorf("reserve product 7: %w", ErrInsufficientStock), want: ErrConflict},
		{name: "duplicate code", err: ErrDuplicateCode, want: ErrConflict},
		{name: "exhausted codes", err: ErrCodeGenerationExhausted, want: ErrInternal},
		{name: "driver error", err: errors.New("connection reset"), want: ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestFieldError(t *testing.T) {
	err := fmt.Errorf("create order: %w", NewFieldError("items", "duplicate product 3"))

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "items", fieldErr.Field)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "duplicate product 3")
}
