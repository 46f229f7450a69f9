package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := NotFound("complete", "task %d", 42)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "complete: not found: task 42", err.Error())

	wrapped := fmt.Errorf("outer: %w", Validation("bootstrap", "no start block"))
	assert.True(t, errors.Is(wrapped, ErrValidation))
}

func TestPartial(t *testing.T) {
	assert.NoError(t, Partial("fan-out", nil))

	inner := NotFound("activate", "task 7")
	err := Partial("fan-out", []error{inner, errors.New("disk full")})
	assert.True(t, errors.Is(err, ErrPartialFailure))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "(2 failed)")
}
