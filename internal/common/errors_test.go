package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{ErrNotFound, ErrValidation, ErrCreate, ErrUpload, ErrDelete, ErrUnauthorized, ErrInvalidToken}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("%w: title is required", ErrValidation)
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "validation error: title is required")
}
