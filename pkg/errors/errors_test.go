package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidation("bad", nil), http.StatusBadRequest},
		{NewForbidden("no"), http.StatusForbidden},
		{NewNotFound("doctor", nil), http.StatusNotFound},
		{NewConflict("dup", nil), http.StatusConflict},
		{NewUnauthorized("who", nil), http.StatusUnauthorized},
		{NewInternal(fmt.Errorf("boom")), http.StatusInternalServerError},
		{NewRateLimited("slow down"), http.StatusTooManyRequests},
		{NewTooLarge("big"), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("failed to load consent: %w", NewNotFound("consent", nil))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsForbidden(err))
	assert.Equal(t, "failed to load consent: consent not found", err.Error())
}

func TestErrorIncludesCause(t *testing.T) {
	err := NewValidation("invalid file", fmt.Errorf("too large"))
	assert.Equal(t, "invalid file: too large", err.Error())
}
