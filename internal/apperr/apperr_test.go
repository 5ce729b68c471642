package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation(CodeInvalidState, "bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict(CodeAlreadyAnswered, "twice"), http.StatusConflict},
		{Concurrency(errors.New("stale")), http.StatusConflict},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Status(), tt.err.Error())
	}
}

func TestRetryableAndExpected(t *testing.T) {
	assert.True(t, Concurrency(nil).Retryable())
	assert.False(t, Conflict(CodeAlreadyAnswered, "x").Retryable())

	assert.True(t, NotFound("x").Expected())
	assert.True(t, Conflict(CodeAlreadyCorrected, "x").Expected())
	assert.False(t, Concurrency(nil).Expected())
	assert.False(t, Internal(errors.New("x")).Expected())
}

func TestIsAndFrom(t *testing.T) {
	err := fmt.Errorf("submitting answer: %w", Validation(CodeNoPrompt, "record has no prompt"))

	assert.ErrorIs(t, err, &Error{Kind: KindValidation})
	assert.ErrorIs(t, err, &Error{Kind: KindValidation, Code: CodeNoPrompt})
	assert.NotErrorIs(t, err, &Error{Kind: KindValidation, Code: CodeInvalidAnswer})
	assert.NotErrorIs(t, err, &Error{Kind: KindConflict})

	assert.Equal(t, CodeNoPrompt, From(err).Code)
	assert.Equal(t, KindInternal, From(errors.New("plain")).Kind)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("version moved")
	assert.ErrorIs(t, Concurrency(cause), cause)
}
