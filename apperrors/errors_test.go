package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithStageKeepsKindAndStatus(t *testing.T) {
	err := WithStage("resolve", Forbidden("unauthorized access to wardrobe items", nil))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindAuthorization, appErr.Kind)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "resolve", appErr.Stage)
	assert.Equal(t, "resolve: unauthorized access to wardrobe items", appErr.Error())
}

func TestWithStageDoesNotOverwriteInnerStage(t *testing.T) {
	inner := WithStage("assemble", Upstream("image processing failed for item a", true, nil))
	err := WithStage("generate", inner)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "assemble", appErr.Stage)
	assert.True(t, appErr.Retryable)
}

func TestWithStageWrapsUnknownErrorsAsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	err := WithStage("resolve", cause)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, appErr.Message, "connection reset")
}

func TestWithStageNil(t *testing.T) {
	assert.NoError(t, WithStage("resolve", nil))
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("Validation error"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("invalid token", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope", nil), http.StatusForbidden},
		{"not found", NotFound("Item not found", nil), http.StatusNotFound},
		{"conflict", Conflict("User already exists", nil), http.StatusConflict},
		{"rate limited", RateLimited("slow down"), http.StatusTooManyRequests},
		{"upstream", Upstream("failed to parse model response", false, nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("x", nil)), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("ctx: %w", Upstream("failed to parse model response", false, nil))
	assert.True(t, IsKind(err, KindUpstream))
	assert.False(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(errors.New("x"), KindUpstream))
}
