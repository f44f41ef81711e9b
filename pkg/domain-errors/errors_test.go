package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeInvalidTransition, "draft cannot reach approved")
		assert.True(t, HasCode(err, CodeInvalidTransition))
		assert.False(t, HasCode(err, CodePermissionDenied))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		inner := New(CodeConflictingRFI, "an information request is already open")
		err := fmt.Errorf("issue rfi: %w", inner)
		assert.True(t, HasCode(err, CodeConflictingRFI))
	})

	t.Run("uncoded errors match nothing", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("version mismatch")
	err := Wrap(cause, CodeConcurrentModification, "request was modified concurrently")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeConcurrentModification, CodeOf(err))
}

func TestDetails(t *testing.T) {
	err := New(CodeInvalidTransition, "no edge").
		WithDetail("request_id", "r-1").
		WithDetail("target_state", "Approved")

	details := DetailsOf(fmt.Errorf("transition: %w", err))
	require.NotNil(t, details)
	assert.Equal(t, "r-1", details["request_id"])
	assert.Equal(t, "Approved", details["target_state"])
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidTransition, http.StatusUnprocessableEntity},
		{CodePermissionDenied, http.StatusForbidden},
		{CodeAssessmentIncomplete, http.StatusUnprocessableEntity},
		{CodeNoTemplateConfigured, http.StatusInternalServerError},
		{CodeConflictingRFI, http.StatusConflict},
		{CodeConcurrentModification, http.StatusConflict},
		{CodeIncompletePaymentDetails, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
