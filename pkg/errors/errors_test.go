package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"invalid state", ErrInvalidState("wave is not planned"), CodeInvalidState, http.StatusConflict},
		{"no matching work", ErrNoMatchingWork("no orders"), CodeNoMatchingWork, http.StatusUnprocessableEntity},
		{"already assigned", ErrAlreadyAssigned("picker busy"), CodeAlreadyAssigned, http.StatusConflict},
		{"not found", ErrNotFound("wave"), CodeNotFound, http.StatusNotFound},
		{"validation", ErrValidation("bad"), CodeValidationError, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAppError_WrapKeepsSentinel(t *testing.T) {
	sentinel := stderrors.New("wave not found")
	appErr := ErrNotFoundWithID("wave", "WAVE-1").Wrap(sentinel)
	wrapped := fmt.Errorf("release: %w", appErr)

	assert.True(t, stderrors.Is(wrapped, sentinel))

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "WAVE-1", got.Details["id"])
	assert.Contains(t, got.Error(), "wave not found")
}

func TestMapDomainError(t *testing.T) {
	assert.Nil(t, MapDomainError(nil))

	existing := ErrAlreadyAssigned("busy")
	assert.Same(t, existing, MapDomainError(fmt.Errorf("wrapped: %w", existing)))

	assert.Equal(t, CodeNotFound, MapDomainError(stderrors.New("zone not found")).Code)
	assert.Equal(t, CodeValidationError, MapDomainError(stderrors.New("Invalid criteria")).Code)
	assert.Equal(t, CodeTimeout, MapDomainError(stderrors.New("context deadline exceeded")).Code)
	assert.Equal(t, CodeInternalError, MapDomainError(stderrors.New("boom")).Code)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	appErr := FromError(stderrors.New("boom"))
	assert.Equal(t, CodeInternalError, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}
