package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAs_FindsWrappedStandardError(t *testing.T) {
	cause := stderrors.New("connection reset")
	wrapped := fmt.Errorf("create application: %w", NewBatchWriteFailedError("create-application", cause))

	stdErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeBatchWriteFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.True(t, HasCode(wrapped, ErrCodeBatchWriteFailed))
	assert.False(t, HasCode(wrapped, ErrCodePartialWrite))
}

func TestNormalize(t *testing.T) {
	plain := stderrors.New("boom")
	n := Normalize(plain)
	assert.Equal(t, ErrCodeInternal, n.Code)
	assert.Equal(t, "boom", n.Details)

	v := NewValidationError("company is required")
	assert.Same(t, v, Normalize(v))
}

func TestPartialWriteIsDistinctAndNotRetryable(t *testing.T) {
	err := NewPartialWriteError("complete-follow-up", stderrors.New("commit failed"))
	assert.Equal(t, ErrCodePartialWrite, err.Code)
	assert.False(t, err.Retryable)
	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err.Code))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeAuthentication, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeApplicationNotFound, http.StatusNotFound},
		{ErrCodeFollowUpNotFound, http.StatusNotFound},
		{ErrCodeFollowUpAlreadyCompleted, http.StatusConflict},
		{ErrCodeEmailTaken, http.StatusConflict},
		{ErrCodeBatchWriteFailed, http.StatusServiceUnavailable},
		{ErrCodeWorkflowEngine, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), string(tt.code))
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewNotificationSendFailedError("email", stderrors.New("throttled"))

	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "NOTIFICATION_SEND_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "NOTIFICATION_SEND_FAILED", vars["errorCode"])
	assert.Equal(t, "NOTIFICATION_SEND_FAILED", vars["originalErrorCode"])
	assert.Equal(t, true, vars["retryable"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeInvalidCredentials))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodePartialWrite))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationFailed))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeApplicationNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeFollowUpAlreadyCompleted))
	assert.Equal(t, "WORKFLOW", GetErrorCategory(ErrCodeWorkflowEngine))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestWithMetadata(t *testing.T) {
	err := NewApplicationNotFoundError("app-1").WithMetadata("userId", "user-1")
	assert.Equal(t, "user-1", err.Metadata["userId"])
	assert.Contains(t, err.Error(), "APPLICATION_NOT_FOUND")
}
