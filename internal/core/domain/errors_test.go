package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNoCachedData", ErrNoCachedData},
		{"ErrOffline", ErrOffline},
		{"ErrQueryCancelled", ErrQueryCancelled},
		{"ErrDuplicateMutation", ErrDuplicateMutation},
		{"ErrNoMutationDefaults", ErrNoMutationDefaults},
		{"ErrUnauthorized", ErrUnauthorized},
		{"ErrAuthRequired", ErrAuthRequired},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestRemoteError_Kind(t *testing.T) {
	tests := []struct {
		status int
		want   RemoteErrorKind
	}{
		{0, RemoteTransport},
		{http.StatusUnauthorized, RemoteUnauthorized},
		{http.StatusForbidden, RemoteUnauthorized},
		{http.StatusBadRequest, RemoteValidation},
		{http.StatusConflict, RemoteValidation},
		{http.StatusInternalServerError, RemoteServer},
		{http.StatusBadGateway, RemoteServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := &RemoteError{Status: tt.status}
			assert.Equal(t, tt.want, err.Kind())
		})
	}
}

func TestRemoteError_Retryable(t *testing.T) {
	assert.True(t, (&RemoteError{Err: errors.New("dial tcp")}).Retryable())
	assert.True(t, (&RemoteError{Status: 503}).Retryable())
	assert.True(t, (&RemoteError{Status: 429}).Retryable())
	assert.False(t, (&RemoteError{Status: 401}).Retryable())
	assert.False(t, (&RemoteError{Status: 422}).Retryable())
}

func TestRemoteError_UnwrapsUnauthorized(t *testing.T) {
	err := fmt.Errorf("get products: %w", &RemoteError{Status: 403})
	assert.ErrorIs(t, err, ErrUnauthorized)

	var re *RemoteError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, 403, re.Status)
}

func TestRemoteError_Message(t *testing.T) {
	assert.Equal(t, "http 404: Not Found", (&RemoteError{Status: 404}).Error())
	assert.Equal(t, "http 400: codigo duplicado", (&RemoteError{Status: 400, Message: "codigo duplicado"}).Error())
	assert.Equal(t, "request failed: boom", (&RemoteError{Err: errors.New("boom")}).Error())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(ErrQueryCancelled))
	assert.False(t, IsRetryable(&RemoteError{Status: 401}))
	assert.True(t, IsRetryable(errors.New("unexpected EOF")))
	assert.True(t, IsRetryable(fmt.Errorf("wrap: %w", &RemoteError{Status: 500})))
}
