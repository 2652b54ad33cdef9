package firestoredb

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketsync/pkg/errors"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", status.Error(codes.NotFound, "no doc"), "NOT_FOUND"},
		{"exists", status.Error(codes.AlreadyExists, "dup"), "CONFLICT"},
		{"rules", status.Error(codes.PermissionDenied, "denied"), "PERMISSION_DENIED"},
		{"unavailable", status.Error(codes.Unavailable, "down"), "UNAVAILABLE"},
		{"contention", status.Error(codes.Aborted, "too much contention"), "UNAVAILABLE"},
		{"deadline", context.DeadlineExceeded, "UNAVAILABLE"},
		{"other", stderrors.New("boom"), "INTERNAL_ERROR"},
		{"app error passes", errors.Forbidden("nope", nil), "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err, "Item")
			assert.True(t, errors.Is(got, tt.code), "got %v", got)
		})
	}
}

func TestTranslateNil(t *testing.T) {
	assert.NoError(t, Translate(nil, "Item"))
}

func TestTranslateRetryable(t *testing.T) {
	assert.True(t, errors.Retryable(Translate(status.Error(codes.Unavailable, ""), "Item")))
	assert.False(t, errors.Retryable(Translate(status.Error(codes.NotFound, ""), "Item")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(status.Error(codes.NotFound, "")))
	assert.False(t, IsNotFound(stderrors.New("x")))
	assert.False(t, IsNotFound(nil))
}
