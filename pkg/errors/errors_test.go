package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNotFound, "vehicle not found")
	assert.Equal(t, "vehicle not found", err.Message)
	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrConflict))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("context: %w", Clone(ErrDecoderUnavailable, ""))
	assert.Equal(t, ErrDecoderUnavailable.Code, FromError(wrapped).Code)
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrDecodeFailed, "", map[string]string{"errorCode": "7"})
	assert.Equal(t, map[string]string{"errorCode": "7"}, err.Details)
	assert.Nil(t, ErrDecodeFailed.Details)
}
