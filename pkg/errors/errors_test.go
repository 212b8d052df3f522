package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorHidesUntypedCause(t *testing.T) {
	cause := fmt.Errorf("pq: relation \"users\" does not exist")
	appErr := FromError(cause)

	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
	assert.ErrorIs(t, appErr, cause)
}

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", Clone(ErrDuplicateEmail, ""))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrDuplicateEmail.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestIsComparesCodes(t *testing.T) {
	clone := Clone(ErrForbidden, "class outside scope")
	assert.True(t, errors.Is(clone, ErrForbidden))
	assert.False(t, errors.Is(clone, ErrUnauthenticated))

	wrapped := Wrap(errors.New("boom"), ErrInvalidToken.Code, ErrInvalidToken.Status, "token rejected")
	assert.True(t, errors.Is(wrapped, ErrInvalidToken))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "Missing required fields")
	assert.Equal(t, "Missing required fields", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Nil(t, Clone(nil, "x"))
}
