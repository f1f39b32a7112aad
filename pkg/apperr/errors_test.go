package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeEventFull, "event abc is full", errors.New("guarded update matched no row"))
	wrapped := fmt.Errorf("register: %w", err)

	require.ErrorIs(t, wrapped, ErrEventFull)
	assert.NotErrorIs(t, wrapped, ErrDuplicateRegistration)
	assert.Equal(t, CodeEventFull, CodeOf(wrapped))
	assert.Equal(t, "event abc is full", MessageOf(wrapped))
}

func TestCodeOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, CodeUnknown, CodeOf(err))
	assert.Equal(t, "internal error", MessageOf(err))
}

func TestCodesAreDistinct(t *testing.T) {
	all := []Code{
		CodeInvalidTransition, CodeEventNotOpen, CodeEventNotActive, CodeEventFull,
		CodeDuplicateRegistration, CodeNotRegistered, CodeAlreadyCheckedIn, CodeNoActiveSession,
		CodeNotFound, CodeConstraintViolation, CodePersistenceUnavailable, CodeForbidden,
		CodeInvalidArgument,
	}
	seen := make(map[Code]bool, len(all))
	for _, c := range all {
		require.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeEventFull:              http.StatusUnprocessableEntity,
		CodeInvalidTransition:      http.StatusUnprocessableEntity,
		CodeAlreadyCheckedIn:       http.StatusConflict,
		CodeDuplicateRegistration:  http.StatusConflict,
		CodeNotRegistered:          http.StatusNotFound,
		CodeForbidden:              http.StatusForbidden,
		CodePersistenceUnavailable: http.StatusServiceUnavailable,
		CodeUnknown:                http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), code)
	}
	assert.True(t, CodePersistenceUnavailable.Retryable())
	assert.False(t, CodeEventFull.Retryable())
}
