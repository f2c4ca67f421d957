package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("accept: %w", State(ReasonOfferRevoked))

	assert.Equal(t, ReasonOfferRevoked, ReasonOf(err))
	assert.Equal(t, ErrState, TypeOf(err))
	assert.True(t, errors.Is(err, State(ReasonOfferRevoked)))
	assert.False(t, errors.Is(err, State(ReasonOfferExpired)))
	assert.False(t, errors.Is(err, Authorization(ReasonOfferRevoked)))
}

func TestStatusMapping(t *testing.T) {
	cases := map[*AppError]int{
		Authorization(ReasonSignerNotOwner): http.StatusForbidden,
		State(ReasonOfferDoesNotExist):      http.StatusConflict,
		Parameter(ReasonExpiresTooLow):      http.StatusBadRequest,
		Revert("nonexistent-token"):         http.StatusUnprocessableEntity,
		NewNotFound("missing"):              http.StatusNotFound,
	}
	for appErr, status := range cases {
		assert.Equal(t, status, appErr.HTTPStatus, appErr.Reason)
	}
}

func TestWrapUnknownError(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(cause)

	assert.Equal(t, ErrInternal, wrapped.Type)
	assert.Equal(t, http.StatusInternalServerError, wrapped.HTTPStatus)
	assert.Empty(t, ReasonOf(cause))
	assert.Nil(t, Wrap(nil))
}
