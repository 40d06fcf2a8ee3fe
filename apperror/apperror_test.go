package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("empty order"), http.StatusBadRequest},
		{NotFound("order not found"), http.StatusNotFound},
		{Unauthorized("invalid token"), http.StatusUnauthorized},
		{Forbidden("admin only"), http.StatusForbidden},
		{Conflict("email taken"), http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
		{fmt.Errorf("create order: %w", Validation("bad")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("dial tcp 10.0.0.3:5432: refused")))
	assert.Equal(t, "Internal server error", PublicMessage(&Error{Kind: KindInternal, Message: "store failed", Err: errors.New("boom")}))
	assert.Equal(t, "Tiramisu is currently unavailable", PublicMessage(Validation("%s is currently unavailable", "Tiramisu")))
}

func TestSentinelMatchesThroughWrapping(t *testing.T) {
	sentinel := Validation("order must contain at least one item")
	wrapped := fmt.Errorf("create order: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, "validation", KindOf(wrapped).String())
}
