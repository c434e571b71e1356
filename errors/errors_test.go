package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomyStatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantMsg    string
	}{
		{"missing fields", MissingFields(), http.StatusBadRequest, "Missing required fields"},
		{"invalid secret", InvalidSecret(), http.StatusForbidden, "Invalid secret"},
		{"no tokens", NoTokensRegistered(), http.StatusNotFound, "No push tokens registered"},
		{"upstream", UpstreamUnavailable(errors.New("refused")), http.StatusBadGateway, "Push delivery failed"},
		{"rate limited", RateLimitExceeded("Too many requests", 30), http.StatusTooManyRequests, "Too many requests"},
		{"internal", InternalServerError("Internal server error"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantStatus, tc.err.GetHTTPStatus())
			assert.Equal(t, tc.wantMsg, tc.err.Message)
		})
	}
}

func TestNewDerivesStatusFromType(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, New(ValidationError, "bad", "").GetHTTPStatus())
	assert.Equal(t, http.StatusForbidden, New(UnauthorizedErr, "no", "").GetHTTPStatus())
	assert.Equal(t, http.StatusMethodNotAllowed, New(MethodError, "nope", "").GetHTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, New(ServerError, "boom", "").GetHTTPStatus())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	appErr := Wrap(cause, UpstreamError, "Push delivery failed")

	require.NotNil(t, appErr)
	assert.Equal(t, cause, errors.Unwrap(appErr))
	assert.True(t, errors.Is(appErr, cause))
	assert.Equal(t, cause.Error(), appErr.Detail)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, UpstreamError, "ignored"))
}

func TestErrorStringIncludesDetail(t *testing.T) {
	withDetail := ValidationFailed("Invalid request body", "unexpected EOF")
	assert.Contains(t, withDetail.Error(), "Invalid request body")
	assert.Contains(t, withDetail.Error(), "unexpected EOF")

	withoutDetail := InvalidSecret()
	assert.Contains(t, withoutDetail.Error(), "Invalid secret")
}

func TestZeroStatusDefaultsTo500(t *testing.T) {
	e := &AppError{Type: ServerError, Message: "boom"}
	assert.Equal(t, http.StatusInternalServerError, e.GetHTTPStatus())
}
