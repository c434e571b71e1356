package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/CarbonSMASH/push-relay/errors"
	"github.com/CarbonSMASH/push-relay/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorEngine(fail func(c *gin.Context)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/fail", fail)
	return r
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler_AppErrorWireFormat(t *testing.T) {
	cases := []struct {
		name       string
		err        *apperrors.AppError
		wantStatus int
		wantError  string
	}{
		{"missing fields", apperrors.MissingFields(), http.StatusBadRequest, "Missing required fields"},
		{"invalid secret", apperrors.InvalidSecret(), http.StatusForbidden, "Invalid secret"},
		{"no tokens", apperrors.NoTokensRegistered(), http.StatusNotFound, "No push tokens registered"},
		{"upstream", apperrors.UpstreamUnavailable(errors.New("refused")), http.StatusBadGateway, "Push delivery failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := errorEngine(func(c *gin.Context) {
				if err := c.Error(tc.err); err != nil {
					c.Abort()
				}
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/fail", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantError, errorBody(t, w).Error)
		})
	}
}

func TestErrorHandler_UnknownErrorIs500(t *testing.T) {
	r := errorEngine(func(c *gin.Context) {
		_ = c.Error(errors.New("redis exploded: AUTH failed for user admin"))
		c.Abort()
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/fail", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal detail never reaches the client.
	assert.Equal(t, "Internal server error", errorBody(t, w).Error)
	assert.NotContains(t, w.Body.String(), "AUTH failed")
}

func TestErrorHandler_NoErrorPassesThrough(t *testing.T) {
	r := errorEngine(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/fail", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
