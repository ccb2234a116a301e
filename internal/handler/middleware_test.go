package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAccessLogUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()

	var inner http.ResponseWriter
	h := AccessLog(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if assert.True(t, ok) {
			inner = u.Unwrap()
		}
		assert.NoError(t, http.NewResponseController(w).Flush())
		w.WriteHeader(http.StatusAccepted)
	}))
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Same(t, rec, inner)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
