package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeTestHandler(l *RateLimiter) http.Handler {
	return l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiter_AllowsInitialBurst(t *testing.T) {
	handler := makeTestHandler(NewRateLimiter(5))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/matches/x/result", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/matches/x/result", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimiter_SeparatesClients(t *testing.T) {
	handler := makeTestHandler(NewRateLimiter(1))

	for _, addr := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l := NewRateLimiter(1)
	l.getVisitor("10.0.0.1")
	l.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	l.getVisitor("10.0.0.2")

	l.Cleanup(time.Minute)

	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "10.0.0.2")
}
