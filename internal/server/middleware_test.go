package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddleware(t *testing.T) {
	server := &Server{corsOrigin: "https://forms.example"}
	called := false
	handler := server.corsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})

	t.Run("preflight", func(t *testing.T) {
		called = false
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodOptions, "/structure", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, called)
		assert.Equal(t, "https://forms.example", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("passes through", func(t *testing.T) {
		called = false
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, "/structure", nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.True(t, called)
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestCORSMiddleware_DefaultOrigin(t *testing.T) {
	server := &Server{}
	w := httptest.NewRecorder()
	server.corsMiddleware(func(http.ResponseWriter, *http.Request) {})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	server := &Server{rateLimiter: NewRateLimiter(0.001, 2)}
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/structure", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	w := send("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	var resp StructureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate limit exceeded", resp.Error)

	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	server := &Server{}
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for range 5 {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, "/structure", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded list", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, want: "1.2.3.4"},
		{name: "forwarded single", headers: map[string]string{"X-Forwarded-For": " 1.2.3.4 "}, want: "1.2.3.4"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "9.9.9.9"}, want: "9.9.9.9"},
		{name: "remote addr", remote: "192.168.1.5:5555", want: "192.168.1.5"},
		{name: "remote addr without port", remote: "192.168.1.5", want: "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestSetupRoutes_AllRoutesHaveCORS(t *testing.T) {
	server := newMockServer(&mockProcessor{})
	server.corsOrigin = "https://forms.example"
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	for _, path := range []string{"/health", "/structure", "/ws/structure", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "https://forms.example", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://forms.example", w.Header().Get("Access-Control-Allow-Origin"))
}
