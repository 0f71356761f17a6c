package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func limitedHandler(rps float64, burst int, trustProxy bool) http.Handler {
	return RateLimit(rps, burst, trustProxy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(t *testing.T, h http.Handler, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BurstThenThrottle(t *testing.T) {
	h := limitedHandler(1, 2, false)

	for i := 0; i < 2; i++ {
		rec := hit(t, h, "10.0.0.1:1234", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i)
	}

	rec := hit(t, h, "10.0.0.1:1234", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRateLimit_ClientsAreIndependent(t *testing.T) {
	h := limitedHandler(1, 1, false)

	rec := hit(t, h, "10.0.0.1:1234", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hit(t, h, "10.0.0.1:1234", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = hit(t, h, "10.0.0.2:1234", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ForgedHeaderCannotRotateKeys(t *testing.T) {
	h := limitedHandler(1, 1, false)

	rec := hit(t, h, "10.0.0.1:1234", "203.0.113.1")
	require.Equal(t, http.StatusOK, rec.Code)

	// A direct caller rotating X-Forwarded-For stays pinned to its
	// remote address when the proxy is not trusted.
	rec = hit(t, h, "10.0.0.1:1234", "203.0.113.2")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name         string
		remoteAddr   string
		forwardedFor string
		trustProxy   bool
		want         string
	}{
		{"direct", "10.0.0.1:1234", "", false, "10.0.0.1"},
		{"no port", "10.0.0.1", "", false, "10.0.0.1"},
		{"untrusted header ignored", "10.0.0.1:1234", "203.0.113.9", false, "10.0.0.1"},
		{"trusted proxy", "127.0.0.1:1234", "203.0.113.9", true, "203.0.113.9"},
		{"trusted proxy chain", "127.0.0.1:1234", "203.0.113.9, 10.0.0.1", true, "203.0.113.9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tc.forwardedFor)
			}
			require.Equal(t, tc.want, clientKey(req, tc.trustProxy))
		})
	}
}
