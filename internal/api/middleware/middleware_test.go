package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTService(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "middleware-test-secret-of-adequate-length",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 120,
	})
	require.NoError(t, err)
	return svc
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	jwtService := newJWTService(t)
	ctx := context.Background()
	access, err := jwtService.GenerateToken(ctx, 42)
	require.NoError(t, err)
	refresh, err := jwtService.GenerateRefreshToken(ctx, 42)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{name: "valid token", authHeader: "Bearer " + access, expectedStatus: http.StatusOK},
		{name: "lowercase scheme", authHeader: "bearer " + access, expectedStatus: http.StatusOK},
		{name: "missing auth header", expectedStatus: http.StatusUnauthorized},
		{name: "invalid auth format", authHeader: "InvalidFormat", expectedStatus: http.StatusUnauthorized},
		{name: "basic scheme", authHeader: "Basic " + access, expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not-a-jwt", expectedStatus: http.StatusUnauthorized},
		{name: "refresh token as access", authHeader: "Bearer " + refresh, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedUserID int64
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedUserID, _ = GetUserID(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, int64(42), capturedUserID)
				return
			}
			var env shared.Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			require.NotNil(t, env.Error)
			assert.Equal(t, CodeUnauthenticated, env.Error.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetUserID(req)
	assert.False(t, ok)

	req = req.WithContext(shared.WithUserID(req.Context(), 7))
	id, ok := GetUserID(req)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewBufferLogger()

	var traceID string
	var ctxLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		ctxLogger = logger.FromContextOrDefault(r.Context(), nil) != nil
		logger.FromContext(r.Context()).Info("inside handler")
	})

	handler := chimw.RequestID(TraceMiddleware(log)(next))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	require.NotEmpty(t, traceID)
	assert.True(t, ctxLogger)
	assert.Equal(t, traceID, rec.Header().Get(chimw.RequestIDHeader))

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, traceID, e["trace_id"])
	}
}

func TestTraceMiddleware_WithoutRequestID(t *testing.T) {
	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
	})
	TraceMiddleware(nil)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, traceID, 32)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(10)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusNoContent, call("10.0.0.1:1234").Code, "request %d", i+1)
	}

	rec := call("10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "6", rec.Header().Get("Retry-After"))
	var env shared.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, CodeTooManyRequests, env.Error.Code)

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1234").Code, "other clients have their own budget")

	now = now.Add(7 * time.Second)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1234").Code, "a token refills every six seconds")
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1234").Code)
}
