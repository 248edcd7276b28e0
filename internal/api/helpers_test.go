package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/cache"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/job/jobtest"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/platform/database/databasetest"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

// testServer is the full HTTP stack over an in-memory database. Jobs are
// recorded instead of run, so fan-out is inspected explicitly.
type testServer struct {
	t        *testing.T
	handler  http.Handler
	db       *sqlx.DB
	jobs     *jobtest.Recorder
	jwt      auth.JWTService
	user     *domain.User
	token    string
	remoteIP string
}

type serverOption func(*serverSettings)

type serverSettings struct {
	rateLimit int
}

func withRateLimit(perMinute int) serverOption {
	return func(s *serverSettings) { s.rateLimit = perMinute }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	settings := serverSettings{rateLimit: 1000}
	for _, opt := range opts {
		opt(&settings)
	}

	log := discardLogger()
	db := databasetest.New(t)

	users := database.NewUserStore(db, log)
	tasks := database.NewTaskStore(db, log)
	notifications := database.NewNotificationStore(db, log)

	recorder := &jobtest.Recorder{}
	emitter := events.NewInMemoryEventEmitter(log)
	dispatch, err := notify.NewDispatchJobFactory(users, notifications, log)
	require.NoError(t, err)
	fanOut, err := notify.NewFanOutJobFactory(notify.NewAllUsersResolver(users), recorder, dispatch, log)
	require.NoError(t, err)
	listener, err := notify.NewFanOutListener(fanOut, recorder, log)
	require.NoError(t, err)
	emitter.RegisterHandlerFor(events.TypeTaskUpdated, listener)

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "api-test-secret-that-is-long-enough",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 120,
	})
	require.NoError(t, err)

	svcOpts := []service.Option{service.WithLogger(log)}
	taskCache := cache.New(cache.NewMemoryStore(time.Minute), service.TaskCacheTag)
	taskSvc, err := service.NewTaskService(db, tasks, taskCache, emitter, svcOpts...)
	require.NoError(t, err)
	userSvc, err := service.NewUserService(db, users, auth.NewBcryptHasher(4), svcOpts...)
	require.NoError(t, err)
	notificationSvc, err := service.NewNotificationService(db, users, notifications, svcOpts...)
	require.NoError(t, err)
	projectSvc, err := service.NewProjectService(db, database.NewProjectStore(db, log), users, svcOpts...)
	require.NoError(t, err)
	commentSvc, err := service.NewCommentService(db, database.NewCommentStore(db, log), tasks, svcOpts...)
	require.NoError(t, err)

	handler := api.NewRouter(api.Handlers{
		Auth:           api.NewAuthHandler(userSvc, jwtService, log),
		Tasks:          api.NewTaskHandler(taskSvc, log),
		Comments:       api.NewCommentHandler(commentSvc, log),
		Projects:       api.NewProjectHandler(projectSvc, log),
		Users:          api.NewUserHandler(userSvc, log),
		Notifications:  api.NewNotificationHandler(notificationSvc, log),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtService),
		RateLimiter:    middleware.NewRateLimiter(settings.rateLimit),
		Logger:         log,
	})

	s := &testServer{t: t, handler: handler, db: db, jobs: recorder, jwt: jwtService, remoteIP: "192.0.2.10:4000"}
	s.user = databasetest.CreateUser(t, db, "Tester", "tester@example.com")
	s.token, err = jwtService.GenerateToken(t.Context(), s.user.ID)
	require.NoError(t, err)
	return s
}

// response is a decoded envelope whose data is kept raw for typed decoding.
type response struct {
	Status  int
	Header  http.Header
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func (r *response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), "data: %s", r.Data)
}

func (r *response) code() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// do sends an authenticated request. body may be nil, a string of raw
// JSON, or any value to marshal.
func (s *testServer) do(method, path string, body any) *response {
	return s.send(method, path, body, s.token)
}

func (s *testServer) send(method, path string, body any, token string) *response {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = s.remoteIP
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	resp := &response{Status: rec.Code, Header: rec.Header()}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), resp), "body: %s", rec.Body.String())
	return resp
}

type paginationBody struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}
