package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-api/internal/api/middleware"
	"github.com/taskflow/taskflow-api/internal/api/shared"
	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/mocks"
	"github.com/taskflow/taskflow-api/internal/service"
)

// testHasher replaces bcrypt so handler tests stay fast.
type testHasher struct{}

func (testHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (testHasher) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

// apiFixture wires the handlers into a router the way cmd/server does,
// backed by in-memory stores.
type apiFixture struct {
	router    chi.Router
	users     *mocks.MemoryUserStore
	tasks     *mocks.MemoryTaskStore
	stats     *mocks.MockStatsStore
	mailer    *mocks.MockMailer
	publisher *mocks.MockPublisher
	userSvc   service.UserService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		users:     mocks.NewMemoryUserStore(),
		tasks:     mocks.NewMemoryTaskStore(),
		stats:     &mocks.MockStatsStore{},
		mailer:    &mocks.MockMailer{},
		publisher: mocks.NewMockPublisher(),
	}

	f.userSvc = service.NewUserService(
		f.users,
		&mocks.MockJWTService{},
		testHasher{},
		testHasher{},
		f.mailer,
		config.AuthConfig{
			JWTSecret:              strings.Repeat("s", 32),
			TokenLifetimeMinutes:   60,
			LockoutThreshold:       3,
			LockoutDurationMinutes: 120,
		},
		"https://app.example.com",
		nil,
	)
	taskSvc := service.NewTaskService(f.tasks, f.publisher, nil)
	analyticsSvc := service.NewAnalyticsService(f.stats, nil)

	authHandler := NewAuthHandler(f.userSvc)
	taskHandler := NewTaskHandler(taskSvc)
	analyticsHandler := NewAnalyticsHandler(analyticsSvc)
	authMiddleware := middleware.NewAuthMiddleware(f.userSvc)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)

	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/forgot-password", authHandler.ForgotPassword)
	r.Post("/api/auth/reset-password", authHandler.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/api/auth/me", authHandler.CurrentUser)
		r.Put("/api/auth/profile", authHandler.UpdateProfile)
		r.Post("/api/auth/logout", authHandler.Logout)

		r.Get("/api/tasks", taskHandler.List)
		r.Post("/api/tasks", taskHandler.Create)
		r.Get("/api/tasks/{id}", taskHandler.Get)
		r.Put("/api/tasks/{id}", taskHandler.Update)
		r.Delete("/api/tasks/{id}", taskHandler.Delete)
		r.Post("/api/tasks/{id}/subtasks", taskHandler.AddSubtask)
		r.Put("/api/tasks/{id}/subtasks/{subtaskId}", taskHandler.UpdateSubtask)

		r.Get("/api/analytics/dashboard", analyticsHandler.Dashboard)
	})

	f.router = r
	return f
}

// do performs a request against the fixture router. A non-empty token
// is sent as a bearer credential; a non-nil body is JSON-encoded.
func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// doRaw performs a bodyless request with a verbatim Authorization header.
func (f *apiFixture) doRaw(t *testing.T, method, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its token.
func (f *apiFixture) register(t *testing.T, email string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())

	env := decodeEnvelope(t, rec)
	data := dataAsMap(t, env)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) shared.Response {
	t.Helper()
	var env shared.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func dataAsMap(t *testing.T, env shared.Response) map[string]interface{} {
	t.Helper()
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok, "expected object data, got %T", env.Data)
	return data
}
