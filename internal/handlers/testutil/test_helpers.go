package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/fenceadmin/internal/api"
	"github.com/charlesng35/fenceadmin/internal/app"
	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/internal/cache"
	sharedtestutil "github.com/charlesng35/fenceadmin/internal/database/testutil"
	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/middleware"
	"github.com/charlesng35/fenceadmin/internal/realtime"
	"github.com/charlesng35/fenceadmin/internal/security"
	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	"github.com/charlesng35/fenceadmin/pkg/response"
)

// Admin credentials accepted by the fake platform.
const (
	AdminUsername = "root"
	AdminPassword = "secret-pass"
	AdminSession  = "sess-admin"
)

// Env encapsulates a fully wired console API in front of a fake attendance platform.
// Register platform endpoints on Platform before issuing the requests that need them.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	Platform *http.ServeMux
	Config   *app.Config
	Sessions *auth.SessionContext
	Console  *services.Console
	Hub      *realtime.Hub
}

// EnvOption adjusts the configuration before the router is built.
type EnvOption func(*app.Config)

// WithAccessToken guards the console API with a bearer token.
func WithAccessToken(token string) EnvOption {
	return func(cfg *app.Config) {
		cfg.Server.AccessToken = token
	}
}

// WithLoginLimit enables login rate limiting.
func WithLoginLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.Server.LoginLimit = app.RateLimitConfig{Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment. The fake platform already
// answers the auth endpoints for AdminUsername / AdminPassword.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	platform := http.NewServeMux()
	registerAuth(t, platform)
	srv := httptest.NewServer(platform)
	t.Cleanup(srv.Close)

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)

	cfg := &app.Config{
		Upstream: app.UpstreamConfig{BaseURL: srv.URL + "/api"},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store := cache.NewDatabaseStore(db, nil)
	sessions, err := auth.NewSessionContext(client, auth.NewCacheStateStore(store, "", nil))
	require.NoError(t, err)

	journal, err := services.NewJournalService(db, services.WithJournalActor(sessions))
	require.NoError(t, err)

	console, err := services.NewConsole(client, sessions, journal, services.Config{
		PageSize:        listview.DefaultPageSize,
		RefreshInterval: time.Hour,
		Location:        time.UTC,
		Confirmer:       listview.ContextConfirmer{},
	})
	require.NoError(t, err)
	t.Cleanup(console.Close)

	hub := realtime.NewHub(realtime.ViewStreams...)
	t.Cleanup(realtime.Publish(hub, console.Sessions.View()))

	router, err := api.NewRouter(api.Dependencies{
		Config:    cfg,
		DB:        db,
		Sessions:  sessions,
		Console:   console,
		Hub:       hub,
		RateStore: middleware.NewMemoryRateStore(),
		Audit:     security.NewAuditService(cfg, app.StateKeyDisabled),
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		Platform: platform,
		Config:   cfg,
		Sessions: sessions,
		Console:  console,
		Hub:      hub,
	}
}

func registerAuth(t *testing.T, mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != AdminUsername || body.Password != AdminPassword {
			WriteJSON(t, w, http.StatusUnauthorized, map[string]any{"ok": false, "message": "Invalid credentials"})
			return
		}
		WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "sessionId": AdminSession})
	})
	mux.HandleFunc("POST /api/auth/verify-session", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(t, w, http.StatusOK, map[string]any{
			"ok":   true,
			"user": map[string]any{"_id": "admin-1", "username": AdminUsername, "role": "admin"},
		})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
}

// WriteJSON answers a fake platform request.
func WriteJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

// Login signs the administrator in through the console API.
func (e *Env) Login() {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"username": AdminUsername,
		"password": AdminPassword,
	})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
	require.True(e.T, e.Sessions.Authenticated())
}

// SelectCompany sets the working company through the console API.
func (e *Env) SelectCompany(companyID string) {
	e.T.Helper()

	w := e.Request(http.MethodPut, "/api/auth/company", map[string]string{"companyId": companyID})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	OK      bool                `json:"ok"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the console router, JSON encoding body.
// headers are applied as name/value pairs.
func (e *Env) Request(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Confirmed executes a request carrying the operator's approval.
func (e *Env) Confirmed(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Request(method, path, body, middleware.ConfirmHeader, "true")
}
