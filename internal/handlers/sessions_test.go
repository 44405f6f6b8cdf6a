package handlers_test

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/handlers/testutil"
	"github.com/charlesng35/fenceadmin/internal/present"
	"github.com/charlesng35/fenceadmin/internal/services"
)

type sessionListPayload struct {
	Rows    []present.SessionRow `json:"rows"`
	Error   string               `json:"error"`
	Success string               `json:"success"`
}

// servePlatformSessions answers the session list and returns the last query it saw.
func servePlatformSessions(t *testing.T, env *testutil.Env) func() string {
	var (
		mu      sync.Mutex
		queries []string
	)
	env.Platform.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{
			"ok":    true,
			"total": 120,
			"sessions": []any{
				map[string]any{"_id": "s1", "userId": "u1", "deviceId": "D-1", "loginAt": "2024-01-10T09:00:00Z", "status": "active"},
				map[string]any{"_id": "s2", "userId": "u2", "deviceId": "D-2", "loginAt": "2024-01-10T08:00:00Z", "logoutAt": "2024-01-10T09:30:00Z", "status": "logged_out", "suspect": true},
			},
		})
	})
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(queries) == 0 {
			return ""
		}
		return queries[len(queries)-1]
	}
}

func TestSessionHandler_ListForwardsFiltersAndPage(t *testing.T) {
	env := testutil.NewEnv(t)
	lastQuery := servePlatformSessions(t, env)
	env.Login()

	w := env.Request(http.MethodGet, "/api/sessions?status=active&from=2024-01-01&to=2024-01-31&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	payload := testutil.DecodeResponse(t, w)
	require.True(t, payload.OK)
	require.NotNil(t, payload.Meta)
	require.Equal(t, 2, payload.Meta.Page)
	require.Equal(t, 50, payload.Meta.PageSize)
	require.Equal(t, 120, payload.Meta.Total)
	require.True(t, payload.Meta.HasNext)

	var data sessionListPayload
	testutil.DecodeInto(t, payload.Data, &data)
	require.Len(t, data.Rows, 2)
	require.Equal(t, "s2", data.Rows[1].ID)
	require.True(t, data.Rows[1].CanResolve)
	require.False(t, data.Rows[0].CanResolve)
	require.Equal(t, "1.50 hrs", data.Rows[1].Duration)

	require.Equal(t, "from=2024-01-01&limit=50&skip=50&status=active&to=2024-01-31", lastQuery())

	// A changed filter starts over on the first page.
	w = env.Request(http.MethodGet, "/api/sessions?status=logged_out", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "limit=50&skip=0&status=logged_out", lastQuery())
}

func TestSessionHandler_FilterAndPageChangeFetchOnce(t *testing.T) {
	env := testutil.NewEnv(t)
	var (
		mu      sync.Mutex
		queries []string
	)
	env.Platform.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "total": 500, "sessions": []any{}})
	})
	env.Login()

	mu.Lock()
	before := len(queries)
	mu.Unlock()

	w := env.Request(http.MethodGet, "/api/sessions?status=expired&page=4", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, queries, before+1)
	require.Equal(t, "limit=50&skip=150&status=expired", queries[len(queries)-1])
}

func TestSessionHandler_RejectsUnknownStatus(t *testing.T) {
	env := testutil.NewEnv(t)
	servePlatformSessions(t, env)
	env.Login()

	w := env.Request(http.MethodGet, "/api/sessions?status=sleeping", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := testutil.DecodeResponse(t, w)
	require.False(t, payload.OK)
	require.NotNil(t, payload.Error)
	require.Equal(t, "PRECONDITION_FAILED", payload.Error.Code)
}

func TestSessionHandler_ListSurfacesPlatformFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Platform.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "database offline"})
	})
	env.Login()

	w := env.Request(http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	payload := testutil.DecodeResponse(t, w)
	require.Equal(t, "database offline", payload.Message)

	var data sessionListPayload
	testutil.DecodeInto(t, payload.Data, &data)
	require.Equal(t, "database offline", data.Error)
	require.Empty(t, data.Rows)
}

func TestSessionHandler_DeleteRequiresConfirmation(t *testing.T) {
	env := testutil.NewEnv(t)
	servePlatformSessions(t, env)

	var deletes atomic.Int32
	env.Platform.HandleFunc("DELETE /api/sessions/s1", func(w http.ResponseWriter, r *http.Request) {
		deletes.Add(1)
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
	env.Login()

	declined := env.Request(http.MethodDelete, "/api/sessions/s1", nil)
	require.Equal(t, http.StatusPreconditionRequired, declined.Code)
	payload := testutil.DecodeResponse(t, declined)
	require.Equal(t, "Are you sure you want to delete this session?", payload.Message)
	require.Equal(t, "CONFIRMATION_REQUIRED", payload.Error.Code)
	require.Zero(t, deletes.Load())

	confirmed := env.Confirmed(http.MethodDelete, "/api/sessions/s1", nil)
	require.Equal(t, http.StatusOK, confirmed.Code, confirmed.Body.String())
	payload = testutil.DecodeResponse(t, confirmed)
	require.Equal(t, "Session deleted successfully!", payload.Message)
	require.EqualValues(t, 1, deletes.Load())

	viaQuery := env.Request(http.MethodDelete, "/api/sessions/s1?confirm=true", nil)
	require.Equal(t, http.StatusOK, viaQuery.Code)
	require.EqualValues(t, 2, deletes.Load())
}

func TestSessionHandler_DeleteRejectedByPlatform(t *testing.T) {
	env := testutil.NewEnv(t)
	servePlatformSessions(t, env)
	env.Platform.HandleFunc("DELETE /api/sessions/s1", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": false, "message": "in use"})
	})
	env.Login()

	list := env.Request(http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, list.Code)

	w := env.Confirmed(http.MethodDelete, "/api/sessions/s1", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	payload := testutil.DecodeResponse(t, w)
	require.Equal(t, "in use", payload.Message)

	snap := env.Console.Sessions.View().Snapshot()
	require.Len(t, snap.Records, 2)
	require.Equal(t, "in use", snap.Error)
}

func TestSessionHandler_ResolveOnlySuspect(t *testing.T) {
	env := testutil.NewEnv(t)
	servePlatformSessions(t, env)

	var resolved atomic.Int32
	env.Platform.HandleFunc("POST /api/sessions/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
		resolved.Add(1)
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
	env.Login()

	require.Equal(t, http.StatusOK, env.Request(http.MethodGet, "/api/sessions", nil).Code)

	notSuspect := env.Confirmed(http.MethodPost, "/api/sessions/s1/resolve", nil)
	require.Equal(t, http.StatusBadRequest, notSuspect.Code)
	require.Equal(t, "Only suspect sessions can be resolved", testutil.DecodeResponse(t, notSuspect).Message)

	ok := env.Confirmed(http.MethodPost, "/api/sessions/s2/resolve", nil)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
	require.Equal(t, "Session resolved successfully!", testutil.DecodeResponse(t, ok).Message)
	require.EqualValues(t, 1, resolved.Load())
}

func TestSessionHandler_Export(t *testing.T) {
	env := testutil.NewEnv(t)

	var query atomic.Value
	env.Platform.HandleFunc("GET /api/export", func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("user,loginAt\nalice,2024-01-10\n"))
	})
	env.Login()

	missing := env.Request(http.MethodGet, "/api/sessions/export", nil)
	require.Equal(t, http.StatusBadRequest, missing.Code)
	require.Contains(t, missing.Header().Get("Content-Type"), "application/json")
	require.Equal(t, services.ExportCompanyRequired, testutil.DecodeResponse(t, missing).Message)

	w := env.Request(http.MethodGet, "/api/sessions/export?companyId=c1&from=2024-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), `filename="sessions.csv"`)
	require.True(t, strings.HasPrefix(w.Body.String(), "user,loginAt"))
	require.Equal(t, "companyId=c1&from=2024-01-01", query.Load())
}

func TestSessionHandler_AutoRefreshToggle(t *testing.T) {
	env := testutil.NewEnv(t)
	servePlatformSessions(t, env)
	env.Login()

	w := env.Request(http.MethodPut, "/api/sessions/auto-refresh", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, env.Console.Sessions.View().Snapshot().AutoRefresh)

	w = env.Request(http.MethodPut, "/api/sessions/auto-refresh", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, env.Console.Sessions.View().Snapshot().AutoRefresh)
}

func TestSessionHandler_LogoutForgetsLoadedSessions(t *testing.T) {
	env := testutil.NewEnv(t)
	servePlatformSessions(t, env)
	env.Platform.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "users": []any{
			map[string]any{"_id": "u1", "username": "alice", "role": "employee"},
		}})
	})
	env.Platform.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "companies": []any{
			map[string]any{"_id": "c1", "name": "Acme"},
		}})
	})
	env.Login()

	w := env.Request(http.MethodGet, "/api/sessions?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, env.Console.Sessions.LoadMetadata(t.Context()))
	require.Len(t, env.Console.Sessions.View().Snapshot().Records, 2)

	logout := env.Request(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, logout.Code)

	snap := env.Console.Sessions.View().Snapshot()
	require.Empty(t, snap.Records)
	require.Zero(t, snap.Total)
	require.Empty(t, snap.Filter.Status)
	require.Equal(t, 1, snap.Page)

	users, companies := env.Console.Sessions.Metadata()
	require.Empty(t, users)
	require.Empty(t, companies)
}
