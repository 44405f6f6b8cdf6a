package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/listview"
)

type platform struct {
	t       *testing.T
	mux     *http.ServeMux
	mu      sync.Mutex
	queries []string
	deleted atomic.Int32
}

func (p *platform) reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(p.t, json.NewEncoder(w).Encode(body))
}

func (p *platform) lastQuery() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queries) == 0 {
		return ""
	}
	return p.queries[len(p.queries)-1]
}

// newPlatform serves the attendance API endpoints the CLI touches and points the
// configuration at it through the environment.
func newPlatform(t *testing.T) *platform {
	p := &platform{t: t, mux: http.NewServeMux()}

	p.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "root" || body.Password != "secret-pass" {
			p.reply(w, http.StatusUnauthorized, map[string]any{"ok": false, "message": "Invalid credentials"})
			return
		}
		p.reply(w, http.StatusOK, map[string]any{"ok": true, "sessionId": "sess-cli"})
	})
	p.mux.HandleFunc("POST /api/auth/verify-session", func(w http.ResponseWriter, r *http.Request) {
		p.reply(w, http.StatusOK, map[string]any{
			"ok":   true,
			"user": map[string]any{"_id": "a1", "username": "root", "displayName": "Root", "role": "admin", "companyId": "c1"},
		})
	})
	p.mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		p.reply(w, http.StatusOK, map[string]any{"ok": true})
	})
	p.mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.queries = append(p.queries, r.URL.RawQuery)
		p.mu.Unlock()
		p.reply(w, http.StatusOK, map[string]any{
			"ok":    true,
			"total": 120,
			"sessions": []any{
				map[string]any{"_id": "s1", "userId": "u1", "deviceId": "D-1", "loginAt": "2024-01-10T09:00:00Z", "status": "active"},
				map[string]any{"_id": "s2", "userId": "u1", "deviceId": "D-2", "loginAt": "2024-01-10T08:00:00Z", "logoutAt": "2024-01-10T09:30:00Z", "status": "logged_out", "suspect": true},
			},
		})
	})
	p.mux.HandleFunc("DELETE /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		p.deleted.Add(1)
		p.reply(w, http.StatusOK, map[string]any{"ok": true})
	})
	p.mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		p.reply(w, http.StatusOK, map[string]any{"ok": true, "users": []any{
			map[string]any{"_id": "u1", "username": "alice", "displayName": "Alice", "role": "employee", "companyId": "c1"},
		}})
	})
	p.mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		p.reply(w, http.StatusOK, map[string]any{"ok": true, "companies": []any{
			map[string]any{"_id": "c1", "name": "Acme", "timezone": "UTC"},
			map[string]any{"_id": "c2", "name": "Globex", "timezone": "UTC"},
		}})
	})
	p.mux.HandleFunc("GET /api/export", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.queries = append(p.queries, r.URL.RawQuery)
		p.mu.Unlock()
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("user,loginAt\nalice,2024-01-10\n"))
	})

	srv := httptest.NewServer(p.mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("FENCEADMIN_UPSTREAM_BASE_URL", srv.URL+"/api")
	t.Setenv("FENCEADMIN_DATABASE_PATH", filepath.Join(dir, "state.sqlite"))
	t.Setenv("FENCEADMIN_VIEWS_TIMEZONE", "UTC")
	return p
}

type result struct {
	out    string
	errOut string
	err    error
}

func invoke(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	term := streams{in: bufio.NewReader(strings.NewReader(stdin)), out: &out, err: &errOut}
	base := []string{"-env-file", filepath.Join(t.TempDir(), "none.env"), "-log-level", "error"}
	err := run(context.Background(), append(base, args...), term)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func signIn(t *testing.T) {
	t.Helper()
	res := invoke(t, "", "login", "-password", "secret-pass", "root")
	require.NoError(t, res.err, res.errOut)
}

func TestLoginPersistsBetweenInvocations(t *testing.T) {
	newPlatform(t)

	res := invoke(t, "secret-pass\n", "login", "root")
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.out, "Signed in as root (admin)")
	require.Contains(t, res.out, "Working company: c1")
	require.Contains(t, res.errOut, "Password: ")

	res = invoke(t, "", "whoami")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Root")
	require.Contains(t, res.out, "c1")

	res = invoke(t, "", "logout")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Signed out")

	res = invoke(t, "", "whoami")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Not signed in")
}

func TestLoginRejectedByPlatform(t *testing.T) {
	newPlatform(t)

	res := invoke(t, "", "login", "-password", "wrong", "root")
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "Invalid credentials")
}

func TestCommandsRequireSignIn(t *testing.T) {
	newPlatform(t)

	res := invoke(t, "", "sessions")
	require.ErrorIs(t, res.err, errNotSignedIn)
}

func TestUnknownCommand(t *testing.T) {
	res := invoke(t, "", "teleport")
	require.ErrorContains(t, res.err, `unknown command "teleport"`)
}

func TestSessionsRendersFilteredPage(t *testing.T) {
	p := newPlatform(t)
	signIn(t)

	res := invoke(t, "", "sessions", "-status", "active", "-page", "2")
	require.NoError(t, res.err, res.errOut)
	require.Equal(t, "limit=50&skip=50&status=active", p.lastQuery())

	require.Contains(t, res.out, "Alice")
	require.Contains(t, res.out, "1.50 hrs")
	require.Contains(t, res.out, "suspect")
	require.Contains(t, res.out, "Page 2 of 3, 120 sessions")
}

func TestSessionsRejectsUnknownStatus(t *testing.T) {
	p := newPlatform(t)
	signIn(t)

	res := invoke(t, "", "sessions", "-status", "finished")
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "known session status")
	require.Empty(t, p.lastQuery())
}

func TestDeleteSessionAsksForConfirmation(t *testing.T) {
	p := newPlatform(t)
	signIn(t)

	res := invoke(t, "n\n", "delete-session", "s1")
	require.True(t, listview.IsNotConfirmed(res.err), "got %v", res.err)
	require.Contains(t, res.errOut, "Are you sure you want to delete this session? [y/N]: ")
	require.Zero(t, p.deleted.Load())

	res = invoke(t, "y\n", "delete-session", "s1")
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.out, "Session deleted successfully!")
	require.EqualValues(t, 1, p.deleted.Load())

	res = invoke(t, "", "-yes", "delete-session", "s2")
	require.NoError(t, res.err, res.errOut)
	require.NotContains(t, res.errOut, "[y/N]")
	require.EqualValues(t, 2, p.deleted.Load())
}

func TestResolveOnlyAppliesToSuspectSessions(t *testing.T) {
	newPlatform(t)
	signIn(t)

	res := invoke(t, "", "-yes", "resolve", "s1")
	require.ErrorContains(t, res.err, "Only suspect sessions can be resolved")
}

func TestExportWritesCSVForWorkingCompany(t *testing.T) {
	p := newPlatform(t)
	signIn(t)

	target := filepath.Join(t.TempDir(), "sessions.csv")
	res := invoke(t, "", "export", "-from", "2024-01-01", "-o", target)
	require.NoError(t, res.err, res.errOut)
	require.Equal(t, "companyId=c1&from=2024-01-01", p.lastQuery())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(data), "alice,2024-01-10")
}

func TestCompanySwitchesWorkingCompany(t *testing.T) {
	newPlatform(t)
	signIn(t)

	res := invoke(t, "", "company", "c2")
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.out, "Working company: c2")

	res = invoke(t, "", "companies")
	require.NoError(t, res.err, res.errOut)
	lines := strings.Split(res.out, "\n")
	var marked string
	for _, line := range lines {
		if strings.HasPrefix(line, "*") {
			marked = line
		}
	}
	require.Contains(t, marked, "Globex")
}
