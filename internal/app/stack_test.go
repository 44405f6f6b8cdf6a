package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/listview"
)

func fakePlatform(t *testing.T) string {
	t.Helper()
	reply := func(w http.ResponseWriter, body any) {
		_ = json.NewEncoder(w).Encode(body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"ok": true, "sessionId": "sess-42"})
	})
	mux.HandleFunc("POST /api/auth/verify-session", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"ok": true, "user": map[string]any{"_id": "a1", "username": "root", "role": "admin"}})
	})
	mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Session-Id") != "sess-42" {
			w.WriteHeader(http.StatusUnauthorized)
			reply(w, map[string]any{"ok": false, "message": "no session"})
			return
		}
		reply(w, map[string]any{"ok": true, "companies": []any{map[string]any{"_id": "c1", "name": "Acme"}}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func stackConfig(t *testing.T, baseURL, dbPath string) *Config {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "sqlite", Path: dbPath},
		Upstream: UpstreamConfig{BaseURL: baseURL},
		State:    StateConfig{StorageKey: "bams_session", Seal: true},
		Views:    ViewsConfig{Timezone: "UTC"},
	}
	_, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	return cfg
}

func TestStackPersistsSessionAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := stackConfig(t, fakePlatform(t), filepath.Join(t.TempDir(), "state.sqlite"))

	first, err := NewStack(ctx, cfg, StackOptions{Confirmer: listview.AlwaysConfirm})
	require.NoError(t, err)
	require.Equal(t, StateKeyFromDatabase, first.KeySource)
	require.False(t, first.Sessions.Authenticated())

	_, err = first.Sessions.Login(ctx, "root", "secret-pass")
	require.NoError(t, err)
	require.NoError(t, first.Console.Companies.Load(ctx))
	require.Len(t, first.Console.Companies.Companies(), 1)
	require.NoError(t, first.Close())

	second, err := NewStack(ctx, cfg, StackOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	require.True(t, second.Sessions.Authenticated())
	require.Equal(t, "sess-42", second.Sessions.SessionID())
}

func TestStackRejectsBadTimezone(t *testing.T) {
	cfg := stackConfig(t, fakePlatform(t), filepath.Join(t.TempDir(), "state.sqlite"))
	cfg.Views.Timezone = "Mars/Olympus"

	_, err := NewStack(context.Background(), cfg, StackOptions{})
	require.Error(t, err)
}
