package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/upstream"
)

// staticScope pins the working company for a test.
type staticScope auth.State

func (s staticScope) Current() auth.State { return auth.State(s) }

func companyScope(companyID string) staticScope {
	return staticScope{
		SessionID: "sess-1",
		User:      models.User{ID: "admin-1", Username: "root", Role: models.RoleAdmin},
		CompanyID: companyID,
	}
}

// newPlatform serves mux as the platform API and returns a real client bound to it.
func newPlatform(t *testing.T, mux *http.ServeMux) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func testConfig() Config {
	return Config{Confirmer: listview.AlwaysConfirm, Location: time.UTC}
}
