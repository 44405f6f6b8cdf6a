package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/api"
	"github.com/charlesng35/fenceadmin/internal/app"
	"github.com/charlesng35/fenceadmin/internal/handlers/testutil"
	"github.com/charlesng35/fenceadmin/internal/monitoring"
)

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := api.NewRouter(api.Dependencies{})
	require.Error(t, err)

	_, err = api.NewRouter(api.Dependencies{Config: &app.Config{}})
	require.Error(t, err)
}

func TestRouterPublicEndpoints(t *testing.T) {
	env := testutil.NewEnv(t)

	health := env.Request(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, health.Code, health.Body.String())
	var report monitoring.HealthReport
	testutil.DecodeInto(t, testutil.DecodeResponse(t, health).Data, &report)
	require.True(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	probes := map[string]monitoring.ProbeStatus{}
	for _, check := range report.Checks {
		probes[check.Component] = check.Status
	}
	require.Equal(t, monitoring.StatusUp, probes["database"])
	require.Equal(t, monitoring.StatusDegraded, probes["admin_session"])
	require.Equal(t, monitoring.StatusUp, probes["realtime"])

	env.Login()
	ready := env.Request(http.MethodGet, "/health/ready", nil)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, ready).Data, &report)
	require.Equal(t, monitoring.StatusUp, report.Status)

	live := env.Request(http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, live.Code)

	metrics := env.Request(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	require.Contains(t, metrics.Body.String(), "go_goroutines")

	missing := env.Request(http.MethodGet, "/api/nowhere", nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
	require.Equal(t, "NOT_FOUND", testutil.DecodeResponse(t, missing).Error.Code)
}

func TestRouterProtectsConsoleRoutes(t *testing.T) {
	env := testutil.NewEnv(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/devices"},
		{http.MethodGet, "/api/locations"},
		{http.MethodGet, "/api/companies"},
		{http.MethodGet, "/api/journal"},
		{http.MethodDelete, "/api/sessions/s1"},
		{http.MethodPut, "/api/auth/company"},
	} {
		w := env.Request(route.method, route.path, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}
