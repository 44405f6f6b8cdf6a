package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/database/testutil"
	"github.com/charlesng35/fenceadmin/internal/monitoring"
	"github.com/charlesng35/fenceadmin/internal/monitoring/checks"
)

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(time.Second)
	manager.RegisterReadiness(monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("platform", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "connection refused"}
	}))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "platform", report.Checks[1].Component)
}

func TestHealthManagerDegradedStillSucceeds(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(0)
	manager.RegisterReadiness(checks.AdminSession(nil))

	report := manager.EvaluateReadiness(context.Background())
	require.True(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Equal(t, "no administrator signed in", report.Checks[0].Details)
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(0)
	manager.RegisterLiveness(monitoring.NewCheck("boom", func(context.Context) monitoring.ProbeResult {
		panic("probe exploded")
	}))
	manager.RegisterLiveness(monitoring.Check{})

	report := manager.EvaluateLiveness(context.Background())
	require.False(t, report.Success)
	require.Len(t, report.Checks, 1)
	require.Equal(t, "boom", report.Checks[0].Component)
	require.Equal(t, "probe exploded", report.Checks[0].Details)
}

func TestResultFromError(t *testing.T) {
	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError(nil, time.Millisecond).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError(errors.New("refused"), 0).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError(context.DeadlineExceeded, -1).Status)
}

type signedIn bool

func (s signedIn) Authenticated() bool { return bool(s) }

type subscribers map[string]int

func (s subscribers) Subscribers(stream string) int { return s[stream] }

func TestConsoleChecks(t *testing.T) {
	ctx := context.Background()

	require.Equal(t, monitoring.StatusUp, checks.AdminSession(signedIn(true)).Run(ctx).Status)
	require.Equal(t, monitoring.StatusDegraded, checks.AdminSession(signedIn(false)).Run(ctx).Status)

	result := checks.Realtime(subscribers{"sessions": 2}, []string{"sessions", "users"}).Run(ctx)
	require.Equal(t, monitoring.StatusUp, result.Status)
	require.Equal(t, "sessions=2 users=0", result.Details)

	db := testutil.MustOpenTestDB(t)
	require.Equal(t, monitoring.StatusUp, checks.Database(db).Run(ctx).Status)
	require.Equal(t, monitoring.StatusDown, checks.Database(nil).Run(ctx).Status)
}
