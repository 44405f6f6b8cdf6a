package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

func TestUserServiceScopesListToCompany(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true,
			"users": []any{
				map[string]any{"_id": "u1", "username": "ada", "displayName": "Ada", "role": "employee", "companyId": "c1"},
			},
		})
	})

	svc, err := NewUserService(newPlatform(t, mux), companyScope("c1"), testConfig())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))
	require.NoError(t, svc.FilterRole(ctx, "employee"))
	mu.Lock()
	require.Equal(t, []string{"companyId=c1", "companyId=c1&role=employee"}, queries)
	mu.Unlock()

	rows := svc.Rows([]models.Company{{ID: "c1", Name: "Acme"}})
	require.Len(t, rows, 1)
	require.Equal(t, "Acme", rows[0].Company)

	err = svc.FilterRole(ctx, "owner")
	require.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))
}

func TestUserServiceCreate(t *testing.T) {
	var mu sync.Mutex
	bodies := map[string]map[string]any{}
	body := func(path string) map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return bodies[path]
	}
	mux := http.NewServeMux()
	record := func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		bodies[r.URL.Path] = payload
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	}
	mux.HandleFunc("POST /api/users", record)
	mux.HandleFunc("POST /api/users/create-admin", record)
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true, "users": []any{}})
	})

	svc, err := NewUserService(newPlatform(t, mux), companyScope("c1"), testConfig())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, upstream.CreateUserRequest{
		Username: " ada ", Password: "secret1", DisplayName: "Ada", Role: models.RoleEmployee,
	}))
	require.Equal(t, "c1", body("/api/users")["companyId"])
	require.Equal(t, "ada", body("/api/users")["username"])
	require.Equal(t, "User created successfully!", svc.View().Snapshot().Success)

	require.NoError(t, svc.Create(ctx, upstream.CreateUserRequest{
		Username: "root2", Password: "secret1", DisplayName: "Root", Role: models.RoleAdmin, CompanyID: "c9",
	}))
	require.NotContains(t, body("/api/users/create-admin"), "companyId")

	err = svc.Create(ctx, upstream.CreateUserRequest{Username: "x", Role: models.RoleEmployee})
	require.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))
	mu.Lock()
	require.Len(t, bodies, 2)
	mu.Unlock()
}

func TestUserServiceUpdateRequiresChanges(t *testing.T) {
	svc, err := NewUserService(newPlatform(t, http.NewServeMux()), companyScope(""), testConfig())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	err = svc.Update(context.Background(), "u1", upstream.UpdateUserRequest{})
	require.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))
	require.Equal(t, "Nothing to update", svc.View().Snapshot().Error)
}

func TestUserServiceAvailableDevicesNeedsCompany(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/available-devices/c2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok":      true,
			"devices": []any{map[string]any{"_id": "d1", "deviceId": "D-1", "deviceName": "Gate"}},
		})
	})

	svc, err := NewUserService(newPlatform(t, mux), companyScope(""), testConfig())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ctx := context.Background()
	_, err = svc.AvailableDevices(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrCompanyRequired)

	devices, err := svc.AvailableDevices(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "Gate", devices[0].Name)
}

func TestUserServiceReportLastRequestWins(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user-work-report", func(w http.ResponseWriter, r *http.Request) {
		total := 2
		if r.URL.Query().Get("date") == "2024-01-01" {
			close(arrived)
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
			total = 1
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"ok": true,
			"report": map[string]any{
				"user":          map[string]any{"userId": "u1", "displayName": "Ada"},
				"type":          "daily",
				"totalSessions": total,
			},
		})
	})

	svc, err := NewUserService(newPlatform(t, mux), companyScope(""), testConfig())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ctx := context.Background()
	first := make(chan error, 1)
	go func() {
		_, err := svc.Report(ctx, upstream.ReportRequest{UserID: "u1", Type: models.ReportDaily, Date: "2024-01-01"})
		first <- err
	}()
	<-arrived

	report, err := svc.Report(ctx, upstream.ReportRequest{UserID: "u1", Type: models.ReportDaily, Date: "2024-01-02"})
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalSessions)

	close(release)
	require.ErrorIs(t, <-first, listview.ErrSuperseded)

	snap := svc.ReportSnapshot()
	require.False(t, snap.Loading)
	require.Len(t, snap.Records, 1)
	require.Equal(t, 2, snap.Records[0].TotalSessions)
}

func TestUserServiceReportValidates(t *testing.T) {
	svc, err := NewUserService(newPlatform(t, http.NewServeMux()), companyScope(""), testConfig())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	_, err = svc.Report(context.Background(), upstream.ReportRequest{UserID: "u1", Type: "hourly", Date: "2024-01-01"})
	require.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))

	_, err = svc.Report(context.Background(), upstream.ReportRequest{UserID: "u1", Date: "01/02/2024"})
	require.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))
}
