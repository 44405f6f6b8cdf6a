package handlers_test

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/handlers/testutil"
	"github.com/charlesng35/fenceadmin/internal/present"
)

func TestUserHandler_ListCreateDelete(t *testing.T) {
	env := testutil.NewEnv(t)

	var (
		mu      sync.Mutex
		queries []string
		created map[string]any
	)
	env.Platform.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "users": []any{
			map[string]any{"_id": "u1", "username": "alice", "displayName": "Alice", "role": "employee", "companyId": map[string]any{"_id": "c1", "name": "Acme"}},
		}})
	})
	env.Platform.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		created = body
		mu.Unlock()
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "user": map[string]any{"_id": "u2", "username": "bob"}})
	})
	env.Platform.HandleFunc("DELETE /api/users/u1", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})

	env.Login()
	env.SelectCompany("c1")

	w := env.Request(http.MethodGet, "/api/users?role=employee", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Rows []present.UserRow `json:"rows"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &data)
	require.Len(t, data.Rows, 1)
	require.Equal(t, "alice", data.Rows[0].Username)

	mu.Lock()
	require.Equal(t, "companyId=c1&role=employee", queries[len(queries)-1])
	mu.Unlock()

	create := env.Request(http.MethodPost, "/api/users", map[string]any{
		"username":    "bob",
		"password":    "secret1",
		"displayName": "Bob",
		"role":        "employee",
	})
	require.Equal(t, http.StatusOK, create.Code, create.Body.String())
	require.Equal(t, "User created successfully!", testutil.DecodeResponse(t, create).Message)

	mu.Lock()
	require.Equal(t, "c1", created["companyId"])
	mu.Unlock()

	invalid := env.Request(http.MethodPost, "/api/users", map[string]any{"username": "x", "role": "employee"})
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	declined := env.Request(http.MethodDelete, "/api/users/u1", nil)
	require.Equal(t, http.StatusPreconditionRequired, declined.Code)
	require.Equal(t, "Are you sure you want to delete this user?", testutil.DecodeResponse(t, declined).Message)

	deleted := env.Confirmed(http.MethodDelete, "/api/users/u1", nil)
	require.Equal(t, http.StatusOK, deleted.Code, deleted.Body.String())
	require.Equal(t, "User deleted successfully!", testutil.DecodeResponse(t, deleted).Message)
}

func TestUserHandler_UpdateAndAssignDevice(t *testing.T) {
	env := testutil.NewEnv(t)

	var (
		mu       sync.Mutex
		assigned map[string]any
	)
	env.Platform.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "users": []any{}})
	})
	env.Platform.HandleFunc("PUT /api/users/u1", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "user": map[string]any{"_id": "u1", "username": "alice"}})
	})
	env.Platform.HandleFunc("POST /api/admin/assign-device", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		assigned = body
		mu.Unlock()
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
	env.Login()

	empty := env.Request(http.MethodPut, "/api/users/u1", map[string]any{})
	require.Equal(t, http.StatusBadRequest, empty.Code)
	require.Equal(t, "Nothing to update", testutil.DecodeResponse(t, empty).Message)

	updated := env.Request(http.MethodPut, "/api/users/u1", map[string]any{"displayName": "Alice B"})
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	require.Equal(t, "User updated successfully!", testutil.DecodeResponse(t, updated).Message)

	assign := env.Request(http.MethodPut, "/api/users/u1/device", map[string]any{"deviceId": "D-9"})
	require.Equal(t, http.StatusOK, assign.Code, assign.Body.String())
	require.Equal(t, "Device assigned successfully!", testutil.DecodeResponse(t, assign).Message)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "u1", assigned["userId"])
	require.Equal(t, "D-9", assigned["deviceId"])
}

func TestUserHandler_AvailableDevicesNeedsCompany(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Platform.HandleFunc("GET /api/users/available-devices/c2", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"ok": true, "devices": []any{
			map[string]any{"_id": "d1", "deviceId": "D-1", "name": "Gate"},
		}})
	})
	env.Login()

	missing := env.Request(http.MethodGet, "/api/users/available-devices", nil)
	require.Equal(t, http.StatusBadRequest, missing.Code)
	require.Equal(t, "COMPANY_REQUIRED", testutil.DecodeResponse(t, missing).Error.Code)

	w := env.Request(http.MethodGet, "/api/users/available-devices?companyId=c2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var devices []map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &devices)
	require.Len(t, devices, 1)
	require.Equal(t, "D-1", devices[0]["deviceId"])
}

func TestUserHandler_WorkReport(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Platform.HandleFunc("GET /api/user-work-report", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{
			"ok":                  true,
			"user":                map[string]any{"username": "alice"},
			"type":                r.URL.Query().Get("type"),
			"totalSessions":       2,
			"totalWorkingMinutes": 150,
			"totalWorkingHours":   2.5,
			"sessions":            []any{},
		})
	})
	env.Platform.HandleFunc("GET /api/user-work-report/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("date,minutes\n2024-01-10,150\n"))
	})
	env.Login()

	invalid := env.Request(http.MethodGet, "/api/reports/work?userId=u1&date=10-01-2024", nil)
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	w := env.Request(http.MethodGet, "/api/reports/work?userId=u1&type=weekly&date=2024-01-10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct {
		Title         string `json:"title"`
		Worked        string `json:"worked"`
		PerSession    string `json:"perSession"`
		TotalSessions int    `json:"totalSessions"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &report)
	require.Equal(t, "Weekly Report", report.Title)
	require.Equal(t, "2h 30m", report.Worked)
	require.Equal(t, "1h 15m", report.PerSession)
	require.Equal(t, 2, report.TotalSessions)

	export := env.Request(http.MethodGet, "/api/reports/work/export?userId=u1&date=2024-01-10", nil)
	require.Equal(t, http.StatusOK, export.Code, export.Body.String())
	require.Equal(t, "text/csv", export.Header().Get("Content-Type"))
	require.Contains(t, export.Body.String(), "2024-01-10,150")
}
