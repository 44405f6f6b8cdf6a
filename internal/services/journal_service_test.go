package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/fenceadmin/internal/database/testutil"
	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
)

func TestJournalServiceRecordsDispatchedActions(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	journal, err := NewJournalService(db, WithJournalActor(companyScope("c1")))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) { sessionList(t, w) })
	mux.HandleFunc("DELETE /api/sessions/s1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": false, "message": "in use"})
	})
	mux.HandleFunc("DELETE /api/sessions/s2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})

	cfg := testConfig()
	cfg.Confirmer = listview.ContextConfirmer{}
	cfg.OnAction = journal.Record
	svc, err := NewSessionService(newPlatform(t, mux), cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ctx := context.Background()
	confirmed := listview.WithConfirmation(ctx, true)
	require.NoError(t, svc.Load(ctx))
	require.Error(t, svc.Delete(confirmed, "s1"))
	require.NoError(t, svc.Delete(confirmed, "s2"))
	require.Error(t, svc.Delete(ctx, "s2"))

	entries, total, err := journal.List(ctx, JournalListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, entries, 3)

	failed, _, err := journal.List(ctx, JournalListOptions{Filters: JournalFilters{Outcome: OutcomeFailed}})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "s1", failed[0].TargetID)
	require.Equal(t, "in use", failed[0].Message)
	require.Equal(t, "root", failed[0].Actor)
	require.Equal(t, ViewSessions, failed[0].View)

	var details map[string]any
	require.NoError(t, json.Unmarshal(failed[0].Details, &details))
	require.Equal(t, "in use", details["error"])

	declined, _, err := journal.List(ctx, JournalListOptions{Filters: JournalFilters{Outcome: OutcomeDeclined, TargetID: "s2"}})
	require.NoError(t, err)
	require.Len(t, declined, 1)
	require.Equal(t, string(listview.ActionDelete), declined[0].Kind)
}

func TestJournalServiceLogValidates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	journal, err := NewJournalService(db)
	require.NoError(t, err)

	require.Error(t, journal.Log(context.Background(), models.JournalEntry{Outcome: OutcomeFailed}))
	require.Error(t, journal.Log(context.Background(), models.JournalEntry{Kind: "delete"}))

	journal.Record(context.Background(), listview.Outcome{View: ViewUsers, Kind: listview.ActionCreate, Err: errors.New("boom")})
	entries, _, err := journal.List(context.Background(), JournalListOptions{Filters: JournalFilters{View: ViewUsers}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Empty(t, entries[0].Actor)
}

func TestJournalServiceCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	journal, err := NewJournalService(db, WithJournalClock(func() time.Time { return now }))
	require.NoError(t, err)

	old := models.JournalEntry{
		BaseModel: models.BaseModel{CreatedAt: now.AddDate(0, 0, -10)},
		Kind:      "delete",
		Outcome:   OutcomeSucceeded,
	}
	recent := models.JournalEntry{
		BaseModel: models.BaseModel{CreatedAt: now.AddDate(0, 0, -1)},
		Kind:      "resolve",
		Outcome:   OutcomeSucceeded,
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	ctx := context.Background()
	_, err = journal.CleanupOlderThan(ctx, 0)
	require.Error(t, err)

	rows, err := journal.CleanupOlderThan(ctx, 5)
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	_, total, err := journal.List(ctx, JournalListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}
