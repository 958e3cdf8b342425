// game/service/game_service_test.go
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barhunt/go-services/game/session"
	"github.com/barhunt/go-services/shared/config"
	"github.com/barhunt/go-services/shared/models"
	rosterserviceclient "github.com/barhunt/go-services/shared/service"
)

func newSyncTestSession() *session.Session {
	return session.New(session.Config{
		GameCode: "HUNT42",
		Teams: []config.TeamConfig{
			{Code: "RED", Name: "Red", Color: "#f00"},
			{Code: "BLUE", Name: "Blue", Color: "#00f"},
		},
		VetoHold:        12 * time.Minute,
		PenaltyDuration: 5 * time.Minute,
	})
}

func TestSyncRosterTeamsUpsertsIntoSession(t *testing.T) {
	rosterTeams := []models.Team{
		{Code: "RED", Name: "Red Renamed", Color: "#c00"},
		{Code: "GREEN", Name: "Green", Color: "#0c0"},
	}
	roster := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/teams", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(rosterTeams))
	}))
	defer roster.Close()

	sess := newSyncTestSession()
	gs := NewGameService(sess, nil, nil, rosterserviceclient.NewRosterClient(roster.URL))

	require.NoError(t, gs.SyncRosterTeams(context.Background()))

	state := sess.State()
	require.Contains(t, state.Teams, "RED")
	assert.Equal(t, "Red Renamed", state.Teams["RED"].Name)
	assert.Equal(t, "#c00", state.Teams["RED"].Color)

	// New roster entries are added, existing ones not in the roster stay.
	require.Contains(t, state.Teams, "GREEN")
	require.Contains(t, state.Teams, "BLUE")
	assert.Equal(t, "Blue", state.Teams["BLUE"].Name)
}

func TestSyncRosterTeamsEmptyRosterIsNoop(t *testing.T) {
	roster := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode([]models.Team{}))
	}))
	defer roster.Close()

	sess := newSyncTestSession()
	gs := NewGameService(sess, nil, nil, rosterserviceclient.NewRosterClient(roster.URL))

	require.NoError(t, gs.SyncRosterTeams(context.Background()))

	state := sess.State()
	assert.Len(t, state.Teams, 2)
	assert.Equal(t, "Red", state.Teams["RED"].Name)
}

func TestSyncRosterTeamsSurfacesTransportError(t *testing.T) {
	roster := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"roster database unavailable"}`, http.StatusInternalServerError)
	}))
	defer roster.Close()

	sess := newSyncTestSession()
	gs := NewGameService(sess, nil, nil, rosterserviceclient.NewRosterClient(roster.URL))

	err := gs.SyncRosterTeams(context.Background())
	require.Error(t, err)

	// The session keeps its configured teams on failure.
	state := sess.State()
	assert.Len(t, state.Teams, 2)
}
