// roster/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/barhunt/go-services/roster/service"
	"github.com/barhunt/go-services/shared/api"
	"github.com/barhunt/go-services/shared/models"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
)

// RosterAPIHandlers holds references to the services that handle business logic.
type RosterAPIHandlers struct {
	RosterService *service.RosterService
	AdminCode     string
}

// NewRosterAPIHandlers is the constructor for your API handlers.
func NewRosterAPIHandlers(rs *service.RosterService, adminCode string) *RosterAPIHandlers {
	return &RosterAPIHandlers{
		RosterService: rs,
		AdminCode:     adminCode,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---

// MasterDeckResponse is the structure returned by GET /deck.
type MasterDeckResponse struct {
	Cards []models.Card `json:"cards"`
}

// UploadDeckRequest is the body of PUT /deck.
type UploadDeckRequest struct {
	AdminCode string        `json:"adminCode"`
	Cards     []models.Card `json:"cards"`
}

// UpdateTeamRequest is the body of PUT /teams/{code}.
type UpdateTeamRequest struct {
	AdminCode string `json:"adminCode"`
	Name      string `json:"name"`
	Color     string `json:"color"`
}

// ArchiveSnapshotRequest is the structure for archiving a game snapshot.
type ArchiveSnapshotRequest struct {
	Snapshot models.Snapshot `json:"snapshot"`
}

// SetWindowProxyRequest is the body of POST /admin/window. The admin code is
// validated here and re-attached by the game client on the forwarded call.
type SetWindowProxyRequest struct {
	AccessCode string     `json:"accessCode"`
	AdminCode  string     `json:"adminCode"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
}

// ResetGameProxyRequest is the body of POST /admin/reset.
type ResetGameProxyRequest struct {
	GameCode  string `json:"gameCode"`
	AdminCode string `json:"adminCode"`
}

func (rah *RosterAPIHandlers) authorizeAdmin(w http.ResponseWriter, adminCode string) bool {
	if adminCode != rah.AdminCode {
		api.WriteForbidden(w, "invalid admin code")
		return false
	}
	return true
}

// --- Handler Methods ---

// GetDeckHandler returns the stored master deck in upload order.
// GET /deck
func (rah *RosterAPIHandlers) GetDeckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cards, err := rah.RosterService.GetMasterDeck(ctx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeckNotFound):
			api.WriteNotFound(w, "No master deck uploaded")
		default:
			log.Printf("Error getting master deck: %v", err)
			api.WriteInternalServerError(w, "Failed to get master deck")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, MasterDeckResponse{Cards: cards})
}

// UploadDeckHandler replaces the stored master deck.
// PUT /deck
func (rah *RosterAPIHandlers) UploadDeckHandler(w http.ResponseWriter, r *http.Request) {
	var req UploadDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !rah.authorizeAdmin(w, req.AdminCode) {
		return
	}
	if len(req.Cards) == 0 {
		api.WriteError(w, http.StatusBadRequest, "Deck must contain at least one card")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cards, err := rah.RosterService.ReplaceMasterDeck(ctx, req.Cards)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCard):
			api.WriteBadRequest(w, err.Error())
		default:
			log.Printf("Error replacing master deck: %v", err)
			api.WriteInternalServerError(w, "Failed to replace master deck")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, MasterDeckResponse{Cards: cards})
	log.Printf("Master deck replaced with %d cards.", len(cards))
}

// ListTeamsHandler returns the durable team roster.
// GET /teams
func (rah *RosterAPIHandlers) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teams, err := rah.RosterService.ListTeams(ctx)
	if err != nil {
		log.Printf("Error listing teams: %v", err)
		api.WriteInternalServerError(w, "Failed to list teams")
		return
	}

	api.WriteJSON(w, http.StatusOK, teams)
}

// UpdateTeamHandler updates one team's display name and color.
// PUT /teams/{code}
func (rah *RosterAPIHandlers) UpdateTeamHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	teamCode := vars["code"]
	if teamCode == "" {
		api.WriteError(w, http.StatusBadRequest, "Team code is required")
		return
	}

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !rah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := rah.RosterService.UpdateTeamAppearance(ctx, teamCode, req.Name, req.Color); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			api.WriteNotFound(w, fmt.Sprintf("Team %s not found", teamCode))
		default:
			log.Printf("Error updating team %s: %v", teamCode, err)
			api.WriteInternalServerError(w, "Failed to update team")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "team updated", "code": teamCode})
}

// ArchiveSnapshotHandler appends a game snapshot to the archive. Called by
// the game-service's archive syncer.
// POST /archive
func (rah *RosterAPIHandlers) ArchiveSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	var req ArchiveSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := rah.RosterService.ArchiveSnapshot(ctx, req.Snapshot); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySnapshot):
			api.WriteBadRequest(w, "Snapshot is missing its game code")
		default:
			log.Printf("Error archiving snapshot for game %s: %v", req.Snapshot.GameCode, err)
			api.WriteInternalServerError(w, "Failed to archive snapshot")
		}
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]string{"message": "snapshot archived", "gameCode": req.Snapshot.GameCode})
}

// LatestSnapshotHandler returns the most recently archived snapshot.
// GET /archive/latest?gameCode=X
func (rah *RosterAPIHandlers) LatestSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	gameCode := r.URL.Query().Get("gameCode")
	if gameCode == "" {
		api.WriteError(w, http.StatusBadRequest, "gameCode query parameter is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doc, err := rah.RosterService.LatestSnapshot(ctx, gameCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSnapshotNotFound):
			api.WriteNotFound(w, fmt.Sprintf("No archived snapshot for game %s", gameCode))
		default:
			log.Printf("Error getting latest snapshot for game %s: %v", gameCode, err)
			api.WriteInternalServerError(w, "Failed to get latest snapshot")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, doc)
}

// ListSnapshotsHandler returns archived snapshots, newest first.
// GET /archive?gameCode=X&limit=N
func (rah *RosterAPIHandlers) ListSnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	gameCode := r.URL.Query().Get("gameCode")
	if gameCode == "" {
		api.WriteError(w, http.StatusBadRequest, "gameCode query parameter is required")
		return
	}

	limit := int64(20)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || parsed <= 0 {
			api.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	docs, err := rah.RosterService.ListSnapshots(ctx, gameCode, limit)
	if err != nil {
		log.Printf("Error listing snapshots for game %s: %v", gameCode, err)
		api.WriteInternalServerError(w, "Failed to list snapshots")
		return
	}

	api.WriteJSON(w, http.StatusOK, docs)
}

// --- Admin proxy handlers ---

// SetWindowProxyHandler forwards a window change to the live game-service.
// POST /admin/window
func (rah *RosterAPIHandlers) SetWindowProxyHandler(w http.ResponseWriter, r *http.Request) {
	var req SetWindowProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !rah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	window, err := rah.RosterService.SetGameWindow(ctx, req.AccessCode, req.Start, req.End)
	if err != nil {
		log.Printf("Error proxying window change to game service: %v", err)
		api.WriteError(w, http.StatusBadGateway, "Failed to set window on game service")
		return
	}

	api.WriteJSON(w, http.StatusOK, window)
	log.Printf("Proxied window change: start=%v end=%v.", req.Start, req.End)
}

// ResetGameProxyHandler archives a final snapshot and resets the live game.
// POST /admin/reset
func (rah *RosterAPIHandlers) ResetGameProxyHandler(w http.ResponseWriter, r *http.Request) {
	var req ResetGameProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !rah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := rah.RosterService.ResetLiveGame(ctx, req.GameCode); err != nil {
		log.Printf("Error proxying game reset to game service: %v", err)
		api.WriteError(w, http.StatusBadGateway, "Failed to reset game on game service")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "game reset", "gameCode": req.GameCode})
	log.Printf("Proxied reset of game %s.", req.GameCode)
}

// LiveSnapshotHandler fetches the current state view from the live game.
// GET /live
func (rah *RosterAPIHandlers) LiveSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	snapshot, err := rah.RosterService.LiveSnapshot(ctx)
	if err != nil {
		log.Printf("Error fetching live snapshot from game service: %v", err)
		api.WriteError(w, http.StatusBadGateway, "Failed to fetch live snapshot")
		return
	}

	api.WriteJSON(w, http.StatusOK, snapshot)
}

// RegisterRoutes registers all API endpoints for the Roster Service.
// This method is called from main.go to set up the HTTP routes.
func (rah *RosterAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/deck", rah.GetDeckHandler).Methods("GET")
	router.HandleFunc("/deck", rah.UploadDeckHandler).Methods("PUT")
	router.HandleFunc("/teams", rah.ListTeamsHandler).Methods("GET")
	router.HandleFunc("/teams/{code}", rah.UpdateTeamHandler).Methods("PUT")
	router.HandleFunc("/archive", rah.ArchiveSnapshotHandler).Methods("POST")
	router.HandleFunc("/archive", rah.ListSnapshotsHandler).Methods("GET")
	router.HandleFunc("/archive/latest", rah.LatestSnapshotHandler).Methods("GET")

	router.HandleFunc("/admin/window", rah.SetWindowProxyHandler).Methods("POST")
	router.HandleFunc("/admin/reset", rah.ResetGameProxyHandler).Methods("POST")
	router.HandleFunc("/live", rah.LiveSnapshotHandler).Methods("GET")
}
