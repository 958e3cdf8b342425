// game/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/barhunt/go-services/game/service"
	"github.com/barhunt/go-services/game/session"
	"github.com/barhunt/go-services/shared/api"
	"github.com/barhunt/go-services/shared/config"
	"github.com/barhunt/go-services/shared/models"
	"github.com/gorilla/mux"
)

// GameAPIHandlers holds references to the services that handle business logic
// for the game service.
type GameAPIHandlers struct {
	GameService *service.GameService
	AdminCode   string
}

// NewGameAPIHandlers is the constructor for the Game API handlers.
func NewGameAPIHandlers(gs *service.GameService, adminCode string) *GameAPIHandlers {
	return &GameAPIHandlers{
		GameService: gs,
		AdminCode:   adminCode,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---

// JoinRequest is the body of POST /game/join.
type JoinRequest struct {
	GameCode    string `json:"gameCode"`
	TeamCode    string `json:"teamCode"`
	DisplayName string `json:"displayName"`
}

// ClaimRequest is the body of POST /game/claim. HasProof is a trusted flag:
// the photo itself lives in the excluded storage layer.
type ClaimRequest struct {
	GameCode string  `json:"gameCode"`
	TeamCode string  `json:"teamCode"`
	PlaceID  string  `json:"placeId"`
	BarName  string  `json:"barName"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	HasProof bool    `json:"hasProof"`
}

// LockRequest is the body of POST /game/lock.
type LockRequest struct {
	GameCode string `json:"gameCode"`
	TeamCode string `json:"teamCode"`
	PlaceID  string `json:"placeId"`
}

// StealRequest is the body of POST /game/steal. Success is asserted by the
// caller; the engine has no way to verify the real-world outcome.
type StealRequest struct {
	GameCode string `json:"gameCode"`
	TeamCode string `json:"teamCode"`
	PlaceID  string `json:"placeId"`
	Success  bool   `json:"success"`
}

// TeamOnlyRequest is the body of draw/complete/veto.
type TeamOnlyRequest struct {
	TeamCode string `json:"teamCode"`
}

// VetoResponse reports the penalty applied by a successful veto.
type VetoResponse struct {
	PenaltyMinutes float64 `json:"penaltyMinutes"`
}

// SetWindowRequest is the body of POST /admin/window.
type SetWindowRequest struct {
	AccessCode string     `json:"accessCode"`
	AdminCode  string     `json:"adminCode"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
}

// SetAdjustmentsRequest is the body of POST /admin/adjustments.
type SetAdjustmentsRequest struct {
	GameCode    string         `json:"gameCode"`
	AdminCode   string         `json:"adminCode"`
	Adjustments map[string]int `json:"adjustments"`
}

// OverwriteBarsRequest is the body of POST /admin/bars.
type OverwriteBarsRequest struct {
	GameCode  string           `json:"gameCode"`
	AdminCode string           `json:"adminCode"`
	Bars      []models.BarSpec `json:"bars"`
}

// LoadDeckRequest is the body of POST /admin/deck.
type LoadDeckRequest struct {
	GameCode  string        `json:"gameCode"`
	AdminCode string        `json:"adminCode"`
	Cards     []models.Card `json:"cards"`
}

// SetTeamsRequest is the body of POST /admin/teams.
type SetTeamsRequest struct {
	GameCode  string              `json:"gameCode"`
	AdminCode string              `json:"adminCode"`
	Teams     []config.TeamConfig `json:"teams"`
}

// ResetGameRequest is the body of POST /admin/reset.
type ResetGameRequest struct {
	GameCode  string `json:"gameCode"`
	AdminCode string `json:"adminCode"`
}

// writeRuleError maps an engine rule violation to an HTTP response. Every
// violation is surfaced verbatim; none of them are internal errors.
func writeRuleError(w http.ResponseWriter, err error) {
	var tooEarly *session.VetoTooEarlyError
	switch {
	case errors.Is(err, session.ErrInvalidGameCode),
		errors.Is(err, session.ErrInvalidTeamCode):
		api.WriteNotFound(w, err.Error())
	case errors.Is(err, session.ErrMissingDisplayName),
		errors.Is(err, session.ErrMissingProof):
		api.WriteBadRequest(w, err.Error())
	case errors.Is(err, session.ErrGameWindowClosed),
		errors.Is(err, session.ErrPenaltyActive):
		api.WriteForbidden(w, err.Error())
	case errors.As(err, &tooEarly):
		api.WriteConflict(w, tooEarly.Error())
	case errors.Is(err, session.ErrBarLocked),
		errors.Is(err, session.ErrBarNotClaimed),
		errors.Is(err, session.ErrBarNotOwnedByCaller),
		errors.Is(err, session.ErrAlreadyLocked),
		errors.Is(err, session.ErrAlreadyOwnedByOther),
		errors.Is(err, session.ErrCannotStealOwnBar),
		errors.Is(err, session.ErrNoActiveChallenge),
		errors.Is(err, session.ErrChallengeAlreadyActive),
		errors.Is(err, session.ErrDeckNotLoaded),
		errors.Is(err, session.ErrDeckExhausted):
		api.WriteConflict(w, err.Error())
	default:
		log.Printf("Error: unexpected game operation failure: %v", err)
		api.WriteInternalServerError(w, "operation failed")
	}
}

func (gah *GameAPIHandlers) authorizeAdmin(w http.ResponseWriter, adminCode string) bool {
	if adminCode != gah.AdminCode {
		api.WriteForbidden(w, "invalid admin code")
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func opContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}

// --- Handler Methods ---

// HandleJoin handles requests to join a team with the shared team code.
// POST /game/join
func (gah *GameAPIHandlers) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	member, err := gah.GameService.Join(ctx, req.GameCode, req.TeamCode, req.DisplayName)
	if err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, member)
	log.Printf("Member %q joined team %s.", member.DisplayName, req.TeamCode)
}

// HandleClaim handles first-time acquisition of a bar.
// POST /game/claim
func (gah *GameAPIHandlers) HandleClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlaceID == "" {
		api.WriteBadRequest(w, "placeId is required")
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	spec := models.BarSpec{PlaceID: req.PlaceID, Name: req.BarName, Lat: req.Lat, Lng: req.Lng}
	bar, err := gah.GameService.Claim(ctx, req.GameCode, req.TeamCode, spec, req.HasProof)
	if err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, bar)
	log.Printf("Team %s claimed bar %s (%s).", req.TeamCode, bar.Name, bar.PlaceID)
}

// HandleLock handles locking down an owned bar.
// POST /game/lock
func (gah *GameAPIHandlers) HandleLock(w http.ResponseWriter, r *http.Request) {
	var req LockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlaceID == "" {
		api.WriteBadRequest(w, "placeId is required")
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	bar, err := gah.GameService.Lock(ctx, req.GameCode, req.TeamCode, req.PlaceID)
	if err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, bar)
	log.Printf("Team %s locked bar %s.", req.TeamCode, bar.PlaceID)
}

// HandleSteal handles a contested re-acquisition attempt.
// POST /game/steal
func (gah *GameAPIHandlers) HandleSteal(w http.ResponseWriter, r *http.Request) {
	var req StealRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlaceID == "" {
		api.WriteBadRequest(w, "placeId is required")
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	bar, err := gah.GameService.StealAttempt(ctx, req.GameCode, req.TeamCode, req.PlaceID, req.Success)
	if err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, bar)
	log.Printf("Team %s steal attempt on %s (success=%t, owner now %s, locked=%t).",
		req.TeamCode, bar.PlaceID, req.Success, bar.Owner, bar.Locked)
}

// HandleDraw deals the team's next card.
// POST /game/draw
func (gah *GameAPIHandlers) HandleDraw(w http.ResponseWriter, r *http.Request) {
	var req TeamOnlyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	challenge, err := gah.GameService.DrawCard(ctx, req.TeamCode)
	if err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, challenge)
	log.Printf("Team %s drew card %s (%s).", req.TeamCode, challenge.CardID, challenge.Kind)
}

// HandleComplete resolves the team's active card.
// POST /game/complete
func (gah *GameAPIHandlers) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req TeamOnlyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	if err := gah.GameService.CompleteChallenge(ctx, req.TeamCode); err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "challenge completed", "teamCode": req.TeamCode})
}

// HandleVeto discards the team's active card after the minimum hold.
// POST /game/veto
func (gah *GameAPIHandlers) HandleVeto(w http.ResponseWriter, r *http.Request) {
	var req TeamOnlyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	penalty, err := gah.GameService.VetoChallenge(ctx, req.TeamCode)
	if err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, VetoResponse{PenaltyMinutes: penalty.Minutes()})
	log.Printf("Team %s vetoed its challenge, penalized %v.", req.TeamCode, penalty)
}

// HandleSnapshot returns the full public state view.
// GET /snapshot
func (gah *GameAPIHandlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, gah.GameService.Snapshot())
}

// --- Admin handlers ---

// HandleSetWindow sets or clears the gameplay window.
// POST /admin/window
func (gah *GameAPIHandlers) HandleSetWindow(w http.ResponseWriter, r *http.Request) {
	var req SetWindowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !gah.authorizeAdmin(w, req.AdminCode) {
		return
	}
	if req.Start != nil && req.End != nil && req.End.Before(*req.Start) {
		api.WriteBadRequest(w, "window end precedes start")
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	window, err := gah.GameService.SetWindow(ctx, req.AccessCode, req.Start, req.End)
	if err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, window)
	log.Printf("Game window set: start=%v end=%v.", req.Start, req.End)
}

// HandleSetAdjustments overwrites manual score corrections.
// POST /admin/adjustments
func (gah *GameAPIHandlers) HandleSetAdjustments(w http.ResponseWriter, r *http.Request) {
	var req SetAdjustmentsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !gah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	if err := gah.GameService.SetAdjustments(ctx, req.GameCode, req.Adjustments); err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "adjustments applied"})
}

// HandleOverwriteBars replaces the bar set wholesale.
// POST /admin/bars
func (gah *GameAPIHandlers) HandleOverwriteBars(w http.ResponseWriter, r *http.Request) {
	var req OverwriteBarsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !gah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	if err := gah.GameService.OverwriteBars(ctx, req.GameCode, req.Bars); err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "bars replaced"})
	log.Printf("Admin replaced the bar set with %d bars.", len(req.Bars))
}

// HandleLoadDeck replaces the shared master deck.
// POST /admin/deck
func (gah *GameAPIHandlers) HandleLoadDeck(w http.ResponseWriter, r *http.Request) {
	var req LoadDeckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !gah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	if err := gah.GameService.LoadMasterDeck(ctx, req.GameCode, req.Cards); err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "deck loaded", "cards": len(req.Cards)})
	log.Printf("Admin loaded master deck with %d cards.", len(req.Cards))
}

// HandleSetTeams updates names/colors of existing teams and adds new ones.
// POST /admin/teams
func (gah *GameAPIHandlers) HandleSetTeams(w http.ResponseWriter, r *http.Request) {
	var req SetTeamsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !gah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	if err := gah.GameService.SetTeamConfig(r.Context(), req.GameCode, req.Teams); err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "team config applied"})
}

// HandleResetGame clears all gameplay state while keeping teams and the deck.
// POST /admin/reset
func (gah *GameAPIHandlers) HandleResetGame(w http.ResponseWriter, r *http.Request) {
	var req ResetGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !gah.authorizeAdmin(w, req.AdminCode) {
		return
	}

	ctx, cancel := opContext(r)
	defer cancel()

	if err := gah.GameService.ResetGame(ctx, req.GameCode); err != nil {
		writeRuleError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "game reset"})
	log.Printf("Admin reset game %s.", req.GameCode)
}

// RegisterRoutes registers all API endpoints for the Game Service.
// This method is called from main.go to set up the HTTP routes.
func (gah *GameAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/game/join", gah.HandleJoin).Methods("POST")
	router.HandleFunc("/game/claim", gah.HandleClaim).Methods("POST")
	router.HandleFunc("/game/lock", gah.HandleLock).Methods("POST")
	router.HandleFunc("/game/steal", gah.HandleSteal).Methods("POST")
	router.HandleFunc("/game/draw", gah.HandleDraw).Methods("POST")
	router.HandleFunc("/game/complete", gah.HandleComplete).Methods("POST")
	router.HandleFunc("/game/veto", gah.HandleVeto).Methods("POST")
	router.HandleFunc("/snapshot", gah.HandleSnapshot).Methods("GET")

	router.HandleFunc("/admin/window", gah.HandleSetWindow).Methods("POST")
	router.HandleFunc("/admin/adjustments", gah.HandleSetAdjustments).Methods("POST")
	router.HandleFunc("/admin/bars", gah.HandleOverwriteBars).Methods("POST")
	router.HandleFunc("/admin/deck", gah.HandleLoadDeck).Methods("POST")
	router.HandleFunc("/admin/teams", gah.HandleSetTeams).Methods("POST")
	router.HandleFunc("/admin/reset", gah.HandleResetGame).Methods("POST")
}
