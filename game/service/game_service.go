// game/service/game_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/barhunt/go-services/game/session"
	"github.com/barhunt/go-services/game/store"
	"github.com/barhunt/go-services/shared/config"
	redisu "github.com/barhunt/go-services/shared/redis"
	"github.com/barhunt/go-services/shared/models"
	rosterserviceclient "github.com/barhunt/go-services/shared/service"
)

// GameService wraps the in-memory session with its persistence and broadcast
// side effects. Every successful mutation is followed by a state save and a
// snapshot publish; those are best-effort relative to the mutation itself,
// which has already been atomically applied.
type GameService struct {
	Session      *session.Session
	StateStore   *store.StateStore
	PenaltyStore *store.PenaltyStore
	RosterClient *rosterserviceclient.RosterServiceClient
}

// NewGameService is the constructor for GameService.
func NewGameService(
	sess *session.Session,
	stateStore *store.StateStore,
	penaltyStore *store.PenaltyStore,
	rosterClient *rosterserviceclient.RosterServiceClient,
) *GameService {
	return &GameService{
		Session:      sess,
		StateStore:   stateStore,
		PenaltyStore: penaltyStore,
		RosterClient: rosterClient,
	}
}

// Bootstrap resumes a previously saved session state if one exists,
// reconciles the team list with the durable roster, and makes sure a master
// deck is loaded, preferring the saved one over roster's.
func (gs *GameService) Bootstrap(ctx context.Context) error {
	gameCode := gs.Session.GameCode()

	state, err := gs.StateStore.LoadState(ctx, gameCode)
	switch {
	case err == redisu.ErrRedisKeyNotFound:
		log.Printf("Service: no saved state for game %s, starting fresh.", gameCode)
	case err != nil:
		return fmt.Errorf("failed to load saved state for game %s: %w", gameCode, err)
	default:
		gs.Session.Restore(state)
		log.Printf("Service: resumed game %s from state saved at %v.", gameCode, state.SavedAt)
	}

	if err := gs.SyncRosterTeams(ctx); err != nil {
		log.Printf("Warning: could not sync team roster from Roster Service: %v. Keeping configured teams.", err)
	}

	if len(gs.Session.State().MasterDeck) == 0 {
		cards, err := gs.RosterClient.GetMasterDeck(ctx)
		if err != nil {
			log.Printf("Warning: could not fetch master deck from Roster Service: %v. Draws will fail until a deck is loaded.", err)
			return nil
		}
		if err := gs.Session.LoadMasterDeck(gameCode, cards); err != nil {
			return fmt.Errorf("failed to load master deck: %w", err)
		}
		log.Printf("Service: loaded master deck with %d cards from Roster Service.", len(cards))
	}
	return nil
}

// SyncRosterTeams pulls the durable team roster and upserts it into the
// session, so names and colors edited through the roster service take effect
// on restart without touching live play state.
func (gs *GameService) SyncRosterTeams(ctx context.Context) error {
	teams, err := gs.RosterClient.GetTeams(ctx)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		return nil
	}
	configs := make([]config.TeamConfig, 0, len(teams))
	for _, team := range teams {
		configs = append(configs, config.TeamConfig{
			Code:  team.Code,
			Name:  team.Name,
			Color: team.Color,
		})
	}
	if err := gs.Session.SetTeamConfig(gs.Session.GameCode(), configs); err != nil {
		return fmt.Errorf("failed to apply roster teams: %w", err)
	}
	log.Printf("Service: synced %d teams from Roster Service.", len(configs))
	return nil
}

// persistAndBroadcast saves the durable state and publishes the public
// snapshot. Failures are logged, not returned: the mutation already happened
// and the periodic updater will re-publish shortly.
func (gs *GameService) persistAndBroadcast(ctx context.Context) {
	state := gs.Session.State()
	if err := gs.StateStore.SaveState(ctx, gs.Session.GameCode(), state); err != nil {
		log.Printf("Warning: failed to persist state for game %s: %v", gs.Session.GameCode(), err)
	}
	if err := gs.StateStore.PublishSnapshot(ctx, gs.Session.Snapshot()); err != nil {
		log.Printf("Warning: failed to publish snapshot for game %s: %v", gs.Session.GameCode(), err)
	}
}

// mirrorPenalty reflects a team's current lockout into Redis.
func (gs *GameService) mirrorPenalty(ctx context.Context, teamCode string) {
	state := gs.Session.State()
	team, ok := state.Teams[teamCode]
	if !ok || team.PenaltyUntil == nil {
		return
	}
	if err := gs.PenaltyStore.MirrorPenalty(ctx, gs.Session.GameCode(), teamCode, *team.PenaltyUntil); err != nil {
		log.Printf("Warning: failed to mirror penalty for team %s: %v", teamCode, err)
	}
}

// Join validates codes and records the member, then rebroadcasts.
func (gs *GameService) Join(ctx context.Context, gameCode, teamCode, displayName string) (models.Member, error) {
	member, err := gs.Session.Join(gameCode, teamCode, displayName)
	if err != nil {
		return models.Member{}, err
	}
	gs.persistAndBroadcast(ctx)
	return member, nil
}

// Claim acquires a bar for a team.
func (gs *GameService) Claim(ctx context.Context, gameCode, teamCode string, spec models.BarSpec, hasProof bool) (models.Bar, error) {
	bar, err := gs.Session.Claim(gameCode, teamCode, spec, hasProof)
	if err != nil {
		return models.Bar{}, err
	}
	gs.persistAndBroadcast(ctx)
	return bar, nil
}

// Lock locks a claimed bar for its owner.
func (gs *GameService) Lock(ctx context.Context, gameCode, teamCode, placeID string) (models.Bar, error) {
	bar, err := gs.Session.Lock(gameCode, teamCode, placeID)
	if err != nil {
		return models.Bar{}, err
	}
	gs.persistAndBroadcast(ctx)
	return bar, nil
}

// StealAttempt resolves a steal; failed attempts leave the attacker
// penalized, which is mirrored into Redis for dashboards.
func (gs *GameService) StealAttempt(ctx context.Context, gameCode, teamCode, placeID string, assertedSuccess bool) (models.Bar, error) {
	bar, err := gs.Session.StealAttempt(gameCode, teamCode, placeID, assertedSuccess)
	if err != nil {
		return models.Bar{}, err
	}
	if !assertedSuccess {
		gs.mirrorPenalty(ctx, teamCode)
	}
	gs.persistAndBroadcast(ctx)
	return bar, nil
}

// DrawCard deals the team's next card.
func (gs *GameService) DrawCard(ctx context.Context, teamCode string) (models.Challenge, error) {
	challenge, err := gs.Session.DrawCard(teamCode)
	if err != nil {
		return models.Challenge{}, err
	}
	gs.persistAndBroadcast(ctx)
	return challenge, nil
}

// CompleteChallenge resolves the active card.
func (gs *GameService) CompleteChallenge(ctx context.Context, teamCode string) error {
	if err := gs.Session.CompleteChallenge(teamCode); err != nil {
		return err
	}
	gs.persistAndBroadcast(ctx)
	return nil
}

// VetoChallenge discards the active card and applies the veto penalty.
func (gs *GameService) VetoChallenge(ctx context.Context, teamCode string) (time.Duration, error) {
	penalty, err := gs.Session.VetoChallenge(teamCode)
	if err != nil {
		return 0, err
	}
	gs.mirrorPenalty(ctx, teamCode)
	gs.persistAndBroadcast(ctx)
	return penalty, nil
}

// SetWindow sets or clears the gameplay window.
func (gs *GameService) SetWindow(ctx context.Context, accessCode string, start, end *time.Time) (models.GameWindow, error) {
	window, err := gs.Session.SetWindow(accessCode, start, end)
	if err != nil {
		return models.GameWindow{}, err
	}
	gs.persistAndBroadcast(ctx)
	return window, nil
}

// SetAdjustments overwrites manual score corrections.
func (gs *GameService) SetAdjustments(ctx context.Context, gameCode string, adjustments map[string]int) error {
	if err := gs.Session.SetAdjustments(gameCode, adjustments); err != nil {
		return err
	}
	gs.persistAndBroadcast(ctx)
	return nil
}

// SetTeamConfig updates names/colors of existing teams and adds new ones.
func (gs *GameService) SetTeamConfig(ctx context.Context, gameCode string, teams []config.TeamConfig) error {
	if err := gs.Session.SetTeamConfig(gameCode, teams); err != nil {
		return err
	}
	gs.persistAndBroadcast(ctx)
	return nil
}

// OverwriteBars replaces the bar set wholesale.
func (gs *GameService) OverwriteBars(ctx context.Context, gameCode string, specs []models.BarSpec) error {
	if err := gs.Session.OverwriteBars(gameCode, specs); err != nil {
		return err
	}
	gs.persistAndBroadcast(ctx)
	return nil
}

// LoadMasterDeck replaces the shared master deck.
func (gs *GameService) LoadMasterDeck(ctx context.Context, gameCode string, cards []models.Card) error {
	if err := gs.Session.LoadMasterDeck(gameCode, cards); err != nil {
		return err
	}
	gs.persistAndBroadcast(ctx)
	return nil
}

// ResetGame clears all gameplay state while keeping teams and the deck.
func (gs *GameService) ResetGame(ctx context.Context, gameCode string) error {
	state := gs.Session.State()
	if err := gs.Session.ResetGame(gameCode); err != nil {
		return err
	}
	for teamCode := range state.Teams {
		if err := gs.PenaltyStore.ClearPenalty(ctx, gameCode, teamCode); err != nil {
			log.Printf("Warning: failed to clear penalty mirror for team %s: %v", teamCode, err)
		}
	}
	gs.persistAndBroadcast(ctx)
	return nil
}

// Snapshot returns the current public view without mutating anything.
func (gs *GameService) Snapshot() models.Snapshot {
	return gs.Session.Snapshot()
}
