// game/session/session.go
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/barhunt/go-services/shared/config"
	"github.com/barhunt/go-services/shared/models"
	"github.com/google/uuid"
)

// Session is the single owner of all live game state: the game window, the
// team roster, the bar registry and each team's deck/penalty state. Every
// mutating operation takes the session mutex, validates all preconditions and
// only then writes, so operations are serialized and all-or-nothing. No I/O
// happens under the lock; persistence and broadcast are the caller's job once
// an operation reports success.
type Session struct {
	mu sync.Mutex

	gameCode string
	window   models.GameWindow
	teams    map[string]*models.Team
	bars     *barRegistry

	masterDeck []models.Card
	cardsByID  map[string]models.Card

	vetoHold        time.Duration
	penaltyDuration time.Duration
	clock           Clock
}

// Config carries everything needed to construct a session at startup.
type Config struct {
	GameCode        string
	Teams           []config.TeamConfig
	VetoHold        time.Duration
	PenaltyDuration time.Duration
	Clock           Clock
}

// New builds a session from configuration. Teams exist for the whole life of
// the process; the deck seed is fixed at creation and survives resets.
func New(cfg Config) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	s := &Session{
		gameCode:        cfg.GameCode,
		window:          models.GameWindow{AccessCode: cfg.GameCode},
		teams:           make(map[string]*models.Team, len(cfg.Teams)),
		bars:            newBarRegistry(),
		vetoHold:        cfg.VetoHold,
		penaltyDuration: cfg.PenaltyDuration,
		clock:           clock,
	}
	now := clock.Now()
	for _, tc := range cfg.Teams {
		created := now
		s.teams[tc.Code] = &models.Team{
			Code:         tc.Code,
			Name:         tc.Name,
			Color:        tc.Color,
			DeckSeed:     tc.Code,
			DrawnCardIDs: make(map[string]bool),
			CreatedAt:    &created,
		}
	}
	return s
}

// GameCode returns the access code of this session.
func (s *Session) GameCode() string { return s.gameCode }

func (s *Session) resolveGame(gameCode string) error {
	if gameCode != s.gameCode {
		return ErrInvalidGameCode
	}
	return nil
}

func (s *Session) resolveTeam(teamCode string) (*models.Team, error) {
	team, ok := s.teams[teamCode]
	if !ok {
		return nil, ErrInvalidTeamCode
	}
	return team, nil
}

// withinWindow reports whether gameplay-time-gated operations are permitted.
// A window with an unset bound is open on that side; no bounds at all means
// setup mode and everything is allowed.
func (s *Session) withinWindow(now time.Time) bool {
	if s.window.Start == nil || s.window.End == nil {
		return true
	}
	return !now.Before(*s.window.Start) && !now.After(*s.window.End)
}

// Join validates the game and team codes and records the member on the team.
func (s *Session) Join(gameCode, teamCode, displayName string) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return models.Member{}, err
	}
	team, err := s.resolveTeam(teamCode)
	if err != nil {
		return models.Member{}, err
	}
	if strings.TrimSpace(displayName) == "" {
		return models.Member{}, ErrMissingDisplayName
	}

	member := models.Member{
		ID:          uuid.New().String(),
		DisplayName: strings.TrimSpace(displayName),
		JoinedAt:    s.clock.Now(),
	}
	team.Members = append(team.Members, member)
	return member, nil
}

// Claim acquires an unlocked, unowned bar for the team. Proof of the visit is
// a caller-supplied flag; the session has no authority to verify it.
func (s *Session) Claim(gameCode, teamCode string, spec models.BarSpec, hasProof bool) (models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return models.Bar{}, err
	}
	team, err := s.resolveTeam(teamCode)
	if err != nil {
		return models.Bar{}, err
	}
	now := s.clock.Now()
	if !s.withinWindow(now) {
		return models.Bar{}, ErrGameWindowClosed
	}
	if isPenalized(team, now) {
		return models.Bar{}, ErrPenaltyActive
	}

	bar, err := s.bars.claim(team.Code, spec, hasProof)
	if err != nil {
		return models.Bar{}, err
	}
	return *bar, nil
}

// Lock makes a claimed bar immune to steals. Locking is owner-only and is
// not time-gated; a team may lock down after the window closes.
func (s *Session) Lock(gameCode, teamCode, placeID string) (models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return models.Bar{}, err
	}
	team, err := s.resolveTeam(teamCode)
	if err != nil {
		return models.Bar{}, err
	}

	bar, err := s.bars.lock(team.Code, placeID)
	if err != nil {
		return models.Bar{}, err
	}
	return *bar, nil
}

// StealAttempt resolves a contested re-acquisition. Success is asserted by
// the caller (the real-world challenge outcome is outside the session's
// authority). A failure penalizes the attacker; the second consecutive
// failure also locks the bar for the incumbent.
func (s *Session) StealAttempt(gameCode, teamCode, placeID string, assertedSuccess bool) (models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return models.Bar{}, err
	}
	team, err := s.resolveTeam(teamCode)
	if err != nil {
		return models.Bar{}, err
	}
	now := s.clock.Now()
	if !s.withinWindow(now) {
		return models.Bar{}, ErrGameWindowClosed
	}
	if isPenalized(team, now) {
		return models.Bar{}, ErrPenaltyActive
	}

	bar, penalize, err := s.bars.stealAttempt(team.Code, placeID, assertedSuccess)
	if err != nil {
		return models.Bar{}, err
	}
	if penalize {
		applyPenalty(team, now, s.penaltyDuration)
	}
	return *bar, nil
}

// DrawCard deals the team's next card from its seeded order.
func (s *Session) DrawCard(teamCode string) (models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, err := s.resolveTeam(teamCode)
	if err != nil {
		return models.Challenge{}, err
	}
	now := s.clock.Now()
	if !s.withinWindow(now) {
		return models.Challenge{}, ErrGameWindowClosed
	}
	return s.drawCard(team, now)
}

// CompleteChallenge resolves the team's active card with no penalty.
func (s *Session) CompleteChallenge(teamCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, err := s.resolveTeam(teamCode)
	if err != nil {
		return err
	}
	return s.completeChallenge(team)
}

// VetoChallenge discards the active card after the minimum hold time and
// returns the penalty duration that was applied.
func (s *Session) VetoChallenge(teamCode string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, err := s.resolveTeam(teamCode)
	if err != nil {
		return 0, err
	}
	return s.vetoChallenge(team, s.clock.Now())
}

// SetWindow is the administrative operation that bounds gameplay time.
// Passing nil bounds returns the session to setup mode.
func (s *Session) SetWindow(accessCode string, start, end *time.Time) (models.GameWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(accessCode); err != nil {
		return models.GameWindow{}, err
	}
	s.window.Start = start
	s.window.End = end
	return s.window, nil
}

// SetAdjustments overwrites the manual score-correction layer for the given
// teams. Adjustments are independent of ownership.
func (s *Session) SetAdjustments(gameCode string, adjustments map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return err
	}
	// Validate every code before touching any team.
	teams := make([]*models.Team, 0, len(adjustments))
	values := make([]int, 0, len(adjustments))
	for code, value := range adjustments {
		team, err := s.resolveTeam(code)
		if err != nil {
			return err
		}
		teams = append(teams, team)
		values = append(values, value)
	}
	for i, team := range teams {
		team.ScoreAdjustment = values[i]
	}
	return nil
}

// SetTeamConfig updates names and colors for existing teams and adds any new
// ones. Teams are never removed mid-session.
func (s *Session) SetTeamConfig(gameCode string, teams []config.TeamConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return err
	}
	now := s.clock.Now()
	for _, tc := range teams {
		if existing, ok := s.teams[tc.Code]; ok {
			existing.Name = tc.Name
			existing.Color = tc.Color
			continue
		}
		created := now
		s.teams[tc.Code] = &models.Team{
			Code:         tc.Code,
			Name:         tc.Name,
			Color:        tc.Color,
			DeckSeed:     tc.Code,
			DrawnCardIDs: make(map[string]bool),
			CreatedAt:    &created,
		}
	}
	return nil
}

// LoadMasterDeck replaces the shared master deck. A team whose draw order is
// already fixed keeps its remaining sequence; cards new to the deck are
// appended to that order in seed-shuffled sequence, removed cards are skipped
// at draw time.
func (s *Session) LoadMasterDeck(gameCode string, cards []models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return err
	}
	s.setMasterDeck(cards)
	for _, team := range s.teams {
		s.extendDeckOrder(team)
	}
	return nil
}

func (s *Session) setMasterDeck(cards []models.Card) {
	s.masterDeck = make([]models.Card, len(cards))
	copy(s.masterDeck, cards)
	s.cardsByID = make(map[string]models.Card, len(cards))
	for _, card := range s.masterDeck {
		s.cardsByID[card.ID] = card
	}
}

// OverwriteBars replaces the bar set wholesale.
func (s *Session) OverwriteBars(gameCode string, specs []models.BarSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return err
	}
	s.bars.replaceAll(specs)
	return nil
}

// ResetGame clears bars, per-team deck/penalty/challenge state and
// adjustments while preserving team identity, deck seeds and the master deck.
func (s *Session) ResetGame(gameCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveGame(gameCode); err != nil {
		return err
	}
	s.bars.reset()
	for _, team := range s.teams {
		team.ScoreAdjustment = 0
		team.PenaltyUntil = nil
		team.DeckOrder = nil
		team.DrawnCardIDs = make(map[string]bool)
		team.ActiveChallenge = nil
	}
	return nil
}

// Snapshot builds the public state view broadcast to observers. Standings are
// recomputed on every call.
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	standings := computeStandings(s.bars, s.teams)

	teams := make(map[string]models.TeamView, len(s.teams))
	for code, team := range s.teams {
		view := models.TeamView{
			Code:               code,
			Name:               team.Name,
			Color:              team.Color,
			Score:              standings.FinalScore[code],
			OwnedCount:         standings.OwnedCount[code],
			PenaltySecondsLeft: int64(penaltyRemaining(team, now) / time.Second),
			MemberCount:        len(team.Members),
		}
		if team.ActiveChallenge != nil {
			challenge := *team.ActiveChallenge
			view.ActiveChallenge = &challenge
		}
		teams[code] = view
	}

	bars := make(map[string]models.Bar, len(s.bars.bars))
	for id, bar := range s.bars.bars {
		bars[id] = *bar
	}

	return models.Snapshot{
		GameCode:  s.gameCode,
		Teams:     teams,
		Bars:      bars,
		Standings: standings,
		Window:    s.window,
		UpdatedAt: now,
	}
}

// State exports the full durable state for the persistence port.
func (s *Session) State() models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	teams := make(map[string]*models.Team, len(s.teams))
	for code, team := range s.teams {
		copied := *team
		if team.DrawnCardIDs != nil {
			copied.DrawnCardIDs = make(map[string]bool, len(team.DrawnCardIDs))
			for id, drawn := range team.DrawnCardIDs {
				copied.DrawnCardIDs[id] = drawn
			}
		}
		if team.ActiveChallenge != nil {
			challenge := *team.ActiveChallenge
			copied.ActiveChallenge = &challenge
		}
		copied.DeckOrder = append([]string(nil), team.DeckOrder...)
		copied.Members = append([]models.Member(nil), team.Members...)
		teams[code] = &copied
	}

	bars := make(map[string]*models.Bar, len(s.bars.bars))
	for id, bar := range s.bars.bars {
		copied := *bar
		bars[id] = &copied
	}

	deck := make([]models.Card, len(s.masterDeck))
	copy(deck, s.masterDeck)

	return models.GameState{
		Window:     s.window,
		Teams:      teams,
		Bars:       bars,
		MasterDeck: deck,
		SavedAt:    s.clock.Now(),
	}
}

// Restore replaces the live state with a previously saved one, used to resume
// a session after a restart.
func (s *Session) Restore(state models.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state.Window.AccessCode == s.gameCode {
		s.window = state.Window
	}
	if len(state.Teams) > 0 {
		s.teams = make(map[string]*models.Team, len(state.Teams))
		for code, team := range state.Teams {
			copied := *team
			copied.DrawnCardIDs = make(map[string]bool, len(team.DrawnCardIDs))
			for id, drawn := range team.DrawnCardIDs {
				copied.DrawnCardIDs[id] = drawn
			}
			if team.ActiveChallenge != nil {
				challenge := *team.ActiveChallenge
				copied.ActiveChallenge = &challenge
			}
			copied.DeckOrder = append([]string(nil), team.DeckOrder...)
			copied.Members = append([]models.Member(nil), team.Members...)
			s.teams[code] = &copied
		}
	}
	s.bars = newBarRegistry()
	for id, bar := range state.Bars {
		copied := *bar
		s.bars.bars[id] = &copied
	}
	s.setMasterDeck(state.MasterDeck)
}
