// game/session/deck.go
package session

import (
	"time"

	"github.com/barhunt/go-services/shared/models"
)

// shuffleOrder permutes the master deck deterministically from a seed string.
// The generator state is seeded from the character codes of the seed, then a
// Fisher-Yates shuffle is driven by a linear-congruential step. The same seed
// and deck always yield the same order, which is what makes draw sequences
// reproducible after a restart and auditable after the event.
func shuffleOrder(seed string, cards []models.Card) []string {
	var state uint32
	for _, c := range []byte(seed) {
		state = state*31 + uint32(c)
	}

	order := make([]string, len(cards))
	for i, card := range cards {
		order[i] = card.ID
	}
	for i := len(order) - 1; i > 0; i-- {
		state = state*1664525 + 1013904223
		j := int(state % uint32(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// drawCard selects the next undrawn card for the team and makes it the active
// challenge. The team's deck order is fixed on first draw.
func (s *Session) drawCard(team *models.Team, now time.Time) (models.Challenge, error) {
	if len(s.masterDeck) == 0 {
		return models.Challenge{}, ErrDeckNotLoaded
	}
	if isPenalized(team, now) {
		return models.Challenge{}, ErrPenaltyActive
	}
	if team.ActiveChallenge != nil && team.ActiveChallenge.Status == models.ChallengeStatusActive {
		return models.Challenge{}, ErrChallengeAlreadyActive
	}

	if len(team.DeckOrder) == 0 {
		team.DeckOrder = shuffleOrder(team.DeckSeed, s.masterDeck)
	}

	var next *models.Card
	for _, id := range team.DeckOrder {
		if team.DrawnCardIDs[id] {
			continue
		}
		if card, ok := s.cardsByID[id]; ok {
			next = &card
			break
		}
	}
	if next == nil {
		return models.Challenge{}, ErrDeckExhausted
	}

	challenge := models.Challenge{
		CardID:    next.ID,
		Text:      next.Text,
		Kind:      next.Kind,
		StartedAt: now,
		Status:    models.ChallengeStatusActive,
	}
	team.ActiveChallenge = &challenge
	return challenge, nil
}

// extendDeckOrder appends cards the team's fixed draw order has never seen,
// shuffled with the team's own seed. Called when an admin replaces the master
// deck so teams mid-game can still reach the new cards.
func (s *Session) extendDeckOrder(team *models.Team) {
	if len(team.DeckOrder) == 0 {
		return
	}
	known := make(map[string]bool, len(team.DeckOrder))
	for _, id := range team.DeckOrder {
		known[id] = true
	}
	var added []models.Card
	for _, card := range s.masterDeck {
		if !known[card.ID] {
			added = append(added, card)
		}
	}
	if len(added) == 0 {
		return
	}
	team.DeckOrder = append(team.DeckOrder, shuffleOrder(team.DeckSeed, added)...)
}

// completeChallenge resolves the team's active card with no penalty.
func (s *Session) completeChallenge(team *models.Team) error {
	if team.ActiveChallenge == nil || team.ActiveChallenge.Status != models.ChallengeStatusActive {
		return ErrNoActiveChallenge
	}
	s.consumeActiveCard(team)
	return nil
}

// vetoChallenge discards the active card after the minimum hold time and
// applies the veto penalty. Vetoing on sight is not allowed so teams cannot
// skip hard challenges for free.
func (s *Session) vetoChallenge(team *models.Team, now time.Time) (time.Duration, error) {
	if team.ActiveChallenge == nil || team.ActiveChallenge.Status != models.ChallengeStatusActive {
		return 0, ErrNoActiveChallenge
	}
	held := now.Sub(team.ActiveChallenge.StartedAt)
	if held < s.vetoHold {
		return 0, &VetoTooEarlyError{Remaining: s.vetoHold - held}
	}
	s.consumeActiveCard(team)
	applyPenalty(team, now, s.penaltyDuration)
	return s.penaltyDuration, nil
}

func (s *Session) consumeActiveCard(team *models.Team) {
	if team.DrawnCardIDs == nil {
		team.DrawnCardIDs = make(map[string]bool)
	}
	team.DrawnCardIDs[team.ActiveChallenge.CardID] = true
	team.ActiveChallenge = nil
}
