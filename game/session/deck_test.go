// game/session/deck_test.go
package session

import (
	"testing"
	"time"

	"github.com/barhunt/go-services/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleOrderIsDeterministic(t *testing.T) {
	deck := testDeck(20)

	first := shuffleOrder("RED", deck)
	second := shuffleOrder("RED", deck)
	assert.Equal(t, first, second)

	// Every card appears exactly once.
	seen := make(map[string]bool, len(first))
	for _, id := range first {
		assert.False(t, seen[id], "card %s appears twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, len(deck))

	other := shuffleOrder("BLUE", deck)
	assert.NotEqual(t, first, other)
}

func TestTeamsDrawIndependentSequences(t *testing.T) {
	s := newTestSession(newFakeClock())
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(20)))

	red, err := s.DrawCard("RED")
	require.NoError(t, err)
	blue, err := s.DrawCard("BLUE")
	require.NoError(t, err)

	// Both teams hold a card at once; the deck is shared content, not a
	// shared cursor.
	assert.Equal(t, models.ChallengeStatusActive, red.Status)
	assert.Equal(t, models.ChallengeStatusActive, blue.Status)

	// Identical seeds would collide here; distinct team codes seed distinct
	// orders, so two sessions agree per team.
	s2 := newTestSession(newFakeClock())
	require.NoError(t, s2.LoadMasterDeck(testGameCode, testDeck(20)))
	red2, err := s2.DrawCard("RED")
	require.NoError(t, err)
	assert.Equal(t, red.CardID, red2.CardID)
}

func TestDrawLifecycle(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)

	_, err := s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrDeckNotLoaded)

	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(2)))

	first, err := s.DrawCard("RED")
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeStatusActive, first.Status)

	_, err = s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrChallengeAlreadyActive)

	require.NoError(t, s.CompleteChallenge("RED"))
	assert.Nil(t, s.Snapshot().Teams["RED"].ActiveChallenge)

	second, err := s.DrawCard("RED")
	require.NoError(t, err)
	assert.NotEqual(t, first.CardID, second.CardID)
	require.NoError(t, s.CompleteChallenge("RED"))

	_, err = s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrDeckExhausted)

	// Exhaustion is per team.
	_, err = s.DrawCard("BLUE")
	assert.NoError(t, err)
}

func TestCompleteWithoutActiveChallenge(t *testing.T) {
	s := newTestSession(newFakeClock())
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(2)))

	assert.ErrorIs(t, s.CompleteChallenge("RED"), ErrNoActiveChallenge)

	_, err := s.VetoChallenge("RED")
	assert.ErrorIs(t, err, ErrNoActiveChallenge)
}

func TestVetoRequiresMinimumHold(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(4)))

	drawn, err := s.DrawCard("RED")
	require.NoError(t, err)

	_, err = s.VetoChallenge("RED")
	var tooEarly *VetoTooEarlyError
	require.ErrorAs(t, err, &tooEarly)
	assert.Equal(t, testVetoHold, tooEarly.Remaining)

	clk.advance(testVetoHold - time.Second)
	_, err = s.VetoChallenge("RED")
	require.ErrorAs(t, err, &tooEarly)
	assert.Equal(t, time.Second, tooEarly.Remaining)

	// The challenge is untouched by rejected vetoes.
	snap := s.Snapshot()
	require.NotNil(t, snap.Teams["RED"].ActiveChallenge)
	assert.Equal(t, drawn.CardID, snap.Teams["RED"].ActiveChallenge.CardID)

	clk.advance(time.Second)
	penalty, err := s.VetoChallenge("RED")
	require.NoError(t, err)
	assert.Equal(t, testPenalty, penalty)

	snap = s.Snapshot()
	assert.Nil(t, snap.Teams["RED"].ActiveChallenge)
	assert.Equal(t, int64(testPenalty/time.Second), snap.Teams["RED"].PenaltySecondsLeft)

	// The vetoed card never comes back.
	_, err = s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrPenaltyActive)
	clk.advance(testPenalty)
	next, err := s.DrawCard("RED")
	require.NoError(t, err)
	assert.NotEqual(t, drawn.CardID, next.CardID)
}

func TestPenaltiesStack(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(4)))

	_, err := s.Claim(testGameCode, "BLUE", barSpec("p1"), true)
	require.NoError(t, err)

	_, err = s.DrawCard("RED")
	require.NoError(t, err)
	clk.advance(testVetoHold)

	// Failed steal: 5 minutes of lockout.
	_, err = s.StealAttempt(testGameCode, "RED", "p1", false)
	require.NoError(t, err)

	// Vetoing while penalized is allowed and stacks another 5 minutes on top
	// of the remaining window.
	_, err = s.VetoChallenge("RED")
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, int64(2*testPenalty/time.Second), snap.Teams["RED"].PenaltySecondsLeft)

	clk.advance(testPenalty)
	_, err = s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrPenaltyActive)

	clk.advance(testPenalty)
	_, err = s.DrawCard("RED")
	assert.NoError(t, err)
}

func TestDrawSkipsCardsRemovedFromDeck(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	deck := testDeck(4)
	require.NoError(t, s.LoadMasterDeck(testGameCode, deck))

	first, err := s.DrawCard("RED")
	require.NoError(t, err)
	require.NoError(t, s.CompleteChallenge("RED"))

	// Shrink the master deck to a single card the team has not drawn yet.
	var remaining models.Card
	for _, card := range deck {
		if card.ID != first.CardID {
			remaining = card
			break
		}
	}
	require.NoError(t, s.LoadMasterDeck(testGameCode, []models.Card{remaining}))

	next, err := s.DrawCard("RED")
	require.NoError(t, err)
	assert.Equal(t, remaining.ID, next.CardID)
	require.NoError(t, s.CompleteChallenge("RED"))

	_, err = s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrDeckExhausted)
}

func TestFixedDrawOrderExtendsWhenDeckGrows(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	small := testDeck(2)
	require.NoError(t, s.LoadMasterDeck(testGameCode, small))

	// Fix RED's draw order and exhaust the original deck.
	for range small {
		_, err := s.DrawCard("RED")
		require.NoError(t, err)
		require.NoError(t, s.CompleteChallenge("RED"))
	}
	_, err := s.DrawCard("RED")
	require.ErrorIs(t, err, ErrDeckExhausted)

	// An admin replaces the deck with a larger one containing new cards.
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(5)))

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		challenge, err := s.DrawCard("RED")
		require.NoError(t, err)
		assert.False(t, seen[challenge.CardID])
		seen[challenge.CardID] = true
		require.NoError(t, s.CompleteChallenge("RED"))
	}
	_, err = s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrDeckExhausted)

	// Only the added cards were dealt; the originals stay consumed.
	assert.False(t, seen["card-00"])
	assert.False(t, seen["card-01"])
}
