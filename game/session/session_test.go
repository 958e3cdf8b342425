// game/session/session_test.go
package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/barhunt/go-services/shared/config"
	"github.com/barhunt/go-services/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives time explicitly so window and penalty behavior is
// deterministic in tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)}
}

const (
	testGameCode = "HUNT42"
	testVetoHold = 12 * time.Minute
	testPenalty  = 5 * time.Minute
)

func newTestSession(clk Clock) *Session {
	return New(Config{
		GameCode: testGameCode,
		Teams: []config.TeamConfig{
			{Code: "RED", Name: "Red Lions", Color: "#e74c3c"},
			{Code: "BLUE", Name: "Blue Herons", Color: "#3498db"},
			{Code: "GREEN", Name: "Green Foxes", Color: "#2ecc71"},
		},
		VetoHold:        testVetoHold,
		PenaltyDuration: testPenalty,
		Clock:           clk,
	})
}

func testDeck(n int) []models.Card {
	cards := make([]models.Card, 0, n)
	for i := 0; i < n; i++ {
		kind := models.CardKindChallenge
		if i%3 == 2 {
			kind = models.CardKindCurse
		}
		cards = append(cards, models.Card{
			ID:   fmt.Sprintf("card-%02d", i),
			Kind: kind,
			Text: fmt.Sprintf("Task number %d", i),
		})
	}
	return cards
}

func barSpec(placeID string) models.BarSpec {
	return models.BarSpec{PlaceID: placeID, Name: "The " + placeID, Lat: 52.37, Lng: 4.89}
}

func TestJoinValidation(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.Join("WRONG", "RED", "Alex")
	assert.ErrorIs(t, err, ErrInvalidGameCode)

	_, err = s.Join(testGameCode, "PINK", "Alex")
	assert.ErrorIs(t, err, ErrInvalidTeamCode)

	_, err = s.Join(testGameCode, "RED", "   ")
	assert.ErrorIs(t, err, ErrMissingDisplayName)

	member, err := s.Join(testGameCode, "RED", "  Alex ")
	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)
	assert.Equal(t, "Alex", member.DisplayName)

	assert.Equal(t, 1, s.Snapshot().Teams["RED"].MemberCount)
}

func TestClaimRequiresProof(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), false)
	assert.ErrorIs(t, err, ErrMissingProof)

	// The rejected claim must not have created the bar.
	assert.Empty(t, s.Snapshot().Bars)
}

func TestClaimIsIdempotentForOwner(t *testing.T) {
	s := newTestSession(newFakeClock())

	first, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)
	assert.Equal(t, "RED", first.Owner)

	second, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Standings.OwnedCount["RED"])
	assert.Equal(t, 1, snap.Teams["RED"].Score)
}

func TestClaimOwnedByOtherTeam(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)

	_, err = s.Claim(testGameCode, "BLUE", barSpec("p1"), true)
	assert.ErrorIs(t, err, ErrAlreadyOwnedByOther)
}

func TestLockOwnershipRules(t *testing.T) {
	s := newTestSession(newFakeClock())

	// Locking a bar nobody has touched fails on ownership, not existence.
	_, err := s.Lock(testGameCode, "RED", "p1")
	assert.ErrorIs(t, err, ErrBarNotOwnedByCaller)

	_, err = s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)

	_, err = s.Lock(testGameCode, "BLUE", "p1")
	assert.ErrorIs(t, err, ErrBarNotOwnedByCaller)

	bar, err := s.Lock(testGameCode, "RED", "p1")
	require.NoError(t, err)
	assert.True(t, bar.Locked)

	_, err = s.Lock(testGameCode, "RED", "p1")
	assert.ErrorIs(t, err, ErrAlreadyLocked)

	// A locked bar rejects claims, even from its owner.
	_, err = s.Claim(testGameCode, "RED", barSpec("p1"), true)
	assert.ErrorIs(t, err, ErrBarLocked)
}

func TestLockedBarAlwaysHasOwner(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)
	_, err = s.Claim(testGameCode, "BLUE", barSpec("p2"), true)
	require.NoError(t, err)
	_, err = s.Lock(testGameCode, "RED", "p1")
	require.NoError(t, err)

	// Two failed steals lock p2 for its incumbent.
	_, err = s.StealAttempt(testGameCode, "GREEN", "p2", false)
	require.NoError(t, err)
	clk.advance(testPenalty)
	_, err = s.StealAttempt(testGameCode, "GREEN", "p2", false)
	require.NoError(t, err)

	for id, bar := range s.Snapshot().Bars {
		if bar.Locked {
			assert.NotEmpty(t, bar.Owner, "locked bar %s has no owner", id)
		}
	}
}

func TestStealSuccessTransfersOwnership(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)

	bar, err := s.StealAttempt(testGameCode, "BLUE", "p1", true)
	require.NoError(t, err)
	assert.Equal(t, "BLUE", bar.Owner)
	assert.Zero(t, bar.FailedStealAttempts)
	assert.False(t, bar.Locked)

	// A successful steal carries no penalty.
	_, err = s.Claim(testGameCode, "BLUE", barSpec("p2"), true)
	assert.NoError(t, err)
}

func TestStealFailurePenalizesAttacker(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)

	bar, err := s.StealAttempt(testGameCode, "BLUE", "p1", false)
	require.NoError(t, err)
	assert.Equal(t, "RED", bar.Owner)
	assert.Equal(t, 1, bar.FailedStealAttempts)
	assert.False(t, bar.Locked)

	_, err = s.Claim(testGameCode, "BLUE", barSpec("p2"), true)
	assert.ErrorIs(t, err, ErrPenaltyActive)
	_, err = s.StealAttempt(testGameCode, "BLUE", "p1", false)
	assert.ErrorIs(t, err, ErrPenaltyActive)

	// The penalty expires after its full duration.
	clk.advance(testPenalty)
	_, err = s.Claim(testGameCode, "BLUE", barSpec("p2"), true)
	assert.NoError(t, err)
}

func TestSecondFailedStealLocksBar(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)

	bar, err := s.StealAttempt(testGameCode, "BLUE", "p1", false)
	require.NoError(t, err)
	assert.False(t, bar.Locked)

	clk.advance(testPenalty)

	bar, err = s.StealAttempt(testGameCode, "GREEN", "p1", false)
	require.NoError(t, err)
	assert.True(t, bar.Locked)
	assert.Equal(t, "RED", bar.Owner)

	clk.advance(testPenalty)

	// Once locked the bar is out of play for attackers and claimants alike.
	_, err = s.StealAttempt(testGameCode, "BLUE", "p1", false)
	assert.ErrorIs(t, err, ErrBarLocked)
	_, err = s.Claim(testGameCode, "BLUE", barSpec("p1"), true)
	assert.ErrorIs(t, err, ErrBarLocked)
}

func TestFailedStealCounterResetsOnOwnershipChange(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)

	_, err = s.StealAttempt(testGameCode, "BLUE", "p1", false)
	require.NoError(t, err)

	bar, err := s.StealAttempt(testGameCode, "GREEN", "p1", true)
	require.NoError(t, err)
	assert.Equal(t, "GREEN", bar.Owner)
	assert.Zero(t, bar.FailedStealAttempts)

	// A failure against the new owner is strike one again, not strike two.
	clk.advance(testPenalty)
	bar, err = s.StealAttempt(testGameCode, "BLUE", "p1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, bar.FailedStealAttempts)
	assert.False(t, bar.Locked)
}

func TestStealEdgeCases(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.StealAttempt(testGameCode, "BLUE", "ghost", true)
	assert.ErrorIs(t, err, ErrBarNotClaimed)

	_, err = s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)
	_, err = s.StealAttempt(testGameCode, "RED", "p1", true)
	assert.ErrorIs(t, err, ErrCannotStealOwnBar)

	// Lock precedence: a locked bar reports locked before the own-bar rule.
	_, err = s.Lock(testGameCode, "RED", "p1")
	require.NoError(t, err)
	_, err = s.StealAttempt(testGameCode, "RED", "p1", true)
	assert.ErrorIs(t, err, ErrBarLocked)
}

func TestWindowGatesClaimStealAndDraw(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(4)))

	// Setup mode (no bounds) allows everything.
	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)
	_, err = s.DrawCard("RED")
	require.NoError(t, err)
	require.NoError(t, s.CompleteChallenge("RED"))

	start := clk.Now().Add(1 * time.Hour)
	end := clk.Now().Add(3 * time.Hour)
	_, err = s.SetWindow(testGameCode, &start, &end)
	require.NoError(t, err)

	_, err = s.Claim(testGameCode, "RED", barSpec("p2"), true)
	assert.ErrorIs(t, err, ErrGameWindowClosed)
	_, err = s.StealAttempt(testGameCode, "BLUE", "p1", true)
	assert.ErrorIs(t, err, ErrGameWindowClosed)
	_, err = s.DrawCard("RED")
	assert.ErrorIs(t, err, ErrGameWindowClosed)

	// Locking and resolving challenges stay allowed outside the window.
	_, err = s.Lock(testGameCode, "RED", "p1")
	assert.NoError(t, err)

	clk.advance(90 * time.Minute) // Inside the window now.
	_, err = s.Claim(testGameCode, "RED", barSpec("p2"), true)
	assert.NoError(t, err)

	clk.advance(3 * time.Hour) // Past the end.
	_, err = s.Claim(testGameCode, "RED", barSpec("p3"), true)
	assert.ErrorIs(t, err, ErrGameWindowClosed)

	// Clearing the bounds reopens everything.
	_, err = s.SetWindow(testGameCode, nil, nil)
	require.NoError(t, err)
	_, err = s.Claim(testGameCode, "RED", barSpec("p3"), true)
	assert.NoError(t, err)
}

func TestSetAdjustmentsAllOrNothing(t *testing.T) {
	s := newTestSession(newFakeClock())

	err := s.SetAdjustments(testGameCode, map[string]int{"RED": 5, "PINK": 1})
	assert.ErrorIs(t, err, ErrInvalidTeamCode)
	assert.Zero(t, s.Snapshot().Teams["RED"].Score)

	require.NoError(t, s.SetAdjustments(testGameCode, map[string]int{"RED": 5}))
	assert.Equal(t, 5, s.Snapshot().Teams["RED"].Score)
}

func TestFinalScoreIsOwnedCountPlusAdjustment(t *testing.T) {
	s := newTestSession(newFakeClock())

	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := s.Claim(testGameCode, "RED", barSpec(id), true)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetAdjustments(testGameCode, map[string]int{"RED": -2}))

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Standings.OwnedCount["RED"])
	assert.Equal(t, 1, snap.Standings.FinalScore["RED"])
	assert.Equal(t, 1, snap.Teams["RED"].Score)
	assert.Equal(t, 0, snap.Teams["BLUE"].Score)

	// Ownership changes are reflected immediately, never cached.
	_, err := s.StealAttempt(testGameCode, "BLUE", "p1", true)
	require.NoError(t, err)
	snap = s.Snapshot()
	assert.Equal(t, 0, snap.Standings.FinalScore["RED"])
	assert.Equal(t, 1, snap.Standings.FinalScore["BLUE"])
}

func TestSetTeamConfigUpsertsWithoutRemoving(t *testing.T) {
	s := newTestSession(newFakeClock())

	err := s.SetTeamConfig(testGameCode, []config.TeamConfig{
		{Code: "RED", Name: "Crimson Lions", Color: "#c0392b"},
		{Code: "GOLD", Name: "Gold Owls", Color: "#f1c40f"},
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "Crimson Lions", snap.Teams["RED"].Name)
	assert.Contains(t, snap.Teams, "GOLD")
	assert.Contains(t, snap.Teams, "BLUE")
	assert.Len(t, snap.Teams, 4)
}

func TestOverwriteBars(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.Claim(testGameCode, "RED", barSpec("old"), true)
	require.NoError(t, err)

	err = s.OverwriteBars(testGameCode, []models.BarSpec{
		{PlaceID: "a", Name: "Bar A", Owner: "BLUE", Locked: true},
		{PlaceID: "b", Name: "Bar B"},
		{PlaceID: "c", Name: "Bar C", Locked: true}, // No owner, lock flag ignored.
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.NotContains(t, snap.Bars, "old")
	assert.True(t, snap.Bars["a"].Locked)
	assert.Equal(t, "BLUE", snap.Bars["a"].Owner)
	assert.False(t, snap.Bars["c"].Locked)
	assert.Equal(t, 1, snap.Standings.FinalScore["BLUE"])
}

func TestResetGameClearsPlayStateKeepsIdentity(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(4)))

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)
	_, err = s.DrawCard("RED")
	require.NoError(t, err)
	require.NoError(t, s.SetAdjustments(testGameCode, map[string]int{"RED": 3}))
	_, err = s.StealAttempt(testGameCode, "BLUE", "p1", false)
	require.NoError(t, err)

	require.NoError(t, s.ResetGame(testGameCode))

	snap := s.Snapshot()
	assert.Empty(t, snap.Bars)
	assert.Zero(t, snap.Teams["RED"].Score)
	assert.Nil(t, snap.Teams["RED"].ActiveChallenge)
	assert.Zero(t, snap.Teams["BLUE"].PenaltySecondsLeft)
	assert.Len(t, snap.Teams, 3)

	// The master deck survives a reset; the first post-reset draw starts a
	// fresh sequence from the same seed.
	first, err := s.DrawCard("RED")
	require.NoError(t, err)
	assert.NotEmpty(t, first.CardID)
}

func TestStateRestoreRoundTrip(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(4)))

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)
	drawn, err := s.DrawCard("RED")
	require.NoError(t, err)
	require.NoError(t, s.CompleteChallenge("RED"))

	state := s.State()

	restored := newTestSession(clk)
	restored.Restore(state)

	snap := restored.Snapshot()
	assert.Equal(t, "RED", snap.Bars["p1"].Owner)
	assert.Equal(t, 1, snap.Standings.OwnedCount["RED"])

	// The draw sequence continues where it left off instead of repeating.
	next, err := restored.DrawCard("RED")
	require.NoError(t, err)
	assert.NotEqual(t, drawn.CardID, next.CardID)
}

func TestSnapshotIsDetachedFromLiveState(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.Claim(testGameCode, "RED", barSpec("p1"), true)
	require.NoError(t, err)

	snap := s.Snapshot()
	bar := snap.Bars["p1"]
	bar.Owner = "BLUE"
	snap.Bars["p1"] = bar

	assert.Equal(t, "RED", s.Snapshot().Bars["p1"].Owner)
}

func TestRestoreIsDetachedFromInputState(t *testing.T) {
	clk := newFakeClock()
	s := newTestSession(clk)
	require.NoError(t, s.LoadMasterDeck(testGameCode, testDeck(4)))
	_, err := s.Join(testGameCode, "RED", "Alex")
	require.NoError(t, err)
	drawn, err := s.DrawCard("RED")
	require.NoError(t, err)
	require.NoError(t, s.CompleteChallenge("RED"))

	state := s.State()
	restored := newTestSession(clk)
	restored.Restore(state)

	// Mutating the caller's copy after Restore must not leak into the session.
	for _, card := range state.MasterDeck {
		state.Teams["RED"].DrawnCardIDs[card.ID] = true
	}
	state.Teams["RED"].Members = append(state.Teams["RED"].Members[:0], models.Member{DisplayName: "Ghost"})

	next, err := restored.DrawCard("RED")
	require.NoError(t, err)
	assert.NotEqual(t, drawn.CardID, next.CardID)

	snap := restored.Snapshot()
	assert.Equal(t, 1, snap.Teams["RED"].MemberCount)
}
