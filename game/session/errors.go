// game/session/errors.go
package session

import (
	"errors"
	"fmt"
	"time"
)

// Rule violations surfaced to callers. Every operation validates all of its
// preconditions before mutating anything and returns the first violation;
// none of these are fatal to the session.
var (
	ErrInvalidGameCode        = errors.New("invalid game code")
	ErrInvalidTeamCode        = errors.New("invalid team code")
	ErrMissingDisplayName     = errors.New("display name is required")
	ErrMissingProof           = errors.New("claim requires photo proof")
	ErrGameWindowClosed       = errors.New("game window is closed")
	ErrBarLocked              = errors.New("bar is locked")
	ErrBarNotClaimed          = errors.New("bar is not claimed by anyone")
	ErrBarNotOwnedByCaller    = errors.New("bar is not owned by the calling team")
	ErrAlreadyLocked          = errors.New("bar is already locked")
	ErrAlreadyOwnedByOther    = errors.New("bar is owned by another team")
	ErrCannotStealOwnBar      = errors.New("cannot steal your own bar")
	ErrPenaltyActive          = errors.New("team is under an active penalty")
	ErrNoActiveChallenge      = errors.New("no active challenge")
	ErrChallengeAlreadyActive = errors.New("a challenge is already active")
	ErrDeckNotLoaded          = errors.New("master deck has not been loaded")
	ErrDeckExhausted          = errors.New("deck is exhausted")
)

// VetoTooEarlyError reports how much longer a team must hold its current
// challenge before a veto is allowed.
type VetoTooEarlyError struct {
	Remaining time.Duration
}

func (e *VetoTooEarlyError) Error() string {
	return fmt.Sprintf("veto not allowed yet, wait %s more", e.Remaining.Round(time.Second))
}
