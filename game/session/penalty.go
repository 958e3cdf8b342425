// game/session/penalty.go
package session

import (
	"time"

	"github.com/barhunt/go-services/shared/models"
)

// applyPenalty extends a team's lockout window. Penalties stack: a team
// penalized while already penalized accumulates additional time on top of
// the remaining window instead of resetting it.
func applyPenalty(team *models.Team, now time.Time, d time.Duration) {
	base := now
	if team.PenaltyUntil != nil && team.PenaltyUntil.After(now) {
		base = *team.PenaltyUntil
	}
	until := base.Add(d)
	team.PenaltyUntil = &until
}

// isPenalized reports whether the team is currently locked out of initiating
// new actions. Resolving an already-active challenge is never blocked.
func isPenalized(team *models.Team, now time.Time) bool {
	return team.PenaltyUntil != nil && now.Before(*team.PenaltyUntil)
}

// penaltyRemaining returns how much lockout is left, zero if none.
func penaltyRemaining(team *models.Team, now time.Time) time.Duration {
	if !isPenalized(team, now) {
		return 0
	}
	return team.PenaltyUntil.Sub(now)
}
