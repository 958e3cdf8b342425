// game/session/score.go
package session

import "github.com/barhunt/go-services/shared/models"

// computeStandings derives the standings from current bar ownership plus the
// manual adjustment layer. finalScore = ownedCount + scoreAdjustment for every
// team, recomputed on every read and never cached across mutations.
func computeStandings(bars *barRegistry, teams map[string]*models.Team) models.Standings {
	counts := bars.ownedCounts()
	standings := models.Standings{
		OwnedCount: make(map[string]int, len(teams)),
		FinalScore: make(map[string]int, len(teams)),
	}
	for code, team := range teams {
		owned := counts[code]
		standings.OwnedCount[code] = owned
		standings.FinalScore[code] = owned + team.ScoreAdjustment
	}
	return standings
}
