// game/session/bars.go
package session

import "github.com/barhunt/go-services/shared/models"

// lockAfterFailedSteals is the two-strikes rule: a second consecutive failed
// steal attempt locks the bar for the incumbent owner.
const lockAfterFailedSteals = 2

// barRegistry holds the claimable locations and their ownership state
// machine: Unclaimed -> Claimed(owner) -> Locked(owner), plus the steal edge
// between Claimed states. Bars are created lazily on first reference.
type barRegistry struct {
	bars map[string]*models.Bar
}

func newBarRegistry() *barRegistry {
	return &barRegistry{bars: make(map[string]*models.Bar)}
}

// get returns the bar for placeID, or nil if it has never been referenced.
func (br *barRegistry) get(placeID string) *models.Bar {
	return br.bars[placeID]
}

// claim acquires an unclaimed bar for teamCode, creating it from spec if it
// does not exist yet. Re-claiming a bar the team already owns succeeds
// without changing state so clients can safely retry.
func (br *barRegistry) claim(teamCode string, spec models.BarSpec, hasProof bool) (*models.Bar, error) {
	if !hasProof {
		return nil, ErrMissingProof
	}
	bar := br.get(spec.PlaceID)
	if bar != nil {
		if bar.Locked {
			return nil, ErrBarLocked
		}
		if bar.Owner != "" && bar.Owner != teamCode {
			return nil, ErrAlreadyOwnedByOther
		}
	}
	if bar == nil {
		bar = &models.Bar{
			PlaceID: spec.PlaceID,
			Name:    spec.Name,
			Lat:     spec.Lat,
			Lng:     spec.Lng,
		}
		br.bars[spec.PlaceID] = bar
	}
	if bar.Owner != teamCode {
		// Ownership change wipes any pending attack sequence.
		bar.Owner = teamCode
		bar.FailedStealAttempts = 0
	}
	return bar, nil
}

// lock makes a bar the calling team owns immune to steals.
func (br *barRegistry) lock(teamCode, placeID string) (*models.Bar, error) {
	bar := br.get(placeID)
	if bar == nil || bar.Owner != teamCode {
		return nil, ErrBarNotOwnedByCaller
	}
	if bar.Locked {
		return nil, ErrAlreadyLocked
	}
	bar.Locked = true
	return bar, nil
}

// stealAttempt resolves a contested re-acquisition. Success transfers
// ownership and resets the failure counter. The second consecutive failure
// locks the bar for the team that was being attacked; the returned flag tells
// the session to penalize the failing team (it is set on every failure).
func (br *barRegistry) stealAttempt(teamCode, placeID string, assertedSuccess bool) (*models.Bar, bool, error) {
	bar := br.get(placeID)
	if bar == nil || bar.Owner == "" {
		if bar != nil && bar.Locked {
			return nil, false, ErrBarLocked
		}
		return nil, false, ErrBarNotClaimed
	}
	if bar.Locked {
		return nil, false, ErrBarLocked
	}
	if bar.Owner == teamCode {
		return nil, false, ErrCannotStealOwnBar
	}

	if assertedSuccess {
		bar.Owner = teamCode
		bar.FailedStealAttempts = 0
		return bar, false, nil
	}

	bar.FailedStealAttempts++
	if bar.FailedStealAttempts >= lockAfterFailedSteals {
		bar.Locked = true
	}
	return bar, true, nil
}

// replaceAll swaps the whole bar set, used by the administrative overwrite.
func (br *barRegistry) replaceAll(specs []models.BarSpec) {
	bars := make(map[string]*models.Bar, len(specs))
	for _, spec := range specs {
		bars[spec.PlaceID] = &models.Bar{
			PlaceID: spec.PlaceID,
			Name:    spec.Name,
			Lat:     spec.Lat,
			Lng:     spec.Lng,
			Owner:   spec.Owner,
			Locked:  spec.Locked && spec.Owner != "",
		}
	}
	br.bars = bars
}

// reset clears every bar, returning the registry to its initial state.
func (br *barRegistry) reset() {
	br.bars = make(map[string]*models.Bar)
}

// ownedCounts tallies bars per owning team.
func (br *barRegistry) ownedCounts() map[string]int {
	counts := make(map[string]int)
	for _, bar := range br.bars {
		if bar.Owner != "" {
			counts[bar.Owner]++
		}
	}
	return counts
}
