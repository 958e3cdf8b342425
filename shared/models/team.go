package models

import "time"

// Team is the full per-team game state. Identity is the team code; teams are
// created from configuration at startup and are never destroyed during a
// session, only reset.
type Team struct {
	Code            string     `bson:"_id" json:"code"`
	Name            string     `bson:"name" json:"name"`
	Color           string     `bson:"color" json:"color"`
	ScoreAdjustment int        `bson:"score_adjustment" json:"scoreAdjustment"`
	PenaltyUntil    *time.Time `bson:"penalty_until,omitempty" json:"penaltyUntil,omitempty"`

	// DeckSeed is fixed once assigned; the same seed always reproduces the
	// same draw order. DeckOrder stays empty until the first draw.
	DeckSeed        string          `bson:"deck_seed" json:"deckSeed"`
	DeckOrder       []string        `bson:"deck_order,omitempty" json:"deckOrder,omitempty"`
	DrawnCardIDs    map[string]bool `bson:"drawn_card_ids,omitempty" json:"drawnCardIds,omitempty"`
	ActiveChallenge *Challenge      `bson:"active_challenge,omitempty" json:"activeChallenge,omitempty"`

	Members   []Member   `bson:"members,omitempty" json:"members,omitempty"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
}

// Member is one person who joined a team with the shared team code.
type Member struct {
	ID          string    `bson:"id" json:"id"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	JoinedAt    time.Time `bson:"joined_at" json:"joinedAt"`
}
