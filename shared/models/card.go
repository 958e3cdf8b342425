package models

import "time"

// Card kinds in the master deck.
const (
	CardKindChallenge = "challenge"
	CardKindCurse     = "curse"
)

// Card is one entry of the shared master deck. Cards are immutable once
// loaded; every team draws from the same set in its own seeded order.
type Card struct {
	ID   string `bson:"_id" json:"id"`
	Kind string `bson:"kind" json:"kind"`
	Text string `bson:"text" json:"text"`
}

// Challenge statuses.
const (
	ChallengeStatusActive   = "active"
	ChallengeStatusResolved = "resolved"
)

// Challenge is a team's currently drawn card. At most one exists per team.
type Challenge struct {
	CardID    string    `bson:"card_id" json:"cardId"`
	Text      string    `bson:"text" json:"text"`
	Kind      string    `bson:"kind" json:"kind"`
	StartedAt time.Time `bson:"started_at" json:"startedAt"`
	Status    string    `bson:"status" json:"status"`
}
