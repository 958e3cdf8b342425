package models

import "time"

// GameWindow bounds when gameplay-time-gated operations are permitted. If
// both bounds are unset the game is in setup mode and everything is allowed.
type GameWindow struct {
	AccessCode string     `bson:"access_code" json:"accessCode"`
	Start      *time.Time `bson:"start,omitempty" json:"start,omitempty"`
	End        *time.Time `bson:"end,omitempty" json:"end,omitempty"`
}

// Standings are derived from bar ownership plus manual adjustments. They are
// recomputed on every read and never stored independently.
type Standings struct {
	OwnedCount map[string]int `bson:"owned_count" json:"ownedCount"`
	FinalScore map[string]int `bson:"final_score" json:"finalScore"`
}

// TeamView is the public slice of team state included in broadcast snapshots.
// Deck order and drawn-card bookkeeping are deliberately left out so observers
// cannot predict upcoming cards.
type TeamView struct {
	Code               string     `bson:"code" json:"code"`
	Name               string     `bson:"name" json:"name"`
	Color              string     `bson:"color" json:"color"`
	Score              int        `bson:"score" json:"score"`
	OwnedCount         int        `bson:"owned_count" json:"ownedCount"`
	PenaltySecondsLeft int64      `bson:"penalty_seconds_left" json:"penaltySecondsLeft"`
	ActiveChallenge    *Challenge `bson:"active_challenge,omitempty" json:"activeChallenge,omitempty"`
	MemberCount        int        `bson:"member_count" json:"memberCount"`
}

// Snapshot is the full state view broadcast verbatim to all observers after
// every mutating call and on every new observer connection.
type Snapshot struct {
	GameCode  string              `bson:"game_code" json:"gameCode"`
	Teams     map[string]TeamView `bson:"teams" json:"teams"`
	Bars      map[string]Bar      `bson:"bars" json:"bars"`
	Standings Standings           `bson:"standings" json:"standings"`
	Window    GameWindow          `bson:"window" json:"window"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// GameState is the durable form of a session: everything needed to resume
// after a restart. Unlike Snapshot it carries full team state including deck
// order and drawn cards.
type GameState struct {
	Window     GameWindow       `bson:"window" json:"window"`
	Teams      map[string]*Team `bson:"teams" json:"teams"`
	Bars       map[string]*Bar  `bson:"bars" json:"bars"`
	MasterDeck []Card           `bson:"master_deck" json:"masterDeck"`
	SavedAt    time.Time        `bson:"saved_at" json:"savedAt"`
}
