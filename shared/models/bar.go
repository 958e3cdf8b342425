package models

// Bar is a claimable location. Bars are created lazily on first reference to
// a place ID and only disappear through an administrative reset or overwrite.
// An empty Owner means the bar is unclaimed. Locked implies Owner is set.
type Bar struct {
	PlaceID             string  `bson:"_id" json:"placeId"`
	Name                string  `bson:"name" json:"name"`
	Lat                 float64 `bson:"lat" json:"lat"`
	Lng                 float64 `bson:"lng" json:"lng"`
	Owner               string  `bson:"owner,omitempty" json:"owner,omitempty"`
	Locked              bool    `bson:"locked" json:"locked"`
	FailedStealAttempts int     `bson:"failed_steal_attempts" json:"failedStealAttempts"`
}

// BarSpec is the administrative input used to replace the bar set wholesale.
type BarSpec struct {
	PlaceID string  `bson:"place_id" json:"placeId"`
	Name    string  `bson:"name" json:"name"`
	Lat     float64 `bson:"lat" json:"lat"`
	Lng     float64 `bson:"lng" json:"lng"`
	Owner   string  `bson:"owner,omitempty" json:"owner,omitempty"`
	Locked  bool    `bson:"locked" json:"locked"`
}
