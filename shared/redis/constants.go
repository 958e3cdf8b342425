// shared/redis/constants.go
package redis

import "fmt"

const (
	// GameStateKeyPrefix stores the latest durable state of a session:
	// game_state:{gameCode}
	GameStateKeyPrefix = "game_state:{%s}:"

	// SnapshotChannelPrefix is the pub/sub channel the transport layer
	// subscribes to for observer broadcasts: snapshots:{gameCode}
	SnapshotChannelPrefix = "snapshots:{%s}:"

	// TeamPenaltyKeyPrefix mirrors a team's penalty expiry with a TTL so
	// external tooling can see active lockouts at a glance:
	// penalty:{gameCode}:<teamCode>
	TeamPenaltyKeyPrefix = "penalty:{%s}:%s"
)

// ErrRedisKeyNotFound is returned by stores when a key is absent.
var ErrRedisKeyNotFound = fmt.Errorf("redis key not found")
