// game/store/penalty_store.go
package store

import (
	"context"
	"fmt"
	"time"

	redisu "github.com/barhunt/go-services/shared/redis"

	"github.com/redis/go-redis/v9"
)

// PenaltyStore mirrors team penalty expiries into Redis with a matching TTL.
// The session's in-memory state stays authoritative; the mirror exists so
// external tooling (admin panel, dashboards) can list active lockouts without
// asking the game service.
type PenaltyStore struct {
	redisClient *redis.ClusterClient
}

// NewPenaltyStore creates a new PenaltyStore instance.
func NewPenaltyStore(redisClient *redis.ClusterClient) *PenaltyStore {
	return &PenaltyStore{redisClient: redisClient}
}

// MirrorPenalty records that a team is locked out until the given instant.
// The key expires on its own when the penalty does.
func (ps *PenaltyStore) MirrorPenalty(ctx context.Context, gameCode, teamCode string, until time.Time) error {
	duration := time.Until(until)
	if duration <= 0 {
		duration = time.Millisecond // Already expired, set minimal duration
	}

	key := fmt.Sprintf(redisu.TeamPenaltyKeyPrefix, gameCode, teamCode)
	if err := ps.redisClient.Set(ctx, key, until.UnixMilli(), duration).Err(); err != nil {
		return fmt.Errorf("failed to mirror penalty for team %s: %w", teamCode, err)
	}
	return nil
}

// ClearPenalty removes a team's penalty mirror, used on game reset.
func (ps *PenaltyStore) ClearPenalty(ctx context.Context, gameCode, teamCode string) error {
	key := fmt.Sprintf(redisu.TeamPenaltyKeyPrefix, gameCode, teamCode)
	if _, err := ps.redisClient.Del(ctx, key).Result(); err != nil {
		return fmt.Errorf("failed to clear penalty mirror for team %s: %w", teamCode, err)
	}
	return nil
}
