// game/store/state_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redisu "github.com/barhunt/go-services/shared/redis"

	"github.com/barhunt/go-services/shared/models"
	"github.com/redis/go-redis/v9"
)

// stateTTL keeps a stale state from outliving an event by too long; every
// save refreshes it.
const stateTTL = 24 * time.Hour

// StateStore persists the latest durable session state in Redis and fans the
// public snapshot out to observers over pub/sub. It is the implementation of
// the persistence/broadcast port the session layer writes through after every
// mutation.
type StateStore struct {
	redisClient *redis.ClusterClient
}

// NewStateStore creates a new StateStore instance.
func NewStateStore(redisClient *redis.ClusterClient) *StateStore {
	return &StateStore{redisClient: redisClient}
}

// SaveState overwrites the durable state for a game.
func (ss *StateStore) SaveState(ctx context.Context, gameCode string, state models.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state for game %s: %w", gameCode, err)
	}

	key := fmt.Sprintf(redisu.GameStateKeyPrefix, gameCode)
	if err := ss.redisClient.Set(ctx, key, data, stateTTL).Err(); err != nil {
		return fmt.Errorf("failed to save state for game %s in Redis: %w", gameCode, err)
	}
	return nil
}

// LoadState retrieves the last saved state for a game.
// Returns redisu.ErrRedisKeyNotFound if no state has been saved yet.
func (ss *StateStore) LoadState(ctx context.Context, gameCode string) (models.GameState, error) {
	key := fmt.Sprintf(redisu.GameStateKeyPrefix, gameCode)

	data, err := ss.redisClient.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return models.GameState{}, redisu.ErrRedisKeyNotFound
	}
	if err != nil {
		return models.GameState{}, fmt.Errorf("failed to load state for game %s from Redis: %w", gameCode, err)
	}

	var state models.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.GameState{}, fmt.Errorf("failed to unmarshal state for game %s: %w", gameCode, err)
	}
	return state, nil
}

// PublishSnapshot pushes the public snapshot onto the game's observer
// channel. The transport layer subscribes and relays it verbatim.
func (ss *StateStore) PublishSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for game %s: %w", snapshot.GameCode, err)
	}

	channel := fmt.Sprintf(redisu.SnapshotChannelPrefix, snapshot.GameCode)
	receivers, err := ss.redisClient.Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish snapshot for game %s: %w", snapshot.GameCode, err)
	}
	if receivers == 0 {
		log.Printf("No observers subscribed on %s; snapshot published into the void", channel)
	}
	return nil
}
