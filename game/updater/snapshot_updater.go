package updater

import (
	"context"
	"log"
	"time"

	"github.com/barhunt/go-services/game/service"
	"github.com/barhunt/go-services/game/store"
	cluster "github.com/barhunt/go-services/shared/cluster"
	"github.com/barhunt/go-services/shared/config"
	"github.com/barhunt/go-services/shared/registry"
)

// SnapshotUpdater periodically republishes the public snapshot to the Redis
// channel so observers that missed a mutation-driven publish converge anyway.
// With several game-service instances behind one Redis, the consistent-hash
// assignment makes exactly one instance responsible per game code.
type SnapshotUpdater struct {
	config            *config.GameServiceConfig
	gameService       *service.GameService
	stateStore        *store.StateStore
	assignmentManager *cluster.ServiceAssignmentManager
	serviceRegistrar  *registry.ServiceRegistrar
	ctx               context.Context
	cancel            context.CancelFunc
}

// NewSnapshotUpdater creates a new SnapshotUpdater instance.
func NewSnapshotUpdater(
	cfg *config.GameServiceConfig,
	gameService *service.GameService,
	stateStore *store.StateStore,
	registryClient *registry.RegistryClient,
	serviceRegistrar *registry.ServiceRegistrar,
) *SnapshotUpdater {
	log.Println("SnapshotUpdater: Initialized.")
	ctx, cancel := context.WithCancel(context.Background())

	assignmentManager := cluster.NewServiceAssignmentManager(
		registryClient,
		serviceRegistrar,
		cfg.HeartbeatInterval,
	)

	return &SnapshotUpdater{
		config:            cfg,
		gameService:       gameService,
		stateStore:        stateStore,
		assignmentManager: assignmentManager,
		serviceRegistrar:  serviceRegistrar,
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Start initiates the broadcast loop. This should be run in a goroutine.
func (su *SnapshotUpdater) Start() {
	log.Printf("Snapshot Updater starting with broadcast interval: %v", su.config.BroadcastInterval)
	ticker := time.NewTicker(su.config.BroadcastInterval)
	defer ticker.Stop()

	go su.assignmentManager.Start()

	for {
		select {
		case <-su.ctx.Done():
			log.Println("Snapshot Updater shutting down.")
			su.assignmentManager.Stop()
			return
		case <-ticker.C:
			su.performBroadcast()
		}
	}
}

// Stop gracefully stops the broadcast loop.
func (su *SnapshotUpdater) Stop() {
	su.cancel()
}

// performBroadcast republishes the snapshot if this instance owns the game.
func (su *SnapshotUpdater) performBroadcast() {
	gameCode := su.gameService.Session.GameCode()

	isResponsible, err := su.assignmentManager.IsResponsible(gameCode)
	if err != nil {
		log.Printf("WARNING: SnapshotUpdater: Failed to check responsibility for game %s: %v", gameCode, err)
		return
	}
	if !isResponsible {
		return
	}

	if err := su.stateStore.PublishSnapshot(su.ctx, su.gameService.Snapshot()); err != nil {
		log.Printf("ERROR: SnapshotUpdater: Failed to publish snapshot for game %s: %v", gameCode, err)
	}
}
