// game/syncer/archive_syncer.go
package syncer

import (
	"context"
	"log"
	"time"

	"github.com/barhunt/go-services/game/service"
	"github.com/barhunt/go-services/shared/cluster"
	"github.com/barhunt/go-services/shared/config"
	"github.com/barhunt/go-services/shared/registry"
	roster_service_client "github.com/barhunt/go-services/shared/service"
)

// ArchiveSyncer handles the periodic backup of game snapshots to the Roster
// Service (MongoDB). It uses ServiceAssignmentManager to ensure only one
// instance in the cluster performs this global task.
type ArchiveSyncer struct {
	config            *config.GameServiceConfig
	gameService       *service.GameService
	rosterClient      *roster_service_client.RosterServiceClient
	assignmentManager *cluster.ServiceAssignmentManager
	serviceRegistrar  *registry.ServiceRegistrar
	ctx               context.Context
	cancel            context.CancelFunc
}

// NewArchiveSyncer creates a new ArchiveSyncer instance.
// It relies on ServiceAssignmentManager to determine leadership for the
// global archive task.
func NewArchiveSyncer(
	cfg *config.GameServiceConfig,
	gameService *service.GameService,
	rosterClient *roster_service_client.RosterServiceClient,
	registryClient *registry.RegistryClient,
	serviceRegistrar *registry.ServiceRegistrar,
) *ArchiveSyncer {
	log.Println("ArchiveSyncer: Initializing.")
	ctx, cancel := context.WithCancel(context.Background())

	assignmentManager := cluster.NewServiceAssignmentManager(
		registryClient,
		serviceRegistrar,
		cfg.HeartbeatInterval,
	)

	return &ArchiveSyncer{
		config:            cfg,
		gameService:       gameService,
		rosterClient:      rosterClient,
		assignmentManager: assignmentManager,
		serviceRegistrar:  serviceRegistrar,
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Start initiates the archive loop. This should be run in a goroutine.
func (as *ArchiveSyncer) Start() {
	log.Printf("Archive Syncer starting with archive interval: %v", as.config.ArchiveInterval)
	ticker := time.NewTicker(as.config.ArchiveInterval)
	defer ticker.Stop()

	go as.assignmentManager.Start()

	for {
		select {
		case <-as.ctx.Done():
			log.Println("Archive Syncer shutting down.")
			as.assignmentManager.Stop()
			return
		case <-ticker.C:
			as.performArchive()
		}
	}
}

// Stop gracefully stops the archive loop.
func (as *ArchiveSyncer) Stop() {
	as.cancel()
}

// performArchive ships the current snapshot to the Roster Service.
// Only the cluster leader (determined by assignmentManager for a specific key)
// will perform this.
func (as *ArchiveSyncer) performArchive() {
	const archiveTaskKey = "global_snapshot_archive_task"

	isLeader, err := as.assignmentManager.IsResponsible(archiveTaskKey)
	if err != nil {
		log.Printf("ERROR: ArchiveSyncer: Failed to check leadership for task '%s': %v", archiveTaskKey, err)
		return
	}
	if !isLeader {
		return
	}

	archiveCtx, archiveCancel := context.WithTimeout(as.ctx, as.config.ArchiveTimeout)
	defer archiveCancel()

	snapshot := as.gameService.Snapshot()
	if err := as.rosterClient.ArchiveSnapshot(archiveCtx, snapshot); err != nil {
		log.Printf("ERROR: ArchiveSyncer: Failed to archive snapshot for game %s: %v", snapshot.GameCode, err)
		return
	}
	log.Printf("INFO: ArchiveSyncer: Archived snapshot for game %s (%d teams, %d bars).",
		snapshot.GameCode, len(snapshot.Teams), len(snapshot.Bars))
}
