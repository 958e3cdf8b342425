package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gameapi "github.com/barhunt/go-services/game/api"
	"github.com/barhunt/go-services/game/service"
	"github.com/barhunt/go-services/game/session"
	"github.com/barhunt/go-services/game/store"
	"github.com/barhunt/go-services/game/syncer"
	"github.com/barhunt/go-services/game/updater"
	"github.com/barhunt/go-services/shared/api"
	"github.com/barhunt/go-services/shared/config"
	redisu "github.com/barhunt/go-services/shared/redis"
	"github.com/barhunt/go-services/shared/registry"
	rosterserviceclient "github.com/barhunt/go-services/shared/service"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadGameServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded for Game Service. Listening on: %s, game code: %s", cfg.ListenAddr, cfg.GameCode)

	// --- 2. Connect to Redis Cluster ---
	redisClient, err := redisu.NewRedisClusterClient(cfg.RedisAddrs, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis Cluster: %v", err)
	}
	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Fatalf("Error closing Redis client: %v", err)
		}
		log.Println("Redis Client closed.")
	}()
	log.Println("Connected to Redis Cluster.")

	// --- 3. Initialize Data Stores (Redis-only) ---
	stateStore := store.NewStateStore(redisClient)
	penaltyStore := store.NewPenaltyStore(redisClient)

	rosterClient := rosterserviceclient.NewRosterClient(cfg.RosterServiceURL)

	// --- 4. Initialize the In-Memory Session and Business Logic Service ---
	// The Session is the single authoritative writer for all game state; the
	// GameService wraps it with Redis persistence and snapshot broadcasting.
	sess := session.New(session.Config{
		GameCode:        cfg.GameCode,
		Teams:           cfg.Teams,
		VetoHold:        cfg.VetoHold,
		PenaltyDuration: cfg.PenaltyDuration,
	})
	gameService := service.NewGameService(sess, stateStore, penaltyStore, rosterClient)

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := gameService.Bootstrap(bootstrapCtx); err != nil {
		bootstrapCancel()
		log.Fatalf("Failed to bootstrap game state: %v", err)
	}
	bootstrapCancel()
	log.Println("Game Service business logic initialized.")

	// --- 5. Initialize API Handlers (passing business logic services) ---
	gameAPIHandlers := gameapi.NewGameAPIHandlers(gameService, cfg.AdminCode)

	// --- 6. Initialize and Start Service Registrar ---
	// The Game Service registers itself with the service discovery system.
	registrar := registry.NewServiceRegistrar(redisClient, "game-service", &cfg.CommonConfig)
	go registrar.Start()
	defer registrar.Stop()
	log.Printf("Service registrar started for 'game-service' with Address: %s", cfg.ListenAddr)

	// The serviceTimeout for RegistryClient should be related to HeartbeatTTL from CommonConfig
	registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL)

	snapshotUpdater := updater.NewSnapshotUpdater(cfg, gameService, stateStore, registryClient, registrar)
	go snapshotUpdater.Start()
	defer snapshotUpdater.Stop()

	archiveSyncer := syncer.NewArchiveSyncer(cfg, gameService, rosterClient, registryClient, registrar)
	go archiveSyncer.Start()
	defer archiveSyncer.Stop()

	// --- 7. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	gameAPIHandlers.RegisterRoutes(baseServer.Router)
	log.Println("HTTP routes registered.")

	// --- 8. Start HTTP Server ---
	go func() {
		log.Printf("HTTP server starting on %s...", cfg.ListenAddr)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 9. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down Game Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Game Service HTTP server gracefully stopped.")

	// Persist one final state so a restart resumes from here.
	finalCtx, finalCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer finalCancel()
	if err := stateStore.SaveState(finalCtx, sess.GameCode(), sess.State()); err != nil {
		log.Printf("Warning: failed to persist final state: %v", err)
	}
	log.Println("Game Service gracefully shut down.")
}
