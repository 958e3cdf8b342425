// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rosterapi "github.com/barhunt/go-services/roster/api"
	"github.com/barhunt/go-services/roster/places"
	"github.com/barhunt/go-services/roster/service"
	"github.com/barhunt/go-services/roster/store"
	"github.com/barhunt/go-services/shared/api"
	"github.com/barhunt/go-services/shared/config"
	mongodbu "github.com/barhunt/go-services/shared/mongodb"
	redisu "github.com/barhunt/go-services/shared/redis"
	"github.com/barhunt/go-services/shared/registry"
	gameserviceclient "github.com/barhunt/go-services/shared/service"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadRosterServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			log.Fatalf("Failed to disconnect from MongoDB: %v", err)
		}
		log.Println("Disconnected from MongoDB.")
	}()

	// --- 3. Connect to Redis ---
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

	// --- 4. Initialize Data Stores (passing MongoDB collections) ---
	teamsCollection := mongoClient.Collection(cfg.MongoDBTeamsCollection)
	decksCollection := mongoClient.Collection(cfg.MongoDBDecksCollection)
	archiveCollection := mongoClient.Collection(cfg.MongoDBArchiveCollection)

	teamStore := store.NewTeamStore(teamsCollection)
	deckStore := store.NewDeckStore(decksCollection)
	archiveStore := store.NewArchiveStore(archiveCollection)

	// --- 5. Initialize External Services ---
	placesService := places.NewPlacesService(archiveStore, cfg.GameCode, cfg.PlacesBaseURL, cfg.PlacesFillerInterval)
	go placesService.StartFillerJob()
	defer placesService.StopFillerJob()

	gameClient := gameserviceclient.NewGameClient(cfg.GameServiceURL, cfg.AdminCode)

	// --- 6. Ensure Initial Data Exists (e.g., default teams) ---
	if err := teamStore.EnsureTeamsExist(context.Background(), cfg.DefaultTeams); err != nil {
		log.Fatalf("Failed to ensure default teams exist: %v", err)
	}

	// --- 7. Initialize Business Logic Services (passing stores and external services) ---
	rosterService := service.NewRosterService(teamStore, deckStore, archiveStore, gameClient)

	// --- 8. Initialize API Handlers (passing business logic services) ---
	rosterAPIHandlers := rosterapi.NewRosterAPIHandlers(rosterService, cfg.AdminCode)

	// --- 9. Initialize and Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, "roster-service", &cfg.CommonConfig)
	go registrar.Start()
	defer registrar.Stop()

	// --- 10. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	rosterAPIHandlers.RegisterRoutes(baseServer.Router)

	// --- 11. Start HTTP Server ---
	go func() {
		log.Printf("HTTP server starting on %s...", cfg.ListenAddr)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 12. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped.")
}
