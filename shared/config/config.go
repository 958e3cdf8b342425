// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CommonConfig holds configuration fields that are shared across services.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis-cluster:6379")
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration
	ServicePort             int           // The port this service listens on, used for registration
}

// TeamConfig is one roster entry parsed from HUNT_TEAMS ("code:name:color").
type TeamConfig struct {
	Code  string
	Name  string
	Color string
}

// GameServiceConfig holds configuration specific to the game-service.
type GameServiceConfig struct {
	CommonConfig                    // Embed CommonConfig
	ListenAddr        string        // Address for the HTTP server (e.g., ":8082")
	GameCode          string        // Access code players use to join this hunt
	AdminCode         string        // Access code for administrative operations
	Teams             []TeamConfig  // Fixed team roster for the session
	VetoHold          time.Duration // Minimum time a challenge must be held before veto (e.g., 12m)
	PenaltyDuration   time.Duration // Lockout applied on veto and on failed steals (e.g., 5m)
	BroadcastInterval time.Duration // How often the updater republishes the snapshot (e.g., 5s)
	ArchiveInterval   time.Duration // How often the syncer archives the snapshot to roster (e.g., 1m)
	ArchiveTimeout    time.Duration // Timeout for one archive round-trip
	RosterServiceURL  string        // Base URL of the roster-service (master deck, archive)
}

// RosterServiceConfig holds configuration specific to the roster-service.
type RosterServiceConfig struct {
	CommonConfig                            // Embed CommonConfig
	ListenAddr               string         // Address for the HTTP server (e.g., ":8081")
	GameCode                 string         // Access code of the hunt this roster backs
	AdminCode                string         // Access code for administrative operations
	MongoDBConnStr           string         // MongoDB connection string
	MongoDBDatabase          string         // MongoDB database name
	MongoDBTeamsCollection   string         // Collection for team roster documents
	MongoDBDecksCollection   string         // Collection for master deck cards
	MongoDBArchiveCollection string         // Collection for archived game snapshots
	GameServiceURL           string         // Base URL of the game-service for admin proxying
	PlacesBaseURL            string         // External places API used by the bar-metadata filler
	PlacesFillerInterval     time.Duration  // How often the filler backfills missing bar metadata
	DefaultTeams             []TeamConfig   // Teams seeded into MongoDB on startup
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"redis-cluster-headless.barhunt.svc.cluster.local:6379"}
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Service IP for registration, injected by Kubernetes.
	cfg.ServiceIP = os.Getenv("POD_IP")
	if cfg.ServiceIP == "" {
		cfg.ServiceIP = "0.0.0.0"
		fmt.Printf("WARNING: POD_IP not set, defaulting ServiceIP to %s\n", cfg.ServiceIP)
	}

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8082" -> 8082)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}

// ParseTeams parses a comma-separated list of "code:name:color" triples.
// Name and color fall back to defaults when omitted.
func ParseTeams(spec string) ([]TeamConfig, error) {
	var teams []TeamConfig
	seen := make(map[string]bool)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		tc := TeamConfig{Code: strings.TrimSpace(parts[0])}
		if tc.Code == "" {
			return nil, fmt.Errorf("team entry %q has an empty code", entry)
		}
		if seen[tc.Code] {
			return nil, fmt.Errorf("duplicate team code %q", tc.Code)
		}
		seen[tc.Code] = true
		tc.Name = tc.Code
		tc.Color = "#888888"
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			tc.Name = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			tc.Color = strings.TrimSpace(parts[2])
		}
		teams = append(teams, tc)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("no teams configured")
	}
	return teams, nil
}

func defaultTeams() []TeamConfig {
	return []TeamConfig{
		{Code: "RED", Name: "Red Lions", Color: "#e74c3c"},
		{Code: "BLUE", Name: "Blue Herons", Color: "#3498db"},
	}
}

func loadTeams(envKey string) ([]TeamConfig, error) {
	spec := os.Getenv(envKey)
	if spec == "" {
		return defaultTeams(), nil
	}
	teams, err := ParseTeams(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envKey, err)
	}
	return teams, nil
}

// LoadGameServiceConfig loads configuration for the game-service.
func LoadGameServiceConfig() (*GameServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for game-service: %w", err)
	}

	cfg := &GameServiceConfig{
		CommonConfig:     common,
		ListenAddr:       os.Getenv("GAME_SERVICE_LISTEN_ADDR"),
		GameCode:         os.Getenv("HUNT_GAME_CODE"),
		AdminCode:        os.Getenv("HUNT_ADMIN_CODE"),
		RosterServiceURL: os.Getenv("ROSTER_SERVICE_URL"),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8082"
	}
	if cfg.GameCode == "" {
		cfg.GameCode = "BARHUNT"
	}
	if cfg.AdminCode == "" {
		cfg.AdminCode = cfg.GameCode + "-ADMIN"
	}
	if cfg.RosterServiceURL == "" {
		cfg.RosterServiceURL = "http://roster-service:8081"
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from GAME_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	cfg.Teams, err = loadTeams("HUNT_TEAMS")
	if err != nil {
		return nil, err
	}

	cfg.VetoHold, err = getDuration("HUNT_VETO_HOLD", 12*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.PenaltyDuration, err = getDuration("HUNT_PENALTY_DURATION", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.BroadcastInterval, err = getDuration("GAME_SERVICE_BROADCAST_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.ArchiveInterval, err = getDuration("GAME_SERVICE_ARCHIVE_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.ArchiveTimeout, err = getDuration("GAME_SERVICE_ARCHIVE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadRosterServiceConfig loads configuration for the roster-service.
func LoadRosterServiceConfig() (*RosterServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for roster-service: %w", err)
	}

	cfg := &RosterServiceConfig{
		CommonConfig:             common,
		ListenAddr:               os.Getenv("ROSTER_SERVICE_LISTEN_ADDR"),
		GameCode:                 os.Getenv("HUNT_GAME_CODE"),
		AdminCode:                os.Getenv("HUNT_ADMIN_CODE"),
		MongoDBConnStr:           os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:          os.Getenv("MONGODB_DATABASE"),
		MongoDBTeamsCollection:   os.Getenv("MONGODB_TEAMS_COLLECTION"),
		MongoDBDecksCollection:   os.Getenv("MONGODB_DECKS_COLLECTION"),
		MongoDBArchiveCollection: os.Getenv("MONGODB_ARCHIVE_COLLECTION"),
		GameServiceURL:           os.Getenv("GAME_SERVICE_URL"),
		PlacesBaseURL:            os.Getenv("PLACES_API_BASE_URL"),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8081"
	}
	if cfg.GameCode == "" {
		cfg.GameCode = "BARHUNT"
	}
	if cfg.AdminCode == "" {
		cfg.AdminCode = cfg.GameCode + "-ADMIN"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017"
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "barhunt"
	}
	if cfg.MongoDBTeamsCollection == "" {
		cfg.MongoDBTeamsCollection = "teams"
	}
	if cfg.MongoDBDecksCollection == "" {
		cfg.MongoDBDecksCollection = "decks"
	}
	if cfg.MongoDBArchiveCollection == "" {
		cfg.MongoDBArchiveCollection = "snapshots"
	}
	if cfg.GameServiceURL == "" {
		cfg.GameServiceURL = "http://game-service:8082"
	}
	if cfg.PlacesBaseURL == "" {
		cfg.PlacesBaseURL = "https://places.barhunt.dev/v1/details"
	}

	cfg.PlacesFillerInterval, err = getDuration("PLACES_FILLER_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.DefaultTeams, err = loadTeams("HUNT_TEAMS")
	if err != nil {
		return nil, err
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from ROSTER_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	return cfg, nil
}
