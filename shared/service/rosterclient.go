// shared/service/rosterclient.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/barhunt/go-services/shared/api"
	"github.com/barhunt/go-services/shared/models"
)

// RosterServiceClient is a client for the Roster Service. It uses an internal
// apiClient to make HTTP requests to the roster-service.
type RosterServiceClient struct {
	apiClient *api.Client
}

// NewRosterClient creates a new Roster Service client.
// It takes the base URL of the Roster Service as an argument.
func NewRosterClient(baseURL string) *RosterServiceClient {
	return &RosterServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
	}
}

// --- Request/Response DTOs for Roster Service Communication ---
// These mirror the DTOs defined in roster/api/handlers.go for consistency.

// MasterDeckResponse is the structure returned by GET /deck.
type MasterDeckResponse struct {
	Cards []models.Card `json:"cards"`
}

// ArchiveSnapshotRequest is the structure for archiving a game snapshot.
type ArchiveSnapshotRequest struct {
	Snapshot models.Snapshot `json:"snapshot"`
}

// --- Client Methods for Roster Service API Endpoints ---

// GetMasterDeck fetches the shared master deck.
// Returns api.ErrNotFound if no deck has been uploaded yet (HTTP 404).
func (c *RosterServiceClient) GetMasterDeck(ctx context.Context) ([]models.Card, error) {
	resp := &MasterDeckResponse{}
	err := c.apiClient.Get(ctx, "/deck", resp)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("%w: no master deck uploaded", api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get master deck from Roster Service: %w", err)
	}
	return resp.Cards, nil
}

// GetTeams fetches the durable team roster.
func (c *RosterServiceClient) GetTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := c.apiClient.Get(ctx, "/teams", &teams); err != nil {
		return nil, fmt.Errorf("failed to list teams from Roster Service: %w", err)
	}
	return teams, nil
}

// ArchiveSnapshot stores a game snapshot in the roster-service archive.
// It calls the Roster Service's POST /archive endpoint.
func (c *RosterServiceClient) ArchiveSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	reqData := ArchiveSnapshotRequest{Snapshot: snapshot}
	if err := c.apiClient.Post(ctx, "/archive", reqData, nil); err != nil {
		return fmt.Errorf("failed to archive snapshot for game %s in Roster Service: %w", snapshot.GameCode, err)
	}
	return nil
}
