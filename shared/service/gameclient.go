// shared/service/gameclient.go
package service

import (
	"context"
	"time"

	"github.com/barhunt/go-services/shared/api"
	"github.com/barhunt/go-services/shared/models"
)

// GameServiceClient is a client for the Game Service, used by the
// roster-service to proxy administrative actions into the live session.
type GameServiceClient struct {
	apiClient *api.Client
	adminCode string
}

// NewGameClient creates a new Game Service client. adminCode is included in
// every administrative request payload.
func NewGameClient(baseURL, adminCode string) *GameServiceClient {
	return &GameServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
		adminCode: adminCode,
	}
}

// SetWindowRequest represents the payload for the admin window endpoint.
type SetWindowRequest struct {
	AccessCode string     `json:"accessCode"`
	AdminCode  string     `json:"adminCode"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
}

// ResetGameRequest represents the payload for the admin reset endpoint.
type ResetGameRequest struct {
	GameCode  string `json:"gameCode"`
	AdminCode string `json:"adminCode"`
}

// SetWindow sets or clears the gameplay window on the live session.
func (c *GameServiceClient) SetWindow(ctx context.Context, accessCode string, start, end *time.Time) (models.GameWindow, error) {
	reqData := SetWindowRequest{
		AccessCode: accessCode,
		AdminCode:  c.adminCode,
		Start:      start,
		End:        end,
	}
	var window models.GameWindow
	if err := c.apiClient.Post(ctx, "/admin/window", reqData, &window); err != nil {
		return models.GameWindow{}, err
	}
	return window, nil
}

// ResetGame clears all gameplay state on the live session.
func (c *GameServiceClient) ResetGame(ctx context.Context, gameCode string) error {
	reqData := ResetGameRequest{GameCode: gameCode, AdminCode: c.adminCode}
	return c.apiClient.Post(ctx, "/admin/reset", reqData, nil)
}

// Snapshot fetches the current public state view from the live session.
func (c *GameServiceClient) Snapshot(ctx context.Context) (models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := c.apiClient.Get(ctx, "/snapshot", &snapshot); err != nil {
		return models.Snapshot{}, err
	}
	return snapshot, nil
}
