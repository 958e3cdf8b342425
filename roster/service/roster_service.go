// roster/service/roster_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/barhunt/go-services/roster/store"
	"github.com/barhunt/go-services/shared/models"
	gameserviceclient "github.com/barhunt/go-services/shared/service"
	"go.mongodb.org/mongo-driver/mongo" // For checking specific MongoDB errors
)

// Custom Errors for clear communication to API layer
var (
	ErrDeckNotFound     = fmt.Errorf("no master deck uploaded")
	ErrInvalidCard      = fmt.Errorf("invalid card")
	ErrSnapshotNotFound = fmt.Errorf("no archived snapshot found")
	ErrEmptySnapshot    = fmt.Errorf("snapshot has no game code")
)

// RosterService encapsulates the durable side of a hunt: the team roster, the
// master deck, and the snapshot archive. It also proxies administrative
// actions to the live game-service so organizers have a single entry point.
type RosterService struct {
	teamStore    *store.TeamStore
	deckStore    *store.DeckStore
	archiveStore *store.ArchiveStore
	gameClient   *gameserviceclient.GameServiceClient // Dependency on the live game-service
}

// NewRosterService creates a new RosterService instance.
func NewRosterService(
	ts *store.TeamStore,
	ds *store.DeckStore,
	as *store.ArchiveStore,
	gc *gameserviceclient.GameServiceClient,
) *RosterService {
	return &RosterService{
		teamStore:    ts,
		deckStore:    ds,
		archiveStore: as,
		gameClient:   gc,
	}
}

// GetMasterDeck returns the stored master deck in upload order.
func (rs *RosterService) GetMasterDeck(ctx context.Context) ([]models.Card, error) {
	cards, err := rs.deckStore.GetDeck(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to get master deck: %w", err)
	}
	if len(cards) == 0 {
		return nil, ErrDeckNotFound
	}
	return cards, nil
}

// ReplaceMasterDeck validates the uploaded cards and swaps the stored deck.
// Card IDs must be unique and non-empty; an unset kind defaults to challenge.
func (rs *RosterService) ReplaceMasterDeck(ctx context.Context, cards []models.Card) ([]models.Card, error) {
	seen := make(map[string]bool, len(cards))
	validated := make([]models.Card, 0, len(cards))
	for i, card := range cards {
		if card.ID == "" {
			return nil, fmt.Errorf("%w: card %d has an empty ID", ErrInvalidCard, i)
		}
		if seen[card.ID] {
			return nil, fmt.Errorf("%w: duplicate card ID %q", ErrInvalidCard, card.ID)
		}
		seen[card.ID] = true
		if card.Kind == "" {
			card.Kind = models.CardKindChallenge
		}
		if card.Kind != models.CardKindChallenge && card.Kind != models.CardKindCurse {
			return nil, fmt.Errorf("%w: card %q has unknown kind %q", ErrInvalidCard, card.ID, card.Kind)
		}
		validated = append(validated, card)
	}

	if err := rs.deckStore.ReplaceDeck(ctx, validated); err != nil {
		return nil, fmt.Errorf("service failed to replace master deck: %w", err)
	}
	return validated, nil
}

// ListTeams returns the durable team roster.
func (rs *RosterService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := rs.teamStore.GetAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list teams: %w", err)
	}
	return teams, nil
}

// UpdateTeamAppearance updates one team's display name and color.
func (rs *RosterService) UpdateTeamAppearance(ctx context.Context, teamCode, name, color string) error {
	if _, err := rs.teamStore.GetTeam(ctx, teamCode); err != nil {
		if err == mongo.ErrNoDocuments {
			return mongo.ErrNoDocuments
		}
		return fmt.Errorf("service failed to look up team %s: %w", teamCode, err)
	}
	if err := rs.teamStore.UpdateTeamAppearance(ctx, teamCode, name, color); err != nil {
		return fmt.Errorf("service failed to update team %s: %w", teamCode, err)
	}
	return nil
}

// ArchiveSnapshot appends a game snapshot to the archive.
func (rs *RosterService) ArchiveSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	if snapshot.GameCode == "" {
		return ErrEmptySnapshot
	}
	if err := rs.archiveStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("service failed to archive snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently archived snapshot for a game.
func (rs *RosterService) LatestSnapshot(ctx context.Context, gameCode string) (*store.ArchivedSnapshot, error) {
	doc, err := rs.archiveStore.LatestSnapshot(ctx, gameCode)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("service failed to get latest snapshot: %w", err)
	}
	return doc, nil
}

// ListSnapshots returns up to limit archived snapshots for a game, newest first.
func (rs *RosterService) ListSnapshots(ctx context.Context, gameCode string, limit int64) ([]store.ArchivedSnapshot, error) {
	docs, err := rs.archiveStore.ListSnapshots(ctx, gameCode, limit)
	if err != nil {
		return nil, fmt.Errorf("service failed to list snapshots: %w", err)
	}
	return docs, nil
}

// --- Admin proxying to the live game-service ---

// SetGameWindow forwards a window change to the live session.
func (rs *RosterService) SetGameWindow(ctx context.Context, accessCode string, start, end *time.Time) (models.GameWindow, error) {
	return rs.gameClient.SetWindow(ctx, accessCode, start, end)
}

// ResetLiveGame archives a final snapshot of the state about to be destroyed,
// then resets the live session.
func (rs *RosterService) ResetLiveGame(ctx context.Context, gameCode string) error {
	if snapshot, err := rs.gameClient.Snapshot(ctx); err == nil && snapshot.GameCode != "" {
		if archiveErr := rs.archiveStore.SaveSnapshot(ctx, snapshot); archiveErr != nil {
			return fmt.Errorf("service failed to archive pre-reset snapshot: %w", archiveErr)
		}
	}
	return rs.gameClient.ResetGame(ctx, gameCode)
}

// LiveSnapshot fetches the current public state view from the live session.
func (rs *RosterService) LiveSnapshot(ctx context.Context) (models.Snapshot, error) {
	return rs.gameClient.Snapshot(ctx)
}
