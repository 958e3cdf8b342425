// roster/store/team_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/barhunt/go-services/shared/config"
	"github.com/barhunt/go-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TeamStore represents the MongoDB data store for the durable team roster.
type TeamStore struct {
	collection *mongo.Collection
}

// NewTeamStore creates a new TeamStore instance.
func NewTeamStore(collection *mongo.Collection) *TeamStore {
	return &TeamStore{
		collection: collection,
	}
}

// EnsureTeamsExist initializes team documents for the configured roster if
// they don't exist. Existing documents keep their name and color.
func (ts *TeamStore) EnsureTeamsExist(ctx context.Context, teams []config.TeamConfig) error {
	for _, tc := range teams {
		filter := bson.M{"_id": tc.Code}
		update := bson.M{
			"$setOnInsert": bson.M{
				"name":             tc.Name,
				"color":            tc.Color,
				"score_adjustment": 0,
				"deck_seed":        tc.Code,
				"created_at":       time.Now(),
			},
		}
		opts := options.Update().SetUpsert(true)

		result, err := ts.collection.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			return fmt.Errorf("failed to upsert team %s: %w", tc.Code, err)
		}
		if result.UpsertedID != nil {
			log.Printf("INFO: Initialized team '%s' (%s) in database.", tc.Code, tc.Name)
		}
	}
	return nil
}

// GetTeam retrieves a single team document by its code.
func (ts *TeamStore) GetTeam(ctx context.Context, teamCode string) (*models.Team, error) {
	var team models.Team
	filter := bson.M{"_id": teamCode}

	err := ts.collection.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get team %s: %w", teamCode, err)
	}
	return &team, nil
}

// UpdateTeamAppearance updates a team's display name and color.
func (ts *TeamStore) UpdateTeamAppearance(ctx context.Context, teamCode, name, color string) error {
	filter := bson.M{"_id": teamCode}
	update := bson.M{
		"$set": bson.M{"name": name, "color": color},
	}
	res, err := ts.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update appearance for team %s: %w", teamCode, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("team %s not found for appearance update", teamCode)
	}
	return nil
}

// GetAllTeams retrieves all team documents.
func (ts *TeamStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	cursor, err := ts.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all teams: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode all teams: %w", err)
	}
	return teams, nil
}
