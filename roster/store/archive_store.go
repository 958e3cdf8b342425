// roster/store/archive_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/barhunt/go-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ArchivedSnapshot is one archived state view of a game, as stored in MongoDB.
type ArchivedSnapshot struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	GameCode   string             `bson:"game_code" json:"gameCode"`
	Snapshot   models.Snapshot    `bson:"snapshot" json:"snapshot"`
	ArchivedAt time.Time          `bson:"archived_at" json:"archivedAt"`
}

// ArchiveStore represents the MongoDB data store for archived game snapshots.
// The archive is append-only; each document is one point-in-time state view.
type ArchiveStore struct {
	collection *mongo.Collection
}

// NewArchiveStore creates a new ArchiveStore instance.
func NewArchiveStore(collection *mongo.Collection) *ArchiveStore {
	return &ArchiveStore{
		collection: collection,
	}
}

// SaveSnapshot appends a snapshot to the archive.
func (as *ArchiveStore) SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	doc := ArchivedSnapshot{
		GameCode:   snapshot.GameCode,
		Snapshot:   snapshot,
		ArchivedAt: time.Now(),
	}
	if _, err := as.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to archive snapshot for game %s: %w", snapshot.GameCode, err)
	}
	return nil
}

// LatestSnapshot retrieves the most recently archived snapshot for a game.
func (as *ArchiveStore) LatestSnapshot(ctx context.Context, gameCode string) (*ArchivedSnapshot, error) {
	filter := bson.M{"game_code": gameCode}
	opts := options.FindOne().SetSort(bson.D{{Key: "archived_at", Value: -1}})

	var doc ArchivedSnapshot
	err := as.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get latest snapshot for game %s: %w", gameCode, err)
	}
	return &doc, nil
}

// ListSnapshots retrieves up to limit archived snapshots for a game, newest
// first.
func (as *ArchiveStore) ListSnapshots(ctx context.Context, gameCode string, limit int64) ([]ArchivedSnapshot, error) {
	filter := bson.M{"game_code": gameCode}
	opts := options.Find().SetSort(bson.D{{Key: "archived_at", Value: -1}}).SetLimit(limit)

	cursor, err := as.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for game %s: %w", gameCode, err)
	}
	defer cursor.Close(ctx)

	var docs []ArchivedSnapshot
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode archived snapshots: %w", err)
	}
	return docs, nil
}

// FillBarMetadata patches name and coordinates of one bar inside an archived
// snapshot document. Used by the places filler to backfill bars that were
// claimed with a bare place ID.
func (as *ArchiveStore) FillBarMetadata(ctx context.Context, docID primitive.ObjectID, placeID, name string, lat, lng float64) error {
	filter := bson.M{"_id": docID}
	update := bson.M{
		"$set": bson.M{
			"snapshot.bars." + placeID + ".name": name,
			"snapshot.bars." + placeID + ".lat":  lat,
			"snapshot.bars." + placeID + ".lng":  lng,
		},
	}
	if _, err := as.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(false)); err != nil {
		return fmt.Errorf("failed to fill bar metadata for place %s: %w", placeID, err)
	}
	return nil
}
