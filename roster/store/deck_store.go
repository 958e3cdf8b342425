// roster/store/deck_store.go
package store

import (
	"context"
	"fmt"

	"github.com/barhunt/go-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeckStore represents the MongoDB data store for the master deck. The deck
// is stored one card per document with an explicit position so the upload
// order survives round-trips; team-specific shuffles derive from this order.
type DeckStore struct {
	collection *mongo.Collection
}

// NewDeckStore creates a new DeckStore instance.
func NewDeckStore(collection *mongo.Collection) *DeckStore {
	return &DeckStore{
		collection: collection,
	}
}

// cardDocument is the persisted form of one master deck card.
type cardDocument struct {
	ID       string `bson:"_id"`
	Kind     string `bson:"kind"`
	Text     string `bson:"text"`
	Position int    `bson:"position"`
}

// ReplaceDeck atomically swaps the stored master deck for the given cards.
func (ds *DeckStore) ReplaceDeck(ctx context.Context, cards []models.Card) error {
	if _, err := ds.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear existing master deck: %w", err)
	}
	if len(cards) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(cards))
	for i, card := range cards {
		docs = append(docs, cardDocument{
			ID:       card.ID,
			Kind:     card.Kind,
			Text:     card.Text,
			Position: i,
		})
	}
	if _, err := ds.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert master deck cards: %w", err)
	}
	return nil
}

// GetDeck retrieves the master deck in upload order. An empty slice means no
// deck has been uploaded yet.
func (ds *DeckStore) GetDeck(ctx context.Context) ([]models.Card, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := ds.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find master deck cards: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []cardDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode master deck cards: %w", err)
	}

	cards := make([]models.Card, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, models.Card{ID: doc.ID, Kind: doc.Kind, Text: doc.Text})
	}
	return cards, nil
}
