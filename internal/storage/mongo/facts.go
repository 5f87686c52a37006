package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/podfacts/backend/internal/storage"
	"github.com/podfacts/backend/internal/storage/models"
)

var byScoreDesc = bson.D{{Key: "score", Value: -1}}

func (c *Client) FindFacts(ctx context.Context, filter storage.FactFilter) ([]models.Fact, error) {
	return c.findFacts(ctx, factQuery(filter))
}

func (c *Client) FactsByEpisodeID(ctx context.Context, episodeID string) ([]models.Fact, error) {
	return c.findFacts(ctx, bson.D{{Key: "episode_id", Value: episodeID}})
}

func (c *Client) findFacts(ctx context.Context, query bson.D) ([]models.Fact, error) {
	cursor, err := c.facts.Find(ctx, query, options.Find().SetSort(byScoreDesc))
	if err != nil {
		return nil, fmt.Errorf("failed to find facts: %w", err)
	}
	defer cursor.Close(ctx)

	facts := []models.Fact{}
	if err := cursor.All(ctx, &facts); err != nil {
		return nil, fmt.Errorf("failed to decode facts: %w", err)
	}

	return facts, nil
}

func (c *Client) FactByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Fact, error) {
	return c.findOneFact(ctx, bson.D{{Key: "_id", Value: id}})
}

func (c *Client) FactByEpisodeID(ctx context.Context, episodeID string) (*models.Fact, error) {
	return c.findOneFact(ctx,
		bson.D{{Key: "episode_id", Value: episodeID}},
		options.FindOne().SetSort(byScoreDesc),
	)
}

func (c *Client) findOneFact(ctx context.Context, query bson.D, opts ...*options.FindOneOptions) (*models.Fact, error) {
	var fact models.Fact
	err := c.facts.FindOne(ctx, query, opts...).Decode(&fact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fact: %w", err)
	}
	return &fact, nil
}

func (c *Client) KeywordCounts(ctx context.Context) ([]models.KeywordCount, error) {
	cursor, err := c.facts.Aggregate(ctx, keywordCountPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate keywords: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []models.KeywordCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode keyword counts: %w", err)
	}

	return counts, nil
}
