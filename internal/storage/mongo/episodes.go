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

func (c *Client) FindEpisodes(ctx context.Context, filter storage.EpisodeFilter, page storage.Page) ([]models.Episode, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "episode_posted_at", Value: -1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := c.episodes.Find(ctx, episodeQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find episodes: %w", err)
	}
	defer cursor.Close(ctx)

	episodes := make([]models.Episode, 0, page.Limit)
	if err := cursor.All(ctx, &episodes); err != nil {
		return nil, fmt.Errorf("failed to decode episodes: %w", err)
	}

	return episodes, nil
}

func (c *Client) CountEpisodes(ctx context.Context, filter storage.EpisodeFilter) (int64, error) {
	total, err := c.episodes.CountDocuments(ctx, episodeQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count episodes: %w", err)
	}
	return total, nil
}

func (c *Client) EpisodeByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Episode, error) {
	return c.findOneEpisode(ctx, bson.D{{Key: "_id", Value: id}})
}

func (c *Client) EpisodeByEpisodeID(ctx context.Context, episodeID string) (*models.Episode, error) {
	return c.findOneEpisode(ctx, bson.D{{Key: "episode_id", Value: episodeID}})
}

func (c *Client) findOneEpisode(ctx context.Context, query bson.D) (*models.Episode, error) {
	var episode models.Episode
	err := c.episodes.FindOne(ctx, query).Decode(&episode)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find episode: %w", err)
	}
	return &episode, nil
}

func (c *Client) EpisodeRefs(ctx context.Context, episodeIDs []string) ([]models.EpisodeRef, error) {
	refs := make([]models.EpisodeRef, 0, len(episodeIDs))
	for _, batch := range batches(episodeIDs, refBatchSize) {
		found, err := c.episodeRefBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		refs = append(refs, found...)
	}
	return refs, nil
}

func (c *Client) episodeRefBatch(ctx context.Context, episodeIDs []string) ([]models.EpisodeRef, error) {
	query := bson.D{{Key: "episode_id", Value: bson.D{{Key: "$in", Value: episodeIDs}}}}
	cursor, err := c.episodes.Find(ctx, query, options.Find().SetProjection(episodeRefProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to look up episodes: %w", err)
	}
	defer cursor.Close(ctx)

	refs := make([]models.EpisodeRef, 0, len(episodeIDs))
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, fmt.Errorf("failed to decode episode refs: %w", err)
	}

	return refs, nil
}

func (c *Client) InsertEpisode(ctx context.Context, episode *models.Episode) (primitive.ObjectID, error) {
	if episode.ID.IsZero() {
		episode.ID = primitive.NewObjectID()
	}

	if _, err := c.episodes.InsertOne(ctx, episode); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert episode: %w", err)
	}

	return episode.ID, nil
}
