// Package storage defines the contract between the query engine and the
// document store backends, together with the filter criteria both sides
// agree on.
package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/podfacts/backend/internal/storage/models"
)

// ErrNotFound is returned by single-document lookups that match nothing.
var ErrNotFound = errors.New("document not found")

type EpisodeStore interface {
	// FindEpisodes returns the episodes matching filter ordered by posted
	// timestamp, newest first, with page applied after ordering.
	FindEpisodes(ctx context.Context, filter EpisodeFilter, page Page) ([]models.Episode, error)
	CountEpisodes(ctx context.Context, filter EpisodeFilter) (int64, error)
	EpisodeByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Episode, error)
	EpisodeByEpisodeID(ctx context.Context, episodeID string) (*models.Episode, error)
	// EpisodeRefs returns the join projection of every episode whose stable
	// id is in episodeIDs. Unknown ids are silently absent from the result.
	EpisodeRefs(ctx context.Context, episodeIDs []string) ([]models.EpisodeRef, error)
	InsertEpisode(ctx context.Context, episode *models.Episode) (primitive.ObjectID, error)
}

type FactStore interface {
	// FindFacts returns every fact matching filter, highest score first.
	FindFacts(ctx context.Context, filter FactFilter) ([]models.Fact, error)
	FactByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Fact, error)
	// FactByEpisodeID returns the highest scoring fact of an episode.
	FactByEpisodeID(ctx context.Context, episodeID string) (*models.Fact, error)
	FactsByEpisodeID(ctx context.Context, episodeID string) ([]models.Fact, error)
	// KeywordCounts counts (fact, keyword) membership pairs per keyword,
	// most frequent first.
	KeywordCounts(ctx context.Context) ([]models.KeywordCount, error)
}

type Store interface {
	EpisodeStore
	FactStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
