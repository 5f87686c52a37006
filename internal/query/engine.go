package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/metrics"
	"github.com/podfacts/backend/internal/storage"
	"github.com/podfacts/backend/internal/storage/models"
	"github.com/podfacts/backend/pkg/logger"
)

// Engine answers list and detail requests over the episode and fact stores.
// It holds no per-request state and is safe for concurrent use. Store errors
// are returned to the caller unchanged in kind; nothing is retried.
type Engine struct {
	episodes storage.EpisodeStore
	facts    storage.FactStore
}

type EpisodeListRequest struct {
	PodcastID string
	EpisodeID string
	Search    string
	Limit     int64
	Skip      int64
}

type FactListRequest struct {
	Search  string
	Keyword string
	Limit   int64
	Skip    int64
}

type EpisodePage struct {
	Data       []models.Episode
	Pagination Pagination
}

type FactPage struct {
	Data       []models.FactRecord
	Pagination Pagination
}

func NewEngine(episodes storage.EpisodeStore, facts storage.FactStore) *Engine {
	return &Engine{
		episodes: episodes,
		facts:    facts,
	}
}

func (e *Engine) ListEpisodes(ctx context.Context, req EpisodeListRequest) (_ *EpisodePage, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("list_episodes", start, err) }()

	page, err := validatePage(req.Limit, req.Skip)
	if err != nil {
		return nil, err
	}

	filter := storage.EpisodeFilter{
		PodcastID: storage.StringPtr(req.PodcastID),
		EpisodeID: storage.StringPtr(req.EpisodeID),
		Search:    storage.NewSearch(req.Search),
	}

	episodes, err := e.episodes.FindEpisodes(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	total, err := e.episodes.CountEpisodes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count episodes: %w", err)
	}

	metrics.ResultsReturned.WithLabelValues("list_episodes").Observe(float64(len(episodes)))
	logger.Debug("Episodes listed",
		zap.String("query_id", uuid.New().String()),
		zap.String("search", filter.Search.Term()),
		zap.Int("returned", len(episodes)),
		zap.Int64("total", total),
	)

	return &EpisodePage{
		Data:       episodes,
		Pagination: NewPagination(total, page.Limit, page.Skip),
	}, nil
}

// ListFacts filters facts by keyword in the store, joins them to their
// episodes, applies the search term to the joined records and pages the
// result. The total counts the same joined and searched set, so orphaned
// facts and search misses are excluded from both data and total.
func (e *Engine) ListFacts(ctx context.Context, req FactListRequest) (_ *FactPage, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("list_facts", start, err) }()

	page, err := validatePage(req.Limit, req.Skip)
	if err != nil {
		return nil, err
	}

	facts, err := e.facts.FindFacts(ctx, storage.FactFilter{Keyword: storage.StringPtr(req.Keyword)})
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}

	records, orphans, err := e.joinEpisodes(ctx, facts)
	if err != nil {
		return nil, err
	}

	search := storage.NewSearch(req.Search)
	records = matchRecords(records, search)
	total := int64(len(records))
	data := window(records, page)

	if orphans > 0 {
		metrics.OrphanedFactsDropped.Add(float64(orphans))
	}
	metrics.ResultsReturned.WithLabelValues("list_facts").Observe(float64(len(data)))
	logger.Debug("Facts listed",
		zap.String("query_id", uuid.New().String()),
		zap.String("keyword", req.Keyword),
		zap.String("search", search.Term()),
		zap.Int("candidates", len(facts)),
		zap.Int("orphans", orphans),
		zap.Int64("total", total),
	)

	return &FactPage{
		Data:       data,
		Pagination: NewPagination(total, page.Limit, page.Skip),
	}, nil
}

func (e *Engine) GetEpisode(ctx context.Context, id string) (_ *models.Episode, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("get_episode", start, err) }()

	return resolve(ctx, id, e.episodes.EpisodeByObjectID, e.episodes.EpisodeByEpisodeID)
}

// GetEpisodeWithFacts resolves an episode and attaches every fact that
// references its stable id. An episode without facts gets an empty list.
func (e *Engine) GetEpisodeWithFacts(ctx context.Context, id string) (_ *models.EpisodeDetail, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("get_episode_detail", start, err) }()

	episode, err := resolve(ctx, id, e.episodes.EpisodeByObjectID, e.episodes.EpisodeByEpisodeID)
	if err != nil {
		return nil, err
	}

	facts, err := e.facts.FactsByEpisodeID(ctx, episode.EpisodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load facts for episode %s: %w", episode.EpisodeID, err)
	}
	shaped := make([]models.Fact, 0, len(facts))
	for _, f := range facts {
		shaped = append(shaped, withEmptyLists(f))
	}

	return &models.EpisodeDetail{Episode: *episode, Facts: shaped}, nil
}

func (e *Engine) GetFact(ctx context.Context, id string) (_ *models.Fact, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("get_fact", start, err) }()

	fact, err := resolve(ctx, id, e.facts.FactByObjectID, e.facts.FactByEpisodeID)
	if err != nil {
		return nil, err
	}
	shaped := withEmptyLists(*fact)
	return &shaped, nil
}

func (e *Engine) CreateEpisode(ctx context.Context, episode *models.Episode) (_ primitive.ObjectID, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("create_episode", start, err) }()

	id, err := e.episodes.InsertEpisode(ctx, episode)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create episode: %w", err)
	}

	logger.Info("Episode created",
		zap.String("id", id.Hex()),
		zap.String("episode_id", episode.EpisodeID),
	)
	return id, nil
}

// KeywordStats returns the full keyword frequency table, most used first.
func (e *Engine) KeywordStats(ctx context.Context) (_ []models.KeywordCount, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("keyword_stats", start, err) }()

	counts, err := e.facts.KeywordCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate keywords: %w", err)
	}
	return counts, nil
}
