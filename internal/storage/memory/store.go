// Package memory is an in-process storage.Store used for local development
// and tests. Collections are seeded from a YAML fixture file and behave like
// the Mongo backend for every query the engine issues.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/podfacts/backend/internal/storage"
	"github.com/podfacts/backend/internal/storage/models"
	"github.com/podfacts/backend/pkg/logger"
)

type Store struct {
	mu       sync.RWMutex
	episodes []models.Episode
	facts    []models.Fact
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

type fixtureEpisode struct {
	ID             string `yaml:"_id"`
	models.Episode `yaml:",inline"`
}

type fixtureFact struct {
	ID          string `yaml:"_id"`
	models.Fact `yaml:",inline"`
}

type fixture struct {
	Episodes []fixtureEpisode `yaml:"episodes"`
	Facts    []fixtureFact    `yaml:"facts"`
}

// LoadFile creates a store seeded with the episodes and facts of a YAML
// fixture. Documents without an _id get a fresh ObjectID.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	s, err := Load(data)
	if err != nil {
		return nil, err
	}

	logger.Info("Memory store loaded",
		zap.String("path", path),
		zap.Int("episodes", len(s.episodes)),
		zap.Int("facts", len(s.facts)),
	)
	return s, nil
}

func Load(data []byte) (*Store, error) {
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	s := New()
	for _, e := range fx.Episodes {
		id, err := fixtureID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("episode %q: %w", e.EpisodeID, err)
		}
		e.Episode.ID = id
		s.episodes = append(s.episodes, e.Episode)
	}
	for _, f := range fx.Facts {
		id, err := fixtureID(f.ID)
		if err != nil {
			return nil, fmt.Errorf("fact %q: %w", f.Title, err)
		}
		f.Fact.ID = id
		s.facts = append(s.facts, f.Fact)
	}

	return s, nil
}

func fixtureID(hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NewObjectID(), nil
	}
	return primitive.ObjectIDFromHex(hex)
}

// AddFacts appends facts as-is, assigning ids where missing.
func (s *Store) AddFacts(facts ...models.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range facts {
		if f.ID.IsZero() {
			f.ID = primitive.NewObjectID()
		}
		s.facts = append(s.facts, f)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) FindEpisodes(ctx context.Context, filter storage.EpisodeFilter, page storage.Page) ([]models.Episode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]models.Episode, 0)
	for i := range s.episodes {
		if filter.Match(&s.episodes[i]) {
			matched = append(matched, s.episodes[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].EpisodePostedAt > matched[j].EpisodePostedAt
	})

	return window(matched, page), nil
}

func (s *Store) CountEpisodes(ctx context.Context, filter storage.EpisodeFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for i := range s.episodes {
		if filter.Match(&s.episodes[i]) {
			total++
		}
	}
	return total, nil
}

func (s *Store) EpisodeByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Episode, error) {
	return s.findEpisode(ctx, func(e *models.Episode) bool { return e.ID == id })
}

func (s *Store) EpisodeByEpisodeID(ctx context.Context, episodeID string) (*models.Episode, error) {
	return s.findEpisode(ctx, func(e *models.Episode) bool { return e.EpisodeID == episodeID })
}

func (s *Store) findEpisode(ctx context.Context, match func(*models.Episode) bool) (*models.Episode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.episodes {
		if match(&s.episodes[i]) {
			ep := s.episodes[i]
			return &ep, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) EpisodeRefs(ctx context.Context, episodeIDs []string) ([]models.EpisodeRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(episodeIDs))
	for _, id := range episodeIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]models.EpisodeRef, 0, len(episodeIDs))
	for i := range s.episodes {
		if _, ok := wanted[s.episodes[i].EpisodeID]; ok {
			refs = append(refs, s.episodes[i].Ref())
		}
	}
	return refs, nil
}

func (s *Store) InsertEpisode(ctx context.Context, episode *models.Episode) (primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return primitive.NilObjectID, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if episode.ID.IsZero() {
		episode.ID = primitive.NewObjectID()
	}
	for i := range s.episodes {
		if s.episodes[i].ID == episode.ID {
			return primitive.NilObjectID, fmt.Errorf("duplicate _id %s", episode.ID.Hex())
		}
	}

	s.episodes = append(s.episodes, *episode)
	return episode.ID, nil
}

func (s *Store) FindFacts(ctx context.Context, filter storage.FactFilter) ([]models.Fact, error) {
	return s.findFacts(ctx, filter.Match)
}

func (s *Store) FactsByEpisodeID(ctx context.Context, episodeID string) ([]models.Fact, error) {
	return s.findFacts(ctx, func(f *models.Fact) bool { return f.EpisodeID == episodeID })
}

func (s *Store) findFacts(ctx context.Context, match func(*models.Fact) bool) ([]models.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]models.Fact, 0)
	for i := range s.facts {
		if match(&s.facts[i]) {
			matched = append(matched, s.facts[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})
	return matched, nil
}

func (s *Store) FactByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Fact, error) {
	facts, err := s.findFacts(ctx, func(f *models.Fact) bool { return f.ID == id })
	if err != nil {
		return nil, err
	}
	return first(facts)
}

func (s *Store) FactByEpisodeID(ctx context.Context, episodeID string) (*models.Fact, error) {
	facts, err := s.FactsByEpisodeID(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	return first(facts)
}

func (s *Store) KeywordCounts(ctx context.Context) ([]models.KeywordCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	buckets := make(map[string]int64)
	for i := range s.facts {
		for _, k := range s.facts[i].Keywords {
			buckets[k]++
		}
	}
	s.mu.RUnlock()

	counts := make([]models.KeywordCount, 0, len(buckets))
	for k, n := range buckets {
		counts = append(counts, models.KeywordCount{Keyword: k, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Keyword < counts[j].Keyword
	})
	return counts, nil
}

func first(facts []models.Fact) (*models.Fact, error) {
	if len(facts) == 0 {
		return nil, storage.ErrNotFound
	}
	return &facts[0], nil
}

func window[T any](items []T, page storage.Page) []T {
	start := page.Skip
	if start > int64(len(items)) {
		start = int64(len(items))
	}
	end := int64(len(items))
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}
	return items[start:end]
}
