package query

import (
	"context"
	"fmt"

	"github.com/podfacts/backend/internal/storage"
	"github.com/podfacts/backend/internal/storage/models"
)

// joinEpisodes inner-joins facts to their parent episodes on episode_id,
// preserving the order of facts. Facts whose episode does not exist are
// dropped and counted in the second return value.
func (e *Engine) joinEpisodes(ctx context.Context, facts []models.Fact) ([]models.FactRecord, int, error) {
	refs, err := e.episodes.EpisodeRefs(ctx, distinctEpisodeIDs(facts))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to look up parent episodes: %w", err)
	}

	byID := make(map[string]models.EpisodeRef, len(refs))
	for _, ref := range refs {
		if _, seen := byID[ref.EpisodeID]; !seen {
			byID[ref.EpisodeID] = ref
		}
	}

	records := make([]models.FactRecord, 0, len(facts))
	orphans := 0
	for i := range facts {
		ref, ok := byID[facts[i].EpisodeID]
		if !ok {
			orphans++
			continue
		}
		records = append(records, shapeFact(&facts[i], ref))
	}

	return records, orphans, nil
}

func distinctEpisodeIDs(facts []models.Fact) []string {
	seen := make(map[string]struct{}, len(facts))
	ids := make([]string, 0, len(facts))
	for _, f := range facts {
		if _, ok := seen[f.EpisodeID]; ok {
			continue
		}
		seen[f.EpisodeID] = struct{}{}
		ids = append(ids, f.EpisodeID)
	}
	return ids
}

func shapeFact(f *models.Fact, ref models.EpisodeRef) models.FactRecord {
	return models.FactRecord{
		ID:          f.ID,
		Title:       f.Title,
		Explanation: f.Explanation,
		Score:       f.Score,
		Quotes:      nonNil(f.Quotes),
		Keywords:    nonNil(f.Keywords),
		Podcast: models.PodcastSummary{
			PodcastID:    ref.PodcastID,
			PodcastName:  ref.PodcastName,
			PodcastImage: ref.PodcastImage,
		},
		Episode: models.EpisodeSummary{
			EpisodeID:    ref.EpisodeID,
			EpisodeTitle: ref.EpisodeTitle,
		},
	}
}

func matchRecords(records []models.FactRecord, search *storage.Search) []models.FactRecord {
	if search == nil {
		return records
	}

	matched := records[:0]
	for _, r := range records {
		if search.MatchAny(r.Title, r.Explanation, r.Podcast.PodcastName, r.Episode.EpisodeTitle) {
			matched = append(matched, r)
		}
	}
	return matched
}

// withEmptyLists gives a fact the same quotes and keywords shape as a joined
// record, so absent lists encode as [] rather than null.
func withEmptyLists(f models.Fact) models.Fact {
	f.Quotes = nonNil(f.Quotes)
	f.Keywords = nonNil(f.Keywords)
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
