package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/podfacts/backend/internal/storage"
	"github.com/podfacts/backend/internal/storage/memory"
	"github.com/podfacts/backend/internal/storage/models"
)

const catalog = `
episodes:
  - _id: 64b000000000000000000001
    episode_id: ep-1
    podcast_id: pod-a
    podcast_name: Deep History Hour
    podcast_image: https://img.example/a.png
    episode_title: The Fall of Rome
    episode_posted_at: "2024-03-01T10:00:00Z"
    metadata:
      summary_short: Why empires collapse
      summary_long: A long look at the western empire.
  - _id: 64b000000000000000000002
    episode_id: ep-2
    podcast_id: pod-a
    podcast_name: Deep History Hour
    podcast_image: https://img.example/a.png
    episode_title: Bronze Age Collapse
    episode_posted_at: "2024-02-01T10:00:00Z"
  - _id: 64b000000000000000000003
    episode_id: ep-3
    podcast_id: pod-b
    podcast_name: Tech Weekly
    podcast_image: https://img.example/b.png
    episode_title: AI in 2024
    episode_posted_at: "2024-04-01T10:00:00Z"
    metadata:
      summary_short: machine learning (ML) trends
  - _id: 64b000000000000000000004
    episode_id: ep-4
    podcast_id: pod-b
    podcast_name: Tech Weekly
    episode_title: C++ at scale
    episode_posted_at: "2024-01-15T10:00:00Z"
  - _id: 64b000000000000000000005
    episode_id: 64b0000000000000000000ff
    podcast_id: pod-c
    podcast_name: Quiet Show
    episode_title: Silence
    episode_posted_at: "2023-12-01T10:00:00Z"
    metadata:
      summary_long: An hour about the history of silence.
facts:
  - _id: 64b0000000000000000000a1
    episode_id: ep-1
    podcast_id: pod-a
    title: Rome had concrete
    explanation: Roman concrete heals itself.
    score: 9.5
    quotes: ["it heals"]
    keywords: [history, engineering]
  - _id: 64b0000000000000000000a2
    episode_id: ep-3
    podcast_id: pod-b
    title: Models beat benchmarks
    explanation: Benchmarks saturate quickly.
    score: 8.0
    keywords: [ai, tech]
  - _id: 64b0000000000000000000a3
    episode_id: ep-3
    podcast_id: pod-b
    title: Chip shortage
    explanation: Supply chains are fragile.
    score: 7.0
    keywords: [ai]
  - _id: 64b0000000000000000000a4
    episode_id: ep-missing
    podcast_id: pod-z
    title: Orphaned history fact
    explanation: Nobody knows which episode this came from.
    score: 9.9
    keywords: [history]
  - _id: 64b0000000000000000000a5
    episode_id: ep-4
    podcast_id: pod-b
    title: Templates everywhere
    explanation: Compile times grow.
    score: 5.0
    keywords: [tech]
  - _id: 64b0000000000000000000a6
    episode_id: ep-2
    podcast_id: pod-a
    title: Tin trade
    explanation: Bronze needed tin from far away.
    score: 6.0
    keywords: [history, trade]
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := memory.Load([]byte(catalog))
	require.NoError(t, err)
	return NewEngine(store, store)
}

func factTitles(records []models.FactRecord) []string {
	titles := make([]string, 0, len(records))
	for _, r := range records {
		titles = append(titles, r.Title)
	}
	return titles
}

func episodeIDs(episodes []models.Episode) []string {
	ids := make([]string, 0, len(episodes))
	for _, e := range episodes {
		ids = append(ids, e.EpisodeID)
	}
	return ids
}

func TestListFactsDropsOrphansFromDataAndTotal(t *testing.T) {
	e := newTestEngine(t)

	page, err := e.ListFacts(context.Background(), FactListRequest{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Rome had concrete",
		"Models beat benchmarks",
		"Chip shortage",
		"Tin trade",
		"Templates everywhere",
	}, factTitles(page.Data))
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.False(t, page.Pagination.HasMore)
}

func TestListFactsShapesJoinedRecord(t *testing.T) {
	e := newTestEngine(t)

	page, err := e.ListFacts(context.Background(), FactListRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	r := page.Data[0]
	assert.Equal(t, "64b0000000000000000000a1", r.ID.Hex())
	assert.Equal(t, 9.5, r.Score)
	assert.Equal(t, []string{"it heals"}, r.Quotes)
	assert.Equal(t, []string{"history", "engineering"}, r.Keywords)
	assert.Equal(t, models.PodcastSummary{
		PodcastID:    "pod-a",
		PodcastName:  "Deep History Hour",
		PodcastImage: "https://img.example/a.png",
	}, r.Podcast)
	assert.Equal(t, models.EpisodeSummary{
		EpisodeID:    "ep-1",
		EpisodeTitle: "The Fall of Rome",
	}, r.Episode)
}

func TestListFactsNilQuotesBecomeEmpty(t *testing.T) {
	e := newTestEngine(t)

	page, err := e.ListFacts(context.Background(), FactListRequest{Keyword: "trade", Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.NotNil(t, page.Data[0].Quotes)
	assert.Empty(t, page.Data[0].Quotes)
}

func TestListFactsSearchSpansJoinedFields(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"podcast name", "deep history", []string{"Rome had concrete", "Tin trade"}},
		{"episode title", "fall of rome", []string{"Rome had concrete"}},
		{"fact title", "CHIP", []string{"Chip shortage"}},
		{"explanation", "compile times", []string{"Templates everywhere"}},
		{"no match", "volcano", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := e.ListFacts(ctx, FactListRequest{Search: tt.search, Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, factTitles(page.Data))
			assert.Equal(t, int64(len(tt.want)), page.Pagination.Total)
		})
	}
}

func TestListFactsSearchTotalIgnoresOrphanMatches(t *testing.T) {
	e := newTestEngine(t)

	// the orphaned fact's own title contains "history" but it has no episode
	page, err := e.ListFacts(context.Background(), FactListRequest{Search: "history", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{"Rome had concrete", "Tin trade"}, factTitles(page.Data))
	assert.Equal(t, int64(2), page.Pagination.Total)
}

func TestListFactsKeywordFilter(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	page, err := e.ListFacts(ctx, FactListRequest{Keyword: "ai", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Models beat benchmarks", "Chip shortage"}, factTitles(page.Data))
	assert.Equal(t, int64(2), page.Pagination.Total)

	page, err = e.ListFacts(ctx, FactListRequest{Keyword: "history", Search: "bronze", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tin trade"}, factTitles(page.Data))
	assert.Equal(t, int64(1), page.Pagination.Total)

	page, err = e.ListFacts(ctx, FactListRequest{Keyword: "History", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Data, "keyword match is exact")
}

func TestListFactsPagination(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	page, err := e.ListFacts(ctx, FactListRequest{Limit: 2, Skip: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chip shortage", "Tin trade"}, factTitles(page.Data))
	assert.Equal(t, Pagination{
		Total:       5,
		Limit:       2,
		Skip:        2,
		HasMore:     true,
		CurrentPage: 2,
		TotalPages:  3,
	}, page.Pagination)

	page, err = e.ListFacts(ctx, FactListRequest{Limit: 2, Skip: 50})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.False(t, page.Pagination.HasMore)
}

func TestListRejectsInvalidPage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ListFacts(ctx, FactListRequest{Limit: 0})
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = e.ListEpisodes(ctx, EpisodeListRequest{Limit: 10, Skip: -1})
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestListEpisodesOrderAndFilters(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	page, err := e.ListEpisodes(ctx, EpisodeListRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-3", "ep-1", "ep-2", "ep-4", "64b0000000000000000000ff"}, episodeIDs(page.Data))
	assert.Equal(t, int64(5), page.Pagination.Total)

	page, err = e.ListEpisodes(ctx, EpisodeListRequest{PodcastID: "pod-a", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-1", "ep-2"}, episodeIDs(page.Data))
	assert.Equal(t, int64(2), page.Pagination.Total)

	page, err = e.ListEpisodes(ctx, EpisodeListRequest{PodcastID: "pod-a", EpisodeID: "ep-2", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-2"}, episodeIDs(page.Data))
}

func TestListEpisodesSearch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  EpisodeListRequest
		want []string
	}{
		{"title and summary", EpisodeListRequest{Search: "history"}, []string{"ep-1", "ep-2", "64b0000000000000000000ff"}},
		{"summary short", EpisodeListRequest{Search: "(ml)"}, []string{"ep-3"}},
		{"metacharacters are literal", EpisodeListRequest{Search: "c++"}, []string{"ep-4"}},
		{"dot is literal", EpisodeListRequest{Search: "."}, []string{"ep-1", "64b0000000000000000000ff"}},
		{"search and exact filter", EpisodeListRequest{Search: "tech", PodcastID: "pod-a"}, []string{}},
		{"blank search ignored", EpisodeListRequest{Search: "   ", PodcastID: "pod-c"}, []string{"64b0000000000000000000ff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Limit = 10
			page, err := e.ListEpisodes(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, episodeIDs(page.Data))
			assert.Equal(t, int64(len(tt.want)), page.Pagination.Total)
		})
	}
}

func TestListEpisodesNoMatchesPastTheEnd(t *testing.T) {
	e := newTestEngine(t)

	page, err := e.ListEpisodes(context.Background(), EpisodeListRequest{
		Search: "zzz nothing here",
		Limit:  5,
		Skip:   10,
	})
	require.NoError(t, err)

	assert.Empty(t, page.Data)
	assert.Equal(t, Pagination{
		Total:       0,
		Limit:       5,
		Skip:        10,
		HasMore:     false,
		CurrentPage: 3,
		TotalPages:  0,
	}, page.Pagination)
}

func TestGetEpisodeResolution(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ep, err := e.GetEpisode(ctx, "64b000000000000000000003")
	require.NoError(t, err)
	assert.Equal(t, "ep-3", ep.EpisodeID)

	ep, err = e.GetEpisode(ctx, "ep-2")
	require.NoError(t, err)
	assert.Equal(t, "64b000000000000000000002", ep.ID.Hex())

	// valid ObjectID syntax, no such _id, but it is a stable episode id
	ep, err = e.GetEpisode(ctx, "64b0000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, "Silence", ep.EpisodeTitle)

	_, err = e.GetEpisode(ctx, "64b0000000000000000000ee")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.GetEpisode(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.GetEpisode(ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetEpisodeIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.GetEpisode(ctx, "ep-1")
	require.NoError(t, err)
	second, err := e.GetEpisode(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetEpisodeWithFacts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	detail, err := e.GetEpisodeWithFacts(ctx, "64b000000000000000000003")
	require.NoError(t, err)
	assert.Equal(t, "ep-3", detail.EpisodeID)
	require.Len(t, detail.Facts, 2)
	assert.Equal(t, "Models beat benchmarks", detail.Facts[0].Title)
	assert.Equal(t, "Chip shortage", detail.Facts[1].Title)

	detail, err = e.GetEpisodeWithFacts(ctx, "64b0000000000000000000ff")
	require.NoError(t, err)
	assert.NotNil(t, detail.Facts)
	assert.Empty(t, detail.Facts)

	_, err = e.GetEpisodeWithFacts(ctx, "ep-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFactResolution(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	f, err := e.GetFact(ctx, "64b0000000000000000000a5")
	require.NoError(t, err)
	assert.Equal(t, "Templates everywhere", f.Title)

	// falls back to the episode id and picks its best fact
	f, err = e.GetFact(ctx, "ep-3")
	require.NoError(t, err)
	assert.Equal(t, "Models beat benchmarks", f.Title)

	// orphaned facts are still reachable directly
	f, err = e.GetFact(ctx, "64b0000000000000000000a4")
	require.NoError(t, err)
	assert.Equal(t, "ep-missing", f.EpisodeID)

	_, err = e.GetFact(ctx, "garbage")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFactDetailListsMatchListShape(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	f, err := e.GetFact(ctx, "64b0000000000000000000a2")
	require.NoError(t, err)
	assert.NotNil(t, f.Quotes)
	assert.Empty(t, f.Quotes)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"quotes":[]`)
	assert.NotContains(t, string(raw), "null")

	detail, err := e.GetEpisodeWithFacts(ctx, "ep-3")
	require.NoError(t, err)
	require.Len(t, detail.Facts, 2)
	for _, fact := range detail.Facts {
		assert.NotNil(t, fact.Quotes, fact.Title)
		assert.NotNil(t, fact.Keywords, fact.Title)
	}

	page, err := e.ListFacts(ctx, FactListRequest{Keyword: "ai", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, page.Data)
	assert.Equal(t, page.Data[0].Quotes, detail.Facts[0].Quotes)
}

func TestKeywordStats(t *testing.T) {
	store := memory.New()
	store.AddFacts(
		models.Fact{Keywords: []string{"ai", "tech"}},
		models.Fact{Keywords: []string{"ai"}},
		models.Fact{Keywords: []string{"space"}},
		models.Fact{},
	)
	e := NewEngine(store, store)

	counts, err := e.KeywordStats(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, models.KeywordCount{Keyword: "ai", Count: 2}, counts[0])
	assert.ElementsMatch(t, []models.KeywordCount{
		{Keyword: "tech", Count: 1},
		{Keyword: "space", Count: 1},
	}, counts[1:])
}

func TestKeywordStatsSumsMembershipPairs(t *testing.T) {
	e := newTestEngine(t)

	counts, err := e.KeywordStats(context.Background())
	require.NoError(t, err)

	var sum int64
	for _, c := range counts {
		sum += c.Count
	}
	// 2+2+1+1+1+2 keywords across six facts
	assert.Equal(t, int64(9), sum)
	assert.Equal(t, models.KeywordCount{Keyword: "history", Count: 3}, counts[0])
}

func TestCreateEpisode(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.CreateEpisode(ctx, &models.Episode{
		EpisodeID:       "ep-new",
		PodcastID:       "pod-a",
		EpisodeTitle:    "Fresh",
		EpisodePostedAt: "2025-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.False(t, id.IsZero())

	ep, err := e.GetEpisode(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "ep-new", ep.EpisodeID)

	page, err := e.ListEpisodes(ctx, EpisodeListRequest{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-new"}, episodeIDs(page.Data))
}

var errBoom = errors.New("boom")

type failingStore struct {
	*memory.Store
	failRefs bool
}

func (f *failingStore) FindFacts(ctx context.Context, filter storage.FactFilter) ([]models.Fact, error) {
	if f.failRefs {
		return f.Store.FindFacts(ctx, filter)
	}
	return nil, errBoom
}

func (f *failingStore) EpisodeRefs(ctx context.Context, ids []string) ([]models.EpisodeRef, error) {
	return nil, errBoom
}

func (f *failingStore) CountEpisodes(ctx context.Context, filter storage.EpisodeFilter) (int64, error) {
	return 0, errBoom
}

func (f *failingStore) EpisodeByObjectID(ctx context.Context, id primitive.ObjectID) (*models.Episode, error) {
	return nil, errBoom
}

func TestStoreFailuresPropagate(t *testing.T) {
	base, err := memory.Load([]byte(catalog))
	require.NoError(t, err)
	ctx := context.Background()

	fs := &failingStore{Store: base}
	e := NewEngine(fs, fs)

	_, err = e.ListFacts(ctx, FactListRequest{Limit: 10})
	assert.ErrorIs(t, err, errBoom)

	fs.failRefs = true
	_, err = e.ListFacts(ctx, FactListRequest{Limit: 10})
	assert.ErrorIs(t, err, errBoom)

	_, err = e.ListEpisodes(ctx, EpisodeListRequest{Limit: 10})
	assert.ErrorIs(t, err, errBoom)

	// a store failure on the ObjectID lookup is not treated as a miss
	_, err = e.GetEpisode(ctx, "64b000000000000000000001")
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ListFacts(ctx, FactListRequest{Limit: 10})
	assert.ErrorIs(t, err, context.Canceled)
}
