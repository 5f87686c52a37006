package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/podfacts/backend/internal/storage"
)

// refBatchSize caps the ids sent in one $in lookup so the query document
// stays well under the 16MB BSON limit.
const refBatchSize = 1000

var episodeSearchFields = []string{
	"episode_title",
	"podcast_name",
	"metadata.summary_short",
	"metadata.summary_long",
}

func searchRegex(s *storage.Search) primitive.Regex {
	return primitive.Regex{Pattern: s.Pattern(), Options: "i"}
}

// episodeQuery builds the find/count predicate for an episode filter. The
// same document is used for both so totals agree with the returned page.
func episodeQuery(f storage.EpisodeFilter) bson.D {
	query := bson.D{}
	if f.PodcastID != nil {
		query = append(query, bson.E{Key: "podcast_id", Value: *f.PodcastID})
	}
	if f.EpisodeID != nil {
		query = append(query, bson.E{Key: "episode_id", Value: *f.EpisodeID})
	}
	if f.Search != nil {
		re := searchRegex(f.Search)
		or := bson.A{}
		for _, field := range episodeSearchFields {
			or = append(or, bson.D{{Key: field, Value: re}})
		}
		query = append(query, bson.E{Key: "$or", Value: or})
	}
	return query
}

func factQuery(f storage.FactFilter) bson.D {
	query := bson.D{}
	if f.Keyword != nil {
		// equality against an array field matches on membership
		query = append(query, bson.E{Key: "keywords", Value: *f.Keyword})
	}
	return query
}

func keywordCountPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$keywords"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$keywords"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "keyword", Value: "$_id"},
			{Key: "count", Value: 1},
		}}},
	}
}

var episodeRefProjection = bson.D{
	{Key: "_id", Value: 0},
	{Key: "episode_id", Value: 1},
	{Key: "episode_title", Value: 1},
	{Key: "podcast_id", Value: 1},
	{Key: "podcast_name", Value: 1},
	{Key: "podcast_image", Value: 1},
}

// batches splits ids into consecutive chunks of at most size elements.
func batches(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
