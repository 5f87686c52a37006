package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	CategoryID   string `bson:"category_id" json:"category_id" yaml:"category_id"`
	CategoryName string `bson:"category_name" json:"category_name" yaml:"category_name"`
}

type Topic struct {
	TopicID             string `bson:"topic_id" json:"topic_id" yaml:"topic_id"`
	TopicNameNormalized string `bson:"topic_name_normalized" json:"topic_name_normalized" yaml:"topic_name_normalized"`
	TopicName           string `bson:"topic_name" json:"topic_name" yaml:"topic_name"`
}

type Host struct {
	HostName             string  `bson:"host_name" json:"host_name" yaml:"host_name"`
	HostCompany          string  `bson:"host_company" json:"host_company" yaml:"host_company"`
	HostSocialMediaLinks *string `bson:"host_social_media_links" json:"host_social_media_links" yaml:"host_social_media_links"`
	SpeakerLabel         string  `bson:"speaker_label" json:"speaker_label" yaml:"speaker_label"`
}

type Sponsor struct {
	SponsorURL              string  `bson:"sponsor_url" json:"sponsor_url" yaml:"sponsor_url"`
	SponsorName             string  `bson:"sponsor_name" json:"sponsor_name" yaml:"sponsor_name"`
	SponsorIsCommercial     bool    `bson:"sponsor_is_commercial" json:"sponsor_is_commercial" yaml:"sponsor_is_commercial"`
	SponsorProductMentioned string  `bson:"sponsor_product_mentioned" json:"sponsor_product_mentioned" yaml:"sponsor_product_mentioned"`
	SpeakerLabel            *string `bson:"speaker_label" json:"speaker_label" yaml:"speaker_label"`
}

type FirstOccurrence struct {
	Type            string `bson:"type" json:"type" yaml:"type"`
	Value           string `bson:"value" json:"value" yaml:"value"`
	FirstOccurrence string `bson:"first_occurence" json:"first_occurence" yaml:"first_occurence"`
}

type BrandSafety struct {
	Framework      string `bson:"framework" json:"framework" yaml:"framework"`
	RiskLevel      string `bson:"risk_level" json:"risk_level" yaml:"risk_level"`
	Recommendation string `bson:"recommendation" json:"recommendation" yaml:"recommendation"`
}

type EpisodeMetadata struct {
	Hosts                     []Host            `bson:"hosts,omitempty" json:"hosts" yaml:"hosts"`
	Guests                    []bson.M          `bson:"guests,omitempty" json:"guests" yaml:"guests"`
	Sponsors                  []Sponsor         `bson:"sponsors,omitempty" json:"sponsors" yaml:"sponsors"`
	Speakers                  map[string]string `bson:"speakers,omitempty" json:"speakers" yaml:"speakers"`
	HasHosts                  bool              `bson:"has_hosts" json:"has_hosts" yaml:"has_hosts"`
	HasGuests                 bool              `bson:"has_guests" json:"has_guests" yaml:"has_guests"`
	HasSponsors               bool              `bson:"has_sponsors" json:"has_sponsors" yaml:"has_sponsors"`
	IsBranded                 bool              `bson:"is_branded" json:"is_branded" yaml:"is_branded"`
	IsBrandedConfidenceScore  float64           `bson:"is_branded_confidence_score" json:"is_branded_confidence_score" yaml:"is_branded_confidence_score"`
	IsBrandedConfidenceReason string            `bson:"is_branded_confidence_reason" json:"is_branded_confidence_reason" yaml:"is_branded_confidence_reason"`
	SummaryKeywords           []string          `bson:"summary_keywords,omitempty" json:"summary_keywords" yaml:"summary_keywords"`
	SummaryLong               string            `bson:"summary_long" json:"summary_long" yaml:"summary_long"`
	SummaryShort              string            `bson:"summary_short" json:"summary_short" yaml:"summary_short"`
	FirstOccurrences          []FirstOccurrence `bson:"first_occurences,omitempty" json:"first_occurences" yaml:"first_occurences"`
	BrandSafety               *BrandSafety      `bson:"brand_safety,omitempty" json:"brand_safety,omitempty" yaml:"brand_safety"`
}

// IngestionInfo is written by the ingestion webhook and never interpreted here.
type IngestionInfo struct {
	ReceivedAt     interface{} `bson:"received_at,omitempty" json:"received_at,omitempty" yaml:"received_at"`
	Source         string      `bson:"source,omitempty" json:"source,omitempty" yaml:"source"`
	WebhookVersion string      `bson:"webhook_version,omitempty" json:"webhook_version,omitempty" yaml:"webhook_version"`
	Processed      bool        `bson:"processed" json:"processed" yaml:"processed"`
}

// Episode is a document of the episodes collection. The internal ID is the
// store-assigned ObjectID; EpisodeID is the stable identifier facts refer to.
// Fields written by ingestion that have no struct field are kept in Extra
// and rendered at the top level alongside the known ones.
type Episode struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id" yaml:"-"`

	PodcastID                        string     `bson:"podcast_id" json:"podcast_id" yaml:"podcast_id"`
	PodcastName                      string     `bson:"podcast_name" json:"podcast_name" yaml:"podcast_name"`
	PodcastURL                       string     `bson:"podcast_url,omitempty" json:"podcast_url,omitempty" yaml:"podcast_url"`
	PodcastImage                     string     `bson:"podcast_image" json:"podcast_image" yaml:"podcast_image"`
	PodcastEmail                     string     `bson:"podcast_email,omitempty" json:"podcast_email,omitempty" yaml:"podcast_email"`
	PodcastLanguage                  string     `bson:"podcast_language,omitempty" json:"podcast_language,omitempty" yaml:"podcast_language"`
	PodcastRegion                    string     `bson:"podcast_region,omitempty" json:"podcast_region,omitempty" yaml:"podcast_region"`
	PodcastItunesRatingCount         string     `bson:"podcast_itunes_rating_count,omitempty" json:"podcast_itunes_rating_count,omitempty" yaml:"podcast_itunes_rating_count"`
	PodcastItunesRatingCountPrecise  string     `bson:"podcast_itunes_rating_count_precise,omitempty" json:"podcast_itunes_rating_count_precise,omitempty" yaml:"podcast_itunes_rating_count_precise"`
	PodcastItunesRatingAverage       string     `bson:"podcast_itunes_rating_average,omitempty" json:"podcast_itunes_rating_average,omitempty" yaml:"podcast_itunes_rating_average"`
	PodcastSpotifyRatingCountPrecise string     `bson:"podcast_spotify_rating_count_precise,omitempty" json:"podcast_spotify_rating_count_precise,omitempty" yaml:"podcast_spotify_rating_count_precise"`
	PodcastSpotifyRatingAverage      string     `bson:"podcast_spotify_rating_average,omitempty" json:"podcast_spotify_rating_average,omitempty" yaml:"podcast_spotify_rating_average"`
	PodcastEpisodeCount              int        `bson:"podcast_episode_count,omitempty" json:"podcast_episode_count,omitempty" yaml:"podcast_episode_count"`
	PodcastAudienceSize              int        `bson:"podcast_audience_size,omitempty" json:"podcast_audience_size,omitempty" yaml:"podcast_audience_size"`
	PodcastHasGuests                 bool       `bson:"podcast_has_guests" json:"podcast_has_guests" yaml:"podcast_has_guests"`
	PodcastHasSponsors               bool       `bson:"podcast_has_sponsors" json:"podcast_has_sponsors" yaml:"podcast_has_sponsors"`
	PodcastCategories                []Category `bson:"podcast_categories,omitempty" json:"podcast_categories" yaml:"podcast_categories"`
	PodcastRSSFeedURL                string     `bson:"podcast_rss_feed_url,omitempty" json:"podcast_rss_feed_url,omitempty" yaml:"podcast_rss_feed_url"`
	PodcastItunesID                  string     `bson:"podcast_itunes_id,omitempty" json:"podcast_itunes_id,omitempty" yaml:"podcast_itunes_id"`
	PodcastSpotifyID                 string     `bson:"podcast_spotify_id,omitempty" json:"podcast_spotify_id,omitempty" yaml:"podcast_spotify_id"`

	EpisodeID           string     `bson:"episode_id" json:"episode_id" yaml:"episode_id"`
	EpisodeTitle        string     `bson:"episode_title" json:"episode_title" yaml:"episode_title"`
	EpisodeDescription  string     `bson:"episode_description,omitempty" json:"episode_description,omitempty" yaml:"episode_description"`
	EpisodeURL          string     `bson:"episode_url,omitempty" json:"episode_url,omitempty" yaml:"episode_url"`
	EpisodeTranscript   string     `bson:"episode_transcript,omitempty" json:"episode_transcript,omitempty" yaml:"episode_transcript"`
	EpisodePostedAt     string     `bson:"episode_posted_at" json:"episode_posted_at" yaml:"episode_posted_at"`
	EpisodePostedAtAtom string     `bson:"episode_posted_at_atom,omitempty" json:"episode_posted_at_atom,omitempty" yaml:"episode_posted_at_atom"`
	EpisodeAudioURL     string     `bson:"episode_audio_url,omitempty" json:"episode_audio_url,omitempty" yaml:"episode_audio_url"`
	EpisodeDuration     float64    `bson:"episode_duration,omitempty" json:"episode_duration,omitempty" yaml:"episode_duration"`
	EpisodeCategories   []Category `bson:"episode_categories,omitempty" json:"episode_categories" yaml:"episode_categories"`

	Metadata  EpisodeMetadata `bson:"metadata" json:"metadata" yaml:"metadata"`
	Topics    []Topic         `bson:"topics,omitempty" json:"topics" yaml:"topics"`
	Entities  []bson.M        `bson:"entities,omitempty" json:"entities" yaml:"entities"`
	Ingestion *IngestionInfo  `bson:"_metadata,omitempty" json:"_metadata,omitempty" yaml:"_metadata"`

	Extra bson.M `bson:",inline" json:"-" yaml:"-"`
}

// EpisodeRef is the projection of an episode needed to denormalize facts.
type EpisodeRef struct {
	EpisodeID    string `bson:"episode_id"`
	EpisodeTitle string `bson:"episode_title"`
	PodcastID    string `bson:"podcast_id"`
	PodcastName  string `bson:"podcast_name"`
	PodcastImage string `bson:"podcast_image"`
}

func (e *Episode) Ref() EpisodeRef {
	return EpisodeRef{
		EpisodeID:    e.EpisodeID,
		EpisodeTitle: e.EpisodeTitle,
		PodcastID:    e.PodcastID,
		PodcastName:  e.PodcastName,
		PodcastImage: e.PodcastImage,
	}
}

type Fact struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id" yaml:"-"`
	Title       string             `bson:"title" json:"title" yaml:"title"`
	Explanation string             `bson:"explanation" json:"explanation" yaml:"explanation"`
	Score       float64            `bson:"score" json:"score" yaml:"score"`
	Quotes      []string           `bson:"quotes" json:"quotes" yaml:"quotes"`
	Keywords    []string           `bson:"keywords" json:"keywords" yaml:"keywords"`
	PodcastID   string             `bson:"podcast_id" json:"podcast_id" yaml:"podcast_id"`
	EpisodeID   string             `bson:"episode_id" json:"episode_id" yaml:"episode_id"`
}

type PodcastSummary struct {
	PodcastID    string `json:"podcast_id"`
	PodcastName  string `json:"podcast_name"`
	PodcastImage string `json:"podcast_image"`
}

type EpisodeSummary struct {
	EpisodeID    string `json:"episode_id"`
	EpisodeTitle string `json:"episode_title"`
}

// FactRecord is a fact joined with its parent episode, as returned by fact
// listings. The raw foreign keys of the fact are only exposed nested.
type FactRecord struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Explanation string             `json:"explanation"`
	Score       float64            `json:"score"`
	Quotes      []string           `json:"quotes"`
	Keywords    []string           `json:"keywords"`
	Podcast     PodcastSummary     `json:"podcast"`
	Episode     EpisodeSummary     `json:"episode"`
}

// EpisodeDetail is an episode enriched with every fact referencing it.
type EpisodeDetail struct {
	Episode
	Facts []Fact `json:"facts"`
}

type KeywordCount struct {
	Keyword string `bson:"keyword" json:"keyword"`
	Count   int64  `bson:"count" json:"count"`
}
