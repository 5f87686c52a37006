package storage

import (
	"regexp"
	"strings"

	"github.com/podfacts/backend/internal/storage/models"
)

// Search is a case-insensitive literal substring term. The zero value and a
// nil *Search match everything.
type Search struct {
	term string
	re   *regexp.Regexp
}

// NewSearch trims raw and returns nil when nothing is left.
func NewSearch(raw string) *Search {
	term := strings.TrimSpace(raw)
	if term == "" {
		return nil
	}
	return &Search{
		term: term,
		re:   regexp.MustCompile("(?i)" + regexp.QuoteMeta(term)),
	}
}

func (s *Search) Term() string {
	if s == nil {
		return ""
	}
	return s.term
}

// Pattern is the escaped, unanchored regular expression for the term, ready
// to hand to a store's regex operator together with a case-insensitive flag.
func (s *Search) Pattern() string {
	if s == nil {
		return ""
	}
	return regexp.QuoteMeta(s.term)
}

// MatchAny reports whether any of fields contains the term.
func (s *Search) MatchAny(fields ...string) bool {
	if s == nil || s.re == nil {
		return true
	}
	for _, f := range fields {
		if s.re.MatchString(f) {
			return true
		}
	}
	return false
}

// EpisodeFilter is ANDed across its set fields; Search is ORed across the
// episode title, podcast name and the two summary fields.
type EpisodeFilter struct {
	PodcastID *string
	EpisodeID *string
	Search    *Search
}

func (f EpisodeFilter) Match(ep *models.Episode) bool {
	if f.PodcastID != nil && ep.PodcastID != *f.PodcastID {
		return false
	}
	if f.EpisodeID != nil && ep.EpisodeID != *f.EpisodeID {
		return false
	}
	return f.Search.MatchAny(
		ep.EpisodeTitle,
		ep.PodcastName,
		ep.Metadata.SummaryShort,
		ep.Metadata.SummaryLong,
	)
}

// FactFilter selects facts before they are joined to their episode.
type FactFilter struct {
	Keyword *string
}

func (f FactFilter) Match(fact *models.Fact) bool {
	if f.Keyword == nil {
		return true
	}
	for _, k := range fact.Keywords {
		if k == *f.Keyword {
			return true
		}
	}
	return false
}

type Page struct {
	Limit int64
	Skip  int64
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
