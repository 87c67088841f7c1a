package core

import "context"

// SourceTMDB identifies the metadata provider in result payloads and
// error envelopes.
const SourceTMDB = "TMDB"

// Media types accepted by every operation.
const (
	TypeMovie = "movie"
	TypeTV    = "tv"
)

// Item is a provider-agnostic record shape, insulating callers from
// upstream field-naming differences. ID and Title are always present;
// optional fields degrade to defaults rather than erroring.
type Item struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Year       *int    `json:"year"`
	Rating     float64 `json:"rating"`
	Overview   string  `json:"overview"`
	PosterPath *string `json:"poster_path"`
}

// Recommendation is a slimmed item with a human-readable reason for
// why it was suggested. Reason is null when no fragment applies.
type Recommendation struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Year   *int    `json:"year"`
	Reason *string `json:"reason"`
}

// ItemList is the payload shape for search and discover results.
type ItemList struct {
	Results   []Item `json:"results"`
	Source    string `json:"source"`
	FetchedAt int64  `json:"fetched_at"`
}

// RecommendationList is the payload shape for recommendation results.
type RecommendationList struct {
	Results   []Recommendation `json:"results"`
	Source    string           `json:"source"`
	FetchedAt int64            `json:"fetched_at"`
}

// SearchArgs are the caller arguments for the search_title operation.
type SearchArgs struct {
	Query    string `json:"query"`
	Type     string `json:"type"`
	Year     *int   `json:"year"`
	Language string `json:"language"`
}

// RecommendArgs are the caller arguments for get_recommendations.
type RecommendArgs struct {
	ID   *int   `json:"id"`
	Type string `json:"type"`
}

// DiscoverArgs are the caller arguments for the discover operation.
// Genre is accepted but not forwarded upstream; resolving genre names
// to provider IDs is a known gap.
type DiscoverArgs struct {
	Type     string   `json:"type"`
	Genre    []string `json:"genre"`
	Year     *int     `json:"year"`
	Language string   `json:"language"`
	SortBy   string   `json:"sort_by"`
}

// MetadataProvider is the set of normalized query operations the
// dispatcher routes to. Implementations validate arguments before any
// network call and return *Error for every classified failure.
type MetadataProvider interface {
	SearchTitle(ctx context.Context, args SearchArgs) (*ItemList, error)
	Recommendations(ctx context.Context, args RecommendArgs) (*RecommendationList, error)
	Discover(ctx context.Context, args DiscoverArgs) (*ItemList, error)

	// Configured reports whether the provider credential is set.
	Configured() bool
}
