package tmdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AnjalSotang/cinescope/internal/core"
)

// normalizeItem maps a raw TMDB record into the provider-agnostic
// shape. It never fails: malformed optional fields degrade to
// defaults instead of erroring.
func normalizeItem(raw rawItem, mediaType string) core.Item {
	title := raw.Title
	if title == "" {
		title = raw.Name
	}
	return core.Item{
		ID:         raw.ID,
		Title:      title,
		Type:       mediaType,
		Year:       releaseYear(raw),
		Rating:     raw.VoteAverage,
		Overview:   raw.Overview,
		PosterPath: raw.PosterPath,
	}
}

// normalizeRecommendation slims a raw record down to the
// recommendation shape and attaches the derived reason.
func normalizeRecommendation(raw rawItem, mediaType string) core.Recommendation {
	base := normalizeItem(raw, mediaType)
	return core.Recommendation{
		ID:     base.ID,
		Title:  base.Title,
		Year:   base.Year,
		Reason: recommendationReason(raw),
	}
}

// releaseYear parses the leading year component of the record's date
// field; nil when no date field is present or it does not start with
// a number.
func releaseYear(raw rawItem) *int {
	date := raw.ReleaseDate
	if date == "" {
		date = raw.FirstAirDate
	}
	if date == "" {
		return nil
	}
	year, err := strconv.Atoi(strings.SplitN(date, "-", 2)[0])
	if err != nil {
		return nil
	}
	return &year
}

// recommendationReason concatenates the justification fragments that
// apply to a recommended item; nil when none do.
func recommendationReason(raw rawItem) *string {
	var parts []string
	if raw.VoteAverage > 0 {
		parts = append(parts, fmt.Sprintf("high user rating %.1f", raw.VoteAverage))
	}
	if raw.Popularity > 0 {
		parts = append(parts, "popular among similar viewers")
	}
	if len(parts) == 0 {
		return nil
	}
	reason := strings.Join(parts, "; ")
	return &reason
}
