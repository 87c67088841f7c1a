// Package tmdb is the upstream-access layer for the TMDB API v3:
// credential injection, bounded retries with outcome classification,
// and the normalized query operations the dispatcher routes to.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AnjalSotang/cinescope/internal/core"
	"github.com/AnjalSotang/cinescope/internal/httpclient"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultLanguage = "en-US"
)

// Client is a TMDB API v3 client implementing core.MetadataProvider.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  *slog.Logger
}

// New creates a new TMDB client. An empty apiKey is allowed; every
// operation then fails with CONFIG_ERROR without a network attempt.
func New(apiKey string, logger *slog.Logger) *Client {
	return NewWithBaseURL(apiKey, defaultBaseURL, logger)
}

// NewWithBaseURL creates a TMDB client against a custom base URL,
// used for proxies and tests.
func NewWithBaseURL(apiKey, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpclient.New(httpclient.DefaultConfig(), logger),
		logger:  logger,
	}
}

// Configured reports whether the API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SearchTitle searches for a movie or TV show by title. Zero provider
// results is reported as TITLE_NOT_FOUND so the caller can react
// distinctly from an empty success.
func (c *Client) SearchTitle(ctx context.Context, args core.SearchArgs) (*core.ItemList, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return nil, core.Errf(core.CodeValidationError, http.StatusBadRequest, "query is required")
	}
	mediaType, err := mediaTypeOrDefault(args.Type, core.TypeMovie)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"query":         {query},
		"language":      {languageOrDefault(args.Language)},
		"include_adult": {"false"},
	}
	if args.Year != nil {
		params.Set(yearParam(mediaType), strconv.Itoa(*args.Year))
	}

	var resp listResponse
	if err := c.get(ctx, "/search/"+mediaType, params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, core.Errf(core.CodeTitleNotFound, http.StatusNotFound, "no results for query %q", query)
	}

	items := make([]core.Item, 0, len(resp.Results))
	for _, raw := range resp.Results {
		items = append(items, normalizeItem(raw, mediaType))
	}
	return &core.ItemList{Results: items, Source: core.SourceTMDB, FetchedAt: time.Now().Unix()}, nil
}

// Recommendations fetches the provider's recommendation list for the
// given id/type and derives a reason string per item. An empty result
// list is a valid success.
func (c *Client) Recommendations(ctx context.Context, args core.RecommendArgs) (*core.RecommendationList, error) {
	if args.ID == nil {
		return nil, core.Errf(core.CodeValidationError, http.StatusBadRequest, "id is required")
	}
	mediaType, err := requireMediaType(args.Type)
	if err != nil {
		return nil, err
	}

	params := url.Values{"language": {defaultLanguage}}
	path := fmt.Sprintf("/%s/%d/recommendations", mediaType, *args.ID)

	var resp listResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	recs := make([]core.Recommendation, 0, len(resp.Results))
	for _, raw := range resp.Results {
		recs = append(recs, normalizeRecommendation(raw, mediaType))
	}
	return &core.RecommendationList{Results: recs, Source: core.SourceTMDB, FetchedAt: time.Now().Unix()}, nil
}

// Discover runs a filtered discovery query with descending sort. An
// empty result list is a valid success.
func (c *Client) Discover(ctx context.Context, args core.DiscoverArgs) (*core.ItemList, error) {
	mediaType, err := requireMediaType(args.Type)
	if err != nil {
		return nil, err
	}
	sortBy := args.SortBy
	if sortBy == "" {
		sortBy = "popularity"
	}
	if sortBy != "popularity" && sortBy != "vote_average" {
		return nil, core.Errf(core.CodeValidationError, http.StatusBadRequest,
			"sort_by must be 'popularity' or 'vote_average'")
	}

	// args.Genre is accepted but not forwarded: TMDB filters by genre
	// ID, and name-to-ID resolution via /genre/{type}/list is not
	// wired up yet.
	params := url.Values{
		"language":      {languageOrDefault(args.Language)},
		"include_adult": {"false"},
		"sort_by":       {sortBy + ".desc"},
	}
	if args.Year != nil {
		params.Set(yearParam(mediaType), strconv.Itoa(*args.Year))
	}

	var resp listResponse
	if err := c.get(ctx, "/discover/"+mediaType, params, &resp); err != nil {
		return nil, err
	}

	items := make([]core.Item, 0, len(resp.Results))
	for _, raw := range resp.Results {
		items = append(items, normalizeItem(raw, mediaType))
	}
	return &core.ItemList{Results: items, Source: core.SourceTMDB, FetchedAt: time.Now().Unix()}, nil
}

func requireMediaType(t string) (string, error) {
	if t == core.TypeMovie || t == core.TypeTV {
		return t, nil
	}
	return "", core.Errf(core.CodeValidationError, http.StatusBadRequest,
		"type must be %q or %q", core.TypeMovie, core.TypeTV)
}

func mediaTypeOrDefault(t, fallback string) (string, error) {
	if t == "" {
		t = fallback
	}
	return requireMediaType(t)
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return defaultLanguage
	}
	return lang
}

// yearParam returns the type-appropriate release-year filter.
func yearParam(mediaType string) string {
	if mediaType == core.TypeTV {
		return "first_air_date_year"
	}
	return "primary_release_year"
}

// get performs an authenticated GET request to the TMDB API and
// classifies the outcome into a *core.Error. A missing credential
// fails here before any network attempt.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if c.apiKey == "" {
		return core.Errf(core.CodeConfigError, http.StatusInternalServerError,
			"TMDB API key is not configured")
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return core.Errf(core.CodeInternalError, http.StatusInternalServerError, "invalid URL: %v", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return core.Errf(core.CodeInternalError, http.StatusInternalServerError, "create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return core.Errf(core.CodeBadRequest, resp.StatusCode,
			"tmdb returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return core.Errf(core.CodeJSONError, http.StatusInternalServerError,
			"parse tmdb response: %v", err)
	}
	return nil
}

// classifyTransportError maps an exhausted retry budget to the code of
// the last attempt's classification: 429 to RATE_LIMIT, 5xx to
// UPSTREAM_ERROR, transport-level failures to NETWORK_ERROR.
func classifyTransportError(err error) *core.Error {
	var ex *httpclient.ExhaustedError
	if errors.As(err, &ex) {
		switch {
		case ex.StatusCode == http.StatusTooManyRequests:
			return core.Errf(core.CodeRateLimit, http.StatusTooManyRequests,
				"tmdb rate limit reached after retries")
		case ex.StatusCode >= 500:
			return core.Errf(core.CodeUpstreamError, ex.StatusCode, "tmdb service unavailable")
		}
	}
	return core.Errf(core.CodeNetworkError, http.StatusInternalServerError,
		"network error talking to tmdb: %v", err)
}
