// Package mcp exposes the metadata query operations over the MCP
// tool-call protocol and hosts the dispatcher: cache lookup, routing,
// and the uniform error envelope boundary.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AnjalSotang/cinescope/internal/core"
)

// Server wraps an MCP SDK server with the CineScope tool handlers.
type Server struct {
	server   *mcpsdk.Server
	provider core.MetadataProvider
	cache    *toolCache
	logger   *slog.Logger
}

// NewServer creates an MCP server with all CineScope tools registered.
// ttl <= 0 falls back to the default cache TTL.
func NewServer(provider core.MetadataProvider, ttl time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cinescope",
			Version: "1.0.0",
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, provider: provider, cache: newToolCache(ttl), logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(searchTitleTool(), s.handleTool("search_title"))
	s.server.AddTool(getRecommendationsTool(), s.handleTool("get_recommendations"))
	s.server.AddTool(discoverTool(), s.handleTool("discover"))
	s.server.AddTool(healthTool(), s.handleTool("health"))
}

// Tool definitions.

func searchTitleTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_title",
		Description: "Search for a movie or TV show by title.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The title to search for",
				},
				"type": map[string]any{
					"type": "string",
					"enum": []any{"movie", "tv"},
				},
				"year": map[string]any{
					"type":        "integer",
					"description": "Optional release year to filter results",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "BCP 47 language tag, defaults to en-US",
				},
			},
			"required": []any{"query"},
		},
	}
}

func getRecommendationsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_recommendations",
		Description: "Get TMDB recommendations given a title id and type.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "integer",
					"description": "The TMDB ID of the title",
				},
				"type": map[string]any{
					"type": "string",
					"enum": []any{"movie", "tv"},
				},
			},
			"required": []any{"id", "type"},
		},
	}
}

func discoverTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name: "discover",
		Description: "Discover movies or TV shows by filters like year, language and sort order. " +
			"Genre names are accepted but not yet applied as an upstream filter.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{
					"type": "string",
					"enum": []any{"movie", "tv"},
				},
				"genre": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"year": map[string]any{
					"type": "integer",
				},
				"language": map[string]any{
					"type": "string",
				},
				"sort_by": map[string]any{
					"type": "string",
					"enum": []any{"popularity", "vote_average"},
				},
			},
			"required": []any{"type"},
		},
	}
}

func healthTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "health",
		Description: "Checks that the server is running and the TMDB key is configured.",
		InputSchema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		},
	}
}

// errorEnvelope is the uniform error shape returned to the caller.
type errorEnvelope struct {
	Error   core.Code `json:"error"`
	Message string    `json:"message"`
	Source  string    `json:"source,omitempty"`
}

// healthStatus is the health tool payload.
type healthStatus struct {
	Status           string `json:"status"`
	APIKeyConfigured bool   `json:"tmdb_api_key_configured"`
	CacheEntries     int    `json:"cache_entries"`
	TimestampUTC     string `json:"timestamp_utc"`
}

// handleTool adapts the dispatcher to an MCP tool handler. Errors are
// serialized into the envelope and returned as tool results, never as
// protocol errors; this is the outermost safety boundary.
func (s *Server) handleTool(name string) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		payload, err := s.Call(ctx, name, req.Params.Arguments)
		if err != nil {
			return toolError(envelope(err)), nil
		}
		return toolJSON(payload)
	}
}

// Call dispatches a named tool call: cache lookup, routing to the
// matching query operation, caching of the success payload. Every
// failure comes back as a *core.Error; panics in operations are
// recovered and reported as INTERNAL_ERROR.
func (s *Server) Call(ctx context.Context, name string, rawArgs json.RawMessage) (payload any, err error) {
	s.logger.Info("tool call", slog.String("tool", name))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in tool call", slog.String("tool", name), slog.Any("panic", r))
			payload = nil
			err = core.Errf(core.CodeInternalError, http.StatusInternalServerError, "%v", r)
		}
	}()

	// Health is synchronous and bypasses the cache entirely.
	if name == "health" {
		return s.health(), nil
	}

	args := map[string]any{}
	if len(rawArgs) > 0 {
		if uerr := json.Unmarshal(rawArgs, &args); uerr != nil {
			return nil, core.Errf(core.CodeValidationError, http.StatusBadRequest,
				"invalid arguments: %v", uerr)
		}
	}

	key, kerr := cacheKey(name, args)
	if kerr != nil {
		return nil, core.Errf(core.CodeInternalError, http.StatusInternalServerError, "%v", kerr)
	}

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Info("tool call completed",
			slog.String("tool", name),
			slog.Bool("cache_hit", true),
			slog.Duration("duration", time.Since(start)),
		)
		return cached, nil
	}

	payload, err = s.route(ctx, name, rawArgs)
	if err != nil {
		var cerr *core.Error
		if !errors.As(err, &cerr) {
			err = core.Errf(core.CodeInternalError, http.StatusInternalServerError, "%v", err)
		}
		s.logger.Error("tool call failed", slog.String("tool", name), slog.Any("error", err))
		return nil, err
	}

	// Only successful payloads are cached, so a transient failure does
	// not poison subsequent calls within the TTL window.
	s.cache.Set(key, payload)

	s.logger.Info("tool call completed",
		slog.String("tool", name),
		slog.Bool("cache_hit", false),
		slog.Duration("duration", time.Since(start)),
	)
	return payload, nil
}

// route decodes the arguments for the named operation and invokes it.
func (s *Server) route(ctx context.Context, name string, rawArgs json.RawMessage) (any, error) {
	switch name {
	case "search_title":
		var args core.SearchArgs
		if err := decodeArgs(rawArgs, &args); err != nil {
			return nil, err
		}
		return s.provider.SearchTitle(ctx, args)
	case "get_recommendations":
		var args core.RecommendArgs
		if err := decodeArgs(rawArgs, &args); err != nil {
			return nil, err
		}
		return s.provider.Recommendations(ctx, args)
	case "discover":
		var args core.DiscoverArgs
		if err := decodeArgs(rawArgs, &args); err != nil {
			return nil, err
		}
		return s.provider.Discover(ctx, args)
	default:
		return nil, core.Errf(core.CodeUnknownTool, http.StatusBadRequest, "unknown tool: %s", name)
	}
}

// health reports liveness: credential presence and cache size,
// distinct from the data operations.
func (s *Server) health() healthStatus {
	return healthStatus{
		Status:           "ok",
		APIKeyConfigured: s.provider.Configured(),
		CacheEntries:     s.cache.Len(),
		TimestampUTC:     time.Now().UTC().Format(time.RFC3339),
	}
}

// decodeArgs unmarshals raw tool arguments into the operation's typed
// argument struct; a shape mismatch is bad caller input.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return core.Errf(core.CodeValidationError, http.StatusBadRequest, "invalid arguments: %v", err)
	}
	return nil
}

// envelope renders an error as the uniform envelope. Classified errors
// carry the provider source; unclassified defects become
// INTERNAL_ERROR without one.
func envelope(err error) errorEnvelope {
	var cerr *core.Error
	if !errors.As(err, &cerr) {
		return errorEnvelope{Error: core.CodeInternalError, Message: err.Error()}
	}
	env := errorEnvelope{Error: cerr.Code, Message: cerr.Message}
	if cerr.Code != core.CodeInternalError {
		env.Source = core.SourceTMDB
	}
	return env
}

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(errorEnvelope{
			Error:   core.CodeInternalError,
			Message: fmt.Sprintf("marshal result: %v", err),
		}), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result carrying the error envelope.
func toolError(env errorEnvelope) *mcpsdk.CallToolResult {
	data, err := json.Marshal(env)
	if err != nil {
		// The envelope is plain strings; this cannot realistically fail.
		data = []byte(`{"error":"INTERNAL_ERROR","message":"failed to encode error"}`)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		IsError: true,
	}
}
