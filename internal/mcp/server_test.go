package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AnjalSotang/cinescope/internal/core"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockProvider implements core.MetadataProvider for testing.
type mockProvider struct {
	searchCalls    atomic.Int32
	recommendCalls atomic.Int32
	discoverCalls  atomic.Int32

	searchResult    *core.ItemList
	searchErr       error
	recommendResult *core.RecommendationList
	recommendErr    error
	discoverResult  *core.ItemList
	discoverErr     error
	configured      bool
}

func (m *mockProvider) SearchTitle(_ context.Context, _ core.SearchArgs) (*core.ItemList, error) {
	m.searchCalls.Add(1)
	return m.searchResult, m.searchErr
}

func (m *mockProvider) Recommendations(_ context.Context, _ core.RecommendArgs) (*core.RecommendationList, error) {
	m.recommendCalls.Add(1)
	return m.recommendResult, m.recommendErr
}

func (m *mockProvider) Discover(_ context.Context, _ core.DiscoverArgs) (*core.ItemList, error) {
	m.discoverCalls.Add(1)
	return m.discoverResult, m.discoverErr
}

func (m *mockProvider) Configured() bool { return m.configured }

func searchResult(titles ...string) *core.ItemList {
	items := make([]core.Item, 0, len(titles))
	for i, title := range titles {
		items = append(items, core.Item{ID: i + 1, Title: title, Type: "movie"})
	}
	return &core.ItemList{Results: items, Source: "TMDB", FetchedAt: 1700000000}
}

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestSearchTitleTool(t *testing.T) {
	provider := &mockProvider{searchResult: searchResult("Inception")}
	srv := NewServer(provider, 0, discardLogger)

	result := callTool(t, srv, "search_title", map[string]any{"query": "Inception"})

	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got core.ItemList
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Title != "Inception" {
		t.Errorf("unexpected results: %+v", got.Results)
	}
	if got.Source != "TMDB" {
		t.Errorf("expected source TMDB, got %s", got.Source)
	}
}

func TestErrorEnvelope(t *testing.T) {
	provider := &mockProvider{
		searchErr: core.Errf(core.CodeTitleNotFound, 404, `no results for query "zzz"`),
	}
	srv := NewServer(provider, 0, discardLogger)

	result := callTool(t, srv, "search_title", map[string]any{"query": "zzz"})

	if !result.IsError {
		t.Fatal("expected error result")
	}

	var env map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env["error"] != "TITLE_NOT_FOUND" {
		t.Errorf("expected TITLE_NOT_FOUND, got %v", env["error"])
	}
	if env["source"] != "TMDB" {
		t.Errorf("expected source TMDB, got %v", env["source"])
	}
	if env["message"] == "" {
		t.Error("expected a message")
	}
}

func TestInternalErrorEnvelope(t *testing.T) {
	// An unclassified defect must be distinguished from classified
	// upstream errors and must not carry a provider source.
	provider := &mockProvider{searchErr: errors.New("nil pointer somewhere")}
	srv := NewServer(provider, 0, discardLogger)

	result := callTool(t, srv, "search_title", map[string]any{"query": "Inception"})

	if !result.IsError {
		t.Fatal("expected error result")
	}

	var env map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env["error"] != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %v", env["error"])
	}
	if _, ok := env["source"]; ok {
		t.Errorf("internal errors must not carry a source, got %v", env["source"])
	}
}

func TestUnknownTool(t *testing.T) {
	srv := NewServer(&mockProvider{}, 0, discardLogger)

	_, err := srv.Call(context.Background(), "delete_everything", nil)
	var cerr *core.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *core.Error, got %T: %v", err, err)
	}
	if cerr.Code != core.CodeUnknownTool {
		t.Errorf("expected UNKNOWN_TOOL, got %s", cerr.Code)
	}
}

func TestCacheHitSkipsProvider(t *testing.T) {
	provider := &mockProvider{searchResult: searchResult("Inception")}
	srv := NewServer(provider, time.Minute, discardLogger)
	ctx := context.Background()

	args := json.RawMessage(`{"query":"Inception","type":"movie"}`)
	if _, err := srv.Call(ctx, "search_title", args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same arguments, different key order: still a hit.
	reordered := json.RawMessage(`{"type":"movie","query":"Inception"}`)
	if _, err := srv.Call(ctx, "search_title", reordered); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := provider.searchCalls.Load(); n != 1 {
		t.Errorf("expected 1 provider call, got %d", n)
	}
}

func TestExpiredEntryTriggersFreshFetch(t *testing.T) {
	provider := &mockProvider{discoverResult: searchResult()}
	srv := NewServer(provider, 10*time.Millisecond, discardLogger)
	ctx := context.Background()

	args := json.RawMessage(`{"type":"movie"}`)
	if _, err := srv.Call(ctx, "discover", args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := srv.Call(ctx, "discover", args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := provider.discoverCalls.Load(); n != 2 {
		t.Errorf("expected 2 provider calls after TTL expiry, got %d", n)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	provider := &mockProvider{
		searchErr: core.Errf(core.CodeUpstreamError, 503, "tmdb service unavailable"),
	}
	srv := NewServer(provider, time.Minute, discardLogger)
	ctx := context.Background()

	args := json.RawMessage(`{"query":"Inception"}`)
	if _, err := srv.Call(ctx, "search_title", args); err == nil {
		t.Fatal("expected error")
	}

	// The transient failure recovers; the next call must reach the
	// provider instead of replaying a poisoned entry.
	provider.searchErr = nil
	provider.searchResult = searchResult("Inception")
	if _, err := srv.Call(ctx, "search_title", args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := provider.searchCalls.Load(); n != 2 {
		t.Errorf("expected 2 provider calls, got %d", n)
	}
}

func TestBadArgumentShape(t *testing.T) {
	srv := NewServer(&mockProvider{}, 0, discardLogger)

	_, err := srv.Call(context.Background(), "search_title", json.RawMessage(`{"query":"x","year":"2010"}`))
	var cerr *core.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *core.Error, got %T: %v", err, err)
	}
	if cerr.Code != core.CodeValidationError {
		t.Errorf("expected VALIDATION_ERROR, got %s", cerr.Code)
	}
}

func TestHealthTool(t *testing.T) {
	provider := &mockProvider{configured: true, searchResult: searchResult("Inception")}
	srv := NewServer(provider, time.Minute, discardLogger)

	// Seed one cache entry so the count is visible.
	if _, err := srv.Call(context.Background(), "search_title", json.RawMessage(`{"query":"Inception"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := callTool(t, srv, "health", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got healthStatus
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if got.Status != "ok" {
		t.Errorf("expected status ok, got %s", got.Status)
	}
	if !got.APIKeyConfigured {
		t.Error("expected tmdb_api_key_configured=true")
	}
	if got.CacheEntries != 1 {
		t.Errorf("expected 1 cache entry, got %d", got.CacheEntries)
	}
	if got.TimestampUTC == "" {
		t.Error("expected a timestamp")
	}
	if provider.searchCalls.Load() != 1 {
		t.Error("health must not invoke data operations")
	}
}
