package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgate-io/toolgate/pkg/tool"
)

func fakeSearchAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

// TestTool_Initialize tests the idempotent initializer and the missing-key error
func TestTool_Initialize(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		wt := New(Config{}, zerolog.Nop())
		err := wt.Initialize(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TAVILY_API_KEY")
	})

	t.Run("idempotent", func(t *testing.T) {
		wt := New(Config{APIKey: "key"}, zerolog.Nop())
		require.NoError(t, wt.Initialize(context.Background()))
		first := wt.client
		require.NoError(t, wt.Initialize(context.Background()))
		assert.Same(t, first, wt.client)
	})
}

func TestTool_Descriptor(t *testing.T) {
	wt := New(Config{APIKey: "key"}, zerolog.Nop())
	desc := wt.Descriptor()

	assert.Equal(t, ToolName, desc.Name)
	require.NoError(t, desc.Validate())

	require.Len(t, desc.Inputs, 3)
	assert.Equal(t, "query", desc.Inputs[0].Name)
	assert.True(t, desc.Inputs[0].Required)
	assert.False(t, desc.Inputs[1].Required)
}

// TestTool_Execute tests the execute path against a fake search API
func TestTool_Execute(t *testing.T) {
	ts := fakeSearchAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret", body["api_key"])
		assert.Equal(t, "golang", body["query"])
		assert.Equal(t, "advanced", body["search_depth"])
		assert.Equal(t, float64(5), body["max_results"])

		json.NewEncoder(w).Encode(SearchResponse{
			Query:        "golang",
			ResponseTime: 0.42,
			Results: []SearchResult{
				{Title: "The Go Programming Language", URL: "https://go.dev", Content: "Go is fun.", Score: 0.99},
			},
		})
	})

	wt := New(Config{APIKey: "secret", BaseURL: ts.URL}, zerolog.Nop())
	require.NoError(t, wt.Initialize(context.Background()))

	outcome := wt.Execute(context.Background(), map[string]interface{}{"query": "golang"})

	require.Equal(t, tool.StatusSuccess, outcome.Status)
	resp, ok := outcome.Output.(*SearchResponse)
	require.True(t, ok)
	assert.Equal(t, "golang", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://go.dev", resp.Results[0].URL)
}

func TestTool_Execute_InputHandling(t *testing.T) {
	var lastBody map[string]interface{}
	ts := fakeSearchAPI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastBody)
		json.NewEncoder(w).Encode(SearchResponse{Query: "q"})
	})

	wt := New(Config{APIKey: "secret", BaseURL: ts.URL}, zerolog.Nop())
	require.NoError(t, wt.Initialize(context.Background()))

	t.Run("missing query", func(t *testing.T) {
		outcome := wt.Execute(context.Background(), map[string]interface{}{})
		require.Equal(t, tool.StatusFailure, outcome.Status)
		require.NotNil(t, outcome.Error)
		assert.Equal(t, "Invalid input: 'query' is missing or not a string.", *outcome.Error)
	})

	t.Run("defaults applied", func(t *testing.T) {
		outcome := wt.Execute(context.Background(), map[string]interface{}{"query": "q"})
		require.Equal(t, tool.StatusSuccess, outcome.Status)
		assert.Equal(t, "advanced", lastBody["search_depth"])
		assert.Equal(t, float64(5), lastBody["max_results"])
	})

	t.Run("out of range max_results clamped", func(t *testing.T) {
		outcome := wt.Execute(context.Background(), map[string]interface{}{"query": "q", "max_results": 50})
		require.Equal(t, tool.StatusSuccess, outcome.Status)
		assert.Equal(t, float64(5), lastBody["max_results"])
	})

	t.Run("basic depth preserved", func(t *testing.T) {
		outcome := wt.Execute(context.Background(), map[string]interface{}{"query": "q", "search_depth": "basic", "max_results": 2})
		require.Equal(t, tool.StatusSuccess, outcome.Status)
		assert.Equal(t, "basic", lastBody["search_depth"])
		assert.Equal(t, float64(2), lastBody["max_results"])
	})
}

// TestTool_Execute_APIError tests that an upstream error becomes a failure outcome
func TestTool_Execute_APIError(t *testing.T) {
	ts := fakeSearchAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"detail": map[string]interface{}{"error": "invalid api key"},
		})
	})

	wt := New(Config{APIKey: "bad", BaseURL: ts.URL}, zerolog.Nop())
	require.NoError(t, wt.Initialize(context.Background()))

	outcome := wt.Execute(context.Background(), map[string]interface{}{"query": "q"})

	require.Equal(t, tool.StatusFailure, outcome.Status)
	require.NotNil(t, outcome.Error)
	assert.Contains(t, *outcome.Error, "Tool execution error:")
	assert.Contains(t, *outcome.Error, "invalid api key")
}

// TestTool_Execute_Uninitialized tests the failure outcome when the client
// never came up
func TestTool_Execute_Uninitialized(t *testing.T) {
	wt := New(Config{}, zerolog.Nop())

	outcome := wt.Execute(context.Background(), map[string]interface{}{"query": "q"})

	require.Equal(t, tool.StatusFailure, outcome.Status)
	require.NotNil(t, outcome.Error)
	assert.Equal(t, "Tool error: search client not initialized.", *outcome.Error)
}
