// Package websearch provides the web search tool backed by the Tavily API.
package websearch

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"

	"github.com/toolgate-io/toolgate/pkg/tool"
)

// ToolName is the registration key and descriptor name of the search tool
const ToolName = "tavily_search"

// Config holds the search backend configuration
type Config struct {
	APIKey  string
	BaseURL string // optional override, mainly for tests
}

// Tool is the web search tool implementation. The API client is created by
// the idempotent Initialize and guarded by a mutex so concurrent first use
// is safe.
type Tool struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	client *Client
}

// New creates the web search tool. The client is not created until
// Initialize runs.
func New(cfg Config, logger zerolog.Logger) *Tool {
	return &Tool{
		cfg:    cfg,
		logger: logger.With().Str("tool", ToolName).Logger(),
	}
}

// Initialize creates the API client. Safe to call multiple times; later
// calls return immediately once a client exists.
func (t *Tool) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		t.logger.Debug().Msg("Search client already initialized")
		return nil
	}

	if t.cfg.APIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY not set, web search tool will be non-functional")
	}

	opts := []ClientOption{}
	if t.cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(t.cfg.BaseURL))
	}
	t.client = NewClient(t.cfg.APIKey, opts...)
	t.logger.Info().Msg("Search client initialized")
	return nil
}

// Descriptor returns the tool's static metadata
func (t *Tool) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        ToolName,
		Description: "Performs a web search using the Tavily API and returns a list of relevant results including snippets and URLs.",
		Inputs: []tool.InputParam{
			{Name: "query", Description: "The search query string.", Type: "string", Required: true, Example: "latest news on AI model advancements"},
			{Name: "max_results", Description: "The maximum number of search results to return. Default is 5 (Min:1, Max:20).", Type: "integer", Required: false, Example: 3},
			{Name: "search_depth", Description: "Search depth: 'basic' or 'advanced'. Default is 'advanced'.", Type: "string", Required: false},
		},
		Output: tool.OutputSchema{
			Type:        "object",
			Description: "An object containing the search results from Tavily.",
			Properties: map[string]interface{}{
				"query":         map[string]interface{}{"type": "string", "description": "The original query used for the search."},
				"response_time": map[string]interface{}{"type": "number", "description": "Time taken for the search."},
				"results": map[string]interface{}{
					"type":        "array",
					"description": "A list of search result items.",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"title":   map[string]interface{}{"type": "string", "description": "Title of the search result."},
							"url":     map[string]interface{}{"type": "string", "description": "URL of the search result."},
							"content": map[string]interface{}{"type": "string", "description": "Snippet or summary of the content."},
							"score":   map[string]interface{}{"type": "number", "description": "Relevance score."},
						},
					},
				},
			},
		},
	}
}

type searchInputs struct {
	Query       string `mapstructure:"query"`
	MaxResults  int    `mapstructure:"max_results"`
	SearchDepth string `mapstructure:"search_depth"`
}

// Execute runs one search. Expected failures (missing client, bad input,
// upstream API error) are reported as failure outcomes.
func (t *Tool) Execute(ctx context.Context, inputs map[string]interface{}) tool.Outcome {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()

	if client == nil {
		// Lazy retry in case the startup initializer failed transiently
		if err := t.Initialize(ctx); err != nil {
			t.logger.Error().Err(err).Msg("Search client not initialized")
			return tool.Failure("Tool error: search client not initialized.")
		}
		t.mu.Lock()
		client = t.client
		t.mu.Unlock()
	}

	var in searchInputs
	if err := mapstructure.Decode(inputs, &in); err != nil {
		return tool.Failure("Invalid input: %s", err.Error())
	}
	if in.Query == "" {
		return tool.Failure("Invalid input: 'query' is missing or not a string.")
	}

	if in.SearchDepth != "basic" && in.SearchDepth != "advanced" {
		in.SearchDepth = "advanced"
	}
	if in.MaxResults <= 0 || in.MaxResults > 20 {
		in.MaxResults = 5
	}

	t.logger.Info().Str("query", in.Query).Int("max_results", in.MaxResults).Msg("Executing web search")

	resp, err := client.Search(ctx, SearchParams{
		Query:       in.Query,
		SearchDepth: in.SearchDepth,
		MaxResults:  in.MaxResults,
	})
	if err != nil {
		t.logger.Error().Err(err).Str("query", in.Query).Msg("Web search failed")
		return tool.Failure("Tool execution error: %s", err.Error())
	}

	return tool.Success(resp)
}
