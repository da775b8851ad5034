// Package search finds job listings through a web search API and turns the
// raw results into structured, de-duplicated listings.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/resilience"
	"jobpilot/internal/types"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes bounds how much of a search response is read
const maxResponseBytes = 10 << 20

// Client calls a Firecrawl-compatible search endpoint
type Client struct {
	httpClient *http.Client
	cfg        config.SearchConfig
	breaker    *resilience.Breaker[[]types.SearchResult]
	logger     *errors.Logger
}

type searchRequest struct {
	Query         string        `json:"query"`
	Limit         int           `json:"limit"`
	TBS           string        `json:"tbs,omitempty"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type scrapeOptions struct {
	Formats []string `json:"formats"`
}

// NewClient creates a search client with an instrumented transport
func NewClient(cfg config.SearchConfig, logger *errors.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cfg:     cfg,
		breaker: resilience.NewBreaker[[]types.SearchResult]("search", cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

// Search runs query and returns the scraped results
func (c *Client) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"search API key is required (set FIRECRAWL_API_KEY or search.apiKey)", nil)
	}

	return c.breaker.Execute(func() ([]types.SearchResult, error) {
		return c.search(ctx, query)
	})
}

func (c *Client) search(ctx context.Context, query string) ([]types.SearchResult, error) {
	body, err := json.Marshal(searchRequest{
		Query:         query,
		Limit:         c.cfg.Limit,
		TBS:           c.cfg.TimeRange,
		ScrapeOptions: scrapeOptions{Formats: []string{"markdown"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "search request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "failed to read search response", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Search API returned an error",
			"status", resp.StatusCode,
			"body", truncate(string(payload), 500))
		return nil, errors.NewNetworkError(errors.ErrCodeSearchFailed,
			fmt.Sprintf("Search failed: %d", resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	return c.parseResults(payload)
}

// parseResults reads the data array of a search response. Results without
// markdown fall back to cleaned HTML.
func (c *Client) parseResults(payload []byte) ([]types.SearchResult, error) {
	if !gjson.ValidBytes(payload) {
		return nil, errors.NewNetworkError(errors.ErrCodeInvalidFormat, "search response is not valid JSON", nil)
	}

	parsed := gjson.ParseBytes(payload)
	if success := parsed.Get("success"); success.Exists() && !success.Bool() {
		return nil, errors.NewNetworkError(errors.ErrCodeSearchFailed,
			"search API reported failure: "+parsed.Get("error").String(), nil)
	}

	var results []types.SearchResult
	parsed.Get("data").ForEach(func(_, item gjson.Result) bool {
		content := item.Get("markdown").String()
		if strings.TrimSpace(content) == "" {
			if html := item.Get("html").String(); html != "" {
				content = cleanHTML(html)
			}
		}

		title := item.Get("title").String()
		if title == "" {
			title = item.Get("metadata.title").String()
		}
		description := item.Get("description").String()
		if description == "" {
			description = item.Get("metadata.description").String()
		}

		results = append(results, types.SearchResult{
			URL:         item.Get("url").String(),
			Title:       title,
			Description: description,
			Content:     truncate(content, c.cfg.ContentLimit),
		})
		return true
	})

	c.logger.Debug("Search results parsed", "count", len(results))
	return results, nil
}

// Stats reports the search breaker state
func (c *Client) Stats() map[string]any {
	return c.breaker.Stats()
}
