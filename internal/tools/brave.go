package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type braveArgs struct {
	Query string `json:"query" jsonschema:"description=Search query"`
	Count int    `json:"count,omitempty" jsonschema:"description=Number of results (default 5 and max 20)"`
}

// BraveSearch searches the web via Brave Search API.
type BraveSearch struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewBraveSearch creates a new Brave Search tool.
func NewBraveSearch(apiKey string) *BraveSearch {
	return &BraveSearch{
		apiKey:  apiKey,
		baseURL: "https://api.search.brave.com/res/v1/web/search",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BraveSearch) Name() string                 { return "brave_search" }
func (b *BraveSearch) Description() string          { return "Search the web using Brave Search" }
func (b *BraveSearch) InputSchema() json.RawMessage { return GenerateSchema[braveArgs]() }

type braveResponse struct {
	Web braveWeb `json:"web"`
}

type braveWeb struct {
	Results []braveResult `json:"results"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (b *BraveSearch) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var args braveArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	if args.Query == "" {
		return "", fmt.Errorf("query is required")
	}
	if args.Count <= 0 {
		args.Count = 5
	}
	if args.Count > 20 {
		args.Count = 20
	}

	u, _ := url.Parse(b.baseURL)
	q := u.Query()
	q.Set("q", args.Query)
	q.Set("count", fmt.Sprintf("%d", args.Count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Brave API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result braveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(result.Web.Results) == 0 {
		return "No results found.", nil
	}

	var sb strings.Builder
	for i, r := range result.Web.Results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n\n", i+1, r.Title, r.URL, r.Description)
	}
	return sb.String(), nil
}
