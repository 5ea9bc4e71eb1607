package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const finnhubBaseURL = "https://finnhub.io/api/v1/news"

// FinnhubFetcher fetches market news from the Finnhub API.
// API docs: https://finnhub.io/docs/api/market-news
type FinnhubFetcher struct {
	apiKey   string
	category string
	baseURL  string
	client   *http.Client
}

// NewFinnhubFetcher creates a Finnhub market-news fetcher.
func NewFinnhubFetcher(apiKey, category string) *FinnhubFetcher {
	if category == "" {
		category = "general"
	}
	return &FinnhubFetcher{
		apiKey:   apiKey,
		category: category,
		baseURL:  finnhubBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider tag this fetcher stamps on its articles.
func (f *FinnhubFetcher) Name() string {
	return "finnhub:" + f.category
}

// Fetch issues one request against the news endpoint.
func (f *FinnhubFetcher) Fetch(ctx context.Context) ([]Article, error) {
	params := url.Values{
		"category": {f.category},
		"token":    {f.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finnhub request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("finnhub returned %d", resp.StatusCode)
	}

	var raw []struct {
		Headline string `json:"headline"`
		URL      string `json:"url"`
		Summary  string `json:"summary"`
		Datetime int64  `json:"datetime"` // unix seconds
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding finnhub response: %w", err)
	}

	var items []Article
	for _, a := range raw {
		title := strings.TrimSpace(a.Headline)
		link := strings.TrimSpace(a.URL)
		if title == "" || link == "" {
			continue
		}

		var published *time.Time
		if a.Datetime > 0 {
			t := time.Unix(a.Datetime, 0).UTC()
			published = &t
		}

		items = append(items, Article{
			Title:       title,
			Link:        link,
			PublishedAt: published,
			Content:     strings.TrimSpace(a.Summary),
			SourceName:  f.Name(),
			Hash:        Fingerprint(link, title),
		})
	}

	return items, nil
}
