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

const newsdataBaseURL = "https://newsdata.io/api/1/news"

// NewsdataFetcher fetches latest news from the NewsData.io API.
// API docs: https://newsdata.io/documentation
type NewsdataFetcher struct {
	apiKey   string
	country  string
	language string
	baseURL  string
	client   *http.Client
}

// NewNewsdataFetcher creates a NewsData.io fetcher.
func NewNewsdataFetcher(apiKey, country, language string) *NewsdataFetcher {
	if country == "" {
		country = "us"
	}
	if language == "" {
		language = "en"
	}
	return &NewsdataFetcher{
		apiKey:   apiKey,
		country:  country,
		language: language,
		baseURL:  newsdataBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider tag this fetcher logs under. Individual articles
// carry "newsdata:{source_id}" so the upstream outlet stays visible.
func (f *NewsdataFetcher) Name() string {
	return "newsdata"
}

// Fetch issues one request against the latest-news endpoint.
func (f *NewsdataFetcher) Fetch(ctx context.Context) ([]Article, error) {
	params := url.Values{
		"apikey":   {f.apiKey},
		"country":  {f.country},
		"language": {f.language},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsdata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsdata returned %d", resp.StatusCode)
	}

	var raw struct {
		Results []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Description string `json:"description"`
			Content     string `json:"content"`
			PubDate     string `json:"pubDate"`
			SourceID    string `json:"source_id"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding newsdata response: %w", err)
	}

	var items []Article
	for _, a := range raw.Results {
		title := strings.TrimSpace(a.Title)
		link := strings.TrimSpace(a.Link)
		if title == "" || link == "" {
			continue
		}

		content := a.Description
		if content == "" {
			content = a.Content
		}

		sourceID := a.SourceID
		if sourceID == "" {
			sourceID = "newsdata"
		}

		items = append(items, Article{
			Title:       title,
			Link:        link,
			PublishedAt: parseNewsdataDate(a.PubDate),
			Content:     strings.TrimSpace(content),
			SourceName:  "newsdata:" + sourceID,
			Hash:        Fingerprint(link, title),
		})
	}

	return items, nil
}

// parseNewsdataDate handles the two timestamp shapes NewsData.io serves.
// Unparseable dates degrade to nil rather than failing the entry.
func parseNewsdataDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
