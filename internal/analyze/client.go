// Package analyze sends articles to the Gemini API for summarization and
// sentiment scoring, under a process-local rate limit.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// MinContentLen is the default minimum cleaned-content length considered
// usable on its own. Shorter articles are analyzed as "title + content".
const MinContentLen = 50

// ErrNoContent signals that an article has nothing usable to analyze, even
// combining title and content. The caller treats it as a skip, not a fault.
var ErrNoContent = errors.New("no usable content to analyze")

const analysisPrompt = `You are a news summarization and sentiment analyzer.
The input is a JSON object describing one article. Respond with ONLY a JSON object, no prose, no markdown.

Rules:
- summary: 3-4 neutral sentences, keep figures and named actors.
- sentiment.label: exactly one of "positive", "neutral", "negative".
- sentiment.score: a number between -1.0 and 1.0 matching the label.
- keywords: 3-6 key nouns or phrases.
- reason: one sentence justifying the sentiment.
- safety_flag: true only if the text contains personal data or sensitive material; explain in safety_reason, otherwise leave it "".
- Escape any quotation marks embedded in string values.

Respond with exactly this shape:
{"summary": "...", "sentiment": {"label": "...", "score": 0.0}, "keywords": ["..."], "reason": "...", "safety_flag": false, "safety_reason": ""}

Input JSON: %s`

// Input describes one article submitted for analysis.
type Input struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PublishedAt string `json:"published_at,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey        string
	model         string
	baseURL       string
	minContentLen int
	limiter       *Limiter
	client        *http.Client
}

// NewClient creates an analyzer client. It fails fast when no credential is
// configured; no network call is attempted.
func NewClient(apiKey, model string, rateLimitPerMinute, minContentLen int) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("analyzer API key not configured")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if minContentLen <= 0 {
		minContentLen = MinContentLen
	}
	return &Client{
		apiKey:        apiKey,
		model:         model,
		baseURL:       geminiBaseURL,
		minContentLen: minContentLen,
		limiter:       NewLimiter(rateLimitPerMinute),
		client:        &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Model returns the configured model name, recorded on stored analyses.
func (c *Client) Model() string {
	return c.model
}

// Analyze sends one article to the model and returns the validated result.
// Any failure is scoped to this one article.
func (c *Client) Analyze(ctx context.Context, in Input) (*Result, error) {
	in.Content = c.usableContent(in)
	if in.Content == "" {
		return nil, ErrNoContent
	}

	inputJSON, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshaling analysis input: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{
				{"text": fmt.Sprintf(analysisPrompt, inputJSON)},
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.limiter.Wait()

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("analyzer API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("unexpected analyzer response shape")
	}

	return ParseResult(result.Candidates[0].Content.Parts[0].Text)
}

// usableContent picks the analysis input: the cleaned content when it is long
// enough, otherwise title and content combined. Empty means skip.
func (c *Client) usableContent(in Input) string {
	content := strings.TrimSpace(in.Content)
	if len(content) >= c.minContentLen {
		return content
	}
	combined := strings.TrimSpace(strings.TrimSpace(in.Title) + " " + content)
	return combined
}
