package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// geminiStub serves a generateContent-shaped response wrapping the given
// model output text.
func geminiStub(t *testing.T, modelOutput string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("expected key query parameter")
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"parts": []map[string]string{{"text": modelOutput}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient("test-key", "gemini-1.5-flash", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.baseURL = baseURL
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", "gemini-1.5-flash", 60, 50); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestAnalyze(t *testing.T) {
	srv := geminiStub(t, "```json\n"+`{"summary": "Markets rallied on rate hopes.", "sentiment": {"label": "positive", "score": 0.6}, "keywords": ["markets", "rates"], "reason": "optimistic tone"}`+"\n```")
	c := newTestClient(t, srv.URL)

	r, err := c.Analyze(context.Background(), Input{
		Title:   "Markets rally",
		Content: strings.Repeat("Stocks climbed across the board today. ", 5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Sentiment.Label != "positive" {
		t.Errorf("unexpected label %q", r.Sentiment.Label)
	}
	if len(r.Keywords) != 2 {
		t.Errorf("unexpected keywords: %v", r.Keywords)
	}
}

func TestAnalyzeRejectsOutOfRangeScore(t *testing.T) {
	srv := geminiStub(t, `{"summary": "S.", "sentiment": {"label": "positive", "score": 1.5}}`)
	c := newTestClient(t, srv.URL)

	_, err := c.Analyze(context.Background(), Input{Content: strings.Repeat("x ", 50)})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected *ValidationError, got %v", err)
	}
}

func TestAnalyzeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	if _, err := c.Analyze(context.Background(), Input{Content: strings.Repeat("x ", 50)}); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestAnalyzeShortContentFallsBackToTitle(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		prompts = append(prompts, req.Contents[0].Parts[0].Text)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"parts": []map[string]string{{"text": `{"summary": "S.", "sentiment": {"label": "neutral", "score": 0}}`}},
				}},
			},
		})
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	// Content below the minimum usable length: title must be folded in.
	_, err := c.Analyze(context.Background(), Input{Title: "Big headline", Content: "tiny"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prompts) != 1 || !strings.Contains(prompts[0], "Big headline tiny") {
		t.Error("expected title+content fallback in prompt")
	}
}

func TestAnalyzeSkipsEmptyContent(t *testing.T) {
	c := newTestClient(t, "http://unreachable.invalid")

	_, err := c.Analyze(context.Background(), Input{Title: "  ", Content: ""})
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}
