package analyze

import (
	"errors"
	"testing"
)

func TestParseResultPlain(t *testing.T) {
	r, err := ParseResult(`{"summary": "All good.", "sentiment": {"label": "positive", "score": 0.7}, "keywords": ["a"], "reason": "r"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Summary != "All good." {
		t.Errorf("unexpected summary: %q", r.Summary)
	}
	if r.Sentiment.Label != "positive" || r.Sentiment.Score != 0.7 {
		t.Errorf("unexpected sentiment: %+v", r.Sentiment)
	}
}

func TestParseResultWithCodeFence(t *testing.T) {
	fenced := "```json\n{\"summary\": \"S.\", \"sentiment\": {\"label\": \"neutral\", \"score\": 0}}\n```"
	plain := `{"summary": "S.", "sentiment": {"label": "neutral", "score": 0}}`

	a, err := ParseResult(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ParseResult(plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Summary != b.Summary {
		t.Errorf("fenced and plain summaries differ: %q vs %q", a.Summary, b.Summary)
	}
	if a.Sentiment != b.Sentiment {
		t.Errorf("fenced and plain sentiments differ: %+v vs %+v", a.Sentiment, b.Sentiment)
	}
}

func TestParseResultPlainFence(t *testing.T) {
	fenced := "```\n{\"summary\": \"S.\", \"sentiment\": {\"label\": \"negative\", \"score\": -0.2}}\n```"
	r, err := ParseResult(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Sentiment.Label != "negative" {
		t.Errorf("unexpected label %q", r.Sentiment.Label)
	}
}

func TestParseResultInvalidJSON(t *testing.T) {
	if _, err := ParseResult("not json at all"); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseResult(""); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseResultScoreOutOfRange(t *testing.T) {
	_, err := ParseResult(`{"summary": "S.", "sentiment": {"label": "positive", "score": 1.5}}`)
	if err == nil {
		t.Fatal("expected validation error for score 1.5")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "sentiment.score" {
		t.Errorf("expected sentiment.score field, got %q", verr.Field)
	}
}

func TestParseResultBadLabel(t *testing.T) {
	_, err := ParseResult(`{"summary": "S.", "sentiment": {"label": "bullish", "score": 0.5}}`)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestParseResultEmptySummary(t *testing.T) {
	_, err := ParseResult(`{"summary": "  ", "sentiment": {"label": "neutral", "score": 0}}`)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestStripCodeFenceUnclosed(t *testing.T) {
	if got := StripCodeFence("```json\n{\"a\":1}"); got != `{"a":1}` {
		t.Errorf("unexpected result: %q", got)
	}

	r, err := ParseResult("```json\n{\"summary\": \"S.\", \"sentiment\": {\"label\": \"neutral\", \"score\": 0}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Summary != "S." {
		t.Errorf("unexpected summary %q", r.Summary)
	}
}

func TestStripCodeFenceNoFence(t *testing.T) {
	if got := StripCodeFence(`  {"a": 1}  `); got != `{"a": 1}` {
		t.Errorf("unexpected result: %q", got)
	}
}
