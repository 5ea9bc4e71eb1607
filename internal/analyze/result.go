package analyze

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the structured outcome of one analysis call.
type Result struct {
	Summary      string    `json:"summary"`
	Sentiment    Sentiment `json:"sentiment"`
	Keywords     []string  `json:"keywords"`
	Reason       string    `json:"reason"`
	SafetyFlag   bool      `json:"safety_flag"`
	SafetyReason string    `json:"safety_reason"`
}

// Sentiment is the label/score pair of a Result.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ValidationError reports a model response that parsed as JSON but violates
// the result schema. Such a response is rejected, never stored partially.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid analysis result: %s %s", e.Field, e.Message)
}

// Validate checks the result against the schema contract: known sentiment
// label, score within [-1, 1], non-empty summary.
func (r *Result) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return &ValidationError{Field: "summary", Message: "is empty"}
	}
	switch r.Sentiment.Label {
	case "positive", "neutral", "negative":
	default:
		return &ValidationError{Field: "sentiment.label", Message: fmt.Sprintf("%q is not one of positive/neutral/negative", r.Sentiment.Label)}
	}
	if r.Sentiment.Score < -1.0 || r.Sentiment.Score > 1.0 {
		return &ValidationError{Field: "sentiment.score", Message: fmt.Sprintf("%v is outside [-1, 1]", r.Sentiment.Score)}
	}
	return nil
}

// ParseResult parses a model response into a validated Result. The response
// may be wrapped in a markdown code fence (with an optional language tag),
// which is stripped before JSON parsing.
func ParseResult(text string) (*Result, error) {
	text = StripCodeFence(text)
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var r Result
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("parsing model response as JSON: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// StripCodeFence removes one leading and trailing markdown code fence.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Without a closing fence, strip the opening line only.
	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}
