package database

// Source is a named upstream provider. One source owns many articles.
type Source struct {
	ID            int64
	Name          string
	APIType       string // "rss", "finnhub" or "newsdata"
	Active        bool
	LastFetchedAt *string
}

// Article is a persisted, deduplicated article. Hash is unique across all
// articles: a second insert with the same fingerprint is a no-op.
type Article struct {
	ID           int64
	SourceID     int64
	Title        string
	Link         string
	PublishedAt  *string // RFC 3339, nil when the provider gave no usable date
	ContentRaw   *string
	ContentClean *string
	Hash         string
	CreatedAt    *string
}

// Analysis is the LLM-derived record attached to at most one article.
// Created once, never updated.
type Analysis struct {
	ID             int64
	ArticleID      int64
	Summary        string
	SentimentLabel string
	SentimentScore float64
	Keywords       []string
	Meta           *AnalysisMeta
	ModelName      *string
	CreatedAt      *string
}

// AnalysisMeta is the free-form metadata stored alongside an analysis.
type AnalysisMeta struct {
	Reason       string `json:"reason,omitempty"`
	SafetyFlag   bool   `json:"safety_flag"`
	SafetyReason string `json:"safety_reason,omitempty"`
}

// ArticleListItem is an article joined with its source and optional analysis,
// as returned by ListArticles.
type ArticleListItem struct {
	Article
	SourceName     string
	Summary        *string
	SentimentLabel *string
	SentimentScore *float64
	Keywords       []string
}

// ArticleFilter narrows ListArticles results. Zero values mean "no filter".
type ArticleFilter struct {
	Query     string // free-text over title, clean content and keywords
	Sentiment string // positive | neutral | negative
	Source    string // source name substring
	From      string // RFC 3339 lower bound on published_at
	To        string // RFC 3339 upper bound on published_at
	Sort      string // "published_desc" (default) or "score_desc"
	Limit     int
}

// Stats contains aggregate database statistics.
type Stats struct {
	Sources          int
	Articles         int
	AnalyzedArticles int
	BySource         map[string]int
}
