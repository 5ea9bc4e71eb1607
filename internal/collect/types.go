// Package collect fetches articles from upstream providers and normalizes
// them into a single shape for the ingestion pipeline.
package collect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Article is the provider-agnostic article shape produced by a fetcher.
// It is transient: the pipeline persists it, the fetcher never mutates it.
type Article struct {
	Title       string
	Link        string
	PublishedAt *time.Time
	Content     string
	SourceName  string // "{provider}:{variant}", routes the item to a Source
	Hash        string
}

// Fetcher converts one upstream endpoint into normalized articles.
// A fetcher that fails entirely returns an error; the caller treats that as
// "this provider yielded nothing this cycle" and moves on.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Article, error)
}

// Fingerprint computes the dedup key for an article: a SHA-256 over the
// canonical link and title. Body text is deliberately excluded so that a
// provider re-serving a description with minor edits maps to the same key.
func Fingerprint(link, title string) string {
	sum := sha256.Sum256([]byte(link + ":" + title))
	return hex.EncodeToString(sum[:])
}
