// Package fetch backfills full article text for stored articles whose feed
// or API payload carried only a short description.
package fetch

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/sgriesel/newslens/internal/database"
	"github.com/sgriesel/newslens/internal/textutil"
)

// Result holds the results of a backfill run.
type Result struct {
	Fetched int
	Failed  int
}

// ContentFetcher fetches full article text via HTTP + readability extraction.
type ContentFetcher struct {
	db          *database.DB
	client      *http.Client
	minLen      int
	maxCleanLen int
}

// NewContentFetcher creates a content fetcher. Articles whose clean content
// is shorter than minLen are backfill candidates.
func NewContentFetcher(db *database.DB, timeout time.Duration, minLen, maxCleanLen int) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if maxCleanLen <= 0 {
		maxCleanLen = textutil.DefaultMaxLen
	}
	return &ContentFetcher{
		db:          db,
		minLen:      minLen,
		maxCleanLen: maxCleanLen,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// BackfillThinArticles fetches full text for articles with thin content.
// Once a domain fails, the remaining articles from it are skipped for this
// run.
func (f *ContentFetcher) BackfillThinArticles() *Result {
	articles, err := f.db.GetThinArticles(f.minLen)
	if err != nil {
		log.Printf("Error getting thin articles: %v", err)
		return &Result{}
	}

	if len(articles) == 0 {
		return &Result{}
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, article := range articles {
		u, _ := url.Parse(article.Link)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		text, httpErr := f.fetchArticleContent(article.Link)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s, skipping remaining from %s", article.Link, domain)
			continue
		}

		if text == "" {
			result.Failed++
			log.Printf("No extractable content from: %s", article.Link)
			continue
		}

		clean := textutil.Clean(text, f.maxCleanLen)
		if err := f.db.UpdateArticleContent(article.ID, text, clean); err != nil {
			log.Printf("Error updating content for article %d: %v", article.ID, err)
			result.Failed++
			continue
		}
		result.Fetched++
		log.Printf("Backfilled content for: %s", article.Title)
	}

	log.Printf("Content backfill complete: %d fetched, %d failed", result.Fetched, result.Failed)
	return result
}

// FetchArticle fetches and extracts the full text of one article URL.
// An empty string with nil error means nothing extractable was found.
func (f *ContentFetcher) FetchArticle(articleURL string) (string, error) {
	return f.fetchArticleContent(articleURL)
}

func (f *ContentFetcher) fetchArticleContent(articleURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "newslens/1.0 (news aggregator)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
