package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test Feed</title>
  <link>https://example.com</link>
  <item>
    <title>First story</title>
    <link>https://example.com/first</link>
    <description>&lt;p&gt;First body&lt;/p&gt;</description>
    <pubDate>Mon, 05 Jan 2026 12:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Second story</title>
    <link>https://example.com/second</link>
    <description>Second body</description>
    <pubDate>not a date at all</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/no-title</link>
  </item>
  <item>
    <title>No link</title>
  </item>
</channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedFetcher(t *testing.T) {
	srv := serveFeed(t, sampleRSS)

	f := NewFeedFetcher(srv.URL, "testfeed")
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Entries without title or link are dropped.
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "First story" {
		t.Errorf("expected 'First story', got %q", first.Title)
	}
	if first.SourceName != "feed:testfeed" {
		t.Errorf("expected source 'feed:testfeed', got %q", first.SourceName)
	}
	if first.PublishedAt == nil {
		t.Error("expected a parsed published date")
	}
	if first.Hash == "" {
		t.Error("expected a fingerprint")
	}

	// A bad timestamp degrades to nil, the entry survives.
	if items[1].PublishedAt != nil {
		t.Error("expected nil published date for unparseable pubDate")
	}
}

func TestFeedFetcherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFeedFetcher(srv.URL, "broken")
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("expected error for non-2xx response")
	}
}
