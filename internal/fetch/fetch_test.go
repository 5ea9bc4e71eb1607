package fetch

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sgriesel/newslens/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestBackfillThinArticles(t *testing.T) {
	body := "<html><body><article><p>" +
		strings.Repeat("A reasonably long paragraph of extracted article text. ", 10) +
		"</p></article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	db := openTestDB(t)
	src, _ := db.EnsureSource("bbc", "rss")
	id, _ := db.InsertArticle(&database.Article{
		SourceID: src.ID, Title: "Thin", Link: srv.URL + "/thin",
		ContentClean: ptr("stub"), Hash: "thin",
	})

	f := NewContentFetcher(db, 5*time.Second, 50, 0)
	result := f.BackfillThinArticles()

	if result.Fetched != 1 || result.Failed != 0 {
		t.Fatalf("expected 1 fetched / 0 failed, got %d / %d", result.Fetched, result.Failed)
	}

	article, _ := db.GetArticleByID(id)
	if article.ContentClean == nil || len(*article.ContentClean) < 100 {
		t.Error("expected backfilled clean content")
	}
}

func TestBackfillSkipsFailedDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	db := openTestDB(t)
	src, _ := db.EnsureSource("bbc", "rss")
	db.InsertArticle(&database.Article{SourceID: src.ID, Title: "A", Link: srv.URL + "/a", ContentClean: ptr("x"), Hash: "a"})
	db.InsertArticle(&database.Article{SourceID: src.ID, Title: "B", Link: srv.URL + "/b", ContentClean: ptr("x"), Hash: "b"})

	f := NewContentFetcher(db, 5*time.Second, 50, 0)
	result := f.BackfillThinArticles()

	if result.Failed != 2 {
		t.Errorf("expected both articles to fail, got %d", result.Failed)
	}
}

func TestBackfillNothingToDo(t *testing.T) {
	db := openTestDB(t)
	f := NewContentFetcher(db, 0, 50, 0)
	result := f.BackfillThinArticles()
	if result.Fetched != 0 || result.Failed != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
