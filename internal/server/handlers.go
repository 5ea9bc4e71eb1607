package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sgriesel/newslens/internal/database"
	"github.com/sgriesel/newslens/internal/pipeline"
)

// Ingester triggers an ingestion run. *pipeline.Pipeline satisfies it.
type Ingester interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Handler handles HTTP requests for the article API.
type Handler struct {
	db       *database.DB
	ingester Ingester

	mu        sync.Mutex
	ingesting bool
}

// NewHandler creates an API handler. The ingester may be nil, in which case
// the admin ingest endpoint reports the feature as unavailable.
func NewHandler(db *database.DB, ingester Ingester) *Handler {
	return &Handler{db: db, ingester: ingester}
}

type articleResponse struct {
	ID             int64    `json:"id"`
	Source         string   `json:"source"`
	Title          string   `json:"title"`
	Link           string   `json:"link"`
	PublishedAt    *string  `json:"published_at"`
	Summary        *string  `json:"summary,omitempty"`
	SentimentLabel *string  `json:"sentiment_label,omitempty"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
}

type articleDetailResponse struct {
	ID           int64             `json:"id"`
	SourceID     int64             `json:"source_id"`
	Title        string            `json:"title"`
	Link         string            `json:"link"`
	PublishedAt  *string           `json:"published_at"`
	ContentClean *string           `json:"content"`
	Hash         string            `json:"hash"`
	CreatedAt    *string           `json:"created_at"`
	Analysis     *analysisResponse `json:"analysis,omitempty"`
}

type analysisResponse struct {
	ID             int64                  `json:"id"`
	ArticleID      int64                  `json:"article_id"`
	Summary        string                 `json:"summary"`
	SentimentLabel string                 `json:"sentiment_label"`
	SentimentScore float64                `json:"sentiment_score"`
	Keywords       []string               `json:"keywords"`
	Meta           *database.AnalysisMeta `json:"meta,omitempty"`
	ModelName      *string                `json:"model_name"`
	CreatedAt      *string                `json:"created_at"`
}

func toAnalysisResponse(a *database.Analysis) analysisResponse {
	return analysisResponse{
		ID:             a.ID,
		ArticleID:      a.ArticleID,
		Summary:        a.Summary,
		SentimentLabel: a.SentimentLabel,
		SentimentScore: a.SentimentScore,
		Keywords:       a.Keywords,
		Meta:           a.Meta,
		ModelName:      a.ModelName,
		CreatedAt:      a.CreatedAt,
	}
}

// HealthCheck handles the health check endpoint.
func (h *Handler) HealthCheck(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if stats, err := h.db.GetStats(); err == nil {
		health["articles"] = stats.Articles
		health["sources"] = stats.Sources
	}
	c.JSON(http.StatusOK, health)
}

// GetStats handles the statistics endpoint.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.db.GetStats()
	if err != nil {
		log.Printf("Database error getting stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sources":           stats.Sources,
		"articles":          stats.Articles,
		"analyzed_articles": stats.AnalyzedArticles,
		"by_source":         stats.BySource,
	})
}

// ListArticles handles article search and listing.
func (h *Handler) ListArticles(c *gin.Context) {
	filter := database.ArticleFilter{
		Query:     c.Query("q"),
		Sentiment: c.Query("sentiment"),
		Source:    c.Query("source"),
		From:      c.Query("from"),
		To:        c.Query("to"),
		Sort:      c.Query("sort"),
		Limit:     50,
	}

	switch filter.Sentiment {
	case "", "positive", "neutral", "negative":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'sentiment' parameter"})
		return
	}
	switch filter.Sort {
	case "", "published_desc", "score_desc":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'sort' parameter"})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter"})
			return
		}
		filter.Limit = n
	}

	items, err := h.db.ListArticles(filter)
	if err != nil {
		log.Printf("Database error listing articles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]articleResponse, 0, len(items))
	for _, it := range items {
		out = append(out, articleResponse{
			ID:             it.ID,
			Source:         it.SourceName,
			Title:          it.Title,
			Link:           it.Link,
			PublishedAt:    it.PublishedAt,
			Summary:        it.Summary,
			SentimentLabel: it.SentimentLabel,
			SentimentScore: it.SentimentScore,
			Keywords:       it.Keywords,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": out,
		"total":    len(out),
	})
}

// GetArticle handles a single article lookup by id.
func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	article, err := h.db.GetArticleByID(id)
	if err != nil {
		log.Printf("Database error getting article %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	resp := articleDetailResponse{
		ID:           article.ID,
		SourceID:     article.SourceID,
		Title:        article.Title,
		Link:         article.Link,
		PublishedAt:  article.PublishedAt,
		ContentClean: article.ContentClean,
		Hash:         article.Hash,
		CreatedAt:    article.CreatedAt,
	}
	if analysis, err := h.db.GetAnalysisForArticle(id); err == nil && analysis != nil {
		a := toAnalysisResponse(analysis)
		resp.Analysis = &a
	}

	c.JSON(http.StatusOK, resp)
}

// GetArticleAnalysis returns the analysis attached to an article.
func (h *Handler) GetArticleAnalysis(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	article, err := h.db.GetArticleByID(id)
	if err != nil {
		log.Printf("Database error getting article %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	analysis, err := h.db.GetAnalysisForArticle(id)
	if err != nil {
		log.Printf("Database error getting analysis for article %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not analyzed"})
		return
	}

	c.JSON(http.StatusOK, toAnalysisResponse(analysis))
}

// GetAnalysis handles a single analysis lookup by id.
func (h *Handler) GetAnalysis(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	analysis, err := h.db.GetAnalysisByID(id)
	if err != nil {
		log.Printf("Database error getting analysis %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
		return
	}

	c.JSON(http.StatusOK, toAnalysisResponse(analysis))
}

// RunIngest triggers a synchronous ingestion run. Only one run at a time.
func (h *Handler) RunIngest(c *gin.Context) {
	if h.ingester == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion not configured"})
		return
	}

	h.mu.Lock()
	if h.ingesting {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "Ingestion already running"})
		return
	}
	h.ingesting = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.ingesting = false
		h.mu.Unlock()
	}()

	result, err := h.ingester.Run(c.Request.Context())
	if err != nil {
		log.Printf("Ingestion run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fetched":         result.Fetched,
		"analyzed":        result.Analyzed,
		"duplicates":      result.Duplicates,
		"dropped":         result.Dropped,
		"analysis_errors": result.AnalysisErrors,
		"by_source":       result.Sources,
	})
}

// CleanupSource deletes a source and everything that hangs off it.
func (h *Handler) CleanupSource(c *gin.Context) {
	name := c.Param("source")

	src, err := h.db.GetSourceByName(name)
	if err != nil {
		log.Printf("Database error getting source %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if src == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	articles, analyses, err := h.db.DeleteSourceCascade(name)
	if err != nil {
		log.Printf("Database error cleaning up source %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	log.Printf("Cleaned up source %s: %d articles, %d analyses", name, articles, analyses)
	c.JSON(http.StatusOK, gin.H{
		"source":           name,
		"deleted_articles": articles,
		"deleted_analyses": analyses,
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}
