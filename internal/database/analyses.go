package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// InsertAnalysis persists an analysis for an article. At most one analysis
// exists per article; a second insert fails on the UNIQUE constraint.
func (db *DB) InsertAnalysis(a *Analysis) (int64, error) {
	var keywords *string
	if len(a.Keywords) > 0 {
		data, err := json.Marshal(a.Keywords)
		if err != nil {
			return 0, fmt.Errorf("marshaling keywords: %w", err)
		}
		s := string(data)
		keywords = &s
	}

	var meta *string
	if a.Meta != nil {
		data, err := json.Marshal(a.Meta)
		if err != nil {
			return 0, fmt.Errorf("marshaling meta: %w", err)
		}
		s := string(data)
		meta = &s
	}

	result, err := db.conn.Exec(
		`INSERT INTO analyses (article_id, summary, sentiment_label, sentiment_score, keywords, meta, model_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ArticleID, a.Summary, a.SentimentLabel, a.SentimentScore, keywords, meta, a.ModelName,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting analysis for article %d: %w", a.ArticleID, err)
	}
	return result.LastInsertId()
}

// GetAnalysisByID returns an analysis by its own ID, or nil if absent.
func (db *DB) GetAnalysisByID(id int64) (*Analysis, error) {
	row := db.conn.QueryRow(
		`SELECT id, article_id, summary, sentiment_label, sentiment_score, keywords, meta, model_name, created_at
		FROM analyses WHERE id = ?`, id,
	)
	return scanAnalysis(row)
}

// GetAnalysisForArticle returns the analysis attached to an article, or nil
// if the article is unanalyzed.
func (db *DB) GetAnalysisForArticle(articleID int64) (*Analysis, error) {
	row := db.conn.QueryRow(
		`SELECT id, article_id, summary, sentiment_label, sentiment_score, keywords, meta, model_name, created_at
		FROM analyses WHERE article_id = ?`, articleID,
	)
	return scanAnalysis(row)
}

func scanAnalysis(row *sql.Row) (*Analysis, error) {
	var a Analysis
	var keywords, meta *string
	err := row.Scan(&a.ID, &a.ArticleID, &a.Summary, &a.SentimentLabel, &a.SentimentScore,
		&keywords, &meta, &a.ModelName, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if keywords != nil && *keywords != "" {
		_ = json.Unmarshal([]byte(*keywords), &a.Keywords)
	}
	if meta != nil && *meta != "" {
		var m AnalysisMeta
		if json.Unmarshal([]byte(*meta), &m) == nil {
			a.Meta = &m
		}
	}
	return &a, nil
}
