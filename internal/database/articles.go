package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// InsertArticle persists a new article and returns its ID. The caller is
// expected to have checked the fingerprint first; a constraint violation on
// hash is returned as an error rather than swallowed.
func (db *DB) InsertArticle(a *Article) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO articles (source_id, title, link, published_at, content_raw, content_clean, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.SourceID, a.Title, a.Link, a.PublishedAt, a.ContentRaw, a.ContentClean, a.Hash,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting article %q: %w", a.Title, err)
	}
	return result.LastInsertId()
}

// GetArticleByHash looks up an article by its fingerprint. Returns nil when
// no article carries the hash. An insert is visible to this lookup
// immediately, which guards against the same link appearing twice in one
// upstream page of results.
func (db *DB) GetArticleByHash(hash string) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT id, source_id, title, link, published_at, content_raw, content_clean, hash, created_at
		FROM articles WHERE hash = ?`, hash,
	)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetArticleByID returns a single article by ID, or nil if absent.
func (db *DB) GetArticleByID(id int64) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT id, source_id, title, link, published_at, content_raw, content_clean, hash, created_at
		FROM articles WHERE id = ?`, id,
	)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateArticleContent replaces an article's raw and clean content after a
// full-content backfill.
func (db *DB) UpdateArticleContent(id int64, raw, clean string) error {
	_, err := db.conn.Exec(
		"UPDATE articles SET content_raw = ?, content_clean = ? WHERE id = ?",
		raw, clean, id,
	)
	return err
}

// GetThinArticles returns articles whose clean content is shorter than
// minLen, candidates for the full-content backfill.
func (db *DB) GetThinArticles(minLen int) ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT id, source_id, title, link, published_at, content_raw, content_clean, hash, created_at
		FROM articles WHERE length(coalesce(content_clean, '')) < ?
		ORDER BY created_at DESC`, minLen,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ListArticles returns articles joined with their source and analysis,
// narrowed by the filter.
func (db *DB) ListArticles(f ArticleFilter) ([]ArticleListItem, error) {
	query := `SELECT a.id, a.source_id, a.title, a.link, a.published_at,
		a.content_raw, a.content_clean, a.hash, a.created_at,
		s.name, an.summary, an.sentiment_label, an.sentiment_score, an.keywords
		FROM articles a
		JOIN sources s ON s.id = a.source_id
		LEFT JOIN analyses an ON an.article_id = a.id`

	var conds []string
	var args []any

	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		conds = append(conds,
			"(lower(a.title) LIKE ? OR lower(a.content_clean) LIKE ? OR lower(coalesce(an.keywords, '')) LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Sentiment != "" {
		conds = append(conds, "an.sentiment_label = ?")
		args = append(args, f.Sentiment)
	}
	if f.Source != "" {
		conds = append(conds, "lower(s.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Source)+"%")
	}
	if f.From != "" {
		conds = append(conds, "a.published_at >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "a.published_at <= ?")
		args = append(args, f.To)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	if f.Sort == "score_desc" {
		query += " ORDER BY an.sentiment_score IS NULL, an.sentiment_score DESC"
	} else {
		query += " ORDER BY a.published_at IS NULL, a.published_at DESC"
	}

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ArticleListItem
	for rows.Next() {
		var it ArticleListItem
		var keywords *string
		if err := rows.Scan(&it.ID, &it.SourceID, &it.Title, &it.Link, &it.PublishedAt,
			&it.ContentRaw, &it.ContentClean, &it.Hash, &it.CreatedAt,
			&it.SourceName, &it.Summary, &it.SentimentLabel, &it.SentimentScore, &keywords); err != nil {
			return nil, err
		}
		if keywords != nil && *keywords != "" {
			// keywords are stored as a JSON array
			_ = json.Unmarshal([]byte(*keywords), &it.Keywords)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	if err := row.Scan(&a.ID, &a.SourceID, &a.Title, &a.Link, &a.PublishedAt,
		&a.ContentRaw, &a.ContentClean, &a.Hash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.SourceID, &a.Title, &a.Link, &a.PublishedAt,
			&a.ContentRaw, &a.ContentClean, &a.Hash, &a.CreatedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
