package database

import (
	"database/sql"
	"fmt"
	"time"
)

// EnsureSource returns the source with the given name, creating it with
// defaults if it does not exist yet. Source bootstrapping happens before any
// article is attributed.
func (db *DB) EnsureSource(name, apiType string) (*Source, error) {
	src, err := db.GetSourceByName(name)
	if err != nil {
		return nil, err
	}
	if src != nil {
		return src, nil
	}

	result, err := db.conn.Exec(
		"INSERT INTO sources (name, api_type, active) VALUES (?, ?, 1)",
		name, apiType,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting source %q: %w", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Source{ID: id, Name: name, APIType: apiType, Active: true}, nil
}

// GetSourceByName returns a source by exact name, or nil if absent.
func (db *DB) GetSourceByName(name string) (*Source, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, api_type, active, last_fetched_at FROM sources WHERE name = ?", name,
	)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// GetSources returns all sources ordered by name.
func (db *DB) GetSources() ([]Source, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, api_type, active, last_fetched_at FROM sources ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		var active int
		if err := rows.Scan(&s.ID, &s.Name, &s.APIType, &active, &s.LastFetchedAt); err != nil {
			return nil, err
		}
		s.Active = active != 0
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// TouchSource records that the source was fetched just now.
func (db *DB) TouchSource(sourceID int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.conn.Exec(
		"UPDATE sources SET last_fetched_at = ? WHERE id = ?", now, sourceID,
	)
	return err
}

// DeleteSourceCascade deletes a source together with its articles and their
// analyses. The cascade is explicit: analyses first, then articles, then the
// source row. Returns the number of deleted articles and analyses.
func (db *DB) DeleteSourceCascade(name string) (articles, analyses int64, err error) {
	src, err := db.GetSourceByName(name)
	if err != nil {
		return 0, 0, err
	}
	if src == nil {
		return 0, 0, nil
	}

	res, err := db.conn.Exec(
		"DELETE FROM analyses WHERE article_id IN (SELECT id FROM articles WHERE source_id = ?)",
		src.ID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("deleting analyses for %q: %w", name, err)
	}
	analyses, _ = res.RowsAffected()

	res, err = db.conn.Exec("DELETE FROM articles WHERE source_id = ?", src.ID)
	if err != nil {
		return 0, analyses, fmt.Errorf("deleting articles for %q: %w", name, err)
	}
	articles, _ = res.RowsAffected()

	if _, err := db.conn.Exec("DELETE FROM sources WHERE id = ?", src.ID); err != nil {
		return articles, analyses, fmt.Errorf("deleting source %q: %w", name, err)
	}

	return articles, analyses, nil
}

func scanSource(row *sql.Row) (*Source, error) {
	var s Source
	var active int
	if err := row.Scan(&s.ID, &s.Name, &s.APIType, &active, &s.LastFetchedAt); err != nil {
		return nil, err
	}
	s.Active = active != 0
	return &s, nil
}
