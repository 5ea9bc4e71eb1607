package database

// GetStats returns aggregate counts for the status command and /stats route.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{BySource: make(map[string]int)}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM sources").Scan(&s.Sources); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM articles").Scan(&s.Articles); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&s.AnalyzedArticles); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT s.name, COUNT(a.id) FROM sources s
		LEFT JOIN articles a ON a.source_id = s.id
		GROUP BY s.name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		s.BySource[name] = count
	}
	return s, rows.Err()
}
