//go:build !sqlite_fts5

package notestore

import "database/sql"

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on notes.search_text.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ int64, _, _ string) error {
	// Search text is already stored in the notes table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ int64) {}

// searchIDs performs a LIKE-based search (fallback when FTS5 is not
// compiled in). A `deck:NAME` query filters by deck to keep the common
// case usable without FTS5.
func searchIDs(conn *sql.DB, query string, limit int) ([]int64, error) {
	var rows *sql.Rows
	var err error
	if deck, ok := deckFilter(query); ok {
		rows, err = conn.Query(`
			SELECT id FROM notes WHERE deck = ? ORDER BY id LIMIT ?
		`, deck, limit)
	} else {
		rows, err = conn.Query(`
			SELECT id FROM notes
			WHERE search_text LIKE ? OR deck LIKE ?
			ORDER BY id LIMIT ?
		`, "%"+query+"%", "%"+query+"%", limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func deckFilter(query string) (string, bool) {
	const prefix = "deck:"
	if len(query) > len(prefix) && query[:len(prefix)] == prefix {
		return query[len(prefix):], true
	}
	return "", false
}
