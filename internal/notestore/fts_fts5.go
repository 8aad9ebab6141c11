//go:build sqlite_fts5

package notestore

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS cards_fts USING fts5(
			note_id UNINDEXED,
			deck,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id int64, deck, content string) error {
	_, _ = tx.Exec(`DELETE FROM cards_fts WHERE note_id = ?`, id)
	_, err := tx.Exec(`INSERT INTO cards_fts (note_id, deck, content) VALUES (?, ?, ?)`,
		id, deck, content)
	if err != nil {
		return fmt.Errorf("notestore: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id int64) {
	_, _ = tx.Exec(`DELETE FROM cards_fts WHERE note_id = ?`, id)
}

// searchIDs runs an FTS5 MATCH query and returns matching note ids in
// stable store order. Column filters are native FTS5 syntax, so a query
// like `deck:vocab` restricts matches to one deck.
func searchIDs(conn *sql.DB, query string, limit int) ([]int64, error) {
	rows, err := conn.Query(`
		SELECT note_id
		FROM cards_fts
		WHERE cards_fts MATCH ?
		ORDER BY note_id
		LIMIT ?
	`, query, limit)
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
