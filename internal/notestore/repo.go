package notestore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardbeam/cardbeam/internal/apperr"
)

// Find runs query in the store's native search syntax and returns matching
// notes in stable store order (ascending id). An empty query matches
// nothing. A malformed query surfaces as apperr.ErrQuery.
func (db *DB) Find(query string, limit int) ([]Note, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	ids, err := searchIDs(db.conn, query, limit)
	if err != nil {
		return nil, fmt.Errorf("notestore: search %q: %w: %v", query, apperr.ErrQuery, err)
	}

	notes := make([]Note, 0, len(ids))
	for _, id := range ids {
		n, err := db.Get(id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, nil
}

// Get loads one note with all its fields.
func (db *DB) Get(id int64) (*Note, error) {
	n := &Note{ID: id, Fields: make(map[string]string)}
	err := db.conn.QueryRow(`SELECT guid, deck FROM notes WHERE id = ?`, id).Scan(&n.GUID, &n.Deck)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notestore: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("notestore: get note %d: %w", id, err)
	}

	rows, err := db.conn.Query(`SELECT name, value FROM note_fields WHERE note_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("notestore: get fields %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		n.Fields[name] = value
		n.FieldOrder = append(n.FieldOrder, name)
	}
	return n, rows.Err()
}

// Upsert inserts or replaces a note keyed by GUID, its fields, and its FTS
// entry within a transaction. checksum is the caller-computed content digest
// used to skip unchanged notes on re-import.
func (db *DB) Upsert(n *Note, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("notestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	text := searchText(n)

	_, err = tx.Exec(`
		INSERT INTO notes (guid, deck, checksum, search_text, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			deck        = excluded.deck,
			checksum    = excluded.checksum,
			search_text = excluded.search_text,
			updated_at  = excluded.updated_at
	`, n.GUID, n.Deck, checksum, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("notestore: upsert note: %w", err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM notes WHERE guid = ?`, n.GUID).Scan(&id); err != nil {
		return fmt.Errorf("notestore: resolve id: %w", err)
	}
	n.ID = id

	// Replace fields: delete old then bulk insert in declared order.
	_, _ = tx.Exec(`DELETE FROM note_fields WHERE note_id = ?`, id)
	if len(n.FieldOrder) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO note_fields (note_id, name, ord, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("notestore: prepare field insert: %w", err)
		}
		defer stmt.Close()
		for ord, name := range n.FieldOrder {
			if _, err := stmt.Exec(id, name, ord, n.Fields[name]); err != nil {
				return fmt.Errorf("notestore: insert field: %w", err)
			}
		}
	}

	if err := ftsUpsert(tx, id, n.Deck, text); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a note by GUID together with its fields and FTS entry.
func (db *DB) Delete(guid string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("notestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRow(`SELECT id FROM notes WHERE guid = ?`, guid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("notestore: resolve id: %w", err)
	}

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM note_fields WHERE note_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM notes WHERE id = ?`, id)

	return tx.Commit()
}

// ChecksumByGUID returns the stored checksum for a note, or empty string
// if not found.
func (db *DB) ChecksumByGUID(guid string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE guid = ?`, guid).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GUIDsByDeck returns the GUID of every note in the given deck.
func (db *DB) GUIDsByDeck(deck string) (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT guid FROM notes WHERE deck = ?`, deck)
	if err != nil {
		return nil, fmt.Errorf("notestore: guids by deck: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		out[g] = struct{}{}
	}
	return out, rows.Err()
}

// Count returns the number of notes in the store.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("notestore: count: %w", err)
	}
	return n, nil
}

// searchText concatenates field values in declared order for indexing.
func searchText(n *Note) string {
	parts := make([]string, 0, len(n.FieldOrder))
	for _, name := range n.FieldOrder {
		if v := n.Fields[name]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
