//go:build sqlite_fts5

package notestore

import (
	"errors"
	"testing"

	"github.com/cardbeam/cardbeam/internal/apperr"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM cards_fts`).Scan(&count); err != nil {
		t.Fatalf("cards_fts table missing: %v", err)
	}
}

func TestFTS5_MatchSearch(t *testing.T) {
	db := testDB(t)
	seed(t, db, "g1", "vocab", []string{"Word", "Meaning"},
		map[string]string{"Word": "食べる", "Meaning": "to eat"})
	seed(t, db, "g2", "vocab", []string{"Word", "Meaning"},
		map[string]string{"Word": "飲む", "Meaning": "to drink"})

	notes, err := db.Find("drink", 10)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(notes) != 1 || notes[0].GUID != "g2" {
		t.Fatalf("Find(drink) = %v, want just g2", notes)
	}
}

func TestFTS5_DeckColumnFilter(t *testing.T) {
	db := testDB(t)
	seed(t, db, "g1", "vocab", []string{"Word"}, map[string]string{"Word": "alpha"})
	seed(t, db, "g2", "grammar", []string{"Word"}, map[string]string{"Word": "beta"})

	notes, err := db.Find("deck:vocab", 10)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(notes) != 1 || notes[0].GUID != "g1" {
		t.Fatalf("Find(deck:vocab) = %v, want just g1", notes)
	}
}

func TestFTS5_BadSyntaxIsQueryError(t *testing.T) {
	db := testDB(t)
	seed(t, db, "g1", "vocab", []string{"Word"}, map[string]string{"Word": "alpha"})

	_, err := db.Find(`"unterminated`, 10)
	if !errors.Is(err, apperr.ErrQuery) {
		t.Fatalf("err = %v, want ErrQuery", err)
	}
}

func TestFTS5_DeleteRemovesFTSRow(t *testing.T) {
	db := testDB(t)
	seed(t, db, "g1", "vocab", []string{"Word"}, map[string]string{"Word": "alpha"})

	if err := db.Delete("g1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	notes, err := db.Find("alpha", 10)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("deleted note still searchable: %v", notes)
	}
}
