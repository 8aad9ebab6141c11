//go:build !sqlite_fts5

package notestore

import "testing"

func TestFallback_DeckFilter(t *testing.T) {
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

func TestFallback_SubstringSearch(t *testing.T) {
	db := testDB(t)
	seed(t, db, "g1", "vocab", []string{"Word", "Meaning"},
		map[string]string{"Word": "食べる", "Meaning": "to eat"})

	notes, err := db.Find("eat", 10)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("Find(eat) matched %d notes, want 1", len(notes))
	}
}
