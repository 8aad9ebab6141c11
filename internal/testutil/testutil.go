// Package testutil provides shared test helpers for setting up note stores.
package testutil

import (
	"os"
	"testing"

	"github.com/cardbeam/cardbeam/internal/checksum"
	"github.com/cardbeam/cardbeam/internal/notestore"
)

// TestStore creates a temporary SQLite note store that is automatically
// cleaned up.
func TestStore(t *testing.T) *notestore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cardbeam-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := notestore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// SeedNote upserts a note with the given deck, guid, and ordered fields,
// and returns its id.
func SeedNote(t *testing.T, store notestore.Store, deckName, guid string, order []string, fields map[string]string) int64 {
	t.Helper()
	n := &notestore.Note{
		GUID:       guid,
		Deck:       deckName,
		Fields:     fields,
		FieldOrder: order,
	}
	if err := store.Upsert(n, checksum.SumStrings(guid)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return n.ID
}
