package deck

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cardbeam/cardbeam/internal/testutil"
)

const sampleDeck = `
deck: vocab
fields: [Word, Meaning, Sentence]
notes:
  - guid: n1
    Word: 食べる
    Meaning: to eat
  - Word: 飲む
    Meaning: to drink
    Sentence: 水を飲む。
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(sampleDeck))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "vocab" {
		t.Errorf("Name = %q, want vocab", d.Name)
	}
	if len(d.Notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(d.Notes))
	}

	first := d.Notes[0]
	if first.GUID != "n1" {
		t.Errorf("explicit guid not kept: %q", first.GUID)
	}
	if first.Field("Word") != "食べる" || first.Field("Meaning") != "to eat" {
		t.Errorf("fields = %v", first.Fields)
	}
	if len(first.FieldOrder) != 3 || first.FieldOrder[0] != "Word" {
		t.Errorf("FieldOrder = %v, want deck-declared order", first.FieldOrder)
	}

	second := d.Notes[1]
	if second.GUID == "" {
		t.Error("derived guid is empty")
	}
	if second.GUID == first.GUID {
		t.Error("distinct notes share a guid")
	}
}

func TestParse_DerivedGUIDIsStable(t *testing.T) {
	d1, err := Parse([]byte(sampleDeck))
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Parse([]byte(sampleDeck))
	if err != nil {
		t.Fatal(err)
	}
	if d1.Notes[1].GUID != d2.Notes[1].GUID {
		t.Errorf("derived guid changed between parses: %q vs %q", d1.Notes[1].GUID, d2.Notes[1].GUID)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"missing deck name", "fields: [Word]\nnotes: []", "missing deck name"},
		{"missing fields", "deck: vocab\nnotes: []", "missing fields"},
		{"unknown field", "deck: vocab\nfields: [Word]\nnotes:\n  - Wrod: typo", "unknown field"},
		{"invalid yaml", "deck: [unclosed", "parse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestSync_ImportSkipAndRemove(t *testing.T) {
	store := testutil.TestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d, err := Parse([]byte(sampleDeck))
	if err != nil {
		t.Fatal(err)
	}

	written, removed, err := Sync(store, d, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if written != 2 || removed != 0 {
		t.Fatalf("first sync: written=%d removed=%d, want 2/0", written, removed)
	}

	// Re-importing the same file changes nothing.
	written, removed, err = Sync(store, d, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if written != 0 || removed != 0 {
		t.Fatalf("re-sync: written=%d removed=%d, want 0/0", written, removed)
	}

	// Dropping a note from the file removes it from the store.
	d.Notes = d.Notes[:1]
	written, removed, err = Sync(store, d, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if written != 0 || removed != 1 {
		t.Fatalf("shrunk sync: written=%d removed=%d, want 0/1", written, removed)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("store holds %d notes, want 1", n)
	}
}

func TestSync_ContentChangeRewrites(t *testing.T) {
	store := testutil.TestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d, err := Parse([]byte(sampleDeck))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := Sync(store, d, logger); err != nil {
		t.Fatal(err)
	}

	d.Notes[0].Fields["Meaning"] = "to eat (v.)"
	written, _, err := Sync(store, d, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if written != 1 {
		t.Fatalf("written = %d after content change, want 1", written)
	}
}
