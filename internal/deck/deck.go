// Package deck parses YAML deck files and imports them into the note store.
//
// A deck file declares its field order once and lists notes as flat
// name→value maps:
//
//	deck: vocab
//	fields: [Word, Meaning, Sentence]
//	notes:
//	  - guid: jlpt-n3-0001      # optional; derived from content when absent
//	    Word: 食べる
//	    Meaning: to eat
package deck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cardbeam/cardbeam/internal/checksum"
	"github.com/cardbeam/cardbeam/internal/notestore"
)

type deckDoc struct {
	Name   string              `yaml:"deck"`
	Fields []string            `yaml:"fields"`
	Notes  []map[string]string `yaml:"notes"`
}

// Deck is a parsed deck file.
type Deck struct {
	Name       string
	FieldNames []string
	Notes      []notestore.Note
}

// Parse parses a deck file.
func Parse(data []byte) (*Deck, error) {
	var doc deckDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("deck: parse: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("deck: missing deck name")
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("deck: missing fields list")
	}

	known := make(map[string]struct{}, len(doc.Fields))
	for _, f := range doc.Fields {
		known[f] = struct{}{}
	}

	d := &Deck{Name: doc.Name, FieldNames: doc.Fields}
	for i, raw := range doc.Notes {
		n := notestore.Note{
			Deck:       doc.Name,
			GUID:       raw["guid"],
			Fields:     make(map[string]string, len(doc.Fields)),
			FieldOrder: doc.Fields,
		}
		for k, v := range raw {
			if k == "guid" {
				continue
			}
			if _, ok := known[k]; !ok {
				return nil, fmt.Errorf("deck: note %d: unknown field %q", i, k)
			}
			n.Fields[k] = v
		}
		if n.GUID == "" {
			n.GUID = contentGUID(&n)
		}
		d.Notes = append(d.Notes, n)
	}
	return d, nil
}

// Load reads and parses the deck file at path.
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deck: read %s: %w", path, err)
	}
	return Parse(data)
}

// contentGUID derives a stable identity from deck name and field content,
// so re-importing an unchanged file updates rather than duplicates.
func contentGUID(n *notestore.Note) string {
	parts := make([]string, 0, len(n.FieldOrder)+1)
	parts = append(parts, n.Deck)
	for _, name := range n.FieldOrder {
		parts = append(parts, n.Fields[name])
	}
	return checksum.SumStrings(parts...)[:16]
}
