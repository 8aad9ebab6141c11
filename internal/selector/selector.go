// Package selector picks the one note a plugin pushes each cycle.
package selector

import (
	"github.com/cardbeam/cardbeam/internal/notestore"
)

// findLimit bounds how many candidates a query may return. The selector
// only needs the first usable note, but the filter below may reject
// leading candidates, so a margin is fetched.
const findLimit = 100

// Select runs query against the store and returns the first note, by
// stable store ordering, that carries non-empty content for at least one
// of visibleFields.
//
// Selection is deterministic: the same store state and query always yield
// the same note. A query matching zero usable notes returns (nil, nil),
// and the plugin simply skips this cycle.
func Select(store notestore.Store, query string, visibleFields []string) (*notestore.Note, error) {
	notes, err := store.Find(query, findLimit)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if hasVisibleContent(&notes[i], visibleFields) {
			return &notes[i], nil
		}
	}
	return nil, nil
}

func hasVisibleContent(n *notestore.Note, visibleFields []string) bool {
	for _, name := range visibleFields {
		if n.Field(name) != "" {
			return true
		}
	}
	return false
}
