// Package payload assembles the ordered field values sent to a display.
package payload

import "github.com/cardbeam/cardbeam/internal/notestore"

// Payload is an ordered list of field values. Field names are not carried;
// order alone identifies fields on the display side.
type Payload []string

// Build collects the note's values for visibleFields, in that order.
// Fields the note lacks (or that are empty) are skipped, not padded, so
// len(result) <= len(visibleFields). Field content passes through
// unmodified; any markup inside is the renderer's business.
func Build(n *notestore.Note, visibleFields []string) Payload {
	p := make(Payload, 0, len(visibleFields))
	for _, name := range visibleFields {
		if v := n.Field(name); v != "" {
			p = append(p, v)
		}
	}
	return p
}
