package deck

import (
	"log/slog"

	"github.com/cardbeam/cardbeam/internal/checksum"
	"github.com/cardbeam/cardbeam/internal/notestore"
)

// Sync brings the store's copy of one deck up to date with a parsed file:
//   - new/changed notes are upserted (unchanged ones skipped by checksum)
//   - notes that left the file are deleted from the store
//
// It returns the number of notes written and removed.
func Sync(store notestore.Store, d *Deck, logger *slog.Logger) (written, removed int, err error) {
	existing, err := store.GUIDsByDeck(d.Name)
	if err != nil {
		return 0, 0, err
	}

	inFile := make(map[string]struct{}, len(d.Notes))
	for i := range d.Notes {
		n := &d.Notes[i]
		inFile[n.GUID] = struct{}{}

		cs := noteChecksum(n)
		stored, err := store.ChecksumByGUID(n.GUID)
		if err != nil {
			return written, removed, err
		}
		if stored == cs {
			continue
		}

		if err := store.Upsert(n, cs); err != nil {
			logger.Warn("deck sync: upsert failed",
				slog.String("guid", n.GUID),
				slog.String("error", err.Error()))
			continue
		}
		written++
		logger.Debug("deck sync: upserted", slog.String("guid", n.GUID))
	}

	// Remove notes that are gone from the file.
	for guid := range existing {
		if _, ok := inFile[guid]; !ok {
			if err := store.Delete(guid); err != nil {
				logger.Warn("deck sync: delete failed",
					slog.String("guid", guid),
					slog.String("error", err.Error()))
				continue
			}
			removed++
			logger.Debug("deck sync: removed stale", slog.String("guid", guid))
		}
	}

	return written, removed, nil
}

// noteChecksum digests a note's deck and ordered field content.
func noteChecksum(n *notestore.Note) string {
	parts := make([]string, 0, len(n.FieldOrder)+1)
	parts = append(parts, n.Deck)
	for _, name := range n.FieldOrder {
		parts = append(parts, n.Fields[name])
	}
	return checksum.SumStrings(parts...)
}
