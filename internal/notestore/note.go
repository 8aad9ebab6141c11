package notestore

// Note is a single flashcard record. Fields maps field names to their
// string content; FieldOrder preserves the deck's declared field order.
type Note struct {
	ID         int64
	GUID       string
	Deck       string
	Fields     map[string]string
	FieldOrder []string
}

// Field returns the content of the named field, or "" when absent.
func (n *Note) Field(name string) string {
	return n.Fields[name]
}

// Store defines the interface for note store operations. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with fakes.
type Store interface {
	Find(query string, limit int) ([]Note, error)
	Get(id int64) (*Note, error)
	Upsert(n *Note, checksum string) error
	Delete(guid string) error
	ChecksumByGUID(guid string) (string, error)
	GUIDsByDeck(deck string) (map[string]struct{}, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
