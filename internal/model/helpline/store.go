package helpline

// Store exposes helpline retrieval.
type Store interface {
	List() []Helpline
	FindByID(id string) (Helpline, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Helpline
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied helplines.
func NewMemoryStore(items []Helpline) *MemoryStore {
	return &MemoryStore{items: append([]Helpline(nil), items...)}
}

// List returns the helplines in display order.
func (s *MemoryStore) List() []Helpline {
	return append([]Helpline(nil), s.items...)
}

// FindByID looks up a helpline by identifier.
func (s *MemoryStore) FindByID(id string) (Helpline, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Helpline{}, false
}
