package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smallnest/search4people/store"
)

// MemoryPersonStore is an in-memory implementation of store.Store. It is
// safe for concurrent use and intended for tests and single-process demos.
type MemoryPersonStore struct {
	mu     sync.RWMutex
	people map[int64]*store.Person
	nextID int64
}

var _ store.Store = (*MemoryPersonStore)(nil)

// NewMemoryPersonStore creates an empty in-memory store.
func NewMemoryPersonStore() *MemoryPersonStore {
	return &MemoryPersonStore{
		people: make(map[int64]*store.Person),
	}
}

// Create inserts a new person.
func (s *MemoryPersonStore) Create(ctx context.Context, p *store.Person) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()

	stored := *p
	stored.ID = s.nextID
	if stored.Status == "" {
		stored.Status = store.StatusActive
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.people[stored.ID] = &stored
	return stored.ID, nil
}

// Get returns a copy of the person with the given ID.
func (s *MemoryPersonStore) Get(ctx context.Context, id int64) (*store.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *p
	return &out, nil
}

// List returns copies of all people, most recently updated first.
func (s *MemoryPersonStore) List(ctx context.Context, includeArchived bool) ([]*store.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var people []*store.Person
	for _, p := range s.people {
		if !includeArchived && p.Status != store.StatusActive {
			continue
		}
		out := *p
		people = append(people, &out)
	}
	sort.Slice(people, func(i, j int) bool {
		if people[i].UpdatedAt.Equal(people[j].UpdatedAt) {
			return people[i].ID > people[j].ID
		}
		return people[i].UpdatedAt.After(people[j].UpdatedAt)
	})
	return people, nil
}

// Update rewrites the mutable fields of an existing person.
func (s *MemoryPersonStore) Update(ctx context.Context, p *store.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.people[p.ID]
	if !ok {
		return store.ErrNotFound
	}

	updated := *p
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	if updated.Status == "" {
		updated.Status = existing.Status
	}
	s.people[p.ID] = &updated
	return nil
}

// Archive marks the person archived.
func (s *MemoryPersonStore) Archive(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Status = store.StatusArchived
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the person.
func (s *MemoryPersonStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.people, id)
	return nil
}

// FindExisting returns an active person matching the identity fields.
func (s *MemoryPersonStore) FindExisting(ctx context.Context, firstName, lastName, surname, phone string) (*store.Person, error) {
	people, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		if p.MatchesIdentity(firstName, lastName, surname, phone) {
			return p, nil
		}
	}
	return nil, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryPersonStore) Close() error {
	return nil
}
