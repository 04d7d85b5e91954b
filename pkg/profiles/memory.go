package profiles

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It is the default backend for local
// development and the fixture used by handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	handles  map[string]string // handle -> id
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		handles:  make(map[string]string),
		now:      time.Now,
	}
}

// SetClock replaces the commit clock, for tests
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Create(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; ok {
		return ErrAlreadyExists
	}
	if _, ok := s.handles[p.Handle]; ok {
		return ErrHandleTaken
	}

	now := s.now().UTC()
	p.CreatedAt = now
	p.LastLoginAt = now

	s.profiles[p.ID] = p.Clone()
	s.handles[p.Handle] = p.ID
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) GetByHandle(ctx context.Context, handle string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.handles[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return s.profiles[id].Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, q ListQuery) ([]*Profile, error) {
	s.mu.RLock()
	result := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if q.Matches(p) {
			result = append(result, p.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(result, q.Compare)
	return result, nil
}

func (s *MemoryStore) UpdateDetails(ctx context.Context, id, fullName, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := s.handles[handle]; taken && owner != id {
		return ErrHandleTaken
	}

	delete(s.handles, p.Handle)
	p.FullName = fullName
	p.Handle = handle
	s.handles[handle] = id
	return nil
}

func (s *MemoryStore) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = active
	return nil
}

func (s *MemoryStore) PromoteToAdmin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return ErrNotFound
	}
	if p.Role == RoleUser {
		p.Role = RoleAdmin
	}
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, taken := s.handles[p.Handle]; taken && owner != p.ID {
		return ErrHandleTaken
	}

	now := s.now().UTC()
	if existing, ok := s.profiles[p.ID]; ok {
		delete(s.handles, existing.Handle)
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.LastLoginAt = now

	s.profiles[p.ID] = p.Clone()
	s.handles[p.Handle] = p.ID
	return nil
}

func (s *MemoryStore) Counts(ctx context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{ByRole: make(map[Role]int)}
	for _, p := range s.profiles {
		c.Total++
		if p.Active {
			c.Active++
		}
		c.ByRole[p.Role]++
	}
	return c, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
