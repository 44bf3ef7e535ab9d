package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Repository. It is safe for concurrent use.
type MemStore struct {
	now func() time.Time

	mu            sync.Mutex
	profiles      map[int64]Profile
	discoveries   []Discovery
	sessions      map[int64]Session
	nextDiscovery int64
	nextSession   int64
}

// NewMemStore returns an empty MemStore.
func NewMemStore(opts ...Option) *MemStore {
	o := buildOptions(opts)
	return &MemStore{
		now:           o.now,
		profiles:      make(map[int64]Profile),
		sessions:      make(map[int64]Session),
		nextDiscovery: 1,
		nextSession:   1,
	}
}

// Close is a no-op.
func (m *MemStore) Close() error {
	return nil
}

func (m *MemStore) GetProfile(ctx context.Context, id int64) (Profile, error) {
	if id <= 0 {
		return Profile{}, &ValidationError{Field: "id", Message: "must be positive"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		p = newProfile(id, m.now().UTC())
		m.profiles[id] = p
	}
	return p.clone(), nil
}

func (m *MemStore) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (Profile, error) {
	if err := patch.validate(); err != nil {
		return Profile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("update profile %d: %w", id, ErrNotFound)
	}
	patch.apply(&p, m.now().UTC())
	m.profiles[id] = p
	return p.clone(), nil
}

func (m *MemStore) CreateDiscovery(ctx context.Context, d NewDiscovery) (Discovery, error) {
	if err := d.validate(); err != nil {
		return Discovery{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[d.ProfileID]; !ok {
		return Discovery{}, fmt.Errorf("create discovery: profile %d: %w", d.ProfileID, ErrNotFound)
	}

	rec := Discovery{
		ID:           m.nextDiscovery,
		ProfileID:    d.ProfileID,
		SymbolResult: d.SymbolResult,
		Combination:  append([]string{}, d.Combination...),
		Points:       d.Points,
		DiscoveredAt: m.now().UTC(),
	}
	m.nextDiscovery++
	m.discoveries = append(m.discoveries, rec)
	return rec.clone(), nil
}

func (m *MemStore) ListDiscoveries(ctx context.Context, profileID int64, limit int) ([]Discovery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Discovery{}
	for _, d := range m.discoveries {
		if d.ProfileID == profileID {
			out = append(out, d.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DiscoveredAt.Equal(out[j].DiscoveredAt) {
			return out[i].DiscoveredAt.After(out[j].DiscoveredAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) CreateSession(ctx context.Context, s NewSession) (Session, error) {
	if err := s.validate(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[s.ProfileID]; !ok {
		return Session{}, fmt.Errorf("create session: profile %d: %w", s.ProfileID, ErrNotFound)
	}

	rec := Session{
		ID:        m.nextSession,
		ProfileID: s.ProfileID,
		StartTime: m.now().UTC(),
	}
	m.nextSession++
	m.sessions[rec.ID] = rec
	return rec.clone(), nil
}

func (m *MemStore) UpdateSession(ctx context.Context, id int64, patch SessionPatch) (Session, error) {
	if err := patch.validate(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("update session %d: %w", id, ErrNotFound)
	}
	patch.apply(&s)
	m.sessions[id] = s
	return s.clone(), nil
}

func (m *MemStore) ListSessions(ctx context.Context, profileID int64) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Session{}
	for _, s := range m.sessions {
		if s.ProfileID == profileID {
			out = append(out, s.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
