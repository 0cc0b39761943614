package gigs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentlyou/internal/store"
	"agentlyou/shared/go/models"
)

// memStore is an in-memory Store with the same compare-and-swap semantics as
// the Postgres implementation.
type memStore struct {
	mu   sync.Mutex
	gigs map[uuid.UUID]models.Gig
	now  time.Time

	// beforeWrite runs inside UpdateGig/TransitionGigStatus before the guard is checked.
	beforeWrite func(g *models.Gig)
}

func newMemStore() *memStore {
	return &memStore{gigs: make(map[uuid.UUID]models.Gig), now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) CreateGig(_ context.Context, gig *models.Gig) (*models.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gig.ID == uuid.Nil {
		gig.ID = uuid.New()
	}
	gig.CreatedAt, gig.UpdatedAt = m.now, m.now
	m.gigs[gig.ID] = *gig
	cp := *gig
	return &cp, nil
}

func (m *memStore) GetGig(_ context.Context, id uuid.UUID) (*models.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gigs[id]
	if !ok {
		return nil, store.ErrGigNotFound
	}
	return &g, nil
}

func (m *memStore) ListGigsByClient(_ context.Context, clientID uuid.UUID) ([]*models.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Gig
	for _, g := range m.gigs {
		if g.ClientID == clientID {
			g := g
			out = append(out, &g)
		}
	}
	return out, nil
}

func (m *memStore) UpdateGig(_ context.Context, gig *models.Gig, editable []models.GigStatus) (*models.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.gigs[gig.ID]
	if !ok {
		return nil, store.ErrGigNotFound
	}
	if m.beforeWrite != nil {
		m.beforeWrite(&cur)
		m.gigs[gig.ID] = cur
	}
	allowed := false
	for _, st := range editable {
		if cur.Status == st {
			allowed = true
		}
	}
	if !allowed {
		return nil, store.ErrStatusConflict
	}
	next := *gig
	next.Status, next.ClientID, next.AgentID, next.CreatedAt = cur.Status, cur.ClientID, cur.AgentID, cur.CreatedAt
	next.UpdatedAt = m.now
	m.gigs[gig.ID] = next
	return &next, nil
}

func (m *memStore) TransitionGigStatus(_ context.Context, id uuid.UUID, from, to models.GigStatus, agentID *uuid.UUID) (*models.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.gigs[id]
	if !ok {
		return nil, store.ErrGigNotFound
	}
	if m.beforeWrite != nil {
		m.beforeWrite(&cur)
		m.gigs[id] = cur
	}
	if cur.Status != from {
		return nil, store.ErrStatusConflict
	}
	cur.Status = to
	cur.AgentID = agentID
	cur.UpdatedAt = m.now
	m.gigs[id] = cur
	return &cur, nil
}

func (m *memStore) put(g models.Gig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gigs[g.ID] = g
}

// fakePlaces resolves venues by place id and remembers every call.
type fakePlaces struct {
	mu     sync.Mutex
	venues map[string]*models.Venue
	calls  []models.VenueInput
	nextID int64
	err    error
}

func newFakePlaces() *fakePlaces {
	return &fakePlaces{venues: make(map[string]*models.Venue)}
}

func (f *fakePlaces) ResolveVenue(_ context.Context, in models.VenueInput) (*models.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.venues[in.PlaceID]; ok {
		v.Name, v.Address = in.Name, in.Address
		v.Location.City, v.Location.StateRegion, v.Location.Country = in.Location.City, in.Location.StateRegion, in.Location.Country
		return cloneVenue(v), nil
	}
	f.nextID++
	v := &models.Venue{
		ID:         f.nextID,
		PlaceID:    in.PlaceID,
		Name:       in.Name,
		Address:    in.Address,
		LocationID: f.nextID * 10,
		Location: &models.Location{
			ID:          f.nextID * 10,
			City:        in.Location.City,
			StateRegion: in.Location.StateRegion,
			Country:     in.Location.Country,
		},
	}
	f.venues[in.PlaceID] = v
	return cloneVenue(v), nil
}

func cloneVenue(v *models.Venue) *models.Venue {
	cp := *v
	loc := *v.Location
	cp.Location = &loc
	return &cp
}
