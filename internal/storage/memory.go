package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const memoryLimit = 50

// InMemoryStore is a thread-safe store used when a database is not configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	campaigns []Campaign
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{campaigns: make([]Campaign, 0)}
}

// CreateCampaign prepends a campaign, keeping the newest 50.
func (s *InMemoryStore) CreateCampaign(_ context.Context, input Campaign) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	input = prepare(input, time.Now())

	s.campaigns = append([]Campaign{clone(input)}, s.campaigns...)
	if len(s.campaigns) > memoryLimit {
		s.campaigns = s.campaigns[:memoryLimit]
	}
	return input, nil
}

// UpdateCampaign replaces the stored campaign with the same ID.
func (s *InMemoryStore) UpdateCampaign(_ context.Context, c Campaign) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx, existing := range s.campaigns {
		if existing.ID == c.ID {
			c.CreatedAt = existing.CreatedAt
			c = prepare(c, time.Now())
			s.campaigns[idx] = clone(c)
			return c, nil
		}
	}
	return Campaign{}, ErrNotFound
}

// GetCampaign returns a campaign by ID.
func (s *InMemoryStore) GetCampaign(_ context.Context, id string) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.campaigns {
		if c.ID == id {
			return clone(c), nil
		}
	}
	return Campaign{}, ErrNotFound
}

// ListCampaigns returns campaigns newest first, filtered by venue when venueID is set.
func (s *InMemoryStore) ListCampaigns(_ context.Context, venueID string) ([]Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		if venueID == "" || c.VenueID == venueID {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

// Close satisfies the Store interface.
func (s *InMemoryStore) Close() {}

func clone(c Campaign) Campaign {
	c.Headlines = slices.Clone(c.Headlines)
	c.Descriptions = slices.Clone(c.Descriptions)
	c.Keywords = slices.Clone(c.Keywords)
	c.Resources = slices.Clone(c.Resources)
	return c
}
