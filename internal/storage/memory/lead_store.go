// Package memory provides an in-memory lead store for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/hdcnetworks/leadscan/internal/leads"
)

// LeadStore keeps leads in a mutex-guarded map keyed by id.
type LeadStore struct {
	mu    sync.RWMutex
	items map[string]leads.Lead
}

// NewLeadStore constructs a LeadStore.
func NewLeadStore() *LeadStore {
	return &LeadStore{items: make(map[string]leads.Lead)}
}

// Put conditionally inserts the lead, reporting whether it was new.
func (s *LeadStore) Put(_ context.Context, lead leads.Lead) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[lead.ID]; exists {
		return false, nil
	}
	s.items[lead.ID] = lead
	return true, nil
}

// Get returns the lead for an id.
func (s *LeadStore) Get(_ context.Context, id string) (leads.Lead, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.items[id]
	return lead, ok, nil
}

// Len reports the number of stored leads.
func (s *LeadStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close is a no-op for the in-memory store.
func (s *LeadStore) Close() {}
