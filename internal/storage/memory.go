package storage

import (
	"sort"
	"sync"

	"github.com/mockdeck/mockdeck/pkg/mock"
)

// InMemoryRuleStore is a thread-safe in-memory implementation of RuleStore.
type InMemoryRuleStore struct {
	mu    sync.RWMutex
	rules map[string]*mock.Rule
}

// NewInMemoryRuleStore creates a new InMemoryRuleStore.
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*mock.Rule),
	}
}

// Get retrieves a rule by ID. Returns nil if not found.
func (s *InMemoryRuleStore) Get(id string) *mock.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules[id]
}

// Set stores or updates a rule.
func (s *InMemoryRuleStore) Set(r *mock.Rule) error {
	if r == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
	return nil
}

// Delete removes a rule by ID. Returns true if deleted, false if not found.
func (s *InMemoryRuleStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[id]; exists {
		delete(s.rules, id)
		return true
	}
	return false
}

// List returns all stored rules, sorted by priority (descending) then by creation time.
func (s *InMemoryRuleStore) List() []*mock.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*mock.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result
}

// ListBySource returns all rules loaded from a specific source file.
func (s *InMemoryRuleStore) ListBySource(source string) []*mock.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*mock.Rule
	for _, r := range s.rules {
		if r.Source == source {
			result = append(result, r)
		}
	}
	return result
}

// Count returns the number of stored rules.
func (s *InMemoryRuleStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Clear removes all stored rules.
func (s *InMemoryRuleStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = make(map[string]*mock.Rule)
}

// Exists checks if a rule with the given ID exists.
func (s *InMemoryRuleStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.rules[id]
	return exists
}

// Ensure InMemoryRuleStore implements RuleStore.
var _ RuleStore = (*InMemoryRuleStore)(nil)
