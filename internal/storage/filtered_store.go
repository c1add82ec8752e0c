package storage

import (
	"github.com/mockdeck/mockdeck/pkg/mock"
)

// FilteredRuleStore wraps a RuleStore and filters by serviceID.
// This provides a live view of the underlying store scoped to a single
// service. All reads are filtered, writes automatically set the serviceID.
type FilteredRuleStore struct {
	underlying RuleStore
	serviceID  string
}

// NewFilteredRuleStore creates a new filtered store wrapper.
func NewFilteredRuleStore(store RuleStore, serviceID string) *FilteredRuleStore {
	return &FilteredRuleStore{
		underlying: store,
		serviceID:  serviceID,
	}
}

// Get retrieves a rule by ID, only if it belongs to this service.
func (f *FilteredRuleStore) Get(id string) *mock.Rule {
	r := f.underlying.Get(id)
	if r == nil {
		return nil
	}
	if r.ServiceID != f.serviceID {
		return nil
	}
	return r
}

// Set stores a rule, automatically setting the serviceID.
// The caller's rule is cloned, not mutated.
func (f *FilteredRuleStore) Set(r *mock.Rule) error {
	if r == nil {
		return nil
	}
	c := r.Clone()
	c.ServiceID = f.serviceID
	return f.underlying.Set(c)
}

// Delete removes a rule by ID, only if it belongs to this service.
func (f *FilteredRuleStore) Delete(id string) bool {
	r := f.underlying.Get(id)
	if r == nil || r.ServiceID != f.serviceID {
		return false
	}
	return f.underlying.Delete(id)
}

// List returns all rules belonging to this service.
func (f *FilteredRuleStore) List() []*mock.Rule {
	all := f.underlying.List()
	filtered := make([]*mock.Rule, 0)
	for _, r := range all {
		if r != nil && r.ServiceID == f.serviceID {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ListBySource returns this service's rules loaded from a specific source file.
func (f *FilteredRuleStore) ListBySource(source string) []*mock.Rule {
	all := f.underlying.ListBySource(source)
	filtered := make([]*mock.Rule, 0)
	for _, r := range all {
		if r != nil && r.ServiceID == f.serviceID {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Count returns the number of rules in this service.
func (f *FilteredRuleStore) Count() int {
	return len(f.List())
}

// Clear removes all rules belonging to this service.
func (f *FilteredRuleStore) Clear() {
	for _, r := range f.List() {
		f.underlying.Delete(r.ID)
	}
}

// Exists checks if a rule with the given ID exists in this service.
func (f *FilteredRuleStore) Exists(id string) bool {
	return f.Get(id) != nil
}

// ServiceID returns the service ID this store is filtered to.
func (f *FilteredRuleStore) ServiceID() string {
	return f.serviceID
}

// Underlying returns the underlying unfiltered store.
func (f *FilteredRuleStore) Underlying() RuleStore {
	return f.underlying
}

// Ensure FilteredRuleStore implements RuleStore.
var _ RuleStore = (*FilteredRuleStore)(nil)
